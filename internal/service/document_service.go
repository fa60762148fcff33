package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/rentroll/internal/blob"
	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

// DocumentUpload is one uploaded file.
type DocumentUpload struct {
	TenantID    string `validate:"required" label:"tenant"`
	Label       string `validate:"max=200"`
	FileName    string `validate:"required,max=255" label:"file"`
	ContentType string
	Body        io.Reader
}

// DocumentService stores tenant documents: blobs in blob.Store, metadata in
// the database.
type DocumentService struct {
	store  storage.Store
	blobs  blob.Store
	events eventlog.Logger
	now    func() time.Time
}

func NewDocumentService(store storage.Store, blobs blob.Store, events eventlog.Logger) *DocumentService {
	return &DocumentService{store: store, blobs: blobs, events: events, now: time.Now}
}

// Upload writes the blob and then its metadata. If the metadata insert
// fails the blob is deleted again and the insert error is returned.
func (s *DocumentService) Upload(ctx context.Context, in DocumentUpload) (*models.Document, error) {
	in.Label = strings.TrimSpace(in.Label)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Body == nil {
		return nil, invalid("file is empty")
	}
	if _, err := s.store.GetTenant(ctx, in.TenantID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s/%d_%s", in.TenantID, s.now().UnixNano(), blob.SanitizeFileName(in.FileName))
	url, err := s.blobs.Put(ctx, key, in.ContentType, in.Body)
	if err != nil {
		slog.Error("Document upload failed", "tenant_id", in.TenantID, "key", key, "error", err)
		return nil, fmt.Errorf("upload document: %w", err)
	}

	label := in.Label
	if label == "" {
		label = in.FileName
	}
	doc := &models.Document{
		TenantID:    in.TenantID,
		URL:         url,
		ObjectKey:   key,
		Label:       label,
		FileName:    in.FileName,
		ContentType: in.ContentType,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		slog.Error("Document metadata insert failed, removing blob", "tenant_id", in.TenantID, "key", key, "error", err)
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			slog.Error("Failed to remove orphaned blob", "key", key, "error", delErr)
		}
		return nil, err
	}

	slog.Info("Document uploaded", "document_id", doc.ID, "tenant_id", in.TenantID, "key", key)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.DocumentUploaded),
		eventlog.WithSubject(in.TenantID),
		eventlog.WithData(map[string]string{"label": label, "file": in.FileName}),
	))
	return doc, nil
}

// List returns a tenant's documents, newest first.
func (s *DocumentService) List(ctx context.Context, tenantID string) ([]*models.Document, error) {
	return s.store.ListDocuments(ctx, tenantID)
}

// Get returns one document.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// Delete removes the metadata and then the blob. A blob failure is logged
// and not returned: the document is already gone for users.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		slog.Error("DeleteDocument failed", "document_id", id, "error", err)
		return err
	}
	if err := s.blobs.Delete(ctx, doc.ObjectKey); err != nil {
		slog.Warn("Failed to delete document blob", "document_id", id, "key", doc.ObjectKey, "error", err)
	}

	slog.Info("Document deleted", "document_id", id, "tenant_id", doc.TenantID)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.DocumentDeleted),
		eventlog.WithSubject(doc.TenantID),
		eventlog.WithData(map[string]string{"label": doc.Label}),
	))
	return nil
}

// RemoveBlobs deletes the stored files of documents whose rows are already
// gone, e.g. after their tenant was deleted. Failures are logged.
func (s *DocumentService) RemoveBlobs(ctx context.Context, docs []*models.Document) {
	for _, doc := range docs {
		if err := s.blobs.Delete(ctx, doc.ObjectKey); err != nil {
			slog.Warn("Failed to delete document blob", "document_id", doc.ID, "key", doc.ObjectKey, "error", err)
		}
	}
}
