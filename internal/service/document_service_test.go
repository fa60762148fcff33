package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

// failingDocuments rejects every metadata insert.
type failingDocuments struct {
	storage.Store
}

func (failingDocuments) CreateDocument(context.Context, *models.Document) error {
	return errors.New("disk full")
}

func TestDocumentUpload(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, _, created := seedTenant(t, env)
	id := created.Tenant.ID
	env.documents.now = func() time.Time { return time.Unix(0, 1700000000000000000) }

	doc, err := env.documents.Upload(ctx, DocumentUpload{
		TenantID:    id,
		FileName:    "Lease Agreement.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF"),
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	wantKey := id + "/1700000000000000000_Lease_Agreement.pdf"
	if doc.ObjectKey != wantKey {
		t.Errorf("ObjectKey = %q, want %q", doc.ObjectKey, wantKey)
	}
	if doc.Label != "Lease Agreement.pdf" {
		t.Errorf("Label = %q, want file name", doc.Label)
	}
	if doc.URL != "mem://"+wantKey {
		t.Errorf("URL = %q", doc.URL)
	}

	docs, err := env.documents.List(ctx, id)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	if err := env.documents.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if env.blobs.len() != 0 {
		t.Error("blob should be deleted with the document")
	}
}

func TestDocumentUploadRemovesBlobWhenInsertFails(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, _, created := seedTenant(t, env)

	svc := NewDocumentService(failingDocuments{env.store}, env.blobs, eventlog.Discard)
	_, err := svc.Upload(ctx, DocumentUpload{
		TenantID: created.Tenant.ID,
		Label:    "ID proof",
		FileName: "id.png",
		Body:     strings.NewReader("png"),
	})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected insert error, got %v", err)
	}
	if env.blobs.len() != 0 {
		t.Errorf("expected orphaned blob to be removed, %d left", env.blobs.len())
	}
}

func TestDocumentUploadValidation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	if _, err := env.documents.Upload(ctx, DocumentUpload{TenantID: "t", Body: strings.NewReader("x")}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing file name: expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.documents.Upload(ctx, DocumentUpload{TenantID: "missing", FileName: "a.pdf", Body: strings.NewReader("x")}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown tenant: expected ErrNotFound, got %v", err)
	}
}

func TestDocumentRemoveBlobsAfterTenantDelete(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, _, created := seedTenant(t, env)
	id := created.Tenant.ID

	for _, name := range []string{"lease.pdf", "id.png"} {
		if _, err := env.documents.Upload(ctx, DocumentUpload{TenantID: id, FileName: name, Body: strings.NewReader("x")}); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
	}
	docs, err := env.documents.List(ctx, id)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if err := env.tenants.DeleteTenant(ctx, id); err != nil {
		t.Fatalf("DeleteTenant failed: %v", err)
	}
	if _, err := env.documents.Get(ctx, docs[0].ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("document rows should cascade, got %v", err)
	}
	if env.blobs.len() != 2 {
		t.Fatalf("blobs should outlive the rows until removed, got %d", env.blobs.len())
	}

	env.documents.RemoveBlobs(ctx, docs)
	if env.blobs.len() != 0 {
		t.Errorf("expected all blobs removed, %d left", env.blobs.len())
	}
}
