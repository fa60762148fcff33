package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

const documentColumns = "id, tenant_id, url, object_key, label, file_name, content_type, created_at"

// CreateDocument stores document metadata. The blob itself lives in the
// blob store under ObjectKey.
func (s *Store) CreateDocument(ctx context.Context, d *models.Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt == 0 {
		d.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		d.ID, d.TenantID, d.URL, d.ObjectKey, d.Label, d.FileName, d.ContentType, d.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert document", err)
	}
	return nil
}

func scanDocument(row scanner) (*models.Document, error) {
	d := &models.Document{}
	err := row.Scan(&d.ID, &d.TenantID, &d.URL, &d.ObjectKey, &d.Label,
		&d.FileName, &d.ContentType, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetDocument retrieves document metadata by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT "+documentColumns+" FROM documents WHERE id = ?"), id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns a tenant's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, tenantID string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+documentColumns+" FROM documents WHERE tenant_id = ? ORDER BY created_at DESC, file_name"), tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes document metadata.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM documents WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return affected(res, "document", id)
}
