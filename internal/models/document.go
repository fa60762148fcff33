package models

// Document is the metadata of a file uploaded for a tenant.
type Document struct {
	ID       string
	TenantID string

	// URL is the publicly resolvable location of the blob.
	URL string

	// ObjectKey is the key of the blob inside the store, kept so the blob
	// can be removed when the document is deleted.
	ObjectKey string

	Label       string
	FileName    string
	ContentType string
	CreatedAt   int64
}
