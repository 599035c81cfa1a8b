package objectstore

import "context"

// Store holds the original PDFs, trimmed PDFs and structured JSON results,
// keyed by opaque storage keys. Writes are idempotent by key: the same job
// always computes the same derived key, so a retried write after a crash is
// safe to repeat.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Derived-key convention for pipeline artifacts.

// TrimmedKey is the storage key for the reduced PDF of originalKey.
func TrimmedKey(originalKey string) string {
	return originalKey + ".trimmed.pdf"
}

// ResultKey is the storage key for the standardized JSON of originalKey.
func ResultKey(originalKey string) string {
	return originalKey + ".std.json"
}

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJSON = "application/json"
)
