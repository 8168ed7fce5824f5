// Package blob provides the object-store abstraction all published artifacts
// are written through, including the dual key-scheme migration facade.
package blob

import "context"

// ContentType values used for artifact writes.
const (
	ContentTypeJSON     = "application/json"
	ContentTypeText     = "text/plain; charset=utf-8"
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypeCSV      = "text/csv"
	ContentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ObjectStore is a keyed object store. Keys are POSIX-style paths. Reads of
// absent keys return (nil, nil) rather than an error: absence is a normal
// condition for this pipeline, never corruption.
type ObjectStore interface {
	ReadObject(ctx context.Context, key string) ([]byte, error)
	WriteObject(ctx context.Context, key string, data []byte, contentType string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
	Close() error
}
