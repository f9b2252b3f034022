package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving and retrieving binary objects such as exported reports.
type ObjectStore interface {
	Save(ctx context.Context, namespace, fileName, contentType string, r io.Reader) (storageKey string, sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
