package storage

import (
	"context"
	"io"
)

// Storage is where file payload bytes physically live. The rest of the
// service only talks to blobs through this contract.
type Storage interface {
	// Save persists the payload under the given object name. Callers may run
	// it asynchronously relative to the request that produced the payload.
	Save(ctx context.Context, object string, reader io.Reader, size int64, contentType string) error

	// PresignedURL returns a time-limited URL the client can fetch the blob
	// from, forcing the given download filename.
	PresignedURL(ctx context.Context, object, filename string) (string, error)

	// Remove deletes the blob. Removing a missing object is not an error.
	Remove(ctx context.Context, object string) error
}
