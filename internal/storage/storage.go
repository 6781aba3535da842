// Package storage abstracts the S3-compatible object store that holds
// uploaded evidence files. Implementations stream content end to end and
// never touch local disk.
package storage

import (
	"context"
	"io"
	"time"
)

// PutObjectOptions are optional parameters for an upload. Size should be the
// exact byte count when known; -1 lets the backend buffer or chunk as it
// supports. ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object store client used for evidence file content. Version
// rows in the database reference objects by key; the store itself knows
// nothing about evidence or versions.
type Storage interface {
	// Put uploads an object under the given key from the provided reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL for downloading without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
