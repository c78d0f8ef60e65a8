package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

var (
	// ErrObjectNotFound is returned when the requested key does not exist.
	ErrObjectNotFound = errors.New("object not found in storage")
)

// Object is a stored object opened for reading. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectInfo describes one entry of a listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// PutObject stores body under objectKey with the given content type.
	PutObject(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error

	// GetObject opens objectKey for reading. Returns ErrObjectNotFound for a missing key.
	GetObject(ctx context.Context, objectKey string) (*Object, error)

	// CopyObject copies srcKey to dstKey inside the bucket, keeping
	// content type and user metadata.
	CopyObject(ctx context.Context, srcKey, dstKey string) error

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error

	// ListObjects returns every object whose key starts with prefix.
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
}
