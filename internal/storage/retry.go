package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"autodealer/inventory/internal/logging"

	backoff "github.com/cenkalti/backoff/v4"
)

// RetryingStorage wraps a FileStorage and retries transient failures of the
// idempotent operations with exponential backoff. Uploads stream their body
// once and are passed through unchanged.
type RetryingStorage struct {
	delegate     FileStorage
	buildBackoff func() backoff.BackOff
	logger       *slog.Logger
}

// NewRetryingStorage decorates delegate. A nil factory retries for up to
// maxElapsed starting at 100ms.
func NewRetryingStorage(delegate FileStorage, maxElapsed time.Duration, factory func() backoff.BackOff, logger *slog.Logger) *RetryingStorage {
	if factory == nil {
		if maxElapsed <= 0 {
			maxElapsed = 5 * time.Second
		}
		factory = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxElapsedTime = maxElapsed
			return b
		}
	}
	return &RetryingStorage{
		delegate:     delegate,
		buildBackoff: factory,
		logger:       logging.OrDiscard(logger).With("component", "storage_retry"),
	}
}

func (r *RetryingStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	return r.delegate.GeneratePresignedUploadURL(ctx, objectKey, contentType, expires)
}

func (r *RetryingStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return r.delegate.GeneratePresignedDownloadURL(ctx, objectKey, expires)
}

func (r *RetryingStorage) PutObject(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error {
	return r.delegate.PutObject(ctx, objectKey, body, size, contentType)
}

func (r *RetryingStorage) GetObject(ctx context.Context, objectKey string) (*Object, error) {
	return retryWithData(ctx, r, "get", func() (*Object, error) {
		return r.delegate.GetObject(ctx, objectKey)
	})
}

func (r *RetryingStorage) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	return r.retry(ctx, "copy", func() error { return r.delegate.CopyObject(ctx, srcKey, dstKey) })
}

func (r *RetryingStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return r.retry(ctx, "delete", func() error { return r.delegate.DeleteObject(ctx, objectKey) })
}

func (r *RetryingStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return retryWithData(ctx, r, "list", func() ([]ObjectInfo, error) {
		return r.delegate.ListObjects(ctx, prefix)
	})
}

func (r *RetryingStorage) retry(ctx context.Context, op string, fn func() error) error {
	_, err := retryWithData(ctx, r, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func retryWithData[T any](ctx context.Context, r *RetryingStorage, op string, fn func() (T, error)) (T, error) {
	b := backoff.WithContext(r.buildBackoff(), ctx)
	return backoff.RetryNotifyWithData(func() (T, error) {
		v, err := fn()
		if err != nil && !IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, b, func(err error, wait time.Duration) {
		r.logger.Warn("storage operation failed, retrying", "op", op, "wait", wait, "error", err)
	})
}

// IsTransient reports whether err is worth retrying. Missing objects,
// cancelled contexts and 4xx responses (other than 408 and 429) are final.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrObjectNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		if code >= 400 && code < 500 {
			return code == 408 || code == 429
		}
	}
	return true
}

var _ FileStorage = (*RetryingStorage)(nil)
