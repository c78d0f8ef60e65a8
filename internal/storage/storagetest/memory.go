// Package storagetest provides an in-memory storage.FileStorage for tests.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"autodealer/inventory/internal/storage"
)

// Op names an operation for failure injection.
type Op string

const (
	OpPut    Op = "put"
	OpGet    Op = "get"
	OpCopy   Op = "copy"
	OpDelete Op = "delete"
	OpList   Op = "list"
)

type object struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// Memory is a goroutine-safe in-memory bucket.
type Memory struct {
	mu       sync.Mutex
	objects  map[string]object
	failures map[Op]map[string]error
	calls    map[Op]int
	now      func() time.Time
}

// NewMemory returns an empty bucket.
func NewMemory() *Memory {
	return &Memory{
		objects:  make(map[string]object),
		failures: make(map[Op]map[string]error),
		calls:    make(map[Op]int),
		now:      time.Now,
	}
}

// Seed stores data under key without going through PutObject.
func (m *Memory) Seed(key, contentType string, data []byte) {
	m.SeedAt(key, contentType, data, m.now())
}

// SeedAt is Seed with an explicit modification time.
func (m *Memory) SeedAt(key, contentType string, data []byte, modified time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = object{data: append([]byte(nil), data...), contentType: contentType, lastModified: modified}
}

// FailOn makes op fail with err for key. An empty key matches every key.
func (m *Memory) FailOn(op Op, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[op] == nil {
		m.failures[op] = make(map[string]error)
	}
	m.failures[op][key] = err
}

// Has reports whether key exists.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// ContentType returns the stored content type of key.
func (m *Memory) ContentType(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key].contentType
}

// Keys returns every stored key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// must be called with mu held
func (m *Memory) failure(op Op, key string) error {
	m.calls[op]++
	if errs, ok := m.failures[op]; ok {
		if err, ok := errs[key]; ok {
			return err
		}
		if err, ok := errs[""]; ok {
			return err
		}
	}
	return nil
}

func (m *Memory) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	return presigned("PUT", objectKey, expires), nil
}

func (m *Memory) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	return presigned("GET", objectKey, expires), nil
}

func (m *Memory) PutObject(ctx context.Context, objectKey string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpPut, objectKey); err != nil {
		return err
	}
	m.objects[objectKey] = object{data: data, contentType: contentType, lastModified: m.now()}
	return nil
}

func (m *Memory) GetObject(ctx context.Context, objectKey string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpGet, objectKey); err != nil {
		return nil, err
	}
	obj, ok := m.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", objectKey, storage.ErrObjectNotFound)
	}
	return &storage.Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}, nil
}

func (m *Memory) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpCopy, srcKey); err != nil {
		return err
	}
	obj, ok := m.objects[srcKey]
	if !ok {
		return fmt.Errorf("copy %q: %w", srcKey, storage.ErrObjectNotFound)
	}
	obj.lastModified = m.now()
	m.objects[dstKey] = obj
	return nil
}

// DeleteObject succeeds for missing keys, like S3.
func (m *Memory) DeleteObject(ctx context.Context, objectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpDelete, objectKey); err != nil {
		return err
	}
	delete(m.objects, objectKey)
	return nil
}

func (m *Memory) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure(OpList, prefix); err != nil {
		return nil, err
	}
	var out []storage.ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(obj.data)), LastModified: obj.lastModified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func presigned(method, key string, expires time.Duration) string {
	return fmt.Sprintf("https://signed.example.test/%s?method=%s&expires=%d",
		url.PathEscape(key), method, int(expires.Seconds()))
}

var _ storage.FileStorage = (*Memory)(nil)
