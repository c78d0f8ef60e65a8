package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"autodealer/inventory/internal/config"
	"autodealer/inventory/internal/imagekey"
	"autodealer/inventory/internal/logging"
	"autodealer/inventory/internal/metrics"
	"autodealer/inventory/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// --- Error Definitions ---
var (
	ErrValidation       = errors.New("validation failed")
	ErrImageNotFound    = errors.New("image not found")
	ErrStoreUnavailable = errors.New("object store unavailable")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnsupportedType  = errors.New("unsupported image type")
)

const (
	defaultSignedURLTTL      = 24 * time.Hour
	defaultMaxUploadSize     = 10 << 20
	defaultCommitConcurrency = 4
)

var defaultAllowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// CleanupResult reports a batch cleanup. DeletedCount is the number of
// objects targeted; FailedCount is how many of them could not be removed.
type CleanupResult struct {
	DeletedCount int `json:"deletedCount"`
	FailedCount  int `json:"failedCount,omitempty"`
}

// UploadFile is one file of an upload request. Body is read once.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadRequest stores files under the entity prefix when EntityID is set,
// otherwise under the staging prefix of BatchID (generated when empty).
type UploadRequest struct {
	Class    string
	EntityID string
	BatchID  string
	Files    []UploadFile
}

// UploadedImage describes one stored upload.
type UploadedImage struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// UploadResult is the outcome of Upload.
type UploadResult struct {
	BatchID string          `json:"batchId,omitempty"`
	Images  []UploadedImage `json:"images"`
}

// PresignRequest asks for a direct-to-bucket upload URL inside a batch.
type PresignRequest struct {
	Class       string
	BatchID     string
	Filename    string
	ContentType string
}

// PresignedUpload is a staged key plus the URL the client PUTs to.
type PresignedUpload struct {
	BatchID   string `json:"batchId"`
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

// DeleteResult summarizes a bulk delete.
type DeleteResult struct {
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors"`
}

// ImageService runs the photo lifecycle of listings: staging uploads,
// committing them to an entity, discarding abandoned batches and serving
// stored bytes.
type ImageService interface {
	// Commit relocates staged references to the entity prefix. The result
	// has one entry per input, in input order; references that are not
	// staged, or whose relocation failed, come back unchanged.
	Commit(ctx context.Context, class, entityID string, images []string) ([]string, error)
	// Cleanup deletes every object of a staging batch.
	Cleanup(ctx context.Context, class, batchID string) (CleanupResult, error)
	// ExtractKey resolves an image reference to its storage key.
	ExtractKey(ref string) (string, bool)
	// SignedURL issues a time-limited read URL for key. A non-positive ttl
	// uses the configured default.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Fetch opens a stored object. Every store failure maps to ErrImageNotFound.
	Fetch(ctx context.Context, key string) (*storage.Object, error)
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	PresignUpload(ctx context.Context, req PresignRequest) (*PresignedUpload, error)
	// Delete removes the object ref points at and returns its key.
	Delete(ctx context.Context, ref string) (string, error)
	DeleteMany(ctx context.Context, refs []string) (*DeleteResult, error)
}

// imageService implements the ImageService interface.
type imageService struct {
	store    storage.FileStorage
	resolver imagekey.Resolver
	cfg      config.ImagesConfig
	allowed  map[string]bool
	locks    *keyedMutex
	metrics  *metrics.Metrics
	logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewImageService creates a new instance of imageService. Zero values in cfg
// fall back to the defaults of the upload endpoint.
func NewImageService(store storage.FileStorage, resolver imagekey.Resolver, cfg config.ImagesConfig, m *metrics.Metrics, logger *slog.Logger) ImageService {
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = defaultSignedURLTTL
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	if cfg.CommitConcurrency < 1 {
		cfg.CommitConcurrency = defaultCommitConcurrency
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = defaultAllowedTypes
	}
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}

	return &imageService{
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		allowed:  allowed,
		locks:    newKeyedMutex(),
		metrics:  m,
		logger:   logging.OrDiscard(logger).With("component", "images"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// relocation is the per-item result of a commit.
type relocation struct {
	url       string
	err       error
	committed bool
}

func (s *imageService) Commit(ctx context.Context, class, entityID string, images []string) ([]string, error) {
	if entityID == "" {
		return nil, fmt.Errorf("%w: carId is required", ErrValidation)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: images are required", ErrValidation)
	}
	if !imagekey.ValidClass(class) {
		return nil, fmt.Errorf("%w: unknown entity type %q", ErrValidation, class)
	}
	if !imagekey.ValidSegment(entityID) {
		return nil, fmt.Errorf("%w: invalid entity id %q", ErrValidation, entityID)
	}

	unlock := s.locks.Lock(imagekey.EntityPrefix(class, entityID))
	defer unlock()

	results := make([]relocation, len(images))
	var g errgroup.Group
	g.SetLimit(s.cfg.CommitConcurrency)
	for i, ref := range images {
		i, ref := i, ref
		g.Go(func() error {
			results[i] = s.relocate(ctx, class, entityID, ref)
			return nil
		})
	}
	_ = g.Wait() // items never fail the group

	out := resolveRelocations(images, results)

	committed := 0
	for _, r := range results {
		if r.committed {
			committed++
		}
	}
	s.logger.Info("images committed", "class", class, "entity_id", entityID, "total", len(images), "relocated", committed)
	return out, nil
}

// resolveRelocations substitutes the original reference for every failed item.
func resolveRelocations(refs []string, results []relocation) []string {
	out := make([]string, len(refs))
	for i, r := range results {
		if r.err != nil || r.url == "" {
			out[i] = refs[i]
			continue
		}
		out[i] = r.url
	}
	return out
}

func (s *imageService) relocate(ctx context.Context, class, entityID, ref string) relocation {
	key, ok := s.resolver.ExtractKey(ref)
	if !ok || !key.IsStaged() {
		s.metrics.IncRelocation(metrics.OutcomePassThrough)
		return relocation{url: ref}
	}

	opCtx, cancel := s.operationContext(ctx)
	defer cancel()

	dst := imagekey.PermanentKey(class, entityID, key.Filename)
	if err := s.store.CopyObject(opCtx, key.Raw, dst); err != nil {
		s.metrics.IncRelocation(metrics.OutcomeFailed)
		s.logger.Error("image relocation failed", "src", key.Raw, "dst", dst, "error", err)
		return relocation{err: fmt.Errorf("copy %s: %w", key.Raw, err)}
	}
	if err := s.store.DeleteObject(opCtx, key.Raw); err != nil {
		// The staged object is still there, so the original reference stays
		// valid; the permanent copy is left for a later commit to overwrite.
		s.metrics.IncRelocation(metrics.OutcomeFailed)
		s.logger.Warn("staged image copied but not deleted, permanent copy orphaned", "src", key.Raw, "dst", dst, "error", err)
		return relocation{err: fmt.Errorf("delete %s: %w", key.Raw, err)}
	}

	s.metrics.IncRelocation(metrics.OutcomeCommitted)
	return relocation{url: s.resolver.URL(dst), committed: true}
}

func (s *imageService) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.OperationTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *imageService) Cleanup(ctx context.Context, class, batchID string) (CleanupResult, error) {
	if batchID == "" {
		return CleanupResult{}, fmt.Errorf("%w: batchId is required", ErrValidation)
	}
	if !imagekey.ValidClass(class) {
		return CleanupResult{}, fmt.Errorf("%w: unknown entity type %q", ErrValidation, class)
	}
	if !imagekey.ValidSegment(batchID) {
		return CleanupResult{}, fmt.Errorf("%w: invalid batch id %q", ErrValidation, batchID)
	}

	prefix := imagekey.StagingPrefix(class, batchID)
	objects, err := s.store.ListObjects(ctx, prefix)
	if err != nil {
		s.logger.Error("listing staging batch failed", "prefix", prefix, "error", err)
		return CleanupResult{}, fmt.Errorf("%w: list %s: %v", ErrStoreUnavailable, prefix, err)
	}
	if len(objects) == 0 {
		return CleanupResult{}, nil
	}

	keys := make([]string, len(objects))
	for i, obj := range objects {
		keys[i] = obj.Key
	}
	failed := s.deleteAll(ctx, keys)

	s.metrics.AddCleanup(len(keys)-len(failed), len(failed))
	s.logger.Info("staging batch cleaned up", "prefix", prefix, "targeted", len(keys), "failed", len(failed))
	return CleanupResult{DeletedCount: len(keys), FailedCount: len(failed)}, nil
}

// deleteAll removes keys concurrently and waits for all of them. It returns
// the error of every key that could not be deleted, keyed by key.
func (s *imageService) deleteAll(ctx context.Context, keys []string) map[string]error {
	errs := make([]error, len(keys))
	var g errgroup.Group
	g.SetLimit(s.cfg.CommitConcurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			opCtx, cancel := s.operationContext(ctx)
			defer cancel()
			errs[i] = s.store.DeleteObject(opCtx, key)
			return nil
		})
	}
	_ = g.Wait()

	failed := make(map[string]error)
	for i, err := range errs {
		if err != nil {
			s.logger.Warn("image delete failed", "key", keys[i], "error", err)
			failed[keys[i]] = err
		}
	}
	return failed
}

func (s *imageService) ExtractKey(ref string) (string, bool) {
	return s.resolver.Extract(ref)
}

func (s *imageService) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("%w: key is required", ErrValidation)
	}
	if ttl <= 0 {
		ttl = s.cfg.SignedURLTTL
	}
	signed, err := s.store.GeneratePresignedDownloadURL(ctx, key, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %v", ErrStoreUnavailable, key, err)
	}
	return signed, nil
}

func (s *imageService) Fetch(ctx context.Context, key string) (*storage.Object, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return nil, fmt.Errorf("%w: missing key", ErrValidation)
	}
	obj, err := s.store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Debug("image not found", "key", key)
		} else {
			s.logger.Error("image fetch failed", "key", key, "error", err)
		}
		return nil, ErrImageNotFound
	}
	return obj, nil
}

func (s *imageService) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.Class == "" {
		req.Class = imagekey.ClassCars
	}
	if !imagekey.ValidClass(req.Class) {
		return nil, fmt.Errorf("%w: unknown entity type %q", ErrValidation, req.Class)
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: no files found", ErrValidation)
	}
	// Reject the whole request before anything is stored.
	for _, f := range req.Files {
		if err := s.checkFile(f.Name, f.ContentType, f.Size); err != nil {
			return nil, err
		}
	}

	result := &UploadResult{Images: make([]UploadedImage, 0, len(req.Files))}
	var prefix string
	switch {
	case req.EntityID != "":
		if !imagekey.ValidSegment(req.EntityID) {
			return nil, fmt.Errorf("%w: invalid entity id %q", ErrValidation, req.EntityID)
		}
		prefix = imagekey.EntityPrefix(req.Class, req.EntityID)
	default:
		batchID, err := s.batchID(req.BatchID)
		if err != nil {
			return nil, err
		}
		result.BatchID = batchID
		prefix = imagekey.StagingPrefix(req.Class, batchID)
	}

	for _, f := range req.Files {
		key := prefix + s.objectName(f.Name)
		contentType := normalizeContentType(f.ContentType)
		if err := s.store.PutObject(ctx, key, f.Body, f.Size, contentType); err != nil {
			s.logger.Error("image upload failed", "key", key, "error", err)
			return nil, fmt.Errorf("%w: upload %s: %v", ErrStoreUnavailable, f.Name, err)
		}
		result.Images = append(result.Images, UploadedImage{
			Key:         key,
			URL:         s.resolver.URL(key),
			Size:        f.Size,
			ContentType: contentType,
		})
	}

	s.metrics.AddUploads(len(result.Images))
	s.logger.Info("images uploaded", "prefix", prefix, "count", len(result.Images))
	return result, nil
}

func (s *imageService) PresignUpload(ctx context.Context, req PresignRequest) (*PresignedUpload, error) {
	if req.Class == "" {
		req.Class = imagekey.ClassCars
	}
	if !imagekey.ValidClass(req.Class) {
		return nil, fmt.Errorf("%w: unknown entity type %q", ErrValidation, req.Class)
	}
	if req.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrValidation)
	}
	if err := s.checkFile(req.Filename, req.ContentType, 0); err != nil {
		return nil, err
	}
	batchID, err := s.batchID(req.BatchID)
	if err != nil {
		return nil, err
	}

	key := imagekey.StagingKey(req.Class, batchID, s.objectName(req.Filename))
	ttl := storage.DefaultPresignedURLExpiry
	uploadURL, err := s.store.GeneratePresignedUploadURL(ctx, key, normalizeContentType(req.ContentType), ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: presign %s: %v", ErrStoreUnavailable, key, err)
	}
	return &PresignedUpload{
		BatchID:   batchID,
		Key:       key,
		UploadURL: uploadURL,
		URL:       s.resolver.URL(key),
		ExpiresIn: int(ttl.Seconds()),
	}, nil
}

func (s *imageService) Delete(ctx context.Context, ref string) (string, error) {
	key, ok := s.resolver.Extract(ref)
	if !ok {
		return "", fmt.Errorf("%w: no valid image identifier provided", ErrValidation)
	}
	opCtx, cancel := s.operationContext(ctx)
	defer cancel()
	if err := s.store.DeleteObject(opCtx, key); err != nil {
		s.logger.Error("image delete failed", "key", key, "error", err)
		return key, fmt.Errorf("%w: delete %s: %v", ErrStoreUnavailable, key, err)
	}
	s.logger.Info("image deleted", "key", key)
	return key, nil
}

func (s *imageService) DeleteMany(ctx context.Context, refs []string) (*DeleteResult, error) {
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		if key, ok := s.resolver.Extract(ref); ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no valid image identifiers found", ErrValidation)
	}

	failed := s.deleteAll(ctx, keys)
	result := &DeleteResult{
		Deleted: len(keys) - len(failed),
		Failed:  len(failed),
		Total:   len(keys),
		Errors:  []string{},
	}
	for _, key := range keys {
		if err, ok := failed[key]; ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", key, err))
		}
	}
	return result, nil
}

func (s *imageService) checkFile(name, contentType string, size int64) error {
	if size > s.cfg.MaxUploadSize {
		return fmt.Errorf("%w: %s exceeds %dMB", ErrFileTooLarge, name, s.cfg.MaxUploadSize>>20)
	}
	ct := normalizeContentType(contentType)
	if !s.allowed[ct] {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return nil
}

func (s *imageService) batchID(requested string) (string, error) {
	if requested == "" {
		return "b_" + s.newID(), nil
	}
	if !imagekey.ValidSegment(requested) {
		return "", fmt.Errorf("%w: invalid batch id %q", ErrValidation, requested)
	}
	return requested, nil
}

var (
	unsafeNameChars = regexp.MustCompile(`[^a-z0-9_-]+`)
	dashRuns        = regexp.MustCompile(`-+`)
)

// objectName builds {base}_{unixMillis}_{shortID}.{ext} from a client file name.
func (s *imageService) objectName(name string) string {
	ext := unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")), "")
	if ext == "" {
		ext = "jpg"
	}
	base := strings.ToLower(strings.TrimSuffix(path.Base(name), path.Ext(name)))
	base = unsafeNameChars.ReplaceAllString(base, "-")
	base = dashRuns.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-.")
	if base == "" {
		base = "img"
	}
	short := strings.ReplaceAll(s.newID(), "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s_%d_%s.%s", base, s.now().UnixMilli(), short, ext)
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
