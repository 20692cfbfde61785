package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/wisdomwork-api/pkg/errors"
	"github.com/noah-isme/wisdomwork-api/pkg/jobs"
	"github.com/noah-isme/wisdomwork-api/pkg/storage"
)

// JobTypeBlobDelete is the job type of a compensating blob delete.
const JobTypeBlobDelete = "blob.delete"

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// UploadConfig bounds and names uploaded files.
type UploadConfig struct {
	MaxBytes       int64
	AllowedMIMEs   []string
	UniqueNames    bool
	CleanupOrphans bool
}

// UploadResult describes a stored blob.
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// UploadService stores cover images in the configured blob store.
type UploadService struct {
	store   storage.BlobStore
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	config  UploadConfig
	allowed map[string]struct{}
}

// NewUploadService constructs an UploadService. queue may be nil when orphan cleanup is disabled.
func NewUploadService(store storage.BlobStore, queue jobEnqueuer, metrics *MetricsService, logger *zap.Logger, config UploadConfig) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(config.AllowedMIMEs))
	for _, m := range config.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return &UploadService{store: store, queue: queue, metrics: metrics, logger: logger, config: config, allowed: allowed}
}

// UploadBinary writes data under pathHint and returns its public URL. The raw
// file name is kept unless unique names are enabled, so equal names overwrite.
func (s *UploadService) UploadBinary(ctx context.Context, pathHint, filename string, data []byte, contentType string) (*UploadResult, error) {
	namespace := strings.Trim(pathHint, "/")
	result, err := s.upload(ctx, namespace, filename, data, contentType)
	s.metrics.RecordUpload(namespace, err)
	return result, err
}

func (s *UploadService) upload(ctx context.Context, namespace, filename string, data []byte, contentType string) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpload, "file is empty")
	}
	if s.config.MaxBytes > 0 && int64(len(data)) > s.config.MaxBytes {
		return nil, appErrors.Clone(appErrors.ErrUpload, fmt.Sprintf("file exceeds %d bytes", s.config.MaxBytes))
	}

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return nil, appErrors.Clone(appErrors.ErrUpload, "file name required")
	}

	mediaType := sniffMediaType(data)
	if len(s.allowed) > 0 {
		if _, ok := s.allowed[mediaType]; !ok {
			return nil, appErrors.Clone(appErrors.ErrUpload, fmt.Sprintf("content type %s not allowed", mediaType))
		}
	}
	if declared, _, err := mime.ParseMediaType(contentType); err == nil && declared != mediaType && declared != "application/octet-stream" {
		s.logger.Info("declared content type ignored", zap.String("declared", declared), zap.String("detected", mediaType))
	}
	name = withExtension(name, mediaType)
	if s.config.UniqueNames {
		name = uuid.NewString() + "_" + name
	}

	key := name
	if namespace != "" {
		key = namespace + "/" + name
	}

	url, err := s.store.Put(ctx, key, data, mediaType)
	if err != nil {
		s.logger.Warn("blob upload failed", zap.String("key", key), zap.Error(err))
		return nil, appErrors.As(err, appErrors.ErrUpload, "")
	}

	return &UploadResult{Key: key, URL: url, ContentType: mediaType, Size: len(data)}, nil
}

// sniffMediaType derives the type from the bytes. The type a client declares is never trusted.
func sniffMediaType(data []byte) string {
	detected, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return "application/octet-stream"
	}
	return strings.ToLower(detected)
}

// withExtension makes the name end in an extension registered for mediaType.
func withExtension(name, mediaType string) string {
	exts, _ := mime.ExtensionsByType(mediaType)
	if len(exts) == 0 {
		return name
	}
	current := strings.ToLower(path.Ext(name))
	for _, ext := range exts {
		if current == ext {
			return name
		}
	}
	sort.Strings(exts)
	return strings.TrimSuffix(name, path.Ext(name)) + exts[0]
}

// DiscardOrphan queues deletion of a blob whose owning document was never written.
// It does nothing unless orphan cleanup is enabled.
func (s *UploadService) DiscardOrphan(key string) {
	if !s.config.CleanupOrphans || s.queue == nil || key == "" {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: JobTypeBlobDelete, Payload: key}); err != nil {
		s.logger.Warn("orphan blob left in place", zap.String("key", key), zap.Error(err))
	}
}

// NewOrphanCleanupHandler returns the job handler that deletes orphaned blobs.
func NewOrphanCleanupHandler(store storage.BlobStore, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		if job.Type != JobTypeBlobDelete {
			return nil
		}
		key, ok := job.Payload.(string)
		if !ok || key == "" {
			logger.Warn("invalid blob delete payload", zap.String("job_id", job.ID))
			return nil
		}
		if err := store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			return err
		}
		logger.Info("orphan blob deleted", zap.String("key", key))
		return nil
	}
}
