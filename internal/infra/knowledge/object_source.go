package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/support-assistant/internal/domain/qa"
)

// ObjectSourceConfig addresses an S3-compatible bucket such as R2 or MinIO.
type ObjectSourceConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	Objects         map[qa.Language]string
}

// ObjectSource downloads one JSON object per language.
type ObjectSource struct {
	client  *minio.Client
	bucket  string
	objects map[qa.Language]string
	logger  *slog.Logger
}

// NewObjectSource constructs the source. No request is made until Entries is called.
func NewObjectSource(cfg ObjectSourceConfig, logger *slog.Logger) (*ObjectSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := minio.New(sanitizeEndpoint(cfg.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       !strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Endpoint)), "http://"),
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object client: %w", err)
	}
	objects := make(map[qa.Language]string, len(cfg.Objects))
	for lang, key := range cfg.Objects {
		objects[lang] = key
	}
	return &ObjectSource{
		client:  client,
		bucket:  cfg.Bucket,
		objects: objects,
		logger:  logger.With("component", "knowledge.object"),
	}, nil
}

// Entries implements Source.
func (s *ObjectSource) Entries(ctx context.Context, lang qa.Language) ([]qa.Entry, error) {
	key, ok := s.objects[lang]
	if !ok || key == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, lang)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", s.bucket, key, err)
	}
	defer obj.Close()
	info, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s/%s: %w", s.bucket, key, err)
	}
	s.logger.Debug("downloading collection", "language", lang, "key", key, "size", info.Size, "etag", info.ETag)
	entries, err := DecodeEntries(obj)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", s.bucket, key, err)
	}
	return entries, nil
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.Index(raw, "/"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

var _ Source = (*ObjectSource)(nil)
