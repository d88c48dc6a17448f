// Package gcp archives promoted analysis videos to Google Cloud Storage.
package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

const defaultUploadTimeout = 2 * time.Minute

type ArchiveConfig struct {
	Storage ObjectStorageConfig
	Bucket  string
	// Prefix is prepended to every object key, e.g. "videos".
	Prefix          string
	CDNDomain       string
	PublicBaseURL   string
	CredentialsFile string
	CredentialsJSON string
	UploadTimeout   time.Duration
}

// VideoArchive copies local video files into durable object storage.
type VideoArchive interface {
	// Archive uploads the file at localPath under key and returns its public URL.
	Archive(ctx context.Context, localPath, key string) (string, error)
	PublicURL(key string) string
	Close() error
}

type bucketArchive struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   ObjectStorageMode
	emulatorHost  string
	bucket        string
	prefix        string
	cdnDomain     string
	publicBaseURL string
	uploadTimeout time.Duration
}

func NewVideoArchive(ctx context.Context, log *logger.Logger, cfg ArchiveConfig) (VideoArchive, error) {
	if err := ValidateObjectStorageConfig(cfg.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg.Storage, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	stClient, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	a := newBucketArchive(log, cfg, publicBaseURL)
	a.storageClient = stClient
	a.log.Info(
		"Video archive initialized",
		"mode", cfg.Storage.Mode,
		"mode_source", cfg.Storage.ModeSource(),
		"emulator_host", cfg.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"bucket", cfg.Bucket,
	)
	return a, nil
}

func newBucketArchive(log *logger.Logger, cfg ArchiveConfig, publicBaseURL string) *bucketArchive {
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	return &bucketArchive{
		log:           log.With("service", "VideoArchive"),
		storageMode:   cfg.Storage.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"),
		bucket:        strings.TrimSpace(cfg.Bucket),
		prefix:        strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		cdnDomain:     strings.TrimSpace(cfg.CDNDomain),
		publicBaseURL: publicBaseURL,
		uploadTimeout: timeout,
	}
}

func newStorageClientForMode(ctx context.Context, cfg ArchiveConfig) (*storage.Client, error) {
	switch cfg.Storage.Mode {
	case ObjectStorageModeGCS:
		opts := clientOptions(cfg.CredentialsFile, cfg.CredentialsJSON)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// The storage client only honors the emulator through the environment.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{
			Code: ObjectStorageConfigErrorInvalidMode,
			Mode: string(cfg.Storage.Mode),
		}
	}
}

func resolvePublicBaseURL(storageCfg ObjectStorageConfig, raw string) (baseURL string, source string, err error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf("invalid archive public base url %q; expected absolute URL like http://localhost:4443", raw)
		}
		return strings.TrimRight(raw, "/"), "public_base_url", nil
	}
	if storageCfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"), "emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (a *bucketArchive) objectKey(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if a.prefix == "" {
		return key
	}
	return path.Join(a.prefix, key)
}

func (a *bucketArchive) Archive(ctx context.Context, localPath, key string) (string, error) {
	if a.storageClient == nil {
		return "", fmt.Errorf("archive: storage client not initialized")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("archive: open %s: %w", localPath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, a.uploadTimeout)
	defer cancel()

	objKey := a.objectKey(key)
	w := a.storageClient.Bucket(a.bucket).Object(objKey).NewWriter(ctx)
	if ct := contentTypeForKey(objKey); ct != "" {
		w.ContentType = ct
	}
	n, err := io.Copy(w, f)
	if err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	a.log.Debug("Video archived", "bucket", a.bucket, "key", objKey, "bytes", n)
	return a.PublicURL(key), nil
}

func (a *bucketArchive) PublicURL(key string) string {
	objKey := a.objectKey(key)
	if a.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", a.cdnDomain, objKey)
	}
	if a.storageMode == ObjectStorageModeGCSEmulator {
		base := a.publicBaseURL
		if base == "" {
			base = a.emulatorHost
		}
		if base != "" {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(a.bucket), url.PathEscape(objKey))
		}
	}
	if a.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", a.publicBaseURL, a.bucket, objKey)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", a.bucket, objKey)
}

func (a *bucketArchive) Close() error {
	if a.storageClient == nil {
		return nil
	}
	return a.storageClient.Close()
}

// ObjectKey builds the archive key for an analysis video: <userID>/<analysisID>/<fileName>.
func ObjectKey(userID, analysisID, fileName string) string {
	clean := func(s string) string {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, "/", "_")
		if s == "" || s == "." || s == ".." {
			return "_"
		}
		return s
	}
	return clean(userID) + "/" + clean(analysisID) + "/" + clean(path.Base(fileName))
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".webm"):
		return "video/webm"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(s, ".avi"):
		return "video/x-msvideo"
	case strings.HasSuffix(s, ".mkv"):
		return "video/x-matroska"
	default:
		return ""
	}
}

type noopArchive struct{}

// NoopArchive is used when no archive bucket is configured.
func NoopArchive() VideoArchive { return noopArchive{} }

func (noopArchive) Archive(context.Context, string, string) (string, error) { return "", nil }
func (noopArchive) PublicURL(string) string                                 { return "" }
func (noopArchive) Close() error                                            { return nil }
