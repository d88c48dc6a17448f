package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/pickleball-backend/internal/platform/gcp"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

var newVideoArchive = gcp.NewVideoArchive

type ArchiveBootstrapErrorCode string

const (
	ArchiveBootstrapErrorInvalidMode         ArchiveBootstrapErrorCode = "invalid_mode"
	ArchiveBootstrapErrorMissingEmulatorHost ArchiveBootstrapErrorCode = "missing_emulator_host"
	ArchiveBootstrapErrorInvalidEmulatorHost ArchiveBootstrapErrorCode = "invalid_emulator_host"
	ArchiveBootstrapErrorConnectFailed       ArchiveBootstrapErrorCode = "connect_failed"
)

type ArchiveBootstrapError struct {
	Code         ArchiveBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *ArchiveBootstrapError) Error() string {
	if e == nil {
		return "video archive bootstrap failed"
	}
	return fmt.Sprintf(
		"video archive bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *ArchiveBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVideoArchive returns the no-op archive when no bucket is configured.
func resolveVideoArchive(ctx context.Context, log *logger.Logger, cfg ArchiveConfig) (gcp.VideoArchive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		log.Info("Video archive disabled (no bucket configured)")
		return gcp.NoopArchive(), nil
	}

	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.Mode, cfg.EmulatorHost)
	if err != nil {
		classified := classifyArchiveBootstrapError(storageCfg, err)
		log.Error(
			"Video archive mode selection failed",
			"mode", cfg.Mode,
			"emulator_host", cfg.EmulatorHost,
			"error_code", archiveBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}

	log.Info(
		"Selecting video archive provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"emulator_host", storageCfg.EmulatorHost,
		"bucket", cfg.Bucket,
	)

	archive, err := newVideoArchive(ctx, log, gcp.ArchiveConfig{
		Storage:         storageCfg,
		Bucket:          cfg.Bucket,
		Prefix:          cfg.Prefix,
		CDNDomain:       cfg.CDNDomain,
		PublicBaseURL:   cfg.PublicBaseURL,
		CredentialsFile: cfg.CredentialsFile,
		CredentialsJSON: cfg.CredentialsJSON,
		UploadTimeout:   cfg.UploadTimeout,
	})
	if err != nil {
		classified := classifyArchiveBootstrapError(storageCfg, err)
		log.Error(
			"Video archive bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", storageCfg.ModeSource(),
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", archiveBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return archive, nil
}

func classifyArchiveBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := ArchiveBootstrapErrorConnectFailed
	mode := string(storageCfg.Mode)

	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = ArchiveBootstrapErrorInvalidMode
			if cfgErr.Mode != "" {
				mode = cfgErr.Mode
			}
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = ArchiveBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = ArchiveBootstrapErrorInvalidEmulatorHost
		}
	}

	return &ArchiveBootstrapError{
		Code:         code,
		Mode:         mode,
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func archiveBootstrapErrorCode(err error) ArchiveBootstrapErrorCode {
	var bootstrapErr *ArchiveBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return ArchiveBootstrapErrorConnectFailed
}
