package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/lawflow-backend/internal/platform/gcp"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

var newFileStore = gcp.NewFileStore

type FileStoreBootstrapErrorCode string

const (
	FileStoreBootstrapErrorInvalidMode         FileStoreBootstrapErrorCode = "invalid_mode"
	FileStoreBootstrapErrorMissingBucket       FileStoreBootstrapErrorCode = "missing_bucket"
	FileStoreBootstrapErrorMissingEmulatorHost FileStoreBootstrapErrorCode = "missing_emulator_host"
	FileStoreBootstrapErrorInvalidEmulatorHost FileStoreBootstrapErrorCode = "invalid_emulator_host"
	FileStoreBootstrapErrorConnectFailed       FileStoreBootstrapErrorCode = "connect_failed"
)

type FileStoreBootstrapError struct {
	Code         FileStoreBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *FileStoreBootstrapError) Error() string {
	if e == nil {
		return "file store bootstrap failed"
	}
	return fmt.Sprintf(
		"file store bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *FileStoreBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveFileStore builds the configured file store. Any bootstrap failure
// is logged and replaced by a store that fails each call with a
// configuration error, so the catalog and prompt flows keep working.
func resolveFileStore(ctx context.Context, log *logger.Logger) (gcp.FileStore, gcp.FileStoreConfig) {
	cfg, err := gcp.ResolveFileStoreConfigFromEnv()
	if err != nil {
		classified := classifyFileStoreBootstrapError(cfg, err)
		log.Error(
			"File store selection failed",
			"mode", cfg.Mode,
			"error_code", fileStoreBootstrapErrorCode(classified),
			"error", classified,
		)
		return gcp.Unavailable(classified), cfg
	}

	log.Info(
		"Selecting file store",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"root_folder", cfg.RootFolder,
		"emulator_host", cfg.EmulatorHost,
	)
	store, err := newFileStore(ctx, log, cfg)
	if err != nil {
		classified := classifyFileStoreBootstrapError(cfg, err)
		log.Error(
			"File store bootstrap failed",
			"mode", cfg.Mode,
			"error_code", fileStoreBootstrapErrorCode(classified),
			"error", classified,
		)
		return gcp.Unavailable(classified), cfg
	}
	return store, cfg
}

func classifyFileStoreBootstrapError(cfg gcp.FileStoreConfig, err error) error {
	code := FileStoreBootstrapErrorConnectFailed
	var cfgErr *gcp.FileStoreConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.FileStoreConfigErrorInvalidMode:
			code = FileStoreBootstrapErrorInvalidMode
		case gcp.FileStoreConfigErrorMissingBucket:
			code = FileStoreBootstrapErrorMissingBucket
		case gcp.FileStoreConfigErrorMissingEmulatorHost:
			code = FileStoreBootstrapErrorMissingEmulatorHost
		case gcp.FileStoreConfigErrorInvalidEmulatorHost:
			code = FileStoreBootstrapErrorInvalidEmulatorHost
		}
	}
	return &FileStoreBootstrapError{
		Code:         code,
		Mode:         string(cfg.Mode),
		EmulatorHost: cfg.EmulatorHost,
		Cause:        err,
	}
}

func fileStoreBootstrapErrorCode(err error) FileStoreBootstrapErrorCode {
	var bootErr *FileStoreBootstrapError
	if errors.As(err, &bootErr) && bootErr != nil {
		return bootErr.Code
	}
	return FileStoreBootstrapErrorConnectFailed
}
