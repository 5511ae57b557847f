package gcp

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type FileStoreMode string

const (
	FileStoreModeDrive       FileStoreMode = "drive"
	FileStoreModeGCS         FileStoreMode = "gcs"
	FileStoreModeGCSEmulator FileStoreMode = "gcs_emulator"
)

const DefaultRootFolder = "LawFlow"

type FileStoreConfig struct {
	Mode         FileStoreMode
	RootFolder   string
	Bucket       string
	EmulatorHost string
	// CompatibilityFallback is set when the emulator was picked only
	// because STORAGE_EMULATOR_HOST was present.
	CompatibilityFallback bool
}

func IsSupportedFileStoreMode(mode FileStoreMode) bool {
	switch mode {
	case FileStoreModeDrive, FileStoreModeGCS, FileStoreModeGCSEmulator:
		return true
	default:
		return false
	}
}

func (cfg FileStoreConfig) IsBucketMode() bool {
	return cfg.Mode == FileStoreModeGCS || cfg.Mode == FileStoreModeGCSEmulator
}

func (cfg FileStoreConfig) ModeSource() string {
	if cfg.CompatibilityFallback {
		return "compatibility_fallback"
	}
	return "explicit_or_default"
}

type FileStoreConfigErrorCode string

const (
	FileStoreConfigErrorInvalidMode         FileStoreConfigErrorCode = "invalid_mode"
	FileStoreConfigErrorMissingBucket       FileStoreConfigErrorCode = "missing_bucket"
	FileStoreConfigErrorMissingEmulatorHost FileStoreConfigErrorCode = "missing_emulator_host"
	FileStoreConfigErrorInvalidEmulatorHost FileStoreConfigErrorCode = "invalid_emulator_host"
)

type FileStoreConfigError struct {
	Code         FileStoreConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *FileStoreConfigError) Error() string {
	if e == nil {
		return "invalid file store config"
	}
	switch e.Code {
	case FileStoreConfigErrorInvalidMode:
		return fmt.Sprintf("invalid FILE_STORE_MODE=%q (allowed: %q, %q, %q)",
			e.Mode, FileStoreModeDrive, FileStoreModeGCS, FileStoreModeGCSEmulator)
	case FileStoreConfigErrorMissingBucket:
		return fmt.Sprintf("FILE_STORE_MODE=%q requires GCS_BUCKET_NAME to be set", e.Mode)
	case FileStoreConfigErrorMissingEmulatorHost:
		return fmt.Sprintf("FILE_STORE_MODE=%q requires STORAGE_EMULATOR_HOST to be set", FileStoreModeGCSEmulator)
	case FileStoreConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.EmulatorHost)
	default:
		return "invalid file store config"
	}
}

func (e *FileStoreConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func ResolveFileStoreConfigFromEnv() (FileStoreConfig, error) {
	cfg := FileStoreConfig{
		RootFolder:   strings.TrimSpace(os.Getenv("FILE_STORE_ROOT_FOLDER")),
		Bucket:       strings.TrimSpace(os.Getenv("GCS_BUCKET_NAME")),
		EmulatorHost: strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")),
	}
	if cfg.RootFolder == "" {
		cfg.RootFolder = DefaultRootFolder
	}

	rawMode := strings.TrimSpace(os.Getenv("FILE_STORE_MODE"))
	mode := FileStoreMode(strings.ToLower(rawMode))
	switch mode {
	case "":
		if cfg.EmulatorHost != "" && cfg.Bucket != "" {
			cfg.Mode = FileStoreModeGCSEmulator
			cfg.CompatibilityFallback = true
		} else {
			cfg.Mode = FileStoreModeDrive
		}
	case FileStoreModeDrive, FileStoreModeGCS, FileStoreModeGCSEmulator:
		cfg.Mode = mode
	default:
		return cfg, &FileStoreConfigError{Code: FileStoreConfigErrorInvalidMode, Mode: rawMode}
	}

	if err := ValidateFileStoreConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ValidateFileStoreConfig(cfg FileStoreConfig) error {
	if !IsSupportedFileStoreMode(cfg.Mode) {
		return &FileStoreConfigError{Code: FileStoreConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	if !cfg.IsBucketMode() {
		return nil
	}
	if cfg.Bucket == "" {
		return &FileStoreConfigError{Code: FileStoreConfigErrorMissingBucket, Mode: string(cfg.Mode)}
	}
	if cfg.Mode != FileStoreModeGCSEmulator {
		return nil
	}
	if cfg.EmulatorHost == "" {
		return &FileStoreConfigError{Code: FileStoreConfigErrorMissingEmulatorHost, Mode: string(cfg.Mode)}
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return &FileStoreConfigError{
			Code:         FileStoreConfigErrorInvalidEmulatorHost,
			Mode:         string(cfg.Mode),
			EmulatorHost: cfg.EmulatorHost,
			Cause:        err,
		}
	}
	return nil
}
