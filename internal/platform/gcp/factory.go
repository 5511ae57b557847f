package gcp

import (
	"context"
	"fmt"

	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

// NewFileStore builds the store selected by cfg.Mode. A Drive store with no
// credentials in the environment is replaced by one that fails every call
// with a configuration error, so the server still starts.
func NewFileStore(ctx context.Context, log *logger.Logger, cfg FileStoreConfig) (FileStore, error) {
	if err := ValidateFileStoreConfig(cfg); err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case FileStoreModeDrive:
		if !hasCredentialsEnv() {
			log.Warn("Google credentials not set; file store calls will fail until configured", "mode", cfg.Mode)
			return Unavailable(fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS is not set")), nil
		}
		return NewDriveStore(ctx, log)
	default:
		return NewBucketStore(ctx, log, cfg)
	}
}

type unavailableStore struct {
	cause error
}

// Unavailable returns a FileStore whose every call fails with cause as a
// configuration error.
func Unavailable(cause error) FileStore {
	return &unavailableStore{cause: cause}
}

func (u *unavailableStore) err(op string) error {
	return apierr.Configuration(op, "file store is not configured", u.cause)
}

func (u *unavailableStore) GetOrCreateFolder(context.Context, string, string) (string, error) {
	return "", u.err("filestore.get_or_create_folder")
}

func (u *unavailableStore) Upload(context.Context, []byte, string, string, string) (FileRef, error) {
	return FileRef{}, u.err("filestore.upload")
}

func (u *unavailableStore) Trash(context.Context, string) (bool, error) {
	return false, u.err("filestore.trash")
}
