package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

const (
	folderMarker = ".folder"
	trashPrefix  = ".trash/"
)

// bucketStore maps folders onto key prefixes in a single bucket. A folder id
// is its prefix ending in "/", kept alive by a zero-byte marker object. Trash
// moves an object under .trash/ instead of deleting it.
type bucketStore struct {
	log          *logger.Logger
	client       *storage.Client
	bucket       string
	mode         FileStoreMode
	emulatorHost string
}

func NewBucketStore(ctx context.Context, log *logger.Logger, cfg FileStoreConfig) (FileStore, error) {
	if err := ValidateFileStoreConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate file store config: %w", err)
	}
	if !cfg.IsBucketMode() {
		return nil, fmt.Errorf("bucket store needs a gcs mode, got %q", cfg.Mode)
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "BucketStore")
	serviceLog.Info("Bucket file store initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"bucket", cfg.Bucket,
		"emulator_host", cfg.EmulatorHost,
	)
	return &bucketStore{
		log:          serviceLog,
		client:       client,
		bucket:       cfg.Bucket,
		mode:         cfg.Mode,
		emulatorHost: strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg FileStoreConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case FileStoreModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case FileStoreModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &FileStoreConfigError{Code: FileStoreConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (b *bucketStore) GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	seg := folderSegment(name)
	if seg == "" {
		return "", fmt.Errorf("folder name is empty")
	}
	folderID := strings.TrimLeft(path.Join(parentID, seg), "/") + "/"

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	marker := b.client.Bucket(b.bucket).Object(folderID + folderMarker)
	if _, err := marker.Attrs(ctx); err == nil {
		return folderID, nil
	} else if !errors.Is(err, storage.ErrObjectNotExist) {
		return "", fmt.Errorf("stat folder %q: %w", folderID, err)
	}

	w := marker.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/x-directory"
	if err := w.Close(); err != nil && !isPreconditionFailed(err) {
		return "", fmt.Errorf("create folder %q: %w", folderID, err)
	}
	b.log.Debug("Bucket folder created", "folder_id", folderID)
	return folderID, nil
}

func (b *bucketStore) Upload(ctx context.Context, data []byte, fileName, folderID, mimeType string) (FileRef, error) {
	if mimeType == "" {
		mimeType = MimeTypeFor(fileName)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	base := folderSegment(fileName)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	// Never overwrite: same-named uploads get " (n)" like Drive shows them.
	for n := 1; n <= 50; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		key := folderID + name
		w := b.client.Bucket(b.bucket).Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
		w.ContentType = mimeType
		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return FileRef{}, fmt.Errorf("failed to write data to GCS: %w", err)
		}
		err := w.Close()
		if err == nil {
			return FileRef{ID: key, URL: b.objectURL(key)}, nil
		}
		if !isPreconditionFailed(err) {
			return FileRef{}, fmt.Errorf("failed to close GCS writer: %w", err)
		}
	}
	return FileRef{}, fmt.Errorf("too many files named %q in %s", base, folderID)
}

func (b *bucketStore) Trash(ctx context.Context, fileID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	bkt := b.client.Bucket(b.bucket)
	src := bkt.Object(fileID)
	dst := bkt.Object(trashPrefix + fileID)
	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("copy %s to trash: %w", fileID, err)
	}
	if err := src.Delete(ctx); err != nil && !isNotFound(err) {
		return false, fmt.Errorf("delete %s after trash copy: %w", fileID, err)
	}
	return true, nil
}

func (b *bucketStore) objectURL(key string) string {
	if b.mode == FileStoreModeGCSEmulator && b.emulatorHost != "" {
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", b.emulatorHost, url.PathEscape(b.bucket), url.PathEscape(key))
	}
	return fmt.Sprintf("https://storage.cloud.google.com/%s/%s", b.bucket, escapeKeyPath(key))
}

func escapeKeyPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// folderSegment keeps a name usable as one key segment.
func folderSegment(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "-")
	return strings.TrimPrefix(s, ".")
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}

func isNotFound(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
