package gcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

const driveFolderMimeType = "application/vnd.google-apps.folder"

type driveStore struct {
	log *logger.Logger
	svc *drive.Service
}

// NewDriveStore builds a Drive-backed FileStore. Extra opts are appended
// after the credential options from the environment.
func NewDriveStore(ctx context.Context, log *logger.Logger, opts ...option.ClientOption) (FileStore, error) {
	all := append(ClientOptionsFromEnv(), option.WithScopes(drive.DriveFileScope))
	all = append(all, opts...)
	svc, err := drive.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &driveStore{log: log.With("service", "DriveStore"), svc: svc}, nil
}

func (d *driveStore) GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeDriveQuery(name), driveFolderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeDriveQuery(parentID))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	list, err := d.svc.Files.List().Q(q).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive list folder %q: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	meta := &drive.File{Name: name, MimeType: driveFolderMimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	folder, err := d.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive create folder %q: %w", name, err)
	}
	d.log.Debug("Drive folder created", "name", name, "folder_id", folder.Id, "parent_id", parentID)
	return folder.Id, nil
}

func (d *driveStore) Upload(ctx context.Context, data []byte, fileName, folderID, mimeType string) (FileRef, error) {
	if mimeType == "" {
		mimeType = MimeTypeFor(fileName)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	meta := &drive.File{Name: fileName, Parents: []string{folderID}}
	f, err := d.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return FileRef{}, fmt.Errorf("drive upload %q: %w", fileName, err)
	}
	return FileRef{ID: f.Id, URL: f.WebViewLink}, nil
}

func (d *driveStore) Trash(ctx context.Context, fileID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := d.svc.Files.Update(fileID, &drive.File{Trashed: true}).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("drive trash %s: %w", fileID, err)
	}
	return true, nil
}

func escapeDriveQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
