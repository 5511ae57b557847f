package gcp

import (
	"context"
	"path"
	"strings"
)

// FileRef identifies an uploaded file and where a human can open it.
type FileRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// FileStore is the narrow set of file operations the app needs from a
// remote store.
type FileStore interface {
	// GetOrCreateFolder returns the folder named name under parentID,
	// creating it only when absent. An empty parentID means the store root.
	GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error)
	Upload(ctx context.Context, data []byte, fileName, folderID, mimeType string) (FileRef, error)
	// Trash reports whether the file was moved to the store's trash.
	Trash(ctx context.Context, fileID string) (bool, error)
}

// EnsureFolderPath resolves root/module/topic, creating each level on demand,
// and returns the topic folder id.
func EnsureFolderPath(ctx context.Context, fs FileStore, root, module, topic string) (string, error) {
	parent := ""
	for _, name := range []string{root, module, topic} {
		id, err := fs.GetOrCreateFolder(ctx, name, parent)
		if err != nil {
			return "", err
		}
		parent = id
	}
	return parent, nil
}

func MimeTypeFor(fileName string) string {
	switch strings.ToLower(path.Ext(strings.TrimSpace(fileName))) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "text/plain"
	}
}
