package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lawflow-backend/internal/data/repos"
	types "github.com/yungbote/lawflow-backend/internal/domain"
	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/gcp"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type RemoveContentResult struct {
	Item *types.ContentItem `json:"item"`
	// Warnings carries non-fatal remote cleanup failures.
	Warnings []string `json:"warnings"`
}

type ContentService interface {
	UploadContent(ctx context.Context, topicID uuid.UUID, contentType types.ContentType, fileName string, data []byte) (*types.ContentItem, error)
	// ListContent returns the topic's active items, newest first.
	ListContent(ctx context.Context, topicID uuid.UUID) ([]*types.ContentItem, error)
	RemoveContent(ctx context.Context, contentID uuid.UUID) (*RemoveContentResult, error)
}

type contentService struct {
	log        *logger.Logger
	rootFolder string
	files      gcp.FileStore
	modules    repos.ModuleRepo
	topics     repos.TopicRepo
	content    repos.ContentItemRepo
}

func NewContentService(
	baseLog *logger.Logger,
	rootFolder string,
	files gcp.FileStore,
	modules repos.ModuleRepo,
	topics repos.TopicRepo,
	content repos.ContentItemRepo,
) ContentService {
	if strings.TrimSpace(rootFolder) == "" {
		rootFolder = gcp.DefaultRootFolder
	}
	return &contentService{
		log:        baseLog.With("service", "ContentService"),
		rootFolder: rootFolder,
		files:      files,
		modules:    modules,
		topics:     topics,
		content:    content,
	}
}

func (s *contentService) UploadContent(ctx context.Context, topicID uuid.UUID, contentType types.ContentType, fileName string, data []byte) (*types.ContentItem, error) {
	const op = "content.upload"
	if !contentType.Valid() {
		return nil, apierr.Validation(op, fmt.Sprintf("unknown content type: %s", contentType))
	}
	fileName = path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, apierr.Validation(op, "file name is required")
	}

	dbc := dbctx.With(ctx)
	topic, module, err := loadTopicWithModule(dbc, op, s.topics, s.modules, topicID)
	if err != nil {
		return nil, err
	}

	folderID, err := gcp.EnsureFolderPath(ctx, s.files, s.rootFolder, module.Name, topic.Name)
	if err != nil {
		return nil, wrapStoreErr(op, topicID.String(), "failed to prepare upload folder", err)
	}
	ref, err := s.files.Upload(ctx, data, fileName, folderID, gcp.MimeTypeFor(fileName))
	if err != nil {
		return nil, wrapStoreErr(op, topicID.String(), "failed to upload file", err)
	}

	row := &types.ContentItem{
		TopicID:       topicID,
		ContentType:   contentType,
		FileName:      fileName,
		RemoteFileID:  strPtr(ref.ID),
		RemoteFileURL: strPtr(ref.URL),
		UploadedAt:    time.Now().UTC(),
		SizeBytes:     int64(len(data)),
		Active:        true,
	}
	item, err := s.content.Create(dbc, row)
	if err != nil {
		if _, terr := s.files.Trash(context.WithoutCancel(ctx), ref.ID); terr != nil {
			s.log.Warn("Failed to trash orphaned upload", "file_id", ref.ID, "error", terr)
		}
		return nil, apierr.Internal(op, err)
	}
	s.log.Info("Content uploaded",
		"content_id", item.ID,
		"topic_id", topicID,
		"content_type", contentType,
		"file_name", fileName,
		"size_bytes", item.SizeBytes,
	)
	return item, nil
}

func (s *contentService) ListContent(ctx context.Context, topicID uuid.UUID) ([]*types.ContentItem, error) {
	const op = "content.list"
	dbc := dbctx.With(ctx)
	topic, err := s.topics.GetByID(dbc, topicID)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	if topic == nil {
		return nil, apierr.NotFound(op, "Topic", topicID.String())
	}
	rows, err := s.content.ListActiveByTopic(dbc, topicID)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	return rows, nil
}

func (s *contentService) RemoveContent(ctx context.Context, contentID uuid.UUID) (*RemoveContentResult, error) {
	const op = "content.remove"
	dbc := dbctx.With(ctx)
	item, err := s.content.GetByID(dbc, contentID)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	if item == nil || !item.Active {
		return nil, apierr.NotFound(op, "ContentItem", contentID.String())
	}
	ok, err := s.content.SoftDelete(dbc, contentID)
	if err != nil {
		return nil, apierr.Internal(op, err)
	}
	if !ok {
		return nil, apierr.NotFound(op, "ContentItem", contentID.String())
	}
	item.Active = false

	out := &RemoveContentResult{Item: item, Warnings: []string{}}
	if item.RemoteFileID != nil && *item.RemoteFileID != "" {
		trashed, err := s.files.Trash(ctx, *item.RemoteFileID)
		switch {
		case err != nil:
			s.log.Warn("Failed to trash remote file", "content_id", contentID, "file_id", *item.RemoteFileID, "error", err)
			out.Warnings = append(out.Warnings, fmt.Sprintf("remote file %s was not trashed: %v", *item.RemoteFileID, err))
		case !trashed:
			out.Warnings = append(out.Warnings, fmt.Sprintf("remote file %s was not found", *item.RemoteFileID))
		}
	}
	s.log.Info("Content removed", "content_id", contentID, "topic_id", item.TopicID, "warnings", len(out.Warnings))
	return out, nil
}

func wrapStoreErr(op, id, msg string, err error) error {
	if apierr.IsKind(err, apierr.KindConfiguration) {
		return err
	}
	return apierr.External(op, id, msg, err)
}
