package studio

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lawflow-backend/internal/domain/studio"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type ContentItemRepo interface {
	Create(dbc dbctx.Context, row *types.ContentItem) (*types.ContentItem, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ContentItem, error)
	// ListActiveByTopic returns active items, most recently uploaded first.
	ListActiveByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.ContentItem, error)
	CountActiveByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error)
	// SoftDelete clears the active flag; the row is kept.
	SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	// PurgeInactiveByTopic hard-deletes the soft-deleted rows of a topic.
	PurgeInactiveByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error)
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	return &contentItemRepo{db: db, log: baseLog.With("repo", "ContentItemRepo")}
}

func (r *contentItemRepo) Create(dbc dbctx.Context, row *types.ContentItem) (*types.ContentItem, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.UploadedAt.IsZero() {
		row.UploadedAt = time.Now().UTC()
	}
	row.Active = true
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *contentItemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ContentItem, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ContentItem
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *contentItemRepo) ListActiveByTopic(dbc dbctx.Context, topicID uuid.UUID) ([]*types.ContentItem, error) {
	var out []*types.ContentItem
	if topicID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("topic_id = ? AND active = ?", topicID, true).
		Order("uploaded_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentItemRepo) CountActiveByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.ContentItem{}).
		Where("topic_id = ? AND active = ?", topicID, true).
		Count(&n).Error
	return n, err
}

func (r *contentItemRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.ContentItem{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *contentItemRepo) PurgeInactiveByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).
		Where("topic_id = ? AND active = ?", topicID, false).
		Delete(&types.ContentItem{})
	return res.RowsAffected, res.Error
}
