package studio

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lawflow-backend/internal/domain/studio"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type TopicRepo interface {
	Create(dbc dbctx.Context, row *types.Topic) (*types.Topic, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error)
	ListByModule(dbc dbctx.Context, moduleID uuid.UUID) ([]*types.Topic, error)
	CountByModule(dbc dbctx.Context, moduleID uuid.UUID) (int64, error)
	Update(dbc dbctx.Context, row *types.Topic) (*types.Topic, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) Create(dbc dbctx.Context, row *types.Topic) (*types.Topic, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *topicRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Topic, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Topic
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *topicRepo) ListByModule(dbc dbctx.Context, moduleID uuid.UUID) ([]*types.Topic, error) {
	var out []*types.Topic
	if moduleID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("module_id = ?", moduleID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *topicRepo) CountByModule(dbc dbctx.Context, moduleID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Topic{}).Where("module_id = ?", moduleID).Count(&n).Error
	return n, err
}

func (r *topicRepo) Update(dbc dbctx.Context, row *types.Topic) (*types.Topic, error) {
	row.UpdatedAt = time.Now().UTC()
	err := dbc.DB(r.db).
		Model(&types.Topic{}).
		Where("id = ?", row.ID).
		Select("name", "updated_at").
		Updates(row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *topicRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Topic{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
