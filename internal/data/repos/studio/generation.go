package studio

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lawflow-backend/internal/domain/studio"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type GenerationRepo interface {
	Create(dbc dbctx.Context, row *types.Generation) (*types.Generation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Generation, error)

	// ListByTopic is newest-first by creation time. An empty stage means all stages.
	ListByTopic(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error)
	// ListByVersion is newest-first by version for one topic+stage.
	ListByVersion(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error)
	// ListCompleted returns COMPLETED generations for topic+stage, newest-first by version.
	ListCompleted(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error)
	LatestCompleted(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) (*types.Generation, error)
	// MaxVersion returns 0 when the topic has no generation at that stage.
	MaxVersion(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) (int, error)
	CountByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error)

	// Update persists the mutable publish fields and status together.
	Update(dbc dbctx.Context, row *types.Generation) (*types.Generation, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type generationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRepo {
	return &generationRepo{db: db, log: baseLog.With("repo", "GenerationRepo")}
}

func (r *generationRepo) Create(dbc dbctx.Context, row *types.Generation) (*types.Generation, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if row.Status == "" {
		row.Status = types.GenerationPending
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *generationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Generation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Generation
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *generationRepo) ListByTopic(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error) {
	var out []*types.Generation
	if topicID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("topic_id = ?", topicID)
	if stage != "" {
		q = q.Where("stage = ?", stage)
	}
	if err := q.Order("created_at DESC").Order("version DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationRepo) ListByVersion(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error) {
	var out []*types.Generation
	err := dbc.DB(r.db).
		Where("topic_id = ? AND stage = ?", topicID, stage).
		Order("version DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationRepo) ListCompleted(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) ([]*types.Generation, error) {
	var out []*types.Generation
	err := dbc.DB(r.db).
		Where("topic_id = ? AND stage = ? AND status = ?", topicID, stage, types.GenerationCompleted).
		Order("version DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationRepo) LatestCompleted(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) (*types.Generation, error) {
	var row types.Generation
	err := dbc.DB(r.db).
		Where("topic_id = ? AND stage = ? AND status = ?", topicID, stage, types.GenerationCompleted).
		Order("version DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *generationRepo) MaxVersion(dbc dbctx.Context, topicID uuid.UUID, stage types.Stage) (int, error) {
	var max sql.NullInt64
	row := dbc.DB(r.db).
		Model(&types.Generation{}).
		Select("MAX(version)").
		Where("topic_id = ? AND stage = ?", topicID, stage).
		Row()
	if err := row.Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

func (r *generationRepo) CountByTopic(dbc dbctx.Context, topicID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Generation{}).Where("topic_id = ?", topicID).Count(&n).Error
	return n, err
}

func (r *generationRepo) Update(dbc dbctx.Context, row *types.Generation) (*types.Generation, error) {
	row.UpdatedAt = time.Now().UTC()
	res := dbc.DB(r.db).
		Model(&types.Generation{}).
		Where("id = ?", row.ID).
		Select(
			"response_text",
			"document_page_id",
			"document_page_url",
			"file_backup_id",
			"file_backup_url",
			"status",
			"updated_at",
		).
		Updates(row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (r *generationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).
		Model(&types.Generation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *generationRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Generation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
