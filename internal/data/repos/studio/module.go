package studio

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/lawflow-backend/internal/domain/studio"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type ModuleRepo interface {
	Create(dbc dbctx.Context, row *types.Module) (*types.Module, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error)
	GetByName(dbc dbctx.Context, name string) (*types.Module, error)
	// List returns every module ordered by name.
	List(dbc dbctx.Context) ([]*types.Module, error)
	Update(dbc dbctx.Context, row *types.Module) (*types.Module, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return &moduleRepo{db: db, log: baseLog.With("repo", "ModuleRepo")}
}

func (r *moduleRepo) Create(dbc dbctx.Context, row *types.Module) (*types.Module, error) {
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

func (r *moduleRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Module, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Module
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *moduleRepo) GetByName(dbc dbctx.Context, name string) (*types.Module, error) {
	var row types.Module
	if err := dbc.DB(r.db).Where("name = ?", name).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *moduleRepo) List(dbc dbctx.Context) ([]*types.Module, error) {
	var out []*types.Module
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *moduleRepo) Update(dbc dbctx.Context, row *types.Module) (*types.Module, error) {
	row.UpdatedAt = time.Now().UTC()
	err := dbc.DB(r.db).
		Model(&types.Module{}).
		Where("id = ?", row.ID).
		Select("name", "external_project_name", "document_database_id", "updated_at").
		Updates(row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *moduleRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Module{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
