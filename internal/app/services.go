package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lawflow-backend/internal/data/aggregates"
	"github.com/yungbote/lawflow-backend/internal/platform/gcp"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
	"github.com/yungbote/lawflow-backend/internal/platform/notion"
	"github.com/yungbote/lawflow-backend/internal/prompts"
	"github.com/yungbote/lawflow-backend/internal/services"
)

type Services struct {
	StageGate   services.StageGate
	Generations services.GenerationService
	Publish     services.PublishService
	Content     services.ContentService
	Catalog     services.CatalogService

	Prompts   *prompts.Builder
	Notion    notion.Client
	FileStore gcp.FileStore
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	builder, err := prompts.NewBuilder(log, cfg.PromptTemplateDir)
	if err != nil {
		return Services{}, fmt.Errorf("load prompt templates: %w", err)
	}
	docs := notion.NewClient(log, cfg.Notion)
	files, fileCfg := resolveFileStore(ctx, log)
	tx := aggregates.NewGormTxRunner(db)

	gate := services.NewStageGate(log, r.Topic, r.ContentItem, r.Generation)
	return Services{
		StageGate:   gate,
		Generations: services.NewGenerationService(log, tx, gate, builder, r.Module, r.Topic, r.ContentItem, r.Generation),
		Publish: services.NewPublishService(log, services.PublishConfig{
			RootFolder:        fileCfg.RootFolder,
			DefaultDatabaseID: cfg.DefaultDatabaseID,
		}, tx, docs, files, r.Module, r.Topic, r.ContentItem, r.Generation),
		Content: services.NewContentService(log, fileCfg.RootFolder, files, r.Module, r.Topic, r.ContentItem),
		Catalog: services.NewCatalogService(log, tx, r.Module, r.Topic, r.ContentItem, r.Generation),

		Prompts:   builder,
		Notion:    docs,
		FileStore: files,
	}, nil
}
