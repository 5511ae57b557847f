package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/lawflow-backend/internal/data/repos"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type Repos struct {
	Module      repos.ModuleRepo
	Topic       repos.TopicRepo
	ContentItem repos.ContentItemRepo
	Generation  repos.GenerationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Module:      repos.NewModuleRepo(db, log),
		Topic:       repos.NewTopicRepo(db, log),
		ContentItem: repos.NewContentItemRepo(db, log),
		Generation:  repos.NewGenerationRepo(db, log),
	}
}
