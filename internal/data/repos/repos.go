package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lawflow-backend/internal/data/repos/studio"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

type ModuleRepo = studio.ModuleRepo
type TopicRepo = studio.TopicRepo
type ContentItemRepo = studio.ContentItemRepo
type GenerationRepo = studio.GenerationRepo

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return studio.NewModuleRepo(db, baseLog)
}
func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return studio.NewTopicRepo(db, baseLog)
}
func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	return studio.NewContentItemRepo(db, baseLog)
}
func NewGenerationRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRepo {
	return studio.NewGenerationRepo(db, baseLog)
}
