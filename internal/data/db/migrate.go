package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lawflow-backend/internal/domain/studio"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&studio.Module{},
		&studio.Topic{},
		&studio.ContentItem{},
		&studio.Generation{},
	); err != nil {
		return err
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds the lookup indexes the generation queries rely on.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_topic_module_name", `CREATE INDEX IF NOT EXISTS idx_topic_module_name ON topic(module_id, name);`},
		{"idx_generation_topic_created", `CREATE INDEX IF NOT EXISTS idx_generation_topic_created ON generation(topic_id, created_at);`},
		{"idx_generation_topic_stage_status", `CREATE INDEX IF NOT EXISTS idx_generation_topic_stage_status ON generation(topic_id, stage, status);`},
	}
	for _, st := range stmts {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}
