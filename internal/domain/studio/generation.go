package studio

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type GenerationStatus string

const (
	GenerationPending   GenerationStatus = "PENDING"
	GenerationCompleted GenerationStatus = "COMPLETED"
	GenerationFailed    GenerationStatus = "FAILED"
)

// CanTransition reports whether a generation may move from s to next.
// PENDING->COMPLETED, PENDING->FAILED and COMPLETED->FAILED are the only moves;
// FAILED->COMPLETED is allowed as the outcome of a retried publish.
func (s GenerationStatus) CanTransition(next GenerationStatus) bool {
	switch s {
	case GenerationPending:
		return next == GenerationCompleted || next == GenerationFailed
	case GenerationCompleted:
		return next == GenerationFailed
	case GenerationFailed:
		return next == GenerationCompleted || next == GenerationFailed
	default:
		return false
	}
}

// Generation is one versioned attempt at producing stage output for a topic.
// Version is unique per (topic, stage) and assigned as max+1 at creation.
type Generation struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;index:idx_generation_topic_stage_version,unique,priority:1" json:"topic_id"`
	Stage   Stage     `gorm:"column:stage;not null;index:idx_generation_topic_stage_version,unique,priority:2" json:"stage"`
	Version int       `gorm:"column:version;not null;index:idx_generation_topic_stage_version,unique,priority:3" json:"version"`

	PromptText   string  `gorm:"column:prompt_text;type:text;not null" json:"prompt_text"`
	ResponseText *string `gorm:"column:response_text;type:text" json:"response_text,omitempty"`

	DocumentPageID  *string `gorm:"column:document_page_id" json:"document_page_id,omitempty"`
	DocumentPageURL *string `gorm:"column:document_page_url" json:"document_page_url,omitempty"`
	FileBackupID    *string `gorm:"column:file_backup_id" json:"file_backup_id,omitempty"`
	FileBackupURL   *string `gorm:"column:file_backup_url" json:"file_backup_url,omitempty"`

	// Set only for MK3: the completed MK2 generation whose output seeded the prompt.
	PreviousGenerationID *uuid.UUID `gorm:"type:uuid;column:previous_generation_id" json:"previous_generation_id,omitempty"`

	Status    GenerationStatus `gorm:"column:status;not null;index" json:"status"`
	CreatedAt time.Time        `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
}

func (Generation) TableName() string { return "generation" }

// BackupFileName is the file-store name for a generation's raw response.
func (g *Generation) BackupFileName() string {
	return string(g.Stage) + "_v" + strconv.Itoa(g.Version) + ".md"
}

