package studio

import (
	"time"

	"github.com/google/uuid"
)

// Module is a top-level subject grouping, e.g. a law subject.
type Module struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null;uniqueIndex" json:"name"`

	// Name of the chat-interface project the prompts are pasted into.
	ExternalProjectName *string `gorm:"column:external_project_name" json:"external_project_name,omitempty"`
	// Document-store database that generations for this module publish into.
	DocumentDatabaseID *string `gorm:"column:document_database_id" json:"document_database_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Module) TableName() string { return "module" }

type Topic struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	Name     string    `gorm:"column:name;not null" json:"name"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }
