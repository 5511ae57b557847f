package studio

import (
	"time"

	"github.com/google/uuid"
)

// ContentItem is an uploaded source file. Only active items count toward stage requirements.
type ContentItem struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID     uuid.UUID   `gorm:"type:uuid;not null;index:idx_content_item_topic_active,priority:1" json:"topic_id"`
	ContentType ContentType `gorm:"column:content_type;not null" json:"content_type"`
	FileName    string      `gorm:"column:file_name;not null" json:"file_name"`

	RemoteFileID  *string `gorm:"column:remote_file_id" json:"remote_file_id,omitempty"`
	RemoteFileURL *string `gorm:"column:remote_file_url" json:"remote_file_url,omitempty"`

	UploadedAt time.Time `gorm:"not null;index" json:"uploaded_at"`
	SizeBytes  int64     `gorm:"column:size_bytes;not null;default:0" json:"size_bytes"`
	Active     bool      `gorm:"column:active;not null;default:true;index:idx_content_item_topic_active,priority:2" json:"active"`
}

func (ContentItem) TableName() string { return "content_item" }
