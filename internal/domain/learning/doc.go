package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LearningDoc is one generated learning page: an ordered array of content
// blocks (stored as-is in jsonb) plus the prompt context it was generated
// from. The block array is the exact payload the layout engine consumes.
type LearningDoc struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	PathNodeID  *uuid.UUID     `gorm:"type:uuid;index" json:"path_node_id,omitempty"`
	Subject     string         `gorm:"not null;column:subject" json:"subject"`
	Subtopic    string         `gorm:"not null;column:subtopic" json:"subtopic"`
	Goal        string         `gorm:"column:goal" json:"goal"`
	Blocks      datatypes.JSON `gorm:"column:blocks;type:jsonb" json:"blocks"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningDoc) TableName() string { return "learning_doc" }

func (d *LearningDoc) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// ExportRecord tracks a successfully produced PDF export. Failed exports
// leave no record here; the job row carries the error.
type ExportRecord struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"doc_id"`
	OwnerUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	StorageKey  string     `gorm:"not null;column:storage_key" json:"storage_key"`
	Filename    string     `gorm:"not null;column:filename" json:"filename"`
	PageCount   int        `gorm:"column:page_count;not null" json:"page_count"`
	ByteSize    int64      `gorm:"column:byte_size;not null" json:"byte_size"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ExportRecord) TableName() string { return "export_record" }

func (r *ExportRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
