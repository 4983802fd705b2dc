package media

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Asset is a stored binary artifact (share card, generated figure) living
// in object storage under a category-scoped key.
type Asset struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Category    string     `gorm:"not null;column:category;index" json:"category"`
	BucketKey   string     `gorm:"not null;column:bucket_key" json:"bucket_key"`
	PublicURL   string     `gorm:"column:public_url" json:"public_url"`
	MimeType    string     `gorm:"column:mime_type" json:"mime_type"`
	Width       int        `gorm:"column:width" json:"width,omitempty"`
	Height      int        `gorm:"column:height" json:"height,omitempty"`
	ByteSize    int64      `gorm:"column:byte_size" json:"byte_size,omitempty"`
	EntityType  string     `gorm:"column:entity_type;index" json:"entity_type,omitempty"`
	EntityID    *uuid.UUID `gorm:"type:uuid;column:entity_id;index" json:"entity_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Asset) TableName() string { return "asset" }

func (a *Asset) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
