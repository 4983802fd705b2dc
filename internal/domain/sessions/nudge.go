package sessions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NudgeStatusPending   = "pending"
	NudgeStatusDismissed = "dismissed"
)

// Nudge is one delivered behavioral prompt. DedupeKey (rule + UTC day per
// user) stops a rule from nagging more than once a day.
type Nudge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Rule        string    `gorm:"not null;column:rule;index" json:"rule"`
	Message     string    `gorm:"not null;column:message" json:"message"`
	Status      string    `gorm:"not null;column:status;index" json:"status"`
	DedupeKey   string    `gorm:"not null;column:dedupe_key;uniqueIndex" json:"-"`

	DeliveredAt time.Time  `gorm:"not null;column:delivered_at" json:"delivered_at"`
	DismissedAt *time.Time `gorm:"column:dismissed_at" json:"dismissed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Nudge) TableName() string { return "nudge" }

func (n *Nudge) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
