package sessions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionStatusActive    = "active"
	SessionStatusPaused    = "paused"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// FocusSession is one gamified study session. Phase transitions are driven
// exclusively by the scheduler tick against the phase table; handlers only
// flip Status.
type FocusSession struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	DocID       *uuid.UUID `gorm:"type:uuid;index" json:"doc_id,omitempty"`

	Status         string     `gorm:"not null;column:status;index" json:"status"`
	Phase          string     `gorm:"not null;column:phase" json:"phase"`
	PhaseStartedAt time.Time  `gorm:"not null;column:phase_started_at" json:"phase_started_at"`
	PausedAt       *time.Time `gorm:"column:paused_at" json:"paused_at,omitempty"`
	CycleCount     int        `gorm:"column:cycle_count;not null;default:0" json:"cycle_count"`
	XPEarned       int        `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	EndedAt        *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FocusSession) TableName() string { return "focus_session" }

func (s *FocusSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
