package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password     string     `gorm:"not null;column:password" json:"-"`
	DisplayName  string     `gorm:"not null;column:display_name" json:"display_name"`
	XP           int        `gorm:"column:xp;not null;default:0" json:"xp"`
	StreakDays   int        `gorm:"column:streak_days;not null;default:0" json:"streak_days"`
	LastActiveAt *time.Time `gorm:"column:last_active_at;index" json:"last_active_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

// IDs are assigned client-side so the sqlite test path can migrate the
// schema without postgres extensions.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
