package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LearningPath is a roadmap: an ordered set of nodes with prerequisite
// edges between them.
type LearningPath struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Subject     string    `gorm:"not null;column:subject" json:"subject"`
	Goal        string    `gorm:"column:goal" json:"goal"`

	Nodes []*PathNode `gorm:"foreignKey:PathID;references:ID" json:"nodes,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningPath) TableName() string { return "learning_path" }

func (p *LearningPath) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

const (
	PathNodeStatusLocked     = "locked"
	PathNodeStatusAvailable  = "available"
	PathNodeStatusInProgress = "in_progress"
	PathNodeStatusCompleted  = "completed"
)

// PathNode is one roadmap entry. PrereqIDs holds the ids of nodes that must
// be completed first (jsonb array of uuid strings); the graph mirror keeps
// the same edges in Neo4j when enabled.
type PathNode struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PathID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"path_id"`
	Title     string         `gorm:"not null;column:title" json:"title"`
	Subtopic  string         `gorm:"column:subtopic" json:"subtopic"`
	Position  int            `gorm:"column:position;not null;default:0" json:"position"`
	Status    string         `gorm:"not null;column:status;default:locked" json:"status"`
	PrereqIDs datatypes.JSON `gorm:"column:prereq_ids;type:jsonb" json:"prereq_ids,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PathNode) TableName() string { return "path_node" }

func (n *PathNode) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
