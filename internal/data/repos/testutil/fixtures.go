package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/menttor/menttor-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    "pw",
		DisplayName: "Test User",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedDoc(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) *types.LearningDoc {
	tb.Helper()
	d := &types.LearningDoc{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		Subject:     "Calculus",
		Subtopic:    "Derivatives",
		Goal:        "exam prep",
		Blocks:      datatypes.JSON([]byte(`[]`)),
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed doc: %v", err)
	}
	return d
}

func SeedPath(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID) *types.LearningPath {
	tb.Helper()
	p := &types.LearningPath{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		Title:       "Calculus Roadmap",
		Subject:     "Calculus",
		Goal:        "exam prep",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed path: %v", err)
	}
	return p
}

func SeedPathNode(tb testing.TB, ctx context.Context, tx *gorm.DB, pathID uuid.UUID, position int, status string) *types.PathNode {
	tb.Helper()
	n := &types.PathNode{
		ID:        uuid.New(),
		PathID:    pathID,
		Title:     "Node",
		Subtopic:  "Limits",
		Position:  position,
		Status:    status,
		PrereqIDs: datatypes.JSON([]byte(`[]`)),
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed path node: %v", err)
	}
	return n
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerUserID uuid.UUID, status, phase string) *types.FocusSession {
	tb.Helper()
	s := &types.FocusSession{
		ID:             uuid.New(),
		OwnerUserID:    ownerUserID,
		Status:         status,
		Phase:          phase,
		PhaseStartedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
