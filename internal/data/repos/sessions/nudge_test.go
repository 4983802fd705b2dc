package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/data/repos/testutil"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
)

func TestNudgeRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewNudgeRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, dbc.Ctx, tx, "nudges@example.com")

	now := time.Now().UTC()
	day := now.Format("2006-01-02")
	n1 := &types.Nudge{
		ID:          uuid.New(),
		OwnerUserID: u.ID,
		Rule:        "streak_at_risk",
		Message:     "Your 4-day streak ends tonight.",
		Status:      types.NudgeStatusPending,
		DedupeKey:   u.ID.String() + ":streak_at_risk:" + day,
		DeliveredAt: now,
	}
	inserted, err := repo.CreateIgnoreDuplicates(dbc, []*types.Nudge{n1})
	if err != nil {
		t.Fatalf("CreateIgnoreDuplicates: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("CreateIgnoreDuplicates: expected 1, got %d", inserted)
	}

	// Same rule on the same day is dropped.
	dup := &types.Nudge{
		ID:          uuid.New(),
		OwnerUserID: u.ID,
		Rule:        "streak_at_risk",
		Message:     "Your 4-day streak ends tonight.",
		Status:      types.NudgeStatusPending,
		DedupeKey:   u.ID.String() + ":streak_at_risk:" + day,
		DeliveredAt: now.Add(time.Minute),
	}
	inserted, err = repo.CreateIgnoreDuplicates(dbc, []*types.Nudge{dup})
	if err != nil {
		t.Fatalf("CreateIgnoreDuplicates(dup): %v", err)
	}
	if inserted != 0 {
		t.Fatalf("CreateIgnoreDuplicates(dup): expected 0, got %d", inserted)
	}

	pending, err := repo.ListPendingByOwner(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListPendingByOwner: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("ListPendingByOwner: expected 1, got %d", len(pending))
	}

	if got, err := repo.GetByID(dbc, n1.ID); err != nil || got == nil || got.Rule != "streak_at_risk" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}

	// Dismiss is owner-scoped.
	ok, err := repo.Dismiss(dbc, n1.ID, uuid.New(), now)
	if err != nil {
		t.Fatalf("Dismiss(wrong owner): %v", err)
	}
	if ok {
		t.Fatalf("Dismiss(wrong owner): expected miss")
	}
	ok, err = repo.Dismiss(dbc, n1.ID, u.ID, now)
	if err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if !ok {
		t.Fatalf("Dismiss: expected hit")
	}
	ok, err = repo.Dismiss(dbc, n1.ID, u.ID, now)
	if err != nil {
		t.Fatalf("Dismiss(again): %v", err)
	}
	if ok {
		t.Fatalf("Dismiss(again): expected miss, already dismissed")
	}

	if pending, err := repo.ListPendingByOwner(dbc, u.ID); err != nil || len(pending) != 0 {
		t.Fatalf("ListPendingByOwner after dismiss: err=%v len=%d", err, len(pending))
	}

	if err := repo.FullDeleteByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil {
		t.Fatalf("FullDeleteByUserIDs: %v", err)
	}
	if got, err := repo.GetByID(dbc, n1.ID); err != nil || got != nil {
		t.Fatalf("nudge should be gone: got=%v err=%v", got, err)
	}
}
