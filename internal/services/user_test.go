package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/menttor/menttor-backend/internal/data/repos"
	"github.com/menttor/menttor-backend/internal/data/repos/testutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
)

func newUserService(t *testing.T) (UserService, repos.UserRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewUserRepo(db, log)
	return NewUserService(db, log, repo), repo
}

func TestUserGetMe(t *testing.T) {
	svc, _ := newUserService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("getme"))

	got, err := svc.GetMe(authedDBC(u))
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("user id: want=%s got=%s", u.ID, got.ID)
	}

	if _, err := svc.GetMe(anonDBC()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous GetMe error: want ErrUnauthorized got %v", err)
	}
}

func TestUserUpdateDisplayName(t *testing.T) {
	svc, _ := newUserService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("rename"))

	got, err := svc.UpdateDisplayName(authedDBC(u), "  New Name  ")
	if err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	if got.DisplayName != "New Name" {
		t.Fatalf("display name: want=%q got=%q", "New Name", got.DisplayName)
	}

	if _, err := svc.UpdateDisplayName(authedDBC(u), "   "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank name error: want ErrInvalidArgument got %v", err)
	}
}

func TestUserStreakProgression(t *testing.T) {
	svc, repo := newUserService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("streak"))
	dbc := dbctx.Context{Ctx: anonDBC().Ctx}

	day1 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	// First ever activity starts the streak at 1.
	if err := svc.RecordActivity(dbc, u.ID, 10, day1); err != nil {
		t.Fatalf("RecordActivity day1: %v", err)
	}
	got, err := repo.GetByID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.StreakDays != 1 {
		t.Fatalf("streak after day1: want=1 got=%d", got.StreakDays)
	}
	if got.XP != 10 {
		t.Fatalf("xp after day1: want=10 got=%d", got.XP)
	}

	// Same UTC day keeps the count.
	if err := svc.RecordActivity(dbc, u.ID, 5, day1.Add(8*time.Hour)); err != nil {
		t.Fatalf("RecordActivity same day: %v", err)
	}
	got, _ = repo.GetByID(dbc, u.ID)
	if got.StreakDays != 1 {
		t.Fatalf("streak same day: want=1 got=%d", got.StreakDays)
	}
	if got.XP != 15 {
		t.Fatalf("xp same day: want=15 got=%d", got.XP)
	}

	// The next calendar day increments.
	if err := svc.RecordActivity(dbc, u.ID, 0, day1.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("RecordActivity day2: %v", err)
	}
	got, _ = repo.GetByID(dbc, u.ID)
	if got.StreakDays != 2 {
		t.Fatalf("streak day2: want=2 got=%d", got.StreakDays)
	}

	// Skipping a day resets to 1.
	if err := svc.RecordActivity(dbc, u.ID, 0, day1.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("RecordActivity after gap: %v", err)
	}
	got, _ = repo.GetByID(dbc, u.ID)
	if got.StreakDays != 1 {
		t.Fatalf("streak after gap: want=1 got=%d", got.StreakDays)
	}
}

func TestUserStreakCrossesUTCMidnight(t *testing.T) {
	svc, repo := newUserService(t)
	db := testutil.DB(t)
	u := testutil.SeedUser(t, anonDBC().Ctx, db, uniqueEmail("midnight"))
	dbc := dbctx.Context{Ctx: anonDBC().Ctx}

	// 23:30 UTC one day, 00:30 UTC the next: consecutive days.
	if err := svc.RecordActivity(dbc, u.ID, 0, time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if err := svc.RecordActivity(dbc, u.ID, 0, time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC)); err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	got, err := repo.GetByID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.StreakDays != 2 {
		t.Fatalf("streak across midnight: want=2 got=%d", got.StreakDays)
	}
}

func TestUserRecordActivityMissingUser(t *testing.T) {
	svc, _ := newUserService(t)
	err := svc.RecordActivity(dbctx.Context{Ctx: anonDBC().Ctx}, uuid.New(), 5, time.Now())
	if !errors.Is(err, repos.ErrNotFound) {
		t.Fatalf("missing user error: want ErrNotFound got %v", err)
	}
}
