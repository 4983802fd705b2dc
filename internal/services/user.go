package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/menttor/menttor-backend/internal/data/repos"
	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/ctxutil"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type UserService interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
	UpdateDisplayName(dbc dbctx.Context, displayName string) (*types.User, error)
	// RecordActivity credits XP and maintains the daily streak: same UTC day
	// keeps the count, consecutive days increment it, a gap resets to 1.
	RecordActivity(dbc dbctx.Context, userID uuid.UUID, xpDelta int, now time.Time) error
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	user, err := us.userRepo.GetByID(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", rd.UserID, repos.ErrNotFound)
	}
	return user, nil
}

func (us *userService) UpdateDisplayName(dbc dbctx.Context, displayName string) (*types.User, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context: %w", ErrUnauthorized)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("display name required: %w", ErrInvalidArgument)
	}

	var user *types.User
	err := us.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := us.userRepo.UpdateDisplayName(inner, rd.UserID, displayName); err != nil {
			return fmt.Errorf("update display name: %w", err)
		}
		var err error
		user, err = us.userRepo.GetByID(inner, rd.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (us *userService) RecordActivity(dbc dbctx.Context, userID uuid.UUID, xpDelta int, now time.Time) error {
	if userID == uuid.Nil {
		return fmt.Errorf("missing user id: %w", ErrInvalidArgument)
	}
	user, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return fmt.Errorf("fetch user for activity: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", userID, repos.ErrNotFound)
	}

	streak := nextStreak(user.StreakDays, user.LastActiveAt, now)
	if err := us.userRepo.UpdateStreak(dbc, userID, streak, now); err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	if xpDelta > 0 {
		if _, err := us.userRepo.AddXP(dbc, userID, xpDelta); err != nil {
			return fmt.Errorf("add xp: %w", err)
		}
	}
	return nil
}

func nextStreak(current int, lastActiveAt *time.Time, now time.Time) int {
	if lastActiveAt == nil {
		return 1
	}
	today := utcDate(now)
	last := utcDate(*lastActiveAt)
	switch {
	case last.Equal(today):
		if current < 1 {
			return 1
		}
		return current
	case last.Equal(today.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

func utcDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
