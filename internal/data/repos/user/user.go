package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error)
	GetByEmails(dbc dbctx.Context, emails []string) ([]*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UpdateDisplayName(dbc dbctx.Context, userID uuid.UUID, displayName string) error
	AddXP(dbc dbctx.Context, userID uuid.UUID, delta int) (int, error)
	UpdateStreak(dbc dbctx.Context, userID uuid.UUID, streakDays int, lastActiveAt time.Time) error
	// ListStreakAtRisk returns users holding a streak who have not been
	// active since dayStart. Feeds the nudge sweep.
	ListStreakAtRisk(dbc dbctx.Context, dayStart time.Time) ([]*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.User
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *userRepo) GetByEmails(dbc dbctx.Context, emails []string) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.User
	if len(emails) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("email IN ?", emails).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) UpdateDisplayName(dbc dbctx.Context, userID uuid.UUID, displayName string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("display_name", displayName).Error
}

// AddXP increments the xp counter atomically and returns the new total.
func (r *userRepo) AddXP(dbc dbctx.Context, userID uuid.UUID, delta int) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || delta == 0 {
		return 0, nil
	}
	var out struct {
		XP int `gorm:"column:xp"`
	}
	res := t.WithContext(dbc.Ctx).Raw(
		`UPDATE "user" SET xp = xp + ?, updated_at = ? WHERE id = ? RETURNING xp`,
		delta, time.Now().UTC(), userID,
	).Scan(&out)
	if res.Error != nil {
		return 0, res.Error
	}
	return out.XP, nil
}

func (r *userRepo) ListStreakAtRisk(dbc dbctx.Context, dayStart time.Time) ([]*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.User
	if err := t.WithContext(dbc.Ctx).
		Where("streak_days > 0 AND (last_active_at IS NULL OR last_active_at < ?)", dayStart).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) UpdateStreak(dbc dbctx.Context, userID uuid.UUID, streakDays int, lastActiveAt time.Time) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"streak_days":    streakDays,
			"last_active_at": lastActiveAt,
		}).Error
}
