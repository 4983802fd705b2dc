package sessions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type NudgeRepo interface {
	// CreateIgnoreDuplicates inserts nudges, silently dropping rows whose
	// dedupe key already exists. Returns the number actually inserted.
	CreateIgnoreDuplicates(dbc dbctx.Context, rows []*types.Nudge) (int64, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Nudge, error)
	ListPendingByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Nudge, error)
	// Dismiss marks a pending nudge dismissed. Owner-scoped so one user
	// cannot dismiss another's nudges.
	Dismiss(dbc dbctx.Context, id uuid.UUID, ownerUserID uuid.UUID, at time.Time) (bool, error)
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
}

type nudgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNudgeRepo(db *gorm.DB, baseLog *logger.Logger) NudgeRepo {
	return &nudgeRepo{db: db, log: baseLog.With("repo", "NudgeRepo")}
}

func (r *nudgeRepo) CreateIgnoreDuplicates(dbc dbctx.Context, rows []*types.Nudge) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *nudgeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Nudge, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Nudge
	err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *nudgeRepo) ListPendingByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) ([]*types.Nudge, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Nudge
	if ownerUserID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("owner_user_id = ? AND status = ?", ownerUserID, types.NudgeStatusPending).
		Order("delivered_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *nudgeRepo) Dismiss(dbc dbctx.Context, id uuid.UUID, ownerUserID uuid.UUID, at time.Time) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || ownerUserID == uuid.Nil {
		return false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Nudge{}).
		Where("id = ? AND owner_user_id = ? AND status = ?", id, ownerUserID, types.NudgeStatusPending).
		Updates(map[string]interface{}{
			"status":       types.NudgeStatusDismissed,
			"dismissed_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *nudgeRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(userIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Unscoped().
		Where("owner_user_id IN ?", userIDs).
		Delete(&types.Nudge{}).Error
}
