package sessions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type FocusSessionRepo interface {
	Create(dbc dbctx.Context, rows []*types.FocusSession) ([]*types.FocusSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error)
	// GetLiveByOwner returns the owner's active-or-paused session, if any.
	// The partial unique index guarantees at most one.
	GetLiveByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) (*types.FocusSession, error)
	// ListActive returns every session the scheduler tick must consider.
	ListActive(dbc dbctx.Context) ([]*types.FocusSession, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.FocusSession, error)
	// AdvancePhase moves a session from one phase to the next, guarded so a
	// concurrent pause or a duplicate tick loses the race instead of
	// double-advancing.
	AdvancePhase(dbc dbctx.Context, id uuid.UUID, fromPhase, toPhase string, at time.Time, bumpCycle bool) (bool, error)
	// UpdateFieldsIfStatus applies updates only while the session is still in
	// the expected status. Returns false when the guard misses.
	UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, wantStatus string, updates map[string]interface{}) (bool, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// LastRecallByOwners returns, per owner, when their most recent session
	// with at least one recall round ended, restricted to owners whose last
	// such session ended before the cutoff. Feeds the review-due nudge.
	LastRecallByOwners(dbc dbctx.Context, before time.Time) (map[uuid.UUID]time.Time, error)
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
}

type focusSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFocusSessionRepo(db *gorm.DB, baseLog *logger.Logger) FocusSessionRepo {
	return &focusSessionRepo{db: db, log: baseLog.With("repo", "FocusSessionRepo")}
}

func (r *focusSessionRepo) Create(dbc dbctx.Context, rows []*types.FocusSession) ([]*types.FocusSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.FocusSession{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *focusSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.FocusSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.FocusSession
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

func (r *focusSessionRepo) GetLiveByOwner(dbc dbctx.Context, ownerUserID uuid.UUID) (*types.FocusSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if ownerUserID == uuid.Nil {
		return nil, nil
	}
	var row types.FocusSession
	err := t.WithContext(dbc.Ctx).
		Where("owner_user_id = ? AND status IN ?", ownerUserID,
			[]string{types.SessionStatusActive, types.SessionStatusPaused}).
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

func (r *focusSessionRepo) ListActive(dbc dbctx.Context) ([]*types.FocusSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.FocusSession
	if err := t.WithContext(dbc.Ctx).
		Where("status = ?", types.SessionStatusActive).
		Order("phase_started_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *focusSessionRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.FocusSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.FocusSession
	if ownerUserID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *focusSessionRepo) AdvancePhase(dbc dbctx.Context, id uuid.UUID, fromPhase, toPhase string, at time.Time, bumpCycle bool) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	updates := map[string]interface{}{
		"phase":            toPhase,
		"phase_started_at": at,
		"updated_at":       at,
	}
	if bumpCycle {
		updates["cycle_count"] = gorm.Expr("cycle_count + 1")
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.FocusSession{}).
		Where("id = ? AND status = ? AND phase = ?", id, types.SessionStatusActive, fromPhase).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *focusSessionRepo) UpdateFieldsIfStatus(dbc dbctx.Context, id uuid.UUID, wantStatus string, updates map[string]interface{}) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.FocusSession{}).
		Where("id = ? AND status = ?", id, wantStatus).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *focusSessionRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.FocusSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *focusSessionRepo) LastRecallByOwners(dbc dbctx.Context, before time.Time) (map[uuid.UUID]time.Time, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	// Completed runs always went through recall; abandoned ones did too once
	// a full cycle finished. There is no per-phase history table, so the
	// session end time stands in for the recall time.
	var rows []struct {
		OwnerUserID uuid.UUID `gorm:"column:owner_user_id"`
		LastEnded   time.Time `gorm:"column:last_ended"`
	}
	err := t.WithContext(dbc.Ctx).
		Model(&types.FocusSession{}).
		Select("owner_user_id, MAX(ended_at) AS last_ended").
		Where("ended_at IS NOT NULL AND (status = ? OR (status = ? AND cycle_count >= 1))",
			types.SessionStatusCompleted, types.SessionStatusAbandoned).
		Group("owner_user_id").
		Having("MAX(ended_at) < ?", before).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]time.Time, len(rows))
	for _, row := range rows {
		out[row.OwnerUserID] = row.LastEnded
	}
	return out, nil
}

func (r *focusSessionRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
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
		Delete(&types.FocusSession{}).Error
}
