package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type PathNodeRepo interface {
	Create(dbc dbctx.Context, rows []*types.PathNode) ([]*types.PathNode, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PathNode, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PathNode, error)
	ListByPath(dbc dbctx.Context, pathID uuid.UUID) ([]*types.PathNode, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error
	// UpdateStatusIf flips the status only when the node is still in the
	// expected state. Returns false when another writer got there first.
	UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	FullDeleteByPathIDs(dbc dbctx.Context, pathIDs []uuid.UUID) error
}

type pathNodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathNodeRepo(db *gorm.DB, baseLog *logger.Logger) PathNodeRepo {
	return &pathNodeRepo{db: db, log: baseLog.With("repo", "PathNodeRepo")}
}

func (r *pathNodeRepo) Create(dbc dbctx.Context, rows []*types.PathNode) ([]*types.PathNode, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.PathNode{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pathNodeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PathNode, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.PathNode
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pathNodeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PathNode, error) {
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

func (r *pathNodeRepo) ListByPath(dbc dbctx.Context, pathID uuid.UUID) ([]*types.PathNode, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.PathNode
	if pathID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("path_id = ?", pathID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pathNodeRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{"status": status})
}

func (r *pathNodeRepo) UpdateStatusIf(dbc dbctx.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.PathNode{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":     toStatus,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pathNodeRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.PathNode{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *pathNodeRepo) FullDeleteByPathIDs(dbc dbctx.Context, pathIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(pathIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Unscoped().
		Where("path_id IN ?", pathIDs).
		Delete(&types.PathNode{}).Error
}
