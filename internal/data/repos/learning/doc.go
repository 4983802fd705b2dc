package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type LearningDocRepo interface {
	Create(dbc dbctx.Context, rows []*types.LearningDoc) ([]*types.LearningDoc, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.LearningDoc, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningDoc, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.LearningDoc, error)
	ListByPathNode(dbc dbctx.Context, pathNodeID uuid.UUID) ([]*types.LearningDoc, error)
	UpdateBlocks(dbc dbctx.Context, id uuid.UUID, blocks datatypes.JSON) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
}

type learningDocRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningDocRepo(db *gorm.DB, baseLog *logger.Logger) LearningDocRepo {
	return &learningDocRepo{db: db, log: baseLog.With("repo", "LearningDocRepo")}
}

func (r *learningDocRepo) Create(dbc dbctx.Context, rows []*types.LearningDoc) ([]*types.LearningDoc, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.LearningDoc{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *learningDocRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.LearningDoc, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LearningDoc
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningDocRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningDoc, error) {
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

func (r *learningDocRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.LearningDoc, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LearningDoc
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

func (r *learningDocRepo) ListByPathNode(dbc dbctx.Context, pathNodeID uuid.UUID) ([]*types.LearningDoc, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LearningDoc
	if pathNodeID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("path_node_id = ?", pathNodeID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *learningDocRepo) UpdateBlocks(dbc dbctx.Context, id uuid.UUID, blocks datatypes.JSON) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{"blocks": blocks})
}

func (r *learningDocRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.LearningDoc{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *learningDocRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.LearningDoc{}).Error
}

func (r *learningDocRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
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
		Delete(&types.LearningDoc{}).Error
}
