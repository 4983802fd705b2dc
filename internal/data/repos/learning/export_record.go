package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/menttor/menttor-backend/internal/domain"
	"github.com/menttor/menttor-backend/internal/platform/dbctx"
	"github.com/menttor/menttor-backend/internal/platform/logger"
)

type ExportRecordRepo interface {
	Create(dbc dbctx.Context, rows []*types.ExportRecord) ([]*types.ExportRecord, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ExportRecord, error)
	ListByDoc(dbc dbctx.Context, docID uuid.UUID) ([]*types.ExportRecord, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.ExportRecord, error)
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
}

type exportRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExportRecordRepo(db *gorm.DB, baseLog *logger.Logger) ExportRecordRepo {
	return &exportRecordRepo{db: db, log: baseLog.With("repo", "ExportRecordRepo")}
}

func (r *exportRecordRepo) Create(dbc dbctx.Context, rows []*types.ExportRecord) ([]*types.ExportRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.ExportRecord{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *exportRecordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ExportRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ExportRecord
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

func (r *exportRecordRepo) ListByDoc(dbc dbctx.Context, docID uuid.UUID) ([]*types.ExportRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ExportRecord
	if docID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("doc_id = ?", docID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *exportRecordRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.ExportRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ExportRecord
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

func (r *exportRecordRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
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
		Delete(&types.ExportRecord{}).Error
}
