package repository

import (
	"context"

	"stocksync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunRepository stores the reconciliation run history shown by the ops API.
type RunRepository interface {
	Create(ctx context.Context, run *model.SyncRun) error
	Update(ctx context.Context, run *model.SyncRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SyncRun, error)
	List(ctx context.Context, page, limit int) ([]model.SyncRun, int64, error)
}

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(ctx context.Context, run *model.SyncRun) error {
	return GetDB(ctx, r.db).Create(run).Error
}

func (r *runRepository) Update(ctx context.Context, run *model.SyncRun) error {
	return GetDB(ctx, r.db).Save(run).Error
}

func (r *runRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SyncRun, error) {
	var run model.SyncRun
	if err := GetDB(ctx, r.db).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) List(ctx context.Context, page, limit int) ([]model.SyncRun, int64, error) {
	var runs []model.SyncRun
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.SyncRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("started_at desc").Offset(offset).Limit(limit).Find(&runs).Error; err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}
