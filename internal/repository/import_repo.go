package repository

import (
	"context"

	"stocksync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImportRepository tracks whether the one-time full inventory import has
// run. Clearing the marker is only done by the explicit operator-invoked
// re-import command, never automatically.
type ImportRepository interface {
	Initialized(ctx context.Context) (bool, error)
	MarkInitialized(ctx context.Context) error
	ClearInitialized(ctx context.Context) error
}

type importRepository struct {
	db *gorm.DB
}

func NewImportRepository(db *gorm.DB) ImportRepository {
	return &importRepository{db: db}
}

func (r *importRepository) Initialized(ctx context.Context) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.ImportMarker{}).
		Where("done = ?", true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *importRepository) MarkInitialized(ctx context.Context) error {
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ImportMarker{Done: true}).Error
}

func (r *importRepository) ClearInitialized(ctx context.Context) error {
	return GetDB(ctx, r.db).
		Where("done = ?", true).
		Delete(&model.ImportMarker{}).Error
}
