package repository

import (
	"context"
	"time"

	"stocksync/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository is the idempotence ledger: the ever-growing set of
// order ids whose effects have been applied. There is no delete.
type LedgerRepository interface {
	Load(ctx context.Context) (map[string]struct{}, error)
	Save(ctx context.Context, ids []string) error
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Load(ctx context.Context) (map[string]struct{}, error) {
	var rows []model.ProcessedOrder
	if err := GetDB(ctx, r.db).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		ids[row.OrderID] = struct{}{}
	}
	return ids, nil
}

// Save upserts order ids: an id already present is a no-op, never an error
// and never a duplicate row.
func (r *ledgerRepository) Save(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]model.ProcessedOrder, 0, len(ids))
	now := time.Now().UTC()
	for _, id := range ids {
		rows = append(rows, model.ProcessedOrder{OrderID: id, ProcessedAt: now})
	}
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
