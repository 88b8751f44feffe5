package model

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedOrder is one row of the idempotence ledger: an order whose effects
// have been fully applied to the stock sheet. The ledger only grows; the
// order id is the primary key so re-inserting is a natural no-op.
type ProcessedOrder struct {
	OrderID     string    `gorm:"type:text;primaryKey" json:"order_id"`
	ProcessedAt time.Time `gorm:"not null;default:now()" json:"processed_at"`
}

func (ProcessedOrder) TableName() string { return "processed_orders" }

// ImportMarker is the one-row switch recording that the one-time full
// inventory import (Shopify -> stock sheet) has already run.
type ImportMarker struct {
	Done bool `gorm:"primaryKey" json:"done"`
}

func (ImportMarker) TableName() string { return "inventory_initialized" }

// SyncRun status constants
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// SyncRun records one reconciliation run for the operations API: how many
// orders were fetched and applied, how many warnings the run produced, and
// the failure message if it aborted.
type SyncRun struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`
	Trigger       string     `gorm:"type:varchar(20);not null" json:"trigger"` // JOB, API
	OrdersFetched int        `gorm:"not null;default:0" json:"orders_fetched"`
	OrdersApplied int        `gorm:"not null;default:0" json:"orders_applied"`
	Warnings      int        `gorm:"not null;default:0" json:"warnings"`
	Error         string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt     time.Time  `gorm:"not null;index" json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

func (SyncRun) TableName() string { return "sync_runs" }
