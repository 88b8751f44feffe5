package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"stocksync/internal/config"
	"stocksync/internal/model"
	"stocksync/internal/reconcile"
	"stocksync/internal/repository"
	"stocksync/internal/resolver"
	"stocksync/internal/sheets"
	"stocksync/internal/shopify"
	"stocksync/internal/syncer"
	ws "stocksync/internal/websocket"
)

// Run triggers
const (
	TriggerJob = "JOB"
	TriggerAPI = "API"
)

// OrderSource is the slice of the storefront client the run needs for
// reading orders and the catalog.
type OrderSource interface {
	Domain() string
	FetchOrders(ctx context.Context, createdAtMin time.Time) ([]shopify.Order, error)
	FetchVariants(ctx context.Context) ([]shopify.Variant, error)
}

// ReportStore is the slice of the reporting client the run needs.
type ReportStore interface {
	ReadGrid(ctx context.Context, sheetName string) ([][]string, error)
	WriteGrid(ctx context.Context, sheetName string, grid [][]string) error
	UpdateCells(ctx context.Context, sheetName string, updates []sheets.CellUpdate) error
	AppendRows(ctx context.Context, sheetName string, rows [][]interface{}) error
}

// StockSyncer is the cross-store synchronizer as the run sees it.
type StockSyncer interface {
	SyncAll(ctx context.Context) (syncer.Stats, error)
	ApplySecondaryOrder(ctx context.Context, order shopify.Order) ([]string, error)
}

// SyncService runs the order-to-inventory reconciliation.
type SyncService interface {
	Run(ctx context.Context, trigger string) (*model.SyncRun, error)
	Reimport(ctx context.Context) error
	ListRuns(ctx context.Context, page, limit int) ([]model.SyncRun, int64, error)
	Averages(ctx context.Context) (map[string]float64, error)
}

type syncService struct {
	cfg        config.Config
	master     OrderSource
	secondary  OrderSource // nil in the single-store variant
	stockSync  StockSyncer // nil in the single-store variant
	report     ReportStore
	ledgerRepo repository.LedgerRepository
	importRepo repository.ImportRepository
	runRepo    repository.RunRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
}

func NewSyncService(
	cfg config.Config,
	master, secondary OrderSource,
	stockSync StockSyncer,
	report ReportStore,
	ledgerRepo repository.LedgerRepository,
	importRepo repository.ImportRepository,
	runRepo repository.RunRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) SyncService {
	return &syncService{
		cfg:        cfg,
		master:     master,
		secondary:  secondary,
		stockSync:  stockSync,
		report:     report,
		ledgerRepo: ledgerRepo,
		importRepo: importRepo,
		runRepo:    runRepo,
		txManager:  txManager,
		hub:        hub,
	}
}

func (s *syncService) masterOpts() reconcile.Options {
	// The master store predates multi-store support, so its ledger ids
	// stay unprefixed.
	return reconcile.Options{
		SegmentCountry: s.cfg.SegmentCountry,
		StoreDomain:    s.master.Domain(),
		LegacyStore:    true,
	}
}

func (s *syncService) secondaryOpts() reconcile.Options {
	return reconcile.Options{
		SegmentCountry: s.cfg.SegmentCountry,
		StoreDomain:    s.secondary.Domain(),
		LegacyStore:    !s.cfg.UsePrefixPerStore,
	}
}

// Run executes one full reconciliation pass and records it in the run
// history. A failed run leaves already-committed writes in place; the next
// run's ledger check keeps the arithmetic exactly-once per order.
func (s *syncService) Run(ctx context.Context, trigger string) (*model.SyncRun, error) {
	run := &model.SyncRun{
		Status:    model.RunStatusRunning,
		Trigger:   trigger,
		StartedAt: time.Now().UTC(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}
	if s.hub != nil {
		s.hub.Notify(ws.RunEvent{Event: "run_started", RunID: run.ID.String()})
	}

	err := s.execute(ctx, run)

	now := time.Now().UTC()
	run.FinishedAt = &now
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.Status = model.RunStatusCompleted
	}
	if updateErr := s.runRepo.Update(ctx, run); updateErr != nil {
		log.Printf("failed to record run result: %v", updateErr)
	}
	if s.hub != nil {
		event := "run_finished"
		if err != nil {
			event = "run_failed"
		}
		s.hub.Notify(ws.RunEvent{Event: event, RunID: run.ID.String(), Message: run.Error})
	}
	return run, err
}

func (s *syncService) execute(ctx context.Context, run *model.SyncRun) error {
	// One-time inventory import on the very first run.
	initialized, err := s.importRepo.Initialized(ctx)
	if err != nil {
		return fmt.Errorf("failed to read import marker: %w", err)
	}
	if !initialized {
		log.Println("First run: importing inventory from the master store")
		if err := s.importInventory(ctx); err != nil {
			return err
		}
		if err := s.importRepo.MarkInitialized(ctx); err != nil {
			return fmt.Errorf("failed to set import marker: %w", err)
		}
	}

	// Read the current stock snapshot and the idempotence ledger.
	stockGrid, err := s.report.ReadGrid(ctx, s.cfg.StockSheet)
	if err != nil {
		return err
	}
	inv, sold := sheets.ParseStock(stockGrid)

	already, err := s.ledgerRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load processed order ids: %w", err)
	}

	// Fetch and apply master-store orders.
	masterOrders, err := s.master.FetchOrders(ctx, s.cfg.StartDate)
	if err != nil {
		return err
	}
	run.OrdersFetched = len(masterOrders)

	result := reconcile.Apply(masterOrders, inv, sold, already, s.masterOpts())
	newIDs := result.NewIDs
	warnings := result.Warnings
	sales := result.Sales
	segmentSales := result.SegmentSales

	// The secondary store sells from the shared stock: its new orders are
	// subtracted from the master store's tracked quantity immediately,
	// then folded into the same ledger and sales logs.
	if s.secondary != nil {
		secondaryOrders, err := s.secondary.FetchOrders(ctx, s.cfg.StartDate)
		if err != nil {
			return err
		}
		run.OrdersFetched += len(secondaryOrders)

		opts := s.secondaryOpts()
		for _, o := range secondaryOrders {
			if opts.IsProcessed(already, o.ID) {
				continue
			}
			w, err := s.stockSync.ApplySecondaryOrder(ctx, o)
			warnings = append(warnings, w...)
			if err != nil {
				return err
			}
		}

		secondaryResult := reconcile.Apply(secondaryOrders, inv, sold, already, opts)
		newIDs = append(newIDs, secondaryResult.NewIDs...)
		warnings = append(warnings, secondaryResult.Warnings...)
		sales = mergeLogs(sales, secondaryResult.Sales)
		segmentSales = mergeLogs(segmentSales, secondaryResult.SegmentSales)
	}

	run.OrdersApplied = len(newIDs)
	run.Warnings = len(warnings)
	for _, w := range warnings {
		log.Println("WARNING:", w)
		if s.hub != nil {
			s.hub.Notify(ws.RunEvent{Event: "warning", RunID: run.ID.String(), Message: w})
		}
	}

	// Record processed ids before the sheet writes: a crash between the
	// two leaves orders counted in the ledger but not in the sheet, which
	// the operator resolves by rerunning (accepted, bounded risk). The
	// reverse order would double-count instead. The run counters commit
	// with the ids so the history never claims unsaved work.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ledgerRepo.Save(txCtx, newIDs); err != nil {
			return fmt.Errorf("failed to save processed order ids: %w", err)
		}
		return s.runRepo.Update(txCtx, run)
	})
	if err != nil {
		return err
	}

	if len(newIDs) == 0 {
		log.Println("No new orders; skipping report writes")
	} else {
		if err := s.mergeSalesSheet(ctx, s.cfg.SalesSheet, sales); err != nil {
			return err
		}
		if err := s.mergeSalesSheet(ctx, s.cfg.SegmentSalesSheet, segmentSales); err != nil {
			return err
		}

		updates, appends := sheets.PlanStockWriteback(stockGrid, inv, sold)
		if err := s.report.UpdateCells(ctx, s.cfg.StockSheet, updates); err != nil {
			return err
		}
		if err := s.report.AppendRows(ctx, s.cfg.StockSheet, appends); err != nil {
			return err
		}

		if err := s.writeAverages(ctx); err != nil {
			return err
		}
	}

	// Cross-store pass: diff-then-apply, so an in-sync catalog costs no
	// write calls.
	if s.stockSync != nil {
		if _, err := s.stockSync.SyncAll(ctx); err != nil {
			return err
		}
	}

	return nil
}

// importInventory reads the master catalog and seeds the stock sheet,
// aggregating variant quantities by resolved product key.
func (s *syncService) importInventory(ctx context.Context) error {
	variants, err := s.master.FetchVariants(ctx)
	if err != nil {
		return err
	}

	fetched := make(map[model.ProductKey]int)
	for _, v := range variants {
		text := v.SKU
		if text == "" {
			text = v.Title
		}
		key, ok := resolver.Resolve(text)
		if !ok {
			continue
		}
		fetched[key] += v.InventoryQuantity
	}
	log.Printf("Imported %d product keys from the master store", len(fetched))

	grid, err := s.report.ReadGrid(ctx, s.cfg.StockSheet)
	if err != nil {
		return err
	}
	updates, appends := sheets.PlanInitialImport(grid, fetched)
	if err := s.report.UpdateCells(ctx, s.cfg.StockSheet, updates); err != nil {
		return err
	}
	return s.report.AppendRows(ctx, s.cfg.StockSheet, appends)
}

func (s *syncService) mergeSalesSheet(ctx context.Context, sheetName string, salesLog reconcile.SalesLog) error {
	if len(salesLog) == 0 {
		return nil
	}
	grid, err := s.report.ReadGrid(ctx, sheetName)
	if err != nil {
		return err
	}
	return s.report.WriteGrid(ctx, sheetName, sheets.MergeSales(grid, salesLog))
}

// writeAverages recomputes the trailing 7-day per-day average from the
// sales table and writes it into the stock sheet's average column. The
// stock grid is re-read so rows appended earlier in the run are seen.
func (s *syncService) writeAverages(ctx context.Context) error {
	salesGrid, err := s.report.ReadGrid(ctx, s.cfg.SalesSheet)
	if err != nil {
		return err
	}
	averages := reconcile.ComputeAverages(salesGrid, time.Now().UTC())
	if len(averages) == 0 {
		return nil
	}

	stockGrid, err := s.report.ReadGrid(ctx, s.cfg.StockSheet)
	if err != nil {
		return err
	}
	return s.report.UpdateCells(ctx, s.cfg.StockSheet, sheets.PlanAverages(stockGrid, averages))
}

// Reimport is the operator-invoked re-run of the one-time inventory
// import, for use after a catalog restructuring. It is never triggered
// automatically.
func (s *syncService) Reimport(ctx context.Context) error {
	if err := s.importRepo.ClearInitialized(ctx); err != nil {
		return fmt.Errorf("failed to clear import marker: %w", err)
	}
	if err := s.importInventory(ctx); err != nil {
		return err
	}
	return s.importRepo.MarkInitialized(ctx)
}

func (s *syncService) ListRuns(ctx context.Context, page, limit int) ([]model.SyncRun, int64, error) {
	return s.runRepo.List(ctx, page, limit)
}

// Averages recomputes the current rolling averages for the ops API,
// dropping keys that have no stock row.
func (s *syncService) Averages(ctx context.Context) (map[string]float64, error) {
	salesGrid, err := s.report.ReadGrid(ctx, s.cfg.SalesSheet)
	if err != nil {
		return nil, err
	}
	stockGrid, err := s.report.ReadGrid(ctx, s.cfg.StockSheet)
	if err != nil {
		return nil, err
	}
	inv, _ := sheets.ParseStock(stockGrid)

	out := make(map[string]float64)
	for key, avg := range reconcile.ComputeAverages(salesGrid, time.Now().UTC()) {
		if _, ok := inv[key]; ok {
			out[key.Label()] = avg
		}
	}
	return out, nil
}

func mergeLogs(dst, src reconcile.SalesLog) reconcile.SalesLog {
	for date, day := range src {
		for key, qty := range day {
			dst.Add(date, key, qty)
		}
	}
	return dst
}
