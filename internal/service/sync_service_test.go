package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksync/internal/config"
	"stocksync/internal/model"
	"stocksync/internal/sheets"
	"stocksync/internal/shopify"
	"stocksync/internal/syncer"
)

type fakeOrders struct {
	domain   string
	orders   []shopify.Order
	variants []shopify.Variant
	err      error
}

func (f *fakeOrders) Domain() string { return f.domain }

func (f *fakeOrders) FetchOrders(context.Context, time.Time) ([]shopify.Order, error) {
	return f.orders, f.err
}

func (f *fakeOrders) FetchVariants(context.Context) ([]shopify.Variant, error) {
	return f.variants, nil
}

// fakeReport keeps sheet grids in memory and applies planned writes to them.
type fakeReport struct {
	grids map[string][][]string

	reads   int
	writes  int
	updates int
	appends int

	readErr error
}

func newFakeReport() *fakeReport {
	return &fakeReport{grids: map[string][][]string{
		"Blad1": {{"Artikel", "Antal", "Sålda"}},
		"Blad2": {},
		"Blad3": {},
	}}
}

func (f *fakeReport) resetCounters() {
	f.reads, f.writes, f.updates, f.appends = 0, 0, 0, 0
}

func (f *fakeReport) ReadGrid(_ context.Context, sheetName string) ([][]string, error) {
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.grids[sheetName], nil
}

func (f *fakeReport) WriteGrid(_ context.Context, sheetName string, grid [][]string) error {
	f.writes++
	f.grids[sheetName] = grid
	return nil
}

func (f *fakeReport) UpdateCells(_ context.Context, sheetName string, updates []sheets.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	f.updates++
	grid := f.grids[sheetName]
	for _, u := range updates {
		for len(grid) < u.Row {
			grid = append(grid, nil)
		}
		row := grid[u.Row-1]
		for len(row) < u.Col {
			row = append(row, "")
		}
		row[u.Col-1] = u.Value
		grid[u.Row-1] = row
	}
	f.grids[sheetName] = grid
	return nil
}

func (f *fakeReport) AppendRows(_ context.Context, sheetName string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	f.appends++
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		f.grids[sheetName] = append(f.grids[sheetName], cells)
	}
	return nil
}

type fakeLedger struct {
	ids map[string]struct{}
}

func (f *fakeLedger) Load(context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(f.ids))
	for id := range f.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (f *fakeLedger) Save(_ context.Context, ids []string) error {
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
	return nil
}

type fakeImport struct{ done bool }

func (f *fakeImport) Initialized(context.Context) (bool, error) { return f.done, nil }
func (f *fakeImport) MarkInitialized(context.Context) error     { f.done = true; return nil }
func (f *fakeImport) ClearInitialized(context.Context) error    { f.done = false; return nil }

type fakeRuns struct {
	runs []*model.SyncRun
}

func (f *fakeRuns) Create(_ context.Context, run *model.SyncRun) error {
	run.ID = uuid.New()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRuns) Update(context.Context, *model.SyncRun) error { return nil }

func (f *fakeRuns) FindByID(_ context.Context, id uuid.UUID) (*model.SyncRun, error) {
	for _, run := range f.runs {
		if run.ID == id {
			return run, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeRuns) List(context.Context, int, int) ([]model.SyncRun, int64, error) {
	out := make([]model.SyncRun, 0, len(f.runs))
	for _, run := range f.runs {
		out = append(out, *run)
	}
	return out, int64(len(out)), nil
}

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeStockSync struct {
	applied  []shopify.Order
	syncRuns int
}

func (f *fakeStockSync) SyncAll(context.Context) (syncer.Stats, error) {
	f.syncRuns++
	return syncer.Stats{}, nil
}

func (f *fakeStockSync) ApplySecondaryOrder(_ context.Context, order shopify.Order) ([]string, error) {
	f.applied = append(f.applied, order)
	return nil, nil
}

func testConfig() config.Config {
	return config.Config{
		Master:            config.Store{Domain: "master.myshopify.com", Token: "t"},
		SegmentCountry:    "US",
		StartDate:         time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
		StockSheet:        "Blad1",
		SalesSheet:        "Blad2",
		SegmentSalesSheet: "Blad3",
	}
}

type fixture struct {
	svc    SyncService
	report *fakeReport
	ledger *fakeLedger
	marker *fakeImport
	runs   *fakeRuns
	sync   *fakeStockSync
}

func newFixture(cfg config.Config, master, secondary *fakeOrders) *fixture {
	f := &fixture{
		report: newFakeReport(),
		ledger: &fakeLedger{ids: map[string]struct{}{}},
		marker: &fakeImport{},
		runs:   &fakeRuns{},
	}
	var secondarySource OrderSource
	var stockSync StockSyncer
	if secondary != nil {
		f.sync = &fakeStockSync{}
		secondarySource = secondary
		stockSync = f.sync
	}
	f.svc = NewSyncService(cfg, master, secondarySource, stockSync,
		f.report, f.ledger, f.marker, f.runs, fakeTx{}, nil)
	return f
}

func masterOrder(id int64, country string, items ...shopify.LineItem) shopify.Order {
	o := shopify.Order{
		ID:        id,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		LineItems: items,
	}
	if country != "" {
		o.ShippingAddress = &shopify.ShippingAddress{CountryCode: country}
	}
	return o
}

func TestSyncServiceRun(t *testing.T) {
	master := &fakeOrders{
		domain: "master.myshopify.com",
		orders: []shopify.Order{
			masterOrder(1001, "US", shopify.LineItem{Title: "Parfym 149", Quantity: 2}),
		},
		variants: []shopify.Variant{
			{ID: 10, Title: "Parfym 149", SKU: "149", InventoryItemID: 100, InventoryQuantity: 25},
		},
	}

	t.Run("first run imports inventory and applies orders", func(t *testing.T) {
		f := newFixture(testConfig(), master, nil)

		run, err := f.svc.Run(context.Background(), TriggerJob)
		require.NoError(t, err)

		assert.Equal(t, model.RunStatusCompleted, run.Status)
		assert.Equal(t, TriggerJob, run.Trigger)
		assert.Equal(t, 1, run.OrdersFetched)
		assert.Equal(t, 1, run.OrdersApplied)
		assert.Equal(t, 0, run.Warnings)
		require.NotNil(t, run.FinishedAt)

		assert.True(t, f.marker.done)
		assert.Contains(t, f.ledger.ids, "1001")

		// imported quantity 25 minus the 2 sold, with the average column filled
		today := time.Now().UTC().Format("2006-01-02")
		assert.Equal(t, [][]string{
			{"Artikel", "Antal", "Sålda", sheets.AverageHeader},
			{"149", "23", "2", "0.29"},
		}, f.report.grids["Blad1"])
		assert.Equal(t, [][]string{
			{"", "149"},
			{today, "2"},
		}, f.report.grids["Blad2"])
		// the US order is mirrored into the segment table
		assert.Equal(t, [][]string{
			{"", "149"},
			{today, "2"},
		}, f.report.grids["Blad3"])
	})

	t.Run("steady state run performs zero report writes", func(t *testing.T) {
		f := newFixture(testConfig(), master, nil)

		_, err := f.svc.Run(context.Background(), TriggerJob)
		require.NoError(t, err)

		f.report.resetCounters()
		run, err := f.svc.Run(context.Background(), TriggerJob)
		require.NoError(t, err)

		assert.Equal(t, model.RunStatusCompleted, run.Status)
		assert.Equal(t, 1, run.OrdersFetched)
		assert.Equal(t, 0, run.OrdersApplied)
		assert.Equal(t, 0, f.report.writes)
		assert.Equal(t, 0, f.report.updates)
		assert.Equal(t, 0, f.report.appends)
		assert.Equal(t, 1, f.report.reads) // only the stock snapshot
	})

	t.Run("failed run is recorded with its error", func(t *testing.T) {
		f := newFixture(testConfig(), master, nil)
		f.report.readErr = errors.New("spreadsheet unreachable")

		run, err := f.svc.Run(context.Background(), TriggerAPI)
		require.Error(t, err)
		assert.Equal(t, model.RunStatusFailed, run.Status)
		assert.Contains(t, run.Error, "spreadsheet unreachable")
		require.NotNil(t, run.FinishedAt)
		assert.Empty(t, f.ledger.ids)
	})
}

func TestSyncServiceSecondaryStore(t *testing.T) {
	master := &fakeOrders{
		domain: "master.myshopify.com",
		variants: []shopify.Variant{
			{ID: 10, Title: "Parfym 149", SKU: "149", InventoryItemID: 100, InventoryQuantity: 25},
		},
	}
	secondary := &fakeOrders{
		domain: "second.myshopify.com",
		orders: []shopify.Order{
			masterOrder(2002, "SE", shopify.LineItem{Title: "Parfym 149", SKU: "149", Quantity: 1}),
		},
	}

	cfg := testConfig()
	cfg.Secondary = config.Store{Domain: "second.myshopify.com", Token: "t"}
	cfg.UsePrefixPerStore = true

	t.Run("secondary orders are prefixed and pushed to the master stock", func(t *testing.T) {
		f := newFixture(cfg, master, secondary)

		run, err := f.svc.Run(context.Background(), TriggerJob)
		require.NoError(t, err)

		assert.Equal(t, model.RunStatusCompleted, run.Status)
		assert.Equal(t, 1, run.OrdersApplied)
		assert.Contains(t, f.ledger.ids, "second.myshopify.com:2002")
		require.Len(t, f.sync.applied, 1)
		assert.Equal(t, int64(2002), f.sync.applied[0].ID)
		assert.Equal(t, 1, f.sync.syncRuns)
	})

	t.Run("an already-recorded secondary order is not re-applied", func(t *testing.T) {
		f := newFixture(cfg, master, secondary)
		f.ledger.ids["second.myshopify.com:2002"] = struct{}{}

		run, err := f.svc.Run(context.Background(), TriggerJob)
		require.NoError(t, err)

		assert.Equal(t, 0, run.OrdersApplied)
		assert.Empty(t, f.sync.applied)
	})
}

func TestSyncServiceReimport(t *testing.T) {
	master := &fakeOrders{
		domain: "master.myshopify.com",
		variants: []shopify.Variant{
			{Title: "Parfym 149", SKU: "149", InventoryQuantity: 30},
			{Title: "Parfym 149 refill", SKU: "149-R", InventoryQuantity: 5},
			{Title: "Presentkort", SKU: ""},
		},
	}
	f := newFixture(testConfig(), master, nil)
	f.marker.done = true

	require.NoError(t, f.svc.Reimport(context.Background()))

	assert.True(t, f.marker.done)
	// both 149 variants aggregate into one row; the unresolvable one is dropped
	assert.Equal(t, [][]string{
		{"Artikel", "Antal", "Sålda"},
		{"149", "35", "0"},
	}, f.report.grids["Blad1"])
}

func TestSyncServiceAverages(t *testing.T) {
	master := &fakeOrders{domain: "master.myshopify.com"}
	f := newFixture(testConfig(), master, nil)

	today := time.Now().UTC().Format("2006-01-02")
	f.report.grids["Blad1"] = [][]string{
		{"Artikel", "Antal", "Sålda"},
		{"149", "10", "4"},
	}
	f.report.grids["Blad2"] = [][]string{
		{"", "149", "999"},
		{today, "14", "7"},
	}

	got, err := f.svc.Averages(context.Background())
	require.NoError(t, err)

	// 999 has sales but no stock row, so it is dropped
	assert.Equal(t, map[string]float64{"149": 2}, got)
}
