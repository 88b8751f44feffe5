// Package sheets is the reporting store layer: a stock sheet with one row
// per product and dated sales tables with one row per calendar date. All
// decisions about what to write are made by pure functions over string
// grids; the remote client only moves grids in and out.
package sheets

import (
	"sort"
	"strconv"

	"stocksync/internal/model"
	"stocksync/internal/reconcile"
)

// Stock sheet column layout (1-based), matching the historical sheet:
// A = product key, B = on-hand quantity, C = cumulative sold, D = 7d average.
const (
	colKey      = 1
	colQuantity = 2
	colSold     = 3
	colAverage  = 4
)

// AverageHeader is written to the stock sheet's average column header cell.
const AverageHeader = "Snitt 7d (per dag)"

// CellUpdate is one planned single-cell write, 1-based.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// ParseStock reads the inventory and sold snapshots out of a stock grid.
// Rows whose key or counters do not parse are skipped; the engine never
// aborts a run over a malformed row.
func ParseStock(grid [][]string) (inv, sold map[model.ProductKey]int) {
	inv = make(map[model.ProductKey]int)
	sold = make(map[model.ProductKey]int)
	for i, row := range grid {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		key, err := model.NewProductKey(row[0])
		if err != nil {
			continue
		}
		qty := 0
		if len(row) > 1 {
			if v, err := model.ParseIntCell(row[1]); err == nil {
				qty = v
			} else {
				continue
			}
		}
		soldQty := 0
		if len(row) > 2 {
			if v, err := model.ParseIntCell(row[2]); err == nil {
				soldQty = v
			}
		}
		inv[key] = qty
		sold[key] = soldQty
	}
	return inv, sold
}

// keyRows maps each parseable product key in a stock grid to its 1-based row.
func keyRows(grid [][]string) map[model.ProductKey]int {
	rows := make(map[model.ProductKey]int)
	for i, row := range grid {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		key, err := model.NewProductKey(row[0])
		if err != nil {
			continue
		}
		rows[key] = i + 1
	}
	return rows
}

// PlanStockWriteback plans the quantity and sold cell writes for keys that
// already have a row. Keys first seen during this run are returned as rows
// to append (key, quantity, sold).
func PlanStockWriteback(grid [][]string, inv, sold map[model.ProductKey]int) (updates []CellUpdate, appends [][]interface{}) {
	rows := keyRows(grid)

	for _, key := range sortedKeys(inv) {
		if row, ok := rows[key]; ok {
			updates = append(updates, CellUpdate{Row: row, Col: colQuantity, Value: itoa(inv[key])})
		} else {
			appends = append(appends, []interface{}{key.Label(), inv[key], sold[key]})
		}
	}
	for _, key := range sortedKeys(sold) {
		if row, ok := rows[key]; ok {
			updates = append(updates, CellUpdate{Row: row, Col: colSold, Value: itoa(sold[key])})
		}
	}
	return updates, appends
}

// PlanInitialImport plans the one-time Shopify -> stock sheet import:
// known keys get their quantity cell updated, unseen keys become new rows
// with zero sold.
func PlanInitialImport(grid [][]string, fetched map[model.ProductKey]int) (updates []CellUpdate, appends [][]interface{}) {
	rows := keyRows(grid)
	for _, key := range sortedKeys(fetched) {
		if row, ok := rows[key]; ok {
			updates = append(updates, CellUpdate{Row: row, Col: colQuantity, Value: itoa(fetched[key])})
		} else {
			appends = append(appends, []interface{}{key.Label(), fetched[key], 0})
		}
	}
	return updates, appends
}

// PlanAverages plans the rolling-average column writes. Keys without a
// stock row are dropped: there is no destination to write them to.
func PlanAverages(grid [][]string, averages map[model.ProductKey]float64) []CellUpdate {
	if len(averages) == 0 {
		return nil
	}
	rows := keyRows(grid)
	updates := []CellUpdate{{Row: 1, Col: colAverage, Value: AverageHeader}}
	keys := make([]model.ProductKey, 0, len(averages))
	for key := range averages {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Float() < keys[j].Float() })
	for _, key := range keys {
		row, ok := rows[key]
		if !ok {
			continue
		}
		updates = append(updates, CellUpdate{Row: row, Col: colAverage, Value: ftoa(averages[key])})
	}
	if len(updates) == 1 {
		return nil
	}
	return updates
}

// MergeSales folds a run's sales log into a dated sales table and returns
// the merged grid. Values are added to existing cells, never overwritten;
// date rows stay sorted ascending and product columns keep their first-seen
// order, with new columns appended on the right.
func MergeSales(grid [][]string, log reconcile.SalesLog) [][]string {
	if len(log) == 0 {
		return grid
	}

	header := []string{""}
	if len(grid) > 0 && len(grid[0]) > 0 {
		header = append([]string{}, grid[0]...)
	}
	colOf := make(map[model.ProductKey]int)
	for idx := 1; idx < len(header); idx++ {
		if key, err := model.NewProductKey(header[idx]); err == nil {
			colOf[key] = idx
		}
	}

	counts := make(map[string]map[model.ProductKey]int)
	dates := []string{}
	for i, row := range grid {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		date := row[0]
		// a date appearing twice folds into one row
		day, seen := counts[date]
		if !seen {
			day = make(map[model.ProductKey]int)
			counts[date] = day
			dates = append(dates, date)
		}
		for idx := 1; idx < len(header) && idx < len(row); idx++ {
			key, err := model.NewProductKey(header[idx])
			if err != nil {
				continue
			}
			if v, err := model.ParseIntCell(row[idx]); err == nil && v != 0 {
				day[key] += v
			}
		}
	}

	for _, date := range sortedDates(log) {
		day, ok := counts[date]
		if !ok {
			day = make(map[model.ProductKey]int)
			counts[date] = day
			dates = append(dates, date)
		}
		for _, key := range sortedKeys(log[date]) {
			if _, ok := colOf[key]; !ok {
				header = append(header, key.Label())
				colOf[key] = len(header) - 1
			}
			day[key] += log[date][key]
		}
	}
	sort.Strings(dates)

	merged := make([][]string, 0, len(dates)+1)
	merged = append(merged, header)
	for _, date := range dates {
		row := make([]string, len(header))
		row[0] = date
		for key, v := range counts[date] {
			if col, ok := colOf[key]; ok && v != 0 {
				row[col] = itoa(v)
			}
		}
		merged = append(merged, row)
	}
	return merged
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func sortedKeys(m map[model.ProductKey]int) []model.ProductKey {
	keys := make([]model.ProductKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Float() < keys[j].Float() })
	return keys
}

func sortedDates(log reconcile.SalesLog) []string {
	dates := make([]string, 0, len(log))
	for date := range log {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
