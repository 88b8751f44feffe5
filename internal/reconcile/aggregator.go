package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"stocksync/internal/model"
)

const windowDays = 7

// ComputeAverages recomputes the trailing 7-calendar-day per-day sales
// average per product from a dated sales table (row 0 = product key
// headers, column 0 = ISO dates). Days without a row contribute 0; cells
// that do not parse are skipped. The result is total and stateless: no
// previously written average is read or trusted.
func ComputeAverages(table [][]string, today time.Time) map[model.ProductKey]float64 {
	if len(table) < 2 {
		return nil
	}

	day := today.UTC().Truncate(24 * time.Hour)
	window := make(map[string]struct{}, windowDays)
	for i := 0; i < windowDays; i++ {
		window[day.AddDate(0, 0, -i).Format("2006-01-02")] = struct{}{}
	}

	headers := table[0]
	sums := make(map[model.ProductKey]int)
	for _, row := range table[1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		if _, ok := window[row[0]]; !ok {
			continue
		}
		for idx := 1; idx < len(headers) && idx < len(row); idx++ {
			key, err := model.NewProductKey(headers[idx])
			if err != nil {
				continue
			}
			qty, err := model.ParseIntCell(row[idx])
			if err != nil {
				continue
			}
			sums[key] += qty
		}
	}

	if len(sums) == 0 {
		return nil
	}

	averages := make(map[model.ProductKey]float64, len(sums))
	seven := decimal.NewFromInt(windowDays)
	for key, total := range sums {
		avg, _ := decimal.NewFromInt(int64(total)).Div(seven).Round(2).Float64()
		averages[key] = avg
	}
	return averages
}
