package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksync/internal/model"
	"stocksync/internal/shopify"
)

func order(id int64, createdAt, country string, items ...shopify.LineItem) shopify.Order {
	o := shopify.Order{ID: id, CreatedAt: createdAt, LineItems: items}
	if country != "" {
		o.ShippingAddress = &shopify.ShippingAddress{CountryCode: country}
	}
	return o
}

func TestApply(t *testing.T) {
	t.Run("decrements stock and extends the logs", func(t *testing.T) {
		inv := map[model.ProductKey]int{"149": 10}
		sold := map[model.ProductKey]int{"149": 3}
		orders := []shopify.Order{
			order(1, "2025-07-10T09:00:00Z", "SE",
				shopify.LineItem{Title: "Parfym 149", Quantity: 2}),
		}

		res := Apply(orders, inv, sold, map[string]struct{}{}, Options{SegmentCountry: "US"})

		assert.Equal(t, []string{"1"}, res.NewIDs)
		assert.Equal(t, 8, inv["149"])
		assert.Equal(t, 5, sold["149"])
		assert.Equal(t, 2, res.Sales["2025-07-10"]["149"])
		assert.Empty(t, res.SegmentSales)
		assert.Empty(t, res.Warnings)
	})

	t.Run("unseen key defaults to zero stock", func(t *testing.T) {
		inv := map[model.ProductKey]int{}
		sold := map[model.ProductKey]int{}
		orders := []shopify.Order{
			order(2, "2025-07-10T09:00:00Z", "",
				shopify.LineItem{Title: "Parfym 77", Quantity: 1}),
		}

		Apply(orders, inv, sold, map[string]struct{}{}, Options{})

		assert.Equal(t, -1, inv["77"])
		assert.Equal(t, 1, sold["77"])
	})

	t.Run("applying twice changes nothing", func(t *testing.T) {
		inv := map[model.ProductKey]int{"149": 10}
		sold := map[model.ProductKey]int{}
		already := map[string]struct{}{}
		orders := []shopify.Order{
			order(3, "2025-07-10T09:00:00Z", "",
				shopify.LineItem{Title: "Parfym 149", Quantity: 2}),
		}

		first := Apply(orders, inv, sold, already, Options{})
		for _, id := range first.NewIDs {
			already[id] = struct{}{}
		}
		second := Apply(orders, inv, sold, already, Options{})

		assert.Empty(t, second.NewIDs)
		assert.Equal(t, 8, inv["149"])
		assert.Equal(t, 2, sold["149"])
	})

	t.Run("samples are skipped but the order is marked processed", func(t *testing.T) {
		inv := map[model.ProductKey]int{"22": 5}
		orders := []shopify.Order{
			order(4, "2025-07-10T09:00:00Z", "",
				shopify.LineItem{Title: "Sample 22", Quantity: 1}),
		}

		res := Apply(orders, inv, map[model.ProductKey]int{}, map[string]struct{}{}, Options{})

		assert.Equal(t, []string{"4"}, res.NewIDs)
		assert.Equal(t, 5, inv["22"])
	})

	t.Run("order with no resolvable lines is still marked processed", func(t *testing.T) {
		res := Apply(
			[]shopify.Order{order(5, "2025-07-10T09:00:00Z", "",
				shopify.LineItem{Title: "Presentkort", Quantity: 1})},
			map[model.ProductKey]int{}, map[model.ProductKey]int{},
			map[string]struct{}{}, Options{})

		assert.Equal(t, []string{"5"}, res.NewIDs)
		assert.Empty(t, res.Sales)
	})

	t.Run("bundle expands into member keys", func(t *testing.T) {
		inv := map[model.ProductKey]int{"12": 10, "34": 10}
		orders := []shopify.Order{
			order(6, "2025-07-10T09:00:00Z", "",
				shopify.LineItem{
					Title:    "Fragrance Bundle 2x",
					Quantity: 1,
					Properties: []shopify.Property{
						{Name: "Doft 1", Value: "Parfym 12"},
						{Name: "Doft 2", Value: "Parfym 34"},
					},
				}),
		}

		res := Apply(orders, inv, map[model.ProductKey]int{}, map[string]struct{}{}, Options{})

		assert.Equal(t, 9, inv["12"])
		assert.Equal(t, 9, inv["34"])
		assert.Empty(t, res.Warnings)
	})

	t.Run("bundle member mismatch warns but applies what resolved", func(t *testing.T) {
		inv := map[model.ProductKey]int{"12": 10, "34": 10}
		orders := []shopify.Order{
			order(7, "2025-07-10T09:00:00Z", "",
				shopify.LineItem{
					Title:    "Fragrance Bundle 3x",
					Quantity: 1,
					Properties: []shopify.Property{
						{Name: "Doft 1", Value: "Parfym 12"},
						{Name: "Doft 2", Value: "Parfym 34"},
						{Name: "Doft 3", Value: "valfri"},
					},
				}),
		}

		res := Apply(orders, inv, map[model.ProductKey]int{}, map[string]struct{}{}, Options{})

		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "declares 3 items but 2 resolved")
		assert.Equal(t, 9, inv["12"])
		assert.Equal(t, 9, inv["34"])
		assert.Equal(t, []string{"7"}, res.NewIDs)
	})

	t.Run("unparseable created_at skips the order without marking it", func(t *testing.T) {
		inv := map[model.ProductKey]int{"149": 10}
		orders := []shopify.Order{
			order(8, "inte ett datum", "",
				shopify.LineItem{Title: "Parfym 149", Quantity: 1}),
		}

		res := Apply(orders, inv, map[model.ProductKey]int{}, map[string]struct{}{}, Options{})

		assert.Empty(t, res.NewIDs)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "unparseable created_at")
		assert.Equal(t, 10, inv["149"])
	})

	t.Run("segment country sales are mirrored", func(t *testing.T) {
		orders := []shopify.Order{
			order(9, "2025-07-10T09:00:00Z", "US",
				shopify.LineItem{Title: "Parfym 149", Quantity: 2}),
			order(10, "2025-07-10T10:00:00Z", "SE",
				shopify.LineItem{Title: "Parfym 149", Quantity: 1}),
		}

		res := Apply(orders, map[model.ProductKey]int{}, map[model.ProductKey]int{},
			map[string]struct{}{}, Options{SegmentCountry: "US"})

		assert.Equal(t, 3, res.Sales["2025-07-10"]["149"])
		assert.Equal(t, 2, res.SegmentSales["2025-07-10"]["149"])
	})
}

func TestOptionsLedgerID(t *testing.T) {
	legacy := Options{StoreDomain: "one.myshopify.com", LegacyStore: true}
	assert.Equal(t, "42", legacy.LedgerID(42))

	prefixed := Options{StoreDomain: "two.myshopify.com"}
	assert.Equal(t, "two.myshopify.com:42", prefixed.LedgerID(42))
}

func TestOptionsIsProcessed(t *testing.T) {
	already := map[string]struct{}{
		"42":                      {},
		"two.myshopify.com:7":     {},
		"other.myshopify.com:100": {},
	}

	legacy := Options{StoreDomain: "one.myshopify.com", LegacyStore: true}
	assert.True(t, legacy.IsProcessed(already, 42))
	assert.False(t, legacy.IsProcessed(already, 7))

	prefixed := Options{StoreDomain: "two.myshopify.com"}
	assert.True(t, prefixed.IsProcessed(already, 7))
	// a bare id from another store never counts for a prefixed store
	assert.False(t, prefixed.IsProcessed(already, 42))
	assert.False(t, prefixed.IsProcessed(already, 100))
}

func TestSalesLogAdd(t *testing.T) {
	log := make(SalesLog)
	log.Add("2025-07-10", "149", 2)
	log.Add("2025-07-10", "149", 1)
	log.Add("2025-07-11", "22.5", 4)

	assert.Equal(t, 3, log["2025-07-10"]["149"])
	assert.Equal(t, 4, log["2025-07-11"]["22.5"])
}
