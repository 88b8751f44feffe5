// Package reconcile applies storefront orders to the in-memory stock
// snapshot and derives the reporting aggregates. Nothing in this package
// touches remote state: the caller persists the returned results.
package reconcile

import (
	"fmt"

	"stocksync/internal/model"
	"stocksync/internal/resolver"
	"stocksync/internal/shopify"
)

// SalesLog accumulates per-day per-product unit counts for one run,
// keyed by ISO date then product key.
type SalesLog map[string]map[model.ProductKey]int

// Add increments the count for one (date, key) cell.
func (l SalesLog) Add(date string, key model.ProductKey, qty int) {
	day, ok := l[date]
	if !ok {
		day = make(map[model.ProductKey]int)
		l[date] = day
	}
	day[key] += qty
}

// Options controls order application for one store.
type Options struct {
	// SegmentCountry is the distinguished destination country whose sales
	// are mirrored into the segmented log (e.g. "US").
	SegmentCountry string
	// StoreDomain namespaces ledger ids when several stores share one ledger.
	StoreDomain string
	// LegacyStore marks the one store whose ids stay unprefixed for
	// compatibility with ids recorded before multi-store support.
	LegacyStore bool
}

// LedgerID returns the durable processed-order token for an order id.
func (o Options) LedgerID(orderID int64) string {
	if o.LegacyStore || o.StoreDomain == "" {
		return fmt.Sprintf("%d", orderID)
	}
	return fmt.Sprintf("%s:%d", o.StoreDomain, orderID)
}

// IsProcessed reports whether an order was applied in an earlier run,
// recognizing both the prefixed and the legacy unprefixed token form.
func (o Options) IsProcessed(already map[string]struct{}, orderID int64) bool {
	if _, ok := already[o.LedgerID(orderID)]; ok {
		return true
	}
	if _, ok := already[fmt.Sprintf("%d", orderID)]; ok {
		return o.LegacyStore || o.StoreDomain == ""
	}
	return false
}

// Result is the outcome of applying a batch of orders.
type Result struct {
	// NewIDs lists the ledger tokens of orders applied by this call, in
	// application order. An order lands here only after every one of its
	// line items has been processed.
	NewIDs       []string
	Sales        SalesLog
	SegmentSales SalesLog
	Warnings     []string
}

// Apply walks orders oldest-first and applies every order not yet in
// already: inventory is decremented, sold incremented and the sales logs
// extended, defaulting unseen keys to 0. The inv and sold maps are updated
// in place. An order with zero resolvable line items is still marked
// processed so it is never refetched into the arithmetic.
func Apply(orders []shopify.Order, inv, sold map[model.ProductKey]int, already map[string]struct{}, opts Options) Result {
	res := Result{
		Sales:        make(SalesLog),
		SegmentSales: make(SalesLog),
	}

	for _, o := range orders {
		if opts.IsProcessed(already, o.ID) {
			continue
		}

		date, err := shopify.OrderDate(o)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("order %d: unparseable created_at %q, skipping", o.ID, o.CreatedAt))
			continue
		}
		inSegment := opts.SegmentCountry != "" && shopify.OrderCountry(o) == opts.SegmentCountry

		for _, item := range o.LineItems {
			if resolver.IsSample(item.Title) {
				continue
			}

			var keys []model.ProductKey
			if resolver.IsBundle(item.Title) {
				values := make([]string, 0, len(item.Properties))
				for _, p := range item.Properties {
					values = append(values, p.Value)
				}
				keys = resolver.ExpandBundle(values)
				if want, ok := resolver.BundleSize(item.Title); ok && want != len(keys) {
					res.Warnings = append(res.Warnings, fmt.Sprintf(
						"order %d: bundle %q declares %d items but %d resolved", o.ID, item.Title, want, len(keys)))
				}
			} else if key, ok := resolver.Resolve(item.Title); ok {
				keys = []model.ProductKey{key}
			}

			for _, key := range keys {
				inv[key] -= item.Quantity
				sold[key] += item.Quantity
				res.Sales.Add(date, key, item.Quantity)
				if inSegment {
					res.SegmentSales.Add(date, key, item.Quantity)
				}
			}
		}

		res.NewIDs = append(res.NewIDs, opts.LedgerID(o.ID))
	}

	return res
}
