// Package syncer keeps a secondary storefront's stock equal to the master
// storefront's. Both stores sell from one physical inventory: the master is
// the source of truth and the secondary is corrected to match it with a
// diff-then-apply strategy, so an in-sync SKU costs zero write calls.
package syncer

import (
	"context"
	"fmt"
	"log"

	"stocksync/internal/model"
	"stocksync/internal/resolver"
	"stocksync/internal/shopify"
)

// StoreAPI is the slice of the storefront client the synchronizer needs.
type StoreAPI interface {
	Domain() string
	FetchVariants(ctx context.Context) ([]shopify.Variant, error)
	PrimaryLocationID(ctx context.Context) (int64, error)
	InventoryLevel(ctx context.Context, inventoryItemID, locationID int64) (int, error)
	AdjustInventory(ctx context.Context, inventoryItemID, locationID int64, delta int) error
	SetInventory(ctx context.Context, inventoryItemID, locationID int64, available int) error
	ConnectInventory(ctx context.Context, inventoryItemID, locationID int64) error
	EnableTracking(ctx context.Context, variantID int64) error
}

// Stats summarizes one synchronization pass.
type Stats struct {
	Checked   int `json:"checked"`
	Adjusted  int `json:"adjusted"`
	InSync    int `json:"in_sync"`
	Skipped   int `json:"skipped"`
	Fallbacks int `json:"fallbacks"`
}

// Syncer reconciles stock between a master and a secondary store.
type Syncer struct {
	master    StoreAPI
	secondary StoreAPI

	// per-process bootstrap memo: variants already known tracked and
	// inventory items already known connected this run.
	tracked   map[int64]bool
	connected map[int64]bool

	masterLocation    int64
	secondaryLocation int64

	// master catalog indexes, built lazily once per run.
	masterBySKU map[string]shopify.Variant
	masterByKey map[model.ProductKey]shopify.Variant
}

// New returns a synchronizer over the two stores. A non-zero masterLocation
// pins the master store's stock location; 0 resolves its primary location.
func New(master, secondary StoreAPI, masterLocation int64) *Syncer {
	return &Syncer{
		master:         master,
		secondary:      secondary,
		masterLocation: masterLocation,
		tracked:        make(map[int64]bool),
		connected:      make(map[int64]bool),
	}
}

func (s *Syncer) masterIndex(ctx context.Context) (map[string]shopify.Variant, map[model.ProductKey]shopify.Variant, error) {
	if s.masterBySKU != nil {
		return s.masterBySKU, s.masterByKey, nil
	}
	variants, err := s.master.FetchVariants(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list master variants: %w", err)
	}
	s.masterBySKU = make(map[string]shopify.Variant, len(variants))
	s.masterByKey = make(map[model.ProductKey]shopify.Variant, len(variants))
	for _, v := range variants {
		if v.SKU != "" {
			s.masterBySKU[v.SKU] = v
		}
		text := v.SKU
		if text == "" {
			text = v.Title
		}
		if key, ok := resolver.Resolve(text); ok {
			if _, dup := s.masterByKey[key]; !dup {
				s.masterByKey[key] = v
			}
		}
	}
	return s.masterBySKU, s.masterByKey, nil
}

func (s *Syncer) locations(ctx context.Context) (masterLoc, secondaryLoc int64, err error) {
	if s.masterLocation == 0 {
		if s.masterLocation, err = s.master.PrimaryLocationID(ctx); err != nil {
			return 0, 0, fmt.Errorf("failed to resolve master location: %w", err)
		}
	}
	if s.secondaryLocation == 0 {
		if s.secondaryLocation, err = s.secondary.PrimaryLocationID(ctx); err != nil {
			return 0, 0, fmt.Errorf("failed to resolve secondary location: %w", err)
		}
	}
	return s.masterLocation, s.secondaryLocation, nil
}

// SyncAll walks the master catalog SKU by SKU and corrects the secondary
// store's available quantity wherever it drifted from the master's.
func (s *Syncer) SyncAll(ctx context.Context) (Stats, error) {
	var stats Stats

	masterBySKU, _, err := s.masterIndex(ctx)
	if err != nil {
		return stats, err
	}
	secondaryVariants, err := s.secondary.FetchVariants(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list secondary variants: %w", err)
	}
	secondaryBySKU := make(map[string]shopify.Variant, len(secondaryVariants))
	for _, v := range secondaryVariants {
		if v.SKU != "" {
			secondaryBySKU[v.SKU] = v
		}
	}

	if _, _, err := s.locations(ctx); err != nil {
		return stats, err
	}

	for sku, masterVariant := range masterBySKU {
		secondaryVariant, ok := secondaryBySKU[sku]
		if !ok {
			// SKU not in the secondary catalog: nothing to correct.
			stats.Skipped++
			continue
		}
		stats.Checked++
		if err := s.syncSKU(ctx, sku, masterVariant, secondaryVariant, &stats); err != nil {
			return stats, err
		}
	}
	log.Printf("[sync] %d SKUs checked, %d adjusted, %d in sync, %d skipped, %d fallbacks",
		stats.Checked, stats.Adjusted, stats.InSync, stats.Skipped, stats.Fallbacks)
	return stats, nil
}

func (s *Syncer) syncSKU(ctx context.Context, sku string, masterVariant, secondaryVariant shopify.Variant, stats *Stats) error {
	secondaryQty, err := s.secondary.InventoryLevel(ctx, secondaryVariant.InventoryItemID, s.secondaryLocation)
	if err != nil {
		return fmt.Errorf("failed to read secondary level for %q: %w", sku, err)
	}

	delta := masterVariant.InventoryQuantity - secondaryQty
	if delta == 0 {
		stats.InSync++
		return nil
	}

	if err := s.bootstrap(ctx, secondaryVariant); err != nil {
		return err
	}

	if err := s.secondary.AdjustInventory(ctx, secondaryVariant.InventoryItemID, s.secondaryLocation, delta); err != nil {
		log.Printf("[sync] adjust of %+d failed for %q, falling back to absolute set %d: %v",
			delta, sku, masterVariant.InventoryQuantity, err)
		if err := s.secondary.SetInventory(ctx, secondaryVariant.InventoryItemID, s.secondaryLocation, masterVariant.InventoryQuantity); err != nil {
			return fmt.Errorf("failed to set secondary level for %q: %w", sku, err)
		}
		stats.Fallbacks++
	}
	stats.Adjusted++
	log.Printf("[sync] %q: master %d, secondary %d, applied %+d", sku, masterVariant.InventoryQuantity, secondaryQty, delta)
	return nil
}

// bootstrap makes the secondary variant writable: inventory tracking on and
// the location connected to the inventory item. Both operations are
// idempotent and memoized for the run.
func (s *Syncer) bootstrap(ctx context.Context, v shopify.Variant) error {
	if !s.tracked[v.ID] {
		if err := s.secondary.EnableTracking(ctx, v.ID); err != nil {
			return fmt.Errorf("failed to enable tracking for variant %d: %w", v.ID, err)
		}
		s.tracked[v.ID] = true
	}
	if !s.connected[v.InventoryItemID] {
		if err := s.secondary.ConnectInventory(ctx, v.InventoryItemID, s.secondaryLocation); err != nil {
			return fmt.Errorf("failed to connect inventory item %d: %w", v.InventoryItemID, err)
		}
		s.connected[v.InventoryItemID] = true
	}
	return nil
}

// ApplySecondaryOrder subtracts a secondary-store order from the master
// store's stock: the secondary sells from shared inventory, so each of its
// line items is an immediate relative adjustment against the master
// inventory item. Line items that match nothing in the master catalog are
// reported back as warnings.
func (s *Syncer) ApplySecondaryOrder(ctx context.Context, order shopify.Order) ([]string, error) {
	bySKU, byKey, err := s.masterIndex(ctx)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.locations(ctx); err != nil {
		return nil, err
	}

	var warnings []string
	for _, item := range order.LineItems {
		if resolver.IsSample(item.Title) {
			continue
		}
		variant, ok := bySKU[item.SKU]
		if !ok {
			if key, resolved := resolver.Resolve(item.Title); resolved {
				variant, ok = byKey[key]
			}
		}
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"order %d: no master variant for SKU %q (title %q)", order.ID, item.SKU, item.Title))
			continue
		}
		if err := s.master.AdjustInventory(ctx, variant.InventoryItemID, s.masterLocation, -item.Quantity); err != nil {
			return warnings, fmt.Errorf("failed to adjust master stock for %q: %w", item.SKU, err)
		}
		s.noteMasterAdjustment(variant, -item.Quantity)
	}
	return warnings, nil
}

// noteMasterAdjustment folds a master stock write into the cached catalog
// index, so a later diff pass within the same run compares the secondary
// against the master's current quantity, not the one fetched before the write.
func (s *Syncer) noteMasterAdjustment(v shopify.Variant, delta int) {
	v.InventoryQuantity += delta
	if cur, ok := s.masterBySKU[v.SKU]; ok && cur.ID == v.ID {
		s.masterBySKU[v.SKU] = v
	}
	for key, cur := range s.masterByKey {
		if cur.ID == v.ID {
			s.masterByKey[key] = v
		}
	}
}
