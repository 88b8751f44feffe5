package shopify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
)

// FetchVariants returns every product variant of the store, following
// cursor pagination until exhausted.
func (c *Client) FetchVariants(ctx context.Context) ([]Variant, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageLimit))
	query.Set("fields", "id,title,sku,inventory_item_id,inventory_quantity")

	var variants []Variant
	pageURL := c.baseURL + "/variants.json"
	for pageURL != "" {
		var page variantsResponse
		next, err := c.do(ctx, "GET", pageURL, query, nil, &page)
		if err != nil {
			return nil, err
		}
		variants = append(variants, page.Variants...)
		pageURL = next
		query = nil
	}
	return variants, nil
}

// PrimaryLocationID returns the store's primary stock location, falling
// back to the first active location when none is flagged primary.
func (c *Client) PrimaryLocationID(ctx context.Context) (int64, error) {
	var resp locationsResponse
	if _, err := c.get(ctx, "/locations.json", nil, &resp); err != nil {
		return 0, err
	}
	if len(resp.Locations) == 0 {
		return 0, fmt.Errorf("store %s has no locations", c.domain)
	}
	for _, loc := range resp.Locations {
		if loc.Primary {
			return loc.ID, nil
		}
	}
	for _, loc := range resp.Locations {
		if loc.Active {
			return loc.ID, nil
		}
	}
	return resp.Locations[0].ID, nil
}

// InventoryLevel reads the available quantity of one inventory item at one
// location. Returns 0 when the item is not stocked at that location.
func (c *Client) InventoryLevel(ctx context.Context, inventoryItemID, locationID int64) (int, error) {
	query := url.Values{}
	query.Set("inventory_item_ids", strconv.FormatInt(inventoryItemID, 10))
	query.Set("location_ids", strconv.FormatInt(locationID, 10))

	var resp inventoryLevelsResponse
	if _, err := c.do(ctx, "GET", c.baseURL+"/inventory_levels.json", query, nil, &resp); err != nil {
		return 0, err
	}
	if len(resp.InventoryLevels) == 0 {
		return 0, nil
	}
	return resp.InventoryLevels[0].Available, nil
}

// AdjustInventory issues a relative quantity adjustment.
func (c *Client) AdjustInventory(ctx context.Context, inventoryItemID, locationID int64, delta int) error {
	body := map[string]interface{}{
		"inventory_item_id":    inventoryItemID,
		"location_id":          locationID,
		"available_adjustment": delta,
	}
	return c.post(ctx, "/inventory_levels/adjust.json", body, nil)
}

// SetInventory sets the absolute available quantity.
func (c *Client) SetInventory(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	body := map[string]interface{}{
		"inventory_item_id": inventoryItemID,
		"location_id":       locationID,
		"available":         available,
	}
	return c.post(ctx, "/inventory_levels/set.json", body, nil)
}

// ConnectInventory connects an inventory item to a location. An
// already-connected response (422) counts as success.
func (c *Client) ConnectInventory(ctx context.Context, inventoryItemID, locationID int64) error {
	body := map[string]interface{}{
		"inventory_item_id": inventoryItemID,
		"location_id":       locationID,
	}
	err := c.post(ctx, "/inventory_levels/connect.json", body, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
		log.Printf("[%s] inventory item %d already connected to location %d", c.domain, inventoryItemID, locationID)
		return nil
	}
	return err
}

// EnableTracking marks a variant as inventory-tracked so quantity writes
// are accepted for it.
func (c *Client) EnableTracking(ctx context.Context, variantID int64) error {
	body := map[string]interface{}{
		"variant": map[string]interface{}{
			"id":                   variantID,
			"inventory_management": "shopify",
		},
	}
	return c.put(ctx, fmt.Sprintf("/variants/%d.json", variantID), body, nil)
}
