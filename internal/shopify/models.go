package shopify

// ShippingAddress carries the destination of an order.
type ShippingAddress struct {
	CountryCode string `json:"country_code"`
}

// Property is a single line-item property; bundles declare their members here.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LineItem is one line of an order.
type LineItem struct {
	Title      string     `json:"title"`
	SKU        string     `json:"sku"`
	Quantity   int        `json:"quantity"`
	Properties []Property `json:"properties"`
}

// Order is a storefront order as returned by the Admin API.
type Order struct {
	ID              int64            `json:"id"`
	CreatedAt       string           `json:"created_at"`
	ShippingAddress *ShippingAddress `json:"shipping_address"`
	LineItems       []LineItem       `json:"line_items"`
}

// Variant is a product variant with its stock bookkeeping identifiers.
type Variant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

// Location is a stock location of a store.
type Location struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
	Active  bool   `json:"active"`
}

// InventoryLevel is the available quantity of one inventory item at one location.
type InventoryLevel struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	LocationID      int64 `json:"location_id"`
	Available       int   `json:"available"`
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

type variantsResponse struct {
	Variants []Variant `json:"variants"`
}

type locationsResponse struct {
	Locations []Location `json:"locations"`
}

type inventoryLevelsResponse struct {
	InventoryLevels []InventoryLevel `json:"inventory_levels"`
}
