package shopify

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"time"
)

const pageLimit = 250

// FetchOrders returns every order created at or after createdAtMin,
// following cursor pagination until exhausted.
func (c *Client) FetchOrders(ctx context.Context, createdAtMin time.Time) ([]Order, error) {
	query := url.Values{}
	query.Set("created_at_min", createdAtMin.Format(time.RFC3339))
	query.Set("status", "any")
	query.Set("limit", strconv.Itoa(pageLimit))

	var orders []Order
	pageURL := c.baseURL + "/orders.json"
	for pageURL != "" {
		var page ordersResponse
		next, err := c.do(ctx, "GET", pageURL, query, nil, &page)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page.Orders...)
		pageURL = next
		query = nil // the next-page URL already carries the cursor
	}
	log.Printf("[%s] fetched %d orders", c.domain, len(orders))
	return orders, nil
}

// OrderDate returns the UTC calendar date an order was created on.
func OrderDate(o Order) (string, error) {
	t, err := time.Parse(time.RFC3339, o.CreatedAt)
	if err != nil {
		return "", err
	}
	return t.UTC().Format("2006-01-02"), nil
}

// OrderCountry returns the shipping destination country code, or "" when
// the order carries no shipping address.
func OrderCountry(o Order) string {
	if o.ShippingAddress == nil {
		return ""
	}
	return o.ShippingAddress.CountryCode
}
