package sheets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Client moves grids between the engine and one spreadsheet. Every call is
// paced and retried on rate limiting, mirroring the remote-access policy of
// the storefront client.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	pace          time.Duration
	retryDelay    time.Duration
	maxRetries    int
}

// NewClient builds a client from service-account credentials JSON.
func NewClient(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*Client, error) {
	svc, err := sheetsapi.NewService(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		pace:          2 * time.Second,
		retryDelay:    60 * time.Second,
		maxRetries:    5,
	}, nil
}

// withBackoff runs one remote call, waiting out 429 responses in a bounded
// loop and pausing after success to stay under the provider rate limit.
func (c *Client) withBackoff(ctx context.Context, call func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := call()
		if err == nil {
			if c.pace > 0 {
				time.Sleep(c.pace)
			}
			return nil
		}
		var apiErr *googleapi.Error
		if !errors.As(err, &apiErr) || apiErr.Code != http.StatusTooManyRequests {
			return err
		}
		lastErr = err
		log.Printf("[sheets] rate limited (429), waiting %s before retry %d", c.retryDelay, attempt+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return fmt.Errorf("sheets rate limited: gave up after %d retries: %w", c.maxRetries, lastErr)
}

// ReadGrid fetches a whole sheet as a string grid.
func (c *Client) ReadGrid(ctx context.Context, sheetName string) ([][]string, error) {
	var values *sheetsapi.ValueRange
	err := c.withBackoff(ctx, func() error {
		var err error
		values, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetName).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}

	grid := make([][]string, 0, len(values.Values))
	for _, row := range values.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// WriteGrid replaces a sheet's contents with the given grid.
func (c *Client) WriteGrid(ctx context.Context, sheetName string, grid [][]string) error {
	values := make([][]interface{}, 0, len(grid))
	for _, row := range grid {
		cells := make([]interface{}, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}
	body := &sheetsapi.ValueRange{Values: values}
	err := c.withBackoff(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheetName, body).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write sheet %q: %w", sheetName, err)
	}
	return nil
}

// UpdateCells applies planned single-cell writes in one batched call.
func (c *Client) UpdateCells(ctx context.Context, sheetName string, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]*sheetsapi.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheetsapi.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", sheetName, columnName(u.Col), u.Row),
			Values: [][]interface{}{{u.Value}},
		})
	}
	body := &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	err := c.withBackoff(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, body).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update %d cells in %q: %w", len(updates), sheetName, err)
	}
	return nil
}

// AppendRows appends rows after the sheet's current data region.
func (c *Client) AppendRows(ctx context.Context, sheetName string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	body := &sheetsapi.ValueRange{Values: rows}
	err := c.withBackoff(ctx, func() error {
		_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheetName, body).
			ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to append %d rows to %q: %w", len(rows), sheetName, err)
	}
	return nil
}

// columnName converts a 1-based column index to its A1 letter form.
func columnName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}
