// Package shopify wraps the Shopify Admin REST API with rate-limit backoff,
// static pacing and cursor pagination. The layer is stateless: every call is
// a plain request/response with no caching.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiVersion = "2023-07"

// Client is an Admin API client for a single store.
type Client struct {
	domain     string
	token      string
	baseURL    string
	httpClient *http.Client

	// pace is slept after every successful call to stay under the provider
	// rate limit. retryDelay is the fallback wait on a 429 without a usable
	// Retry-After header.
	pace       time.Duration
	retryDelay time.Duration
	maxRetries int
}

// APIError is a non-2xx, non-429 Admin API response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify API error %d: %s", e.StatusCode, e.Body)
}

// NewClient returns a client with the default pacing policy (2s between
// calls, 60s fallback backoff on rate limiting).
func NewClient(domain, token string) *Client {
	return NewClientWithPacing(domain, token, 2*time.Second, 60*time.Second)
}

// NewClientWithPacing returns a client with a custom pacing policy.
func NewClientWithPacing(domain, token string, pace, retryDelay time.Duration) *Client {
	return &Client{
		domain:     domain,
		token:      token,
		baseURL:    fmt.Sprintf("https://%s/admin/api/%s", domain, apiVersion),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pace:       pace,
		retryDelay: retryDelay,
		maxRetries: 5,
	}
}

// Domain returns the store domain the client talks to.
func (c *Client) Domain() string {
	return c.domain
}

// do performs one Admin API call with a bounded retry loop on 429 responses.
// On success the response body is decoded into out (if non-nil) and the
// rel="next" pagination URL from the Link header is returned.
func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, body, out interface{}) (string, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reqBody io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return "", fmt.Errorf("failed to marshal request body: %w", err)
			}
			reqBody = bytes.NewBuffer(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		if query != nil {
			req.URL.RawQuery = query.Encode()
		}
		req.Header.Set("X-Shopify-Access-Token", c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("request %s %s failed: %w", method, rawURL, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := c.retryDelay
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, parseErr := strconv.ParseFloat(ra, 64); parseErr == nil && secs > 0 {
					wait = time.Duration(secs * float64(time.Second))
				}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			log.Printf("[%s] rate limited (429), waiting %s before retry %d", c.domain, wait, attempt+1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return "", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return "", fmt.Errorf("failed to parse response: %w", err)
			}
		}

		if c.pace > 0 {
			time.Sleep(c.pace)
		}
		return nextPageURL(resp.Header.Get("Link")), nil
	}
	return "", fmt.Errorf("rate limited by %s: gave up after %d retries", c.domain, c.maxRetries)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) (string, error) {
	return c.do(ctx, http.MethodGet, c.baseURL+path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.do(ctx, http.MethodPost, c.baseURL+path, nil, body, out)
	return err
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.do(ctx, http.MethodPut, c.baseURL+path, nil, body, out)
	return err
}

// nextPageURL extracts the rel="next" URL from a Link pagination header.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}
