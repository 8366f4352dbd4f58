package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ahadu-market/ordersync/internal/orders"
)

// Client is a typed HTTP client for the storefront order API. Every list
// endpoint shares one response schema ({orders, total}) which is decoded and
// checked here, at the boundary, instead of shape-probing at call sites.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ordersResponse is the shared list-response shape.
type ordersResponse struct {
	Orders []orders.Order `json:"orders"`
	Total  int            `json:"total"`
}

// orderResponse wraps a single order, as returned by the status endpoint.
type orderResponse struct {
	Order orders.Order `json:"order"`
}

// NewClient returns a client for the API at baseURL. A nil httpClient gets a
// default with a 15s timeout; any per-request deadline policy beyond that
// belongs to the caller's context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// LookupOrders hits the primary exact-match lookup endpoint.
func (c *Client) LookupOrders(ctx context.Context, email string) ([]orders.Order, error) {
	return c.listOrders(ctx, "/lookup-orders", url.Values{"email": {email}})
}

// DirectLookupOrders hits the exhaustive-match lookup endpoint used when the
// primary path misses records due to legacy data inconsistency.
func (c *Client) DirectLookupOrders(ctx context.Context, email string) ([]orders.Order, error) {
	return c.listOrders(ctx, "/direct-lookup-orders", url.Values{"email": {email}})
}

// ListAllOrders fetches the role-scoped full order listing. Callers filter
// the result themselves.
func (c *Client) ListAllOrders(ctx context.Context) ([]orders.Order, error) {
	return c.listOrders(ctx, "/orders/all", nil)
}

// ListUserOrders hits the standard per-user listing endpoint.
func (c *Client) ListUserOrders(ctx context.Context, email string) ([]orders.Order, error) {
	return c.listOrders(ctx, "/orders/user", url.Values{"email": {email}})
}

func (c *Client) listOrders(ctx context.Context, path string, query url.Values) ([]orders.Order, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}

	var out ordersResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// UpdateOrderStatus requests a status change and returns the backend's
// authoritative record, which may normalize more fields than just status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) (orders.Order, error) {
	body, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return orders.Order{}, fmt.Errorf("marshal status body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/orders/%s/status", c.baseURL, url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return orders.Order{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out orderResponse
	if err := c.do(req, &out); err != nil {
		return orders.Order{}, err
	}
	return out.Order, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little of the body for the error message, ignore the rest
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
