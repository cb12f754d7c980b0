// Package machine implements the HTTP client for the vending machine
// backend API: inventory and preset reads plus order create/status calls.
// The kiosk core consumes it as a plain request/response interface and
// knows nothing about the backend's transport or auth.
package machine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/urban-harvest/kiosk/internal/domain"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrNotFound indicates the requested resource does not exist on the backend.
	ErrNotFound = errors.New("machine api: not found")
	// ErrInvalidInput signals a malformed argument before any request is issued.
	ErrInvalidInput = errors.New("machine api: invalid input")
)

// StatusError reports a non-2xx backend response that is not a plain 404.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("machine api: %s %s: status %d", e.Method, e.Path, e.Status)
}

// Logger is the logging contract for client operations.
type Logger func(ctx context.Context, event string, fields map[string]any)

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     Logger
}

// Client talks to the machine backend API under /api/v1.
type Client struct {
	baseURL string
	http    *http.Client
	logger  Logger
}

// NewClient validates the configuration and constructs a Client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("machine client: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("machine client: invalid base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &Client{baseURL: base, http: httpClient, logger: logger}, nil
}

// Inventory fetches the full inventory snapshot for a machine.
func (c *Client) Inventory(ctx context.Context, machineID string) (domain.MachineInventory, error) {
	machineID = strings.TrimSpace(machineID)
	if machineID == "" {
		return domain.MachineInventory{}, fmt.Errorf("%w: machine id is required", ErrInvalidInput)
	}

	var inv domain.MachineInventory
	path := fmt.Sprintf("/api/v1/machines/%s/inventory", url.PathEscape(machineID))
	if err := c.do(ctx, http.MethodGet, path, nil, &inv); err != nil {
		return domain.MachineInventory{}, err
	}
	return inv, nil
}

// Presets lists the preset recipes available on a machine, optionally
// filtered by category.
func (c *Client) Presets(ctx context.Context, machineID, category string) ([]domain.PresetSummary, error) {
	machineID = strings.TrimSpace(machineID)
	if machineID == "" {
		return nil, fmt.Errorf("%w: machine id is required", ErrInvalidInput)
	}

	path := fmt.Sprintf("/api/v1/machines/%s/presets", url.PathEscape(machineID))
	if category = strings.TrimSpace(category); category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var payload struct {
		Presets []domain.PresetSummary `json:"presets"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Presets, nil
}

// PresetDetails fetches the full ingredient composition of a preset.
func (c *Client) PresetDetails(ctx context.Context, presetID string) (domain.PresetDetails, error) {
	presetID = strings.TrimSpace(presetID)
	if presetID == "" {
		return domain.PresetDetails{}, fmt.Errorf("%w: preset id is required", ErrInvalidInput)
	}

	var details domain.PresetDetails
	path := fmt.Sprintf("/api/v1/presets/%s", url.PathEscape(presetID))
	if err := c.do(ctx, http.MethodGet, path, nil, &details); err != nil {
		return domain.PresetDetails{}, err
	}
	return details, nil
}

// CreateOrder submits an order draft and returns the backend's view of it.
func (c *Client) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	if strings.TrimSpace(draft.ID) == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", draft, &order); err != nil {
		return domain.Order{}, err
	}
	c.logger(ctx, "order_created", map[string]any{"orderId": order.ID, "status": order.Status})
	return order, nil
}

// UpdateOrderStatus transitions an order on the backend and returns the
// updated order.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	body := struct {
		Status domain.OrderStatus `json:"status"`
	}{Status: status}

	var order domain.Order
	path := fmt.Sprintf("/api/v1/orders/%s/status", url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodPut, path, body, &order); err != nil {
		return domain.Order{}, err
	}
	c.logger(ctx, "order_status_updated", map[string]any{"orderId": orderID, "status": status})
	return order, nil
}

// Order fetches the current backend state of an order.
func (c *Client) Order(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}

	var order domain.Order
	path := fmt.Sprintf("/api/v1/orders/%s", url.PathEscape(orderID))
	if err := c.do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("machine api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("machine api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("machine api: %s %s: %w", method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("machine api: decode %s %s: %w", method, path, err)
	}
	return nil
}
