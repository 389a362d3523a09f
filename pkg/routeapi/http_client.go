package routeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient implements Client against the platform's REST API
type HTTPClient struct {
	baseURL      string
	serviceToken string
	client       *http.Client
}

// Config holds configuration for the route API client
type Config struct {
	BaseURL      string
	ServiceToken string
	Timeout      time.Duration
}

// NewHTTPClient creates a new route API client
func NewHTTPClient(config Config) *HTTPClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:      config.BaseURL,
		serviceToken: config.ServiceToken,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// apiError is the platform's error response shape
type apiError struct {
	Message string `json:"message"`
}

// CreateRoute persists a new route via POST /api/routes
func (c *HTTPClient) CreateRoute(ctx context.Context, payload RoutePayload) (*Route, error) {
	var route Route
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("%s/api/routes", c.baseURL), payload, &route); err != nil {
		return nil, fmt.Errorf("failed to create route: %w", err)
	}
	return &route, nil
}

// UpdateRoute replaces an existing route via PUT /api/routes/:id
func (c *HTTPClient) UpdateRoute(ctx context.Context, id string, payload RoutePayload) (*Route, error) {
	var route Route
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("%s/api/routes/%s", c.baseURL, id), payload, &route); err != nil {
		return nil, fmt.Errorf("failed to update route %s: %w", id, err)
	}
	return &route, nil
}

// GetRoute fetches an existing route via GET /api/routes/:id
func (c *HTTPClient) GetRoute(ctx context.Context, id string) (*Route, error) {
	var route Route
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("%s/api/routes/%s", c.baseURL, id), nil, &route); err != nil {
		return nil, fmt.Errorf("failed to get route %s: %w", id, err)
	}
	return &route, nil
}

func (c *HTTPClient) send(ctx context.Context, method, url string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.serviceToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceToken))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrRouteNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("platform rejected request (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// GetName returns the name of this client
func (c *HTTPClient) GetName() string {
	return "Platform Route API"
}
