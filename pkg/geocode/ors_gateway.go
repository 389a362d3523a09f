package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ORSGateway implements geocoding via the OpenRouteService Pelias API
type ORSGateway struct {
	baseURL string
	apiKey  string
	size    int
	client  *http.Client
}

// ORSConfig holds configuration for the OpenRouteService geocoder
type ORSConfig struct {
	BaseURL string
	APIKey  string
	Size    int // max candidates per search
	Timeout time.Duration
}

// NewORSGateway creates a new OpenRouteService geocoding client
func NewORSGateway(config ORSConfig) *ORSGateway {
	size := config.Size
	if size <= 0 {
		size = 5
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ORSGateway{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		size:    size,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// featureCollection is the Pelias GeoJSON response shape shared by the
// search and reverse endpoints.
type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			Name  string `json:"name"`
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// Search returns candidates for a typed query via GET /geocode/search.
// Requests are single-shot: a failed lookup is surfaced to the caller, who
// decides whether the user retries.
func (g *ORSGateway) Search(ctx context.Context, query string) ([]Place, error) {
	req, err := g.newRequest(ctx, fmt.Sprintf("%s/geocode/search", g.baseURL))
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("text", query)
	q.Set("size", strconv.Itoa(g.size))
	req.URL.RawQuery = q.Encode()

	var decoded featureCollection
	if err := g.do(req, &decoded); err != nil {
		return nil, fmt.Errorf("geocode search failed: %w", err)
	}

	places := make([]Place, 0, len(decoded.Features))
	for _, f := range decoded.Features {
		if len(f.Geometry.Coordinates) != 2 {
			continue
		}
		places = append(places, Place{
			Name:      f.Properties.Name,
			Label:     f.Properties.Label,
			Longitude: f.Geometry.Coordinates[0],
			Latitude:  f.Geometry.Coordinates[1],
		})
	}

	return places, nil
}

// Reverse names the nearest feature via GET /geocode/reverse. Returns
// ErrNotFound when the point has no named feature around it.
func (g *ORSGateway) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	req, err := g.newRequest(ctx, fmt.Sprintf("%s/geocode/reverse", g.baseURL))
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Set("point.lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("point.lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("size", "1")
	req.URL.RawQuery = q.Encode()

	var decoded featureCollection
	if err := g.do(req, &decoded); err != nil {
		return nil, fmt.Errorf("reverse geocode failed: %w", err)
	}

	if len(decoded.Features) == 0 {
		return nil, ErrNotFound
	}

	f := decoded.Features[0]
	if len(f.Geometry.Coordinates) != 2 {
		return nil, fmt.Errorf("reverse geocode returned malformed coordinates")
	}

	return &Place{
		Name:      f.Properties.Name,
		Label:     f.Properties.Label,
		Longitude: f.Geometry.Coordinates[0],
		Latitude:  f.Geometry.Coordinates[1],
	}, nil
}

func (g *ORSGateway) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}

	req.Header.Set("Authorization", g.apiKey)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (g *ORSGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// GetName returns the name of this geocoding provider
func (g *ORSGateway) GetName() string {
	return "OpenRouteService Geocoder"
}
