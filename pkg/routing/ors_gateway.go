package routing

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

// ORSGateway implements route computation via the OpenRouteService
// directions API
type ORSGateway struct {
	baseURL string
	apiKey  string
	profile string
	client  *http.Client
}

// ORSConfig holds configuration for the OpenRouteService directions client
type ORSConfig struct {
	BaseURL string
	APIKey  string
	Profile string // e.g. driving-car, driving-hgv
	Timeout time.Duration
}

// NewORSGateway creates a new OpenRouteService directions client
func NewORSGateway(config ORSConfig) *ORSGateway {
	profile := config.Profile
	if profile == "" {
		profile = "driving-car"
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ORSGateway{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		profile: profile,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// directionsRequest is the ORS request body. Coordinates are [lon, lat].
type directionsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
}

// directionsResponse is the ORS GeoJSON response. The provider reports its
// own failures in the error field, sometimes alongside a 200 status, so the
// field is checked before the features are trusted.
type directionsResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
			Segments []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

// ComputeRoute requests directions through the given waypoints via
// POST /v2/directions/{profile}/geojson. Single attempt, no retries.
func (g *ORSGateway) ComputeRoute(ctx context.Context, points []Point) (*Route, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("route computation requires at least 2 points, got %d", len(points))
	}

	coords := make([][2]float64, len(points))
	for i, p := range points {
		coords[i] = [2]float64{p.Longitude, p.Latitude}
	}

	jsonData, err := json.Marshal(directionsRequest{Coordinates: coords})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal directions request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s/geojson", g.baseURL, g.profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create directions request: %w", err)
	}

	req.Header.Set("Authorization", g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read directions response: %w", err)
	}

	var decoded directionsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to parse directions response: %w", err)
	}

	// An error object wins over the HTTP status in either direction.
	if decoded.Error != nil {
		return nil, &RouteError{Code: decoded.Error.Code, Message: decoded.Error.Message}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if len(decoded.Features) == 0 {
		return nil, &RouteError{Message: "no route found between the given points"}
	}

	f := decoded.Features[0]

	route := &Route{
		DistanceMeters:  f.Properties.Summary.Distance,
		DurationSeconds: f.Properties.Summary.Duration,
		Legs:            make([]Leg, 0, len(f.Properties.Segments)),
		Geometry:        make([]Point, 0, len(f.Geometry.Coordinates)),
	}

	for _, s := range f.Properties.Segments {
		route.Legs = append(route.Legs, Leg{
			DistanceMeters:  s.Distance,
			DurationSeconds: s.Duration,
		})
	}

	for _, c := range f.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		route.Geometry = append(route.Geometry, Point{Longitude: c[0], Latitude: c[1]})
	}

	if len(route.Legs) != len(points)-1 {
		return nil, fmt.Errorf("directions response has %d segments for %d points", len(route.Legs), len(points))
	}

	return route, nil
}

// GetName returns the name of this routing provider
func (g *ORSGateway) GetName() string {
	return fmt.Sprintf("OpenRouteService Directions (%s)", g.profile)
}
