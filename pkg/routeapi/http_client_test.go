package routeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CreateRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/routes", r.URL.Path)
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))

		var payload RoutePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Colombo - Kandy Express", payload.Name)
		require.Len(t, payload.Stops, 2)
		assert.Equal(t, 0, payload.Stops[0].Order)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"_id": "66b2f1a9c0ffee0012345678",
			"name": "Colombo - Kandy Express",
			"price": 1250,
			"distance": 115000,
			"duration": 9300,
			"stops": [
				{"name": "Colombo Fort", "latitude": 6.9344, "longitude": 79.8428, "order": 0},
				{"name": "Kandy", "latitude": 7.2906, "longitude": 80.6337, "order": 1}
			]
		}`))
	}))
	defer server.Close()

	client := NewHTTPClient(Config{BaseURL: server.URL, ServiceToken: "svc-token"})

	route, err := client.CreateRoute(context.Background(), RoutePayload{
		Name:     "Colombo - Kandy Express",
		Price:    1250,
		Distance: 115000,
		Duration: 9300,
		Stops: []RouteStop{
			{Name: "Colombo Fort", Latitude: 6.9344, Longitude: 79.8428, Order: 0},
			{Name: "Kandy", Latitude: 7.2906, Longitude: 80.6337, Order: 1},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "66b2f1a9c0ffee0012345678", route.ID)
	assert.Equal(t, "Colombo - Kandy Express", route.Name)
	require.Len(t, route.Stops, 2)
}

func TestHTTPClient_UpdateRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/routes/abc123", r.URL.Path)
		w.Write([]byte(`{"_id": "abc123", "name": "Updated"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(Config{BaseURL: server.URL})

	route, err := client.UpdateRoute(context.Background(), "abc123", RoutePayload{Name: "Updated"})

	require.NoError(t, err)
	assert.Equal(t, "abc123", route.ID)
}

func TestHTTPClient_GetRoute_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Route not found"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(Config{BaseURL: server.URL})

	_, err := client.GetRoute(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestHTTPClient_CreateRoute_PlatformError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "A route with this name already exists"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(Config{BaseURL: server.URL})

	_, err := client.CreateRoute(context.Background(), RoutePayload{Name: "Duplicate"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "A route with this name already exists")
}
