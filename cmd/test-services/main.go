package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/config"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/database"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/services"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/geocode"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/jwt"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routing"
)

func main() {
	fmt.Println("🧪 Route Editor Services Integration Test")
	fmt.Println()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Database connected")
	fmt.Println("✅ Configuration loaded")
	fmt.Println()

	// Test 1: JWT Service
	testJWTService(cfg)

	// Test 2: Geocoding gateway (live call to the provider)
	testGeocoder(cfg)

	// Test 3: Routing gateway (live call to the provider)
	testPlanner(cfg)

	// Test 4: Stop catalog
	testCatalog(db)

	fmt.Println("✅ All integration tests completed")
}

func testJWTService(cfg *config.Config) {
	fmt.Println("🔐 Testing JWT Service")
	fmt.Println("----------------------")

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	userID := uuid.New()
	email := "planner@busticket.lk"
	roles := []string{"planner"}

	// Generate access token
	accessToken, err := jwtService.GenerateAccessToken(userID, email, roles)
	if err != nil {
		fmt.Printf("  ❌ Failed to generate access token: %v\n", err)
		return
	}
	fmt.Printf("  ✅ Access token generated (%d chars)\n", len(accessToken))

	// Validate access token
	claims, err := jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		fmt.Printf("  ❌ Failed to validate access token: %v\n", err)
		return
	}
	fmt.Printf("  ✅ Access token validated\n")
	fmt.Printf("     - User ID: %s\n", claims.UserID)
	fmt.Printf("     - Email: %s\n", claims.Email)
	fmt.Printf("     - Roles: %v\n", claims.Roles)
	fmt.Printf("     - Expires: %s\n", claims.ExpiresAt.Time.Format("2006-01-02 15:04:05"))

	// Test token expiry checking
	isExpired := jwtService.IsTokenExpired(accessToken)
	fmt.Printf("  ✅ Token expiry check: Expired = %v\n", isExpired)

	fmt.Println("\n  Result: JWT service working correctly")
	fmt.Println()
}

func testGeocoder(cfg *config.Config) {
	fmt.Println("🌍 Testing Geocoding Gateway")
	fmt.Println("----------------------------")

	geocoder := geocode.NewORSGateway(geocode.ORSConfig{
		BaseURL: cfg.Geocoding.BaseURL,
		APIKey:  cfg.Geocoding.APIKey,
		Size:    cfg.Editor.MaxCandidates,
		Timeout: cfg.Geocoding.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Forward search
	places, err := geocoder.Search(ctx, "Colombo Fort")
	if err != nil {
		fmt.Printf("  ❌ Search failed: %v\n", err)
		return
	}
	fmt.Printf("  ✅ Search returned %d candidates\n", len(places))
	for i, place := range places {
		fmt.Printf("     %d. %s (%.4f, %.4f)\n", i+1, place.Label, place.Latitude, place.Longitude)
	}

	// Reverse lookup at Colombo Fort
	place, err := geocoder.Reverse(ctx, 6.9344, 79.8428)
	if err != nil {
		fmt.Printf("  ❌ Reverse failed: %v\n", err)
		return
	}
	fmt.Printf("  ✅ Reverse found: %s\n", place.Label)

	fmt.Println("\n  Result: Geocoding gateway working correctly")
	fmt.Println()
}

func testPlanner(cfg *config.Config) {
	fmt.Println("🗺️ Testing Routing Gateway")
	fmt.Println("--------------------------")

	planner := routing.NewORSGateway(routing.ORSConfig{
		BaseURL: cfg.Routing.BaseURL,
		APIKey:  cfg.Routing.APIKey,
		Profile: cfg.Routing.Profile,
		Timeout: cfg.Routing.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	// Colombo Fort to Kandy
	route, err := planner.ComputeRoute(ctx, []routing.Point{
		{Latitude: 6.9344, Longitude: 79.8428},
		{Latitude: 7.2906, Longitude: 80.6337},
	})
	if err != nil {
		fmt.Printf("  ❌ ComputeRoute failed: %v\n", err)
		return
	}

	fmt.Printf("  ✅ Route computed\n")
	fmt.Printf("     - Distance: %.1f km\n", route.DistanceMeters/1000)
	fmt.Printf("     - Duration: %s\n", time.Duration(route.DurationSeconds*float64(time.Second)).Round(time.Minute))
	fmt.Printf("     - Legs: %d\n", len(route.Legs))
	fmt.Printf("     - Geometry points: %d\n", len(route.Geometry))

	fmt.Println("\n  Result: Routing gateway working correctly")
	fmt.Println()
}

func testCatalog(db *sqlx.DB) {
	fmt.Println("🚏 Testing Stop Catalog")
	fmt.Println("-----------------------")

	logger := logrus.New()
	catalog := services.NewCatalogService(database.NewStopRepository(db, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stops, err := catalog.SearchStops(ctx, "fort", 5)
	if err != nil {
		fmt.Printf("  ❌ SearchStops failed: %v\n", err)
		return
	}
	fmt.Printf("  ✅ Catalog search returned %d stops\n", len(stops))
	for _, stop := range stops {
		fmt.Printf("     - %s (%.4f, %.4f)\n", stop.Name, stop.Latitude, stop.Longitude)
	}

	fmt.Println("\n  Result: Stop catalog working correctly")
	fmt.Println()
}
