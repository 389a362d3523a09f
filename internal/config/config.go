package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// JWT configuration
	JWT JWTConfig

	// Editor session configuration
	Editor EditorConfig

	// Geocoding provider configuration
	Geocoding GeocodingConfig

	// Routing provider configuration
	Routing RoutingConfig

	// Route API (persistence service) configuration
	RouteAPI RouteAPIConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// RedisConfig holds the geocode cache connection configuration
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	GeocodeTTL time.Duration
}

// JWTConfig holds JWT validation configuration. Tokens are issued by the
// platform auth service; this service only verifies them.
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// EditorConfig holds route-editor session tuning
type EditorConfig struct {
	SearchDebounce time.Duration // quiet period before a typed query is sent to the geocoder
	DragDebounce   time.Duration // quiet period before a dragged marker is reverse-geocoded
	SessionTTL     time.Duration // idle time before a session is swept
	SweepInterval  time.Duration
	MaxCandidates  int // geocoder results shown per search box
}

// GeocodingConfig holds forward/reverse geocoding provider configuration
type GeocodingConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// RoutingConfig holds the directions provider configuration
type RoutingConfig struct {
	BaseURL string
	APIKey  string
	Profile string // e.g. driving-car, driving-hgv
	Timeout time.Duration
}

// RouteAPIConfig holds the platform route-persistence service configuration
type RouteAPIConfig struct {
	BaseURL      string
	ServiceToken string // bearer token for service-to-service calls
	Timeout      time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	AuthDisabled     bool // accept unauthenticated editor sessions (local development only)
	EnableRequestLog bool
	EnableAuditLog   bool
	AuditRetention   time.Duration // how long audit events are kept before the nightly cleanup removes them
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", "localhost:6379"),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvAsInt("REDIS_DB", 0),
			GeocodeTTL: time.Duration(getEnvAsInt("GEOCODE_CACHE_TTL_HOURS", 720)) * time.Hour,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Editor: EditorConfig{
			SearchDebounce: time.Duration(getEnvAsInt("EDITOR_SEARCH_DEBOUNCE_MS", 500)) * time.Millisecond,
			DragDebounce:   time.Duration(getEnvAsInt("EDITOR_DRAG_DEBOUNCE_MS", 500)) * time.Millisecond,
			SessionTTL:     time.Duration(getEnvAsInt("EDITOR_SESSION_TTL_MINUTES", 30)) * time.Minute,
			SweepInterval:  time.Duration(getEnvAsInt("EDITOR_SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
			MaxCandidates:  getEnvAsInt("EDITOR_MAX_CANDIDATES", 5),
		},
		Geocoding: GeocodingConfig{
			BaseURL: getEnv("GEOCODING_BASE_URL", "https://api.openrouteservice.org"),
			APIKey:  getEnv("GEOCODING_API_KEY", ""),
			Timeout: time.Duration(getEnvAsInt("GEOCODING_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Routing: RoutingConfig{
			BaseURL: getEnv("ROUTING_BASE_URL", "https://api.openrouteservice.org"),
			APIKey:  getEnv("ROUTING_API_KEY", ""),
			Profile: getEnv("ROUTING_PROFILE", "driving-hgv"),
			Timeout: time.Duration(getEnvAsInt("ROUTING_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		RouteAPI: RouteAPIConfig{
			BaseURL:      getEnv("ROUTE_API_BASE_URL", ""),
			ServiceToken: getEnv("ROUTE_API_SERVICE_TOKEN", ""),
			Timeout:      time.Duration(getEnvAsInt("ROUTE_API_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			AuthDisabled:     getEnvAsBool("AUTH_DISABLED", false),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			EnableAuditLog:   getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
			AuditRetention:   time.Duration(getEnvAsInt("AUDIT_RETENTION_DAYS", 90)) * 24 * time.Hour,
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if !c.Security.AuthDisabled && c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required unless AUTH_DISABLED=true")
	}

	if c.Geocoding.APIKey == "" {
		return fmt.Errorf("GEOCODING_API_KEY is required")
	}

	if c.Routing.APIKey == "" {
		return fmt.Errorf("ROUTING_API_KEY is required")
	}

	if c.RouteAPI.BaseURL == "" {
		return fmt.Errorf("ROUTE_API_BASE_URL is required")
	}

	// The search debounce window is tuned for type-ahead; values far outside
	// it either hammer the geocoder or make the box feel dead.
	if c.Editor.SearchDebounce < 100*time.Millisecond || c.Editor.SearchDebounce > 2*time.Second {
		return fmt.Errorf("EDITOR_SEARCH_DEBOUNCE_MS must be between 100 and 2000")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Split by comma
	var result []string
	for _, v := range splitString(valueStr, ",") {
		trimmed := trimString(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// Helper to split strings
func splitString(s, sep string) []string {
	var result []string
	current := ""
	for _, char := range s {
		if string(char) == sep {
			result = append(result, current)
			current = ""
		} else {
			current += string(char)
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}

// Helper to trim strings
func trimString(s string) string {
	start := 0
	end := len(s)

	// Trim leading spaces
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}

	// Trim trailing spaces
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}

	return s[start:end]
}
