package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/cache"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/config"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/database"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/editor"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/handlers"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/middleware"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/services"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/stream"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/geocode"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/jwt"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/metrics"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routeapi"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routing"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting BusTicket Route Editor Service")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize metrics pipeline (no-op unless OTEL_METRICS_ENABLED is set)
	shutdownMetrics, err := metrics.Init(logger)
	if err != nil {
		logger.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Connect to Redis. The geocode cache degrades to pass-through without
	// it, so an unreachable Redis only warns.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		candidate := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := candidate.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Redis unreachable, geocode cache disabled")
			candidate.Close()
		} else {
			logger.Info("Redis connection established")
			redisClient = candidate
			defer redisClient.Close()
		}
	}
	geocodeCache := cache.NewGeocodeCache(redisClient, cfg.Redis.GeocodeTTL, logger)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	stopRepository := database.NewStopRepository(db, logger)
	auditRepository := database.NewEditorAuditRepository(db, logger)

	auditService := services.NewEditorAuditService(auditRepository, logger, cfg.Security.EnableAuditLog)
	catalogService := services.NewCatalogService(stopRepository, logger)

	geocoder := cache.NewCachingGeocoder(geocode.NewORSGateway(geocode.ORSConfig{
		BaseURL: cfg.Geocoding.BaseURL,
		APIKey:  cfg.Geocoding.APIKey,
		Size:    cfg.Editor.MaxCandidates,
		Timeout: cfg.Geocoding.Timeout,
	}), geocodeCache)

	planner := routing.NewORSGateway(routing.ORSConfig{
		BaseURL: cfg.Routing.BaseURL,
		APIKey:  cfg.Routing.APIKey,
		Profile: cfg.Routing.Profile,
		Timeout: cfg.Routing.Timeout,
	})

	routeClient := routeapi.NewHTTPClient(routeapi.Config{
		BaseURL:      cfg.RouteAPI.BaseURL,
		ServiceToken: cfg.RouteAPI.ServiceToken,
		Timeout:      cfg.RouteAPI.Timeout,
	})

	// The hub fans session events out to WebSocket subscribers; the manager
	// owns the editing sessions and notifies the hub on every change.
	hub := stream.NewHub(logger)
	manager := editor.NewManager(editor.Settings{
		SearchDebounce: cfg.Editor.SearchDebounce,
		DragDebounce:   cfg.Editor.DragDebounce,
		SessionTTL:     cfg.Editor.SessionTTL,
		SweepInterval:  cfg.Editor.SweepInterval,
		MaxCandidates:  cfg.Editor.MaxCandidates,
	}, editor.Deps{
		Geocoder: geocoder,
		Planner:  planner,
		Routes:   routeClient,
		Catalog:  catalogService,
		Notifier: hub,
		Logger:   logger,
	})
	manager.Start()

	maintenanceService := services.NewMaintenanceService(auditService, cfg.Security.AuditRetention, logger)
	if err := maintenanceService.Start(); err != nil {
		logger.Fatalf("Failed to start maintenance service: %v", err)
	}
	logger.Info("✓ Maintenance service started - audit cleanup scheduled")

	logger.Info("Services initialized")

	// Initialize handlers
	editorHandler := handlers.NewEditorHandler(manager, catalogService, auditService, logger)
	eventsHandler := handlers.NewEventsHandler(manager, hub, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db, redisClient, manager))

	// Editing is restricted to platform staff; tokens are issued by the
	// platform auth service and only verified here.
	var authn gin.HandlerFunc
	if cfg.Security.AuthDisabled {
		authn = middleware.AllowAll(logger)
	} else {
		authn = middleware.AuthMiddleware(jwtService, logger)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Debug endpoint - shows request headers and IP detection, for
		// checking what the audit trail will record behind a proxy
		v1.GET("/debug/headers", debugHeadersHandler())

		editorRoutes := v1.Group("/editor")
		editorRoutes.Use(authn, middleware.RequireRole("admin", "planner"))
		{
			editorRoutes.POST("/sessions", editorHandler.CreateSession)
			editorRoutes.GET("/sessions/:id", editorHandler.GetSession)
			editorRoutes.DELETE("/sessions/:id", editorHandler.DeleteSession)
			editorRoutes.POST("/sessions/:id/reset", editorHandler.ResetSession)

			editorRoutes.POST("/sessions/:id/search", editorHandler.Search)
			editorRoutes.POST("/sessions/:id/select", editorHandler.SelectCandidate)
			editorRoutes.POST("/sessions/:id/map-click", editorHandler.MapClick)
			editorRoutes.PUT("/sessions/:id/start", editorHandler.SetStart)
			editorRoutes.PUT("/sessions/:id/end", editorHandler.SetEnd)

			editorRoutes.PUT("/sessions/:id/stops/:localId/position", editorHandler.MoveStop)
			editorRoutes.POST("/sessions/:id/stops/reorder", editorHandler.ReorderStops)
			editorRoutes.DELETE("/sessions/:id/stops/:localId", editorHandler.RemoveStop)

			editorRoutes.POST("/sessions/:id/confirm", editorHandler.ConfirmRoute)
			editorRoutes.GET("/sessions/:id/events", eventsHandler.ServeSession)

			editorRoutes.GET("/stops/search", editorHandler.SearchSavedStops)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Closing the manager first notifies every open editor that its
	// session is gone before the sockets drop.
	manager.Stop()
	maintenanceService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	shutdownMetrics()

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		// Add authorization header presence (not the actual token for security)
		authHeader := c.GetHeader("Authorization")
		fields["has_auth"] = authHeader != ""

		// Add user context if available
		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["roles"] = userCtx.Roles
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db *sqlx.DB, redisClient *redis.Client, manager *editor.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		// Redis is optional; the cache degrades to pass-through, so an
		// outage is reported without failing the check.
		redisStatus := "disabled"
		if redisClient != nil {
			redisStatus = "healthy"
			pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				redisStatus = "unhealthy"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":          "healthy",
			"database":        "healthy",
			"redis":           redisStatus,
			"active_sessions": manager.Count(),
			"version":         version,
			"timestamp":       time.Now().Unix(),
		})
	}
}

// debugHeadersHandler shows all request headers for debugging IP issues
func debugHeadersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		headers := make(map[string]string)
		for name, values := range c.Request.Header {
			headers[name] = values[0]
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Debug information for IP detection",
			"headers": headers,
			"ip_detection": gin.H{
				"gin_clientip":    c.ClientIP(),
				"remote_addr":     c.Request.RemoteAddr,
				"x_real_ip":       c.Request.Header.Get("X-Real-IP"),
				"x_forwarded_for": c.Request.Header.Get("X-Forwarded-For"),
			},
			"user_agent": c.Request.UserAgent(),
			"timestamp":  time.Now().Unix(),
		})
	}
}
