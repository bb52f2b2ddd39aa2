package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/handlers"
	"github.com/homeride/backend/internal/api/middleware"
	"github.com/homeride/backend/internal/api/routes"
	"github.com/homeride/backend/internal/config"
	"github.com/homeride/backend/internal/observability"
	"github.com/homeride/backend/internal/repository/postgres"
	"github.com/homeride/backend/internal/service/chat"
	"github.com/homeride/backend/internal/service/chatbot"
	"github.com/homeride/backend/internal/service/employees"
	notifysvc "github.com/homeride/backend/internal/service/notification"
	"github.com/homeride/backend/internal/service/pricing"
	ratingsvc "github.com/homeride/backend/internal/service/rating"
	"github.com/homeride/backend/internal/service/rides"
	"github.com/homeride/backend/internal/service/routing"
	"github.com/homeride/backend/migrations"
	"github.com/homeride/backend/pkg/cache"
	"github.com/homeride/backend/pkg/database"
	"github.com/homeride/backend/pkg/logger"
	"github.com/homeride/backend/pkg/monitoring"
	"github.com/homeride/backend/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting HomeRide backend",
		logger.String("env", cfg.Server.Env),
		logger.String("port", cfg.Server.Port),
	)

	// Initialize New Relic
	nrApp, err := monitoring.New(monitoring.Config{
		LicenseKey: cfg.NewRelic.LicenseKey,
		AppName:    cfg.NewRelic.AppName,
		Enabled:    cfg.NewRelic.Enabled,
		LogLevel:   cfg.NewRelic.LogLevel,
	})
	if err != nil {
		appLogger.Warn("Failed to initialize New Relic", logger.Err(err))
		nrApp = monitoring.Disabled()
	} else if nrApp.IsEnabled() {
		appLogger.Info("New Relic APM initialized successfully",
			logger.String("app_name", cfg.NewRelic.AppName),
			logger.Bool("enabled", true))
	} else {
		appLogger.Info("New Relic APM disabled")
	}
	defer nrApp.Shutdown(10 * time.Second)

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cache.Config{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		MaxRetries:  cfg.Redis.MaxRetries,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", logger.Err(err))
	}
	defer cache.Close(redisClient)

	appLogger.Info("Connected to Redis successfully")

	// Initialize PostgreSQL
	postgresDB, err := database.NewPostgresDB(database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		DBName:      cfg.Database.Name,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConnections,
		MaxIdle:     cfg.Database.MaxIdleConns,
		MaxLifetime: cfg.Database.MaxLifetime,
	})
	if err != nil {
		appLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
	}
	defer postgresDB.Close()

	appLogger.Info("Connected to PostgreSQL successfully")

	if cfg.Database.AutoMigrate {
		results, err := database.Migrate(context.Background(), postgresDB, migrations.FS)
		if err != nil {
			appLogger.Fatal("Failed to run migrations", logger.Err(err))
		}
		appLogger.Info("Migrations applied", logger.Int("count", len(results)))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Repositories
	employeeRepo := postgres.NewEmployeeRepository(postgresDB)
	rideRepo := postgres.NewRideRepository(postgresDB)
	ratingRepo := postgres.NewRatingRepository(postgresDB)
	notificationRepo := postgres.NewNotificationRepository(postgresDB)
	chatRepo := postgres.NewChatRepository(postgresDB)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(appLogger)
	wsHub.OnConnectionsChanged(func(active int) {
		observability.WebSocketClients.Set(float64(active))
		nrApp.RecordHubConnections(active)
	})
	go wsHub.Run(ctx)

	var pusher notifysvc.Pusher
	if cfg.Features.EnableRealTimeUpdates {
		pusher = wsHub
	}
	notifications := notifysvc.NewService(notificationRepo, employeeRepo, pusher, appLogger)
	ratings := ratingsvc.NewService(ratingRepo, employeeRepo, rideRepo, notifications, appLogger)
	chats := chat.NewService(chatRepo, rideRepo, employeeRepo, wsHub, notifications, appLogger)
	wsHub.SetSubscribeGuard(chats.CanAccess)

	// Routing: Google Maps when configured, cached in Redis either way
	var (
		geocoder routing.Geocoder
		provider routing.Provider      = routing.Unconfigured{}
		lookup   routing.AddressLookup = routing.Unconfigured{}
	)
	if cfg.Maps.APIKey != "" {
		google, err := routing.NewGoogleProvider(cfg.Maps.APIKey, cfg.Maps.RequestTimeout, appLogger)
		if err != nil {
			appLogger.Warn("Google Maps unavailable, using default travel data", logger.Err(err))
		} else {
			provider = google
			if cfg.Features.EnableGeocoding {
				geocoder = google
				lookup = google
			}
		}
	} else {
		appLogger.Warn("MAPS_API_KEY not set, using default travel data")
	}

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		appLogger.Warn("Unknown timezone, using local time",
			logger.String("timezone", cfg.Server.Timezone), logger.Err(err))
		loc = time.Local
	}

	rideService := rides.NewService(rides.Deps{
		Rides:     rideRepo,
		Employees: employeeRepo,
		Ratings:   ratings,
		Notifier:  notifications,
		Router:    routing.NewCachedProvider(provider, redisClient, cfg.Maps.CacheTTL, appLogger),
		Geocoder:  geocoder,
		Pricing:   pricing.NewService(cfg.Pricing.Tariff(), appLogger),
		Events:    nrApp,
		Location:  loc,
		Logger:    appLogger,
	})

	var assistant *chatbot.Service
	if cfg.Features.EnableChatbot {
		var llm chatbot.LLM
		if cfg.Chatbot.GeminiAPIKey != "" {
			gemini, err := chatbot.NewGemini(ctx, cfg.Chatbot.GeminiAPIKey, cfg.Chatbot.Model)
			if err != nil {
				appLogger.Warn("Gemini client unavailable", logger.Err(err))
			} else {
				defer gemini.Close()
				llm = gemini
			}
		}
		assistant = chatbot.NewService(llm, employeeRepo, rideRepo, ratingRepo, chatbot.Config{
			SupportEmail: cfg.Chatbot.SupportEmail,
			Timeout:      cfg.Chatbot.RequestTimeout,
		}, appLogger)
	}

	// Initialize handlers with dependencies
	h := handlers.NewHandlers(handlers.Services{
		Rides:         rideService,
		Ratings:       ratings,
		Notifications: notifications,
		Chat:          chats,
		Chatbot:       assistant,
		Employees:     employees.NewService(employeeRepo, rideRepo, ratingRepo, appLogger),
		Maps:          lookup,
	}, wsHub, appLogger)
	h.Upgrader.ReadBufferSize = cfg.WebSocket.ReadBufferSize
	h.Upgrader.WriteBufferSize = cfg.WebSocket.WriteBufferSize

	// Initialize Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	routes.SetupRoutes(router, h, routes.Options{
		Verifier:  middleware.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry),
		Redis:     redisClient,
		CORS:      cfg.CORS,
		RateLimit: cfg.RateLimit,
		NewRelic:  nrApp.Application,
		Logger:    appLogger,
	})

	appLogger.Info("Routes configured successfully")

	// Create HTTP server
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   cfg.Chatbot.RequestTimeout + 15*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("Server starting", logger.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", logger.Err(err))
	}
	stop()

	appLogger.Info("Server stopped gracefully")
}
