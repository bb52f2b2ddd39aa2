package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/handlers"
	"github.com/homeride/backend/internal/api/middleware"
	"github.com/homeride/backend/internal/config"
	"github.com/homeride/backend/pkg/logger"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Options carries what the router needs beyond the handlers.
type Options struct {
	Verifier  middleware.TokenVerifier
	Redis     *redis.Client
	CORS      config.CORSConfig
	RateLimit config.RateLimitConfig
	NewRelic  *newrelic.Application
	Logger    *logger.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, opts Options) {
	// Add New Relic middleware if enabled
	if opts.NewRelic != nil {
		r.Use(nrgin.Middleware(opts.NewRelic))
	}
	r.Use(
		middleware.Metrics(),
		middleware.RequestLogger(opts.Logger),
		middleware.CORS(opts.CORS.AllowedOrigins, opts.CORS.AllowedMethods, opts.CORS.AllowedHeaders),
	)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.Auth(opts.Verifier)
	limit := func(name string, perMinute int) gin.HandlerFunc {
		return middleware.RateLimit(opts.Redis, name, perMinute, opts.Logger)
	}

	// WebSocket connection
	r.GET("/ws", auth, h.HandleWebSocket)

	api := r.Group("/api", auth)
	{
		rides := api.Group("/rides")
		{
			rides.GET("/travel-info", h.TravelInfo)
			rides.GET("/quote", h.Quote)
			rides.POST("/offer", limit("offer", opts.RateLimit.RideOffersPerMinute), h.OfferRide)
			rides.GET("", h.SearchRides)
			rides.GET("/my-rides", h.MyRides)
			rides.GET("/:id", h.GetRide)
			rides.POST("/:id/join", limit("join", opts.RateLimit.RideJoinsPerMinute), h.JoinRide)
			rides.DELETE("/:id", h.CancelDriver)
			rides.POST("/:id/cancel-driver", h.CancelDriver)
			rides.POST("/:id/cancel-passenger", h.CancelPassenger)
			rides.GET("/:id/chat", h.ChatHistory)
			rides.POST("/:id/chat", h.SendChat)
		}

		ratings := api.Group("/ratings")
		{
			ratings.POST("", h.SubmitRating)
			ratings.GET("/my-ratings", h.MyRatings)
			ratings.GET("/given", h.GivenRatings)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/:id/read", h.MarkRead)
			notifications.POST("/read-all", h.MarkAllRead)
		}

		employees := api.Group("/employees")
		{
			employees.GET("/me", h.GetMe)
			employees.PUT("/me", h.UpdateMe)
			employees.GET("/:id", h.GetProfile)
		}

		admin := api.Group("/admin", middleware.RequireAdmin(h.Employees, opts.Logger))
		{
			admin.GET("/employees", h.ListEmployees)
			admin.PUT("/employees/:id", h.UpdateEmployee)
			admin.GET("/stats", h.Stats)
		}

		maps := api.Group("/maps")
		{
			maps.GET("/geocode", h.Geocode)
			maps.GET("/reverse-geocode", h.ReverseGeocode)
		}

		api.POST("/chatbot", limit("chatbot", opts.RateLimit.ChatbotPerMinute), h.AskChatbot)
	}
}
