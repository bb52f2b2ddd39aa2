package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/homeride/backend/internal/service/pricing"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	JWT       JWTConfig
	Pricing   PricingConfig
	Maps      MapsConfig
	Chatbot   ChatbotConfig
	RateLimit RateLimitConfig
	WebSocket WebSocketConfig
	Log       LogConfig
	CORS      CORSConfig
	Features  FeatureFlags
}

type ServerConfig struct {
	Port string
	Env  string
	Host string
	// Timezone is the zone ride search compares calendar dates in.
	Timezone string
}

type DatabaseConfig struct {
	Host           string
	Port           int
	Name           string
	User           string
	Password       string
	SSLMode        string
	MaxConnections int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	AutoMigrate    bool
}

type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type NewRelicConfig struct {
	LicenseKey string
	AppName    string
	Enabled    bool
	LogLevel   string
}

type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// PricingConfig mirrors pricing.Config so every tariff constant can be
// overridden from the environment.
type PricingConfig struct {
	BaseFare            float64
	MinRecommendedPrice float64
	ShortRate           float64
	MediumRate          float64
	LongRate            float64
	ShortTierLimitKM    float64
	MediumTierLimitKM   float64

	TotalMinFactor   float64
	TotalMaxFactor   float64
	TotalAbsoluteMin float64
	TotalMinSpread   float64

	SegmentMinFactor   float64
	SegmentMaxFactor   float64
	SegmentAbsoluteMin float64
	SegmentMinSpread   float64
}

type MapsConfig struct {
	APIKey         string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

type ChatbotConfig struct {
	GeminiAPIKey   string
	Model          string
	RequestTimeout time.Duration
	SupportEmail   string
}

type RateLimitConfig struct {
	RideOffersPerMinute int
	RideJoinsPerMinute  int
	ChatbotPerMinute    int
}

type WebSocketConfig struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HeartbeatInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type FeatureFlags struct {
	EnableGeocoding       bool
	EnableChatbot         bool
	EnableRealTimeUpdates bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	defaults := pricing.DefaultConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),

			Timezone: getEnv("SERVER_TIMEZONE", "Asia/Kolkata"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvAsInt("DB_PORT", 5432),
			Name:           getEnv("DB_NAME", "homeride"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNECTIONS", 5),
			MaxLifetime:    time.Duration(getEnvAsInt("DB_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
			AutoMigrate:    getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			MaxRetries:  getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:    getEnvAsInt("REDIS_POOL_SIZE", 50),
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		},
		NewRelic: NewRelicConfig{
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "HomeRide-Backend"),
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", false),
			LogLevel:   getEnv("NEW_RELIC_LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your_jwt_secret_key_here"),
			Issuer: getEnv("JWT_ISSUER", "homeride"),
			Expiry: parseDuration(getEnv("JWT_EXPIRY", "24h"), 24*time.Hour),
		},
		Pricing: PricingConfig{
			BaseFare:            getEnvAsFloat64("PRICING_BASE_FARE", defaults.BaseFare),
			MinRecommendedPrice: getEnvAsFloat64("PRICING_MIN_RECOMMENDED", defaults.MinRecommendedPrice),
			ShortRate:           getEnvAsFloat64("PRICING_SHORT_RATE", defaults.ShortRate),
			MediumRate:          getEnvAsFloat64("PRICING_MEDIUM_RATE", defaults.MediumRate),
			LongRate:            getEnvAsFloat64("PRICING_LONG_RATE", defaults.LongRate),
			ShortTierLimitKM:    getEnvAsFloat64("PRICING_SHORT_TIER_LIMIT_KM", defaults.ShortTierLimitKM),
			MediumTierLimitKM:   getEnvAsFloat64("PRICING_MEDIUM_TIER_LIMIT_KM", defaults.MediumTierLimitKM),

			TotalMinFactor:   getEnvAsFloat64("PRICING_TOTAL_MIN_FACTOR", defaults.Total.MinFactor),
			TotalMaxFactor:   getEnvAsFloat64("PRICING_TOTAL_MAX_FACTOR", defaults.Total.MaxFactor),
			TotalAbsoluteMin: getEnvAsFloat64("PRICING_TOTAL_ABSOLUTE_MIN", defaults.Total.AbsoluteMin),
			TotalMinSpread:   getEnvAsFloat64("PRICING_TOTAL_MIN_SPREAD", defaults.Total.MinSpread),

			SegmentMinFactor:   getEnvAsFloat64("PRICING_SEGMENT_MIN_FACTOR", defaults.Segment.MinFactor),
			SegmentMaxFactor:   getEnvAsFloat64("PRICING_SEGMENT_MAX_FACTOR", defaults.Segment.MaxFactor),
			SegmentAbsoluteMin: getEnvAsFloat64("PRICING_SEGMENT_ABSOLUTE_MIN", defaults.Segment.AbsoluteMin),
			SegmentMinSpread:   getEnvAsFloat64("PRICING_SEGMENT_MIN_SPREAD", defaults.Segment.MinSpread),
		},
		Maps: MapsConfig{
			APIKey:         getEnv("GOOGLE_MAPS_API_KEY", ""),
			RequestTimeout: parseDuration(getEnv("MAPS_REQUEST_TIMEOUT", "5s"), 5*time.Second),
			CacheTTL:       parseDuration(getEnv("MAPS_CACHE_TTL", "6h"), 6*time.Hour),
		},
		Chatbot: ChatbotConfig{
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			RequestTimeout: parseDuration(getEnv("CHATBOT_REQUEST_TIMEOUT", "15s"), 15*time.Second),
			SupportEmail:   getEnv("SUPPORT_EMAIL", "support@homeride.example"),
		},
		RateLimit: RateLimitConfig{
			RideOffersPerMinute: getEnvAsInt("RATE_LIMIT_RIDE_OFFERS_PER_MINUTE", 5),
			RideJoinsPerMinute:  getEnvAsInt("RATE_LIMIT_RIDE_JOINS_PER_MINUTE", 10),
			ChatbotPerMinute:    getEnvAsInt("RATE_LIMIT_CHATBOT_PER_MINUTE", 20),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:    getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize:   getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
			HeartbeatInterval: time.Duration(getEnvAsInt("WS_HEARTBEAT_INTERVAL_SECONDS", 30)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Output: getEnv("LOG_OUTPUT", "stdout"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		},
		Features: FeatureFlags{
			EnableGeocoding:       getEnvAsBool("ENABLE_GEOCODING", true),
			EnableChatbot:         getEnvAsBool("ENABLE_CHATBOT", true),
			EnableRealTimeUpdates: getEnvAsBool("ENABLE_REAL_TIME_UPDATES", true),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWT.Secret == "your_jwt_secret_key_here" && c.Server.Env == "production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.Pricing.ShortTierLimitKM > c.Pricing.MediumTierLimitKM {
		return fmt.Errorf("PRICING_SHORT_TIER_LIMIT_KM must not exceed PRICING_MEDIUM_TIER_LIMIT_KM")
	}
	if c.Pricing.TotalMinFactor > c.Pricing.TotalMaxFactor || c.Pricing.SegmentMinFactor > c.Pricing.SegmentMaxFactor {
		return fmt.Errorf("pricing min factors must not exceed max factors")
	}
	if c.Pricing.MinRecommendedPrice <= 0 {
		return fmt.Errorf("PRICING_MIN_RECOMMENDED must be positive")
	}
	return nil
}

// Tariff converts the pricing section into the calculator's configuration.
func (p PricingConfig) Tariff() pricing.Config {
	return pricing.Config{
		BaseFare:            p.BaseFare,
		MinRecommendedPrice: p.MinRecommendedPrice,
		ShortRate:           p.ShortRate,
		MediumRate:          p.MediumRate,
		LongRate:            p.LongRate,
		ShortTierLimitKM:    p.ShortTierLimitKM,
		MediumTierLimitKM:   p.MediumTierLimitKM,
		Total: pricing.Band{
			MinFactor:   p.TotalMinFactor,
			MaxFactor:   p.TotalMaxFactor,
			AbsoluteMin: p.TotalAbsoluteMin,
			MinSpread:   p.TotalMinSpread,
		},
		Segment: pricing.Band{
			MinFactor:   p.SegmentMinFactor,
			MaxFactor:   p.SegmentMaxFactor,
			AbsoluteMin: p.SegmentAbsoluteMin,
			MinSpread:   p.SegmentMinSpread,
		},
	}
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
