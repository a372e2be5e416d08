package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the process-wide settings. It is read once at startup and treated as immutable.
type Config struct {
	AppPort string

	DBDriver    string // "postgres" or "sqlite"
	DatabaseDSN string

	JWTSecret     string
	JWTExpiration time.Duration
	JWTCookieName string
	CookieSecure  bool

	FrontendURL string
	DevOrigin   string

	CacheDriver   string // "redis" or "memory"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Empty disables order event publishing.
	RabbitMQURL string

	LogLevel string

	SignInRatePerMinute int
	SeedAdminPassword   string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=ecom port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_COOKIE_NAME", "ecom_token")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("FRONTEND_URL", "https://shop.example.com")
	v.SetDefault("DEV_ORIGIN", "http://localhost:5173")
	v.SetDefault("CACHE_DRIVER", "redis")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SIGNIN_RATE_PER_MINUTE", 10)
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
}

// LoadDotEnv loads variables from the given .env files into the process environment.
// A missing file is not an error.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		slog.Info("no .env file found, relying on environment variables")
	}
}

// Load reads the configuration from v. Defaults must already be registered.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:             v.GetString("APP_PORT"),
		DBDriver:            strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTExpiration:       v.GetDuration("JWT_EXPIRATION"),
		JWTCookieName:       v.GetString("JWT_COOKIE_NAME"),
		CookieSecure:        v.GetBool("COOKIE_SECURE"),
		FrontendURL:         v.GetString("FRONTEND_URL"),
		DevOrigin:           v.GetString("DEV_ORIGIN"),
		CacheDriver:         strings.ToLower(v.GetString("CACHE_DRIVER")),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		SignInRatePerMinute: v.GetInt("SIGNIN_RATE_PER_MINUTE"),
		SeedAdminPassword:   v.GetString("SEED_ADMIN_PASSWORD"),
	}

	var problems []string
	if cfg.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if cfg.JWTExpiration <= 0 {
		problems = append(problems, "JWT_EXPIRATION must be a positive duration")
	}
	if cfg.JWTCookieName == "" {
		problems = append(problems, "JWT_COOKIE_NAME must not be empty")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", cfg.DBDriver))
	}
	switch cfg.CacheDriver {
	case "redis", "memory":
	default:
		problems = append(problems, fmt.Sprintf("unsupported CACHE_DRIVER %q", cfg.CacheDriver))
	}
	// Credentialed CORS cannot be combined with a wildcard origin.
	if origins := cfg.AllowedOrigins(); origins == "" || strings.Contains(origins, "*") {
		problems = append(problems, "FRONTEND_URL or DEV_ORIGIN must name explicit origins")
	}
	if cfg.SignInRatePerMinute <= 0 {
		problems = append(problems, "SIGNIN_RATE_PER_MINUTE must be positive")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// AllowedOrigins returns the CORS origins as a comma separated list.
func (c *Config) AllowedOrigins() string {
	origins := make([]string, 0, 2)
	for _, o := range []string{c.DevOrigin, c.FrontendURL} {
		if o != "" {
			origins = append(origins, o)
		}
	}
	return strings.Join(origins, ",")
}
