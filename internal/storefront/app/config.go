package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AccessTokenSecret  string // Required: HS256 secret for access tokens
	RefreshTokenSecret string // Required: HS256 secret for refresh tokens, must differ from the access secret
	Issuer             string // Optional: issuer claim for minted tokens (default: storefront-auth)
	Audience           string // Optional: audience claim for minted tokens (default: storefront-web)

	ShopDomain          string        // Required: commerce platform domain (e.g. example.myshopify.com)
	StorefrontToken     string        // Required: storefront API access token
	ProviderTimeout     time.Duration // Optional: upstream request timeout (default: 8s)
	AllowedOrigins      []string      // Optional: origins allowed to make credentialed requests
	LockoutStore        string        // Optional: lockout store backend (memory, sqlite) (default: memory)
	LockoutDatabaseFile string        // Optional: path to SQLite lockout database (default: ./lockout.db)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

var (
	ErrMissingTokenSecrets = errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must both be set")
	ErrMissingProvider     = errors.New("SHOP_DOMAIN and STOREFRONT_API_TOKEN must both be set")
)

// LoadConfig reads configuration from the environment. Secrets and the
// provider credentials have no defaults; a deployment that forgot them
// must fail at startup rather than mint forgeable tokens.
func LoadConfig() (Config, error) {
	cfg := Config{
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		Issuer:             getEnvOrDefault("TOKEN_ISSUER", "storefront-auth"),
		Audience:           getEnvOrDefault("TOKEN_AUDIENCE", "storefront-web"),

		ShopDomain:          os.Getenv("SHOP_DOMAIN"),
		StorefrontToken:     os.Getenv("STOREFRONT_API_TOKEN"),
		ProviderTimeout:     getEnvDurationOrDefault("PROVIDER_TIMEOUT", 8*time.Second),
		AllowedOrigins:      splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		LockoutStore:        getEnvOrDefault("LOCKOUT_STORE", "memory"),
		LockoutDatabaseFile: getEnvOrDefault("LOCKOUT_DATABASE_FILE", "lockout.db"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return Config{}, ErrMissingTokenSecrets
	}
	if cfg.ShopDomain == "" || cfg.StorefrontToken == "" {
		return Config{}, ErrMissingProvider
	}

	return cfg, nil
}

// IsProd reports whether the service runs with production hardening,
// which currently only controls the Secure cookie flag.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
