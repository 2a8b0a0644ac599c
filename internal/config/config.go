package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"shopify-auth-layer/internal/domain"

	"github.com/joho/godotenv"
)

var defaultScopes = []string{"read_products", "read_orders"}

// Config holds the process configuration read from the environment
type Config struct {
	Port          string
	AppURL        string
	ReturnURL     string
	MongoURI      string
	MongoDatabase string
	RedisURL      string
	EncryptionKey string
	BcryptCost    int
	LogLevel      string

	ShopifyAPIKey    string
	ShopifyAPISecret string
	ShopifyScopes    []string
	// ShopifyAPIVersion comes from SHOPIFY_APP_API_VERSION
	ShopifyAPIVersion string
}

// Load reads .env (if present) and the environment.
// It reports whether a .env file was loaded.
func Load() (*Config, bool, error) {
	loaded := godotenv.Load() == nil

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		AppURL:            strings.TrimSuffix(getEnv("APP_URL", "http://localhost:8080"), "/"),
		ReturnURL:         os.Getenv("RETURN_URL"),
		MongoURI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "shopify_auth"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		EncryptionKey:     os.Getenv("ENCRYPTION_KEY"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ShopifyAPIKey:     os.Getenv("SHOPIFY_API_KEY"),
		ShopifyAPISecret:  os.Getenv("SHOPIFY_API_SECRET"),
		ShopifyScopes:     parseScopes(os.Getenv("SHOPIFY_SCOPES")),
		ShopifyAPIVersion: getEnv("SHOPIFY_APP_API_VERSION", domain.DefaultAPIVersion),
	}
	if cfg.ReturnURL == "" {
		cfg.ReturnURL = cfg.AppURL + "/"
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", "0"))
	if err != nil {
		return nil, loaded, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	cfg.BcryptCost = cost

	if err := cfg.Validate(); err != nil {
		return nil, loaded, err
	}
	return cfg, loaded, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.ShopifyAPIKey == "" || c.ShopifyAPISecret == "" {
		return fmt.Errorf("SHOPIFY_API_KEY and SHOPIFY_API_SECRET environment variables are required")
	}
	return nil
}

// SessionConfig returns the settings used to build shop API sessions
func (c *Config) SessionConfig() domain.SessionConfig {
	return domain.SessionConfig{APIVersion: c.ShopifyAPIVersion}
}

// RedirectURI is the OAuth callback registered with Shopify
func (c *Config) RedirectURI() string {
	return c.AppURL + "/auth/callback"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseScopes(raw string) []string {
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	if len(scopes) == 0 {
		return defaultScopes
	}
	return scopes
}
