package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	Explain ExplainConfig
	Search  SearchConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string
	Port           int
	GinMode        string
	AllowedOrigins string
}

// CatalogConfig holds the remote MLS catalog connection settings.
type CatalogConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	Timeout      int // seconds
}

// ExplainConfig holds the explanation/RAG collaborator settings.
type ExplainConfig struct {
	BaseURL string
	Timeout int // seconds
	Enabled bool
}

// SearchConfig holds retrieval tuning knobs.
type SearchConfig struct {
	PageCap     int
	CompPageCap int
}

// LoggingConfig holds logging configuration. Verbose must default off:
// request payloads carry street addresses.
type LoggingConfig struct {
	Level   string
	Verbose bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Catalog: CatalogConfig{
			BaseURL:      getEnv("MLS_BASE_URL", ""),
			TokenURL:     getEnv("MLS_TOKEN_URL", ""),
			ClientID:     getEnv("MLS_CLIENT_ID", ""),
			ClientSecret: getEnv("MLS_CLIENT_SECRET", ""),
			Scope:        getEnv("MLS_SCOPE", "api"),
			Timeout:      getEnvAsInt("MLS_TIMEOUT", 8),
		},
		Explain: ExplainConfig{
			BaseURL: getEnv("EXPLAIN_BASE_URL", ""),
			Timeout: getEnvAsInt("EXPLAIN_TIMEOUT", 5),
			Enabled: getEnv("EXPLAIN_BASE_URL", "") != "",
		},
		Search: SearchConfig{
			PageCap:     getEnvAsInt("SEARCH_PAGE_CAP", 20),
			CompPageCap: getEnvAsInt("COMP_PAGE_CAP", 50),
		},
		Logging: LoggingConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Verbose: getEnvAsBool("LOG_VERBOSE", false),
		},
	}

	if cfg.Catalog.BaseURL == "" {
		return nil, fmt.Errorf("MLS_BASE_URL is required")
	}
	if cfg.Catalog.TokenURL == "" {
		return nil, fmt.Errorf("MLS_TOKEN_URL is required")
	}
	if cfg.Catalog.ClientID == "" {
		return nil, fmt.Errorf("MLS_CLIENT_ID is required")
	}
	if cfg.Catalog.ClientSecret == "" {
		return nil, fmt.Errorf("MLS_CLIENT_SECRET is required")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
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
		return defaultValue
	}
	return value
}
