package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"govpay/database"
)

// Config holds all process configuration. Domain configuration (poll and
// ledger accounts, voting duration, paused flag) lives in the database and
// is managed by the config service.
type Config struct {
	// SystemAccount is the engine's own principal: the issuer of record
	// and the administrator identity.
	SystemAccount string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the process-wide configuration, loading it on first use.
// Test overrides installed through SetTestConfig win over the loader.
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// Tests run without a real environment; fall back instead of panicking.
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL joins the base URL and database name into a full URL.
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

func load() (*Config, error) {
	cfg := &Config{
		SystemAccount: getEnvWithDefault("SYSTEM_ACCOUNT", "govpay"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Environment != "test" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if cfg.DatabaseName != "" && strings.TrimSpace(cfg.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SetTestConfig installs a config override. Test-only.
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig clears the override and re-arms the loader. Test-only.
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:   "test",
		SystemAccount: "govpay",
	}
}
