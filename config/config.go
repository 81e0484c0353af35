package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"archedvibes/database"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string
	GuildID      string // Guild slash commands are registered to; empty registers globally

	// Channels
	LogChannelID     string
	VouchChannelID   string
	SupportChannelID string
	TicketCategoryID string // Category new ticket channels are created under

	// Roles
	InfiniteRoleID string // Members with this role transfer without a balance check
	DefaultRoleID  string // Assigned to every member on join
	StaffRoleID    string // Pinged in and granted access to ticket channels

	// Database configuration. Persistence is disabled when DatabaseURL is empty.
	DatabaseURL      string
	DatabaseName     string
	SnapshotInterval time.Duration

	// NATS configuration. Event forwarding is disabled when NATSServers is empty.
	NATSServers string // NATS server addresses (comma-separated)

	// Wager configuration
	WagerCooldown time.Duration
	RandomSeed    *int64 // Fixed seed for reproducible outcomes; nil seeds from the clock

	// Observability
	LogLevel             string
	OTELEnabled          bool
	OTELExporterType     string // console, otlp or none
	OTELOTLPEndpoint     string
	OTELServiceName      string
	OTELExportIntervalMS int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// PersistenceEnabled reports whether a database is configured
func (c *Config) PersistenceEnabled() bool {
	return c.DatabaseURL != ""
}

// IsProduction reports whether the bot runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken: os.Getenv("DISCORD_TOKEN"),
		GuildID:      os.Getenv("GUILD_ID"),

		// Channels
		LogChannelID:     os.Getenv("LOG_CHANNEL_ID"),
		VouchChannelID:   os.Getenv("VOUCH_CHANNEL_ID"),
		SupportChannelID: os.Getenv("SUPPORT_CHANNEL_ID"),
		TicketCategoryID: os.Getenv("TICKET_CATEGORY_ID"),

		// Roles
		InfiniteRoleID: os.Getenv("INFINITE_ROLE_ID"),
		DefaultRoleID:  os.Getenv("DEFAULT_ROLE_ID"),
		StaffRoleID:    os.Getenv("STAFF_ROLE_ID"),

		// Database
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseName:     os.Getenv("DATABASE_NAME"),
		SnapshotInterval: 60 * time.Second,

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Wagers
		WagerCooldown: 600 * time.Second,

		// Observability
		LogLevel:             getEnvWithDefault("LOG_LEVEL", "info"),
		OTELEnabled:          os.Getenv("OTEL_ENABLED") == "true",
		OTELExporterType:     getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTELOTLPEndpoint:     getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTELServiceName:      getEnvWithDefault("OTEL_SERVICE_NAME", "archedvibes"),
		OTELExportIntervalMS: 30000,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if seconds := os.Getenv("SNAPSHOT_INTERVAL_SECONDS"); seconds != "" {
		parsed, err := strconv.Atoi(seconds)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("SNAPSHOT_INTERVAL_SECONDS must be a positive integer, got %q", seconds)
		}
		config.SnapshotInterval = time.Duration(parsed) * time.Second
	}
	if seconds := os.Getenv("WAGER_COOLDOWN_SECONDS"); seconds != "" {
		parsed, err := strconv.Atoi(seconds)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("WAGER_COOLDOWN_SECONDS must be a non-negative integer, got %q", seconds)
		}
		config.WagerCooldown = time.Duration(parsed) * time.Second
	}
	if seed := os.Getenv("RANDOM_SEED"); seed != "" {
		parsed, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("RANDOM_SEED must be an integer, got %q", seed)
		}
		config.RandomSeed = &parsed
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.OTELExportIntervalMS = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:          "test",
		DiscordToken:         "test-token",
		SnapshotInterval:     time.Second,
		WagerCooldown:        600 * time.Second,
		LogLevel:             "debug",
		OTELExporterType:     "none",
		OTELServiceName:      "archedvibes-test",
		OTELExportIntervalMS: 1000,
	}
}
