package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	domainconfig "flowbuilder/domain/config"
)

// Snapshot store backends
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	ShutdownTimeout time.Duration

	// AWS configuration
	AWSRegion         string
	DynamoDBTable     string
	EventBusName      string
	EnableEventBridge bool

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// WebSocket configuration
	WebSocketEndpoint string
	ConnectionsTable  string

	// Snapshot persistence
	SnapshotStore       string
	SnapshotKey         string
	SnapshotDir         string
	SnapshotCodec       string
	SnapshotCompression string

	// Event history
	JournalCapacity int
	JournalTTL      time.Duration

	// Editor behaviour
	NotificationTTL time.Duration
	SeedEntryNode   bool

	// Logging
	LogLevel string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	RequireAuth bool

	// Requests per minute per client; zero disables limiting
	RateLimitPerMinute int

	// Feature flags
	EnableMetrics  bool
	EnableTracing  bool
	EnableCORS     bool
	AllowedOrigins []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		AWSRegion:         getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable:     getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "flowbuilder")),
		EventBusName:      getEnv("EVENT_BUS_NAME", "flowbuilder-events"),
		EnableEventBridge: getEnvBool("ENABLE_EVENTBRIDGE", false),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),
		ConnectionsTable:  getEnv("CONNECTIONS_TABLE", "flowbuilder-connections"),

		SnapshotStore:       strings.ToLower(getEnv("SNAPSHOT_STORE", StoreMemory)),
		SnapshotKey:         getEnv("SNAPSHOT_KEY", "chatbot-flow"),
		SnapshotDir:         getEnv("SNAPSHOT_DIR", "./data"),
		SnapshotCodec:       getEnv("SNAPSHOT_CODEC", "json"),
		SnapshotCompression: getEnv("SNAPSHOT_COMPRESSION", "none"),

		JournalCapacity: getEnvInt("JOURNAL_CAPACITY", 1000),
		JournalTTL:      getEnvDuration("JOURNAL_TTL", 30*24*time.Hour),

		NotificationTTL: getEnvDuration("NOTIFICATION_TTL", 3*time.Second),
		SeedEntryNode:   getEnvBool("SEED_ENTRY_NODE", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "flowbuilder"),
		RequireAuth: getEnvBool("REQUIRE_AUTH", false),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 600),

		EnableMetrics:  getEnvBool("ENABLE_METRICS", false),
		EnableTracing:  getEnvBool("ENABLE_TRACING", false),
		EnableCORS:     getEnvBool("ENABLE_CORS", true),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.SnapshotStore {
	case StoreMemory, StoreFile, StoreDynamoDB:
	default:
		return fmt.Errorf("SNAPSHOT_STORE must be one of memory, file, dynamodb; got %q", c.SnapshotStore)
	}
	if c.SnapshotStore == StoreFile && c.SnapshotDir == "" {
		return fmt.Errorf("SNAPSHOT_DIR is required for the file store")
	}
	if c.SnapshotStore == StoreDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb store")
	}
	if c.SnapshotKey == "" {
		return fmt.Errorf("SNAPSHOT_KEY cannot be empty")
	}
	if c.NotificationTTL <= 0 {
		return fmt.Errorf("NOTIFICATION_TTL must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE cannot be negative")
	}
	if c.RequireAuth && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when REQUIRE_AUTH is set")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.EnableEventBridge && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// DomainConfig returns the business rules for the environment with the
// editor settings from this configuration applied
func (c *Config) DomainConfig() *domainconfig.DomainConfig {
	dc := domainconfig.LoadDomainConfig(c.Environment)
	dc.SnapshotKey = c.SnapshotKey
	dc.NotificationTTL = c.NotificationTTL
	dc.SeedEntryNode = c.SeedEntryNode
	return dc
}

// UsesAWS reports whether any configured component talks to AWS
func (c *Config) UsesAWS() bool {
	return c.SnapshotStore == StoreDynamoDB || c.EnableEventBridge || c.EnableMetrics ||
		c.WebSocketEndpoint != ""
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("3s") or plain milliseconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
