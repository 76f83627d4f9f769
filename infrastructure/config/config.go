package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion         string
	TableName         string
	GSI1IndexName     string
	EventBusName      string
	PhotoBucket       string
	WebSocketEndpoint string

	LambdaFunctionName string

	// StorageBackend is "dynamodb" or "memory"
	StorageBackend string

	// Logging
	LogLevel string

	// Authentication
	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration
	BcryptCost     int

	// Emotion analysis
	DayBoundaryTZ       string
	ReclassifyOnEdit    bool
	LexiconFile         string
	UserCacheTTLSeconds int
	AuthRateLimitPerMin int

	// Language model
	LLMProvider     string
	LLMModel        string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	OTelEndpoint  string
	CORSOrigins   []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		TableName:         getEnv("TABLE_NAME", "neurotype"),
		GSI1IndexName:     getEnv("GSI1_INDEX_NAME", "GSI1"),
		EventBusName:      getEnv("EVENT_BUS_NAME", ""),
		PhotoBucket:       getEnv("PHOTO_BUCKET", ""),
		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),
		StorageBackend:    getEnv("STORAGE_BACKEND", "dynamodb"),

		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		JWTIssuer:      getEnv("JWT_ISSUER", "neurotype"),
		AccessTokenTTL: time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 30)) * time.Minute,
		BcryptCost:     getEnvInt("BCRYPT_COST", 10),

		DayBoundaryTZ:       getEnv("DAY_BOUNDARY_TZ", "UTC"),
		ReclassifyOnEdit:    getEnvBool("NOTES_RECLASSIFY_ON_EDIT", false),
		LexiconFile:         getEnv("CONFIG_FILE", ""),
		UserCacheTTLSeconds: getEnvInt("USER_CACHE_TTL_SECONDS", 60),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 10),

		LLMProvider:     getEnv("LLM_PROVIDER", "canned"),
		LLMModel:        getEnv("LLM_MODEL", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		OTelEndpoint:  getEnv("OTEL_ENDPOINT", "localhost:4317"),
		CORSOrigins:   getEnvList("CORS_ORIGINS", []string{"*"}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.DayBoundaryTZ); err != nil {
		return fmt.Errorf("DAY_BOUNDARY_TZ %q: %w", c.DayBoundaryTZ, err)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_MINUTES must be positive")
	}

	switch c.StorageBackend {
	case "dynamodb", "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be dynamodb or memory, got %q", c.StorageBackend)
	}

	switch c.LLMProvider {
	case "canned":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=anthropic")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageBackend == "dynamodb" && c.TableName == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
	}
	return nil
}

// Location is the time zone that decides where one day ends
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DayBoundaryTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsLambda reports whether the process runs inside AWS Lambda
func (c *Config) IsLambda() bool {
	return c.LambdaFunctionName != ""
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
