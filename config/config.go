package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort     string
	Environment    string
	AllowedOrigins string

	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// SlotInterval is the slot length in minutes for doctors without their own.
	SlotInterval int

	RateLimitMax        int
	RateLimitWindow     time.Duration
	BookingRateLimitMax int
	RateLimitFailOpen   bool

	CacheTTL time.Duration
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	raw := getEnvWithDefault(key, strconv.Itoa(defaultValue))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvWithDefault(key, defaultValue.String())
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load() // Ignore error since file might not exist in production

	env := strings.ToLower(getEnvWithDefault("ENVIRONMENT", "development"))
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[env] {
		return nil, fmt.Errorf("invalid environment value: %s", env)
	}

	mongoURL := os.Getenv("MONGODB_URL")
	if mongoURL == "" {
		return nil, fmt.Errorf("MONGODB_URL environment variable is required")
	}

	config := &Config{
		Environment:    env,
		ServerPort:     getEnvWithDefault("SERVER_PORT", "8080"),
		AllowedOrigins: getEnvWithDefault("ALLOWED_ORIGINS", "*"),
		MongoDBURL:     mongoURL,
		MongoDBName:    getEnvWithDefault("MONGODB_NAME", "hospital"),
		RedisURL:       os.Getenv("REDIS_URL"),
	}

	var err error
	if config.SlotInterval, err = getIntEnv("SLOT_INTERVAL_MINUTES", 30); err != nil {
		return nil, err
	}
	if config.RateLimitMax, err = getIntEnv("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if config.BookingRateLimitMax, err = getIntEnv("BOOKING_RATE_LIMIT_MAX", 10); err != nil {
		return nil, err
	}
	if config.RateLimitWindow, err = getDurationEnv("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if config.CacheTTL, err = getDurationEnv("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	failOpen := getEnvWithDefault("RATE_LIMIT_FAIL_OPEN", "true")
	if config.RateLimitFailOpen, err = strconv.ParseBool(failOpen); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_FAIL_OPEN %q: %w", failOpen, err)
	}

	return config, nil
}

// IsDevelopment returns whether the current environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns whether the current environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsStaging returns whether the current environment is staging
func (c *Config) IsStaging() bool {
	return c.Environment == "staging"
}
