package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	Port              string
	StoreDriver       string
	MongoURI          string
	MongoDB           string
	StoreTimeout      time.Duration
	LockTimeout       time.Duration
	SessionSigningKey string
	SweepInterval     time.Duration
	ReconcileSchedule string
	RedisAddr         string
	NatsURL           string
	AllowedOrigins    []string
	CookieSecure      bool
	LogLevel          string
}

// LoadConfig reads the optional .env file, then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("No .env file loaded")
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:          getEnv("MONGO_URI", ""),
		MongoDB:           getEnv("MONGO_DB", "friendconnect"),
		StoreTimeout:      getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		LockTimeout:       getEnvAsDuration("LOCK_TIMEOUT", 10*time.Second),
		SessionSigningKey: getEnv("SESSION_SIGNING_KEY", ""),
		SweepInterval:     getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Second),
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "@every 1m"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		NatsURL:           getEnv("NATS_URL", ""),
		AllowedOrigins:    getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		CookieSecure:      getEnvAsBool("COOKIE_SECURE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem that would prevent start-up.
func (c *Config) Validate() error {
	if c.SessionSigningKey == "" {
		return fmt.Errorf("SESSION_SIGNING_KEY is required")
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo store driver")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
