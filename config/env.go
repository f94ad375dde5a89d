package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction = "production"

	devJWTSecret = "dev_secret"
)

type Config struct {
	Env            string
	HTTP           HTTPConfig
	Redis          RedisConfig
	Reconciliation ServiceConfig
	Patient        ServiceConfig
	Auth           AuthConfig
	DayClose       DayCloseConfig
	Billing        BillingConfig
}

type HTTPConfig struct {
	Port      string
	RateLimit string
}

// ServiceConfig describes one gRPC service: where it listens and which database it owns.
type ServiceConfig struct {
	GRPCAddr string
	DSN      string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type DayCloseConfig struct {
	Timeout     time.Duration
	LowStockTTL time.Duration
}

type BillingConfig struct {
	OverdueCacheTTL time.Duration
}

// LoadConfig reads the environment. Outside production a missing JWT_SECRET
// falls back to a fixed development value; in production it is an error.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	cfg := Config{
		Env: getEnv("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Port:      getEnv("HTTP_PORT", "8080"),
			RateLimit: getEnv("RATE_LIMIT", "60-M"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Reconciliation: ServiceConfig{
			GRPCAddr: getEnv("RECONCILIATION_GRPC_ADDR", "localhost:50061"),
			DSN:      getEnv("RECONCILIATION_DSN", ""),
		},
		Patient: ServiceConfig{
			GRPCAddr: getEnv("PATIENT_GRPC_ADDR", "localhost:50062"),
			DSN:      getEnv("PATIENT_DSN", ""),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  getDuration("JWT_TTL", 12*time.Hour),
		},
		DayClose: DayCloseConfig{
			Timeout:     getDuration("DAY_CLOSE_TIMEOUT", 15*time.Second),
			LowStockTTL: getDuration("LOW_STOCK_CACHE_TTL", 30*time.Minute),
		},
		Billing: BillingConfig{
			OverdueCacheTTL: getDuration("OVERDUE_CACHE_TTL", 5*time.Minute),
		},
	}

	if cfg.Auth.JWTSecret == "" && cfg.Env != EnvProduction {
		cfg.Auth.JWTSecret = devJWTSecret
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate rejects settings that are only acceptable outside production.
func (c Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set when APP_ENV=production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid %s value %q, defaulting to %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
