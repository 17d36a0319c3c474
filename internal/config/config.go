package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Env         string
	Port        int
	StoreDriver string
	DBURL       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret    string
	StoreTimeout time.Duration
	BcryptCost   int

	OTLPEndpoint   string
	AllowedOrigins []string
	AuthRateLimit  int
	AuthRateWindow time.Duration
	MaxBodyBytes   int64
}

// Load reads a .env file when present and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           getEnvInt("PORT", 8080),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DBURL:          getEnv("DATABASE_URL", buildDBURL()),
		RedisAddr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		JWTSecret:      getEnv("JWT_SECRET_KEY", ""),
		StoreTimeout:   time.Duration(getEnvInt("STORE_TIMEOUT_MS", 2000)) * time.Millisecond,
		BcryptCost:     getEnvInt("BCRYPT_COST", 0),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		AuthRateLimit:  getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow: time.Duration(getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

var (
	ErrUnknownDriver  = errors.New("unknown store driver")
	ErrMissingSecret  = errors.New("JWT_SECRET_KEY is required")
	ErrSecretTooShort = errors.New("JWT_SECRET_KEY must be at least 32 bytes in prod")
)

// Validate rejects configurations the server must not start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.StoreDriver)
	}

	if c.JWTSecret == "" && c.Env != "dev" {
		return ErrMissingSecret
	}

	if c.Env == "prod" && len(c.JWTSecret) < 32 {
		return ErrSecretTooShort
	}

	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT_MS must be positive")
	}

	return nil
}

// SigningSecret falls back to a fixed development secret so `make run` works
// without any environment. Validate refuses an empty secret outside dev.
func (c Config) SigningSecret() string {
	if c.JWTSecret == "" {
		return "dev-only-insecure-secret"
	}
	return c.JWTSecret
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "dogwalker")
	pass := getEnv("DB_PASSWORD", "dogwalker")
	name := getEnv("DB_NAME", "dogwalker")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
