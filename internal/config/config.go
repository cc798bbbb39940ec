// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"github.com/erazemk/estatedesk/internal/auth"
	"github.com/erazemk/estatedesk/internal/notify"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Production is the APP_ENV value that hides internal error detail.
const Production = "production"

// Config holds the process configuration.
type Config struct {
	Addr string
	Env  string

	StoreDriver   string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string

	// JWTSecret overrides the secret persisted in the store when set.
	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins []string

	AMQPURL      string
	AMQPExchange string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads the given .env files (".env" if none, silently skipped when
// missing) and then the environment. Variables already set in the
// environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	explicit := len(envFiles) > 0
	if !explicit {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	ttl, err := cast.ToDurationE(getEnv("TOKEN_TTL", auth.DefaultTTL.String()))
	if err != nil {
		return nil, fmt.Errorf("parsing TOKEN_TTL: %w", err)
	}

	cfg := &Config{
		Addr:          getEnv("ADDR", ":8080"),
		Env:           getEnv("APP_ENV", "development"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
		SQLitePath:    getEnv("SQLITE_PATH", "estatedesk.sqlite3"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnv("MONGO_DATABASE", "estatedesk"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTL:      ttl,
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "*")),
		AMQPURL:       os.Getenv("AMQP_URL"),
		AMQPExchange:  getEnv("AMQP_EXCHANGE", notify.DefaultExchange),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		LogFile:       os.Getenv("LOG_FILE"),
	}
	return cfg, nil
}

// Validate checks combinations Load cannot. Call it after applying flag
// overrides.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", c.StoreDriver, DriverSQLite, DriverMongo)
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}

// IsProduction reports whether internal error detail must be hidden.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, Production)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
