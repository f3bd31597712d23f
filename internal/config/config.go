package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported values of DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultSQLiteDSN = "file:sales.db?_time_format=sqlite"

// Config holds application configuration values.
type Config struct {
	Env          string
	HTTPPort     string
	APIPrefix    string
	DBDriver     string
	DatabaseURL  string
	MaxOpenConns int
	SeedCSV      string
}

// Development reports whether the service runs with development logging.
func (c Config) Development() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load reads an optional .env file and then the environment, applying
// defaults for everything except the PostgreSQL connection string.
func Load(envFiles ...string) (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(envFiles...)

	cfg := Config{
		Env:          strings.ToLower(getenv("APP_ENV", "production")),
		HTTPPort:     getenv("HTTP_PORT", "8081"),
		APIPrefix:    getenv("API_PREFIX", "/api/sales"),
		DBDriver:     strings.ToLower(getenv("DATABASE_DRIVER", DriverPostgres)),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MaxOpenConns: 10,
		SeedCSV:      strings.TrimSpace(os.Getenv("SEED_CSV")),
	}

	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		return Config{}, errors.New("HTTP_PORT must be numeric")
	}

	if v := strings.TrimSpace(os.Getenv("DB_MAX_OPEN_CONNS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errors.New("DB_MAX_OPEN_CONNS must be a positive integer")
		}
		cfg.MaxOpenConns = n
	}

	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		cfg.APIPrefix = "/" + cfg.APIPrefix
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is not set")
		}
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = defaultSQLiteDSN
		}
	default:
		return Config{}, errors.New("DATABASE_DRIVER must be postgres or sqlite")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
