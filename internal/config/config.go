package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteReadOnly        bool
	SQLiteLogQueries      bool
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration

	// MigrateOnStart applies the embedded schema migrations before serving.
	// Only valid when the database is opened read-write.
	MigrateOnStart bool

	// DBStatsInterval of 0 disables periodic pool statistics logging.
	DBStatsInterval time.Duration

	// RateLimitRPS of 0 disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int

	// Fixed lower bounds for the trailing-year endpoints. The dataset is
	// static, so these are literal dates rather than offsets from now.
	PrecipitationSince time.Time
	TobsSince          time.Time
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	driver := envOr("SQLITE_DRIVER", "sqlite3")
	dsn := strings.TrimSpace(os.Getenv("SQLITE_DSN"))
	path := envOr("SQLITE_PATH", "Resources/hawaii.sqlite")

	readOnly, err := envBool("SQLITE_READ_ONLY", true)
	if err != nil {
		return Config{}, err
	}
	logQueries, err := envBool("SQLITE_LOG_QUERIES", false)
	if err != nil {
		return Config{}, err
	}

	maxOpenConns, err := envInt("SQLITE_MAX_OPEN_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := envInt("SQLITE_MAX_IDLE_CONNS", 4)
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := envOr("SQLITE_CONN_MAX_LIFETIME", "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SQLITE_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	migrateOnStart, err := envBool("DB_MIGRATE", false)
	if err != nil {
		return Config{}, err
	}
	if migrateOnStart && readOnly {
		return Config{}, errors.New("DB_MIGRATE=true requires SQLITE_READ_ONLY=false")
	}

	statsIntervalStr := envOr("DB_STATS_INTERVAL", "0s")
	statsInterval, err := time.ParseDuration(statsIntervalStr)
	if err != nil || statsInterval < 0 {
		return Config{}, fmt.Errorf("invalid DB_STATS_INTERVAL %q (expected duration >= 0)", statsIntervalStr)
	}

	rpsStr := envOr("RATE_LIMIT_RPS", "0")
	rps, err := strconv.ParseFloat(rpsStr, 64)
	if err != nil || rps < 0 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_RPS %q (expected number >= 0)", rpsStr)
	}
	burst, err := envInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return Config{}, err
	}
	if rps > 0 && burst < 1 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_BURST %d (must be >= 1 when RATE_LIMIT_RPS > 0)", burst)
	}

	precipSince, err := envDate("PRECIPITATION_SINCE", "2016-08-23")
	if err != nil {
		return Config{}, err
	}
	tobsSince, err := envDate("TOBS_SINCE", "2016-08-18")
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteReadOnly:        readOnly,
		SQLiteLogQueries:      logQueries,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		MigrateOnStart:        migrateOnStart,
		DBStatsInterval:       statsInterval,
		RateLimitRPS:          rps,
		RateLimitBurst:        burst,
		PrecipitationSince:    precipSince,
		TobsSince:             tobsSince,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q (expected true or false)", key, s)
	}
	return b, nil
}

func envDate(key, def string) (time.Time, error) {
	s := envOr(key, def)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q (expected YYYY-MM-DD)", key, s)
	}
	return t, nil
}
