package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps semantic problems found after loading. The App returned
// alongside it is fully populated.
var ErrInvalid = errors.New("invalid configuration")

// EnvConfigFile names the YAML file when no path is passed to Load.
const EnvConfigFile = "APP_CONFIG"

func defaults() App {
	return App{
		Port:            "8080",
		Env:             "dev",
		Storage:         StoragePostgres,
		LogLevel:        "info",
		RequestTimeout:  10 * time.Second,
		MetricsInterval: 30 * time.Second,
	}
}

// Load builds the configuration from defaults, the YAML file at path (or
// $APP_CONFIG) and the environment, in that order of precedence.
func Load(path string) (App, error) {
	cfg := defaults()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return App{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return App{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = getenv("APP_PORT", cfg.Port)
	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.Storage = strings.ToLower(getenv("STORAGE", cfg.Storage))
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getenv("JWT_SECRET", cfg.JWTSecret)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.OTLPEndpoint = getenv("OTLP_ENDPOINT", cfg.OTLPEndpoint)

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return App{}, err
	}
	if cfg.DBMaxConns, err = int32Env("DB_MAX_CONNS", cfg.DBMaxConns); err != nil {
		return App{}, err
	}
	if cfg.DBMinConns, err = int32Env("DB_MIN_CONNS", cfg.DBMinConns); err != nil {
		return App{}, err
	}
	if cfg.OTLPInsecure, err = boolEnv("OTLP_INSECURE", cfg.OTLPInsecure); err != nil {
		return App{}, err
	}
	if cfg.MetricsInterval, err = durationEnv("METRICS_INTERVAL", cfg.MetricsInterval); err != nil {
		return App{}, err
	}

	return cfg, cfg.validate()
}

func (a App) validate() error {
	var problems []error
	switch a.Storage {
	case StoragePostgres:
		if a.DatabaseURL == "" {
			problems = append(problems, errors.New("DATABASE_URL is required for postgres storage"))
		}
	case StorageMemory:
	default:
		problems = append(problems, fmt.Errorf("unknown storage %q", a.Storage))
	}
	if _, err := a.Level(); err != nil {
		problems = append(problems, err)
	}
	if a.OTLPEndpoint != "" && a.MetricsInterval <= 0 {
		problems = append(problems, errors.New("METRICS_INTERVAL must be positive when OTLP_ENDPOINT is set"))
	}
	if a.DBMinConns > a.DBMaxConns && a.DBMaxConns > 0 {
		problems = append(problems, errors.New("DB_MIN_CONNS exceeds DB_MAX_CONNS"))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
}

// Level parses LogLevel.
func (a App) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(a.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", a.LogLevel)
	}
	return l, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func boolEnv(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func int32Env(k string, def int32) (int32, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return int32(n), nil
}
