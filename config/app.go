package config

import "time"

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// App is read from an optional YAML file. Load then applies environment
// overrides; the variable for each field is named next to it.
type App struct {
	Port           string        `yaml:"port"`            // APP_PORT
	Env            string        `yaml:"env"`             // APP_ENV
	Storage        string        `yaml:"storage"`         // STORAGE
	DatabaseURL    string        `yaml:"database_url"`    // DATABASE_URL
	JWTSecret      string        `yaml:"jwt_secret"`      // JWT_SECRET
	LogLevel       string        `yaml:"log_level"`       // LOG_LEVEL
	RequestTimeout time.Duration `yaml:"request_timeout"` // REQUEST_TIMEOUT
	DBMaxConns     int32         `yaml:"db_max_conns"`    // DB_MAX_CONNS
	DBMinConns     int32         `yaml:"db_min_conns"`    // DB_MIN_CONNS

	// OTLPEndpoint is a collector host:port. Empty disables trace and metric export.
	OTLPEndpoint    string        `yaml:"otlp_endpoint"`    // OTLP_ENDPOINT
	OTLPInsecure    bool          `yaml:"otlp_insecure"`    // OTLP_INSECURE
	MetricsInterval time.Duration `yaml:"metrics_interval"` // METRICS_INTERVAL
}
