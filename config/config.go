package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const (
	defaultPort               = "8080"
	defaultDatabasePath       = "people.db"
	defaultPageSize           = 10
	defaultDBQueueSize        = 200
	defaultNumDBWorkers       = 4
	defaultDBOperationTimeout = 5 * time.Second
	defaultAllowedOrigin      = "http://localhost:8080"
)

type Config struct {
	Port string

	// database connection
	DatabaseDriver string
	DatabasePath   string // sqlite file, ignored for other drivers
	DatabaseDSN    string // full DSN, takes precedence over DatabasePath
	AutoMigrate    bool

	// list view
	PageSize int

	// database executor settings
	DBQueueSize        int
	NumDBWorkers       int
	DBOperationTimeout time.Duration

	// flash cookie signing key, empty means generate one at startup
	SessionSecret string

	LogLevel       string
	LogDevelopment bool

	CORSAllowedOrigins []string

	// Warnings lists the invalid settings that were replaced by defaults.
	// They are logged once the logger exists.
	Warnings []string
}

// envReader reads typed settings and collects a warning for every value it
// had to replace with its default.
type envReader struct {
	warnings []string
}

func (e *envReader) warnf(format string, args ...interface{}) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (e *envReader) getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		e.warnf("Invalid %s '%s'. Using default %d.", envVar, valStr, defaultVal)
		return defaultVal
	}
	return val
}

func (e *envReader) getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		e.warnf("Invalid %s '%s'. Using default %t.", envVar, valStr, defaultVal)
		return defaultVal
	}
	return val
}

func (e *envReader) getEnvDurationOrDefault(envVar string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil || val <= 0 {
		e.warnf("Invalid %s '%s'. Using default %s.", envVar, valStr, defaultVal)
		return defaultVal
	}
	return val
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	driver := strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverSQLite))
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER '%s' (want sqlite, postgres or mysql)", driver)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" && driver != DriverSQLite {
		return Config{}, fmt.Errorf("DATABASE_DSN is required for driver '%s'", driver)
	}

	var env envReader
	cfg := Config{
		Port:               getEnvOrDefault("PORT", defaultPort),
		DatabaseDriver:     driver,
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
		DatabaseDSN:        dsn,
		AutoMigrate:        env.getEnvBoolOrDefault("AUTO_MIGRATE", true),
		PageSize:           env.getEnvIntOrDefault("PAGE_SIZE", defaultPageSize),
		DBQueueSize:        env.getEnvIntOrDefault("DB_QUEUE_SIZE", defaultDBQueueSize),
		NumDBWorkers:       env.getEnvIntOrDefault("DB_WORKERS", defaultNumDBWorkers),
		DBOperationTimeout: env.getEnvDurationOrDefault("DB_OPERATION_TIMEOUT", defaultDBOperationTimeout),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		LogLevel:           strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogDevelopment:     env.getEnvBoolOrDefault("LOG_DEVELOPMENT", false),
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigin)),
	}
	cfg.Warnings = env.warnings

	return cfg, nil
}

// DataSourceName returns the DSN handed to the gorm driver. For sqlite the
// file path is extended with the pragmas the store relies on: foreign keys,
// WAL, a busy timeout and immediate write locks for transactions.
func (c Config) DataSourceName() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	return SQLiteDSN(c.DatabasePath)
}

func SQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
}
