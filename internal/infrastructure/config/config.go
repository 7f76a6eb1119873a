package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var driverAliases = map[string]string{
	"sqlite":     DriverSQLite,
	"sqlite3":    DriverSQLite,
	"postgres":   DriverPostgres,
	"postgresql": DriverPostgres,
	"pgx":        DriverPostgres,
	"mysql":      DriverMySQL,
}

// CanonicalDriver maps a driver name or one of its aliases, in any case, to
// the matching Driver constant.
func CanonicalDriver(name string) (string, bool) {
	driver, ok := driverAliases[strings.ToLower(strings.TrimSpace(name))]
	return driver, ok
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	OTLP     OTLPConfig     `yaml:"otlp"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	DSN             string        `yaml:"dsn" env:"DB_DSN" env-default:"file:products.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"`
	MaxOpenConns    int           `yaml:"max-open-conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
	MaxIdleConns    int           `yaml:"max-idle-conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn-max-lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnectTimeout  time.Duration `yaml:"connect-timeout" env:"DB_CONNECT_TIMEOUT" env-default:"30s"`
	AutoMigrate     bool          `yaml:"auto-migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type OTLPConfig struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"products-api"`
	Environment string `yaml:"environment" env:"OTEL_ENVIRONMENT" env-default:"development"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// LoadConfig loads configuration from an optional YAML file, then from environment variables
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	if _, ok := CanonicalDriver(c.Database.Driver); !ok {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses the configured log level
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	return level, nil
}

// Usage describes the supported environment variables
func Usage() string {
	usage, _ := cleanenv.GetDescription(&Config{}, nil)
	return usage
}
