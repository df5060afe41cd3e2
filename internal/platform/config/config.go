package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "leadership.config"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	TracingNone   = "none"
	TracingStdout = "stdout"
	TracingOTLP   = "otlp"
)

// Config is centralized process configuration. Defaults come from
// Default(), an optional YAML file overlays them, and LEADERSHIP_* environment
// variables win over both.
type Config struct {
	ServiceName        string        `yaml:"serviceName"        envconfig:"SERVICE_NAME"`
	HTTPPort           string        `yaml:"httpPort"           envconfig:"HTTP_PORT"`
	DatabaseDriver     string        `yaml:"databaseDriver"     envconfig:"DATABASE_DRIVER"`
	PostgresDSN        string        `yaml:"postgresDsn"        envconfig:"POSTGRES_DSN"`
	SQLitePath         string        `yaml:"sqlitePath"         envconfig:"SQLITE_PATH"`
	AutoMigrate        bool          `yaml:"autoMigrate"        envconfig:"AUTO_MIGRATE"`
	OperatorIDs        []string      `yaml:"operatorIds"        envconfig:"OPERATOR_IDS"`
	MetricsEnabled     bool          `yaml:"metricsEnabled"     envconfig:"METRICS_ENABLED"`
	TracingExporter    string        `yaml:"tracingExporter"    envconfig:"TRACING_EXPORTER"`
	OTLPEndpoint       string        `yaml:"otlpEndpoint"       envconfig:"OTLP_ENDPOINT"`
	OutboxPollInterval time.Duration `yaml:"outboxPollInterval" envconfig:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize    int           `yaml:"outboxBatchSize"    envconfig:"OUTBOX_BATCH_SIZE"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"    envconfig:"SHUTDOWN_TIMEOUT"`
}

func Default() Config {
	return Config{
		ServiceName:        "leadership-service",
		HTTPPort:           "8080",
		DatabaseDriver:     DriverSQLite,
		SQLitePath:         "leadership.db",
		AutoMigrate:        true,
		MetricsEnabled:     true,
		TracingExporter:    TracingNone,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		ShutdownTimeout:    15 * time.Second,
	}
}

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process("leadership", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
	if c.TracingExporter == "" {
		c.TracingExporter = TracingNone
	}
	operators := make([]string, 0, len(c.OperatorIDs))
	for _, id := range c.OperatorIDs {
		if id = strings.TrimSpace(id); id != "" {
			operators = append(operators, id)
		}
	}
	c.OperatorIDs = operators
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("postgres dsn is required when database driver is postgres")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("sqlite path is required when database driver is sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	switch c.TracingExporter {
	case TracingNone, TracingStdout, TracingOTLP:
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.TracingExporter)
	}
	if c.OutboxPollInterval <= 0 {
		return errors.New("outbox poll interval must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("outbox batch size must be positive")
	}
	return nil
}
