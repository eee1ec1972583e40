package common

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joseph-ayodele/payment-desk/constants"
)

// EnvPrefix prefixes every environment override, e.g. PAYMENTD_POLL_INTERVAL.
const EnvPrefix = "PAYMENTD"

// Store drivers.
const (
	StoreDriverFile     = "file"
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Dirs   DirsConfig   `mapstructure:"dirs"`
	Poll   PollConfig   `mapstructure:"poll"`
	Store  StoreConfig  `mapstructure:"store"`
	Health HealthConfig `mapstructure:"health"`
	Log    LogConfig    `mapstructure:"log"`
}

// DirsConfig holds the directories the service reads and writes
type DirsConfig struct {
	Requests  string `mapstructure:"requests"`
	Responses string `mapstructure:"responses"`
	Receipts  string `mapstructure:"receipts"`
	Logs      string `mapstructure:"logs"`
}

// PollConfig holds poll loop configuration
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// StoreConfig holds receipt store configuration
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
}

// HealthConfig holds the gRPC health endpoint configuration; empty Addr disables it
type HealthConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds operational logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dirs.requests", "requests")
	v.SetDefault("dirs.responses", "responses")
	v.SetDefault("dirs.receipts", "receipts")
	v.SetDefault("dirs.logs", "logs")
	v.SetDefault("poll.interval", 2*time.Second)
	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("store.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("store.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("store.dial_timeout", 3*time.Second)
	v.SetDefault("health.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig loads configuration from defaults, an optional YAML file and
// PAYMENTD_* environment variables, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read config %s", path), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "decode config", err)
	}
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Dirs.Requests == "" || c.Dirs.Responses == "" || c.Dirs.Receipts == "" || c.Dirs.Logs == "" {
		return NewAppError("CONFIG_ERROR", "all directories (requests, responses, receipts, logs) are required", ErrInvalidInput)
	}
	if c.Poll.Interval <= 0 {
		return NewAppError("CONFIG_ERROR", "poll.interval must be positive", ErrInvalidInput)
	}
	switch c.Store.Driver {
	case StoreDriverFile:
	case StoreDriverSQLite, StoreDriverPostgres:
		if c.Store.DSN == "" {
			return NewAppError("CONFIG_ERROR", fmt.Sprintf("store.dsn is required for driver %q", c.Store.Driver), ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown store.driver %q", c.Store.Driver), ErrInvalidInput)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return NewAppError("CONFIG_ERROR", "log.level", err)
	}
	return nil
}

// AuditLogPath is the audit log file inside the logs directory.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.Dirs.Logs, constants.AuditLogFile)
}

// EnsureDirs creates every configured directory that does not exist yet.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Dirs.Requests, c.Dirs.Responses, c.Dirs.Receipts, c.Dirs.Logs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapError(err, "create directory "+dir)
		}
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// NewLogger builds the operational logger described by the config. It writes
// to stderr so command output on stdout stays clean.
func (l LogConfig) NewLogger() *slog.Logger {
	level, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
