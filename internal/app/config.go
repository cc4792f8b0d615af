// Package app provides the application container that wires dependencies.
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/penflow/penflow-sync-service/pkg/util"
	"github.com/penflow/penflow-sync-service/pkg/workerpool"
	"github.com/penflow/penflow-sync-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig application configuration
type AppConfig struct {
	File     string         `yaml:"-"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	App      AppSettings    `yaml:"app"`
	User     UserConfig     `yaml:"user"`
	Security SecurityConfig `yaml:"security"`
	Task     TaskConfig     `yaml:"task"`
	Tracer   TracerConfig   `yaml:"tracer"`
}

// LogConfig log configuration
type LogConfig struct {
	// Level log level, see zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File log file path, stderr when empty
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production whether to emit JSON
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig server configuration
type ServerConfig struct {
	RunMode           string `yaml:"run-mode" default:"release"`
	HttpPort          string `yaml:"http-port" default:":9000"`
	ReadTimeout       int    `yaml:"read-timeout" default:"60"`
	WriteTimeout      int    `yaml:"write-timeout" default:"60"`
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// SecurityConfig security configuration
type SecurityConfig struct {
	// ShareTokenKey signing secret for read-only share tokens
	ShareTokenKey string `yaml:"share-token-key" default:"penflow-share"`
	// ShareTokenExpiry supports 7d / 24h / 30m forms
	ShareTokenExpiry string `yaml:"share-token-expiry" default:"30d"`
	// SessionExpiry lifetime of opaque session tokens
	SessionExpiry string `yaml:"session-expiry" default:"30d"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	Type            string `yaml:"type" default:"sqlite"`
	Path            string `yaml:"path" default:"storage/database/db.sqlite3"`
	UserName        string `yaml:"username"`
	Password        string `yaml:"password"`
	Host            string `yaml:"host"`
	Name            string `yaml:"name"`
	TablePrefix     string `yaml:"table-prefix" default:"pf_"`
	AutoMigrate     bool   `yaml:"auto-migrate" default:"true"`
	Charset         string `yaml:"charset" default:"utf8mb4"`
	ParseTime       bool   `yaml:"parse-time" default:"true"`
	MaxIdleConns    int    `yaml:"max-idle-conns" default:"10"`
	MaxOpenConns    int    `yaml:"max-open-conns" default:"100"`
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
}

// UserConfig user configuration
type UserConfig struct {
	// RegisterIsEnable whether signup is open
	RegisterIsEnable bool `yaml:"register-is-enable" default:"true"`
}

// AppSettings application settings
type AppSettings struct {
	// DefaultContextTimeout request deadline in seconds
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// AddChangeMaxRetries bounded retries for a lost append race
	AddChangeMaxRetries int `yaml:"add-change-max-retries" default:"3"`

	// Worker pool
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"100"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"1000"`

	// Write queue
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"100"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// TaskConfig scheduled task configuration
type TaskConfig struct {
	// SessionCleanupSchedule cron spec for expired session cleanup
	SessionCleanupSchedule string `yaml:"session-cleanup-schedule" default:"@every 1h"`
}

// TracerConfig request tracing configuration
type TracerConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Header  string `yaml:"header" default:"X-Trace-ID"`
}

// LoadConfig loads configuration from a file, applying defaults before and
// after parsing so empty YAML fields still pick up their defaults.
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save writes the configuration back to its file.
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig returns the worker pool configuration.
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig returns the write queue configuration.
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

// GetShareTokenExpiry returns the share token lifetime.
func (c *AppConfig) GetShareTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.ShareTokenExpiry); err == nil {
		return expiry
	}
	return 30 * 24 * time.Hour
}
