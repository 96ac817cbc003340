// Package config provides configuration management for the scraping engine.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultWorkers         = 5
	DefaultMaxRetries      = 3
	DefaultRetryBaseDelay  = time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultRunTimeout      = 30 * time.Minute
	DefaultHostMinDelay    = 2 * time.Second
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	DefaultDBHost          = "localhost"
	DefaultDBPort          = "5432"
	DefaultDBUser          = "postgres"
	DefaultDBName          = "bidcrawl"
	DefaultDBSSLMode       = "disable"
	DefaultServerAddress   = ":8070"
	DefaultListSchedule    = "0 */4 * * *"
	DefaultDetailSchedule  = "30 */4 * * *"
	DefaultLogLevel        = "info"
	DefaultLogEncoding     = "console"
	DefaultMaxResponseSize = 10 * 1024 * 1024
)

// Config is the root configuration for all commands.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// ScraperConfig holds scraping engine settings.
type ScraperConfig struct {
	// Workers bounds how many organizations are processed concurrently.
	Workers int `mapstructure:"workers"`
	// MaxRetries bounds per-fetch retry attempts.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	// RequestTimeout applies to each HTTP request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RunTimeout cancels in-flight fetches for a whole run.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
	// HostMinDelay is the minimum spacing between requests to one host.
	HostMinDelay time.Duration `mapstructure:"host_min_delay"`
	// UserAgent is sent on every request.
	UserAgent string `mapstructure:"user_agent"`
	// MaxResponseSize limits fetched page bodies in bytes.
	MaxResponseSize int64 `mapstructure:"max_response_size"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ServerConfig holds the ops HTTP API settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SchedulerConfig holds cron expressions for the two pipelines.
type SchedulerConfig struct {
	ListSchedule   string `mapstructure:"list_schedule"`
	DetailSchedule string `mapstructure:"detail_schedule"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// Validation errors.
var (
	ErrInvalidWorkers = errors.New("scraper.workers must be positive")
	ErrInvalidRetries = errors.New("scraper.max_retries must not be negative")
)

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Scraper.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Scraper.MaxRetries < 0 {
		return ErrInvalidRetries
	}
	if c.Database.Host == "" || c.Database.Port == "" {
		return fmt.Errorf("database host and port are required")
	}
	return nil
}

// ApplyDefaults fills zero values with production-safe defaults.
func (c *Config) ApplyDefaults() {
	if c.Scraper.Workers == 0 {
		c.Scraper.Workers = DefaultWorkers
	}
	if c.Scraper.MaxRetries == 0 {
		c.Scraper.MaxRetries = DefaultMaxRetries
	}
	if c.Scraper.RetryBaseDelay == 0 {
		c.Scraper.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.Scraper.RequestTimeout == 0 {
		c.Scraper.RequestTimeout = DefaultRequestTimeout
	}
	if c.Scraper.RunTimeout == 0 {
		c.Scraper.RunTimeout = DefaultRunTimeout
	}
	if c.Scraper.HostMinDelay == 0 {
		c.Scraper.HostMinDelay = DefaultHostMinDelay
	}
	if c.Scraper.UserAgent == "" {
		c.Scraper.UserAgent = DefaultUserAgent
	}
	if c.Scraper.MaxResponseSize == 0 {
		c.Scraper.MaxResponseSize = DefaultMaxResponseSize
	}
	if c.Database.Host == "" {
		c.Database.Host = DefaultDBHost
	}
	if c.Database.Port == "" {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.User == "" {
		c.Database.User = DefaultDBUser
	}
	if c.Database.DBName == "" {
		c.Database.DBName = DefaultDBName
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
	if c.Scheduler.ListSchedule == "" {
		c.Scheduler.ListSchedule = DefaultListSchedule
	}
	if c.Scheduler.DetailSchedule == "" {
		c.Scheduler.DetailSchedule = DefaultDetailSchedule
	}
	if c.Logger.Level == "" {
		c.Logger.Level = DefaultLogLevel
	}
	if c.Logger.Encoding == "" {
		c.Logger.Encoding = DefaultLogEncoding
	}
}
