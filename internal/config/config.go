package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	// Catalog API
	TMDb TMDbConfig `yaml:"tmdb"`

	// Watchlist persistence
	Storage StorageConfig `yaml:"storage"`

	// Orchestration
	Browse  BrowseConfig  `yaml:"browse"`
	Details DetailsConfig `yaml:"details"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDbConfig holds catalog API configuration
type TMDbConfig struct {
	APIKey      string        `yaml:"api_key"` // v4 read access token, sent as Bearer
	BaseURL     string        `yaml:"base_url,omitempty"`
	Language    string        `yaml:"language,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxAttempts int           `yaml:"max_attempts,omitempty"` // 1 disables retry
}

// StorageConfig selects the watchlist database
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite3" or "postgres"
	DSN    string `yaml:"dsn,omitempty"`
}

// BrowseConfig tunes the list/search orchestrator
type BrowseConfig struct {
	Debounce       time.Duration `yaml:"debounce,omitempty"`
	MinQueryLength int           `yaml:"min_query_length,omitempty"`
}

// DetailsConfig tunes the details aggregator
type DetailsConfig struct {
	CreditConcurrency int `yaml:"credit_concurrency,omitempty"`
	TopN              int `yaml:"top_n,omitempty"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"
	DataDir  string `yaml:"data_dir"`  // Directory for the SQLite watchlist
}

// Defaults applied by setDefaults.
const (
	DefaultBaseURL        = "https://api.themoviedb.org/3"
	DefaultLanguage       = "en-US"
	DefaultTimeout        = 30 * time.Second
	DefaultDebounce       = 300 * time.Millisecond
	DefaultMinQueryLength = 3
	DefaultTopN           = 5
	sqliteFileName        = "watchlist.db"
)

var validLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory, expected a file", path)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() {
	// TMDb
	if v := os.Getenv("CINESHELF_TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("CINESHELF_TMDB_BASE_URL"); v != "" {
		c.TMDb.BaseURL = v
	}
	if v := os.Getenv("CINESHELF_TMDB_LANGUAGE"); v != "" {
		c.TMDb.Language = v
	}

	// Storage
	if v := os.Getenv("CINESHELF_STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("CINESHELF_STORAGE_DSN"); v != "" {
		c.Storage.DSN = v
	}

	// Browse
	if v := os.Getenv("CINESHELF_BROWSE_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Browse.Debounce = d
		} else {
			c.Browse.Debounce = -1 // rejected by Validate
		}
	}

	// Telegram
	c.Telegram = applyTelegramEnv(c.Telegram, "CINESHELF_TELEGRAM_BOT_TOKEN", "CINESHELF_TELEGRAM_ALLOWED_USER_IDS")

	// App
	if v := os.Getenv("CINESHELF_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("CINESHELF_DATA_DIR"); v != "" {
		c.App.DataDir = v
	}
}

// applyTelegramEnv creates or updates the Telegram section from env vars.
// A nil section stays nil unless the token variable is set.
func applyTelegramEnv(tc *TelegramConfig, tokenEnv, usersEnv string) *TelegramConfig {
	token := os.Getenv(tokenEnv)
	users := os.Getenv(usersEnv)
	if tc == nil {
		if token == "" {
			return nil
		}
		tc = &TelegramConfig{}
	}
	if token != "" {
		tc.BotToken = token
	}
	if users != "" {
		var ids []int64
		for _, part := range strings.Split(users, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		tc.AllowedUserIDs = ids
	}
	return tc
}

// Validate fills in defaults and validates the configuration
func (c *Config) Validate() error {
	c.setDefaults()

	if c.TMDb.APIKey == "" {
		return fmt.Errorf("tmdb.api_key is required")
	}
	if err := validateURL(c.TMDb.BaseURL, "tmdb.base_url"); err != nil {
		return err
	}
	if c.TMDb.Timeout < 0 {
		return fmt.Errorf("tmdb.timeout must not be negative")
	}
	if c.TMDb.MaxAttempts < 1 {
		return fmt.Errorf("tmdb.max_attempts must be at least 1")
	}

	switch c.Storage.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("storage.driver must be 'sqlite3' or 'postgres'")
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for driver 'postgres'")
	}

	if c.Browse.Debounce < 0 {
		return fmt.Errorf("browse.debounce must be a positive duration")
	}
	if c.Browse.MinQueryLength < 1 {
		return fmt.Errorf("browse.min_query_length must be at least 1")
	}
	if c.Details.CreditConcurrency < 1 {
		return fmt.Errorf("details.credit_concurrency must be at least 1")
	}
	if c.Details.TopN < 1 {
		return fmt.Errorf("details.top_n must be at least 1")
	}

	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}

	if !isValidLogLevel(c.App.LogLevel) {
		return fmt.Errorf("app.log_level must be one of %s", strings.Join(validLogLevels, ", "))
	}

	return nil
}

// setDefaults fills zero values. Negative values are kept so Validate can reject them.
func (c *Config) setDefaults() {
	if c.TMDb.BaseURL == "" {
		c.TMDb.BaseURL = DefaultBaseURL
	}
	if c.TMDb.Language == "" {
		c.TMDb.Language = DefaultLanguage
	}
	if c.TMDb.Timeout == 0 {
		c.TMDb.Timeout = DefaultTimeout
	}
	if c.TMDb.MaxAttempts == 0 {
		c.TMDb.MaxAttempts = 1
	}

	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.DataDir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			c.App.DataDir = filepath.Join(homeDir, ".cineshelf")
		} else {
			c.App.DataDir = ".cineshelf"
		}
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite3"
	}
	if c.Storage.Driver == "sqlite3" && c.Storage.DSN == "" {
		c.Storage.DSN = filepath.Join(c.App.DataDir, sqliteFileName)
	}

	if c.Browse.Debounce == 0 {
		c.Browse.Debounce = DefaultDebounce
	}
	if c.Browse.MinQueryLength == 0 {
		c.Browse.MinQueryLength = DefaultMinQueryLength
	}
	if c.Details.CreditConcurrency == 0 {
		c.Details.CreditConcurrency = 1
	}
	if c.Details.TopN == 0 {
		c.Details.TopN = DefaultTopN
	}
}

func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing host", field)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	for _, l := range validLogLevels {
		if strings.EqualFold(level, l) {
			return true
		}
	}
	return false
}
