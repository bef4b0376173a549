package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the watcher daemon
type Config struct {
	// Twitter login and watch list
	Twitter TwitterConfig `yaml:"twitter" json:"twitter"`

	// Discord webhook addressing and embed styling
	Discord DiscordConfig `yaml:"discord" json:"discord"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Scraper timing and pagination settings
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// History store settings
	History HistoryConfig `yaml:"history" json:"history"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TwitterConfig holds the login credentials and the accounts to watch
type TwitterConfig struct {
	Login LoginConfig            `yaml:"login" json:"login"`
	Watch map[string]WatchConfig `yaml:"watch" json:"watch"`
}

// LoginConfig holds the credentials the browser login flow types.
// Both fields may be left empty when credentials come from the auth store.
type LoginConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// WatchConfig holds the per-account relay settings
type WatchConfig struct {
	Webhook         string `yaml:"webhook" json:"webhook"`
	History         string `yaml:"history" json:"history"`
	Posts           bool   `yaml:"posts" json:"posts"`
	Reposts         bool   `yaml:"reposts" json:"reposts"`
	Pinned          bool   `yaml:"pinned" json:"pinned"`
	WithImages      bool   `yaml:"with-images" json:"with_images"`
	WithVideos      bool   `yaml:"with-videos" json:"with_videos"`
	WithoutMedia    bool   `yaml:"without-media" json:"without_media"`
	IntervalSeconds int    `yaml:"interval_seconds" json:"interval_seconds"`
}

// DiscordConfig holds webhook addresses and delivery settings
type DiscordConfig struct {
	Webhooks          map[string]string `yaml:"webhooks" json:"webhooks"`
	Embed             EmbedConfig       `yaml:"embed" json:"embed"`
	RequestsPerMinute int               `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int               `yaml:"max_retries" json:"max_retries"`
	DeliveryTimeout   time.Duration     `yaml:"delivery_timeout" json:"delivery_timeout"`
}

// EmbedConfig holds static embed styling applied to every payload
type EmbedConfig struct {
	Username  string `yaml:"username" json:"username"`
	AvatarURL string `yaml:"avatar_url" json:"avatar_url"`
	Color     int    `yaml:"color" json:"color"`
	Flags     int    `yaml:"flags" json:"flags"`
}

// BrowserConfig holds browser session settings
type BrowserConfig struct {
	Headless  bool           `yaml:"headless" json:"headless"`
	StateFile string         `yaml:"state_file" json:"state_file"`
	Viewport  ViewportConfig `yaml:"viewport" json:"viewport"`
}

// ViewportConfig holds the browser viewport dimensions
type ViewportConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// ScraperConfig holds timing constants for the scheduler and collector
type ScraperConfig struct {
	IdlePoll        time.Duration `yaml:"idle_poll" json:"idle_poll"`
	LoginBackoff    time.Duration `yaml:"login_backoff" json:"login_backoff"`
	SettleDelay     time.Duration `yaml:"settle_delay" json:"settle_delay"`
	ProbeTimeout    time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
	BulkMinimum     int           `yaml:"bulk_minimum" json:"bulk_minimum"`
	SteadyMinimum   int           `yaml:"steady_minimum" json:"steady_minimum"`
	MaxScrollPasses int           `yaml:"max_scroll_passes" json:"max_scroll_passes"`
}

// HistoryConfig holds history store settings
type HistoryConfig struct {
	File      string `yaml:"file" json:"file"`
	Normalize bool   `yaml:"normalize" json:"normalize"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Twitter: TwitterConfig{
			Watch: map[string]WatchConfig{},
		},
		Discord: DiscordConfig{
			Webhooks:          map[string]string{},
			RequestsPerMinute: 30,
			MaxRetries:        3,
			DeliveryTimeout:   15 * time.Second,
			Embed: EmbedConfig{
				Color: 0x1DA1F2,
			},
		},
		Browser: BrowserConfig{
			Headless:  true,
			StateFile: "state.json",
			Viewport: ViewportConfig{
				Width:  1280,
				Height: 1024,
			},
		},
		Scraper: ScraperConfig{
			IdlePoll:        30 * time.Second,
			LoginBackoff:    5 * time.Minute,
			SettleDelay:     5 * time.Second,
			ProbeTimeout:    500 * time.Millisecond,
			BulkMinimum:     40,
			SteadyMinimum:   10,
			MaxScrollPasses: 40,
		},
		History: HistoryConfig{
			File:      "history.json",
			Normalize: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration overrides from environment variables
func (c *Config) LoadFromEnv() error {
	if username := os.Getenv("XWATCH_USERNAME"); username != "" {
		c.Twitter.Login.Username = username
	}
	if password := os.Getenv("XWATCH_PASSWORD"); password != "" {
		c.Twitter.Login.Password = password
	}
	if stateFile := os.Getenv("XWATCH_STATE_FILE"); stateFile != "" {
		c.Browser.StateFile = stateFile
	}
	if headless := os.Getenv("XWATCH_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if historyFile := os.Getenv("XWATCH_HISTORY_FILE"); historyFile != "" {
		c.History.File = historyFile
	}
	if rpm := os.Getenv("XWATCH_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.Discord.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("XWATCH_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		"config.yaml",
		".xwatch.yaml",
		".xwatch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "xwatch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "xwatch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".xwatch.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// validHistoryModes are the two dedup scopes the history store understands.
// Exactly one applies per watch entry; anything else is rejected eagerly.
var validHistoryModes = map[string]bool{
	"":           true, // defaults to by-account
	"by-account": true,
	"by-author":  true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if len(c.Twitter.Watch) == 0 {
		errs = append(errs, errors.New("at least one watched account is required"))
	}

	for account, watch := range c.Twitter.Watch {
		if watch.Webhook == "" {
			errs = append(errs, fmt.Errorf("watch %q: webhook is required", account))
		} else if _, ok := c.Discord.Webhooks[watch.Webhook]; !ok {
			errs = append(errs, fmt.Errorf("watch %q: unknown webhook %q", account, watch.Webhook))
		}
		if !validHistoryModes[watch.History] {
			errs = append(errs, fmt.Errorf("watch %q: invalid history mode %q", account, watch.History))
		}
		if watch.IntervalSeconds < 0 {
			errs = append(errs, fmt.Errorf("watch %q: interval cannot be negative", account))
		}
	}

	if c.Discord.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Discord.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Browser.StateFile == "" {
		errs = append(errs, errors.New("browser state file is required"))
	}
	if c.Browser.Viewport.Width <= 0 || c.Browser.Viewport.Height <= 0 {
		errs = append(errs, errors.New("viewport dimensions must be positive"))
	}

	if c.Scraper.BulkMinimum <= 0 {
		errs = append(errs, errors.New("bulk minimum must be positive"))
	}
	if c.Scraper.SteadyMinimum <= 0 {
		errs = append(errs, errors.New("steady minimum must be positive"))
	}
	if c.Scraper.MaxScrollPasses <= 0 {
		errs = append(errs, errors.New("max scroll passes must be positive"))
	}

	if c.History.File == "" {
		errs = append(errs, errors.New("history file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Interval returns the minimum spacing between check starts for a watch entry
func (w WatchConfig) Interval() time.Duration {
	return time.Duration(w.IntervalSeconds) * time.Second
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Environment variables > .env file > Config file > Defaults
func Load(configPath string) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xwatch.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
