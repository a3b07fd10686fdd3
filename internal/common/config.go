package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	Storage      StorageConfig      `toml:"storage"`
	Logging      LoggingConfig      `toml:"logging"`
	AlphaVantage AlphaVantageConfig `toml:"alphavantage"`
	Cache        CacheConfig        `toml:"cache"`
	Refresh      RefreshConfig      `toml:"refresh"`
}

type StorageConfig struct {
	Type   string       `toml:"type" validate:"oneof=badger memory"` // "badger" (default) or "memory"
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	InMemory       bool   `toml:"in_memory"`        // Keep the database in memory only (path ignored)
	SyncWrites     bool   `toml:"sync_writes"`      // fsync every write
	GCOnClose      bool   `toml:"gc_on_close"`      // Run one value-log GC pass before closing
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for console/file output
	FileName   string   `toml:"file_name"`   // Log file name inside the logs directory
	Dir        string   `toml:"dir"`         // Logs directory (default: "logs" next to the executable)
}

// AlphaVantageConfig configures the upstream market-data provider.
type AlphaVantageConfig struct {
	BaseURL    string `toml:"base_url" validate:"required,url"`
	APIKey     string `toml:"api_key"`                    // Lowest priority; env and the KV store win
	Timeout    string `toml:"timeout"`                    // HTTP timeout as duration string (default: "30s")
	RateLimit  int    `toml:"rate_limit" validate:"gt=0"` // Requests per minute (free tier: 5)
	MaxReports int    `toml:"max_reports" validate:"gt=0,lte=5"`
}

// CacheConfig configures the local dataset and search caches.
type CacheConfig struct {
	DatasetTTL    string `toml:"dataset_ttl"`    // Freshness window as duration string (default: "24h")
	SearchEnabled bool   `toml:"search_enabled"` // Cache symbol searches by literal query text
}

// RefreshConfig configures the periodic refresh of the current selection.
type RefreshConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron spec with seconds, or "@every 60s"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path:      "./data",
				GCOnClose: true,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
			FileName:   "stockscan.log",
		},
		AlphaVantage: AlphaVantageConfig{
			BaseURL:    "https://www.alphavantage.co/query",
			Timeout:    "30s",
			RateLimit:  5, // Free tier: 5 requests per minute
			MaxReports: 5,
		},
		Cache: CacheConfig{
			DatasetTTL:    "24h",
			SearchEnabled: true,
		},
		Refresh: RefreshConfig{
			Enabled:  true,
			Schedule: "@every 60s",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKSCAN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if storageType := os.Getenv("STOCKSCAN_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("STOCKSCAN_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("STOCKSCAN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dir := os.Getenv("STOCKSCAN_LOG_DIR"); dir != "" {
		config.Logging.Dir = dir
	}
	if output := os.Getenv("STOCKSCAN_LOG_OUTPUT"); output != "" {
		var outputs []string
		for _, o := range strings.Split(output, ",") {
			if o = strings.TrimSpace(o); o != "" {
				outputs = append(outputs, o)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Alpha Vantage configuration
	if baseURL := os.Getenv("STOCKSCAN_ALPHAVANTAGE_BASE_URL"); baseURL != "" {
		config.AlphaVantage.BaseURL = baseURL
	}
	if timeout := os.Getenv("STOCKSCAN_ALPHAVANTAGE_TIMEOUT"); timeout != "" {
		config.AlphaVantage.Timeout = timeout
	}
	if rateLimit := os.Getenv("STOCKSCAN_ALPHAVANTAGE_RATE_LIMIT"); rateLimit != "" {
		if r, err := strconv.Atoi(rateLimit); err == nil {
			config.AlphaVantage.RateLimit = r
		}
	}

	// Cache configuration
	if ttl := os.Getenv("STOCKSCAN_CACHE_DATASET_TTL"); ttl != "" {
		config.Cache.DatasetTTL = ttl
	}

	// Refresh configuration
	if schedule := os.Getenv("STOCKSCAN_REFRESH_SCHEDULE"); schedule != "" {
		config.Refresh.Schedule = schedule
	}
	if enabled := os.Getenv("STOCKSCAN_REFRESH_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Refresh.Enabled = b
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config (highest priority)
func ApplyFlagOverrides(config *Config, logLevel string, dataPath string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if dataPath != "" {
		config.Storage.Badger.Path = dataPath
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.ParseDuration(c.AlphaVantage.Timeout); err != nil {
		return fmt.Errorf("invalid alphavantage.timeout %q: %w", c.AlphaVantage.Timeout, err)
	}
	if d, err := time.ParseDuration(c.Cache.DatasetTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid cache.dataset_ttl %q", c.Cache.DatasetTTL)
	}
	if c.Refresh.Enabled {
		if err := ValidateRefreshSchedule(c.Refresh.Schedule); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRefreshSchedule checks a cron spec (seconds field supported) or descriptor.
func ValidateRefreshSchedule(schedule string) error {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return nil
}

// HTTPTimeout returns the parsed upstream timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return parseDuration(c.AlphaVantage.Timeout, 30*time.Second)
}

// DatasetTTL returns the parsed dataset freshness window.
func (c *Config) DatasetTTL() time.Duration {
	return parseDuration(c.Cache.DatasetTTL, DefaultFreshnessWindow)
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
