package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/ratings"
)

// DateLayout is the format of the download date range.
const DateLayout = "2006-01-02"

// Config represents the application configuration.
type Config struct {
	// Application configuration
	App AppConfig `toml:"app"`

	// Local API configuration
	API APIConfig `toml:"api"`

	// Synchronization worker configuration
	Worker WorkerConfig `toml:"worker"`

	// MTGA Helper account
	Account AccountConfig `toml:"account"`

	// 17Lands download defaults
	Download DownloadConfig `toml:"download"`

	// Rating upload defaults
	Upload UploadConfig `toml:"upload"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool   `toml:"debug_mode"` // Enable debug logging
	LogJSON   bool   `toml:"log_json"`   // Log as JSON instead of text
	DataDir   string `toml:"data_dir"`   // Database and key file directory

	BackupInterval string `toml:"backup_interval"` // Periodic database backups (e.g., "24h"), empty to disable
	BackupKeep     int    `toml:"backup_keep"`     // Newest backups kept, 0 keeps all
}

// APIConfig contains the local HTTP API settings.
type APIConfig struct {
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// WorkerConfig contains the synchronization worker settings.
type WorkerConfig struct {
	TickInterval      string `toml:"tick_interval"`   // Queue drain interval (e.g., "1s")
	RequestTimeout    string `toml:"request_timeout"` // Per-request HTTP timeout
	MTGAHelperURL     string `toml:"mtgahelper_url"`
	ScryfallURL       string `toml:"scryfall_url"`
	SeventeenLandsURL string `toml:"seventeenlands_url"`
	BreakerThreshold  int    `toml:"breaker_threshold"` // Consecutive MTGA Helper failures before the breaker opens
}

// AccountConfig contains the MTGA Helper credentials.
type AccountConfig struct {
	Username         string `toml:"username"`
	RememberPassword bool   `toml:"remember_password"`
	Password         string `toml:"password"` // Sealed with SealPassword, base64
}

// DownloadConfig contains the default 17Lands query.
type DownloadConfig struct {
	Format    string   `toml:"format"`     // Draft format (e.g., "PremierDraft")
	StartDate string   `toml:"start_date"` // YYYY-MM-DD, empty for no bound
	EndDate   string   `toml:"end_date"`   // YYYY-MM-DD, empty for no bound
	Sets      []string `toml:"sets"`
}

// UploadConfig contains the default rating calculation parameters.
type UploadConfig struct {
	Metric         string                  `toml:"metric"`
	CommentMetrics []ratings.CommentMetric `toml:"comment_metrics"`
	Locale         string                  `toml:"locale"`
	Clear          bool                    `toml:"clear"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			DebugMode:  false,
			DataDir:    "",
			BackupKeep: 5,
		},
		API: APIConfig{
			Port:           8420,
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Worker: WorkerConfig{
			TickInterval:      "1s",
			RequestTimeout:    "30s",
			MTGAHelperURL:     "https://api.mtgahelper.com",
			ScryfallURL:       "https://api.scryfall.com",
			SeventeenLandsURL: "https://www.17lands.com",
			BreakerThreshold:  10,
		},
		Download: DownloadConfig{
			Format: "PremierDraft",
		},
		Upload: UploadConfig{
			Metric: string(ratings.DrawnImprovementWinRate),
			CommentMetrics: []ratings.CommentMetric{
				{Metric: ratings.EverDrawnWinRate, Code: "GIH"},
				{Metric: ratings.DrawnImprovementWinRate, Code: "IWD"},
				{Metric: ratings.AvgSeen, Code: "ALSA"},
			},
			Locale: "en-US",
		},
	}
}

// DefaultDir returns the directory holding the config file, database and key.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mtga-ratings-sync"), nil
}

// DefaultPath returns the path to the configuration file.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from path. Returns default config if the file
// doesn't exist. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save writes the configuration to path, creating its directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file may carry a sealed password.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", c.API.Port)
	}

	if d, err := time.ParseDuration(c.Worker.TickInterval); err != nil {
		return fmt.Errorf("invalid tick interval %q: %w", c.Worker.TickInterval, err)
	} else if d <= 0 {
		return fmt.Errorf("tick interval must be positive: %s", c.Worker.TickInterval)
	}

	if _, err := time.ParseDuration(c.Worker.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.Worker.RequestTimeout, err)
	}

	if c.App.BackupInterval != "" {
		if d, err := time.ParseDuration(c.App.BackupInterval); err != nil {
			return fmt.Errorf("invalid backup interval %q: %w", c.App.BackupInterval, err)
		} else if d < time.Minute {
			return fmt.Errorf("backup interval must be at least a minute: %s", c.App.BackupInterval)
		}
	}
	if c.App.BackupKeep < 0 {
		return fmt.Errorf("backup keep cannot be negative: %d", c.App.BackupKeep)
	}

	if c.Worker.BreakerThreshold < 0 {
		return fmt.Errorf("breaker threshold cannot be negative: %d", c.Worker.BreakerThreshold)
	}

	for _, date := range []string{c.Download.StartDate, c.Download.EndDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("invalid download date %q: %w", date, err)
		}
	}

	if _, err := ratings.ParseMetric(c.Upload.Metric); err != nil {
		return fmt.Errorf("invalid upload metric: %w", err)
	}
	for _, cm := range c.Upload.CommentMetrics {
		if _, err := ratings.ParseMetric(string(cm.Metric)); err != nil {
			return fmt.Errorf("invalid comment metric: %w", err)
		}
		if cm.Code == "" {
			return fmt.Errorf("comment metric %s has no code", cm.Metric)
		}
	}

	return nil
}

// GetTickInterval returns the worker tick interval as a duration.
func (c *Config) GetTickInterval() (time.Duration, error) {
	return time.ParseDuration(c.Worker.TickInterval)
}

// GetBackupInterval returns the periodic backup interval, or 0 when disabled.
func (c *Config) GetBackupInterval() (time.Duration, error) {
	if c.App.BackupInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.App.BackupInterval)
}

// GetRequestTimeout returns the HTTP request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Worker.RequestTimeout)
}

// CalculationParams returns the configured upload defaults for the given sets.
func (c *Config) CalculationParams(sets []string) ratings.Params {
	return ratings.Params{
		Sets:           sets,
		Metric:         ratings.Metric(c.Upload.Metric),
		CommentMetrics: c.Upload.CommentMetrics,
		Locale:         c.Upload.Locale,
		Clear:          c.Upload.Clear,
	}
}
