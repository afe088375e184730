// Package config provides configuration management for the market advisor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "vnstock-advisor/internal/errors"
	"vnstock-advisor/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Market      MarketConfig    `mapstructure:"market"`
	Assistant   AssistantConfig `mapstructure:"assistant"`
	Knowledge   KnowledgeConfig `mapstructure:"knowledge"`
	Scan        ScanConfig      `mapstructure:"scan"`
	Server      ServerConfig    `mapstructure:"server"`
	Log         LogConfig       `mapstructure:"log"`
	Credentials Credentials     `mapstructure:"-" json:"-"` // environment only, never encoded
	Dir         string          `mapstructure:"-"`
}

// MarketConfig holds market-data collaborator configuration.
type MarketConfig struct {
	Source      string        `mapstructure:"source"`   // TCBS, VCI
	Days        int           `mapstructure:"days"`     // history window for the assistant
	Interval    string        `mapstructure:"interval"` // 1D, 1W, 1M
	Timeout     time.Duration `mapstructure:"timeout"`
	TCBSBaseURL string        `mapstructure:"tcbs_base_url"`
	VCIBaseURL  string        `mapstructure:"vci_base_url"`

	// Upstream failures before a source is short-circuited, and how long
	// it stays open.
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// AssistantConfig holds assistant collaborator configuration.
// Model, temperature and answer length are fixed in the agents package.
type AssistantConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	BaseURL string        `mapstructure:"base_url"`
}

// KnowledgeConfig locates the reference documents.
type KnowledgeConfig struct {
	Dir string `mapstructure:"dir"`
}

// ScanConfig holds batch-scan configuration.
type ScanConfig struct {
	Symbols []string `mapstructure:"symbols"`
	Days    int      `mapstructure:"days"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    bool   `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// Credentials holds credentials supplied by the environment.
type Credentials struct {
	OpenAIKey string
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/vnstock-advisor"
	}
	return filepath.Join(home, ".config", "vnstock-advisor")
}

// DatabasePath returns the sqlite file inside the config directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Dir, "advisor.db")
}

// LogFilePath returns the rotating log file inside the config directory.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Dir, "logs", "advisor.log")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// A missing config.toml is created from the template.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{Dir: configDir}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("market.source", string(models.SourceTCBS))
	v.SetDefault("market.days", 365)
	v.SetDefault("market.interval", string(models.IntervalDay))
	v.SetDefault("market.timeout", "15s")
	v.SetDefault("market.tcbs_base_url", "https://apipubaws.tcbs.com.vn")
	v.SetDefault("market.vci_base_url", "https://trading.vietcap.com.vn")
	v.SetDefault("market.breaker_failures", 5)
	v.SetDefault("market.breaker_cooldown", "30s")
	v.SetDefault("assistant.timeout", "60s")
	v.SetDefault("assistant.base_url", "")
	v.SetDefault("knowledge.dir", "knowledge")
	v.SetDefault("scan.symbols", models.PopularSymbols())
	v.SetDefault("scan.days", 365)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", true)
	v.SetDefault("log.console", true)
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAIKey = v
	}
	if v := os.Getenv("VNADVISOR_SOURCE"); v != "" {
		cfg.Market.Source = strings.ToUpper(v)
	}
	if v := os.Getenv("VNADVISOR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("VNADVISOR_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch models.Source(strings.ToUpper(c.Market.Source)) {
	case models.SourceTCBS, models.SourceVCI:
	default:
		return fmt.Errorf("%w: invalid market source: %s (must be TCBS or VCI)", apperrors.ErrConfigInvalid, c.Market.Source)
	}
	if err := ValidateInterval(c.Market.Interval); err != nil {
		return err
	}
	if err := ValidateDays(c.Market.Days); err != nil {
		return err
	}
	if err := ValidateDays(c.Scan.Days); err != nil {
		return err
	}
	if c.Market.Timeout <= 0 {
		return fmt.Errorf("%w: market.timeout must be positive", apperrors.ErrConfigInvalid)
	}
	if c.Assistant.Timeout <= 0 {
		return fmt.Errorf("%w: assistant.timeout must be positive", apperrors.ErrConfigInvalid)
	}
	return nil
}

// ValidateDays checks a history window length in calendar days.
func ValidateDays(days int) error {
	if days < MinDays || days > MaxDays {
		return fmt.Errorf("%w: days must be between %d and %d, got %d", apperrors.ErrConfigInvalid, MinDays, MaxDays, days)
	}
	return nil
}

// ValidateInterval checks a bar interval.
func ValidateInterval(interval string) error {
	switch models.Interval(interval) {
	case models.IntervalDay, models.IntervalWeek, models.IntervalMonth:
		return nil
	}
	return fmt.Errorf("%w: invalid interval: %s (must be 1D, 1W or 1M)", apperrors.ErrConfigInvalid, interval)
}

// History window bounds in calendar days.
const (
	MinDays       = 30
	MaxDays       = 1000
	LookupDays    = 90
	AssistantDays = 365
)

// MarketSource returns the configured source in canonical form.
func (c *Config) MarketSource() models.Source {
	return models.Source(strings.ToUpper(c.Market.Source))
}

// MarketInterval returns the configured bar interval.
func (c *Config) MarketInterval() models.Interval {
	return models.Interval(strings.ToUpper(c.Market.Interval))
}
