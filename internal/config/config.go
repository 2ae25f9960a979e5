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

const (
	minSecretKeyLength          = 32
	defaultPort                 = "8080"
	defaultEnrichmentTimeout    = 8 * time.Second
	defaultPeriodReminderDays   = 2
	maxPeriodReminderDays       = 14
	defaultReminderScanInterval = time.Hour
)

var (
	ErrSecretKeyMissing  = errors.New("SECRET_KEY is required")
	ErrSecretKeyInsecure = errors.New("SECRET_KEY uses a placeholder value")
	ErrSecretKeyTooShort = errors.New("SECRET_KEY must be at least 32 characters")
	ErrInvalidPort       = errors.New("invalid PORT")
)

var insecureSecretKeys = map[string]bool{
	"change_me_in_production":                    true,
	"replace_with_at_least_32_random_characters": true,
	"secret":   true,
	"changeme": true,
}

type Config struct {
	Port         string `yaml:"port"`
	DBPath       string `yaml:"db_path"`
	TimeZone     string `yaml:"timezone"`
	SecretKey    string `yaml:"-"`
	CookieSecure bool   `yaml:"cookie_secure"`
	LogLevel     string `yaml:"log_level"`

	Enrichment EnrichmentConfig `yaml:"enrichment"`
	Telegram   TelegramConfig   `yaml:"telegram"`

	Location *time.Location `yaml:"-"`
}

type EnrichmentConfig struct {
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

type TelegramConfig struct {
	BotToken           string `yaml:"-"`
	ChatID             string `yaml:"chat_id"`
	PeriodReminderDays int    `yaml:"period_reminder_days"`
	NotifyFertility    bool   `yaml:"notify_fertility"`
	ScanInterval       string `yaml:"scan_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:     defaultPort,
		DBPath:   filepath.Join("data", "cyclecast.db"),
		TimeZone: "UTC",
		LogLevel: "info",
		Enrichment: EnrichmentConfig{
			Timeout: defaultEnrichmentTimeout.String(),
		},
		Telegram: TelegramConfig{
			PeriodReminderDays: defaultPeriodReminderDays,
			NotifyFertility:    true,
			ScanInterval:       defaultReminderScanInterval.String(),
		},
	}
}

// Load reads .env (if present), then the optional CONFIG_FILE yaml, then environment
// overrides. Secrets are only ever read from the environment.
func Load() (*Config, error) {
	return load(true)
}

// LoadForMaintenance is Load without the SECRET_KEY requirement, for commands that never
// issue session tokens.
func LoadForMaintenance() (*Config, error) {
	return load(false)
}

func load(requireSecret bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.validate(requireSecret); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	overrideString(&c.Port, "PORT")
	overrideString(&c.DBPath, "DB_PATH")
	overrideString(&c.TimeZone, "TZ")
	overrideString(&c.LogLevel, "LOG_LEVEL")
	overrideString(&c.Enrichment.Model, "GENAI_MODEL")
	overrideString(&c.Enrichment.Timeout, "ENRICHMENT_TIMEOUT")
	overrideString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")

	c.SecretKey = strings.TrimSpace(os.Getenv("SECRET_KEY"))
	c.Enrichment.APIKey = strings.TrimSpace(os.Getenv("GENAI_API_KEY"))
	c.Telegram.BotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	if err := overrideBool(&c.CookieSecure, "COOKIE_SECURE"); err != nil {
		return err
	}
	if err := overrideBool(&c.Telegram.NotifyFertility, "TELEGRAM_NOTIFY_FERTILITY"); err != nil {
		return err
	}
	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_PERIOD_REMINDER_DAYS")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_PERIOD_REMINDER_DAYS %q: %w", raw, err)
		}
		c.Telegram.PeriodReminderDays = days
	}
	return nil
}

func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(requireSecret bool) error {
	if _, err := ResolvePort(c.Port); err != nil {
		return err
	}
	if requireSecret {
		if err := ValidateSecretKey(c.SecretKey); err != nil {
			return err
		}
	}
	location, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid TZ %q: %w", c.TimeZone, err)
	}
	c.Location = location
	if _, err := c.EnrichmentTimeout(); err != nil {
		return err
	}
	if _, err := c.ReminderScanInterval(); err != nil {
		return err
	}
	if c.Telegram.PeriodReminderDays < 0 || c.Telegram.PeriodReminderDays > maxPeriodReminderDays {
		return fmt.Errorf("TELEGRAM_PERIOD_REMINDER_DAYS must be within 0..%d", maxPeriodReminderDays)
	}
	return nil
}

func (c *Config) EnrichmentEnabled() bool {
	return c.Enrichment.APIKey != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func (c *Config) EnrichmentTimeout() (time.Duration, error) {
	return parsePositiveDuration("ENRICHMENT_TIMEOUT", c.Enrichment.Timeout, defaultEnrichmentTimeout)
}

func (c *Config) ReminderScanInterval() (time.Duration, error) {
	return parsePositiveDuration("telegram.scan_interval", c.Telegram.ScanInterval, defaultReminderScanInterval)
}

func ValidateSecretKey(secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ErrSecretKeyMissing
	}
	if insecureSecretKeys[strings.ToLower(secret)] {
		return ErrSecretKeyInsecure
	}
	if len(secret) < minSecretKeyLength {
		return ErrSecretKeyTooShort
	}
	return nil
}

func ResolvePort(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultPort, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPort, raw)
	}
	return raw, nil
}

func parsePositiveDuration(name string, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return value, nil
}

func overrideString(target *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

func overrideBool(target *bool, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*target = value
	return nil
}
