package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // scraper.timezone must resolve in slim containers

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the EuroLeague fixture page of the tracked season.
const DefaultBaseURL = "https://www.mackolik.com/basketbol/puan-durumu/avrupa-euroleague/fikstur/8ds5tn5aaaoqkqh0fqwubxjax"

// DefaultWeeks is the number of rounds in the regular season.
const DefaultWeeks = 28

type Config struct {
	Scraper  ScraperConfig  `yaml:"scraper"`
	Browser  BrowserConfig  `yaml:"browser"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Health   HealthConfig   `yaml:"health"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type ScraperConfig struct {
	BaseURL  string `yaml:"base_url"`
	Weeks    int    `yaml:"weeks"`
	Timezone string `yaml:"timezone"` // Used to place match dates; default Europe/Istanbul
	Schedule string `yaml:"schedule"` // Cron spec for repeated runs; empty = run once

	RewindAttempts int           `yaml:"rewind_attempts"`
	RewindDelay    time.Duration `yaml:"rewind_delay"`
	LabelAttempts  int           `yaml:"label_attempts"`
	LabelPollDelay time.Duration `yaml:"label_poll_delay"`
	AdvanceDelay   time.Duration `yaml:"advance_delay"` // Also the pause between weeks
	MatchDelay     time.Duration `yaml:"match_delay"`   // Pause between matches
	ListSettle     time.Duration `yaml:"list_settle"`
	OddsSettle     time.Duration `yaml:"odds_settle"`

	GotoTimeout    time.Duration `yaml:"goto_timeout"`
	DetailTimeout  time.Duration `yaml:"detail_timeout"`
	ConsentTimeout time.Duration `yaml:"consent_timeout"`
	ElementTimeout time.Duration `yaml:"element_timeout"`
	ListTimeout    time.Duration `yaml:"list_timeout"`
}

// Location resolves Timezone.
func (c ScraperConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type BrowserConfig struct {
	Headful   bool          `yaml:"headful"` // Show the browser window
	NoSandbox bool          `yaml:"no_sandbox"`
	UserAgent string        `yaml:"user_agent"`
	ExecPath  string        `yaml:"exec_path"`
	OpTimeout time.Duration `yaml:"op_timeout"`
	Debug     bool          `yaml:"debug"`
}

type StorageConfig struct {
	Kind     string         `yaml:"kind"` // none, postgres, sqlite or redis
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Redis    RedisConfig    `yaml:"redis"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Optional JSON log file, in addition to stdout
}

type HealthConfig struct {
	Port              int           `yaml:"port"` // 0 disables the server
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

// Load reads the YAML file at configPath, applies defaults and environment
// overrides (a .env file in the working directory is honoured) and validates.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyDefaults(&config)
	if err := applyEnvironmentOverrides(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func applyDefaults(c *Config) {
	s := &c.Scraper
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Weeks == 0 {
		s.Weeks = DefaultWeeks
	}
	if s.Timezone == "" {
		s.Timezone = "Europe/Istanbul"
	}
	setDefaultInt(&s.RewindAttempts, 40)
	setDefaultInt(&s.LabelAttempts, 5)
	setDefaultDuration(&s.RewindDelay, 3*time.Second)
	setDefaultDuration(&s.LabelPollDelay, 2*time.Second)
	setDefaultDuration(&s.AdvanceDelay, 3*time.Second)
	setDefaultDuration(&s.MatchDelay, 500*time.Millisecond)
	setDefaultDuration(&s.ListSettle, 2*time.Second)
	setDefaultDuration(&s.OddsSettle, 2*time.Second)
	setDefaultDuration(&s.GotoTimeout, 60*time.Second)
	setDefaultDuration(&s.DetailTimeout, 30*time.Second)
	setDefaultDuration(&s.ConsentTimeout, 5*time.Second)
	setDefaultDuration(&s.ElementTimeout, 10*time.Second)
	setDefaultDuration(&s.ListTimeout, 20*time.Second)

	setDefaultDuration(&c.Browser.OpTimeout, 10*time.Second)

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	setDefaultDuration(&c.Health.ReadHeaderTimeout, 5*time.Second)
}

func setDefaultInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setDefaultDuration(v *time.Duration, def time.Duration) {
	if *v <= 0 {
		*v = def
	}
}

func applyEnvironmentOverrides(c *Config) error {
	if v := os.Getenv("SCRAPER_BASE_URL"); v != "" {
		c.Scraper.BaseURL = v
	}
	if v := os.Getenv("STORAGE_KIND"); v != "" {
		c.Storage.Kind = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLite.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.Scraper.Weeks < 1 {
		errs = append(errs, fmt.Errorf("scraper.weeks must be positive, got %d", c.Scraper.Weeks))
	}
	if !strings.HasPrefix(c.Scraper.BaseURL, "http://") && !strings.HasPrefix(c.Scraper.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("scraper.base_url must be an http(s) URL, got %q", c.Scraper.BaseURL))
	}
	if _, err := c.Scraper.Location(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	if c.Health.Port < 0 {
		errs = append(errs, fmt.Errorf("health.port must not be negative"))
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		errs = append(errs, fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled"))
	}
	return errors.Join(errs...)
}
