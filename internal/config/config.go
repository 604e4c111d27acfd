package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"tradewise/internal/strategy"

	"gopkg.in/yaml.v3"
)

// StrategyConfig names one strategy and its arguments.
type StrategyConfig struct {
	Name         string `yaml:"name"`
	NumDays      int    `yaml:"num_days"`
	Horizon      int    `yaml:"horizon"`
	ShortWindow  int    `yaml:"short_window"`
	LongWindow   int    `yaml:"long_window"`
	InterestFile string `yaml:"interest_file"`
}

// Universe is a curated stock list and the strategies applied to it.
type Universe struct {
	Name       string           `yaml:"name"`
	Source     string           `yaml:"source"`
	Strategies []StrategyConfig `yaml:"strategies"`

	// Resolved is filled by Load, one entry per Strategies element.
	Resolved []strategy.Strategy `yaml:"-"`
}

// StrategiesOf returns the resolved strategies of the given kind.
func (u Universe) StrategiesOf(kind strategy.Kind) []strategy.Strategy {
	var out []strategy.Strategy
	for _, s := range u.Resolved {
		if s.Kind() == kind {
			out = append(out, s)
		}
	}
	return out
}

// Config holds all application configuration.
type Config struct {
	Database struct {
		Driver      string `yaml:"driver"` // sqlite or postgres
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo, polygon, rest or mock
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"data_source"`
	Universes []Universe `yaml:"universes"`
	LTH       struct {
		DaysBack         int     `yaml:"days_back"`
		HistoryYears     int     `yaml:"history_years"`
		NearThresholdPct float64 `yaml:"near_threshold_pct"`
	} `yaml:"lth"`
	Signals struct {
		HistoryYears  int  `yaml:"history_years"`
		NewWithinDays int  `yaml:"new_within_days"`
		RefreshLTH    bool `yaml:"refresh_lth"`
	} `yaml:"signals"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Cache struct {
		RedisAddr string        `yaml:"redis_addr"`
		PriceTTL  time.Duration `yaml:"price_ttl"`
	} `yaml:"cache"`
	MetricsAddr string `yaml:"metrics_addr"`
	Proxy       string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults, and resolves every universe's strategies.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.resolveStrategies(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.PostgresDSN = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" && c.DataSource.Provider == "polygon" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		c.Schedule.DailyCron = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("LTH_DAYS_BACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LTH.DaysBack = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/tradewise.db"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.LTH.DaysBack == 0 {
		c.LTH.DaysBack = 30
	}
	if c.LTH.HistoryYears == 0 {
		c.LTH.HistoryYears = 10
	}
	if c.LTH.NearThresholdPct == 0 {
		c.LTH.NearThresholdPct = 10
	}
	if c.Signals.HistoryYears == 0 {
		c.Signals.HistoryYears = 2
	}
	if c.Signals.NewWithinDays == 0 {
		c.Signals.NewWithinDays = 7
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 0 19 * * *"
	}
	if c.Cache.PriceTTL == 0 {
		c.Cache.PriceTTL = 5 * time.Minute
	}
}

func (c *Config) resolveStrategies() error {
	for i := range c.Universes {
		u := &c.Universes[i]
		u.Resolved = u.Resolved[:0]
		for _, sc := range u.Strategies {
			id, err := strategy.ParseID(sc.Name)
			if err != nil {
				return fmt.Errorf("universe %s: %w", u.Name, err)
			}
			s, err := strategy.New(id, strategy.Params{
				NumDays:      sc.NumDays,
				Horizon:      sc.Horizon,
				ShortWindow:  sc.ShortWindow,
				LongWindow:   sc.LongWindow,
				InterestFile: sc.InterestFile,
			})
			if err != nil {
				return fmt.Errorf("universe %s strategy %s: %w", u.Name, sc.Name, err)
			}
			u.Resolved = append(u.Resolved, s)
		}
	}
	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path is required")
		}
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or memory, got %q", c.Database.Driver)
	}
	if len(c.Universes) == 0 {
		return fmt.Errorf("at least one universe is required")
	}
	seen := make(map[string]bool, len(c.Universes))
	for _, u := range c.Universes {
		if u.Name == "" || u.Source == "" {
			return fmt.Errorf("universe name and source are required")
		}
		if seen[u.Name] {
			return fmt.Errorf("duplicate universe %q", u.Name)
		}
		seen[u.Name] = true
		if len(u.Resolved) != len(u.Strategies) {
			return fmt.Errorf("universe %s: strategies not resolved", u.Name)
		}
	}
	if c.LTH.DaysBack <= 0 || c.LTH.HistoryYears <= 0 {
		return fmt.Errorf("lth.days_back and lth.history_years must be positive")
	}
	if c.LTH.NearThresholdPct < 0 {
		return fmt.Errorf("lth.near_threshold_pct must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// UniverseNames lists configured universe names in file order.
func (c *Config) UniverseNames() []string {
	names := make([]string, len(c.Universes))
	for i, u := range c.Universes {
		names[i] = u.Name
	}
	return names
}
