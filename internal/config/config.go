package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"portfolio-scenario-gen/internal/dataset"
	"portfolio-scenario-gen/internal/logging"
	"portfolio-scenario-gen/internal/scenario"
)

// EnvPrefix prefixes every environment override, e.g. SCENARIOGEN_SCENARIO_SEED.
const EnvPrefix = "SCENARIOGEN"

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Scenario ScenarioConfig `mapstructure:"scenario"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
	QA       QAConfig       `mapstructure:"qa"`
	Alerting AlertingConfig `mapstructure:"alerting"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// ScenarioConfig holds the run seed and the temporal windows.
type ScenarioConfig struct {
	Seed          uint64    `mapstructure:"seed"`
	RangeStart    time.Time `mapstructure:"range_start"`
	RangeEnd      time.Time `mapstructure:"range_end"`
	ImpactStart   time.Time `mapstructure:"impact_start"`
	ImpactEnd     time.Time `mapstructure:"impact_end"`
	EventStart    time.Time `mapstructure:"event_start"`
	EventPivot    time.Time `mapstructure:"event_pivot"`
	EventEnd      time.Time `mapstructure:"event_end"`
	BaselineStart time.Time `mapstructure:"baseline_start"`
	RecoveryEnd   time.Time `mapstructure:"recovery_end"`
}

// Windows converts the configured dates.
func (c ScenarioConfig) Windows() scenario.Windows {
	return scenario.Windows{
		RangeStart:    c.RangeStart.UTC(),
		RangeEnd:      c.RangeEnd.UTC(),
		ImpactStart:   c.ImpactStart.UTC(),
		ImpactEnd:     c.ImpactEnd.UTC(),
		EventStart:    c.EventStart.UTC(),
		EventPivot:    c.EventPivot.UTC(),
		EventEnd:      c.EventEnd.UTC(),
		BaselineStart: c.BaselineStart.UTC(),
		RecoveryEnd:   c.RecoveryEnd.UTC(),
	}
}

// CalendarConfig selects the trading-day memo backend.
type CalendarConfig struct {
	Cache    string        `mapstructure:"cache"`
	TTL      time.Duration `mapstructure:"ttl"`
	Closures []string      `mapstructure:"closures"`
}

// OutputConfig sets file output behaviour.
type OutputConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Dir         string         `mapstructure:"dir"`
	Format      string         `mapstructure:"format"`
	Manifest    bool           `mapstructure:"manifest"`
	Concurrency int            `mapstructure:"concurrency"`
	Files       map[string]int `mapstructure:"files"`
}

// FilesFor returns the configured file count of table, at least one.
func (c OutputConfig) FilesFor(table string) int {
	if n := c.Files[table]; n > 0 {
		return n
	}
	return 1
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	PingOnStart     bool          `mapstructure:"ping_on_start"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// QAConfig controls validation after generation.
type QAConfig struct {
	Enforce    bool    `mapstructure:"enforce"`
	ChartPath  string  `mapstructure:"chart_path"`
	Tolerance  float64 `mapstructure:"tolerance"`
	MaxSamples int     `mapstructure:"max_samples"`
}

// AlertingConfig routes QA summaries.
type AlertingConfig struct {
	Enabled       bool           `mapstructure:"enabled"`
	OnlyOnFailure bool           `mapstructure:"only_on_failure"`
	Telegram      TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram bot target.
type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	APIBase  string        `mapstructure:"api_base"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Load builds configuration from an optional .env file, the config file,
// environment, and defaults.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDotEnv reads SCENARIOGEN_ENV_FILE or ./.env without overriding
// variables already set. A missing file is not an error.
func loadDotEnv() error {
	path := os.Getenv(EnvPrefix + "_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "scenariogen")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.stderr", true)

	v.SetDefault("scenario.seed", 42)
	v.SetDefault("scenario.range_start", "2022-10-01")
	v.SetDefault("scenario.range_end", "2025-10-21")
	v.SetDefault("scenario.impact_start", "2025-04-01")
	v.SetDefault("scenario.impact_end", "2025-10-21")
	v.SetDefault("scenario.event_start", "2025-06-15")
	v.SetDefault("scenario.event_pivot", "2025-06-18")
	v.SetDefault("scenario.event_end", "2025-06-22")
	v.SetDefault("scenario.baseline_start", "2025-03-20")
	v.SetDefault("scenario.recovery_end", "2025-07-31")

	v.SetDefault("calendar.cache", "memory")
	v.SetDefault("calendar.ttl", "1h")
	v.SetDefault("calendar.closures", []string{})

	v.SetDefault("output.enabled", true)
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.format", "parquet")
	v.SetDefault("output.manifest", true)
	v.SetDefault("output.concurrency", 4)
	v.SetDefault("output.files."+dataset.FactorVectorsTable, 12)
	v.SetDefault("output.files."+dataset.PositionsTable, 8)
	v.SetDefault("output.files."+dataset.OrdersTable, 12)
	v.SetDefault("output.files."+dataset.PolicyChangesTable, 1)
	v.SetDefault("output.files."+dataset.BreachesTable, 4)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.ping_on_start", true)
	v.SetDefault("database.advisory_lock_key", int64(0x73636e67))

	v.SetDefault("qa.enforce", true)
	v.SetDefault("qa.chart_path", "")
	v.SetDefault("qa.tolerance", 0.15)
	v.SetDefault("qa.max_samples", 5)

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.only_on_failure", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.bot_token", "")
	v.SetDefault("alerting.telegram.chat_id", "")
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.timeout", "10s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.DateOnly),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if err := c.Scenario.Windows().Validate(); err != nil {
		return err
	}
	switch c.Calendar.Cache {
	case "memory", "expiring":
	default:
		return fmt.Errorf("calendar.cache must be memory or expiring, got %q", c.Calendar.Cache)
	}
	if c.Calendar.Cache == "expiring" && c.Calendar.TTL <= 0 {
		return fmt.Errorf("calendar.ttl must be greater than zero")
	}
	for _, d := range c.Calendar.Closures {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return fmt.Errorf("calendar.closures: %w", err)
		}
	}
	if c.Output.Enabled {
		if c.Output.Dir == "" {
			return fmt.Errorf("output.dir is required when output is enabled")
		}
		if c.Output.Format != "csv" && c.Output.Format != "parquet" {
			return fmt.Errorf("output.format must be csv or parquet, got %q", c.Output.Format)
		}
	}
	for table, n := range c.Output.Files {
		if n <= 0 {
			return fmt.Errorf("output.files.%s must be greater than zero", table)
		}
	}
	if c.QA.Tolerance <= 0 || c.QA.Tolerance >= 1 {
		return fmt.Errorf("qa.tolerance must be in (0, 1)")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// PersistenceEnabled reports whether any sink is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.Output.Enabled || c.Database.DSN != ""
}
