package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"pack-grader/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Grading  GradingConfig  `mapstructure:"grading"`
	Trend    TrendConfig    `mapstructure:"trend"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// PricingConfig tunes model inference and caching.
type PricingConfig struct {
	MaxIterations int           `mapstructure:"max_iterations"`
	Tolerance     float64       `mapstructure:"tolerance"`
	Epsilon       float64       `mapstructure:"epsilon"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// GradingConfig tunes the grading engine.
type GradingConfig struct {
	UnpricedPolicy string  `mapstructure:"unpriced_policy"`
	SimilarLimit   int     `mapstructure:"similar_limit"`
	SimilarBand    float64 `mapstructure:"similar_band"`
}

// TrendConfig tunes the daily price series.
type TrendConfig struct {
	Days            int     `mapstructure:"days"`
	BandLow         float64 `mapstructure:"band_low"`
	BandHigh        float64 `mapstructure:"band_high"`
	OutlierFactor   float64 `mapstructure:"outlier_factor"`
	OutlierPenalty  int     `mapstructure:"outlier_penalty"`
	FillGaps        bool    `mapstructure:"fill_gaps"`
	CarryConfidence int     `mapstructure:"carry_confidence"`
}

// WatchConfig governs the periodic refresh/alert loop.
type WatchConfig struct {
	Interval     time.Duration  `mapstructure:"interval"`
	StartupDelay time.Duration  `mapstructure:"startup_delay"`
	MovementPct  float64        `mapstructure:"movement_pct"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PACKGRADER")
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
	v.SetDefault("app.name", "packgrader")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("pricing.max_iterations", 15)
	v.SetDefault("pricing.tolerance", 0.001)
	v.SetDefault("pricing.epsilon", 0.01)
	v.SetDefault("pricing.cache_ttl", "30s")

	v.SetDefault("grading.unpriced_policy", "zero")
	v.SetDefault("grading.similar_limit", 5)
	v.SetDefault("grading.similar_band", 0.2)

	v.SetDefault("trend.days", 7)
	v.SetDefault("trend.band_low", 0.1)
	v.SetDefault("trend.band_high", 10.0)
	v.SetDefault("trend.outlier_factor", 50.0)
	v.SetDefault("trend.outlier_penalty", 30)
	v.SetDefault("trend.fill_gaps", false)
	v.SetDefault("trend.carry_confidence", 20)

	v.SetDefault("watch.interval", "5m")
	v.SetDefault("watch.startup_delay", "0s")
	v.SetDefault("watch.movement_pct", 10.0)
	v.SetDefault("watch.telegram.enabled", false)
	v.SetDefault("watch.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Pricing.MaxIterations <= 0 {
		return fmt.Errorf("pricing.max_iterations must be greater than zero")
	}
	if c.Pricing.Tolerance <= 0 {
		return fmt.Errorf("pricing.tolerance must be greater than zero")
	}
	if c.Pricing.CacheTTL <= 0 {
		return fmt.Errorf("pricing.cache_ttl must be greater than zero")
	}
	switch c.Grading.UnpricedPolicy {
	case "zero", "exclude":
	default:
		return fmt.Errorf("grading.unpriced_policy must be zero or exclude")
	}
	if c.Trend.Days <= 0 {
		return fmt.Errorf("trend.days must be greater than zero")
	}
	if c.Trend.BandLow <= 0 || c.Trend.BandHigh <= c.Trend.BandLow {
		return fmt.Errorf("trend band bounds are inconsistent")
	}
	if c.Trend.OutlierFactor <= 1 {
		return fmt.Errorf("trend.outlier_factor must be greater than one")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be greater than zero")
	}
	if c.Watch.MovementPct < 0 {
		return fmt.Errorf("watch.movement_pct cannot be negative")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Watch.Telegram.Enabled {
		if c.Watch.Telegram.BotToken == "" {
			return fmt.Errorf("watch.telegram.bot_token 必须配置")
		}
		if c.Watch.Telegram.ChatID == "" {
			return fmt.Errorf("watch.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// ResolveTrendDays returns either the CLI override or config default.
func (c *Config) ResolveTrendDays(override int) int {
	if override > 0 {
		return override
	}
	return c.Trend.Days
}
