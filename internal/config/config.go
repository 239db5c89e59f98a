package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Vendor VendorConfig `yaml:"vendor" mapstructure:"vendor"`
	Scrape ScrapeConfig `yaml:"scrape" mapstructure:"scrape"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Labor  LaborConfig  `yaml:"labor" mapstructure:"labor"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`

	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// VendorConfig holds the POS vendor portal credentials.
type VendorConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
}

// ScrapeConfig configures the nightly scrape pipeline.
type ScrapeConfig struct {
	Schedule             string `yaml:"schedule" mapstructure:"schedule"`
	LoginTimeoutSecs     int    `yaml:"login_timeout_secs" mapstructure:"login_timeout_secs"`
	DashboardTimeoutSecs int    `yaml:"dashboard_timeout_secs" mapstructure:"dashboard_timeout_secs"`
	AliasFile            string `yaml:"alias_file" mapstructure:"alias_file"`
	Headless             bool   `yaml:"headless" mapstructure:"headless"`
	// SectionMarker is the dashboard heading the extractor anchors on.
	SectionMarker string `yaml:"section_marker" mapstructure:"section_marker"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port         int    `yaml:"port" mapstructure:"port"`
	AuthUsername string `yaml:"auth_username" mapstructure:"auth_username"`
	AuthPassword string `yaml:"auth_password" mapstructure:"auth_password"`
}

// LaborConfig holds labor cost policy knobs.
type LaborConfig struct {
	// BurdenRate inflates raw wages for payroll taxes and benefits.
	BurdenRate float64 `yaml:"burden_rate" mapstructure:"burden_rate"`
	// TargetPrimePercent is the prime cost goal for variance reporting.
	TargetPrimePercent float64 `yaml:"target_prime_percent" mapstructure:"target_prime_percent"`
}

// MonitoringConfig configures scrape-run health checks. Alerts are disabled
// unless a webhook URL is set.
type MonitoringConfig struct {
	WebhookURL             string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs      int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackHours          int     `yaml:"lookback_hours" mapstructure:"lookback_hours"`
	MaxConsecutiveFailures int     `yaml:"max_consecutive_failures" mapstructure:"max_consecutive_failures"`
	FailureRateThreshold   float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	StaleAfterHours        int     `yaml:"stale_after_hours" mapstructure:"stale_after_hours"`
}

// RetryConfig tunes retries around session opens and database connects.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "restaurant_dashboard.db")
	v.SetDefault("vendor.base_url", "https://lahaciendaranch.alohaenterprise.com")
	v.SetDefault("scrape.schedule", "30 7 * * *")
	v.SetDefault("scrape.login_timeout_secs", 15)
	v.SetDefault("scrape.dashboard_timeout_secs", 60)
	v.SetDefault("scrape.alias_file", "store_aliases.yaml")
	v.SetDefault("scrape.headless", true)
	v.SetDefault("scrape.section_marker", "Sales by Store")
	v.SetDefault("server.port", 3001)
	v.SetDefault("labor.burden_rate", 0.22)
	v.SetDefault("labor.target_prime_percent", 65)
	v.SetDefault("monitoring.check_interval_secs", 3600)
	v.SetDefault("monitoring.lookback_hours", 48)
	v.SetDefault("monitoring.max_consecutive_failures", 2)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.stale_after_hours", 36)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 2000)
	v.SetDefault("retry.max_backoff_ms", 30000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
