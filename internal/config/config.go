package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Seed   SeedConfig   `mapstructure:"seed"`

	Ingest    IngestConfig    `mapstructure:"ingest"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type SeedConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backfill time.Duration `mapstructure:"backfill"`
}

type IngestConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type AnalysisConfig struct {
	// RecentWindow bounds the "current value" lookback; a metric with no
	// reading inside it is treated as unknown and skipped.
	RecentWindow time.Duration `mapstructure:"recent_window"`
	// TrendWindow extends past RecentWindow; the trend baseline is the
	// average over [now-TrendWindow, now-RecentWindow].
	TrendWindow   time.Duration `mapstructure:"trend_window"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

type StreamConfig struct {
	AwaitTimeout time.Duration `mapstructure:"await_timeout"`
	SummaryHours int           `mapstructure:"summary_hours"`
}

type RetentionConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxAge        time.Duration `mapstructure:"max_age"`
	SweepInterval string        `mapstructure:"sweep_interval"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PLANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.backfill", "2h")
	v.SetDefault("ingest.enabled", true)
	v.SetDefault("ingest.interval", "30s")
	v.SetDefault("analysis.recent_window", "60m")
	v.SetDefault("analysis.trend_window", "90m")
	v.SetDefault("analysis.max_concurrent", 4)
	v.SetDefault("stream.await_timeout", "15s")
	v.SetDefault("stream.summary_hours", 24)
	v.SetDefault("retention.enabled", true)
	v.SetDefault("retention.max_age", "72h")
	v.SetDefault("retention.sweep_interval", "@every 10m")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
