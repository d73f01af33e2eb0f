// Package config loads the engine's startup configuration from a YAML file,
// with MARKETPULSE_* environment variables overriding any field.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level process configuration.
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggingConfig controls the zap logger setup.
type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	JSON  bool   `mapstructure:"json"`
}

// AdminConfig controls the admin HTTP/WS server.
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// SchedulerConfig tunes the periodic alert scheduler's concurrency and
// failure handling. Zero values fall back to the scheduler package's own
// defaults.
type SchedulerConfig struct {
	MaxWorkers       int           `mapstructure:"max_workers"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	BackoffCap       time.Duration `mapstructure:"backoff_cap"`
	DailyAlertCap    int           `mapstructure:"daily_alert_cap"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		DataDir: "./data",
		Logging: LoggingConfig{Level: "info", JSON: true},
		Admin:   AdminConfig{Enabled: true, Addr: ":8090"},
	}
}

// Load reads configuration from path (if it exists) layered over Defaults,
// with MARKETPULSE_* environment variables overriding any field. path may
// be empty, in which case only defaults and environment variables apply.
func Load(path string) (Config, error) {
	v := viper.New()
	def := Defaults()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.json", def.Logging.JSON)
	v.SetDefault("admin.enabled", def.Admin.Enabled)
	v.SetDefault("admin.addr", def.Admin.Addr)
	v.SetDefault("scheduler.max_workers", def.Scheduler.MaxWorkers)
	v.SetDefault("scheduler.failure_threshold", def.Scheduler.FailureThreshold)
	v.SetDefault("scheduler.backoff_cap", def.Scheduler.BackoffCap)
	v.SetDefault("scheduler.daily_alert_cap", def.Scheduler.DailyAlertCap)
	v.SetDefault("scheduler.tick_interval", def.Scheduler.TickInterval)

	v.SetEnvPrefix("MARKETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks that required fields are present and sane.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Scheduler.MaxWorkers < 0 {
		return fmt.Errorf("scheduler.max_workers must be >= 0")
	}
	return nil
}
