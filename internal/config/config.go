package futurecash

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HoldConfig struct {
	Duration        time.Duration `mapstructure:"duration"`
	AccountAge      time.Duration `mapstructure:"account_age"`
	IPWindow        time.Duration `mapstructure:"ip_window"`
	IPThreshold     int           `mapstructure:"ip_threshold"`
	HighValuePoints int64         `mapstructure:"high_value_points"`
}

type ReferralConfig struct {
	Percentage float64 `mapstructure:"percentage"`
}

type SweepConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Workers   int           `mapstructure:"workers"`
	BatchSize uint64        `mapstructure:"batch_size"`
}

type StatsConfig struct {
	Hour int `mapstructure:"hour"`
}

type JobsConfig struct {
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type CallbackConfig struct {
	Strict bool `mapstructure:"strict"`
}

type FrontendConfig struct {
	URL string `mapstructure:"url"`
}

type BalanceConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Бизнес-настройки сервиса
type Config struct {
	Hold     HoldConfig     `mapstructure:"hold"`
	Referral ReferralConfig `mapstructure:"referral"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Callback CallbackConfig `mapstructure:"callback"`
	Frontend FrontendConfig `mapstructure:"frontend"`
	Balance  BalanceConfig  `mapstructure:"balance"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hold.duration", 24*time.Hour)
	v.SetDefault("hold.account_age", 24*time.Hour)
	v.SetDefault("hold.ip_window", 24*time.Hour)
	v.SetDefault("hold.ip_threshold", 10)
	v.SetDefault("hold.high_value_points", 5000)
	v.SetDefault("referral.percentage", 0.1)
	v.SetDefault("sweep.interval", 5*time.Minute)
	v.SetDefault("sweep.workers", 3)
	v.SetDefault("sweep.batch_size", 500)
	v.SetDefault("stats.hour", 1)
	v.SetDefault("jobs.lock_ttl", 10*time.Minute)
	v.SetDefault("callback.strict", false)
	v.SetDefault("frontend.url", "https://futurecash.app")
	v.SetDefault("balance.cache_ttl", 5*time.Minute)
}

// Загрузка: defaults -> config.yaml (если есть) -> env FUTURECASH_*
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if len(paths) == 0 {
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FUTURECASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Sweep.Workers <= 0 {
		cfg.Sweep.Workers = 1
	}
	if cfg.Sweep.BatchSize == 0 {
		cfg.Sweep.BatchSize = 500
	}
	return cfg, nil
}

// Настройки по умолчанию без чтения файла и окружения
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}
