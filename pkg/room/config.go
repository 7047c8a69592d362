package room

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/Monadical-SAS/reflector-room/pkg/recording"
)

// Config is the full controller configuration, normally loaded from a YAML
// file with LoadConfig.
type Config struct {
	API         APIConfig       `mapstructure:"api"`
	Embed       EmbedConfig     `mapstructure:"embed"`
	Recording   RecordingConfig `mapstructure:"recording"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFormat   string          `mapstructure:"log_format"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

// EmbedConfig selects a vendor embed adapter by name with free-form settings.
type EmbedConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type RecordingConfig struct {
	DelayMS     int `mapstructure:"start_delay_ms"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// Options translates the config into orchestrator overrides, skipping
// unset values so the orchestrator defaults stand.
func (c RecordingConfig) Options() []recording.Option {
	var opts []recording.Option
	if c.DelayMS > 0 {
		opts = append(opts, recording.WithDelay(time.Duration(c.DelayMS)*time.Millisecond))
	}
	if c.MaxAttempts > 0 {
		opts = append(opts, recording.WithMaxAttempts(c.MaxAttempts))
	}
	return opts
}

type StorageConfig struct {
	// Dir is where consent state persists. Empty means in-memory only.
	Dir string `mapstructure:"dir"`
}

// LoadConfig reads a config file, applies defaults and expands ${ENV}
// references in string values.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("embed.provider", "mock")
	v.SetDefault("recording.start_delay_ms", 2000)
	v.SetDefault("recording.max_attempts", 5)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	expandEnvStrings(&cfg)
	return cfg, nil
}

func expandEnvStrings(cfg *Config) {
	cfg.API.BaseURL = os.ExpandEnv(cfg.API.BaseURL)
	cfg.API.Token = os.ExpandEnv(cfg.API.Token)
	cfg.Storage.Dir = os.ExpandEnv(cfg.Storage.Dir)
	cfg.Embed.Settings = expandSettings(cfg.Embed.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	default:
		return v
	}
}
