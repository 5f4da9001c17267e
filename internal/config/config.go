package config

import "github.com/spf13/viper"

// Config holds runtime configuration for a comova invocation. Values are
// populated from .comova.yaml, COMOVA_* env vars, and CLI flags.
type Config struct {
	ParamsPath string `mapstructure:"params_path"`
	LogPath    string `mapstructure:"log_path"`
	ChartWidth int    `mapstructure:"chart_width"`
	Verbose    bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("params_path", "comova.toml")
	viper.SetDefault("log_path", "comova.log.jsonl")
	viper.SetDefault("chart_width", 40)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
