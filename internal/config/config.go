// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"offersearch-engine/internal/scrape"
)

type SourceConfig struct {
	// Enabled defaults to true when omitted.
	Enabled   *bool              `yaml:"enabled,omitempty"`
	Selectors scrape.SelectorSet `yaml:"selectors,omitempty"`
}

func (s SourceConfig) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Remote struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		KeyringAccount string `yaml:"keyring_account"`
	} `yaml:"remote"`

	State struct {
		Backend     string `yaml:"backend"`
		RedisAddr   string `yaml:"redis_addr"`
		RedisPrefix string `yaml:"redis_prefix"`
	} `yaml:"state"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Fetch struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
	} `yaml:"fetch"`

	Sources map[string]SourceConfig `yaml:"sources"`
}

// Defaults is what a missing key falls back to.
func Defaults() Config {
	var cfg Config
	cfg.App.Port = 38471
	cfg.App.DataDir = "data"
	cfg.Remote.BaseURL = "http://localhost:8000"
	cfg.Remote.TimeoutSeconds = 10
	cfg.State.Backend = "sqlite"
	cfg.State.RedisPrefix = "offersearch:"
	cfg.Log.Level = "info"
	cfg.Fetch.RequestsPerSecond = 0.5
	cfg.Fetch.Burst = 1
	cfg.Fetch.TimeoutSeconds = 20
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Source returns the settings for one source, zero value if unset.
func (c Config) Source(name string) SourceConfig {
	if c.Sources == nil {
		return SourceConfig{}
	}
	return c.Sources[name]
}
