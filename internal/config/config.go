// Package config loads the console configuration from ~/.joi/console.yaml.
// A missing file yields defaults; a malformed one is an error.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type GatewayConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ReconcileConfig struct {
	Interval      time.Duration   `mapstructure:"interval"`
	RefetchDelays []time.Duration `mapstructure:"refetch_delays"`
	CompleteDelay time.Duration   `mapstructure:"complete_delay"`
	LogbookLimit  int             `mapstructure:"logbook_limit"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type CacheConfig struct {
	Path string `mapstructure:"path"`
}

func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL: "http://localhost:8484",
			Timeout: 15 * time.Second,
		},
		Reconcile: ReconcileConfig{
			Interval:      30 * time.Second,
			RefetchDelays: []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second},
			CompleteDelay: 700 * time.Millisecond,
			LogbookLimit:  100,
		},
		Server: ServerConfig{Addr: "127.0.0.1:4711"},
		Cache:  CacheConfig{Path: defaultCachePath()},
	}
}

// Load reads path (or the default location when path is empty) over the
// defaults. A nonexistent default file is fine.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, err
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	// Viper's default decode hooks already parse "30s"-style durations.
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "console.yaml"
	}
	return filepath.Join(home, ".joi", "console.yaml")
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "snapshot.sqlite"
	}
	return filepath.Join(home, ".joi", "snapshot.sqlite")
}
