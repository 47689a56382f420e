package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets intervals be written as "10m" or "400ms" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds everything the dashboard backend needs at startup.
type Config struct {
	Port   string `yaml:"port"`
	APIKey string `yaml:"api_key"`

	// DefaultPlace is shown when geolocation is denied or unavailable.
	DefaultPlace struct {
		Name      string  `yaml:"name"`
		Country   string  `yaml:"country"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
	} `yaml:"default_place"`

	RefreshInterval  Duration `yaml:"refresh_interval"`
	DebounceInterval Duration `yaml:"debounce_interval"`
	BundleCacheTTL   Duration `yaml:"bundle_cache_ttl"`

	HistoryDB string `yaml:"history_db"`

	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Default returns the built-in configuration, matching the app's
// out-of-the-box behavior.
func Default() *Config {
	cfg := &Config{
		Port:             "8080",
		RefreshInterval:  Duration(10 * time.Minute),
		DebounceInterval: Duration(400 * time.Millisecond),
		BundleCacheTTL:   Duration(10 * time.Minute),
		HistoryDB:        "data/history.db",
	}
	cfg.DefaultPlace.Name = "Muzaffarpur"
	cfg.DefaultPlace.Country = "IN"
	cfg.DefaultPlace.Latitude = 26.1197
	cfg.DefaultPlace.Longitude = 85.3910
	cfg.RateLimit.RPS = 1.0
	cfg.RateLimit.Burst = 5
	return cfg
}

// Load reads the YAML config file at path, applying environment overrides
// afterwards. A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("HISTORY_DB"); v != "" {
		cfg.HistoryDB = v
	}

	return cfg, nil
}
