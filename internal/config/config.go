package config

import (
	"os"
	"time"

	"dex-quiz-service/internal/fetch"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Mode string `yaml:"mode"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		BaseURL        string `yaml:"base_url"`
		Timeout        string `yaml:"timeout"`
		Attempts       int    `yaml:"attempts"`
		RetryDelay     string `yaml:"retry_delay"`
		BatchThreshold int    `yaml:"batch_threshold"`
		BatchSize      int    `yaml:"batch_size"`
		BatchDelay     string `yaml:"batch_delay"`
		SpriteFallback string `yaml:"sprite_fallback"`
		LoadTimeout    string `yaml:"load_timeout"`
	} `yaml:"catalog"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FetchOptions converts the catalog section into fetcher options.
func (c Config) FetchOptions() fetch.Options {
	d := fetch.DefaultOptions()
	return fetch.Options{
		MaxAttempts:    c.Catalog.Attempts,
		RetryDelay:     Duration(c.Catalog.RetryDelay, d.RetryDelay),
		BatchThreshold: c.Catalog.BatchThreshold,
		BatchSize:      c.Catalog.BatchSize,
		BatchDelay:     Duration(c.Catalog.BatchDelay, d.BatchDelay),
		SpriteFallback: c.Catalog.SpriteFallback,
	}
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
