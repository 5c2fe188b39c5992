// Package config loads recommender configuration from an optional YAML
// file, with environment variables overriding file values. Secrets (the
// Gemini API key, the catalog token) come from the environment only so
// config files stay safe to commit.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Gemini   Gemini
	Catalog  Catalog
	Pipeline Pipeline
}

type Gemini struct {
	// APIKey is environment-only (GEMINI_API_KEY).
	APIKey  string
	Model   string
	BaseURL string
}

type Catalog struct {
	BaseURL string
	// Token is environment-only (CATALOG_TOKEN).
	Token   string
	Limit   int
	Timeout time.Duration
}

type Pipeline struct {
	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64
	FailFast       bool
}

// fileConfig is the YAML shape; durations are strings ("30s") so files stay
// human-editable.
type fileConfig struct {
	Gemini struct {
		Model   string `yaml:"model"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"gemini"`
	Catalog struct {
		BaseURL string `yaml:"base_url"`
		Limit   int    `yaml:"limit"`
		Timeout string `yaml:"timeout"`
	} `yaml:"catalog"`
	Pipeline struct {
		Workers        int     `yaml:"workers"`
		MaxRetries     int     `yaml:"max_retries"`
		RequestTimeout string  `yaml:"request_timeout"`
		RateLimitRPS   float64 `yaml:"rate_limit_rps"`
		FailFast       bool    `yaml:"fail_fast"`
	} `yaml:"pipeline"`
}

func defaults() Config {
	return Config{
		Gemini: Gemini{Model: "gemini-2.5-flash"},
		Catalog: Catalog{
			Limit:   10,
			Timeout: 10 * time.Second,
		},
		Pipeline: Pipeline{
			Workers:        4,
			MaxRetries:     2,
			RequestTimeout: 30 * time.Second,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if strings.TrimSpace(path) != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if v := strings.TrimSpace(fc.Gemini.Model); v != "" {
		cfg.Gemini.Model = v
	}
	if v := strings.TrimSpace(fc.Gemini.BaseURL); v != "" {
		cfg.Gemini.BaseURL = v
	}
	if v := strings.TrimSpace(fc.Catalog.BaseURL); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if fc.Catalog.Limit > 0 {
		cfg.Catalog.Limit = fc.Catalog.Limit
	}
	if v := strings.TrimSpace(fc.Catalog.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid catalog.timeout %q: %w", v, err)
		}
		cfg.Catalog.Timeout = d
	}
	if fc.Pipeline.Workers > 0 {
		cfg.Pipeline.Workers = fc.Pipeline.Workers
	}
	if fc.Pipeline.MaxRetries > 0 {
		cfg.Pipeline.MaxRetries = fc.Pipeline.MaxRetries
	}
	if v := strings.TrimSpace(fc.Pipeline.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid pipeline.request_timeout %q: %w", v, err)
		}
		cfg.Pipeline.RequestTimeout = d
	}
	if fc.Pipeline.RateLimitRPS > 0 {
		cfg.Pipeline.RateLimitRPS = fc.Pipeline.RateLimitRPS
	}
	if fc.Pipeline.FailFast {
		cfg.Pipeline.FailFast = true
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Gemini.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if v := strings.TrimSpace(os.Getenv("GEMINI_MODEL")); v != "" {
		cfg.Gemini.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")); v != "" {
		cfg.Gemini.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CATALOG_URL")); v != "" {
		cfg.Catalog.BaseURL = v
	}
	cfg.Catalog.Token = strings.TrimSpace(os.Getenv("CATALOG_TOKEN"))

	var err error
	if cfg.Catalog.Limit, err = envInt("CATALOG_LIMIT", cfg.Catalog.Limit); err != nil {
		return err
	}
	if cfg.Catalog.Timeout, err = envDuration("CATALOG_TIMEOUT", cfg.Catalog.Timeout); err != nil {
		return err
	}
	if cfg.Pipeline.Workers, err = envInt("WORKERS", cfg.Pipeline.Workers); err != nil {
		return err
	}
	if cfg.Pipeline.MaxRetries, err = envInt("MAX_RETRIES", cfg.Pipeline.MaxRetries); err != nil {
		return err
	}
	if cfg.Pipeline.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.Pipeline.RequestTimeout); err != nil {
		return err
	}
	if cfg.Pipeline.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.Pipeline.RateLimitRPS); err != nil {
		return err
	}
	if cfg.Pipeline.FailFast, err = envBool("FAIL_FAST", cfg.Pipeline.FailFast); err != nil {
		return err
	}
	return nil
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
