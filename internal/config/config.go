// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"laundry-settlement/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	Currency      string `yaml:"currency"`
}

type SweepConfig struct {
	Interval   time.Duration `yaml:"interval"`    // how often to scan for stale payments
	StaleAfter time.Duration `yaml:"stale_after"` // how old a pending payment must be
	BatchSize  int           `yaml:"batch_size"`
}

type SyncConfig struct {
	BackendURL    string        `yaml:"backend_url"`
	ListenAddr    string        `yaml:"listen_addr"` // loopback draft intake
	DrainInterval time.Duration `yaml:"drain_interval"`
	DebounceWait  time.Duration `yaml:"debounce_wait"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

type Config struct {
	Log      LogConfig         `yaml:"log"`
	Server   ServerConfig      `yaml:"server"`
	Database DatabaseConfig    `yaml:"database"`
	Redis    RedisConfig       `yaml:"redis"`
	Stripe   StripeConfig      `yaml:"stripe"`
	Fees     model.FeeSchedule `yaml:"fees"`
	Sweep    SweepConfig       `yaml:"sweep"`
	Sync     SyncConfig        `yaml:"sync"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "usd"
	}
	if cfg.Fees.CommissionBps == 0 {
		cfg.Fees.CommissionBps = 1500
	}
	if cfg.Fees.ProcessingBps == 0 {
		cfg.Fees.ProcessingBps = 290
	}
	if cfg.Fees.ProcessingFixedCents == 0 {
		cfg.Fees.ProcessingFixedCents = 30
	}
	if cfg.Sweep.Interval <= 0 {
		cfg.Sweep.Interval = time.Minute
	}
	if cfg.Sweep.StaleAfter <= 0 {
		cfg.Sweep.StaleAfter = 10 * time.Minute
	}
	if cfg.Sweep.BatchSize <= 0 {
		cfg.Sweep.BatchSize = 200
	}
	applySyncDefaults(&cfg.Sync)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Stripe.SecretKey == "" {
		return nil, errors.New("stripe.secret_key is required")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, errors.New("stripe.webhook_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// LoadKioskConfig reads the device-side config. The kiosk shares the file
// format with the backend but only uses the log, redis and sync sections,
// so none of the backend credentials are required.
func LoadKioskConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "localhost:6379"
	}
	applySyncDefaults(&cfg.Sync)

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applySyncDefaults(s *SyncConfig) {
	if s.BackendURL == "" {
		s.BackendURL = "http://localhost:8080"
	}
	if s.ListenAddr == "" {
		s.ListenAddr = "127.0.0.1:7070"
	}
	if s.DrainInterval <= 0 {
		s.DrainInterval = 30 * time.Second
	}
	if s.DebounceWait <= 0 {
		s.DebounceWait = 750 * time.Millisecond
	}
	if s.ProbeInterval <= 0 {
		s.ProbeInterval = 5 * time.Second
	}
}
