// Package config loads the application configuration: the symbol watch
// list, the analyze cadence, the market data sources and the optional
// indicator mirror.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"aetherquant/pkg/market"
)

const (
	defaultInterval = 5 * time.Minute
	defaultRedisTTL = time.Minute
)

// Config is the top-level application configuration.
type Config struct {
	Symbols     []string      `yaml:"symbols"`
	IntervalRaw string        `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`

	Market market.Config `yaml:"market"`
	Redis  RedisConfig   `yaml:"redis"`
}

// RedisConfig describes the optional latest-indicator mirror. An empty addr
// disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTLRaw   string        `yaml:"ttl"`
	TTL      time.Duration `yaml:"-"`
}

// Load reads configuration from disk.
func Load(path string) (*Config, error) {
	LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()
	return LoadFromReader(file)
}

// LoadFromReader constructs a Config from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	LoadDotenvOnce()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	symbols := make([]string, 0, len(c.Symbols))
	for _, sym := range c.Symbols {
		sym = strings.TrimSpace(os.ExpandEnv(sym))
		if sym != "" {
			symbols = append(symbols, sym)
		}
	}
	c.Symbols = symbols

	c.IntervalRaw = strings.TrimSpace(os.ExpandEnv(c.IntervalRaw))
	c.Interval = defaultInterval
	if c.IntervalRaw != "" {
		d, err := time.ParseDuration(c.IntervalRaw)
		if err != nil {
			return fmt.Errorf("config: invalid interval %q: %w", c.IntervalRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("config: interval must be positive, got %s", d)
		}
		c.Interval = d
	}

	if err := c.Market.Normalise(); err != nil {
		return err
	}
	return c.Redis.normalise()
}

func (r *RedisConfig) normalise() error {
	r.Addr = strings.TrimSpace(os.ExpandEnv(r.Addr))
	r.Password = strings.TrimSpace(os.ExpandEnv(r.Password))
	r.TTLRaw = strings.TrimSpace(os.ExpandEnv(r.TTLRaw))
	r.TTL = defaultRedisTTL
	if r.TTLRaw != "" {
		d, err := time.ParseDuration(r.TTLRaw)
		if err != nil {
			return fmt.Errorf("config: invalid redis ttl %q: %w", r.TTLRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("config: redis ttl must be positive, got %s", d)
		}
		r.TTL = d
	}
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("config: symbols cannot be empty")
	}
	return c.Market.Validate()
}
