package market

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultSpotURL    = "https://data-api.binance.vision"
	defaultFuturesURL = "https://fapi.binance.com"
	defaultMacroURL   = "https://query1.finance.yahoo.com"
	defaultTimeout    = 10 * time.Second
	defaultDepthLimit = 50
	defaultTradeLimit = 100
)

// Config describes the upstream data sources behind the snapshot provider.
type Config struct {
	SpotURL    string `yaml:"spot_url"`
	FuturesURL string `yaml:"futures_url"`
	MacroURL   string `yaml:"macro_url"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`

	DepthLimit int `yaml:"depth_limit"`
	TradeLimit int `yaml:"trade_limit"`
}

// Normalise expands environment variables, applies defaults and parses
// duration fields. Call before Validate.
func (c *Config) Normalise() error {
	c.SpotURL = strings.TrimSpace(os.ExpandEnv(c.SpotURL))
	c.FuturesURL = strings.TrimSpace(os.ExpandEnv(c.FuturesURL))
	c.MacroURL = strings.TrimSpace(os.ExpandEnv(c.MacroURL))
	c.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(c.TimeoutRaw))

	if c.SpotURL == "" {
		c.SpotURL = defaultSpotURL
	}
	if c.FuturesURL == "" {
		c.FuturesURL = defaultFuturesURL
	}
	if c.MacroURL == "" {
		c.MacroURL = defaultMacroURL
	}
	if c.DepthLimit == 0 {
		c.DepthLimit = defaultDepthLimit
	}
	if c.TradeLimit == 0 {
		c.TradeLimit = defaultTradeLimit
	}

	c.Timeout = defaultTimeout
	if c.TimeoutRaw != "" {
		d, err := time.ParseDuration(c.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("market config: invalid timeout %q: %w", c.TimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("market config: timeout must be positive, got %s", d)
		}
		c.Timeout = d
	}
	return nil
}

// Validate ensures the configuration is structurally sound. A missing base
// URL is the one catastrophic configuration error the pipeline refuses to
// start with.
func (c *Config) Validate() error {
	if c.SpotURL == "" {
		return fmt.Errorf("market config: spot_url cannot be empty")
	}
	if c.MacroURL == "" {
		return fmt.Errorf("market config: macro_url cannot be empty")
	}
	if c.DepthLimit < 0 {
		return fmt.Errorf("market config: depth_limit cannot be negative, got %d", c.DepthLimit)
	}
	if c.TradeLimit < 0 {
		return fmt.Errorf("market config: trade_limit cannot be negative, got %d", c.TradeLimit)
	}
	return nil
}
