// Package config loads the triangular-arbitrage engine's settings from
// a YAML file with .env-sourced overrides and credentials. Adapted from
// AlejandroRuiz99-polybot's config/config.go: same godotenv.Load +
// yaml.Unmarshal + applyEnvOverrides + setDefaults pipeline, restructured
// around spec.md §6's enumerated configuration instead of the scanner's
// reward-farming knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the engine's full configuration.
type Config struct {
	Arbitrage ArbitrageConfig `yaml:"arbitrage"`
	Risk      RiskConfig      `yaml:"risk"`
	Execution ExecutionConfig `yaml:"execution"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Log       LogConfig       `yaml:"log"`

	// BinanceAPIKey/BinanceAPISecret come only from the environment
	// (BINANCE_API_KEY / BINANCE_API_SECRET), never the YAML file.
	BinanceAPIKey    string `yaml:"-"`
	BinanceAPISecret string `yaml:"-"`
}

// ArbitrageConfig controls triangle discovery and opportunity detection.
type ArbitrageConfig struct {
	BaseCurrency            string  `yaml:"base_currency"`             // USDT | USDC | BUSD
	FeeRate                 float64 `yaml:"fee_rate"`                  // [0, 0.01]
	MinProfitThreshold      float64 `yaml:"min_profit_threshold"`      // [0, 0.1], fraction
	MaxTriangles            int     `yaml:"max_triangles"`             // [1, 500]
	MaxConcurrentTriangles  int     `yaml:"max_concurrent_triangles"`  // [1, 5]
}

// RiskConfig mirrors domain.RiskLimits.
type RiskConfig struct {
	MaxPositionPct         float64 `yaml:"max_position_pct"`  // [0.01, 1.0]
	MaxTradeSize           float64 `yaml:"max_trade_size"`
	MinTradeSize           float64 `yaml:"min_trade_size"`
	DailyLossLimit         float64 `yaml:"daily_loss_limit"`
	MaxDailyTrades         int     `yaml:"max_daily_trades"`
	MaxConcurrentPositions int     `yaml:"max_concurrent_positions"`
	MinTimeBetweenTradesMs int64   `yaml:"min_time_between_trades_ms"`
	MaxHoldTimeMs          int64   `yaml:"max_hold_time_ms"` // [1000, 60000]
}

// ExecutionConfig controls how a detected opportunity is dispatched.
type ExecutionConfig struct {
	UseMarketOrders bool    `yaml:"use_market_orders"`
	SlippageBuffer  float64 `yaml:"slippage_buffer"` // [0, 0.01]
	OrderTimeoutMs  int64   `yaml:"order_timeout_ms"` // [1000, 30000]
	DryRun          bool    `yaml:"dry_run"`
}

// ExchangeConfig contains the Binance REST/websocket base URLs and the
// documented rate-limit quota used to build internal/ratelimit.Limiter.
type ExchangeConfig struct {
	RESTBase             string  `yaml:"rest_base"`
	WSBase               string  `yaml:"ws_base"`
	RequestsPerSecond    float64 `yaml:"requests_per_second"`
	OrdersPerSecond      float64 `yaml:"orders_per_second"`
	WeightPerMinute      int     `yaml:"weight_per_minute"`
}

// LogConfig controls logging level and format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads path as YAML, applies a .env file (if present) and
// environment-variable overrides, then fills in defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if cfg.BinanceAPIKey == "" || cfg.BinanceAPISecret == "" {
		return nil, fmt.Errorf("config.Load: BINANCE_API_KEY and BINANCE_API_SECRET are required")
	}

	return &cfg, nil
}

// MaxHoldTime returns MaxHoldTimeMs as a time.Duration.
func (c *Config) MaxHoldTime() time.Duration {
	return time.Duration(c.Risk.MaxHoldTimeMs) * time.Millisecond
}

// OrderTimeout returns OrderTimeoutMs as a time.Duration.
func (c *Config) OrderTimeout() time.Duration {
	return time.Duration(c.Execution.OrderTimeoutMs) * time.Millisecond
}

func applyEnvOverrides(cfg *Config) {
	cfg.BinanceAPIKey = os.Getenv("BINANCE_API_KEY")
	cfg.BinanceAPISecret = os.Getenv("BINANCE_API_SECRET")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("DRY_RUN"); v == "true" {
		cfg.Execution.DryRun = true
	} else if v == "false" {
		cfg.Execution.DryRun = false
	}
}

func setDefaults(cfg *Config) {
	if cfg.Arbitrage.BaseCurrency == "" {
		cfg.Arbitrage.BaseCurrency = "USDT"
	}
	if cfg.Arbitrage.FeeRate <= 0 {
		cfg.Arbitrage.FeeRate = 0.001
	}
	if cfg.Arbitrage.MinProfitThreshold <= 0 {
		cfg.Arbitrage.MinProfitThreshold = 0.001
	}
	if cfg.Arbitrage.MaxTriangles <= 0 {
		cfg.Arbitrage.MaxTriangles = 100
	}
	if cfg.Arbitrage.MaxConcurrentTriangles <= 0 {
		cfg.Arbitrage.MaxConcurrentTriangles = 3
	}

	if cfg.Risk.MaxPositionPct <= 0 {
		cfg.Risk.MaxPositionPct = 0.1
	}
	if cfg.Risk.MaxTradeSize <= 0 {
		cfg.Risk.MaxTradeSize = 1000
	}
	if cfg.Risk.MinTradeSize <= 0 {
		cfg.Risk.MinTradeSize = 10
	}
	if cfg.Risk.MaxDailyTrades <= 0 {
		cfg.Risk.MaxDailyTrades = 200
	}
	if cfg.Risk.MaxConcurrentPositions <= 0 {
		cfg.Risk.MaxConcurrentPositions = 3
	}
	if cfg.Risk.MinTimeBetweenTradesMs <= 0 {
		cfg.Risk.MinTimeBetweenTradesMs = 500
	}
	if cfg.Risk.MaxHoldTimeMs <= 0 {
		cfg.Risk.MaxHoldTimeMs = 5000
	}

	if cfg.Execution.OrderTimeoutMs <= 0 {
		cfg.Execution.OrderTimeoutMs = 5000
	}

	if cfg.Exchange.RESTBase == "" {
		cfg.Exchange.RESTBase = "https://api.binance.com"
	}
	if cfg.Exchange.WSBase == "" {
		cfg.Exchange.WSBase = "wss://stream.binance.com:9443/stream"
	}
	if cfg.Exchange.RequestsPerSecond <= 0 {
		cfg.Exchange.RequestsPerSecond = 20
	}
	if cfg.Exchange.OrdersPerSecond <= 0 {
		cfg.Exchange.OrdersPerSecond = 10
	}
	if cfg.Exchange.WeightPerMinute <= 0 {
		cfg.Exchange.WeightPerMinute = 1200
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
