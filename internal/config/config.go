// Package config loads the service configuration from YAML. A file may pull
// in shared fragments through an `include` list; fragments merge in order and
// the including file wins on conflicts.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig     `mapstructure:"app"`
	Risk     RiskConfig    `mapstructure:"risk"`
	Market   MarketConfig  `mapstructure:"market"`
	Journal  JournalConfig `mapstructure:"journal"`
	Overlays OverlayConfig `mapstructure:"overlays"`
}

type AppConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`
}

// RiskConfig carries the execution-layer limits and the default risk budget.
type RiskConfig struct {
	DefaultRiskPct        float64 `mapstructure:"default_risk_pct"`
	DailyLossPct          float64 `mapstructure:"daily_loss_pct"`
	PortfolioHeatPct      float64 `mapstructure:"portfolio_heat_pct"`
	MaxOpenTrades         int     `mapstructure:"max_open_trades"`
	MinRewardRisk         float64 `mapstructure:"min_reward_risk"`
	MaxTradeRiskPct       float64 `mapstructure:"max_trade_risk_pct"`
	MaxPositionEquityFrac float64 `mapstructure:"max_position_equity_frac"`
}

type MarketConfig struct {
	// Provider selects the ATR source: "binance" or "static".
	Provider  string        `mapstructure:"provider"`
	StaticATR float64       `mapstructure:"static_atr"`
	Binance   BinanceConfig `mapstructure:"binance"`
}

type BinanceConfig struct {
	Interval         string        `mapstructure:"interval"`
	Lookback         int           `mapstructure:"lookback"`
	ATRPeriod        int           `mapstructure:"atr_period"`
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type OverlayConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads path plus its includes, applies defaults and validates.
func Load(path string) (*Config, error) {
	files, err := resolveIncludes(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	for _, file := range files {
		if err := mergeConfigFile(v, file); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", file, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	tmp := viper.New()
	tmp.SetConfigFile(path)
	if err := tmp.ReadInConfig(); err != nil {
		return err
	}
	return v.MergeConfigMap(tmp.AllSettings())
}

// resolveIncludes returns the fragment files first, the main file last, so
// the main file's settings win the merge.
func resolveIncludes(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	tmp := viper.New()
	tmp.SetConfigFile(abs)
	if err := tmp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", abs, err)
	}
	files := make([]string, 0, 4)
	for _, inc := range tmp.GetStringSlice("include") {
		inc = strings.TrimSpace(inc)
		if inc == "" {
			continue
		}
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(abs), inc)
		}
		files = append(files, filepath.Clean(inc))
	}
	return append(files, abs), nil
}

func (c *Config) applyDefaults() {
	if c.App.ListenAddr == "" {
		c.App.ListenAddr = ":9980"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Risk.DefaultRiskPct <= 0 {
		c.Risk.DefaultRiskPct = 0.0075
	}
	if c.Risk.DailyLossPct <= 0 {
		c.Risk.DailyLossPct = 0.02
	}
	if c.Risk.PortfolioHeatPct <= 0 {
		c.Risk.PortfolioHeatPct = 0.06
	}
	if c.Risk.MaxOpenTrades <= 0 {
		c.Risk.MaxOpenTrades = 8
	}
	if c.Risk.MinRewardRisk <= 0 {
		c.Risk.MinRewardRisk = 1.5
	}
	if c.Risk.MaxTradeRiskPct <= 0 {
		c.Risk.MaxTradeRiskPct = 0.02
	}
	if c.Risk.MaxPositionEquityFrac <= 0 {
		c.Risk.MaxPositionEquityFrac = 0.25
	}
	if c.Market.Provider == "" {
		c.Market.Provider = "static"
	}
	if c.Market.Binance.Interval == "" {
		c.Market.Binance.Interval = "1h"
	}
	if c.Market.Binance.Lookback <= 0 {
		c.Market.Binance.Lookback = 100
	}
	if c.Market.Binance.ATRPeriod <= 0 {
		c.Market.Binance.ATRPeriod = 14
	}
	if c.Market.Binance.BreakerThreshold <= 0 {
		c.Market.Binance.BreakerThreshold = 5
	}
	if c.Market.Binance.BreakerCooldown <= 0 {
		c.Market.Binance.BreakerCooldown = time.Minute
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		c.Journal.Path = "data/decisions.db"
	}
}

func (c *Config) validate() error {
	switch c.Market.Provider {
	case "static", "binance":
	default:
		return fmt.Errorf("config: unknown market provider %q", c.Market.Provider)
	}
	if c.Risk.DefaultRiskPct >= 1 {
		return fmt.Errorf("config: default_risk_pct %.2f must be a fraction below 1", c.Risk.DefaultRiskPct)
	}
	if c.Risk.MaxTradeRiskPct >= 1 {
		return fmt.Errorf("config: max_trade_risk_pct %.2f must be a fraction below 1", c.Risk.MaxTradeRiskPct)
	}
	if c.Risk.DefaultRiskPct > c.Risk.MaxTradeRiskPct {
		return fmt.Errorf("config: default_risk_pct %.4f exceeds max_trade_risk_pct %.4f",
			c.Risk.DefaultRiskPct, c.Risk.MaxTradeRiskPct)
	}
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.App.LogLevel)
	}
	return nil
}
