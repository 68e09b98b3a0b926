// Package binance backs the market-data contract with Binance USDT-margined
// futures klines. Crypto only; other asset classes are served by the
// platform's own feeds upstream of this engine.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/markcheno/go-talib"

	"tradegate/internal/gateway"
	"tradegate/internal/pkg/circuit"
	"tradegate/internal/types"
)

const (
	DefaultInterval  = "1h"
	DefaultLookback  = 100
	DefaultATRPeriod = 14
)

// Config tunes the kline window and the breaker guarding the exchange.
type Config struct {
	Interval         string
	Lookback         int
	ATRPeriod        int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

func (c *Config) applyDefaults() {
	if c.Interval == "" {
		c.Interval = DefaultInterval
	}
	if c.Lookback <= 0 {
		c.Lookback = DefaultLookback
	}
	if c.ATRPeriod <= 0 {
		c.ATRPeriod = DefaultATRPeriod
	}
}

// ATRSource computes ATR from futures klines, behind a circuit breaker.
type ATRSource struct {
	client    *futures.Client
	interval  string
	lookback  int
	atrPeriod int
	breaker   *circuit.Breaker
}

var _ gateway.MarketData = (*ATRSource)(nil)

// NewATRSource builds the source. Public market data needs no API keys.
func NewATRSource(cfg Config) *ATRSource {
	cfg.applyDefaults()
	return &ATRSource{
		client:    futures.NewClient("", ""),
		interval:  cfg.Interval,
		lookback:  cfg.Lookback,
		atrPeriod: cfg.ATRPeriod,
		breaker:   circuit.New("binance-atr", cfg.BreakerThreshold, cfg.BreakerCooldown),
	}
}

func (s *ATRSource) Breaker() *circuit.Breaker { return s.breaker }

// FetchATR pulls klines and runs a Wilder ATR over them. Fails fast with
// circuit.ErrOpen while the breaker is rejecting traffic.
func (s *ATRSource) FetchATR(ctx context.Context, symbol string, asset types.AssetClass) (float64, error) {
	if asset != types.AssetCrypto {
		return 0, fmt.Errorf("binance: no ATR feed for asset class %q: %w", asset, gateway.ErrUnavailable)
	}

	var atr float64
	err := s.breaker.Do(func() error {
		klines, err := s.client.NewKlinesService().
			Symbol(symbol).
			Interval(s.interval).
			Limit(s.lookback).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("binance: fetch klines for %s: %w", symbol, err)
		}
		if len(klines) <= s.atrPeriod {
			return fmt.Errorf("binance: %d klines for %s, need more than %d: %w",
				len(klines), symbol, s.atrPeriod, gateway.ErrUnavailable)
		}

		highs := make([]float64, 0, len(klines))
		lows := make([]float64, 0, len(klines))
		closes := make([]float64, 0, len(klines))
		for _, k := range klines {
			h, err := strconv.ParseFloat(k.High, 64)
			if err != nil {
				return fmt.Errorf("binance: parse high %q: %w", k.High, err)
			}
			l, err := strconv.ParseFloat(k.Low, 64)
			if err != nil {
				return fmt.Errorf("binance: parse low %q: %w", k.Low, err)
			}
			c, err := strconv.ParseFloat(k.Close, 64)
			if err != nil {
				return fmt.Errorf("binance: parse close %q: %w", k.Close, err)
			}
			highs = append(highs, h)
			lows = append(lows, l)
			closes = append(closes, c)
		}

		series := talib.Atr(highs, lows, closes, s.atrPeriod)
		atr = series[len(series)-1]
		if atr <= 0 {
			return fmt.Errorf("binance: degenerate ATR %.8f for %s: %w", atr, symbol, gateway.ErrUnavailable)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return atr, nil
}
