package gateway

import (
	"context"

	"tradegate/internal/pkg/circuit"
	"tradegate/internal/types"
)

// GuardedMarketData routes every market call through a circuit breaker so a
// flapping upstream fails fast instead of stalling evaluations.
type GuardedMarketData struct {
	inner   MarketData
	breaker *circuit.Breaker
}

func GuardMarketData(inner MarketData, b *circuit.Breaker) *GuardedMarketData {
	return &GuardedMarketData{inner: inner, breaker: b}
}

func (g *GuardedMarketData) FetchATR(ctx context.Context, symbol string, asset types.AssetClass) (float64, error) {
	var atr float64
	err := g.breaker.Do(func() error {
		var err error
		atr, err = g.inner.FetchATR(ctx, symbol, asset)
		return err
	})
	return atr, err
}

func (g *GuardedMarketData) Breaker() *circuit.Breaker { return g.breaker }

// GuardedAccountData is the same guard over the account store.
type GuardedAccountData struct {
	inner   AccountData
	breaker *circuit.Breaker
}

func GuardAccountData(inner AccountData, b *circuit.Breaker) *GuardedAccountData {
	return &GuardedAccountData{inner: inner, breaker: b}
}

func (g *GuardedAccountData) LatestEquity(ctx context.Context, accountID string) (float64, error) {
	var v float64
	err := g.breaker.Do(func() error {
		var err error
		v, err = g.inner.LatestEquity(ctx, accountID)
		return err
	})
	return v, err
}

func (g *GuardedAccountData) ListOpenPositions(ctx context.Context, accountID string) ([]types.OpenPosition, error) {
	var v []types.OpenPosition
	err := g.breaker.Do(func() error {
		var err error
		v, err = g.inner.ListOpenPositions(ctx, accountID)
		return err
	})
	return v, err
}

func (g *GuardedAccountData) DailyRealizedPnL(ctx context.Context, accountID string) (float64, error) {
	var v float64
	err := g.breaker.Do(func() error {
		var err error
		v, err = g.inner.DailyRealizedPnL(ctx, accountID)
		return err
	})
	return v, err
}

func (g *GuardedAccountData) OpenRiskTotal(ctx context.Context, accountID string) (float64, error) {
	var v float64
	err := g.breaker.Do(func() error {
		var err error
		v, err = g.inner.OpenRiskTotal(ctx, accountID)
		return err
	})
	return v, err
}

func (g *GuardedAccountData) Breaker() *circuit.Breaker { return g.breaker }
