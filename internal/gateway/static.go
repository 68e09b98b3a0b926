package gateway

import (
	"context"

	"tradegate/internal/types"
)

// Static serves fixed answers. Used by tests and by deployments that pass the
// full exposure snapshot inline with every intent instead of wiring a live
// account store.
type Static struct {
	ATR          float64
	Equity       float64
	DailyPnL     float64
	OpenRisk     float64
	Positions    []types.OpenPosition
	ATRErr       error
	EquityErr    error
	PositionsErr error
	DailyPnLErr  error
	OpenRiskErr  error
}

var (
	_ MarketData  = (*Static)(nil)
	_ AccountData = (*Static)(nil)
)

func (s *Static) FetchATR(ctx context.Context, symbol string, asset types.AssetClass) (float64, error) {
	if s.ATRErr != nil {
		return 0, s.ATRErr
	}
	return s.ATR, nil
}

func (s *Static) LatestEquity(ctx context.Context, accountID string) (float64, error) {
	if s.EquityErr != nil {
		return 0, s.EquityErr
	}
	return s.Equity, nil
}

func (s *Static) ListOpenPositions(ctx context.Context, accountID string) ([]types.OpenPosition, error) {
	if s.PositionsErr != nil {
		return nil, s.PositionsErr
	}
	return s.Positions, nil
}

func (s *Static) DailyRealizedPnL(ctx context.Context, accountID string) (float64, error) {
	if s.DailyPnLErr != nil {
		return 0, s.DailyPnLErr
	}
	return s.DailyPnL, nil
}

func (s *Static) OpenRiskTotal(ctx context.Context, accountID string) (float64, error) {
	if s.OpenRiskErr != nil {
		return 0, s.OpenRiskErr
	}
	return s.OpenRisk, nil
}
