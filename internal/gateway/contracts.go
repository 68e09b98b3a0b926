// Package gateway declares the narrow collaborator contracts the decision
// core consumes, plus circuit-breaker guards for the implementations that
// reach over the network.
package gateway

import (
	"context"
	"errors"

	"tradegate/internal/types"
)

// ErrUnavailable marks a collaborator that answered but had no usable data
// (as opposed to a transport failure).
var ErrUnavailable = errors.New("gateway: data unavailable")

// DefaultEquityFallback is assumed when the account source cannot answer.
// An explicit zero answer is not a fallback case; that is a hard sizing
// failure upstream.
const DefaultEquityFallback = 100_000.0

// MarketData supplies volatility inputs.
type MarketData interface {
	FetchATR(ctx context.Context, symbol string, asset types.AssetClass) (float64, error)
}

// AccountData supplies the per-account exposure snapshot. Backed by the
// platform's persistence layer; the core only ever reads through it.
type AccountData interface {
	LatestEquity(ctx context.Context, accountID string) (float64, error)
	ListOpenPositions(ctx context.Context, accountID string) ([]types.OpenPosition, error)
	DailyRealizedPnL(ctx context.Context, accountID string) (float64, error)
	OpenRiskTotal(ctx context.Context, accountID string) (float64, error)
}
