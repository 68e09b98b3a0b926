package execution

import (
	"time"

	"tradegate/internal/types"

	"github.com/google/uuid"
)

// Bracket is the protective structure attached to the entry.
type Bracket struct {
	StopPrice   float64 `json:"stop_price"`
	TakeProfit1 float64 `json:"take_profit_1"`
	TakeProfit2 float64 `json:"take_profit_2,omitempty"`
}

// Order is the broker-shaped instruction assembled from the upstream
// results. Pure assembly: no decisions are made here.
type Order struct {
	ID          string            `json:"id"`
	TraceID     string            `json:"trace_id,omitempty"`
	Symbol      string            `json:"symbol"`
	AssetClass  types.AssetClass  `json:"asset_class"`
	Side        string            `json:"side"` // buy / sell
	Type        string            `json:"type"` // limit
	LimitPrice  float64           `json:"limit_price"`
	TimeInForce string            `json:"time_in_force"`
	Quantity    float64           `json:"quantity"`
	Leverage    float64           `json:"leverage"`
	Bracket     Bracket           `json:"bracket"`
	Trail       TrailRule         `json:"trail"`
	TimeStopMin int               `json:"time_stop_minutes,omitempty"`
	Options     *OptionsStructure `json:"options,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// BuildOrder assembles the final record from the already-decided parts.
func BuildOrder(intent types.TradeIntent, plan ExitPlan, sizing SizingResult, lev LeverageResult, opts *OptionsStructure, traceID string) Order {
	side := "buy"
	if intent.Direction == types.Short {
		side = "sell"
	}
	return Order{
		ID:          uuid.NewString(),
		TraceID:     traceID,
		Symbol:      intent.Symbol,
		AssetClass:  intent.AssetClass,
		Side:        side,
		Type:        "limit",
		LimitPrice:  intent.EntryPrice,
		TimeInForce: "day",
		Quantity:    sizing.Quantity,
		Leverage:    lev.Applied,
		Bracket: Bracket{
			StopPrice:   plan.Stop,
			TakeProfit1: plan.TakeProfit1,
			TakeProfit2: plan.TakeProfit2,
		},
		Trail:       plan.Trail,
		TimeStopMin: plan.TimeStopMinutes,
		Options:     opts,
		CreatedAt:   time.Now().UTC(),
	}
}
