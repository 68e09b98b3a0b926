package execution

import (
	"fmt"

	"tradegate/internal/types"
)

// Notional exposure may never exceed this fraction of equity times leverage.
const maxNotionalEquityFrac = 0.25

// Lot steps per asset class: whole shares for equities, 4-decimal crypto,
// 1000-unit forex lots, whole contracts otherwise.
func lotRound(qty float64, asset types.AssetClass) float64 {
	switch asset {
	case types.AssetCrypto:
		return floorToPlaces(qty, 4)
	case types.AssetForex:
		return floorToStep(qty, 1000)
	default:
		return floorToStep(qty, 1)
	}
}

// SizingInput carries the already-resolved figures sizing needs.
type SizingInput struct {
	Intent       types.TradeIntent
	StopDistance float64
	Leverage     float64

	// MaxPositionUSD is an optional governor-supplied notional cap.
	MaxPositionUSD float64

	// SizeMultiplier scales the risk budget (governor / flow-state output).
	SizeMultiplier float64
}

// SizingResult is the deterministic equity-risk sizing outcome. The Kelly
// advisory from the probability engine is a separate, optional ceiling and
// never replaces this formula.
type SizingResult struct {
	Quantity         float64 `json:"quantity"`
	RawQuantity      float64 `json:"raw_quantity"`
	RiskPerUnit      float64 `json:"risk_per_unit"`
	TotalRiskUSD     float64 `json:"total_risk_usd"`
	Equity           float64 `json:"equity"`
	EffectiveRiskPct float64 `json:"effective_risk_pct"`
	NotionalUSD      float64 `json:"notional_usd"`
	Leverage         float64 `json:"leverage"`
}

// ComputeSize sizes the position off equity, risk percent and stop distance,
// then applies the governor cap, the notional ceiling, and lot rounding, in
// that order.
func ComputeSize(in SizingInput) (SizingResult, error) {
	intent := in.Intent
	if intent.Equity <= 0 {
		return SizingResult{}, fmt.Errorf("sizing: equity must be > 0")
	}
	if intent.RiskPct <= 0 {
		return SizingResult{}, fmt.Errorf("sizing: risk percent must be > 0")
	}
	if in.StopDistance <= 0 {
		return SizingResult{}, fmt.Errorf("sizing: stop distance must be > 0")
	}
	leverage := in.Leverage
	if leverage < 1 {
		leverage = 1
	}
	mult := in.SizeMultiplier
	if mult <= 0 || mult > 1 {
		mult = 1
	}

	riskBudget := intent.Equity * intent.RiskPct * mult
	rawQty := riskBudget / in.StopDistance
	qty := rawQty

	if in.MaxPositionUSD > 0 {
		if capQty := in.MaxPositionUSD / intent.EntryPrice; capQty < qty {
			qty = capQty
		}
	}

	maxNotional := intent.Equity * maxNotionalEquityFrac * leverage
	if qty*intent.EntryPrice > maxNotional {
		qty = maxNotional / intent.EntryPrice
	}

	qty = lotRound(qty, intent.AssetClass)
	if qty <= 0 {
		return SizingResult{}, fmt.Errorf("sizing: rounded quantity is zero (budget %.2f, stop distance %.4f)", riskBudget, in.StopDistance)
	}

	return SizingResult{
		Quantity:         qty,
		RawQuantity:      rawQty,
		RiskPerUnit:      in.StopDistance,
		TotalRiskUSD:     qty * in.StopDistance,
		Equity:           intent.Equity,
		EffectiveRiskPct: qty * in.StopDistance / intent.Equity,
		NotionalUSD:      qty * intent.EntryPrice,
		Leverage:         leverage,
	}, nil
}
