package types

import (
	"fmt"
	"strings"
)

// TradeIntent is a single proposed trade plus the account state it would be
// executed against. It is a value: nothing in the engine mutates it after
// construction, so one intent can fan out to every scorer concurrently.
type TradeIntent struct {
	Symbol     string
	AssetClass AssetClass
	Direction  Direction
	Strategy   Strategy
	Regime     Regime

	// Confidence is the caller's conviction in [0,100].
	Confidence float64

	EntryPrice   float64
	ATR          float64
	StopOverride float64 // 0 means none

	Equity           float64
	RiskPct          float64 // fraction, e.g. 0.0075
	LeverageOverride float64 // 0 means none

	OpenPositions []OpenPosition
}

// OpenPosition is the slice of portfolio state the governor needs for
// correlation and heat checks.
type OpenPosition struct {
	Symbol     string     `json:"symbol"`
	Direction  Direction  `json:"direction"`
	AssetClass AssetClass `json:"asset_class"`
	RiskUSD    float64    `json:"risk_usd,omitempty"`
}

// NewTradeIntent validates enums and clamps confidence. The returned intent
// is immutable by convention for the rest of the pipeline.
func NewTradeIntent(symbol string, asset AssetClass, dir Direction, strat Strategy, regime Regime, confidence, entry, atr float64) (TradeIntent, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return TradeIntent{}, fmt.Errorf("intent: symbol is required")
	}
	if entry <= 0 {
		return TradeIntent{}, fmt.Errorf("intent: entry price must be > 0, got %v", entry)
	}
	if atr < 0 {
		return TradeIntent{}, fmt.Errorf("intent: atr cannot be negative")
	}
	if _, err := ParseAssetClass(string(asset)); err != nil {
		return TradeIntent{}, err
	}
	if _, err := ParseDirection(string(dir)); err != nil {
		return TradeIntent{}, err
	}
	if _, err := ParseStrategy(string(strat)); err != nil {
		return TradeIntent{}, err
	}
	if _, err := ParseRegime(string(regime)); err != nil {
		return TradeIntent{}, err
	}
	return TradeIntent{
		Symbol:     symbol,
		AssetClass: asset,
		Direction:  dir,
		Strategy:   strat,
		Regime:     regime,
		Confidence: Clamp(confidence, 0, 100),
		EntryPrice: entry,
		ATR:        atr,
	}, nil
}

// ATRPct is ATR expressed as a fraction of entry price. Zero when either
// input is missing.
func (t TradeIntent) ATRPct() float64 {
	if t.EntryPrice <= 0 || t.ATR <= 0 {
		return 0
	}
	return t.ATR / t.EntryPrice
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
