package types

import (
	"fmt"
	"strings"
)

// AssetClass is the closed set of instrument classes the engine sizes.
type AssetClass string

const (
	AssetEquity  AssetClass = "equity"
	AssetCrypto  AssetClass = "crypto"
	AssetFutures AssetClass = "futures"
	AssetForex   AssetClass = "forex"
	AssetOptions AssetClass = "options"
)

// Direction of a proposed trade.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// Strategy tags a trade intent with one of the supported playbooks. The same
// set doubles as the archetype vocabulary for the flow-state permission layer.
type Strategy string

const (
	StrategyTrendPullback    Strategy = "trend_pullback"
	StrategyBreakout         Strategy = "breakout_continuation"
	StrategyMeanReversion    Strategy = "mean_reversion"
	StrategyRangeFade        Strategy = "range_fade"
	StrategyMomentumReversal Strategy = "momentum_reversal"
	StrategyEvent            Strategy = "event"
)

// Regime is the market regime attached to an intent by the caller.
type Regime string

const (
	RegimeTrendUp        Regime = "trend_up"
	RegimeTrendDown      Regime = "trend_down"
	RegimeRangeNeutral   Regime = "range_neutral"
	RegimeVolExpansion   Regime = "vol_expansion"
	RegimeVolContraction Regime = "vol_contraction"
	RegimeRiskOffStress  Regime = "risk_off_stress"
)

// ScoringRegime is the five-bucket regime space the confluence weight matrix
// is calibrated over. Intents map into it via ScoringRegimeFor.
type ScoringRegime string

const (
	ScoringTrendExpansion   ScoringRegime = "TREND_EXPANSION"
	ScoringTrendMature      ScoringRegime = "TREND_MATURE"
	ScoringRangeCompression ScoringRegime = "RANGE_COMPRESSION"
	ScoringVolShock         ScoringRegime = "VOL_SHOCK"
	ScoringDriftNeutral     ScoringRegime = "DRIFT_NEUTRAL"
)

// ScoringRegimeFor maps the intent regime onto the scoring matrix buckets.
func ScoringRegimeFor(r Regime) ScoringRegime {
	switch r {
	case RegimeTrendUp, RegimeTrendDown:
		return ScoringTrendExpansion
	case RegimeVolExpansion, RegimeRiskOffStress:
		return ScoringVolShock
	case RegimeVolContraction:
		return ScoringRangeCompression
	case RegimeRangeNeutral:
		return ScoringDriftNeutral
	default:
		return ScoringDriftNeutral
	}
}

func ParseAssetClass(s string) (AssetClass, error) {
	switch AssetClass(normalize(s)) {
	case AssetEquity:
		return AssetEquity, nil
	case AssetCrypto:
		return AssetCrypto, nil
	case AssetFutures:
		return AssetFutures, nil
	case AssetForex:
		return AssetForex, nil
	case AssetOptions:
		return AssetOptions, nil
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

func ParseDirection(s string) (Direction, error) {
	switch Direction(normalize(s)) {
	case Long:
		return Long, nil
	case Short:
		return Short, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(normalize(s)) {
	case StrategyTrendPullback:
		return StrategyTrendPullback, nil
	case StrategyBreakout:
		return StrategyBreakout, nil
	case StrategyMeanReversion:
		return StrategyMeanReversion, nil
	case StrategyRangeFade:
		return StrategyRangeFade, nil
	case StrategyMomentumReversal:
		return StrategyMomentumReversal, nil
	case StrategyEvent:
		return StrategyEvent, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

func ParseRegime(s string) (Regime, error) {
	switch Regime(normalize(s)) {
	case RegimeTrendUp:
		return RegimeTrendUp, nil
	case RegimeTrendDown:
		return RegimeTrendDown, nil
	case RegimeRangeNeutral:
		return RegimeRangeNeutral, nil
	case RegimeVolExpansion:
		return RegimeVolExpansion, nil
	case RegimeVolContraction:
		return RegimeVolContraction, nil
	case RegimeRiskOffStress:
		return RegimeRiskOffStress, nil
	}
	return "", fmt.Errorf("unknown regime %q", s)
}

func normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
