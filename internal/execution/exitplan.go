// Package execution turns an approved trade intent into concrete execution
// artifacts: stop/target prices, a position size, a leverage figure, an
// optional options structure, and a broker-shaped order record. Every
// "by regime / by asset class / by strategy" behavior is a flat lookup
// table over the closed enums.
package execution

import (
	"fmt"

	"tradegate/internal/types"
)

// TrailRule is the trailing-stop policy attached to an exit plan.
type TrailRule string

const (
	TrailNone           TrailRule = "none"
	TrailATR1           TrailRule = "atr_1"
	TrailATR15          TrailRule = "atr_1_5"
	TrailATR2           TrailRule = "atr_2"
	TrailBreakevenAfter TrailRule = "breakeven_after_1r"
	TrailChandelier     TrailRule = "chandelier"
	TrailPercent        TrailRule = "percent_trail"
)

// ExitPlan is the stop/target structure for one trade.
type ExitPlan struct {
	Stop            float64   `json:"stop"`
	TakeProfit1     float64   `json:"take_profit_1"`
	TakeProfit2     float64   `json:"take_profit_2,omitempty"`
	Trail           TrailRule `json:"trail"`
	TimeStopMinutes int       `json:"time_stop_minutes,omitempty"`
	StopDistance    float64   `json:"stop_distance"`
	RewardRisk1     float64   `json:"reward_risk_1"`
	RewardRisk2     float64   `json:"reward_risk_2,omitempty"`
}

// Base ATR stop multipliers per asset class.
var atrStopMult = map[types.AssetClass]float64{
	types.AssetEquity:  1.5,
	types.AssetCrypto:  2.0,
	types.AssetFutures: 1.8,
	types.AssetForex:   1.2,
	types.AssetOptions: 1.5,
}

var regimeStopMult = map[types.Regime]float64{
	types.RegimeTrendUp:        1.0,
	types.RegimeTrendDown:      1.0,
	types.RegimeRangeNeutral:   0.9,
	types.RegimeVolExpansion:   1.4,
	types.RegimeVolContraction: 0.8,
	types.RegimeRiskOffStress:  1.5,
}

var strategyStopMult = map[types.Strategy]float64{
	types.StrategyTrendPullback:    1.0,
	types.StrategyBreakout:         1.1,
	types.StrategyMeanReversion:    0.9,
	types.StrategyRangeFade:        0.85,
	types.StrategyMomentumReversal: 1.2,
	types.StrategyEvent:            1.3,
}

// Base TP1/TP2 reward:risk ratios per asset class.
var baseRewardRisk = map[types.AssetClass][2]float64{
	types.AssetEquity:  {1.8, 3.0},
	types.AssetCrypto:  {2.0, 3.5},
	types.AssetFutures: {1.8, 3.0},
	types.AssetForex:   {1.6, 2.8},
	types.AssetOptions: {2.0, 3.0},
}

var regimeRewardMult = map[types.Regime]float64{
	types.RegimeTrendUp:        1.2,
	types.RegimeTrendDown:      1.2,
	types.RegimeRangeNeutral:   0.9,
	types.RegimeVolExpansion:   1.1,
	types.RegimeVolContraction: 0.9,
	types.RegimeRiskOffStress:  0.8,
}

var regimeTrail = map[types.Regime]TrailRule{
	types.RegimeTrendUp:        TrailChandelier,
	types.RegimeTrendDown:      TrailChandelier,
	types.RegimeRangeNeutral:   TrailPercent,
	types.RegimeVolExpansion:   TrailATR15,
	types.RegimeVolContraction: TrailATR1,
	types.RegimeRiskOffStress:  TrailATR2,
}

var strategyTimeStop = map[types.Strategy]int{
	types.StrategyEvent:            60,
	types.StrategyRangeFade:        240,
	types.StrategyMomentumReversal: 120,
}

// BuildExitPlan derives stop and targets from ATR and the lookup tables.
// A caller-supplied stop override replaces the ATR stop when it sits on the
// correct side of entry.
func BuildExitPlan(intent types.TradeIntent) (ExitPlan, error) {
	if intent.ATR <= 0 {
		return ExitPlan{}, fmt.Errorf("exit plan: atr must be > 0")
	}
	if intent.EntryPrice <= 0 {
		return ExitPlan{}, fmt.Errorf("exit plan: entry price must be > 0")
	}

	stopDist := intent.ATR * atrStopMult[intent.AssetClass] *
		regimeStopMult[intent.Regime] * strategyStopMult[intent.Strategy]

	stop := priceOffset(intent.EntryPrice, stopDist, lossSide(intent.Direction))
	if intent.StopOverride > 0 {
		if !stopOnCorrectSide(intent.Direction, intent.EntryPrice, intent.StopOverride) {
			return ExitPlan{}, fmt.Errorf("exit plan: stop override %.4f on wrong side of entry %.4f for %s",
				intent.StopOverride, intent.EntryPrice, intent.Direction)
		}
		stop = intent.StopOverride
		stopDist = absDiff(intent.EntryPrice, stop)
	}
	if stop <= 0 {
		return ExitPlan{}, fmt.Errorf("exit plan: computed stop %.4f is not a valid price", stop)
	}

	rr := baseRewardRisk[intent.AssetClass]
	rrMult := regimeRewardMult[intent.Regime]
	rr1 := rr[0] * rrMult
	rr2 := rr[1] * rrMult
	if rr1 < 1 {
		return ExitPlan{}, fmt.Errorf("exit plan: TP1 reward:risk %.2f below 1", rr1)
	}

	tp1 := priceOffset(intent.EntryPrice, stopDist*rr1, profitSide(intent.Direction))
	tp2 := priceOffset(intent.EntryPrice, stopDist*rr2, profitSide(intent.Direction))
	if tp1 <= 0 {
		return ExitPlan{}, fmt.Errorf("exit plan: TP1 %.4f is not a valid price", tp1)
	}
	if tp2 <= 0 {
		tp2 = 0
		rr2 = 0
	}

	return ExitPlan{
		Stop:            stop,
		TakeProfit1:     tp1,
		TakeProfit2:     tp2,
		Trail:           trailRuleFor(intent),
		TimeStopMinutes: strategyTimeStop[intent.Strategy],
		StopDistance:    stopDist,
		RewardRisk1:     rr1,
		RewardRisk2:     rr2,
	}, nil
}

// trailRuleFor: strategy-specific rules win over the regime table.
func trailRuleFor(intent types.TradeIntent) TrailRule {
	if intent.Strategy == types.StrategyMeanReversion {
		return TrailBreakevenAfter
	}
	if rule, ok := regimeTrail[intent.Regime]; ok {
		return rule
	}
	return TrailNone
}

func profitSide(d types.Direction) sideSign {
	if d == types.Short {
		return againstTrade
	}
	return withTrade
}

func lossSide(d types.Direction) sideSign {
	if d == types.Short {
		return withTrade
	}
	return againstTrade
}

func stopOnCorrectSide(d types.Direction, entry, stop float64) bool {
	if d == types.Short {
		return stop > entry
	}
	return stop < entry
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
