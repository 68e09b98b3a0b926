// Package governor implements the institutional risk governor: five
// independent sub-scores (capital, drawdown, correlation, volatility,
// behavior) combined into a composite index that selects an operating mode.
// Any individual hard block fails the trade closed no matter how healthy the
// composite looks; the index only ever drives sizing.
package governor

import (
	"time"

	"tradegate/internal/types"
)

// Composite weights, fixed.
const (
	weightCapital     = 0.30
	weightDrawdown    = 0.25
	weightCorrelation = 0.20
	weightVolatility  = 0.15
	weightBehavior    = 0.10
)

// RiskMode is the operating mode selected by the composite index.
type RiskMode string

const (
	ModeFullOffense RiskMode = "FULL_OFFENSE"
	ModeNormal      RiskMode = "NORMAL"
	ModeDefensive   RiskMode = "DEFENSIVE"
	ModeLockdown    RiskMode = "LOCKDOWN"
)

// Input bundles everything the governor inspects for one proposed trade.
type Input struct {
	Intent  types.TradeIntent
	Account types.AccountState

	// ProposedRiskPct is the fraction of equity this trade would put at risk.
	ProposedRiskPct float64

	// Volatility expansion pair.
	ExpansionProb   float64
	VolAcceleration float64
}

// Output is the governor verdict.
type Output struct {
	Index            float64    `json:"index"`
	Mode             RiskMode   `json:"mode"`
	ExecutionAllowed bool       `json:"execution_allowed"`
	SizeMultiplier   float64    `json:"size_multiplier"`
	SubScores        []SubScore `json:"sub_scores"`
	BlockReasons     []string   `json:"block_reasons,omitempty"`
	Remediations     []string   `json:"remediations,omitempty"`
}

// Evaluate runs all five sub-scores. Pure given a fixed clock; callers in
// tests inject now.
func Evaluate(in Input, now time.Time) Output {
	subs := []SubScore{
		scoreCapital(in),
		scoreDrawdown(in),
		scoreCorrelation(in),
		scoreVolatility(in),
		scoreBehavior(in, now),
	}
	weights := []float64{weightCapital, weightDrawdown, weightCorrelation, weightVolatility, weightBehavior}

	index := 0.0
	sizeMult := 1.0
	allowed := true
	var reasons, remedies []string
	for i, sub := range subs {
		index += sub.Score * weights[i]
		sizeMult *= sub.SizeMult
		if sub.Blocked {
			allowed = false
			reasons = append(reasons, sub.Reason)
			remedies = append(remedies, remediationFor(sub.Name))
		}
	}

	out := Output{
		Index:            types.Clamp(index, 0, 1),
		Mode:             modeFor(index),
		ExecutionAllowed: allowed,
		SizeMultiplier:   sizeMult,
		SubScores:        subs,
		BlockReasons:     reasons,
		Remediations:     remedies,
	}
	if !allowed {
		out.SizeMultiplier = 0
	}
	return out
}

func modeFor(index float64) RiskMode {
	switch {
	case index >= 0.85:
		return ModeFullOffense
	case index >= 0.70:
		return ModeNormal
	case index >= 0.50:
		return ModeDefensive
	default:
		return ModeLockdown
	}
}

func remediationFor(sub string) string {
	switch sub {
	case "capital":
		return "reduce position risk or close open exposure before re-submitting"
	case "drawdown":
		return "stop trading for the session; review losing trades before resuming"
	case "correlation":
		return "close or reduce same-cluster exposure, or pick an uncorrelated symbol"
	case "volatility":
		return "wait for volatility to normalize or switch to a non-breakout entry"
	case "behavior":
		return "step away from the screen until the cooldown window passes"
	default:
		return "review risk state before re-submitting"
	}
}
