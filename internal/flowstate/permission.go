// Package flowstate grants or refuses trade permission from a coarse market
// flow state and a requested archetype: an alignment-weighted score blended
// with institutional, data-health and liquidity signals, hard auto-block
// rules, and an optional session overlay that can only tighten the verdict.
package flowstate

import (
	"fmt"

	"tradegate/internal/types"
)

// TPS blend weights.
const (
	weightAlignment   = 0.45
	weightInstitution = 0.25
	weightDataHealth  = 0.15
	weightLiquidity   = 0.15
)

// DefaultTPSThreshold is the permission floor unless a session overlay
// tightens it.
const DefaultTPSThreshold = 0.65

// Auto-block triggers.
const (
	compressionTrapLevel = 0.7
	compressionLiquidity = 0.4
	staleDataHealthFloor = 0.5
)

// Input is one permission request.
type Input struct {
	State     FlowState      `json:"state"`
	Archetype types.Strategy `json:"archetype"`

	// Blend signals, all in [0,1].
	InstitutionalProb float64 `json:"institutional_prob"`
	DataHealth        float64 `json:"data_health"`
	LiquidityClarity  float64 `json:"liquidity_clarity"`

	// VolCompression feeds the accumulation-trap auto block.
	VolCompression float64 `json:"vol_compression"`
}

// Verdict is the permission result. Always returned, never an error.
type Verdict struct {
	Allowed     bool        `json:"allowed"`
	TPS         float64     `json:"tps"`
	Threshold   float64     `json:"threshold"`
	Alignment   float64     `json:"alignment"`
	AutoBlocked bool        `json:"auto_blocked"`
	Reason      string      `json:"reason,omitempty"`
	Policy      StatePolicy `json:"policy"`
	Overlay     string      `json:"overlay,omitempty"`
}

// Evaluate computes the trade-permission score and applies the auto-block
// rules. Pure function.
func Evaluate(in Input) Verdict {
	align := alignment(in.State, in.Archetype)
	tps := weightAlignment*align +
		weightInstitution*types.Clamp(in.InstitutionalProb, 0, 1) +
		weightDataHealth*types.Clamp(in.DataHealth, 0, 1) +
		weightLiquidity*types.Clamp(in.LiquidityClarity, 0, 1)

	v := Verdict{
		TPS:       tps,
		Threshold: DefaultTPSThreshold,
		Alignment: align,
		Policy:    statePolicyTable[in.State],
	}

	// Auto blocks trump the score in either direction.
	if in.State == StateAccumulation && in.VolCompression > compressionTrapLevel && in.LiquidityClarity < compressionLiquidity {
		v.AutoBlocked = true
		v.Reason = "accumulation compression trap: high compression with unclear liquidity"
		return blocked(v)
	}
	if in.DataHealth < staleDataHealthFloor {
		v.AutoBlocked = true
		v.Reason = fmt.Sprintf("data health %.2f below %.2f: refusing to answer on stale inputs", in.DataHealth, staleDataHealthFloor)
		return blocked(v)
	}

	if tps < v.Threshold {
		v.Reason = fmt.Sprintf("trade-permission score %.2f below threshold %.2f", tps, v.Threshold)
		return blocked(v)
	}
	v.Allowed = true
	return v
}

// EvaluateWithOverlay runs Evaluate and then applies the session overlay.
// Overlay effects are last and strictly conservative: downward TPS shifts,
// threshold raises, size caps and extra blocks apply; nothing an overlay
// says can turn a refusal into a permission.
func EvaluateWithOverlay(in Input, ov *Overlay) Verdict {
	base := Evaluate(in)
	if ov == nil {
		return base
	}
	return ov.apply(in, base)
}

func blocked(v Verdict) Verdict {
	v.Allowed = false
	v.Policy = StatePolicy{SizeMult: 0, StopStyle: v.Policy.StopStyle}
	return v
}
