// Package confluence maps six 0-100 component scores through a
// regime-calibrated weight matrix into a single weighted score with hard
// minimum gates and a trade-bias label.
package confluence

import (
	"fmt"
	"sort"

	"tradegate/internal/types"
)

// Components are the six raw inputs. Callers may pass anything; Clamp is
// applied before scoring.
type Components struct {
	SignalQuality      float64 `json:"signal_quality"`
	TechnicalAlignment float64 `json:"technical_alignment"`
	VolumeActivity     float64 `json:"volume_activity"`
	LiquidityLevel     float64 `json:"liquidity_level"`
	MTFAgreement       float64 `json:"mtf_agreement"`
	FundamentalDeriv   float64 `json:"fundamental_derivatives"`
}

// Clamp bounds every component to [0,100].
func (c Components) Clamp() Components {
	return Components{
		SignalQuality:      types.Clamp(c.SignalQuality, 0, 100),
		TechnicalAlignment: types.Clamp(c.TechnicalAlignment, 0, 100),
		VolumeActivity:     types.Clamp(c.VolumeActivity, 0, 100),
		LiquidityLevel:     types.Clamp(c.LiquidityLevel, 0, 100),
		MTFAgreement:       types.Clamp(c.MTFAgreement, 0, 100),
		FundamentalDeriv:   types.Clamp(c.FundamentalDeriv, 0, 100),
	}
}

func (c Components) value(key Component) float64 {
	switch key {
	case SignalQuality:
		return c.SignalQuality
	case TechnicalAlignment:
		return c.TechnicalAlignment
	case VolumeActivity:
		return c.VolumeActivity
	case LiquidityLevel:
		return c.LiquidityLevel
	case MTFAgreement:
		return c.MTFAgreement
	case FundamentalDeriv:
		return c.FundamentalDeriv
	default:
		return 0
	}
}

// Bias labels the (possibly gate-capped) score.
type Bias string

const (
	BiasNeutral        Bias = "neutral"
	BiasConditional    Bias = "conditional"
	BiasValid          Bias = "valid"
	BiasHighConfluence Bias = "high_confluence"
)

// gateCapScore is the ceiling applied when any minimum gate fails; it pins
// the result to at most a conditional bias.
const gateCapScore = 55

// GateViolation reports one failed minimum gate.
type GateViolation struct {
	Component Component `json:"component"`
	Value     float64   `json:"value"`
	Minimum   float64   `json:"minimum"`
}

func (g GateViolation) String() string {
	return fmt.Sprintf("%s %.0f < min %.0f", g.Component, g.Value, g.Minimum)
}

// Result is the full scoring output. Pure value; deterministic for equal
// inputs.
type Result struct {
	Regime        types.ScoringRegime   `json:"regime"`
	WeightedScore float64               `json:"weighted_score"`
	RawScore      float64               `json:"raw_score"`
	Breakdown     map[Component]float64 `json:"breakdown"`
	Violations    []GateViolation       `json:"violations,omitempty"`
	Capped        bool                  `json:"capped"`
	Bias          Bias                  `json:"bias"`
}

// Score computes the weighted confluence score for one regime. Missing
// regimes degrade to the neutral drift matrix rather than failing.
func Score(raw Components, regime types.ScoringRegime) Result {
	rw, ok := Matrix[regime]
	if !ok {
		regime = types.ScoringDriftNeutral
		rw = Matrix[regime]
	}
	c := raw.Clamp()

	breakdown := make(map[Component]float64, len(Order))
	total := 0.0
	for _, key := range Order {
		part := c.value(key) * rw.Weights[key]
		breakdown[key] = part
		total += part
	}

	var violations []GateViolation
	for key, min := range rw.Gates {
		if v := c.value(key); v < min {
			violations = append(violations, GateViolation{Component: key, Value: v, Minimum: min})
		}
	}
	sort.Slice(violations, func(i, j int) bool { return violations[i].Component < violations[j].Component })

	score := types.Clamp(total, 0, 100)
	capped := false
	if len(violations) > 0 && score > gateCapScore {
		score = gateCapScore
		capped = true
	}

	return Result{
		Regime:        regime,
		WeightedScore: score,
		RawScore:      total,
		Breakdown:     breakdown,
		Violations:    violations,
		Capped:        capped,
		Bias:          biasFor(score),
	}
}

func biasFor(score float64) Bias {
	switch {
	case score < 55:
		return BiasNeutral
	case score < 70:
		return BiasConditional
	case score < 85:
		return BiasValid
	default:
		return BiasHighConfluence
	}
}
