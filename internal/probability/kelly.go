package probability

import "tradegate/internal/types"

const (
	// Sizing is only advised when the edge clears every gate below.
	kellyMinAlignedSignals = 3
	kellyMinProbability    = 0.55
	kellyEdgeBuffer        = 0.05

	// Quarter-Kelly with hard ceilings; options carry the tightest cap.
	kellyFractionMultiplier = 0.25
	kellyCapOptions         = 0.10
	kellyCapDefault         = 0.20
)

// KellyInput feeds the advisory sizing calculation.
type KellyInput struct {
	WinProbability float64
	RewardRisk     float64 // TP1 reward:risk, the b in Kelly's f = (p(b+1)-1)/b
	AlignedSignals int
	AssetClass     types.AssetClass
}

// KellyResult reports the advisory fraction (of equity) and why sizing was
// withheld when it is zero.
type KellyResult struct {
	Fraction float64 `json:"fraction"`
	Gated    bool    `json:"gated"`
	Reason   string  `json:"reason,omitempty"`
}

// KellySize applies the three-stage gate (signal count, probability floor,
// edge buffer over break-even) before computing quarter-Kelly. All three
// gates must pass; a marginal edge sizes to zero, never to "a little".
func KellySize(in KellyInput) KellyResult {
	if in.AlignedSignals < kellyMinAlignedSignals {
		return KellyResult{Gated: true, Reason: "insufficient aligned signals"}
	}
	if in.WinProbability < kellyMinProbability {
		return KellyResult{Gated: true, Reason: "win probability below floor"}
	}
	if in.RewardRisk <= 0 {
		return KellyResult{Gated: true, Reason: "invalid reward:risk"}
	}
	breakEven := 1 / (1 + in.RewardRisk)
	if in.WinProbability < breakEven+kellyEdgeBuffer {
		return KellyResult{Gated: true, Reason: "edge inside break-even buffer"}
	}

	b := in.RewardRisk
	p := in.WinProbability
	full := (p*(b+1) - 1) / b
	if full <= 0 {
		return KellyResult{Gated: true, Reason: "non-positive kelly fraction"}
	}

	frac := full * kellyFractionMultiplier
	cap := kellyCapDefault
	if in.AssetClass == types.AssetOptions {
		cap = kellyCapOptions
	}
	if frac > cap {
		frac = cap
	}
	return KellyResult{Fraction: frac}
}
