package confluence

import "tradegate/internal/types"

// Component identifies one of the six confluence inputs.
type Component string

const (
	SignalQuality      Component = "SQ"
	TechnicalAlignment Component = "TA"
	VolumeActivity     Component = "VA"
	LiquidityLevel     Component = "LL"
	MTFAgreement       Component = "MTF"
	FundamentalDeriv   Component = "FD"
)

// Order is the canonical component ordering used for breakdown output.
var Order = []Component{SignalQuality, TechnicalAlignment, VolumeActivity, LiquidityLevel, MTFAgreement, FundamentalDeriv}

// RegimeWeights holds the per-regime weight vector plus the minimum-value
// gates. Weights need not sum to exactly 1. Static configuration.
type RegimeWeights struct {
	Weights map[Component]float64
	Gates   map[Component]float64
}

// Matrix is the calibrated weight matrix over the five scoring regimes.
// Tuned offline; treat as read-only at runtime.
var Matrix = map[types.ScoringRegime]RegimeWeights{
	types.ScoringTrendExpansion: {
		Weights: map[Component]float64{
			SignalQuality:      0.35,
			TechnicalAlignment: 0.25,
			VolumeActivity:     0.15,
			LiquidityLevel:     0.05,
			MTFAgreement:       0.10,
			FundamentalDeriv:   0.10,
		},
		Gates: map[Component]float64{
			TechnicalAlignment: 50,
			MTFAgreement:       40,
		},
	},
	types.ScoringTrendMature: {
		Weights: map[Component]float64{
			SignalQuality:      0.25,
			TechnicalAlignment: 0.20,
			VolumeActivity:     0.15,
			LiquidityLevel:     0.10,
			MTFAgreement:       0.20,
			FundamentalDeriv:   0.10,
		},
		Gates: map[Component]float64{
			TechnicalAlignment: 55,
			VolumeActivity:     40,
		},
	},
	types.ScoringRangeCompression: {
		Weights: map[Component]float64{
			SignalQuality:      0.25,
			TechnicalAlignment: 0.15,
			VolumeActivity:     0.10,
			LiquidityLevel:     0.25,
			MTFAgreement:       0.10,
			FundamentalDeriv:   0.15,
		},
		Gates: map[Component]float64{
			LiquidityLevel: 50,
		},
	},
	types.ScoringVolShock: {
		Weights: map[Component]float64{
			SignalQuality:      0.30,
			TechnicalAlignment: 0.15,
			VolumeActivity:     0.20,
			LiquidityLevel:     0.15,
			MTFAgreement:       0.10,
			FundamentalDeriv:   0.10,
		},
		Gates: map[Component]float64{
			SignalQuality:  60,
			LiquidityLevel: 45,
		},
	},
	types.ScoringDriftNeutral: {
		Weights: map[Component]float64{
			SignalQuality:      0.20,
			TechnicalAlignment: 0.20,
			VolumeActivity:     0.15,
			LiquidityLevel:     0.15,
			MTFAgreement:       0.15,
			FundamentalDeriv:   0.15,
		},
		Gates: map[Component]float64{
			SignalQuality: 45,
		},
	},
}
