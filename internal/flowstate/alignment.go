package flowstate

import "tradegate/internal/types"

// FlowState is the coarse market state the permission layer keys on.
type FlowState string

const (
	StateAccumulation FlowState = "accumulation"
	StatePositioning  FlowState = "positioning"
	StateLaunch       FlowState = "launch"
	StateExhaustion   FlowState = "exhaustion"
	StateNeutral      FlowState = "neutral"
)

// StopStyle is the stop policy the per-state table recommends.
type StopStyle string

const (
	StopTight     StopStyle = "atr_tight"
	StopStandard  StopStyle = "atr_standard"
	StopStructure StopStyle = "structure"
	StopTimeBoxed StopStyle = "time_boxed"
)

// alignmentTable scores how well each archetype fits each flow state, in
// [0,1]. Fixed lookup, no hierarchy: every (state, archetype) pair is
// spelled out so a new archetype shows up as a hole here.
var alignmentTable = map[FlowState]map[types.Strategy]float64{
	StateAccumulation: {
		types.StrategyTrendPullback:    0.45,
		types.StrategyBreakout:         0.25,
		types.StrategyMeanReversion:    0.80,
		types.StrategyRangeFade:        0.85,
		types.StrategyMomentumReversal: 0.40,
		types.StrategyEvent:            0.50,
	},
	StatePositioning: {
		types.StrategyTrendPullback:    0.75,
		types.StrategyBreakout:         0.60,
		types.StrategyMeanReversion:    0.55,
		types.StrategyRangeFade:        0.45,
		types.StrategyMomentumReversal: 0.40,
		types.StrategyEvent:            0.60,
	},
	StateLaunch: {
		types.StrategyTrendPullback:    0.85,
		types.StrategyBreakout:         0.90,
		types.StrategyMeanReversion:    0.25,
		types.StrategyRangeFade:        0.15,
		types.StrategyMomentumReversal: 0.35,
		types.StrategyEvent:            0.65,
	},
	StateExhaustion: {
		types.StrategyTrendPullback:    0.30,
		types.StrategyBreakout:         0.15,
		types.StrategyMeanReversion:    0.70,
		types.StrategyRangeFade:        0.55,
		types.StrategyMomentumReversal: 0.85,
		types.StrategyEvent:            0.45,
	},
	StateNeutral: {
		types.StrategyTrendPullback:    0.50,
		types.StrategyBreakout:         0.40,
		types.StrategyMeanReversion:    0.55,
		types.StrategyRangeFade:        0.50,
		types.StrategyMomentumReversal: 0.40,
		types.StrategyEvent:            0.55,
	},
}

// statePolicy is the size/stop policy applied once a trade is permitted.
type StatePolicy struct {
	SizeMult  float64   `json:"size_mult"`
	StopStyle StopStyle `json:"stop_style"`
}

var statePolicyTable = map[FlowState]StatePolicy{
	StateAccumulation: {SizeMult: 0.50, StopStyle: StopStructure},
	StatePositioning:  {SizeMult: 0.75, StopStyle: StopStandard},
	StateLaunch:       {SizeMult: 1.00, StopStyle: StopTight},
	StateExhaustion:   {SizeMult: 0.50, StopStyle: StopTimeBoxed},
	StateNeutral:      {SizeMult: 0.60, StopStyle: StopStandard},
}

func alignment(state FlowState, archetype types.Strategy) float64 {
	if row, ok := alignmentTable[state]; ok {
		if v, ok := row[archetype]; ok {
			return v
		}
	}
	// Unknown pairs score as a weak neutral rather than failing.
	return 0.4
}
