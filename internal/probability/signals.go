package probability

import "tradegate/internal/types"

// SignalKind enumerates the eight optional evidence inputs.
type SignalKind string

const (
	SignalUnusualOptions     SignalKind = "unusual_options_activity"
	SignalPutCallRatio       SignalKind = "put_call_ratio"
	SignalMaxPainDistance    SignalKind = "max_pain_distance"
	SignalMTFConfluence      SignalKind = "mtf_confluence"
	SignalIVRank             SignalKind = "iv_rank"
	SignalTrendAlignment     SignalKind = "trend_alignment"
	SignalRSIMomentum        SignalKind = "rsi_momentum"
	SignalVolumeConfirmation SignalKind = "volume_confirmation"
)

// signalOrder fixes evaluation order so cluster dampening is deterministic.
var signalOrder = []SignalKind{
	SignalTrendAlignment,
	SignalMTFConfluence,
	SignalRSIMomentum,
	SignalUnusualOptions,
	SignalVolumeConfirmation,
	SignalPutCallRatio,
	SignalMaxPainDistance,
	SignalIVRank,
}

// Signal is one piece of evidence. Direction carries the side the signal
// argues for; an empty direction marks a non-directional signal which never
// moves the estimate.
type Signal struct {
	Kind       SignalKind      `json:"kind"`
	Triggered  bool            `json:"triggered"`
	Confidence float64         `json:"confidence"` // [0,1]
	Direction  types.Direction `json:"direction,omitempty"`
	Value      float64         `json:"value,omitempty"` // kind-specific magnitude
}

// baseEdge is each signal's historical edge expressed in log-odds units,
// before confidence scaling and cluster dampening.
var baseEdge = map[SignalKind]float64{
	SignalUnusualOptions:     0.35,
	SignalPutCallRatio:       0.20,
	SignalMaxPainDistance:    0.15,
	SignalMTFConfluence:      0.30,
	SignalIVRank:             0.10,
	SignalTrendAlignment:     0.25,
	SignalRSIMomentum:        0.20,
	SignalVolumeConfirmation: 0.15,
}

type cluster string

const (
	clusterTrend    cluster = "trend"
	clusterMomentum cluster = "momentum"
	clusterVolume   cluster = "volume"
)

var signalCluster = map[SignalKind]cluster{
	SignalTrendAlignment:     clusterTrend,
	SignalMTFConfluence:      clusterTrend,
	SignalRSIMomentum:        clusterMomentum,
	SignalUnusualOptions:     clusterMomentum,
	SignalVolumeConfirmation: clusterVolume,
	SignalPutCallRatio:       clusterVolume,
}

// Dampening schedules: the 1st signal in a cluster counts fully, later
// same-direction members shrink. Trend signals overlap the most, so they
// shrink hardest.
var clusterSchedule = map[cluster][]float64{
	clusterTrend:    {1.0, 0.75, 0.6},
	clusterMomentum: {1.0, 0.9, 0.8},
	clusterVolume:   {1.0, 0.9, 0.8},
}

func clusterWeight(c cluster, priorSameDirection int) float64 {
	sched, ok := clusterSchedule[c]
	if !ok {
		return 1.0
	}
	if priorSameDirection >= len(sched) {
		return sched[len(sched)-1]
	}
	return sched[priorSameDirection]
}
