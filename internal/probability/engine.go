// Package probability combines optional trading signals in log-odds space
// into a bounded win probability, and derives a guard-railed Kelly position
// size advisory from it.
package probability

import (
	"math"

	"tradegate/internal/types"
)

const (
	priorWinRate = 0.5

	// A single signal can never move the estimate by more than this many
	// log-odds units.
	maxSignalDelta = 0.40

	// Confluence boost ceiling, scaled by the aligned-weight fraction and
	// only granted once at least two signals agree with the trade.
	confluenceBoostMax = 0.25

	// Trading probabilities never claim near-certainty in either direction.
	probFloor = 0.35
	probCeil  = 0.80
)

// Contribution records how one triggered signal moved the estimate.
type Contribution struct {
	Kind          SignalKind `json:"kind"`
	Sign          int        `json:"sign"`
	ClusterWeight float64    `json:"cluster_weight"`
	Delta         float64    `json:"delta"`
}

// Estimate is the engine output. Always returned; inputs that carry no
// evidence leave the prior untouched.
type Estimate struct {
	WinProbability    float64        `json:"win_probability"`
	LogOdds           float64        `json:"log_odds"`
	AlignedCount      int            `json:"aligned_count"`
	OpposedCount      int            `json:"opposed_count"`
	AlignedWeightFrac float64        `json:"aligned_weight_frac"`
	ConfluenceBoost   float64        `json:"confluence_boost"`
	Contributions     []Contribution `json:"contributions,omitempty"`
}

// EstimateWinProbability folds every triggered signal into the prior in
// log-odds space. Pure; safe for concurrent use.
func EstimateWinProbability(signals []Signal, dir types.Direction) Estimate {
	byKind := make(map[SignalKind]Signal, len(signals))
	for _, s := range signals {
		byKind[s.Kind] = s
	}

	logOdds := math.Log(priorWinRate / (1 - priorWinRate)) // 0 for the 0.5 prior
	est := Estimate{}

	// Per-cluster count of already-processed signals sharing a direction
	// sign, used to shrink correlated evidence.
	type clusterKey struct {
		c    cluster
		sign int
	}
	clusterSeen := make(map[clusterKey]int)

	alignedWeight := 0.0
	totalWeight := 0.0

	for _, kind := range signalOrder {
		s, ok := byKind[kind]
		if !ok || !s.Triggered {
			continue
		}
		sign := directionSign(s.Direction, dir)
		if sign == 0 {
			continue
		}
		conf := types.Clamp(s.Confidence, 0, 1)
		weight := 1.0
		if c, clustered := signalCluster[kind]; clustered {
			key := clusterKey{c: c, sign: sign}
			weight = clusterWeight(c, clusterSeen[key])
			clusterSeen[key]++
		}

		delta := float64(sign) * baseEdge[kind] * conf * weight
		delta = types.Clamp(delta, -maxSignalDelta, maxSignalDelta)
		logOdds += delta

		edge := baseEdge[kind] * conf
		totalWeight += edge
		if sign > 0 {
			est.AlignedCount++
			alignedWeight += edge
		} else {
			est.OpposedCount++
		}
		est.Contributions = append(est.Contributions, Contribution{
			Kind:          kind,
			Sign:          sign,
			ClusterWeight: weight,
			Delta:         delta,
		})
	}

	if totalWeight > 0 {
		est.AlignedWeightFrac = alignedWeight / totalWeight
	}
	if est.AlignedCount >= 2 {
		est.ConfluenceBoost = confluenceBoostMax * est.AlignedWeightFrac
		logOdds += est.ConfluenceBoost
	}

	est.LogOdds = logOdds
	est.WinProbability = types.Clamp(logistic(logOdds), probFloor, probCeil)
	return est
}

// directionSign maps a signal's side against the requested trade direction:
// +1 aligned, -1 opposed, 0 for non-directional signals.
func directionSign(signalDir, tradeDir types.Direction) int {
	if signalDir == "" {
		return 0
	}
	if signalDir == tradeDir {
		return 1
	}
	return -1
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
