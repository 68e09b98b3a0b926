package probability

import (
	"testing"

	"tradegate/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bullish(kind SignalKind, conf float64) Signal {
	return Signal{Kind: kind, Triggered: true, Confidence: conf, Direction: types.Long}
}

func TestEstimateNoSignalsStaysAtPrior(t *testing.T) {
	est := EstimateWinProbability(nil, types.Long)
	assert.InDelta(t, 0.5, est.WinProbability, 1e-9)
	assert.Zero(t, est.AlignedCount)
}

func TestEstimateBoundedAlways(t *testing.T) {
	all := make([]Signal, 0, len(signalOrder))
	for _, k := range signalOrder {
		all = append(all, bullish(k, 1))
	}
	t.Run("everything aligned", func(t *testing.T) {
		est := EstimateWinProbability(all, types.Long)
		assert.LessOrEqual(t, est.WinProbability, 0.80)
		assert.GreaterOrEqual(t, est.WinProbability, 0.35)
		assert.Equal(t, 0.80, est.WinProbability, "max evidence should hit the ceiling")
	})
	t.Run("everything opposed", func(t *testing.T) {
		est := EstimateWinProbability(all, types.Short)
		assert.Equal(t, 0.35, est.WinProbability, "max opposition should hit the floor")
	})
}

func TestEstimateAlignedVsOpposed(t *testing.T) {
	sig := []Signal{bullish(SignalTrendAlignment, 1)}
	up := EstimateWinProbability(sig, types.Long)
	down := EstimateWinProbability(sig, types.Short)
	assert.Greater(t, up.WinProbability, 0.5)
	assert.Less(t, down.WinProbability, 0.5)
	assert.Equal(t, 1, up.AlignedCount)
	assert.Equal(t, 1, down.OpposedCount)
}

func TestEstimateNonDirectionalSignalIsNeutral(t *testing.T) {
	sig := []Signal{{Kind: SignalIVRank, Triggered: true, Confidence: 1, Value: 80}}
	est := EstimateWinProbability(sig, types.Long)
	assert.InDelta(t, 0.5, est.WinProbability, 1e-9)
	assert.Empty(t, est.Contributions)
}

func TestEstimateClusterDampening(t *testing.T) {
	// Two trend-cluster signals in the same direction: the second is
	// dampened to 0.75 of its base contribution.
	sig := []Signal{
		bullish(SignalTrendAlignment, 1),
		bullish(SignalMTFConfluence, 1),
	}
	est := EstimateWinProbability(sig, types.Long)
	require.Len(t, est.Contributions, 2)
	assert.Equal(t, 1.0, est.Contributions[0].ClusterWeight)
	assert.Equal(t, 0.75, est.Contributions[1].ClusterWeight)
	assert.InDelta(t, baseEdge[SignalMTFConfluence]*0.75, est.Contributions[1].Delta, 1e-9)
}

func TestEstimateOpposedSignalsNotDampenedTogether(t *testing.T) {
	// Same cluster, opposite directions: each is the first of its sign.
	sig := []Signal{
		bullish(SignalTrendAlignment, 1),
		{Kind: SignalMTFConfluence, Triggered: true, Confidence: 1, Direction: types.Short},
	}
	est := EstimateWinProbability(sig, types.Long)
	require.Len(t, est.Contributions, 2)
	assert.Equal(t, 1.0, est.Contributions[0].ClusterWeight)
	assert.Equal(t, 1.0, est.Contributions[1].ClusterWeight)
}

func TestEstimateConfidenceScaling(t *testing.T) {
	strong := EstimateWinProbability([]Signal{bullish(SignalTrendAlignment, 1)}, types.Long)
	weak := EstimateWinProbability([]Signal{bullish(SignalTrendAlignment, 0.3)}, types.Long)
	assert.Greater(t, strong.WinProbability, weak.WinProbability)
}

func TestEstimateConfluenceBoostRequiresTwoAligned(t *testing.T) {
	one := EstimateWinProbability([]Signal{bullish(SignalTrendAlignment, 1)}, types.Long)
	assert.Zero(t, one.ConfluenceBoost)

	two := EstimateWinProbability([]Signal{
		bullish(SignalTrendAlignment, 1),
		bullish(SignalVolumeConfirmation, 1),
	}, types.Long)
	assert.Greater(t, two.ConfluenceBoost, 0.0)
	assert.LessOrEqual(t, two.ConfluenceBoost, confluenceBoostMax)
}

func TestEstimateUntriggeredSignalsIgnored(t *testing.T) {
	sig := []Signal{{Kind: SignalTrendAlignment, Triggered: false, Confidence: 1, Direction: types.Long}}
	est := EstimateWinProbability(sig, types.Long)
	assert.InDelta(t, 0.5, est.WinProbability, 1e-9)
}

func TestKellyZeroBelowThreeAligned(t *testing.T) {
	res := KellySize(KellyInput{
		WinProbability: 0.80, // probability alone is never enough
		RewardRisk:     2,
		AlignedSignals: 2,
		AssetClass:     types.AssetEquity,
	})
	assert.Zero(t, res.Fraction)
	assert.True(t, res.Gated)
}

func TestKellyZeroBelowProbabilityFloor(t *testing.T) {
	res := KellySize(KellyInput{WinProbability: 0.54, RewardRisk: 3, AlignedSignals: 5})
	assert.Zero(t, res.Fraction)
}

func TestKellyEdgeBufferGate(t *testing.T) {
	// RR 0.8 -> break-even 0.5556; p=0.58 is above the floor but inside the
	// 0.05 buffer.
	res := KellySize(KellyInput{WinProbability: 0.58, RewardRisk: 0.8, AlignedSignals: 4})
	assert.True(t, res.Gated)
	assert.Zero(t, res.Fraction)
}

func TestKellyQuarterFraction(t *testing.T) {
	in := KellyInput{WinProbability: 0.60, RewardRisk: 2, AlignedSignals: 3, AssetClass: types.AssetEquity}
	res := KellySize(in)
	require.False(t, res.Gated)
	// full kelly = (0.6*3-1)/2 = 0.4; quarter = 0.1
	assert.InDelta(t, 0.10, res.Fraction, 1e-9)
}

func TestKellyOptionsCap(t *testing.T) {
	in := KellyInput{WinProbability: 0.78, RewardRisk: 3, AlignedSignals: 6, AssetClass: types.AssetOptions}
	res := KellySize(in)
	require.False(t, res.Gated)
	assert.LessOrEqual(t, res.Fraction, kellyCapOptions)
}
