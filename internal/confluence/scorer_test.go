package confluence

import (
	"testing"

	"tradegate/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseComponents() Components {
	return Components{
		SignalQuality:      70,
		TechnicalAlignment: 60,
		VolumeActivity:     55,
		LiquidityLevel:     50,
		MTFAgreement:       45,
		FundamentalDeriv:   40,
	}
}

func TestScoreTrendExpansionWorkedExample(t *testing.T) {
	res := Score(baseComponents(), types.ScoringTrendExpansion)

	assert.InDelta(t, 58.75, res.WeightedScore, 1e-9)
	assert.Empty(t, res.Violations)
	assert.False(t, res.Capped)
	assert.Equal(t, BiasConditional, res.Bias)
}

func TestScoreGateViolationCapsAt55(t *testing.T) {
	c := baseComponents()
	c.MTFAgreement = 30 // below the 40 gate

	res := Score(c, types.ScoringTrendExpansion)

	require.Len(t, res.Violations, 1)
	assert.Equal(t, MTFAgreement, res.Violations[0].Component)
	assert.True(t, res.Capped)
	assert.Equal(t, 55.0, res.WeightedScore)
	assert.Equal(t, BiasConditional, res.Bias)
}

func TestScoreGateCapIdempotent(t *testing.T) {
	c := baseComponents()
	c.MTFAgreement = 30
	first := Score(c, types.ScoringTrendExpansion)
	second := Score(c, types.ScoringTrendExpansion)
	assert.Equal(t, first, second)
}

func TestScoreBoundsAndBiasSteps(t *testing.T) {
	for regime := range Matrix {
		t.Run(string(regime), func(t *testing.T) {
			lo := Score(Components{}, regime)
			hi := Score(Components{
				SignalQuality: 100, TechnicalAlignment: 100, VolumeActivity: 100,
				LiquidityLevel: 100, MTFAgreement: 100, FundamentalDeriv: 100,
			}, regime)
			assert.GreaterOrEqual(t, lo.WeightedScore, 0.0)
			assert.LessOrEqual(t, hi.WeightedScore, 100.0)
			assert.Equal(t, BiasNeutral, lo.Bias)
			// All gates pass at 100, so the top end is never capped.
			assert.False(t, hi.Capped)
		})
	}
}

func TestBiasIsStepFunction(t *testing.T) {
	cases := []struct {
		score float64
		want  Bias
	}{
		{0, BiasNeutral},
		{54.99, BiasNeutral},
		{55, BiasConditional},
		{69.99, BiasConditional},
		{70, BiasValid},
		{84.99, BiasValid},
		{85, BiasHighConfluence},
		{100, BiasHighConfluence},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, biasFor(tc.score), "score %.2f", tc.score)
	}
}

func TestScoreClampsInputs(t *testing.T) {
	res := Score(Components{
		SignalQuality:      250,
		TechnicalAlignment: -40,
		VolumeActivity:     55,
		LiquidityLevel:     50,
		MTFAgreement:       45,
		FundamentalDeriv:   40,
	}, types.ScoringTrendExpansion)
	// SQ clamps to 100, TA to 0; TA gate then fails.
	assert.NotEmpty(t, res.Violations)
	assert.LessOrEqual(t, res.WeightedScore, 100.0)
}

func TestScoreUnknownRegimeDegradesToNeutral(t *testing.T) {
	res := Score(baseComponents(), types.ScoringRegime("BOGUS"))
	assert.Equal(t, types.ScoringDriftNeutral, res.Regime)
}
