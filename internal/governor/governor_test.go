package governor

import (
	"testing"
	"time"

	"tradegate/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func healthyInput() Input {
	intent, _ := types.NewTradeIntent("AAPL", types.AssetEquity, types.Long,
		types.StrategyTrendPullback, types.RegimeTrendUp, 75, 200, 2.4)
	return Input{
		Intent: intent,
		Account: types.AccountState{
			Equity: 100_000,
		},
		ProposedRiskPct: 0.0075,
	}
}

func TestEvaluateHealthyAccount(t *testing.T) {
	out := Evaluate(healthyInput(), now)
	assert.True(t, out.ExecutionAllowed)
	assert.GreaterOrEqual(t, out.Index, 0.70)
	assert.Empty(t, out.BlockReasons)
	assert.Greater(t, out.SizeMultiplier, 0.0)
	require.Len(t, out.SubScores, 5)
}

func TestDrawdownLockoutOverridesEverything(t *testing.T) {
	in := healthyInput()
	// -6R on 1% standard risk.
	in.Account.DailyRealizedPnL = -6_000

	out := Evaluate(in, now)
	assert.False(t, out.ExecutionAllowed, "-5R or worse is an unconditional lockout")
	assert.Zero(t, out.SizeMultiplier)
	assert.NotEmpty(t, out.BlockReasons)
	assert.NotEmpty(t, out.Remediations)
}

func TestDrawdownAPlusTier(t *testing.T) {
	in := healthyInput()
	in.Account.DailyRealizedPnL = -4_500 // -4.5R

	t.Run("ordinary setup blocked", func(t *testing.T) {
		out := Evaluate(in, now)
		assert.False(t, out.ExecutionAllowed)
	})
	t.Run("A+ setup allowed at half size", func(t *testing.T) {
		in := in
		in.Intent.Confidence = 95
		out := Evaluate(in, now)
		assert.True(t, out.ExecutionAllowed)
		assert.InDelta(t, 0.5, out.SizeMultiplier, 1e-9)
	})
}

func TestDrawdownSizeSteps(t *testing.T) {
	cases := []struct {
		pnl      float64
		wantMult float64
	}{
		{-3_500, 0.5},
		{-2_500, 0.75},
		{-1_000, 1.0},
	}
	for _, tc := range cases {
		in := healthyInput()
		in.Account.DailyRealizedPnL = tc.pnl
		out := Evaluate(in, now)
		require.True(t, out.ExecutionAllowed, "pnl %.0f", tc.pnl)
		assert.InDelta(t, tc.wantMult, out.SizeMultiplier, 1e-9, "pnl %.0f", tc.pnl)
	}
}

func TestCapitalPerTradeCap(t *testing.T) {
	in := healthyInput()
	in.ProposedRiskPct = 0.015
	out := Evaluate(in, now)
	assert.False(t, out.ExecutionAllowed)
}

func TestCapitalOpenRiskCap(t *testing.T) {
	in := healthyInput()
	in.Account.OpenRiskUSD = 3_800 // 3.8% open + 0.75% proposed > 4%
	out := Evaluate(in, now)
	assert.False(t, out.ExecutionAllowed)
}

func TestCorrelationBlockAtTwoClusterPositions(t *testing.T) {
	in := healthyInput()
	in.Account.OpenPositions = []types.OpenPosition{
		{Symbol: "MSFT", Direction: types.Long, AssetClass: types.AssetEquity},
		{Symbol: "GOOGL", Direction: types.Long, AssetClass: types.AssetEquity},
	}
	out := Evaluate(in, now)
	assert.False(t, out.ExecutionAllowed)
}

func TestCorrelationIgnoresOppositeDirection(t *testing.T) {
	in := healthyInput()
	in.Account.OpenPositions = []types.OpenPosition{
		{Symbol: "MSFT", Direction: types.Short, AssetClass: types.AssetEquity},
		{Symbol: "GOOGL", Direction: types.Short, AssetClass: types.AssetEquity},
	}
	out := Evaluate(in, now)
	assert.True(t, out.ExecutionAllowed)
}

func TestVolatilityExtremeBlocksBreakout(t *testing.T) {
	intent, _ := types.NewTradeIntent("NVDA", types.AssetEquity, types.Long,
		types.StrategyBreakout, types.RegimeVolExpansion, 70, 100, 5) // 5% ATR
	in := healthyInput()
	in.Intent = intent

	out := Evaluate(in, now)
	assert.False(t, out.ExecutionAllowed)
}

func TestVolatilityExtremeHalvesOtherStrategies(t *testing.T) {
	intent, _ := types.NewTradeIntent("NVDA", types.AssetEquity, types.Long,
		types.StrategyMeanReversion, types.RegimeVolExpansion, 70, 100, 5)
	in := healthyInput()
	in.Intent = intent

	out := Evaluate(in, now)
	assert.True(t, out.ExecutionAllowed)
	assert.InDelta(t, 0.5, out.SizeMultiplier, 1e-9)
}

func TestClassifyVolRegimeUpgrade(t *testing.T) {
	assert.Equal(t, VolNormal, ClassifyVolRegime(0.01, 0, 0))
	assert.Equal(t, VolHigh, ClassifyVolRegime(0.01, 0.8, 1))
	assert.Equal(t, VolExtreme, ClassifyVolRegime(0.05, 0, 0))
}

func TestBehaviorCooldown(t *testing.T) {
	in := healthyInput()
	in.Account.RecentLossTimes = []time.Time{
		now.Add(-5 * time.Minute),
		now.Add(-10 * time.Minute),
		now.Add(-15 * time.Minute),
	}
	out := Evaluate(in, now)
	assert.False(t, out.ExecutionAllowed)
}

func TestBehaviorOldLossesIgnored(t *testing.T) {
	in := healthyInput()
	in.Account.RecentLossTimes = []time.Time{
		now.Add(-30 * time.Minute),
		now.Add(-45 * time.Minute),
		now.Add(-2 * time.Hour),
	}
	out := Evaluate(in, now)
	assert.True(t, out.ExecutionAllowed)
}

func TestBehaviorOvertrading(t *testing.T) {
	in := healthyInput()
	in.Account.TradesThisSession = 8
	in.Account.SessionExpectancy = -0.2
	out := Evaluate(in, now)
	assert.False(t, out.ExecutionAllowed)
}

func TestBehaviorRuleViolations(t *testing.T) {
	in := healthyInput()
	in.Account.RuleViolations = 2
	out := Evaluate(in, now)
	assert.False(t, out.ExecutionAllowed)
}

func TestModeThresholds(t *testing.T) {
	assert.Equal(t, ModeFullOffense, modeFor(0.85))
	assert.Equal(t, ModeNormal, modeFor(0.70))
	assert.Equal(t, ModeDefensive, modeFor(0.50))
	assert.Equal(t, ModeLockdown, modeFor(0.49))
}

func TestClusterFor(t *testing.T) {
	assert.Equal(t, "megacap_tech", ClusterFor("AAPL"))
	assert.Equal(t, "crypto_major", ClusterFor("BTCUSDT"))
	assert.Equal(t, "semis", ClusterFor("nvda"))
	assert.Equal(t, "uncorrelated", ClusterFor("KO"))
}
