package execution

import (
	"testing"

	"tradegate/internal/governor"
	"tradegate/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equityIntent(t *testing.T) types.TradeIntent {
	t.Helper()
	intent, err := types.NewTradeIntent("AAPL", types.AssetEquity, types.Long,
		types.StrategyTrendPullback, types.RegimeTrendUp, 75, 100, 1.5)
	require.NoError(t, err)
	intent.Equity = 100_000
	intent.RiskPct = 0.0075
	return intent
}

func TestBuildExitPlanLong(t *testing.T) {
	plan, err := BuildExitPlan(equityIntent(t))
	require.NoError(t, err)

	// 1.5 ATR * 1.5 equity mult * 1.0 regime * 1.0 strategy = 2.25
	assert.InDelta(t, 2.25, plan.StopDistance, 1e-9)
	assert.InDelta(t, 97.75, plan.Stop, 1e-9)
	assert.Greater(t, plan.TakeProfit1, 100.0)
	assert.Greater(t, plan.TakeProfit2, plan.TakeProfit1)
	assert.GreaterOrEqual(t, plan.RewardRisk1, 1.0)
	assert.Equal(t, TrailChandelier, plan.Trail)
}

func TestBuildExitPlanShortSides(t *testing.T) {
	intent := equityIntent(t)
	intent.Direction = types.Short
	plan, err := BuildExitPlan(intent)
	require.NoError(t, err)
	assert.Greater(t, plan.Stop, intent.EntryPrice)
	assert.Less(t, plan.TakeProfit1, intent.EntryPrice)
}

func TestBuildExitPlanStopOverride(t *testing.T) {
	intent := equityIntent(t)
	intent.StopOverride = 98

	plan, err := BuildExitPlan(intent)
	require.NoError(t, err)
	assert.Equal(t, 98.0, plan.Stop)
	assert.InDelta(t, 2.0, plan.StopDistance, 1e-9)

	t.Run("wrong side rejected", func(t *testing.T) {
		bad := intent
		bad.StopOverride = 105 // above entry on a long
		_, err := BuildExitPlan(bad)
		assert.Error(t, err)
	})
}

func TestBuildExitPlanNoATR(t *testing.T) {
	intent := equityIntent(t)
	intent.ATR = 0
	_, err := BuildExitPlan(intent)
	assert.Error(t, err)
}

func TestExitPlanTables(t *testing.T) {
	t.Run("mean reversion gets breakeven trail", func(t *testing.T) {
		intent := equityIntent(t)
		intent.Strategy = types.StrategyMeanReversion
		plan, err := BuildExitPlan(intent)
		require.NoError(t, err)
		assert.Equal(t, TrailBreakevenAfter, plan.Trail)
	})
	t.Run("event strategy gets 60 minute time stop", func(t *testing.T) {
		intent := equityIntent(t)
		intent.Strategy = types.StrategyEvent
		plan, err := BuildExitPlan(intent)
		require.NoError(t, err)
		assert.Equal(t, 60, plan.TimeStopMinutes)
	})
}

func TestComputeSizeWorkedExample(t *testing.T) {
	intent := equityIntent(t)
	res, err := ComputeSize(SizingInput{Intent: intent, StopDistance: 2, Leverage: 2})
	require.NoError(t, err)

	assert.InDelta(t, 375, res.RawQuantity, 1e-9)
	assert.Equal(t, 375.0, res.Quantity)
	assert.InDelta(t, 750, res.TotalRiskUSD, 1e-9)
	assert.InDelta(t, 37_500, res.NotionalUSD, 1e-9)
	assert.LessOrEqual(t, res.NotionalUSD, intent.Equity*0.25*res.Leverage)
}

func TestComputeSizeNotionalCapAppliesBeforeRounding(t *testing.T) {
	intent := equityIntent(t)
	res, err := ComputeSize(SizingInput{Intent: intent, StopDistance: 2, Leverage: 1})
	require.NoError(t, err)
	// 25% of equity at 1x = 25,000 notional -> 250 shares, not 375.
	assert.Equal(t, 250.0, res.Quantity)
	assert.LessOrEqual(t, res.TotalRiskUSD, intent.Equity*intent.RiskPct+1e-9)
}

func TestComputeSizeRiskInvariant(t *testing.T) {
	cases := []struct {
		name string
		stop float64
	}{
		{"wide stop", 7.3},
		{"tight stop", 0.42},
		{"one dollar", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent := equityIntent(t)
			res, err := ComputeSize(SizingInput{Intent: intent, StopDistance: tc.stop, Leverage: 4})
			require.NoError(t, err)
			assert.LessOrEqual(t, res.TotalRiskUSD, intent.Equity*intent.RiskPct+1e-9)
		})
	}
}

func TestComputeSizeGovernorCap(t *testing.T) {
	intent := equityIntent(t)
	res, err := ComputeSize(SizingInput{Intent: intent, StopDistance: 2, Leverage: 2, MaxPositionUSD: 10_000})
	require.NoError(t, err)
	assert.LessOrEqual(t, res.NotionalUSD, 10_000.0)
}

func TestComputeSizeMultiplierScalesRisk(t *testing.T) {
	intent := equityIntent(t)
	full, err := ComputeSize(SizingInput{Intent: intent, StopDistance: 2, Leverage: 2})
	require.NoError(t, err)
	half, err := ComputeSize(SizingInput{Intent: intent, StopDistance: 2, Leverage: 2, SizeMultiplier: 0.5})
	require.NoError(t, err)
	assert.InDelta(t, full.Quantity/2, half.Quantity, 1)
}

func TestComputeSizeLotRounding(t *testing.T) {
	t.Run("crypto four decimals", func(t *testing.T) {
		intent := equityIntent(t)
		intent.AssetClass = types.AssetCrypto
		intent.EntryPrice = 43_251.17
		res, err := ComputeSize(SizingInput{Intent: intent, StopDistance: 900, Leverage: 5})
		require.NoError(t, err)
		assert.InDelta(t, res.Quantity, floorToPlaces(res.Quantity, 4), 1e-12)
	})
	t.Run("forex thousand-unit lots", func(t *testing.T) {
		intent := equityIntent(t)
		intent.AssetClass = types.AssetForex
		intent.EntryPrice = 1.0842
		res, err := ComputeSize(SizingInput{Intent: intent, StopDistance: 0.0012, Leverage: 30})
		require.NoError(t, err)
		assert.Zero(t, int64(res.Quantity)%1000)
	})
}

func TestComputeSizeZeroEquityFails(t *testing.T) {
	intent := equityIntent(t)
	intent.Equity = 0
	_, err := ComputeSize(SizingInput{Intent: intent, StopDistance: 2, Leverage: 1})
	assert.Error(t, err)
}

func TestSelectLeverageRecommendation(t *testing.T) {
	intent := equityIntent(t)
	res := SelectLeverage(intent, governor.ModeNormal, governor.VolNormal)
	// 4 * 1.0 * 0.85 * 0.9 = 3.06
	assert.InDelta(t, 3.06, res.Recommended, 1e-9)
	assert.Equal(t, res.Recommended, res.Applied)
	assert.GreaterOrEqual(t, res.Recommended, 1.0)
}

func TestSelectLeverageFloorsAtOne(t *testing.T) {
	intent := equityIntent(t)
	intent.Regime = types.RegimeRiskOffStress
	res := SelectLeverage(intent, governor.ModeLockdown, governor.VolExtreme)
	assert.Equal(t, 1.0, res.Recommended)
}

func TestSelectLeverageOverride(t *testing.T) {
	intent := equityIntent(t)

	t.Run("override beyond cap is capped and flagged", func(t *testing.T) {
		intent := intent
		intent.LeverageOverride = 9
		res := SelectLeverage(intent, governor.ModeNormal, governor.VolNormal)
		assert.Equal(t, 4.0, res.Applied)
		assert.True(t, res.OverrideCapped)
	})
	t.Run("override above 1.5x recommendation flags elevated risk", func(t *testing.T) {
		intent := intent
		intent.LeverageOverride = 2
		res := SelectLeverage(intent, governor.ModeDefensive, governor.VolHigh)
		// rec = 4*1.0*0.5*0.7 = 1.4; 2 > 2.1? no -> not elevated
		assert.False(t, res.ElevatedRisk)

		intent.LeverageOverride = 3
		res = SelectLeverage(intent, governor.ModeDefensive, governor.VolHigh)
		assert.True(t, res.ElevatedRisk)
		assert.Equal(t, 3.0, res.Applied)
	})
}

func TestSelectOptionsStructureRules(t *testing.T) {
	base := equityIntent(t)
	base.AssetClass = types.AssetOptions

	cases := []struct {
		name   string
		mutate func(*types.TradeIntent)
		want   StructureType
	}{
		{"vol expansion -> debit spread", func(i *types.TradeIntent) { i.Regime = types.RegimeVolExpansion }, StructureDebitSpread},
		{"risk off -> debit spread", func(i *types.TradeIntent) { i.Regime = types.RegimeRiskOffStress }, StructureDebitSpread},
		{"low-confidence range -> iron condor", func(i *types.TradeIntent) { i.Regime = types.RegimeRangeNeutral; i.Confidence = 50 }, StructureIronCondor},
		{"high-confidence contraction -> straddle", func(i *types.TradeIntent) { i.Regime = types.RegimeVolContraction; i.Confidence = 80 }, StructureStraddle},
		{"directional long -> long call", func(i *types.TradeIntent) {}, StructureLongCall},
		{"directional short -> long put", func(i *types.TradeIntent) { i.Direction = types.Short }, StructureLongPut},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent := base
			tc.mutate(&intent)
			got := SelectOptionsStructure(OptionsInput{Intent: intent, RiskBudgetUSD: 1000})
			assert.Equal(t, tc.want, got.Type)
		})
	}
}

func TestSelectOptionsStructureMaxLossWithinBudget(t *testing.T) {
	intent := equityIntent(t)
	intent.AssetClass = types.AssetOptions
	budget := 750.0
	got := SelectOptionsStructure(OptionsInput{Intent: intent, RiskBudgetUSD: budget, ImpliedVol: 0.35})
	assert.LessOrEqual(t, got.MaxLossUSD, budget)
	assert.Greater(t, got.Contracts, 0)
}

func TestBuildOrderAssembly(t *testing.T) {
	intent := equityIntent(t)
	plan, err := BuildExitPlan(intent)
	require.NoError(t, err)
	sizing, err := ComputeSize(SizingInput{Intent: intent, StopDistance: plan.StopDistance, Leverage: 2})
	require.NoError(t, err)
	lev := SelectLeverage(intent, governor.ModeNormal, governor.VolNormal)

	order := BuildOrder(intent, plan, sizing, lev, nil, "trace-1")
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "buy", order.Side)
	assert.Equal(t, intent.EntryPrice, order.LimitPrice)
	assert.Equal(t, plan.Stop, order.Bracket.StopPrice)
	assert.Equal(t, sizing.Quantity, order.Quantity)
	assert.Equal(t, "trace-1", order.TraceID)
}
