package execution

import (
	"tradegate/internal/governor"
	"tradegate/internal/types"
)

// Hard leverage caps per asset class. An override can never exceed these.
var leverageCap = map[types.AssetClass]float64{
	types.AssetEquity:  4,
	types.AssetCrypto:  10,
	types.AssetFutures: 20,
	types.AssetForex:   30,
	types.AssetOptions: 1,
}

var regimeLeverageFrac = map[types.Regime]float64{
	types.RegimeTrendUp:        1.0,
	types.RegimeTrendDown:      1.0,
	types.RegimeRangeNeutral:   0.7,
	types.RegimeVolExpansion:   0.5,
	types.RegimeVolContraction: 0.8,
	types.RegimeRiskOffStress:  0.3,
}

var modeLeverageFrac = map[governor.RiskMode]float64{
	governor.ModeFullOffense: 1.0,
	governor.ModeNormal:      0.85,
	governor.ModeDefensive:   0.5,
	governor.ModeLockdown:    0.25,
}

var volLeverageScalar = map[governor.VolRegime]float64{
	governor.VolLow:     1.0,
	governor.VolNormal:  0.9,
	governor.VolHigh:    0.7,
	governor.VolExtreme: 0.5,
}

// Overrides above this multiple of the recommendation pass through but are
// flagged as elevated risk.
const elevatedOverrideRatio = 1.5

// LeverageResult reports the recommendation and how any override was
// handled.
type LeverageResult struct {
	Recommended     float64 `json:"recommended"`
	MaxLeverage     float64 `json:"max_leverage"`
	Applied         float64 `json:"applied"`
	OverrideApplied bool    `json:"override_applied"`
	OverrideCapped  bool    `json:"override_capped"`
	ElevatedRisk    bool    `json:"elevated_risk"`
}

// SelectLeverage multiplies the asset-class hard cap down through the regime
// fraction, risk-mode fraction and volatility scalar, flooring at 1x. An
// explicit override is honored unless it breaks the hard cap.
func SelectLeverage(intent types.TradeIntent, mode governor.RiskMode, vol governor.VolRegime) LeverageResult {
	cap := leverageCap[intent.AssetClass]
	if cap < 1 {
		cap = 1
	}
	rec := cap * regimeLeverageFrac[intent.Regime] * modeLeverageFrac[mode] * volLeverageScalar[vol]
	if rec < 1 {
		rec = 1
	}

	res := LeverageResult{
		Recommended: rec,
		MaxLeverage: cap,
		Applied:     rec,
	}
	if intent.LeverageOverride <= 0 {
		return res
	}

	res.OverrideApplied = true
	override := intent.LeverageOverride
	if override > cap {
		res.Applied = cap
		res.OverrideCapped = true
		return res
	}
	res.Applied = override
	if override > rec*elevatedOverrideRatio {
		res.ElevatedRisk = true
	}
	return res
}
