package execution

import (
	"math"

	"tradegate/internal/types"
)

// StructureType is the options structure the selector recommends.
type StructureType string

const (
	StructureLongCall    StructureType = "long_call"
	StructureLongPut     StructureType = "long_put"
	StructureDebitSpread StructureType = "debit_spread"
	StructureIronCondor  StructureType = "iron_condor"
	StructureStraddle    StructureType = "straddle"
)

const (
	optionContractMultiplier = 100

	// Premium approximation constant for an at-the-money option:
	// premium ~= 0.4 * S * sigma * sqrt(T). Rough by design; live chain
	// pricing belongs to the market-data collaborators.
	atmPremiumFactor = 0.4

	// Fallback annualization from ATR%% when the caller supplies no IV.
	tradingDaysPerYear = 252
)

// OptionsInput carries the selector inputs beyond the intent itself.
type OptionsInput struct {
	Intent        types.TradeIntent
	RiskBudgetUSD float64
	ImpliedVol    float64 // annualized fraction; 0 = derive from ATR
}

// OptionsStructure is the selected options trade.
type OptionsStructure struct {
	Type           StructureType `json:"type"`
	DTE            int           `json:"dte"`
	TargetDelta    float64       `json:"target_delta"`
	PremiumPerUnit float64       `json:"premium_per_unit"` // per share
	CostPerLot     float64       `json:"cost_per_lot"`     // per contract (x100)
	Contracts      int           `json:"contracts"`
	MaxLossUSD     float64       `json:"max_loss_usd"`
}

type dteRow struct {
	highConf int // confidence >= 75
	lowConf  int
}

var regimeDTE = map[types.Regime]dteRow{
	types.RegimeTrendUp:        {highConf: 30, lowConf: 45},
	types.RegimeTrendDown:      {highConf: 30, lowConf: 45},
	types.RegimeRangeNeutral:   {highConf: 21, lowConf: 30},
	types.RegimeVolExpansion:   {highConf: 14, lowConf: 21},
	types.RegimeVolContraction: {highConf: 45, lowConf: 60},
	types.RegimeRiskOffStress:  {highConf: 7, lowConf: 14},
}

// SelectOptionsStructure picks a structure from the regime/confidence rules
// and sizes it against the risk budget. Returns a zero-contract structure
// (never an error) when the budget cannot buy a single lot.
func SelectOptionsStructure(in OptionsInput) OptionsStructure {
	intent := in.Intent
	structure := structureFor(intent)

	dte := dteFor(intent)
	delta := deltaFor(structure, intent.Confidence)

	iv := in.ImpliedVol
	if iv <= 0 {
		iv = intent.ATRPct() * math.Sqrt(tradingDaysPerYear)
	}
	premium := atmPremiumFactor * intent.EntryPrice * iv * math.Sqrt(float64(dte)/365)

	costPerLot := premium * optionContractMultiplier
	switch structure {
	case StructureStraddle:
		costPerLot *= 2 // both legs bought
	case StructureDebitSpread:
		costPerLot *= 0.45 // short leg offsets part of the debit
	case StructureIronCondor:
		// Defined-risk credit structure: max loss approximated as the wing
		// width cost net of credit.
		costPerLot *= 0.6
	}

	out := OptionsStructure{
		Type:           structure,
		DTE:            dte,
		TargetDelta:    delta,
		PremiumPerUnit: premium,
		CostPerLot:     costPerLot,
	}
	if in.RiskBudgetUSD <= 0 || costPerLot <= 0 {
		return out
	}
	out.Contracts = int(in.RiskBudgetUSD / costPerLot)
	out.MaxLossUSD = float64(out.Contracts) * costPerLot
	return out
}

func structureFor(intent types.TradeIntent) StructureType {
	switch {
	case intent.Regime == types.RegimeVolExpansion || intent.Regime == types.RegimeRiskOffStress:
		return StructureDebitSpread
	case intent.Regime == types.RegimeRangeNeutral && intent.Confidence < 60:
		return StructureIronCondor
	case intent.Regime == types.RegimeVolContraction && intent.Confidence >= 75:
		return StructureStraddle
	case intent.Direction == types.Short:
		return StructureLongPut
	default:
		return StructureLongCall
	}
}

func dteFor(intent types.TradeIntent) int {
	row, ok := regimeDTE[intent.Regime]
	if !ok {
		return 30
	}
	if intent.Confidence >= 75 {
		return row.highConf
	}
	return row.lowConf
}

func deltaFor(structure StructureType, confidence float64) float64 {
	switch structure {
	case StructureIronCondor:
		return 0.20 // short strikes
	case StructureStraddle:
		return 0.50
	}
	switch {
	case confidence >= 80:
		return 0.55
	case confidence >= 60:
		return 0.40
	default:
		return 0.30
	}
}
