package types

import "time"

// AccountState is the exposure snapshot supplied by the caller (or resolved
// from the account gateway) for one evaluation. The engine never persists it.
type AccountState struct {
	AccountID         string
	Equity            float64
	DailyRealizedPnL  float64
	OpenRiskUSD       float64
	TradesThisSession int
	SessionExpectancy float64
	RuleViolations    int
	RecentLossTimes   []time.Time
	OpenPositions     []OpenPosition
}

// DailyPnLR converts session P&L into R-multiples of the account's standard
// per-trade risk. Returns 0 when the unit risk is degenerate.
func (a AccountState) DailyPnLR(riskPct float64) float64 {
	unit := a.Equity * riskPct
	if unit <= 0 {
		return 0
	}
	return a.DailyRealizedPnL / unit
}

// PortfolioHeatPct is total open risk as a fraction of equity.
func (a AccountState) PortfolioHeatPct() float64 {
	if a.Equity <= 0 {
		return 0
	}
	return a.OpenRiskUSD / a.Equity
}
