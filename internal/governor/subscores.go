package governor

import (
	"fmt"
	"time"

	"tradegate/internal/types"
)

// Hard caps for the capital sub-score, as fractions of equity.
const (
	capPerTradeRisk = 0.01
	capDailyRisk    = 0.03
	capOpenRisk     = 0.04
)

// Drawdown steps in R-multiples of standard (1%) risk.
const (
	drawdownLockoutR  = -5.0
	drawdownAPlusOnly = -4.0
	drawdownHalfSize  = -3.0
	drawdownThreeQtr  = -2.0
)

// Behavioral limits.
const (
	lossCooldownWindow = 20 * time.Minute
	lossCooldownCount  = 3
	overtradingCount   = 6
	maxRuleViolations  = 2
)

// aPlusConfidence marks a setup as "A+" for the reduced-size drawdown tier.
const aPlusConfidence = 90

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
)

// SubScore is one governor dimension: a 0-1 health score plus its own
// block decision and size multiplier.
type SubScore struct {
	Name     string   `json:"name"`
	Score    float64  `json:"score"`
	Blocked  bool     `json:"blocked"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
	SizeMult float64  `json:"size_mult"`
}

func healthy(name, reason string) SubScore {
	return SubScore{Name: name, Score: 1, Severity: SeverityInfo, Reason: reason, SizeMult: 1}
}

func scoreCapital(in Input) SubScore {
	s := SubScore{Name: "capital", SizeMult: 1, Severity: SeverityInfo}
	equity := in.Account.Equity
	if equity <= 0 {
		s.Score = 0
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = "no usable account equity"
		return s
	}
	proposed := in.ProposedRiskPct
	dailyLossPct := 0.0
	if in.Account.DailyRealizedPnL < 0 {
		dailyLossPct = -in.Account.DailyRealizedPnL / equity
	}
	openPct := in.Account.OpenRiskUSD / equity

	perTradeUtil := proposed / capPerTradeRisk
	dailyUtil := (dailyLossPct + proposed) / capDailyRisk
	openUtil := (openPct + proposed) / capOpenRisk
	worst := max3(perTradeUtil, dailyUtil, openUtil)

	s.Score = types.Clamp(1-worst, 0, 1)
	switch {
	case perTradeUtil > 1:
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = fmt.Sprintf("proposed risk %.2f%% exceeds per-trade cap %.2f%%", proposed*100, capPerTradeRisk*100)
	case dailyUtil > 1:
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = fmt.Sprintf("daily risk %.2f%% would exceed cap %.2f%%", (dailyLossPct+proposed)*100, capDailyRisk*100)
	case openUtil > 1:
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = fmt.Sprintf("open risk %.2f%% would exceed cap %.2f%%", (openPct+proposed)*100, capOpenRisk*100)
	case worst > 0.75:
		s.Severity = SeverityWarn
		s.Reason = "capital utilization elevated"
	default:
		s.Reason = "capital utilization within limits"
	}
	return s
}

func scoreDrawdown(in Input) SubScore {
	s := SubScore{Name: "drawdown", SizeMult: 1, Severity: SeverityInfo}
	r := in.Account.DailyPnLR(capPerTradeRisk)
	switch {
	case r <= drawdownLockoutR:
		s.Score = 0
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = fmt.Sprintf("session drawdown %.1fR: locked out for the day", r)
	case r <= drawdownAPlusOnly:
		if in.Intent.Confidence >= aPlusConfidence {
			s.Score = 0.25
			s.SizeMult = 0.5
			s.Severity = SeverityWarn
			s.Reason = fmt.Sprintf("session drawdown %.1fR: A+ setups only at half size", r)
		} else {
			s.Score = 0.25
			s.Blocked = true
			s.Severity = SeverityCritical
			s.Reason = fmt.Sprintf("session drawdown %.1fR: only A+ setups allowed", r)
		}
	case r <= drawdownHalfSize:
		s.Score = 0.5
		s.SizeMult = 0.5
		s.Severity = SeverityWarn
		s.Reason = fmt.Sprintf("session drawdown %.1fR: half size", r)
	case r <= drawdownThreeQtr:
		s.Score = 0.75
		s.SizeMult = 0.75
		s.Severity = SeverityWarn
		s.Reason = fmt.Sprintf("session drawdown %.1fR: reduced size", r)
	default:
		s.Score = 1
		s.Reason = "session P&L within tolerance"
	}
	return s
}

func scoreCorrelation(in Input) SubScore {
	s := SubScore{Name: "correlation", SizeMult: 1, Severity: SeverityInfo}
	cluster := ClusterFor(in.Intent.Symbol)
	if cluster == "uncorrelated" {
		s.Score = 1
		s.Reason = "no known cluster exposure"
		return s
	}
	correlated := 0
	for _, pos := range in.Account.OpenPositions {
		if pos.Direction == in.Intent.Direction && ClusterFor(pos.Symbol) == cluster {
			correlated++
		}
	}
	switch {
	case correlated >= 2:
		s.Score = 0
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = fmt.Sprintf("%d open %s positions already in cluster %q", correlated, in.Intent.Direction, cluster)
	case correlated == 1:
		s.Score = 0.5
		s.SizeMult = 0.75
		s.Severity = SeverityWarn
		s.Reason = fmt.Sprintf("one open position already in cluster %q", cluster)
	default:
		s.Score = 1
		s.Reason = fmt.Sprintf("no same-direction exposure in cluster %q", cluster)
	}
	return s
}

// VolRegime classifies current volatility conditions.
type VolRegime string

const (
	VolLow     VolRegime = "LOW"
	VolNormal  VolRegime = "NORMAL"
	VolHigh    VolRegime = "HIGH"
	VolExtreme VolRegime = "EXTREME"
)

// ClassifyVolRegime maps ATR%% plus the expansion pair into a regime. An
// imminent expansion (high probability with positive acceleration) upgrades
// the classification one level.
func ClassifyVolRegime(atrPct, expansionProb, acceleration float64) VolRegime {
	var regime VolRegime
	switch {
	case atrPct < 0.008:
		regime = VolLow
	case atrPct < 0.02:
		regime = VolNormal
	case atrPct < 0.04:
		regime = VolHigh
	default:
		regime = VolExtreme
	}
	if expansionProb > 0.7 && acceleration > 0 {
		switch regime {
		case VolLow:
			regime = VolNormal
		case VolNormal:
			regime = VolHigh
		case VolHigh:
			regime = VolExtreme
		}
	}
	return regime
}

func scoreVolatility(in Input) SubScore {
	s := SubScore{Name: "volatility", SizeMult: 1, Severity: SeverityInfo}
	regime := ClassifyVolRegime(in.Intent.ATRPct(), in.ExpansionProb, in.VolAcceleration)
	switch regime {
	case VolExtreme:
		if in.Intent.Strategy == types.StrategyBreakout {
			s.Score = 0
			s.Blocked = true
			s.Severity = SeverityCritical
			s.Reason = "extreme volatility: breakout entries blocked"
		} else {
			s.Score = 0.25
			s.SizeMult = 0.5
			s.Severity = SeverityWarn
			s.Reason = "extreme volatility: half size"
		}
	case VolHigh:
		s.Score = 0.6
		s.Severity = SeverityWarn
		s.Reason = "elevated volatility"
	case VolLow:
		s.Score = 0.9
		s.Reason = "quiet tape"
	default:
		s.Score = 1
		s.Reason = "normal volatility"
	}
	return s
}

func scoreBehavior(in Input, now time.Time) SubScore {
	s := SubScore{Name: "behavior", SizeMult: 1, Severity: SeverityInfo}
	recent := 0
	for _, lossAt := range in.Account.RecentLossTimes {
		if now.Sub(lossAt) <= lossCooldownWindow {
			recent++
		}
	}
	switch {
	case recent >= lossCooldownCount:
		s.Score = 0
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = fmt.Sprintf("%d losses inside %s: cooldown", recent, lossCooldownWindow)
	case in.Account.TradesThisSession > overtradingCount && in.Account.SessionExpectancy < 0:
		s.Score = 0.2
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = fmt.Sprintf("overtrading: %d trades with negative expectancy", in.Account.TradesThisSession)
	case in.Account.RuleViolations >= maxRuleViolations:
		s.Score = 0.2
		s.Blocked = true
		s.Severity = SeverityCritical
		s.Reason = fmt.Sprintf("%d rule violations this session", in.Account.RuleViolations)
	case recent > 0:
		s.Score = 0.7
		s.Severity = SeverityWarn
		s.Reason = "recent losses; trade deliberately"
	default:
		s.Score = 1
		s.Reason = "behavioral state clean"
	}
	return s
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
