package pipeline

import (
	"fmt"

	"tradegate/internal/execution"
	"tradegate/internal/governor"
	"tradegate/internal/types"
)

// Execution-layer hard limits. These sit downstream of the institutional
// governor and are checked even for trades it approved: a healthy composite
// index never excuses breaching a session cap.
type ExecLimits struct {
	DailyLossPct          float64 `json:"daily_loss_pct"`
	PortfolioHeatPct      float64 `json:"portfolio_heat_pct"`
	MaxOpenTrades         int     `json:"max_open_trades"`
	MinRewardRisk         float64 `json:"min_reward_risk"`
	MaxTradeRiskPct       float64 `json:"max_trade_risk_pct"`
	MaxPositionEquityFrac float64 `json:"max_position_equity_frac"`
}

func DefaultExecLimits() ExecLimits {
	return ExecLimits{
		DailyLossPct:          0.02,
		PortfolioHeatPct:      0.06,
		MaxOpenTrades:         8,
		MinRewardRisk:         1.5,
		MaxTradeRiskPct:       0.02,
		MaxPositionEquityFrac: 0.25,
	}
}

// Verdict is the combined permission after both governors have spoken.
type Verdict string

const (
	VerdictAllow          Verdict = "ALLOW"
	VerdictAllowReduced   Verdict = "ALLOW_REDUCED"
	VerdictAllowTightened Verdict = "ALLOW_TIGHTENED"
	VerdictBlock          Verdict = "BLOCK"
)

// ExecDecision merges the institutional verdict with the execution-layer
// checks into the final permission, sizing scale and position ceiling.
type ExecDecision struct {
	Allowed         bool              `json:"allowed"`
	Verdict         Verdict           `json:"verdict"`
	Mode            governor.RiskMode `json:"mode"`
	SizeMultiplier  float64           `json:"size_multiplier"`
	RiskPerTradePct float64           `json:"risk_per_trade_pct"`
	MaxPositionUSD  float64           `json:"max_position_usd"`
	ReasonCodes     []Code            `json:"reason_codes,omitempty"`
	Reasons         []string          `json:"reasons,omitempty"`
	Remediations    []string          `json:"remediations,omitempty"`
}

// ExecGovernor applies the five execution-layer hard checks.
type ExecGovernor struct {
	limits ExecLimits
}

func NewExecGovernor(limits ExecLimits) ExecGovernor {
	def := DefaultExecLimits()
	if limits.DailyLossPct <= 0 {
		limits.DailyLossPct = def.DailyLossPct
	}
	if limits.PortfolioHeatPct <= 0 {
		limits.PortfolioHeatPct = def.PortfolioHeatPct
	}
	if limits.MaxOpenTrades <= 0 {
		limits.MaxOpenTrades = def.MaxOpenTrades
	}
	if limits.MinRewardRisk <= 0 {
		limits.MinRewardRisk = def.MinRewardRisk
	}
	if limits.MaxTradeRiskPct <= 0 {
		limits.MaxTradeRiskPct = def.MaxTradeRiskPct
	}
	if limits.MaxPositionEquityFrac <= 0 {
		limits.MaxPositionEquityFrac = def.MaxPositionEquityFrac
	}
	return ExecGovernor{limits: limits}
}

func (g ExecGovernor) Limits() ExecLimits { return g.limits }

// Evaluate runs every check and collects every breach; it never stops at the
// first one, so the rejection lists the full set of problems to fix.
func (g ExecGovernor) Evaluate(upstream governor.Output, intent types.TradeIntent, account types.AccountState, plan execution.ExitPlan) ExecDecision {
	dec := ExecDecision{
		Mode:            upstream.Mode,
		SizeMultiplier:  upstream.SizeMultiplier,
		RiskPerTradePct: intent.RiskPct,
		MaxPositionUSD:  account.Equity * g.limits.MaxPositionEquityFrac,
	}

	add := func(code Code, reason, remedy string) {
		dec.ReasonCodes = append(dec.ReasonCodes, code)
		dec.Reasons = append(dec.Reasons, reason)
		dec.Remediations = append(dec.Remediations, remedy)
	}

	if account.Equity > 0 {
		loss := -account.DailyRealizedPnL
		if cap := account.Equity * g.limits.DailyLossPct; loss >= cap {
			add(CodeDailyLossCap,
				fmt.Sprintf("daily realized loss %.2f at or past the %.1f%% session cap (%.2f)",
					loss, g.limits.DailyLossPct*100, cap),
				"done for the day: no new risk until the next session")
		}
		if heat := account.PortfolioHeatPct(); heat >= g.limits.PortfolioHeatPct {
			add(CodePortfolioHeat,
				fmt.Sprintf("portfolio heat %.2f%% at or past the %.1f%% ceiling",
					heat*100, g.limits.PortfolioHeatPct*100),
				"reduce open risk before adding a position")
		}
	}
	if n := len(account.OpenPositions); n >= g.limits.MaxOpenTrades {
		add(CodeMaxOpenTrades,
			fmt.Sprintf("%d open positions at the %d-trade limit", n, g.limits.MaxOpenTrades),
			"close a position before opening another")
	}
	if plan.RewardRisk1 < g.limits.MinRewardRisk {
		add(CodeMinRewardRisk,
			fmt.Sprintf("TP1 reward:risk %.2f below the %.2f minimum", plan.RewardRisk1, g.limits.MinRewardRisk),
			"widen the target or tighten the entry; do not widen the stop")
	}
	if intent.RiskPct > g.limits.MaxTradeRiskPct {
		add(CodeSingleTradeRisk,
			fmt.Sprintf("requested risk %.2f%% exceeds the %.2f%% per-trade maximum",
				intent.RiskPct*100, g.limits.MaxTradeRiskPct*100),
			fmt.Sprintf("resubmit at %.2f%% risk or lower", g.limits.MaxTradeRiskPct*100))
	}

	if !upstream.ExecutionAllowed || len(dec.ReasonCodes) > 0 {
		dec.Verdict = VerdictBlock
		dec.SizeMultiplier = 0
		if !upstream.ExecutionAllowed {
			dec.Reasons = append(upstream.BlockReasons, dec.Reasons...)
			dec.Remediations = append(upstream.Remediations, dec.Remediations...)
		}
		return dec
	}

	dec.Allowed = true
	switch {
	case upstream.SizeMultiplier < 1:
		dec.Verdict = VerdictAllowReduced
	case upstream.Mode == governor.ModeDefensive || upstream.Mode == governor.ModeLockdown:
		dec.Verdict = VerdictAllowTightened
	default:
		dec.Verdict = VerdictAllow
	}
	return dec
}
