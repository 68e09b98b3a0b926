package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradegate/internal/execution"
	"tradegate/internal/gateway"
	"tradegate/internal/governor"
	"tradegate/internal/logger"
	"tradegate/internal/probability"
	"tradegate/internal/types"
)

// Session lockdown thresholds checked before the governor ever runs. The
// drawdown sub-score re-derives the same -5R state, but a locked account
// should be rejected up front with its own code, not as one block reason
// among five.
const (
	lockdownDailyR       = -5.0
	lockdownRuleBreaches = 3
)

const defaultRiskPct = 0.0075

// Request is one evaluation. Account may be supplied inline; when nil the
// orchestrator resolves it through the account gateway by AccountID.
type Request struct {
	Intent    types.TradeIntent
	AccountID string
	Account   *types.AccountState

	// Optional evidence for the probability/Kelly advisory.
	Signals []probability.Signal

	// Volatility expansion pair forwarded to the governor.
	ExpansionProb   float64
	VolAcceleration float64
}

// RiskMetrics normalizes the approved trade's exposure for the caller.
type RiskMetrics struct {
	RiskPerUnit         float64 `json:"risk_per_unit"`
	TotalRiskUSD        float64 `json:"total_risk_usd"`
	RiskPctOfEquity     float64 `json:"risk_pct_of_equity"`
	NotionalPctOfEquity float64 `json:"notional_pct_of_equity"`
	HeatAfterPct        float64 `json:"heat_after_pct"`
	BreakevenWinRate    float64 `json:"breakeven_win_rate"`
}

// Result is the full approved evaluation. Rejections come back as a
// *StageError instead; the two never mix.
type Result struct {
	TraceID string             `json:"trace_id"`
	Intent  types.TradeIntent  `json:"intent"`
	Account types.AccountState `json:"-"`

	Plan     execution.ExitPlan       `json:"plan"`
	Governor governor.Output          `json:"governor"`
	Exec     ExecDecision             `json:"exec"`
	Leverage execution.LeverageResult `json:"leverage"`
	Sizing   execution.SizingResult   `json:"sizing"`
	Metrics  RiskMetrics              `json:"metrics"`
	Order    execution.Order          `json:"order"`

	Probability *probability.Estimate       `json:"probability,omitempty"`
	Kelly       *probability.KellyResult    `json:"kelly,omitempty"`
	Options     *execution.OptionsStructure `json:"options,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Orchestrator owns the stage sequence. Stateless apart from its
// collaborators; safe for concurrent Evaluate calls.
type Orchestrator struct {
	market   gateway.MarketData
	accounts gateway.AccountData
	exec     ExecGovernor
	clock    func() time.Time
}

type Option func(*Orchestrator)

// WithClock injects a deterministic clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

func NewOrchestrator(market gateway.MarketData, accounts gateway.AccountData, limits ExecLimits, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		market:   market,
		accounts: accounts,
		exec:     NewExecGovernor(limits),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate runs the full sequence and returns either an approved Result or a
// *StageError. Stages short-circuit: nothing downstream of a rejection runs.
func (o *Orchestrator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	started := o.clock()
	traceID := uuid.NewString()
	intent := req.Intent

	account := o.resolveAccount(ctx, req)
	if intent.Equity <= 0 {
		intent.Equity = account.Equity
	}
	if intent.RiskPct <= 0 {
		intent.RiskPct = defaultRiskPct
	}
	if len(intent.OpenPositions) == 0 {
		intent.OpenPositions = account.OpenPositions
	}

	// Stage 1: volatility input.
	if intent.ATR <= 0 {
		atr, err := o.market.FetchATR(ctx, intent.Symbol, intent.AssetClass)
		if err != nil || atr <= 0 {
			msg := fmt.Sprintf("no ATR for %s", intent.Symbol)
			if err != nil {
				msg = fmt.Sprintf("%s: %v", msg, err)
			}
			return nil, &StageError{
				TraceID: traceID, Stage: "atr", Code: CodeNoATR, Message: msg,
				Reasons:      []string{"volatility input unavailable; stops cannot be derived"},
				Remediations: []string{"supply ATR with the intent or retry once market data recovers"},
			}
		}
		intent.ATR = atr
	}

	// Stage 2: exit structure.
	plan, err := execution.BuildExitPlan(intent)
	if err != nil {
		return nil, &StageError{
			TraceID: traceID, Stage: "exits", Code: CodeBadExits, Message: err.Error(),
			Reasons:      []string{"exit plan could not be built from the intent"},
			Remediations: []string{"fix the stop override or entry inputs and resubmit"},
		}
	}

	// Stage 3: session lockdown.
	if se := o.checkLockdown(traceID, intent, account); se != nil {
		return nil, se
	}

	// Stage 4: institutional governor.
	gov := governor.Evaluate(governor.Input{
		Intent:          intent,
		Account:         account,
		ProposedRiskPct: intent.RiskPct,
		ExpansionProb:   req.ExpansionProb,
		VolAcceleration: req.VolAcceleration,
	}, o.clock())
	if !gov.ExecutionAllowed {
		return nil, &StageError{
			TraceID: traceID, Stage: "governor", Code: CodeGovernorBlock,
			Message:      fmt.Sprintf("risk governor blocked execution (index %.2f, mode %s)", gov.Index, gov.Mode),
			Reasons:      gov.BlockReasons,
			Remediations: gov.Remediations,
		}
	}

	// Stage 5: execution-layer hard limits.
	dec := o.exec.Evaluate(gov, intent, account, plan)
	if !dec.Allowed {
		reasons := make([]string, 0, len(dec.ReasonCodes))
		for i, code := range dec.ReasonCodes {
			reasons = append(reasons, fmt.Sprintf("%s: %s", code, dec.Reasons[i]))
		}
		code := CodeGovernorBlock
		if len(dec.ReasonCodes) > 0 {
			code = dec.ReasonCodes[0]
		}
		return nil, &StageError{
			TraceID: traceID, Stage: "exec-governor", Code: code,
			Message:      "execution-layer limits blocked the trade",
			Reasons:      reasons,
			Remediations: dec.Remediations,
		}
	}

	// Stage 6: leverage, then sizing under the combined constraints.
	vol := governor.ClassifyVolRegime(intent.ATRPct(), req.ExpansionProb, req.VolAcceleration)
	lev := execution.SelectLeverage(intent, gov.Mode, vol)
	sizing, err := execution.ComputeSize(execution.SizingInput{
		Intent:         intent,
		StopDistance:   plan.StopDistance,
		Leverage:       lev.Applied,
		MaxPositionUSD: dec.MaxPositionUSD,
		SizeMultiplier: dec.SizeMultiplier,
	})
	if err != nil {
		return nil, &StageError{
			TraceID: traceID, Stage: "sizing", Code: CodeBadExits, Message: err.Error(),
			Reasons:      []string{"position could not be sized under the active constraints"},
			Remediations: []string{"raise the risk budget or pick a closer stop"},
		}
	}

	res := &Result{
		TraceID:  traceID,
		Intent:   intent,
		Account:  account,
		Plan:     plan,
		Governor: gov,
		Exec:     dec,
		Leverage: lev,
		Sizing:   sizing,
		Metrics:  buildMetrics(plan, sizing, account),
	}

	// Advisory stages: never block, only annotate.
	if len(req.Signals) > 0 {
		est := probability.EstimateWinProbability(req.Signals, intent.Direction)
		kelly := probability.KellySize(probability.KellyInput{
			WinProbability: est.WinProbability,
			RewardRisk:     plan.RewardRisk1,
			AlignedSignals: est.AlignedCount,
			AssetClass:     intent.AssetClass,
		})
		res.Probability = &est
		res.Kelly = &kelly
	}
	if intent.AssetClass == types.AssetOptions {
		opts := execution.SelectOptionsStructure(execution.OptionsInput{
			Intent:        intent,
			RiskBudgetUSD: sizing.TotalRiskUSD,
		})
		res.Options = &opts
	}

	res.Order = execution.BuildOrder(intent, plan, sizing, lev, res.Options, traceID)
	res.Elapsed = o.clock().Sub(started)
	return res, nil
}

func (o *Orchestrator) resolveAccount(ctx context.Context, req Request) types.AccountState {
	if req.Account != nil {
		account := *req.Account
		if account.AccountID == "" {
			account.AccountID = req.AccountID
		}
		return account
	}

	account := types.AccountState{AccountID: req.AccountID}
	if o.accounts == nil {
		account.Equity = req.Intent.Equity
		return account
	}

	equity, err := o.accounts.LatestEquity(ctx, req.AccountID)
	if err != nil {
		logger.Warnf("pipeline: equity lookup for %q failed, assuming %.0f: %v",
			req.AccountID, gateway.DefaultEquityFallback, err)
		equity = gateway.DefaultEquityFallback
	}
	account.Equity = equity

	if positions, err := o.accounts.ListOpenPositions(ctx, req.AccountID); err != nil {
		logger.Warnf("pipeline: open-position lookup for %q failed: %v", req.AccountID, err)
	} else {
		account.OpenPositions = positions
	}
	if pnl, err := o.accounts.DailyRealizedPnL(ctx, req.AccountID); err != nil {
		logger.Warnf("pipeline: daily P&L lookup for %q failed: %v", req.AccountID, err)
	} else {
		account.DailyRealizedPnL = pnl
	}
	if risk, err := o.accounts.OpenRiskTotal(ctx, req.AccountID); err != nil {
		logger.Warnf("pipeline: open-risk lookup for %q failed: %v", req.AccountID, err)
	} else {
		account.OpenRiskUSD = risk
	}
	return account
}

func (o *Orchestrator) checkLockdown(traceID string, intent types.TradeIntent, account types.AccountState) *StageError {
	if r := account.DailyPnLR(intent.RiskPct); r <= lockdownDailyR {
		return &StageError{
			TraceID: traceID, Stage: "lockdown", Code: CodeRiskLocked,
			Message:      fmt.Sprintf("session drawdown %.1fR at or past the %.0fR lockout", r, lockdownDailyR),
			Reasons:      []string{"account is in session lockout"},
			Remediations: []string{"no new trades this session; resume tomorrow"},
		}
	}
	if account.RuleViolations >= lockdownRuleBreaches {
		return &StageError{
			TraceID: traceID, Stage: "lockdown", Code: CodeRiskLocked,
			Message:      fmt.Sprintf("%d rule violations this session", account.RuleViolations),
			Reasons:      []string{"repeated rule violations locked the account"},
			Remediations: []string{"review the violations with the risk log before resuming"},
		}
	}
	return nil
}

func buildMetrics(plan execution.ExitPlan, sizing execution.SizingResult, account types.AccountState) RiskMetrics {
	m := RiskMetrics{
		RiskPerUnit:      sizing.RiskPerUnit,
		TotalRiskUSD:     sizing.TotalRiskUSD,
		RiskPctOfEquity:  sizing.EffectiveRiskPct,
		BreakevenWinRate: 1 / (1 + plan.RewardRisk1),
	}
	if sizing.Equity > 0 {
		m.NotionalPctOfEquity = sizing.NotionalUSD / sizing.Equity
		m.HeatAfterPct = (account.OpenRiskUSD + sizing.TotalRiskUSD) / sizing.Equity
	}
	return m
}
