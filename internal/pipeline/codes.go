// Package pipeline runs one trade intent through the full gate sequence:
// resolve inputs, build exits, check the session lockdown, run both
// governors, then size and assemble the order. Stages run sequentially and
// the first failure stops the run; there are no retries at this layer.
package pipeline

import "fmt"

// Code identifies why an evaluation stopped.
type Code string

const (
	CodeNoATR         Code = "NO_ATR"
	CodeBadExits      Code = "BAD_EXITS"
	CodeRiskLocked    Code = "RISK_LOCKED"
	CodeGovernorBlock Code = "GOVERNOR_BLOCK"

	CodeDailyLossCap    Code = "EXEC_DAILY_LOSS_CAP"
	CodePortfolioHeat   Code = "EXEC_PORTFOLIO_HEAT"
	CodeMaxOpenTrades   Code = "EXEC_MAX_OPEN_TRADES"
	CodeMinRewardRisk   Code = "EXEC_MIN_RR"
	CodeSingleTradeRisk Code = "EXEC_SINGLE_TRADE_RISK"
)

// StageError is the structured rejection a failed stage returns. Reasons are
// ordered by severity; Remediations line up with Reasons one to one where the
// stage can suggest an action.
type StageError struct {
	TraceID      string   `json:"trace_id"`
	Stage        string   `json:"stage"`
	Code         Code     `json:"code"`
	Message      string   `json:"message"`
	Reasons      []string `json:"reasons,omitempty"`
	Remediations []string `json:"remediations,omitempty"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %s rejected (%s): %s", e.Stage, e.Code, e.Message)
}
