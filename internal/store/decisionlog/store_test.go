package decisionlog

import (
	"context"
	"path/filepath"
	"testing"

	"tradegate/internal/execution"
	"tradegate/internal/governor"
	"tradegate/internal/pipeline"
	"tradegate/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func journalIntent(t *testing.T) types.TradeIntent {
	t.Helper()
	intent, err := types.NewTradeIntent("AAPL", types.AssetEquity, types.Long,
		types.StrategyTrendPullback, types.RegimeTrendUp, 75, 100, 1.5)
	require.NoError(t, err)
	return intent
}

func TestRecordApprovalRoundTrip(t *testing.T) {
	s := newTestStore(t)
	res := &pipeline.Result{
		TraceID:  "trace-approved",
		Intent:   journalIntent(t),
		Governor: governor.Output{Index: 0.78, Mode: governor.ModeNormal, ExecutionAllowed: true},
		Exec:     pipeline.ExecDecision{Allowed: true, Verdict: pipeline.VerdictAllow},
		Plan:     execution.ExitPlan{Stop: 97.75, TakeProfit1: 104.86},
		Sizing:   execution.SizingResult{Quantity: 250, TotalRiskUSD: 562.5, NotionalUSD: 25_000},
	}
	require.NoError(t, s.RecordApproval(context.Background(), res))

	got, err := s.FindByTrace(context.Background(), "trace-approved")
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, string(pipeline.VerdictAllow), got.Verdict)
	assert.Equal(t, 250.0, got.Quantity)
	assert.NotEmpty(t, got.Payload)
}

func TestRecordRejectionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	se := &pipeline.StageError{
		TraceID:      "trace-rejected",
		Stage:        "governor",
		Code:         pipeline.CodeGovernorBlock,
		Message:      "risk governor blocked execution",
		Reasons:      []string{"proposed risk 2.00% exceeds per-trade cap 1.00%"},
		Remediations: []string{"reduce position risk or close open exposure before re-submitting"},
	}
	require.NoError(t, s.RecordRejection(context.Background(), journalIntent(t), se))

	got, err := s.FindByTrace(context.Background(), "trace-rejected")
	require.NoError(t, err)
	assert.False(t, got.Approved)
	assert.Equal(t, string(pipeline.CodeGovernorBlock), got.Code)
	assert.Len(t, got.Reasons, 1)
	assert.Len(t, got.Remediations, 1)
}

func TestListRecentNewestFirst(t *testing.T) {
	s := newTestStore(t)
	for _, trace := range []string{"t1", "t2", "t3"} {
		res := &pipeline.Result{TraceID: trace, Intent: journalIntent(t)}
		require.NoError(t, s.RecordApproval(context.Background(), res))
	}

	records, err := s.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t3", records[0].TraceID)
	assert.Equal(t, "t2", records[1].TraceID)
}

func TestFindByTraceMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindByTrace(context.Background(), "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
