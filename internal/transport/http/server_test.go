package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradegate/internal/gateway"
	"tradegate/internal/pipeline"
	"tradegate/internal/pkg/circuit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	src := &gateway.Static{ATR: 1.5, Equity: 100_000}
	orch := pipeline.NewOrchestrator(src, src, pipeline.DefaultExecLimits())
	srv, err := NewServer(ServerConfig{
		Orchestrator: orch,
		Breakers:     []*circuit.Breaker{circuit.New("test", 5, time.Minute)},
	})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

const evaluateBody = `{
	"symbol": "aapl",
	"asset_class": "equity",
	"direction": "long",
	"strategy": "trend_pullback",
	"regime": "trend_up",
	"confidence": 75,
	"entry_price": 100,
	"atr": 1.5,
	"risk_pct": 0.0075,
	"account": {"equity": 100000}
}`

func TestEvaluateEndpointApproves(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/evaluate", evaluateBody)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := gjson.Parse(rec.Body.String())
	assert.True(t, doc.Get("approved").Bool())
	assert.Equal(t, "AAPL", doc.Get("result.order.symbol").String())
	assert.NotEmpty(t, doc.Get("result.trace_id").String())
}

func TestEvaluateEndpointReportsRejection(t *testing.T) {
	body := strings.Replace(evaluateBody, `"risk_pct": 0.0075`, `"risk_pct": 0.02`, 1)
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := gjson.Parse(rec.Body.String())
	assert.False(t, doc.Get("approved").Bool())
	assert.Equal(t, string(pipeline.CodeGovernorBlock), doc.Get("rejection.code").String())
	assert.NotEmpty(t, doc.Get("rejection.reasons").Array())
}

func TestEvaluateEndpointRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "{{"},
		{"unknown direction", strings.Replace(evaluateBody, `"long"`, `"sideways"`, 1)},
		{"missing symbol", strings.Replace(evaluateBody, `"aapl"`, `""`, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/evaluate", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestScoreEndpoint(t *testing.T) {
	body := `{
		"regime": "trend_up",
		"components": {
			"signal_quality": 70, "technical_alignment": 60, "volume_activity": 55,
			"liquidity_level": 50, "mtf_agreement": 45, "fundamental_derivatives": 40
		},
		"flow": {
			"state": "launch", "archetype": "breakout_continuation",
			"institutional_prob": 0.8, "data_health": 0.9, "liquidity_clarity": 0.7
		},
		"direction": "long",
		"signals": [
			{"kind": "trend_alignment", "triggered": true, "confidence": 0.9, "direction": "long"}
		]
	}`
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/score", body)
	require.Equal(t, http.StatusOK, rec.Code)

	doc := gjson.Parse(rec.Body.String())
	assert.InDelta(t, 58.75, doc.Get("confluence.weighted_score").Float(), 1e-9)
	assert.True(t, doc.Get("flow.allowed").Bool())
	assert.Greater(t, doc.Get("probability.win_probability").Float(), 0.5)
}

func TestScoreEndpointEmptyBody(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/v1/score", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCircuitEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/v1/circuit", "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := gjson.Parse(rec.Body.String())
	breakers := doc.Get("breakers").Array()
	require.Len(t, breakers, 1)
	assert.Equal(t, "CLOSED", breakers[0].Get("state").String())
}

func TestDecisionsEndpointWithoutJournal(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/v1/decisions", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
