package httpapi

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"tradegate/internal/confluence"
	"tradegate/internal/flowstate"
	"tradegate/internal/pipeline"
	"tradegate/internal/probability"
	"tradegate/internal/types"
)

// parseEvaluateRequest accepts a lenient JSON shape: unknown fields are
// ignored and optional blocks (account, signals, positions) may be absent.
func parseEvaluateRequest(body []byte) (pipeline.Request, error) {
	if !gjson.ValidBytes(body) {
		return pipeline.Request{}, fmt.Errorf("invalid JSON body")
	}
	doc := gjson.ParseBytes(body)

	asset, err := types.ParseAssetClass(doc.Get("asset_class").String())
	if err != nil {
		return pipeline.Request{}, err
	}
	dir, err := types.ParseDirection(doc.Get("direction").String())
	if err != nil {
		return pipeline.Request{}, err
	}
	strat, err := types.ParseStrategy(doc.Get("strategy").String())
	if err != nil {
		return pipeline.Request{}, err
	}
	regime, err := types.ParseRegime(doc.Get("regime").String())
	if err != nil {
		return pipeline.Request{}, err
	}

	intent, err := types.NewTradeIntent(
		doc.Get("symbol").String(),
		asset, dir, strat, regime,
		doc.Get("confidence").Float(),
		doc.Get("entry_price").Float(),
		doc.Get("atr").Float(),
	)
	if err != nil {
		return pipeline.Request{}, err
	}
	intent.StopOverride = doc.Get("stop_override").Float()
	intent.Equity = doc.Get("equity").Float()
	intent.RiskPct = doc.Get("risk_pct").Float()
	intent.LeverageOverride = doc.Get("leverage_override").Float()
	intent.OpenPositions = parsePositions(doc.Get("open_positions"))

	req := pipeline.Request{
		Intent:          intent,
		AccountID:       doc.Get("account_id").String(),
		ExpansionProb:   doc.Get("expansion_prob").Float(),
		VolAcceleration: doc.Get("vol_acceleration").Float(),
		Signals:         parseSignals(doc.Get("signals")),
	}
	if account := doc.Get("account"); account.Exists() {
		state := parseAccount(account)
		if state.AccountID == "" {
			state.AccountID = req.AccountID
		}
		req.Account = &state
	}
	return req, nil
}

func parsePositions(arr gjson.Result) []types.OpenPosition {
	if !arr.IsArray() {
		return nil
	}
	var out []types.OpenPosition
	arr.ForEach(func(_, item gjson.Result) bool {
		out = append(out, types.OpenPosition{
			Symbol:     strings.ToUpper(item.Get("symbol").String()),
			Direction:  types.Direction(strings.ToLower(item.Get("direction").String())),
			AssetClass: types.AssetClass(strings.ToLower(item.Get("asset_class").String())),
			RiskUSD:    item.Get("risk_usd").Float(),
		})
		return true
	})
	return out
}

func parseAccount(doc gjson.Result) types.AccountState {
	state := types.AccountState{
		AccountID:         doc.Get("account_id").String(),
		Equity:            doc.Get("equity").Float(),
		DailyRealizedPnL:  doc.Get("daily_realized_pnl").Float(),
		OpenRiskUSD:       doc.Get("open_risk_usd").Float(),
		TradesThisSession: int(doc.Get("trades_this_session").Int()),
		SessionExpectancy: doc.Get("session_expectancy").Float(),
		RuleViolations:    int(doc.Get("rule_violations").Int()),
		OpenPositions:     parsePositions(doc.Get("open_positions")),
	}
	return state
}

func parseSignals(arr gjson.Result) []probability.Signal {
	if !arr.IsArray() {
		return nil
	}
	var out []probability.Signal
	arr.ForEach(func(_, item gjson.Result) bool {
		out = append(out, probability.Signal{
			Kind:       probability.SignalKind(strings.ToLower(item.Get("kind").String())),
			Triggered:  item.Get("triggered").Bool(),
			Confidence: item.Get("confidence").Float(),
			Direction:  types.Direction(strings.ToLower(item.Get("direction").String())),
			Value:      item.Get("value").Float(),
		})
		return true
	})
	return out
}

func parseComponents(doc gjson.Result) confluence.Components {
	return confluence.Components{
		SignalQuality:      doc.Get("signal_quality").Float(),
		TechnicalAlignment: doc.Get("technical_alignment").Float(),
		VolumeActivity:     doc.Get("volume_activity").Float(),
		LiquidityLevel:     doc.Get("liquidity_level").Float(),
		MTFAgreement:       doc.Get("mtf_agreement").Float(),
		FundamentalDeriv:   doc.Get("fundamental_derivatives").Float(),
	}
}

// scoringRegimeFrom prefers an explicit scoring_regime, then maps a trade
// regime. Unknown values degrade inside the scorer, so no error here.
func scoringRegimeFrom(doc gjson.Result) types.ScoringRegime {
	if raw := doc.Get("scoring_regime").String(); raw != "" {
		return types.ScoringRegime(strings.ToUpper(strings.TrimSpace(raw)))
	}
	if regime, err := types.ParseRegime(doc.Get("regime").String()); err == nil {
		return types.ScoringRegimeFor(regime)
	}
	return types.ScoringDriftNeutral
}

func parseFlowInput(doc gjson.Result) (flowstate.Input, error) {
	archetype, err := types.ParseStrategy(doc.Get("archetype").String())
	if err != nil {
		return flowstate.Input{}, err
	}
	return flowstate.Input{
		State:             flowstate.FlowState(strings.ToLower(strings.TrimSpace(doc.Get("state").String()))),
		Archetype:         archetype,
		InstitutionalProb: doc.Get("institutional_prob").Float(),
		DataHealth:        doc.Get("data_health").Float(),
		LiquidityClarity:  doc.Get("liquidity_clarity").Float(),
		VolCompression:    doc.Get("vol_compression").Float(),
	}, nil
}
