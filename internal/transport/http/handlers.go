package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"

	"tradegate/internal/confluence"
	"tradegate/internal/flowstate"
	"tradegate/internal/logger"
	"tradegate/internal/pipeline"
	"tradegate/internal/pkg/circuit"
	"tradegate/internal/pkg/convert"
	"tradegate/internal/probability"
	"tradegate/internal/store/decisionlog"
	"tradegate/internal/types"
)

type handlers struct {
	orchestrator *pipeline.Orchestrator
	journal      *decisionlog.Store
	overlays     *flowstate.Registry
	breakers     []*circuit.Breaker
}

// handleEvaluate runs one intent through the full gate sequence. Rejections
// are a normal outcome and come back 200 with approved=false; only malformed
// requests are client errors.
func (h *handlers) handleEvaluate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	req, err := parseEvaluateRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.orchestrator.Evaluate(c.Request.Context(), req)
	if err != nil {
		var se *pipeline.StageError
		if !errors.As(err, &se) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		h.journalRejection(c, req.Intent, se)
		c.JSON(http.StatusOK, gin.H{"approved": false, "rejection": se})
		return
	}

	if h.journal != nil {
		if err := h.journal.RecordApproval(c.Request.Context(), res); err != nil {
			logger.Errorf("http: journal approval %s: %v", res.TraceID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"approved": true, "result": res})
}

func (h *handlers) journalRejection(c *gin.Context, intent types.TradeIntent, se *pipeline.StageError) {
	if h.journal == nil {
		return
	}
	if err := h.journal.RecordRejection(c.Request.Context(), intent, se); err != nil {
		logger.Errorf("http: journal rejection %s: %v", se.TraceID, err)
	}
}

// handleScore exposes the advisory layer: confluence score, flow-state
// permission and the probability estimate, without touching any account
// state.
func (h *handlers) handleScore(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	doc := gjson.ParseBytes(body)
	resp := gin.H{}

	if doc.Get("components").Exists() {
		regime := scoringRegimeFrom(doc)
		resp["confluence"] = confluence.Score(parseComponents(doc.Get("components")), regime)
	}

	if flow := doc.Get("flow"); flow.Exists() {
		in, err := parseFlowInput(flow)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var overlay *flowstate.Overlay
		if h.overlays != nil {
			overlay = h.overlays.Overlay(doc.Get("session").String())
		}
		resp["flow"] = flowstate.EvaluateWithOverlay(in, overlay)
	}

	if signals := doc.Get("signals"); signals.Exists() {
		dir, err := types.ParseDirection(doc.Get("direction").String())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		est := probability.EstimateWinProbability(parseSignals(signals), dir)
		resp["probability"] = est
		if rr := doc.Get("reward_risk").Float(); rr > 0 {
			asset, _ := types.ParseAssetClass(doc.Get("asset_class").String())
			resp["kelly"] = probability.KellySize(probability.KellyInput{
				WinProbability: est.WinProbability,
				RewardRisk:     rr,
				AlignedSignals: est.AlignedCount,
				AssetClass:     asset,
			})
		}
	}

	if len(resp) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to score: supply components, flow or signals"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) handleCircuit(c *gin.Context) {
	snapshots := make([]circuit.Snapshot, 0, len(h.breakers))
	for _, b := range h.breakers {
		if b != nil {
			snapshots = append(snapshots, b.Snapshot())
		}
	}
	c.JSON(http.StatusOK, gin.H{"breakers": snapshots})
}

func (h *handlers) handleDecisions(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision journal not enabled"})
		return
	}
	limit := convert.ToInt(c.Query("limit"))
	records, err := h.journal.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": records})
}

func (h *handlers) handleDecisionByTrace(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decision journal not enabled"})
		return
	}
	record, err := h.journal.FindByTrace(c.Request.Context(), c.Param("trace"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no decision for trace"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}
