// Package decisionlog persists every evaluation verdict, approved or
// rejected, so sessions can be replayed and disputed calls audited.
package decisionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradegate/internal/pipeline"
	"tradegate/internal/types"
)

type decisionModel struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	TraceID    string `gorm:"index;size:64"`
	Symbol     string `gorm:"index;size:32"`
	AssetClass string `gorm:"size:16"`
	Direction  string `gorm:"size:8"`
	Strategy   string `gorm:"size:32"`
	Regime     string `gorm:"size:32"`

	Approved bool   `gorm:"index"`
	Verdict  string `gorm:"size:24"`
	Code     string `gorm:"size:32"`
	Stage    string `gorm:"size:24"`

	Mode           string `gorm:"size:16"`
	GovernorIndex  float64
	WinProbability float64

	Quantity     float64
	Leverage     float64
	TotalRiskUSD float64
	NotionalUSD  float64
	Stop         float64
	TakeProfit1  float64
	TakeProfit2  float64

	Reasons      datatypes.JSON
	Remediations datatypes.JSON
	Payload      datatypes.JSON
}

func (decisionModel) TableName() string { return "decisions" }

// Record is the read-side view of one journaled decision.
type Record struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	TraceID   string    `json:"trace_id"`
	Symbol    string    `json:"symbol"`
	Approved  bool      `json:"approved"`
	Verdict   string    `json:"verdict,omitempty"`
	Code      string    `json:"code,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	Mode      string    `json:"mode,omitempty"`

	GovernorIndex  float64 `json:"governor_index,omitempty"`
	WinProbability float64 `json:"win_probability,omitempty"`
	Quantity       float64 `json:"quantity,omitempty"`
	TotalRiskUSD   float64 `json:"total_risk_usd,omitempty"`

	Reasons      []string        `json:"reasons,omitempty"`
	Remediations []string        `json:"remediations,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

// Store journals decisions into SQLite through gorm.
type Store struct {
	db *gorm.DB
}

// New opens (or creates) the journal at path.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("decision log: path is required")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("decision log: create dir %s: %w", dir, err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&decisionModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: keep the pool small so HTTP reads never pile up on the
	// writer lock.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordApproval journals a completed, approved evaluation.
func (s *Store) RecordApproval(ctx context.Context, res *pipeline.Result) error {
	if res == nil {
		return fmt.Errorf("decision log: nil result")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("decision log: marshal result: %w", err)
	}
	m := decisionModel{
		TraceID:       res.TraceID,
		Symbol:        res.Intent.Symbol,
		AssetClass:    string(res.Intent.AssetClass),
		Direction:     string(res.Intent.Direction),
		Strategy:      string(res.Intent.Strategy),
		Regime:        string(res.Intent.Regime),
		Approved:      true,
		Verdict:       string(res.Exec.Verdict),
		Mode:          string(res.Governor.Mode),
		GovernorIndex: res.Governor.Index,
		Quantity:      res.Sizing.Quantity,
		Leverage:      res.Sizing.Leverage,
		TotalRiskUSD:  res.Sizing.TotalRiskUSD,
		NotionalUSD:   res.Sizing.NotionalUSD,
		Stop:          res.Plan.Stop,
		TakeProfit1:   res.Plan.TakeProfit1,
		TakeProfit2:   res.Plan.TakeProfit2,
		Payload:       payload,
	}
	if res.Probability != nil {
		m.WinProbability = res.Probability.WinProbability
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// RecordRejection journals a stage rejection alongside the intent it refused.
func (s *Store) RecordRejection(ctx context.Context, intent types.TradeIntent, se *pipeline.StageError) error {
	if se == nil {
		return fmt.Errorf("decision log: nil stage error")
	}
	payload, err := json.Marshal(se)
	if err != nil {
		return fmt.Errorf("decision log: marshal rejection: %w", err)
	}
	reasons, _ := json.Marshal(se.Reasons)
	remedies, _ := json.Marshal(se.Remediations)
	m := decisionModel{
		TraceID:      se.TraceID,
		Symbol:       intent.Symbol,
		AssetClass:   string(intent.AssetClass),
		Direction:    string(intent.Direction),
		Strategy:     string(intent.Strategy),
		Regime:       string(intent.Regime),
		Approved:     false,
		Verdict:      string(pipeline.VerdictBlock),
		Code:         string(se.Code),
		Stage:        se.Stage,
		Reasons:      reasons,
		Remediations: remedies,
		Payload:      payload,
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

// ListRecent returns the newest records first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []decisionModel
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(models))
	for _, m := range models {
		out = append(out, toRecord(m))
	}
	return out, nil
}

// FindByTrace returns the record for one evaluation, or gorm.ErrRecordNotFound.
func (s *Store) FindByTrace(ctx context.Context, traceID string) (Record, error) {
	var m decisionModel
	err := s.db.WithContext(ctx).Where("trace_id = ?", traceID).First(&m).Error
	if err != nil {
		return Record{}, err
	}
	return toRecord(m), nil
}

func toRecord(m decisionModel) Record {
	r := Record{
		ID:             int64(m.ID),
		CreatedAt:      m.CreatedAt,
		TraceID:        m.TraceID,
		Symbol:         m.Symbol,
		Approved:       m.Approved,
		Verdict:        m.Verdict,
		Code:           m.Code,
		Stage:          m.Stage,
		Mode:           m.Mode,
		GovernorIndex:  m.GovernorIndex,
		WinProbability: m.WinProbability,
		Quantity:       m.Quantity,
		TotalRiskUSD:   m.TotalRiskUSD,
		Payload:        json.RawMessage(m.Payload),
	}
	if len(m.Reasons) > 0 {
		_ = json.Unmarshal(m.Reasons, &r.Reasons)
	}
	if len(m.Remediations) > 0 {
		_ = json.Unmarshal(m.Remediations, &r.Remediations)
	}
	return r
}
