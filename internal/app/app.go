// Package app assembles the service from configuration: market source,
// overlays, journal, orchestrator, HTTP shell.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tradegate/internal/config"
	"tradegate/internal/flowstate"
	"tradegate/internal/gateway"
	"tradegate/internal/gateway/binance"
	"tradegate/internal/logger"
	"tradegate/internal/pipeline"
	"tradegate/internal/pkg/circuit"
	"tradegate/internal/store/decisionlog"
	httpapi "tradegate/internal/transport/http"
)

type App struct {
	cfg     *config.Config
	server  *httpapi.Server
	journal *decisionlog.Store
}

// NewApp builds the full object graph without starting anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	var market gateway.MarketData
	var breakers []*circuit.Breaker
	switch cfg.Market.Provider {
	case "binance":
		src := binance.NewATRSource(binance.Config{
			Interval:         cfg.Market.Binance.Interval,
			Lookback:         cfg.Market.Binance.Lookback,
			ATRPeriod:        cfg.Market.Binance.ATRPeriod,
			BreakerThreshold: cfg.Market.Binance.BreakerThreshold,
			BreakerCooldown:  cfg.Market.Binance.BreakerCooldown,
		})
		market = src
		breakers = append(breakers, src.Breaker())
	default:
		market = &gateway.Static{ATR: cfg.Market.StaticATR}
	}

	var overlays *flowstate.Registry
	if cfg.Overlays.Path != "" {
		registry, err := flowstate.NewRegistry(cfg.Overlays.Path)
		if err != nil {
			return nil, fmt.Errorf("overlay registry: %w", err)
		}
		overlays = registry
	}

	var journal *decisionlog.Store
	if cfg.Journal.Enabled {
		store, err := decisionlog.New(cfg.Journal.Path)
		if err != nil {
			return nil, fmt.Errorf("decision journal: %w", err)
		}
		journal = store
	}

	orch := pipeline.NewOrchestrator(market, nil, pipeline.ExecLimits{
		DailyLossPct:          cfg.Risk.DailyLossPct,
		PortfolioHeatPct:      cfg.Risk.PortfolioHeatPct,
		MaxOpenTrades:         cfg.Risk.MaxOpenTrades,
		MinRewardRisk:         cfg.Risk.MinRewardRisk,
		MaxTradeRiskPct:       cfg.Risk.MaxTradeRiskPct,
		MaxPositionEquityFrac: cfg.Risk.MaxPositionEquityFrac,
	})

	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:         cfg.App.ListenAddr,
		Orchestrator: orch,
		Journal:      journal,
		Overlays:     overlays,
		Breakers:     breakers,
	})
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, server: server, journal: journal}, nil
}

// Run serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Run(ctx)
	})
	return group.Wait()
}

func (a *App) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Errorf("app: close journal: %v", err)
		}
	}
}
