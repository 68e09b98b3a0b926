package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tradegate/internal/app"
	"tradegate/internal/config"
	"tradegate/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("TRADEGATE_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Infof("config loaded from %s (provider=%s, addr=%s)",
		cfgPath, cfg.Market.Provider, cfg.App.ListenAddr)

	a, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("init app: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
