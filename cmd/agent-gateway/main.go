package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/jhaveripatric/x402-agent-gateway/internal/config"
	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
	"github.com/jhaveripatric/x402-agent-gateway/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logx.NewZapLogger(cfg.Gateway.LogLevel)
	logger.Info("agent-gateway starting", map[string]any{"name": cfg.Name, "version": cfg.Version})

	srv := server.New(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
