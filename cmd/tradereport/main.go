package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gasrisk/internal/analysis"
	"gasrisk/internal/config"
	"gasrisk/internal/infrastructure"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	tradeDir := flag.String("dir", "", "directory holding the LNG and GAS trade tables (overrides paths.trade_dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *tradeDir != "" {
		cfg.Paths.TradeDir = *tradeDir
	}

	if err := run(cfg, os.Stdout); err != nil {
		slog.Error("Trade report failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, stdout io.Writer) error {
	paths := cfg.GetPaths()
	cfg.Logging.FilePath = paths.LogFile
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	telemetry, err := infrastructure.InitializeTelemetry(infrastructure.NewTelemetryOptions(cfg.Telemetry, paths), logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, err := analysis.NewRunner(cfg, logger, analysis.WithTelemetry(telemetry)).Run(ctx, analysis.KindTrade)
	if err != nil {
		logger.Error("Trade report failed", "error", err)
		return err
	}

	for _, res := range results {
		for _, a := range res.Artifacts {
			fmt.Fprintln(stdout, a.Path)
		}
	}
	logger.Info("Trade report generated", "duration", time.Since(start))
	return nil
}
