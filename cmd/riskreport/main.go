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
	configPath := flag.String("config", "", "path to config.yaml (defaults to ./config.yaml or configs/config.yaml)")
	selected := flag.String("analysis", "all", "comma-separated analyses: var, semivariance, variance, descriptive, rates, trade")
	flag.Parse()

	kinds, err := analysis.ParseKinds(*selected)
	if err != nil {
		slog.Error("Invalid analysis selection", "error", err)
		os.Exit(2)
	}

	if err := run(*configPath, kinds, os.Stdout); err != nil {
		slog.Error("Risk report failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, kinds []analysis.Kind, stdout io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	paths := cfg.GetPaths()

	cfg.Logging.FilePath = paths.LogFile
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	if cfg.Source() != "" {
		logger.Info("Configuration loaded", "path", cfg.Source())
	}
	paths.LogPathResolution(logger)

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

	runner := analysis.NewRunner(cfg, logger, analysis.WithTelemetry(telemetry))
	results, err := runner.Run(ctx, kinds...)
	if err != nil {
		return err
	}

	printArtifacts(stdout, results)
	return nil
}

func printArtifacts(w io.Writer, results []*analysis.Result) {
	fmt.Fprintln(w, "\n=== Risk Report Artifacts ===")
	for _, res := range results {
		fmt.Fprintf(w, "%s (%d files)\n", res.Kind, len(res.Artifacts))
		for _, a := range res.Artifacts {
			fmt.Fprintf(w, "  [%s] %s\n", a.Type, a.Path)
		}
	}
}
