package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"vidnorm/internal/config"
	"vidnorm/internal/deps"
	"vidnorm/internal/encoding"
	"vidnorm/internal/logging"
	"vidnorm/internal/media/ffprobe"
	"vidnorm/internal/metrics"
	"vidnorm/internal/preflight"
	"vidnorm/internal/scan"
	"vidnorm/internal/scratch"
	"vidnorm/internal/workflow"
)

func runConversion(cmd *cobra.Command, ctx *commandContext, root string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		logger.Error("directory not found", logging.String("root", root))
		return fmt.Errorf("directory not found: %s", root)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	scratch.CleanStale(signalCtx, cfg.Paths.ScratchDir, time.Duration(cfg.Encode.TimeoutSeconds)*time.Second,
		encoding.IsTempOutput, logging.NewComponentLogger(logger, "scratch"))
	checks := preflight.RunAll(signalCtx, cfg, root)
	for _, result := range checks {
		if result.Optional && !result.Passed {
			logging.WarnWithContext(logger, "optional preflight check failed", "preflight_warning",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
		}
	}
	if failed := preflight.Failed(checks); len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, result := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
	}

	gpu := deps.GPUInfo{}
	if cfg.Encode.GPU {
		gpu = deps.DetectGPU(signalCtx, cfg.NvidiaSMIBinary(), cfg.FFmpegBinary(), logger)
		if !gpu.Available {
			logger.Info("no GPU detected, using CPU encoding")
		}
	}
	params := encoding.ParamsFromConfig(cfg, gpu.Available)

	scanner, err := scan.NewScanner(cfg.Scan.Ignore, scan.NewFileSniffer(cfg.FileBinary()), logger)
	if err != nil {
		return fmt.Errorf("invalid ignore pattern: %w", err)
	}
	if scratch, absErr := filepath.Abs(cfg.Paths.ScratchDir); absErr == nil {
		scanner.SkipDirs = []string{scratch}
	}
	prober := ffprobe.NewCLIProber(cfg.FFprobeBinary())
	executor := encoding.NewFFmpegExecutor(cfg.FFmpegBinary(), time.Duration(cfg.Encode.TimeoutSeconds)*time.Second, logger)

	reg := metrics.NewRegistry()
	runMetrics := metrics.NewRun(reg)
	manager := workflow.NewManager(cfg, params, scanner, prober, executor, logger, workflow.WithMetrics(runMetrics))

	summary, runErr := manager.Run(signalCtx, root)
	writeMetricsFile(cfg, reg, logger)
	if runErr != nil {
		if signalCtx.Err() != nil {
			return context.Canceled
		}
		return runErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Complete: %d processed, %d skipped, %d failed\n",
		summary.Processed(), summary.Skipped, summary.Failed)
	return nil
}

func writeMetricsFile(cfg *config.Config, reg *prometheus.Registry, logger *slog.Logger) {
	path := cfg.Workflow.MetricsFile
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path, reg); err != nil {
		logger.Warn("metrics file not written",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "metrics_write_failed"),
			logging.String(logging.FieldImpact, "run metrics unavailable to the textfile collector"),
		)
	}
}
