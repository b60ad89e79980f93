package main

import (
	"github.com/spf13/cobra"

	"vidnorm/internal/config"
)

// runFlags mirror config fields; only flags the user set override the file.
type runFlags struct {
	dryRun       bool
	logLevel     string
	logFormat    string
	quality      int
	preset       string
	cleanup      bool
	retries      int
	ignore       string
	tempDir      string
	gpu          bool
	totalShards  int
	shardIndex   int
	workers      int
	stateBackend string
	metricsFile  string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVarP(&f.dryRun, "dry-run", "d", false, "Print encoder commands without running them")
	fs.StringVarP(&f.logLevel, "log-level", "l", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	fs.StringVar(&f.logFormat, "log-format", "console", "Log format (console, json)")
	fs.IntVarP(&f.quality, "quality", "q", 23, "CRF value (0-51)")
	fs.StringVarP(&f.preset, "preset", "p", "medium", "Encoding preset")
	fs.BoolVarP(&f.cleanup, "cleanup", "c", false, "Remove originals after conversion")
	fs.IntVarP(&f.retries, "retries", "r", 3, "Attempts per file")
	fs.StringVarP(&f.ignore, "ignore", "i", "", "Ignore paths matching this regular expression")
	fs.StringVarP(&f.tempDir, "temp-dir", "t", "", "Scratch directory for in-flight outputs")
	fs.BoolVarP(&f.gpu, "gpu", "g", false, "Use NVENC when a GPU is detected")
	fs.IntVar(&f.totalShards, "total-shards", 1, "Number of shards the file list is split into")
	fs.IntVar(&f.shardIndex, "shard-index", 0, "Shard processed by this instance (overridden by "+config.ShardIndexEnv+")")
	fs.IntVarP(&f.workers, "workers", "w", 1, "Parallel workers")
	fs.StringVar(&f.stateBackend, "state-backend", config.StateBackendJSON, "State backend (json, sqlite)")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics in textfile collector format")
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("dry-run") {
		cfg.Encode.DryRun = f.dryRun
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if changed("quality") {
		cfg.Encode.Quality = f.quality
	}
	if changed("preset") {
		cfg.Encode.Preset = f.preset
	}
	if changed("cleanup") {
		cfg.Encode.Cleanup = f.cleanup
	}
	if changed("retries") {
		cfg.Encode.Retries = f.retries
	}
	if changed("ignore") {
		cfg.Scan.Ignore = f.ignore
	}
	if changed("temp-dir") {
		cfg.Paths.ScratchDir = f.tempDir
	}
	if changed("gpu") {
		cfg.Encode.GPU = f.gpu
	}
	if changed("total-shards") {
		cfg.Workflow.TotalShards = f.totalShards
	}
	if changed("shard-index") {
		cfg.Workflow.ShardIndex = f.shardIndex
	}
	if changed("workers") {
		cfg.Workflow.Workers = f.workers
	}
	if changed("state-backend") {
		cfg.State.Backend = f.stateBackend
	}
	if changed("metrics-file") {
		cfg.Workflow.MetricsFile = f.metricsFile
	}
}
