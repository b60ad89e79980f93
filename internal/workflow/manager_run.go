package workflow

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"vidnorm/internal/encoding"
	"vidnorm/internal/logging"
	"vidnorm/internal/scan"
	"vidnorm/internal/services"
	"vidnorm/internal/state"
)

type queuedFile struct {
	position int
	path     string
}

// Run processes every video file under root assigned to this shard. It
// returns an error only for run-level problems (missing root, unreadable
// state, scan failure) or when ctx is cancelled; per-file failures are
// reported in the summary.
func (m *Manager) Run(ctx context.Context, root string) (Summary, error) {
	start := time.Now()
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return Summary{}, services.Wrap(services.ErrConfiguration, "workflow", "run", "directory not found: "+root, err)
	}
	if abs, absErr := filepath.Abs(root); absErr == nil {
		root = abs
	}

	shardIndex := m.cfg.Workflow.ShardIndex
	totalShards := m.cfg.Workflow.TotalShards
	runID := m.newRunID()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithShard(ctx, shardIndex)
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("processing directory",
		logging.String("root", root),
		logging.Bool("dry_run", m.params.DryRun),
		logging.Bool("gpu", m.params.UseGPU),
		logging.Int("total_shards", totalShards),
	)

	store, err := state.Open(ctx, root, m.cfg.State.Backend, m.logger)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("state store close failed", logging.Error(closeErr))
		}
	}()

	files, err := m.finder.Find(ctx, root)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrIOFailure, "workflow", "scan", root, err)
	}
	outputs := encoding.NewOutputClaims()
	outputs.Reserve(files)
	files = scan.Shard(files, totalShards, shardIndex)

	summary := Summary{
		RunID:       runID,
		Root:        root,
		ShardIndex:  shardIndex,
		TotalShards: totalShards,
		Files:       len(files),
	}
	logger.Info("found video files to process", logging.Int("files", len(files)))
	if len(files) == 0 {
		logger.Info("no files to process")
		summary.Duration = time.Since(start)
		return summary, nil
	}
	m.notifyRunStarted(ctx, root, len(files))

	t := &tally{summary: summary}
	m.runPool(ctx, store, outputs, files, t, logger)

	final, _ := t.snapshot()
	final.Duration = time.Since(start)
	if m.metrics != nil {
		m.metrics.LastRun.SetToCurrentTime()
	}
	logger.Info("complete",
		logging.Int("processed", final.Processed()),
		logging.Int("skipped", final.Skipped),
		logging.Int("failed", final.Failed),
		logging.Int("interrupted", final.Interrupted),
		logging.Duration("elapsed", final.Duration.Round(time.Second)),
	)

	if err := ctx.Err(); err != nil {
		logging.WarnWithContext(logger, "run interrupted before all files were processed", "run_interrupted",
			logging.Int("remaining", final.Files-final.Processed()-final.Skipped-final.Failed),
			logging.String(logging.FieldImpact, "remaining files are picked up by the next run"),
		)
		return final, err
	}
	m.notifyRunCompleted(ctx, final)
	return final, nil
}

func (m *Manager) runPool(ctx context.Context, store *state.Store, outputs *encoding.OutputClaims, files []string, t *tally, logger *slog.Logger) {
	workers := workerCount(m.cfg.Workflow.Workers, len(files), logger)
	queue := make(chan queuedFile)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 1; w <= workers; w++ {
		go m.worker(services.WithWorker(ctx, w), store, outputs, queue, len(files), t, &wg)
	}

	progressCtx, stopProgress := context.WithCancel(ctx)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		m.reportProgress(progressCtx, t, len(files), logger)
	}()

dispatch:
	for i, path := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- queuedFile{position: i + 1, path: path}:
		}
	}
	close(queue)
	wg.Wait()
	stopProgress()
	<-progressDone
}

func (m *Manager) worker(ctx context.Context, store *state.Store, outputs *encoding.OutputClaims, queue <-chan queuedFile, total int, t *tally, wg *sync.WaitGroup) {
	defer wg.Done()
	for item := range queue {
		fileCtx := services.WithFile(ctx, item.path)
		logging.WithContext(fileCtx, m.logger).Info("processing file",
			logging.Int("position", item.position),
			logging.Int("total", total),
			logging.String("name", filepath.Base(item.path)),
		)
		result := m.processFile(fileCtx, store, outputs, item.path)
		t.add(result)
		m.recordOutcome(result)
	}
}

// workerCount clamps the requested pool size to the file count and the
// number of logical CPUs.
func workerCount(requested, files int, logger *slog.Logger) int {
	workers := requested
	if workers < 1 {
		workers = 1
	}
	if cpus, err := cpu.Counts(true); err == nil && cpus > 0 && workers > cpus {
		logger.Warn("worker count exceeds logical CPUs; clamping",
			logging.Int("requested", workers),
			logging.Int("cpus", cpus),
			logging.String(logging.FieldEventType, "workers_clamped"),
			logging.String(logging.FieldImpact, "fewer files are encoded concurrently"),
		)
		workers = cpus
	}
	if files > 0 && workers > files {
		workers = files
	}
	return workers
}

func (m *Manager) reportProgress(ctx context.Context, t *tally, total int, logger *slog.Logger) {
	if m.progressInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, done := t.snapshot()
			logger.Info("run progress",
				logging.Int("done", done),
				logging.Int("total", total),
				logging.Int("failed", summary.Failed),
			)
		}
	}
}

func isInterrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
