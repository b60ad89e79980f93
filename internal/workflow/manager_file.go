package workflow

import (
	"context"
	"path/filepath"

	"vidnorm/internal/compat"
	"vidnorm/internal/encoding"
	"vidnorm/internal/fileutil"
	"vidnorm/internal/logging"
	"vidnorm/internal/state"
)

// processFile drives one file from pending to a terminal outcome:
// pending -> probed -> skip_compatible | needs_encode -> attempts -> success | failed.
func (m *Manager) processFile(ctx context.Context, store *state.Store, outputs *encoding.OutputClaims, path string) FileResult {
	logger := logging.WithContext(ctx, m.logger)
	result := FileResult{Path: path, Trace: encoding.Trace{{Phase: encoding.PhasePending}}}

	should, err := store.ShouldProcess(path)
	if err != nil {
		return m.handleFileFailure(ctx, store, result, err, false)
	}
	if !should {
		logger.Debug("skipping (already processed)")
		result.Outcome = OutcomeSkipped
		return result
	}

	probe, err := m.prober.Probe(ctx, path)
	if err != nil {
		if isInterrupted(ctx, err) {
			return interrupted(result, err)
		}
		result.Trace = append(result.Trace, encoding.Step{Phase: encoding.PhaseProbeFailed, Err: err})
		return m.handleFileFailure(ctx, store, result, err, true)
	}
	result.Trace = append(result.Trace, encoding.Step{Phase: encoding.PhaseProbed})

	if compat.IsCompatible(probe) {
		result.Trace = append(result.Trace, encoding.Step{Phase: encoding.PhaseSkipCompatible})
		logger.Debug("already compatible", logging.String("format", probe.FormatName))
		if err := store.Mark(persistCtx(ctx), path, state.StatusCompatible); err != nil {
			return m.handleMarkFailure(ctx, result, err)
		}
		result.Outcome = OutcomeCompatible
		return result
	}

	job := encoding.Job{
		Input:      path,
		ScratchDir: m.cfg.Paths.ScratchDir,
		Probe:      probe,
		UseGPU:     m.params.UseGPU,
		Params:     m.params,
		Outputs:    outputs,
	}
	done := m.trackActive()
	retried, err := m.retry.Run(ctx, job)
	done()
	result.Trace = append(result.Trace, retried.Trace...)
	m.recordAttempts(retried)
	if err != nil {
		if retried.Trace.Last() == encoding.PhaseInterrupted {
			return interrupted(result, err)
		}
		return m.handleFileFailure(ctx, store, result, err, true)
	}

	if retried.Outcome.DryRun {
		result.Outcome = OutcomeDryRun
		return result
	}

	result.Output = retried.Outcome.Output
	if err := m.markConverted(ctx, store, path, result.Output); err != nil {
		return m.handleMarkFailure(ctx, result, err)
	}
	logger.Debug("conversion trace", logging.String("trace", result.Trace.String()))
	result.Outcome = OutcomeConverted
	return result
}

// markConverted records the output, and the source when it survived
// finalization, so neither is picked up again while unchanged.
func (m *Manager) markConverted(ctx context.Context, store *state.Store, source, output string) error {
	ctx = persistCtx(ctx)
	if output == "" {
		output = source
	}
	if fileutil.Exists(output) {
		if err := store.Mark(ctx, output, state.StatusConverted); err != nil {
			return err
		}
	}
	if filepath.Clean(source) != filepath.Clean(output) && fileutil.Exists(source) {
		if err := store.Mark(ctx, source, state.StatusConverted); err != nil {
			return err
		}
	}
	return nil
}

// persistCtx detaches state writes from run cancellation so a finished
// file is always recorded.
func persistCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func interrupted(result FileResult, err error) FileResult {
	result.Trace = append(result.Trace, encoding.Step{Phase: encoding.PhaseInterrupted, Err: err})
	result.Outcome = OutcomeInterrupted
	result.Err = err
	return result
}
