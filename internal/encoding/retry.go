package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vidnorm/internal/logging"
	"vidnorm/internal/services"
)

// Phase names a state in the per-file conversion state machine.
type Phase string

const (
	PhasePending        Phase = "pending"
	PhaseProbed         Phase = "probed"
	PhaseSkipCompatible Phase = "skip_compatible"
	PhaseNeedsEncode    Phase = "needs_encode"
	PhaseEncodeAttempt  Phase = "encode_attempt"
	PhaseRetry          Phase = "retry"
	PhaseSuccess        Phase = "success"
	PhaseFailed         Phase = "failed"
	PhaseProbeFailed    Phase = "probe_failed"
	PhaseInterrupted    Phase = "interrupted"
)

// Step is one visited state. Attempt and GPU are set for encode attempts and retries.
type Step struct {
	Phase   Phase
	Attempt int
	GPU     bool
	Err     error
}

func (s Step) String() string {
	switch s.Phase {
	case PhaseEncodeAttempt:
		return fmt.Sprintf("%s(%d,%s)", s.Phase, s.Attempt, modeLabel(s.GPU))
	case PhaseRetry:
		return fmt.Sprintf("%s(%s)", s.Phase, modeLabel(s.GPU))
	default:
		return string(s.Phase)
	}
}

// Trace records the states a file passed through, in order.
type Trace []Step

func (t Trace) String() string {
	parts := make([]string, len(t))
	for i, step := range t {
		parts[i] = step.String()
	}
	return strings.Join(parts, " -> ")
}

// Last returns the final state, or PhasePending for an empty trace.
func (t Trace) Last() Phase {
	if len(t) == 0 {
		return PhasePending
	}
	return t[len(t)-1].Phase
}

// Attempts counts encode attempts in the trace.
func (t Trace) Attempts() int {
	count := 0
	for _, step := range t {
		if step.Phase == PhaseEncodeAttempt {
			count++
		}
	}
	return count
}

func modeLabel(gpu bool) string {
	if gpu {
		return "gpu"
	}
	return "cpu"
}

// RetryResult is the outcome of driving a file through the encode states.
type RetryResult struct {
	Outcome Outcome
	Trace   Trace
	// UsedGPU reports the encoder mode of the final attempt.
	UsedGPU bool
}

// RetryController bounds encode attempts for one file and demotes GPU
// encoding to CPU after the first failure.
type RetryController struct {
	Executor Executor
	Logger   *slog.Logger
}

// NewRetryController constructs a controller around executor.
func NewRetryController(executor Executor, logger *slog.Logger) *RetryController {
	return &RetryController{Executor: executor, Logger: logger}
}

// Run attempts job up to job.Params.MaxRetries times. The GPU mode starts
// from job.UseGPU and switches to CPU permanently after any failed attempt
// that is not the last. Filesystem failures during finalization and context
// cancellation end the loop immediately.
func (c *RetryController) Run(ctx context.Context, job Job) (RetryResult, error) {
	if c == nil || c.Executor == nil {
		return RetryResult{}, services.Wrap(services.ErrConfiguration, "encode", "retry", "executor not configured", nil)
	}
	logger := logging.WithContext(ctx, c.Logger)
	maxAttempts := job.Params.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	result := RetryResult{Trace: Trace{{Phase: PhaseNeedsEncode}}}
	useGPU := job.UseGPU
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptJob := job
		attemptJob.Attempt = attempt
		attemptJob.UseGPU = useGPU
		attemptCtx := services.WithMode(services.WithAttempt(ctx, attempt), modeLabel(useGPU))

		result.Trace = append(result.Trace, Step{Phase: PhaseEncodeAttempt, Attempt: attempt, GPU: useGPU})
		result.UsedGPU = useGPU
		outcome, err := c.Executor.Convert(attemptCtx, attemptJob)
		result.Outcome = outcome
		if err == nil {
			result.Trace = append(result.Trace, Step{Phase: PhaseSuccess, Attempt: attempt, GPU: useGPU})
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			result.Trace = append(result.Trace, Step{Phase: PhaseInterrupted, Attempt: attempt, GPU: useGPU, Err: err})
			return result, err
		}
		if !services.Retryable(err) {
			logger.Error("conversion failed without retry",
				logging.Int(logging.FieldAttempt, attempt),
				logging.ErrorKind(err),
				logging.Error(err),
			)
			break
		}
		if attempt == maxAttempts {
			logger.Error("conversion failed", logging.Int(logging.FieldAttempt, attempt), logging.Error(err))
			break
		}

		logger.Warn("conversion failed; retrying",
			logging.Int(logging.FieldAttempt, attempt),
			logging.String("next", fmt.Sprintf("%d/%d", attempt+1, maxAttempts)),
			logging.ErrorKind(err),
			logging.Error(err),
		)
		if useGPU {
			logger.Info("retrying with CPU encoding")
			useGPU = false
		}
		result.Trace = append(result.Trace, Step{Phase: PhaseRetry, Attempt: attempt, GPU: useGPU, Err: err})
	}

	result.Trace = append(result.Trace, Step{Phase: PhaseFailed, Err: lastErr})
	return result, lastErr
}
