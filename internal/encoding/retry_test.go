package encoding

import (
	"context"
	"errors"
	"testing"

	"vidnorm/internal/services"
)

type scriptedExecutor struct {
	results []error
	jobs    []Job
}

func (s *scriptedExecutor) Convert(_ context.Context, job Job) (Outcome, error) {
	s.jobs = append(s.jobs, job)
	idx := len(s.jobs) - 1
	if idx < len(s.results) && s.results[idx] != nil {
		return Outcome{}, s.results[idx]
	}
	return Outcome{Output: "/lib/out.mp4"}, nil
}

func encodeErr() error {
	return services.Wrap(services.ErrEncodeFailure, "encode", "ffmpeg", "exit status 1", nil)
}

func TestRetryControllerDemotesGPUAfterFirstFailure(t *testing.T) {
	exec := &scriptedExecutor{results: []error{encodeErr(), nil}}
	controller := NewRetryController(exec, nil)

	result, err := controller.Run(context.Background(), Job{Input: "/lib/a.mkv", UseGPU: true, Params: Params{MaxRetries: 3}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(exec.jobs) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(exec.jobs))
	}
	if !exec.jobs[0].UseGPU || exec.jobs[1].UseGPU {
		t.Fatalf("expected gpu then cpu, got %v then %v", exec.jobs[0].UseGPU, exec.jobs[1].UseGPU)
	}
	if exec.jobs[0].Attempt != 1 || exec.jobs[1].Attempt != 2 {
		t.Fatalf("unexpected attempt numbers: %d, %d", exec.jobs[0].Attempt, exec.jobs[1].Attempt)
	}
	if result.UsedGPU {
		t.Fatal("expected final attempt to use cpu")
	}
	want := "needs_encode -> encode_attempt(1,gpu) -> retry(cpu) -> encode_attempt(2,cpu) -> success"
	if got := result.Trace.String(); got != want {
		t.Fatalf("unexpected trace:\n got %s\nwant %s", got, want)
	}
}

func TestRetryControllerExhaustsAttempts(t *testing.T) {
	exec := &scriptedExecutor{results: []error{encodeErr(), encodeErr(), encodeErr()}}
	controller := NewRetryController(exec, nil)

	result, err := controller.Run(context.Background(), Job{UseGPU: true, Params: Params{MaxRetries: 3}})
	if !errors.Is(err, services.ErrEncodeFailure) {
		t.Fatalf("expected encode failure, got %v", err)
	}
	if result.Trace.Attempts() != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Trace.Attempts())
	}
	if result.Trace.Last() != PhaseFailed {
		t.Fatalf("expected failed terminal state, got %s", result.Trace.Last())
	}
	for i, job := range exec.jobs[1:] {
		if job.UseGPU {
			t.Fatalf("attempt %d should be cpu", i+2)
		}
	}
}

func TestRetryControllerSingleAttemptKeepsMode(t *testing.T) {
	exec := &scriptedExecutor{results: []error{encodeErr()}}
	result, err := NewRetryController(exec, nil).Run(context.Background(), Job{UseGPU: true, Params: Params{MaxRetries: 1}})
	if err == nil {
		t.Fatal("expected failure")
	}
	if !result.UsedGPU {
		t.Fatal("a last attempt failure must not demote")
	}
	want := "needs_encode -> encode_attempt(1,gpu) -> failed"
	if got := result.Trace.String(); got != want {
		t.Fatalf("unexpected trace: %s", got)
	}
}

func TestRetryControllerTimeoutIsRetried(t *testing.T) {
	timeout := services.Wrap(services.ErrTimeoutFailure, "encode", "ffmpeg", "exceeded 2h0m0s", nil)
	exec := &scriptedExecutor{results: []error{timeout, nil}}
	if _, err := NewRetryController(exec, nil).Run(context.Background(), Job{Params: Params{MaxRetries: 2}}); err != nil {
		t.Fatalf("expected success after timeout retry, got %v", err)
	}
	if len(exec.jobs) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(exec.jobs))
	}
}

func TestRetryControllerIOFailureIsTerminal(t *testing.T) {
	ioErr := services.Wrap(services.ErrIOFailure, "finalize", "move output", "/lib/a.mp4", errors.New("permission denied"))
	exec := &scriptedExecutor{results: []error{ioErr}}
	result, err := NewRetryController(exec, nil).Run(context.Background(), Job{UseGPU: true, Params: Params{MaxRetries: 3}})
	if !errors.Is(err, services.ErrIOFailure) {
		t.Fatalf("expected io failure, got %v", err)
	}
	if len(exec.jobs) != 1 {
		t.Fatalf("expected no retries after io failure, got %d attempts", len(exec.jobs))
	}
	if result.Trace.Last() != PhaseFailed {
		t.Fatalf("expected failed, got %s", result.Trace.Last())
	}
}

func TestRetryControllerStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &scriptedExecutor{results: []error{context.Canceled}}
	result, err := NewRetryController(exec, nil).Run(ctx, Job{Params: Params{MaxRetries: 3}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if result.Trace.Last() != PhaseInterrupted {
		t.Fatalf("expected interrupted, got %s", result.Trace.Last())
	}
	if len(exec.jobs) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(exec.jobs))
	}
}

func TestRetryControllerRequiresExecutor(t *testing.T) {
	var controller *RetryController
	if _, err := controller.Run(context.Background(), Job{}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
