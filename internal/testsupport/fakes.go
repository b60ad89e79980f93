package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"vidnorm/internal/encoding"
	"vidnorm/internal/media/ffprobe"
	"vidnorm/internal/services"
)

// FakeProber returns canned probe results keyed by file base name.
type FakeProber struct {
	mu      sync.Mutex
	Results map[string]ffprobe.Result
	Errors  map[string]error
	calls   []string
}

// NewFakeProber returns an empty prober; unknown files fail to probe.
func NewFakeProber() *FakeProber {
	return &FakeProber{Results: map[string]ffprobe.Result{}, Errors: map[string]error{}}
}

// Set registers the result returned for files named base.
func (p *FakeProber) Set(base string, result ffprobe.Result) *FakeProber {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Results[base] = result
	return p
}

// Probe implements ffprobe.Prober.
func (p *FakeProber) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, path)
	base := filepath.Base(path)
	if err, ok := p.Errors[base]; ok {
		return ffprobe.Result{}, err
	}
	if result, ok := p.Results[base]; ok {
		return result, nil
	}
	return ffprobe.Result{}, services.Wrap(services.ErrProbeFailure, "probe", "ffprobe", base, fmt.Errorf("no canned result"))
}

// Calls returns the paths probed so far.
func (p *FakeProber) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// FakeExecutor pops scripted errors per file base name and otherwise writes
// the finalized output the way a real encode would.
type FakeExecutor struct {
	mu     sync.Mutex
	Script map[string][]error
	jobs   []encoding.Job
}

// NewFakeExecutor returns an executor that succeeds for every file.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{Script: map[string][]error{}}
}

// Fail queues errs to be returned, in order, for files named base.
func (e *FakeExecutor) Fail(base string, errs ...error) *FakeExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Script[base] = append(e.Script[base], errs...)
	return e
}

// Convert implements encoding.Executor.
func (e *FakeExecutor) Convert(ctx context.Context, job encoding.Job) (encoding.Outcome, error) {
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	base := filepath.Base(job.Input)
	var scripted error
	if queue := e.Script[base]; len(queue) > 0 {
		scripted = queue[0]
		e.Script[base] = queue[1:]
	}
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return encoding.Outcome{}, fmt.Errorf("encode interrupted: %w", err)
	}
	if scripted != nil {
		return encoding.Outcome{}, scripted
	}
	if job.Params.DryRun {
		return encoding.Outcome{DryRun: true}, nil
	}

	final := job.Outputs.Claim(job.Input, job.Params.CleanupOriginals)
	if err := os.WriteFile(final, []byte("converted"), 0o644); err != nil {
		return encoding.Outcome{}, services.Wrap(services.ErrIOFailure, "finalize", "move output", final, err)
	}
	if job.Params.CleanupOriginals && final != job.Input {
		if err := os.Remove(job.Input); err != nil {
			return encoding.Outcome{}, services.Wrap(services.ErrIOFailure, "finalize", "remove original", job.Input, err)
		}
	}
	return encoding.Outcome{Output: final}, nil
}

// Jobs returns every attempt received so far.
func (e *FakeExecutor) Jobs() []encoding.Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]encoding.Job(nil), e.jobs...)
}
