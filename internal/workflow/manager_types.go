package workflow

import (
	"fmt"
	"sync"
	"time"

	"vidnorm/internal/encoding"
)

// Outcome is the terminal result of one file in a run.
type Outcome string

const (
	OutcomeSkipped     Outcome = "skipped"
	OutcomeCompatible  Outcome = "compatible"
	OutcomeConverted   Outcome = "converted"
	OutcomeDryRun      Outcome = "dry_run"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// FileResult describes how one file left the pipeline.
type FileResult struct {
	Path    string
	Outcome Outcome
	Output  string
	Trace   encoding.Trace
	Err     error
}

// Summary aggregates a run.
type Summary struct {
	RunID       string
	Root        string
	ShardIndex  int
	TotalShards int
	Files       int
	Skipped     int
	Compatible  int
	Converted   int
	DryRun      int
	Failed      int
	Interrupted int
	Duration    time.Duration
}

// Processed counts files that finished without failing, skips excluded.
func (s Summary) Processed() int {
	return s.Compatible + s.Converted + s.DryRun
}

// ShardLabel renders "index+1/total" for sharded runs and "" otherwise.
func (s Summary) ShardLabel() string {
	if s.TotalShards <= 1 {
		return ""
	}
	return fmt.Sprintf("%d/%d", s.ShardIndex+1, s.TotalShards)
}

type tally struct {
	mu      sync.Mutex
	summary Summary
	done    int
}

func (t *tally) add(result FileResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	switch result.Outcome {
	case OutcomeSkipped:
		t.summary.Skipped++
	case OutcomeCompatible:
		t.summary.Compatible++
	case OutcomeConverted:
		t.summary.Converted++
	case OutcomeDryRun:
		t.summary.DryRun++
	case OutcomeFailed:
		t.summary.Failed++
	case OutcomeInterrupted:
		t.summary.Interrupted++
	}
}

func (t *tally) snapshot() (Summary, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summary, t.done
}
