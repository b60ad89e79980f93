package workflow

import (
	"vidnorm/internal/encoding"
)

func (m *Manager) recordOutcome(result FileResult) {
	if m.metrics == nil {
		return
	}
	m.metrics.Files.WithLabelValues(string(result.Outcome)).Inc()
}

// recordAttempts counts each encode attempt in the trace by mode and result.
func (m *Manager) recordAttempts(retried encoding.RetryResult) {
	if m.metrics == nil {
		return
	}
	trace := retried.Trace
	for i, step := range trace {
		if step.Phase != encoding.PhaseEncodeAttempt {
			continue
		}
		mode := "cpu"
		if step.GPU {
			mode = "gpu"
		}
		outcome := "failure"
		if i+1 < len(trace) {
			switch trace[i+1].Phase {
			case encoding.PhaseSuccess:
				outcome = "success"
				if !retried.Outcome.DryRun {
					m.metrics.EncodeSeconds.WithLabelValues(mode).Observe(retried.Outcome.Duration.Seconds())
				}
			case encoding.PhaseInterrupted:
				outcome = "interrupted"
			}
		}
		m.metrics.Attempts.WithLabelValues(mode, outcome).Inc()
	}
}

func (m *Manager) trackActive() func() {
	if m.metrics == nil {
		return func() {}
	}
	m.metrics.Active.Inc()
	return m.metrics.Active.Dec
}
