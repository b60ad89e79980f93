package logging

import "time"

// ProgressSampler thins encoder progress to one line per percent bucket.
// When the total is unknown (percent < 0) it falls back to one line per
// positionStep of media encoded.
type ProgressSampler struct {
	bucketSize   float64
	positionStep time.Duration
	lastBucket   int
	nextPosition time.Duration
}

// NewProgressSampler returns a sampler with the given bucket size in percent
// (default 5) and position step (default one minute).
func NewProgressSampler(bucketSize float64, positionStep time.Duration) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	if positionStep <= 0 {
		positionStep = time.Minute
	}
	return &ProgressSampler{bucketSize: bucketSize, positionStep: positionStep, lastBucket: -1}
}

// ShouldLog reports whether an update at percent/position should be logged.
// A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(percent float64, position time.Duration) bool {
	if s == nil {
		return true
	}
	if percent < 0 {
		if position < s.nextPosition {
			return false
		}
		s.nextPosition = position.Truncate(s.positionStep) + s.positionStep
		return true
	}
	bucket := int(min(percent, 100) / s.bucketSize)
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}

// Reset forgets what was logged, for a new attempt on the same sampler.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
	s.nextPosition = 0
}
