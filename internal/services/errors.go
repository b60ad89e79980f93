package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProbeFailure marks ffprobe exits, timeouts, and unparseable output.
	ErrProbeFailure = errors.New("probe failure")
	// ErrEncodeFailure marks a non-zero encoder exit.
	ErrEncodeFailure = errors.New("encode failure")
	// ErrTimeoutFailure marks an external tool exceeding its wall-clock cap.
	ErrTimeoutFailure = errors.New("timeout")
	// ErrIOFailure marks rename/move/delete and state persistence errors.
	ErrIOFailure = errors.New("io failure")

	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an encode attempt that failed with err may be
// attempted again. Only encoder exits and timeouts qualify; probe, filesystem
// and cancellation errors are terminal for the file.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrIOFailure) || errors.Is(err, ErrProbeFailure) {
		return false
	}
	return errors.Is(err, ErrEncodeFailure) || errors.Is(err, ErrTimeoutFailure)
}

// Kind returns a short label for the failure class carried by err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeoutFailure):
		return "timeout"
	case errors.Is(err, ErrProbeFailure):
		return "probe"
	case errors.Is(err, ErrEncodeFailure):
		return "encode"
	case errors.Is(err, ErrIOFailure):
		return "io"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
