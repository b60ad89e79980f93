package ffprobe

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"vidnorm/internal/services"
)

// DefaultTimeout caps a single ffprobe invocation.
const DefaultTimeout = 30 * time.Second

const showEntries = "format=format_name,duration:stream=index,codec_name,codec_type,bits_per_raw_sample,color_transfer,channels"

// Prober extracts container and stream metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (Result, error)
}

// CLIProber runs the ffprobe executable.
type CLIProber struct {
	Binary  string
	Timeout time.Duration
}

// NewCLIProber returns a prober using binary (default "ffprobe") with the default timeout.
func NewCLIProber(binary string) *CLIProber {
	return &CLIProber{Binary: binary, Timeout: DefaultTimeout}
}

// Args returns the ffprobe argument list used for path.
func Args(path string) []string {
	return []string{"-v", "error", "-show_entries", showEntries, "-of", "json", path}
}

// Probe executes ffprobe against path and decodes the JSON response.
func (p *CLIProber) Probe(ctx context.Context, path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{}, services.Wrap(services.ErrProbeFailure, "probe", "validate", "empty path", nil)
	}
	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffprobe"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, binary, Args(path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	if err != nil {
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{}, services.Wrap(services.ErrProbeFailure, "probe", "ffprobe",
				"timed out after "+timeout.String(), errors.Join(services.ErrTimeoutFailure, err))
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, services.Wrap(services.ErrProbeFailure, "probe", "ffprobe", strings.TrimSpace(stderr.String()), err)
	}

	result, err := Parse(stdout.Bytes())
	if err != nil {
		return Result{}, services.Wrap(services.ErrProbeFailure, "probe", "parse", "malformed ffprobe output", err)
	}
	return result, nil
}
