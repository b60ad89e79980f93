package encoding

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidnorm/internal/fileutil"
	"vidnorm/internal/logging"
	"vidnorm/internal/media/ffprobe"
	"vidnorm/internal/services"
)

// DefaultTimeout caps a single encoder run.
const DefaultTimeout = 2 * time.Hour

// Job describes one conversion attempt.
type Job struct {
	Input      string
	ScratchDir string
	Probe      ffprobe.Result
	UseGPU     bool
	Params     Params
	Attempt    int
	// Outputs resolves final output names across the run; nil uses
	// FinalPath alone.
	Outputs *OutputClaims
}

// Outcome reports what a conversion attempt produced.
type Outcome struct {
	// Output is the finalized file path; empty for dry runs.
	Output   string
	Command  []string
	DryRun   bool
	Duration time.Duration
}

// Executor runs a single conversion attempt.
type Executor interface {
	Convert(ctx context.Context, job Job) (Outcome, error)
}

// LineSink receives each line of combined encoder output.
type LineSink func(line string)

// FFmpegExecutor runs ffmpeg as a child process in its own process group.
type FFmpegExecutor struct {
	Binary  string
	Timeout time.Duration
	Logger  *slog.Logger
	// Sink overrides the default of logging every output line at INFO.
	Sink LineSink

	newSuffix func() string
}

// NewFFmpegExecutor constructs an executor using binary (default "ffmpeg").
func NewFFmpegExecutor(binary string, timeout time.Duration, logger *slog.Logger) *FFmpegExecutor {
	return &FFmpegExecutor{
		Binary:  binary,
		Timeout: timeout,
		Logger:  logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// TempOutputPath returns the scratch path used for an attempt on input.
func TempOutputPath(scratchDir, input, suffix string) string {
	return filepath.Join(scratchDir, stemOf(input)+"."+suffix+".mp4")
}

var tempOutputPattern = regexp.MustCompile(`\.[0-9a-f]{12}-a[0-9]+\.mp4$`)

// IsTempOutput reports whether name looks like a scratch file written by
// TempOutputPath with a generated suffix.
func IsTempOutput(name string) bool {
	return tempOutputPattern.MatchString(name)
}

func (e *FFmpegExecutor) suffix(attempt int) string {
	if e.newSuffix != nil {
		return e.newSuffix()
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-a%d", id, attempt)
}

// Convert encodes job.Input into a scratch file and finalizes it next to the
// source. Dry runs return the command without touching the filesystem.
func (e *FFmpegExecutor) Convert(ctx context.Context, job Job) (Outcome, error) {
	logger := logging.WithContext(ctx, e.logger())
	temp := TempOutputPath(job.ScratchDir, job.Input, e.suffix(job.Attempt))
	args := Build(job.Input, temp, job.Probe, job.UseGPU, job.Params.CRF, job.Params.Preset)
	binary := strings.TrimSpace(e.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args[0] = binary
	outcome := Outcome{Command: args, DryRun: job.Params.DryRun}

	if job.Params.DryRun {
		logger.Info("dry run", logging.String("command", strings.Join(args, " ")))
		return outcome, nil
	}

	if err := os.MkdirAll(job.ScratchDir, 0o755); err != nil {
		return outcome, services.Wrap(services.ErrIOFailure, "encode", "prepare scratch", job.ScratchDir, err)
	}

	logger.Info("converting", logging.String("input", filepath.Base(job.Input)), logging.Bool("gpu", job.UseGPU))
	logger.Debug("encoder command", logging.String("command", strings.Join(args, " ")))

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	runErr := e.run(runCtx, args, job.Probe.Duration, logger)
	outcome.Duration = time.Since(start)

	if runErr != nil {
		_ = fileutil.RemoveIfExists(temp)
		switch {
		case ctx.Err() != nil:
			return outcome, fmt.Errorf("encode interrupted: %w", ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return outcome, services.Wrap(services.ErrTimeoutFailure, "encode", "ffmpeg",
				fmt.Sprintf("exceeded %s", timeout), runErr)
		default:
			return outcome, services.Wrap(services.ErrEncodeFailure, "encode", "ffmpeg",
				filepath.Base(job.Input), runErr)
		}
	}

	final, err := finalize(job.Input, temp, job.Params.CleanupOriginals, job.Outputs)
	if err != nil {
		return outcome, err
	}
	outcome.Output = final
	logger.Info("completed", logging.String("output", filepath.Base(final)), logging.Duration("elapsed", outcome.Duration))
	return outcome, nil
}

func (e *FFmpegExecutor) run(ctx context.Context, args []string, duration float64, logger *slog.Logger) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	startInProcessGroup(cmd)
	cmd.WaitDelay = 5 * time.Second

	reader, writer, err := os.Pipe()
	if err != nil {
		return err
	}
	cmd.Stdout = writer
	cmd.Stderr = writer
	if err := cmd.Start(); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return err
	}
	_ = writer.Close()

	sink := e.Sink
	if sink == nil {
		sink = func(line string) { logger.Info(line) }
	}
	sampler := logging.NewProgressSampler(10, time.Minute)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if update, ok := parseStatsLine(line, duration); ok {
			if sampler.ShouldLog(update.Percent, update.Position) {
				sink(progressMessageText(update))
			}
			continue
		}
		sink(line)
	}
	_ = reader.Close()
	return cmd.Wait()
}

func (e *FFmpegExecutor) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}
