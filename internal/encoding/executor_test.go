package encoding

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"vidnorm/internal/fileutil"
	"vidnorm/internal/media/ffprobe"
	"vidnorm/internal/services"
)

func writeFFmpegStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\nfor last; do :; done\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) sink(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func newTestExecutor(binary string, timeout time.Duration, collector *lineCollector) *FFmpegExecutor {
	exec := NewFFmpegExecutor(binary, timeout, nil)
	exec.Sink = collector.sink
	exec.newSuffix = func() string { return "test" }
	return exec
}

func sdrProbe() ffprobe.Result {
	return ffprobe.Result{
		FormatName: "avi",
		Duration:   60,
		Streams:    []ffprobe.Stream{{CodecType: "video", CodecName: "mpeg4"}},
	}
}

func TestFFmpegExecutorConvertsAndFinalizes(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "lib", "clip.avi")
	writeFile(t, input, "source")
	scratch := filepath.Join(dir, "scratch")

	stub := writeFFmpegStub(t, `printf 'frame=  100 fps= 50 q=28.0 size=  256kB time=00:00:30.00 bitrate= 69.9kbits/s speed=2.0x\r'
echo "Past duration too large"
printf 'encoded' > "$last"
`)
	collector := &lineCollector{}
	outcome, err := newTestExecutor(stub, time.Minute, collector).Convert(context.Background(), Job{
		Input:      input,
		ScratchDir: scratch,
		Probe:      sdrProbe(),
		Params:     Params{CRF: 23, Preset: "medium", MaxRetries: 1},
		Attempt:    1,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if outcome.Output != filepath.Join(dir, "lib", "clip.mp4") {
		t.Fatalf("unexpected output: %s", outcome.Output)
	}
	if readFile(t, outcome.Output) != "encoded" {
		t.Fatal("unexpected output content")
	}
	if !fileutil.Exists(input) {
		t.Fatal("original must be kept without cleanup")
	}
	if outcome.Command[0] != stub {
		t.Fatalf("expected configured binary as argv[0], got %s", outcome.Command[0])
	}
	joined := strings.Join(collector.lines, "\n")
	if !strings.Contains(joined, "Encoding 50.0%") || !strings.Contains(joined, "Past duration too large") {
		t.Fatalf("expected progress and warning lines, got %q", collector.lines)
	}
}

func TestFFmpegExecutorNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.avi")
	writeFile(t, input, "source")
	scratch := filepath.Join(dir, "scratch")

	stub := writeFFmpegStub(t, "printf 'partial' > \"$last\"\necho 'Conversion failed!' >&2\nexit 1\n")
	_, err := newTestExecutor(stub, time.Minute, &lineCollector{}).Convert(context.Background(), Job{
		Input: input, ScratchDir: scratch, Probe: sdrProbe(), Attempt: 1,
	})
	if !errors.Is(err, services.ErrEncodeFailure) {
		t.Fatalf("expected encode failure, got %v", err)
	}
	if fileutil.Exists(TempOutputPath(scratch, input, "test")) {
		t.Fatal("expected partial temp output removed")
	}
}

func TestFFmpegExecutorTimeoutKillsProcessGroup(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.avi")
	writeFile(t, input, "source")
	scratch := filepath.Join(dir, "scratch")

	stub := writeFFmpegStub(t, "printf 'partial' > \"$last\"\nsleep 30 &\nwait\n")
	start := time.Now()
	_, err := newTestExecutor(stub, 200*time.Millisecond, &lineCollector{}).Convert(context.Background(), Job{
		Input: input, ScratchDir: scratch, Probe: sdrProbe(), Attempt: 1,
	})
	if !errors.Is(err, services.ErrTimeoutFailure) {
		t.Fatalf("expected timeout failure, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("expected prompt kill, took %s", elapsed)
	}
	if fileutil.Exists(TempOutputPath(scratch, input, "test")) {
		t.Fatal("expected partial temp output removed")
	}
}

func TestFFmpegExecutorDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.avi")
	writeFile(t, input, "source")
	scratch := filepath.Join(dir, "scratch")

	outcome, err := newTestExecutor(filepath.Join(dir, "no-such-ffmpeg"), time.Minute, &lineCollector{}).Convert(context.Background(), Job{
		Input: input, ScratchDir: scratch, Probe: sdrProbe(), Params: Params{DryRun: true}, Attempt: 1,
	})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !outcome.DryRun || outcome.Output != "" || len(outcome.Command) == 0 {
		t.Fatalf("unexpected dry run outcome: %+v", outcome)
	}
	if fileutil.Exists(scratch) {
		t.Fatal("dry run must not create the scratch directory")
	}
}

func TestTempOutputPath(t *testing.T) {
	got := TempOutputPath("/tmp/transcode", "/lib/Show S01E01.mkv", "abc-a2")
	if got != "/tmp/transcode/Show S01E01.abc-a2.mp4" {
		t.Fatalf("unexpected temp path: %s", got)
	}
}

func TestIsTempOutputMatchesGeneratedNames(t *testing.T) {
	e := &FFmpegExecutor{}
	name := filepath.Base(TempOutputPath("/scratch", "/lib/movie.mkv", e.suffix(3)))
	if !IsTempOutput(name) {
		t.Fatalf("expected %q to be recognised as a temp output", name)
	}
	for _, other := range []string{"movie.mp4", "movie_converted.mp4", "movie.abc-a1.mp4"} {
		if IsTempOutput(other) {
			t.Fatalf("did not expect %q to match", other)
		}
	}
}
