package ffprobe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vidnorm/internal/services"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "hevc", "codec_type": "video", "bits_per_raw_sample": "10", "color_transfer": "smpte2084"},
    {"index": 1, "codec_name": "dts", "codec_type": "audio", "channels": 6},
    {"index": 2, "codec_name": "aac", "codec_type": "audio", "channels": 2},
    {"index": 3, "codec_name": "subrip", "codec_type": "subtitle"}
  ],
  "format": {"format_name": "matroska,webm", "duration": "5400.250000"}
}`

func TestParseExtractsStreams(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.FormatName != "matroska,webm" {
		t.Fatalf("unexpected format: %q", result.FormatName)
	}
	if result.Duration != 5400.25 {
		t.Fatalf("unexpected duration: %v", result.Duration)
	}
	video, ok := result.FirstVideo()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if video.CodecName != "hevc" || video.Depth() != 10 || video.ColorTransfer != "smpte2084" {
		t.Fatalf("unexpected video stream: %+v", video)
	}
	audio := result.AudioStreams()
	if len(audio) != 2 || audio[0].CodecName != "dts" || audio[1].CodecName != "aac" {
		t.Fatalf("unexpected audio order: %+v", audio)
	}
	if audio[0].Channels == nil || *audio[0].Channels != 6 {
		t.Fatalf("expected 6 channels, got %v", audio[0].Channels)
	}
	if subs := result.SubtitleStreams(); len(subs) != 1 || subs[0].Index != 3 {
		t.Fatalf("unexpected subtitles: %+v", subs)
	}
}

func TestParseDegradesBadNumbers(t *testing.T) {
	result, err := Parse([]byte(`{
  "streams": [{"index": 0, "codec_name": "h264", "codec_type": "video", "bits_per_raw_sample": "N/A"}],
  "format": {"format_name": "mov,mp4", "duration": "N/A"}
}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Duration != 0 {
		t.Fatalf("expected duration 0, got %v", result.Duration)
	}
	if result.Streams[0].BitDepth != nil {
		t.Fatalf("expected absent bit depth, got %d", *result.Streams[0].BitDepth)
	}
	if _, ok := (Result{}).FirstVideo(); ok {
		t.Fatal("expected no video stream in empty result")
	}
}

func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCLIProberDecodesOutput(t *testing.T) {
	stub := writeStub(t, "cat <<'JSON'\n"+sampleJSON+"\nJSON\n")
	result, err := NewCLIProber(stub).Probe(context.Background(), "/media/movie.mkv")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(result.Streams) != 4 {
		t.Fatalf("expected 4 streams, got %d", len(result.Streams))
	}
}

func TestCLIProberFailures(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		timeout     time.Duration
		wantTimeout bool
	}{
		{name: "exit status", script: "echo 'Invalid data' >&2\nexit 1\n"},
		{name: "malformed json", script: "echo '{not json'\n"},
		{name: "timeout", script: "sleep 5\n", timeout: 100 * time.Millisecond, wantTimeout: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prober := &CLIProber{Binary: writeStub(t, tc.script), Timeout: tc.timeout}
			_, err := prober.Probe(context.Background(), "/media/broken.avi")
			if !errors.Is(err, services.ErrProbeFailure) {
				t.Fatalf("expected probe failure, got %v", err)
			}
			if got := errors.Is(err, services.ErrTimeoutFailure); got != tc.wantTimeout {
				t.Fatalf("timeout marker = %v, want %v (%v)", got, tc.wantTimeout, err)
			}
		})
	}
}
