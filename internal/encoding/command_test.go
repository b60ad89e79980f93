package encoding

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"vidnorm/internal/media/ffprobe"
)

func intPtr(v int) *int { return &v }

func hdrProbe() ffprobe.Result {
	return ffprobe.Result{
		FormatName: "matroska,webm",
		Duration:   3600,
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "hevc", BitDepth: intPtr(10), ColorTransfer: "smpte2084"},
			{Index: 1, CodecType: "audio", CodecName: "truehd"},
			{Index: 2, CodecType: "audio", CodecName: "ac3"},
			{Index: 3, CodecType: "subtitle", CodecName: "subrip"},
			{Index: 4, CodecType: "subtitle", CodecName: "hdmv_pgs_subtitle"},
			{Index: 5, CodecType: "subtitle", CodecName: "mov_text"},
		},
	}
}

func TestBuildHDRWithGPU(t *testing.T) {
	got := Build("/in/movie.mkv", "/tmp/movie.x.mp4", hdrProbe(), true, 21, "slow")
	want := []string{
		"ffmpeg", "-hide_banner", "-loglevel", "warning", "-stats", "-y", "-i", "/in/movie.mkv",
		"-vf", HDRTonemapFilter,
		"-c:v", "h264_nvenc", "-preset", "p4", "-cq", "21", "-profile:v", "high",
		"-c:a:0", "aac", "-b:a:0", "192k",
		"-c:a:1", "copy",
		"-c:s:0", "mov_text",
		"-c:s:2", "copy",
		"-movflags", "+faststart", "-f", "mp4", "/tmp/movie.x.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected command:\n got %q\nwant %q", got, want)
	}
}

func TestBuildCPUTranscodeWithoutHDR(t *testing.T) {
	probe := ffprobe.Result{
		FormatName: "avi",
		Streams: []ffprobe.Stream{
			{CodecType: "video", CodecName: "mpeg4"},
			{CodecType: "audio", CodecName: "mp3"},
		},
	}
	got := strings.Join(Build("in.avi", "out.mp4", probe, false, 23, "medium"), " ")
	want := "ffmpeg -hide_banner -loglevel warning -stats -y -i in.avi -c:v libx264 -preset medium -crf 23 -profile:v high -threads 4 -c:a:0 copy -movflags +faststart -f mp4 out.mp4"
	if got != want {
		t.Fatalf("unexpected command:\n got %s\nwant %s", got, want)
	}
}

func TestBuildGPUSDRAddsPixelFormat(t *testing.T) {
	probe := ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "vp9", BitDepth: intPtr(8)}}}
	got := Build("in.webm", "out.mp4", probe, true, 23, "medium")
	idx := slices.Index(got, "-vf")
	if idx < 0 || got[idx+1] != "format=yuv420p" {
		t.Fatalf("expected -vf format=yuv420p, got %q", got)
	}
}

func TestBuildCopiesCompatibleVideo(t *testing.T) {
	probe := ffprobe.Result{
		FormatName: "matroska,webm",
		Streams: []ffprobe.Stream{
			{CodecType: "video", CodecName: "h264", BitDepth: intPtr(8), ColorTransfer: "smpte2084"},
			{CodecType: "audio", CodecName: "dts"},
		},
	}
	got := Build("in.mkv", "out.mp4", probe, true, 23, "medium")
	if slices.Contains(got, "-vf") {
		t.Fatalf("stream copy must not add filters: %q", got)
	}
	if idx := slices.Index(got, "-c:v"); idx < 0 || got[idx+1] != "copy" {
		t.Fatalf("expected video copy, got %q", got)
	}
	if !slices.Contains(got, "-b:a:0") {
		t.Fatalf("expected dts to be transcoded to aac: %q", got)
	}
}

func TestBuildTranscodes10BitH264(t *testing.T) {
	probe := ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "h264", BitDepth: intPtr(10)}}}
	got := Build("in.mkv", "out.mp4", probe, false, 20, "fast")
	if idx := slices.Index(got, "-c:v"); idx < 0 || got[idx+1] != "libx264" {
		t.Fatalf("expected libx264 for 10-bit h264, got %q", got)
	}
}

func TestBuildIsDeterministicAndEndsInMP4(t *testing.T) {
	probe := hdrProbe()
	first := Build("a.mkv", "/scratch/a.1.mp4", probe, false, 23, "medium")
	second := Build("a.mkv", "/scratch/a.1.mp4", probe, false, 23, "medium")
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical commands for identical input")
	}
	if first[len(first)-1] != "/scratch/a.1.mp4" || first[len(first)-2] != "mp4" || first[len(first)-3] != "-f" {
		t.Fatalf("unexpected tail: %q", first[len(first)-4:])
	}
}

func TestBuildNoVideoStream(t *testing.T) {
	probe := ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio", CodecName: "flac"}}}
	got := Build("in.flac", "out.mp4", probe, true, 23, "medium")
	if idx := slices.Index(got, "-c:v"); idx < 0 || got[idx+1] != "copy" {
		t.Fatalf("expected -c:v copy without video, got %q", got)
	}
}
