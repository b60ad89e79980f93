package compat

import (
	"testing"

	"vidnorm/internal/media/ffprobe"
)

func depth(v int) *int { return &v }

func video(codec string, bits *int, transfer string) ffprobe.Stream {
	return ffprobe.Stream{CodecType: ffprobe.CodecTypeVideo, CodecName: codec, BitDepth: bits, ColorTransfer: transfer}
}

func audio(codec string) ffprobe.Stream {
	return ffprobe.Stream{CodecType: ffprobe.CodecTypeAudio, CodecName: codec}
}

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		name  string
		probe ffprobe.Result
		want  bool
	}{
		{
			name:  "h264 aac mp4",
			probe: ffprobe.Result{FormatName: "mov,mp4,m4a,3gp,3g2,mj2", Streams: []ffprobe.Stream{video("h264", depth(8), ""), audio("aac")}},
			want:  true,
		},
		{
			name:  "unknown depth counts as 8 bit",
			probe: ffprobe.Result{FormatName: "mov,mp4", Streams: []ffprobe.Stream{video("h264", nil, ""), audio("ac3"), audio("eac3"), audio("mp3")}},
			want:  true,
		},
		{
			name:  "no audio",
			probe: ffprobe.Result{FormatName: "mp4", Streams: []ffprobe.Stream{video("h264", nil, "")}},
			want:  true,
		},
		{
			name:  "matroska container",
			probe: ffprobe.Result{FormatName: "matroska,webm", Streams: []ffprobe.Stream{video("h264", depth(8), ""), audio("aac")}},
		},
		{
			name:  "10 bit h264",
			probe: ffprobe.Result{FormatName: "mov,mp4", Streams: []ffprobe.Stream{video("h264", depth(10), ""), audio("aac")}},
		},
		{
			name:  "hevc",
			probe: ffprobe.Result{FormatName: "mov,mp4", Streams: []ffprobe.Stream{video("hevc", depth(8), ""), audio("aac")}},
		},
		{
			name:  "dts audio",
			probe: ffprobe.Result{FormatName: "mov,mp4", Streams: []ffprobe.Stream{video("h264", depth(8), ""), audio("aac"), audio("dts")}},
		},
		{
			name:  "audio only",
			probe: ffprobe.Result{FormatName: "mov,mp4,m4a", Streams: []ffprobe.Stream{audio("aac")}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCompatible(tc.probe); got != tc.want {
				t.Fatalf("IsCompatible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsCompatibleOnlyFirstVideoMatters(t *testing.T) {
	probe := ffprobe.Result{FormatName: "mov,mp4", Streams: []ffprobe.Stream{video("h264", depth(8), ""), video("mjpeg", nil, "")}}
	if !IsCompatible(probe) {
		t.Fatal("expected cover art stream after primary video to be ignored")
	}
}

func TestRemovingIncompatibleAudioNeverBreaksCompatibility(t *testing.T) {
	base := []ffprobe.Stream{video("h264", depth(8), ""), audio("aac")}
	with := ffprobe.Result{FormatName: "mp4", Streams: append(append([]ffprobe.Stream{}, base...), audio("truehd"))}
	without := ffprobe.Result{FormatName: "mp4", Streams: base}
	if IsCompatible(with) {
		t.Fatal("truehd should make the file incompatible")
	}
	if !IsCompatible(without) {
		t.Fatal("removing the incompatible track should restore compatibility")
	}
}

func TestNeedsHDRTonemap(t *testing.T) {
	tests := []struct {
		name   string
		stream ffprobe.Stream
		want   bool
	}{
		{"pq", video("hevc", depth(10), "smpte2084"), true},
		{"hlg without depth", video("hevc", nil, "arib-std-b67"), true},
		{"bt2020 10 bit", video("hevc", depth(10), "bt2020-10"), true},
		{"bt2020 12 bit", video("hevc", depth(12), "bt2020-12"), true},
		{"bt2020 8 bit", video("hevc", depth(8), "bt2020-10"), false},
		{"bt2020 unknown depth", video("hevc", nil, "bt2020-10"), false},
		{"sdr 10 bit", video("hevc", depth(10), "bt709"), false},
		{"sdr", video("h264", depth(8), "bt709"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe := ffprobe.Result{Streams: []ffprobe.Stream{tc.stream}}
			if got := NeedsHDRTonemap(probe); got != tc.want {
				t.Fatalf("NeedsHDRTonemap = %v, want %v", got, tc.want)
			}
		})
	}
}
