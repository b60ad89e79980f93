package testsupport

import "vidnorm/internal/media/ffprobe"

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// CompatibleProbe is an mp4 with 8-bit h264 video and aac audio.
func CompatibleProbe() ffprobe.Result {
	return ffprobe.Result{
		FormatName: "mov,mp4,m4a,3gp,3g2,mj2",
		Duration:   60,
		Streams: []ffprobe.Stream{
			{Index: 0, CodecName: "h264", CodecType: "video", BitDepth: IntPtr(8)},
			{Index: 1, CodecName: "aac", CodecType: "audio", Channels: IntPtr(2)},
		},
	}
}

// HDRProbe is a matroska file with 10-bit PQ hevc video and dts audio.
func HDRProbe() ffprobe.Result {
	return ffprobe.Result{
		FormatName: "matroska,webm",
		Duration:   120,
		Streams: []ffprobe.Stream{
			{Index: 0, CodecName: "hevc", CodecType: "video", BitDepth: IntPtr(10), ColorTransfer: "smpte2084"},
			{Index: 1, CodecName: "dts", CodecType: "audio", Channels: IntPtr(6)},
			{Index: 2, CodecName: "subrip", CodecType: "subtitle"},
		},
	}
}
