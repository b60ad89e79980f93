package encoding

import (
	"fmt"
	"strconv"

	"vidnorm/internal/compat"
	"vidnorm/internal/media/ffprobe"
)

// HDRTonemapFilter converts PQ/HLG/BT.2020 video to SDR BT.709 8-bit.
const HDRTonemapFilter = "zscale=t=linear:npl=100,format=gbrpf32le,zscale=p=bt709,tonemap=tonemap=hable:desat=0,zscale=t=bt709:m=bt709:r=tv,format=yuv420p"

const (
	gpuEncoder      = "h264_nvenc"
	gpuPreset       = "p4"
	cpuEncoder      = "libx264"
	cpuThreads      = "4"
	aacBitrate      = "192k"
	outputContainer = "mp4"
)

// NeedsVideoTranscode reports whether the first video stream must be
// re-encoded. Files without video are stream-copied.
func NeedsVideoTranscode(probe ffprobe.Result) bool {
	video, ok := probe.FirstVideo()
	if !ok {
		return false
	}
	return video.CodecName != "h264" || video.Depth() >= 10
}

// Build returns the full ffmpeg argument vector (argv[0] is "ffmpeg") that
// converts input into a browser-playable MP4 at output. It is pure: the same
// arguments always yield the same command.
func Build(input, output string, probe ffprobe.Result, useGPU bool, crf int, preset string) []string {
	cmd := []string{"ffmpeg", "-hide_banner", "-loglevel", "warning", "-stats", "-y", "-i", input}

	if NeedsVideoTranscode(probe) {
		if compat.NeedsHDRTonemap(probe) {
			cmd = append(cmd, "-vf", HDRTonemapFilter)
		} else if useGPU {
			cmd = append(cmd, "-vf", "format=yuv420p")
		}
		if useGPU {
			cmd = append(cmd,
				"-c:v", gpuEncoder,
				"-preset", gpuPreset,
				"-cq", strconv.Itoa(crf),
				"-profile:v", "high",
			)
		} else {
			cmd = append(cmd,
				"-c:v", cpuEncoder,
				"-preset", preset,
				"-crf", strconv.Itoa(crf),
				"-profile:v", "high",
				"-threads", cpuThreads,
			)
		}
	} else {
		cmd = append(cmd, "-c:v", "copy")
	}

	for i, audio := range probe.AudioStreams() {
		if compat.AudioCopyable(audio.CodecName) {
			cmd = append(cmd, fmt.Sprintf("-c:a:%d", i), "copy")
			continue
		}
		cmd = append(cmd,
			fmt.Sprintf("-c:a:%d", i), "aac",
			fmt.Sprintf("-b:a:%d", i), aacBitrate,
		)
	}

	for i, sub := range probe.SubtitleStreams() {
		switch sub.CodecName {
		case "mov_text", "tx3g":
			cmd = append(cmd, fmt.Sprintf("-c:s:%d", i), "copy")
		case "subrip", "srt", "ass", "ssa":
			cmd = append(cmd, fmt.Sprintf("-c:s:%d", i), "mov_text")
		}
	}

	return append(cmd, "-movflags", "+faststart", "-f", outputContainer, output)
}
