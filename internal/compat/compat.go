// Package compat decides whether probed media already plays in a browser
// and whether its video needs HDR tone-mapping.
package compat

import (
	"strings"

	"vidnorm/internal/media/ffprobe"
)

// CompatibleContainers are substrings of ffprobe format names that browsers play.
var CompatibleContainers = []string{"mov", "mp4", "m4a", "3gp", "3g2", "mj2"}

// CompatibleAudioCodecs may be stream-copied into the output container.
var CompatibleAudioCodecs = map[string]bool{
	"aac":  true,
	"ac3":  true,
	"eac3": true,
	"mp3":  true,
}

const maxCompatibleBitDepth = 8

// IsCompatible reports whether the file can be played as-is: an MP4-family
// container, an 8-bit (or unknown depth) H.264 first video stream, and only
// whitelisted audio codecs.
func IsCompatible(probe ffprobe.Result) bool {
	if !compatibleContainer(probe.FormatName) {
		return false
	}
	video, ok := probe.FirstVideo()
	if !ok {
		return false
	}
	if video.CodecName != "h264" || video.Depth() > maxCompatibleBitDepth {
		return false
	}
	for _, audio := range probe.AudioStreams() {
		if !AudioCopyable(audio.CodecName) {
			return false
		}
	}
	return true
}

// AudioCopyable reports whether an audio codec can be stream-copied.
func AudioCopyable(codec string) bool {
	return CompatibleAudioCodecs[codec]
}

// NeedsHDRTonemap reports whether any video stream carries a PQ or HLG
// transfer, or is 10-bit or deeper with a BT.2020 transfer.
func NeedsHDRTonemap(probe ffprobe.Result) bool {
	for _, video := range probe.VideoStreams() {
		switch video.ColorTransfer {
		case "smpte2084", "arib-std-b67":
			return true
		case "bt2020-10", "bt2020-12":
			if video.Depth() >= 10 {
				return true
			}
		}
	}
	return false
}

func compatibleContainer(formatName string) bool {
	for _, name := range CompatibleContainers {
		if strings.Contains(formatName, name) {
			return true
		}
	}
	return false
}
