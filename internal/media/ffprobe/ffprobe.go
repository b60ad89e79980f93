package ffprobe

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Stream codec types reported by ffprobe.
const (
	CodecTypeVideo    = "video"
	CodecTypeAudio    = "audio"
	CodecTypeSubtitle = "subtitle"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	FormatName string
	Duration   float64
	Streams    []Stream
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index         int
	CodecName     string
	CodecType     string
	BitDepth      *int
	ColorTransfer string
	Channels      *int
}

// VideoStreams returns video streams in container order.
func (r Result) VideoStreams() []Stream {
	return r.streamsOfType(CodecTypeVideo)
}

// AudioStreams returns audio streams in container order.
func (r Result) AudioStreams() []Stream {
	return r.streamsOfType(CodecTypeAudio)
}

// SubtitleStreams returns subtitle streams in container order.
func (r Result) SubtitleStreams() []Stream {
	return r.streamsOfType(CodecTypeSubtitle)
}

// FirstVideo returns the first video stream, if any.
func (r Result) FirstVideo() (Stream, bool) {
	for _, stream := range r.Streams {
		if stream.CodecType == CodecTypeVideo {
			return stream, true
		}
	}
	return Stream{}, false
}

func (r Result) streamsOfType(codecType string) []Stream {
	var out []Stream
	for _, stream := range r.Streams {
		if stream.CodecType == codecType {
			out = append(out, stream)
		}
	}
	return out
}

// Depth returns the stream bit depth, or 0 when ffprobe did not report one.
func (s Stream) Depth() int {
	if s.BitDepth == nil {
		return 0
	}
	return *s.BitDepth
}

type wireResult struct {
	Streams []wireStream `json:"streams"`
	Format  struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

type wireStream struct {
	Index            int    `json:"index"`
	CodecName        string `json:"codec_name"`
	CodecType        string `json:"codec_type"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
	ColorTransfer    string `json:"color_transfer"`
	Channels         *int   `json:"channels"`
}

// Parse decodes an ffprobe JSON document produced with -of json.
func Parse(data []byte) (Result, error) {
	var wire wireResult
	if err := json.Unmarshal(data, &wire); err != nil {
		return Result{}, err
	}

	result := Result{
		FormatName: wire.Format.FormatName,
		Duration:   parseDuration(wire.Format.Duration),
		Streams:    make([]Stream, 0, len(wire.Streams)),
	}
	for _, ws := range wire.Streams {
		result.Streams = append(result.Streams, Stream{
			Index:         ws.Index,
			CodecName:     ws.CodecName,
			CodecType:     ws.CodecType,
			BitDepth:      parseBitDepth(ws.BitsPerRawSample),
			ColorTransfer: ws.ColorTransfer,
			Channels:      ws.Channels,
		})
	}
	return result, nil
}

func parseDuration(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseBitDepth(value string) *int {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return nil
	}
	parsed, err := strconv.Atoi(cleaned)
	if err != nil || parsed == 0 {
		return nil
	}
	return &parsed
}
