package encoding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ProgressUpdate is derived from an ffmpeg -stats line.
type ProgressUpdate struct {
	Position time.Duration
	Percent  float64
	Speed    float64
	FPS      float64
	ETA      time.Duration
}

var (
	statsTimePattern  = regexp.MustCompile(`time=\s*(-?\d+):(\d+):(\d+(?:\.\d+)?)`)
	statsSpeedPattern = regexp.MustCompile(`speed=\s*([\d.]+)x`)
	statsFPSPattern   = regexp.MustCompile(`fps=\s*([\d.]+)`)
)

// parseStatsLine extracts encode progress from a stats line. Percent is -1
// when the source duration is unknown.
func parseStatsLine(line string, duration float64) (ProgressUpdate, bool) {
	match := statsTimePattern.FindStringSubmatch(line)
	if match == nil {
		return ProgressUpdate{}, false
	}
	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.ParseFloat(match[3], 64)
	if hours < 0 {
		return ProgressUpdate{}, false
	}
	position := float64(hours*3600+minutes*60) + seconds

	update := ProgressUpdate{
		Position: time.Duration(position * float64(time.Second)),
		Percent:  -1,
	}
	if m := statsSpeedPattern.FindStringSubmatch(line); m != nil {
		update.Speed, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := statsFPSPattern.FindStringSubmatch(line); m != nil {
		update.FPS, _ = strconv.ParseFloat(m[1], 64)
	}
	if duration > 0 {
		update.Percent = min(position/duration*100, 100)
		if update.Speed > 0 && position < duration {
			remaining := (duration - position) / update.Speed
			update.ETA = time.Duration(remaining * float64(time.Second))
		}
	}
	return update, true
}

func progressMessageText(update ProgressUpdate) string {
	if update.Percent < 0 {
		return fmt.Sprintf("Encoded %s", formatETA(update.Position))
	}
	base := fmt.Sprintf("Encoding %.1f%%", update.Percent)
	extras := make([]string, 0, 2)
	if update.ETA > 0 {
		if formatted := formatETA(update.ETA); formatted != "" {
			extras = append(extras, fmt.Sprintf("ETA %s", formatted))
		}
	}
	if update.Speed > 0 {
		extras = append(extras, fmt.Sprintf("@ %.1fx", update.Speed))
	}
	if len(extras) == 0 {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, strings.Join(extras, ", "))
}

func formatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 || (hours == 0 && minutes == 0) {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, "")
}

// scanLines is a bufio.SplitFunc treating both \r and \n as terminators so
// carriage-return progress updates arrive as separate lines.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}
