package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mgpai22/subtitler/internal/script"
)

var emphasisRegex = regexp.MustCompile("`([^`]+)`")

// maxMillis is the largest timecode, in milliseconds, that fits an int64.
const maxMillis = math.MaxInt64

// times at or beyond this many seconds cannot be rendered as a timecode
var maxSeconds = float64(maxMillis) / 1000

// renders finalized segments into an interchange format
type Writer interface {
	Render(segments []script.Segment, timing Timing) string
}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Export renders segments and wraps the text with its format metadata.
func Export(segments []script.Segment, format Format, timing Timing) (*Document, error) {
	writer, err := NewWriter(format)
	if err != nil {
		return nil, err
	}
	return &Document{
		Format:  format,
		Text:    writer.Render(segments, timing),
		Entries: len(Exportable(segments)),
	}, nil
}

// Exportable filters out segments that are unterminated, have no dialogue,
// hold only the "-" placeholder, or carry a time that is not a number or too
// large to render.
func Exportable(segments []script.Segment) []script.Segment {
	var out []script.Segment
	for _, seg := range segments {
		if !seg.HasEndTime || len(seg.Lines) == 0 {
			continue
		}
		if strings.TrimSpace(seg.Text()) == Placeholder {
			continue
		}
		if !renderable(seg.StartTime) || !renderable(seg.EndTime) {
			continue
		}
		out = append(out, seg)
	}
	return out
}

func (w *SRTWriter) Render(segments []script.Segment, timing Timing) string {
	var lines []string
	for i, seg := range Exportable(segments) {
		// index (1-based)
		lines = append(lines, strconv.Itoa(i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		start, end := adjust(seg, timing)
		lines = append(lines, formatSRTTime(start)+" --> "+formatSRTTime(end))

		lines = appendDialogue(lines, seg)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (w *VTTWriter) Render(segments []script.Segment, timing Timing) string {
	// VTT header
	lines := []string{"WEBVTT", ""}
	for _, seg := range Exportable(segments) {
		// timestamps: 00:00:00.000 --> 00:00:00.000
		start, end := adjust(seg, timing)
		lines = append(lines, formatVTTTime(start)+" --> "+formatVTTTime(end))

		lines = appendDialogue(lines, seg)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func adjust(seg script.Segment, timing Timing) (float64, float64) {
	return seg.StartTime - timing.Offset, seg.EndTime - timing.Offset - timing.Gap
}

func appendDialogue(lines []string, seg script.Segment) []string {
	for _, line := range seg.Lines {
		lines = append(lines, Emphasize(line))
	}
	return lines
}

// Emphasize rewrites `text` spans as <i>text</i>.
func Emphasize(line string) string {
	return emphasisRegex.ReplaceAllString(line, "<i>$1</i>")
}

func formatSRTTime(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func formatVTTTime(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// splitTime floors to whole milliseconds and decomposes by integer division.
// Negative values clamp to zero and values past the int64 range clamp to its
// maximum. The tiny bias absorbs binary representation error so that 8.2
// renders as 200ms rather than 199ms.
func splitTime(seconds float64) (h, m, s, ms int64) {
	if seconds < 0 {
		seconds = 0
	}
	var total int64
	if millis := math.Floor(seconds*1000 + 1e-6); millis >= float64(maxMillis) {
		total = maxMillis
	} else {
		total = int64(millis)
	}
	h = total / 3_600_000
	m = total % 3_600_000 / 60_000
	s = total % 60_000 / 1000
	ms = total % 1000
	return h, m, s, ms
}

func renderable(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) < maxSeconds
}
