package subtitle

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var ErrUnsupportedFormat = errors.New("unsupported subtitle format")

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(name string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "srt":
		return FormatSRT, nil
	case "vtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// timing adjustment applied on export, in seconds
type Timing struct {
	Offset float64 `yaml:"offset"`
	Gap    float64 `yaml:"gap"`
}

// DefaultTiming returns the per-format export adjustment. SubRip keeps the
// fixed 0.1s lead and 0.067s gap; WebVTT is unadjusted.
func DefaultTiming(format Format) Timing {
	if format == FormatSRT {
		return Timing{Offset: 0.1, Gap: 0.067}
	}
	return Timing{}
}

// generated interchange document
type Document struct {
	Format  Format
	Text    string
	Entries int
}

// suggested file extension, including the dot
func (d *Document) Extension() string {
	return GetExtensionForFormat(d.Format)
}

// represents single parsed subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	default:
		return ".srt"
	}
}

// OutputPath swaps the extension of a script path for the format's.
func OutputPath(scriptPath string, format Format) string {
	base := strings.TrimSuffix(scriptPath, filepath.Ext(scriptPath))
	return base + GetExtensionForFormat(format)
}
