package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timing lines must start with the cue start; cue settings may follow the end
var (
	srtTimestampRegex = regexp.MustCompile(
		`^\s*(\d{2,}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2}),(\d{3})(?:\s|$)`,
	)
	vttTimestampRegex = regexp.MustCompile(
		`^\s*(\d{2,}):(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2})\.(\d{3})(?:\s|$)`,
	)
	vttShortTimestampRegex = regexp.MustCompile(
		`^\s*(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(\d{2}):(\d{2})\.(\d{3})(?:\s|$)`,
	)
)

// Open parses an existing SubRip or WebVTT file, choosing by extension.
func Open(path string) ([]Entry, Format, error) {
	format, err := GetFormatFromExtension(path)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s file: %w", strings.ToUpper(string(format)), err)
	}
	defer func() {
		_ = file.Close()
	}()

	entries, err := Parse(file, format)
	if err != nil {
		return nil, "", err
	}
	return entries, format, nil
}

// Parse reads cues from r. SubRip cue numbers and WebVTT cue identifiers,
// NOTE and STYLE blocks are skipped; entries are renumbered from 1.
func Parse(r io.Reader, format Format) ([]Entry, error) {
	var entries []Entry
	var current *Entry
	var textLines []string

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.Index = len(entries) + 1
			current.Text = strings.Join(textLines, "\n")
			entries = append(entries, *current)
		}
		current = nil
		textLines = nil
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	skipBlock := false
	for scanner.Scan() {
		line := scanner.Text()
		lineNum++
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			flush()
			skipBlock = false
			continue
		}
		if skipBlock {
			continue
		}

		if format == FormatVTT && current == nil {
			if strings.HasPrefix(trimmed, "WEBVTT") ||
				strings.HasPrefix(trimmed, "NOTE") ||
				strings.HasPrefix(trimmed, "STYLE") {
				skipBlock = true
				continue
			}
		}

		start, end, ok, err := parseTimingLine(line, format)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp at line %d: %w", lineNum, err)
		}
		if ok {
			flush()
			current = &Entry{StartTime: start, EndTime: end}
			continue
		}

		// cue numbers and identifiers precede the timing line
		if current != nil {
			textLines = append(textLines, line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s input: %w", strings.ToUpper(string(format)), err)
	}
	return entries, nil
}

func parseTimingLine(line string, format Format) (time.Duration, time.Duration, bool, error) {
	var fields []string
	switch format {
	case FormatSRT:
		if m := srtTimestampRegex.FindStringSubmatch(line); m != nil {
			fields = m[1:]
		}
	case FormatVTT:
		if m := vttTimestampRegex.FindStringSubmatch(line); m != nil {
			fields = m[1:]
		} else if m := vttShortTimestampRegex.FindStringSubmatch(line); m != nil {
			fields = []string{"00", m[1], m[2], m[3], "00", m[4], m[5], m[6]}
		}
	}
	if fields == nil {
		return 0, 0, false, nil
	}

	start, err := parseTimestamp(fields[0], fields[1], fields[2], fields[3])
	if err != nil {
		return 0, 0, false, err
	}
	end, err := parseTimestamp(fields[4], fields[5], fields[6], fields[7])
	if err != nil {
		return 0, 0, false, err
	}
	return start, end, true, nil
}

func parseTimestamp(hours, minutes, seconds, millis string) (time.Duration, error) {
	parts := [4]int{}
	for i, s := range []string{hours, minutes, seconds, millis} {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		parts[i] = v
	}

	return time.Duration(parts[0])*time.Hour +
		time.Duration(parts[1])*time.Minute +
		time.Duration(parts[2])*time.Second +
		time.Duration(parts[3])*time.Millisecond, nil
}
