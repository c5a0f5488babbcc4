package script

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// single row of the source buffer
type Line struct {
	Index int
	Text  string
}

// timed span between one marker and the next
type Segment struct {
	StartLine int
	EndLine   int
	StartTime float64
	// EndTime is only meaningful when HasEndTime is set
	EndTime    float64
	HasEndTime bool
	// first unbroken run of non-blank lines after the marker
	Lines []string
	// non-whitespace characters up to the next marker, including lines
	// after the dialogue run closed
	CharacterCount int
}

// Duration returns EndTime - StartTime. ok is false for an unterminated segment.
func (s Segment) Duration() (float64, bool) {
	if !s.HasEndTime {
		return 0, false
	}
	return s.EndTime - s.StartTime, true
}

// CPS returns floor(CharacterCount / duration).
// A zero duration yields +Inf; invalid times yield NaN.
func (s Segment) CPS() (float64, bool) {
	d, ok := s.Duration()
	if !ok {
		return 0, false
	}
	if d == 0 {
		return math.Inf(1), true
	}
	return math.Floor(float64(s.CharacterCount) / d), true
}

// Text joins the dialogue lines with no separator.
func (s Segment) Text() string {
	return strings.Join(s.Lines, "")
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// advisory annotation keyed by line
type Diagnostic struct {
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// per-marker decoration target
type Annotation struct {
	Line   int
	CPS    float64
	HasCPS bool
}

// Label renders the reading speed shown next to a marker, e.g. "14 CPS".
func (a Annotation) Label() string {
	if !a.HasCPS {
		return ""
	}
	return strconv.FormatFloat(a.CPS, 'f', -1, 64) + " CPS"
}

// Lines splits a document into lines, dropping carriage returns.
func Lines(text string) []Line {
	rows := strings.Split(text, "\n")
	lines := make([]Line, len(rows))
	for i, row := range rows {
		lines[i] = Line{Index: i, Text: strings.TrimSuffix(row, "\r")}
	}
	return lines
}

// LinesOf indexes a slice of raw strings.
func LinesOf(rows []string) []Line {
	lines := make([]Line, len(rows))
	for i, row := range rows {
		lines[i] = Line{Index: i, Text: row}
	}
	return lines
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

func trim(text string) string {
	return strings.TrimFunc(text, isSpace)
}

func isBlank(text string) bool {
	return trim(text) == ""
}

func countNonSpace(text string) int {
	n := 0
	for _, r := range text {
		if !isSpace(r) {
			n++
		}
	}
	return n
}
