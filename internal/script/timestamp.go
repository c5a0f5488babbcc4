package script

import (
	"errors"
	"math"
	"regexp"
	"strconv"
)

var markerRegex = regexp.MustCompile(`^\[@?([\d:.]+)\]$`)

// parsed timestamp marker line
type Marker struct {
	Raw     string
	Seconds float64
}

// Valid reports whether the capture coerced to a number.
func (m Marker) Valid() bool {
	return !math.IsNaN(m.Seconds)
}

// ParseMarker recognizes a line consisting solely of a bracketed time value.
// The capture is coerced as a plain decimal number of seconds; captures that
// are not numbers (for example "00:01.5") produce NaN rather than a miss.
func ParseMarker(text string) (Marker, bool) {
	m := markerRegex.FindStringSubmatch(trim(text))
	if m == nil {
		return Marker{}, false
	}
	return Marker{Raw: m[1], Seconds: coerceSeconds(m[1])}, true
}

func coerceSeconds(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}

// FormatSeconds renders a time value the way it is written inside a marker.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
