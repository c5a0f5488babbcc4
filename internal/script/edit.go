package script

import (
	"errors"
	"fmt"
)

var ErrCursorOutOfRange = errors.New("cursor out of range")

// SetTime stamps the paragraph under the cursor with a "[time]" marker.
//
// The paragraph top is found by walking upward over non-blank lines. An
// existing marker there is replaced, otherwise the marker is inserted above
// it. The returned cursor points at the first non-blank line after the next
// blank line, so repeated calls step through the script paragraph by
// paragraph; it is left unchanged when no such line exists.
func SetTime(rows []string, cursor int, time string) ([]string, int, error) {
	if cursor < 0 || (cursor >= len(rows) && !(cursor == 0 && len(rows) == 0)) {
		return nil, cursor, fmt.Errorf("%w: line %d of %d", ErrCursorOutOfRange, cursor, len(rows))
	}

	line := cursor
	for i := line - 1; i >= 0; i-- {
		if isBlank(rows[i]) {
			break
		}
		line = i
	}

	marker := "[" + time + "]"
	out := make([]string, 0, len(rows)+1)
	out = append(out, rows[:line]...)
	if line < len(rows) {
		if _, ok := ParseMarker(rows[line]); ok {
			out = append(out, marker)
			out = append(out, rows[line+1:]...)
		} else {
			out = append(out, marker)
			out = append(out, rows[line:]...)
		}
	} else {
		out = append(out, marker)
	}

	next := cursor
	found := false
	for i := line + 1; i < len(out); i++ {
		if isBlank(out[i]) {
			found = true
			continue
		}
		if found {
			next = i
			break
		}
	}
	return out, next, nil
}

// MarkerAbove finds the nearest marker at or above the cursor line.
func MarkerAbove(rows []string, cursor int) (Marker, int, bool) {
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	for i := cursor; i >= 0; i-- {
		if m, ok := ParseMarker(rows[i]); ok {
			return m, i, true
		}
	}
	return Marker{}, -1, false
}
