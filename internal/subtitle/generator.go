package subtitle

import (
	"regexp"
	"strings"
	"time"

	"github.com/mgpai22/subtitler/internal/script"
)

// Placeholder marks a timed gap; segments holding only it are not exported.
const Placeholder = "-"

var italicRegex = regexp.MustCompile(`<i>([^<]+)</i>`)

// converts parsed entries back into a timed script
type ScriptGenerator struct {
	// emit "-" gap segments when a cue ends before the next one starts
	MarkGaps bool
}

func NewScriptGenerator() *ScriptGenerator {
	return &ScriptGenerator{MarkGaps: true}
}

// Generate writes one marker per cue start followed by the cue text and a
// blank line. A cue whose end differs from the next start gets its own end
// marker; the last cue is always closed by one.
func (g *ScriptGenerator) Generate(entries []Entry) string {
	var lines []string
	for i, entry := range entries {
		lines = append(lines, marker(entry.StartTime))
		for _, text := range strings.Split(entry.Text, "\n") {
			if strings.TrimSpace(text) == "" {
				continue
			}
			lines = append(lines, deemphasize(text))
		}
		lines = append(lines, "")

		last := i == len(entries)-1
		if last {
			lines = append(lines, marker(entry.EndTime))
			break
		}
		if entry.EndTime != entries[i+1].StartTime {
			lines = append(lines, marker(entry.EndTime))
			if g.MarkGaps {
				lines = append(lines, Placeholder)
			}
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func marker(d time.Duration) string {
	return "[" + script.FormatSeconds(d.Seconds()) + "]"
}

func deemphasize(line string) string {
	return italicRegex.ReplaceAllString(line, "`$1`")
}
