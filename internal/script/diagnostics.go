package script

const (
	DefaultMaxCPS = 20

	MessageOutOfOrder = "timestamps out of order"
	MessageTooFast    = "reading speed too high"
)

// Analyzer derives pacing and ordering diagnostics for finalized segments.
type Analyzer struct {
	// warn when floor(characters / duration) exceeds this
	MaxCPS float64
}

func NewAnalyzer() Analyzer {
	return Analyzer{MaxCPS: DefaultMaxCPS}
}

// Finalize freezes a segment and reports its diagnostics. Unterminated
// segments produce none. Zero-duration segments have +Inf CPS and always warn.
// Segments with invalid (NaN) times fail every comparison and report nothing.
func (a Analyzer) Finalize(seg Segment) (Segment, []Diagnostic) {
	if !seg.HasEndTime {
		return seg, nil
	}

	var diags []Diagnostic
	if seg.EndTime < seg.StartTime {
		diags = append(diags, Diagnostic{
			Line:     seg.StartLine,
			Severity: SeverityError,
			Message:  MessageOutOfOrder,
		})
	}
	if cps, _ := seg.CPS(); cps > a.MaxCPS {
		diags = append(diags, Diagnostic{
			Line:     seg.StartLine,
			Severity: SeverityWarning,
			Message:  MessageTooFast,
		})
	}
	return seg, diags
}
