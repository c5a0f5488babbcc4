package script

// output of one refresh
type Result struct {
	Segments    []Segment
	Diagnostics []Diagnostic
	// one per marker line, in line order
	Annotations []Annotation
}

// StartTimes lists segment start times in order.
func (r *Result) StartTimes() []float64 {
	times := make([]float64, len(r.Segments))
	for i, seg := range r.Segments {
		times[i] = seg.StartTime
	}
	return times
}

// HasErrors reports whether any error-level diagnostic was emitted.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Engine turns a document snapshot into timed segments.
type Engine struct {
	Analyzer Analyzer
}

func NewEngine() *Engine {
	return &Engine{Analyzer: NewAnalyzer()}
}

// scan state for the segment under construction
type cursor struct {
	seg     Segment
	open    bool // dialogue run still accepting lines
	current bool // seg is live
}

// Refresh rebuilds all segments from scratch. It never fails: text before the
// first marker is ignored and a document without markers yields an empty result.
func (e *Engine) Refresh(lines []Line) *Result {
	res := &Result{
		Segments:    []Segment{},
		Diagnostics: []Diagnostic{},
		Annotations: []Annotation{},
	}

	var cur cursor
	for _, line := range lines {
		if marker, ok := ParseMarker(line.Text); ok {
			if cur.current {
				cur.seg.EndTime = marker.Seconds
				cur.seg.HasEndTime = true
				e.flush(res, cur.seg)
			}
			cur = cursor{
				seg: Segment{
					StartLine: line.Index,
					EndLine:   line.Index,
					StartTime: marker.Seconds,
					Lines:     []string{},
				},
				open:    true,
				current: true,
			}
			continue
		}
		if !cur.current {
			continue
		}

		cur.seg.CharacterCount += countNonSpace(line.Text)
		if !isBlank(line.Text) && cur.open {
			cur.seg.EndLine = line.Index
			cur.seg.Lines = append(cur.seg.Lines, line.Text)
		} else {
			cur.open = false
		}
	}
	if cur.current {
		e.flush(res, cur.seg)
	}
	return res
}

func (e *Engine) flush(res *Result, seg Segment) {
	seg, diags := e.Analyzer.Finalize(seg)
	cps, ok := seg.CPS()
	res.Segments = append(res.Segments, seg)
	res.Diagnostics = append(res.Diagnostics, diags...)
	res.Annotations = append(res.Annotations, Annotation{
		Line:   seg.StartLine,
		CPS:    cps,
		HasCPS: ok,
	})
}

// Refresh runs a default engine over lines.
func Refresh(lines []Line) *Result {
	return NewEngine().Refresh(lines)
}
