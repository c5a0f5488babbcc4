package script

import (
	"math"
	"reflect"
	"testing"
)

func TestRefreshNoMarkers(t *testing.T) {
	docs := [][]string{
		{},
		{""},
		{"hello", "", "world"},
		{"[x]", "[1] text"},
	}
	for _, doc := range docs {
		res := Refresh(LinesOf(doc))
		if len(res.Segments) != 0 {
			t.Errorf("%q: expected no segments, got %d", doc, len(res.Segments))
		}
		if len(res.Diagnostics) != 0 {
			t.Errorf("%q: expected no diagnostics, got %v", doc, res.Diagnostics)
		}
	}
}

func TestRefreshSingleSegment(t *testing.T) {
	res := Refresh(LinesOf([]string{"[0]", "hello", "", "[5]"}))

	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments (one trailing), got %d", len(res.Segments))
	}
	seg := res.Segments[0]
	if seg.StartTime != 0 || !seg.HasEndTime || seg.EndTime != 5 {
		t.Errorf("times = %v..%v (%v), want 0..5", seg.StartTime, seg.EndTime, seg.HasEndTime)
	}
	if !reflect.DeepEqual(seg.Lines, []string{"hello"}) {
		t.Errorf("lines = %q", seg.Lines)
	}
	if seg.CharacterCount != 5 {
		t.Errorf("character count = %d, want 5", seg.CharacterCount)
	}
	if seg.StartLine != 0 || seg.EndLine != 1 {
		t.Errorf("span = %d..%d, want 0..1", seg.StartLine, seg.EndLine)
	}
	if cps, ok := seg.CPS(); !ok || cps != 1 {
		t.Errorf("cps = %v (%v), want 1", cps, ok)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("expected no diagnostics, got %v", res.Diagnostics)
	}

	trailing := res.Segments[1]
	if trailing.HasEndTime {
		t.Errorf("trailing segment should be unterminated")
	}
	if trailing.StartTime != 5 || trailing.StartLine != 3 {
		t.Errorf("trailing = %+v", trailing)
	}
}

func TestRefreshCountsCharactersAfterDialogueRunCloses(t *testing.T) {
	res := Refresh(LinesOf([]string{
		"[1]",
		"first line",
		"second",
		"",
		"stray note",
		"  ",
		"[4]",
	}))

	seg := res.Segments[0]
	if !reflect.DeepEqual(seg.Lines, []string{"first line", "second"}) {
		t.Errorf("lines = %q", seg.Lines)
	}
	if seg.EndLine != 2 {
		t.Errorf("end line = %d, want 2", seg.EndLine)
	}
	// firstline(9) + second(6) + straynote(9)
	if seg.CharacterCount != 24 {
		t.Errorf("character count = %d, want 24", seg.CharacterCount)
	}
}

func TestRefreshIgnoresTextBeforeFirstMarker(t *testing.T) {
	res := Refresh(LinesOf([]string{"title", "notes", "[2]", "hi", "[3]"}))
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	if res.Segments[0].StartLine != 2 || res.Segments[0].CharacterCount != 2 {
		t.Errorf("segment = %+v", res.Segments[0])
	}
}

func TestRefreshConsecutiveMarkers(t *testing.T) {
	res := Refresh(LinesOf([]string{"[1]", "[2]", "[3]"}))
	if len(res.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(res.Segments))
	}
	for i, seg := range res.Segments[:2] {
		if len(seg.Lines) != 0 || seg.CharacterCount != 0 {
			t.Errorf("segment %d should be empty: %+v", i, seg)
		}
		if seg.StartLine != seg.EndLine {
			t.Errorf("segment %d span = %d..%d", i, seg.StartLine, seg.EndLine)
		}
	}
}

func TestRefreshOutOfOrder(t *testing.T) {
	res := Refresh(LinesOf([]string{"[10]", "hi", "[5]"}))

	seg := res.Segments[0]
	if seg.StartTime != 10 || seg.EndTime != 5 {
		t.Errorf("times = %v..%v, want 10..5", seg.StartTime, seg.EndTime)
	}
	want := []Diagnostic{{Line: 0, Severity: SeverityError, Message: MessageOutOfOrder}}
	if !reflect.DeepEqual(res.Diagnostics, want) {
		t.Errorf("diagnostics = %v, want %v", res.Diagnostics, want)
	}
	if !res.HasErrors() {
		t.Error("HasErrors() = false")
	}
}

func TestRefreshReadingSpeed(t *testing.T) {
	res := Refresh(LinesOf([]string{"[0]", "aaaaaaaaaaaaaaaaaaaaaaaaaa", "[1]"}))

	if cps, _ := res.Segments[0].CPS(); cps != 26 {
		t.Errorf("cps = %v, want 26", cps)
	}
	want := []Diagnostic{{Line: 0, Severity: SeverityWarning, Message: MessageTooFast}}
	if !reflect.DeepEqual(res.Diagnostics, want) {
		t.Errorf("diagnostics = %v, want %v", res.Diagnostics, want)
	}
	if res.HasErrors() {
		t.Error("warnings should not count as errors")
	}
}

func TestRefreshDiagnosticsInFinalizeOrder(t *testing.T) {
	res := Refresh(LinesOf([]string{
		"[0]", "aaaaaaaaaaaaaaaaaaaaaaaaaa",
		"[1]", "ok",
		"[20]", "late",
		"[15]",
	}))
	want := []Diagnostic{
		{Line: 0, Severity: SeverityWarning, Message: MessageTooFast},
		{Line: 4, Severity: SeverityError, Message: MessageOutOfOrder},
	}
	if !reflect.DeepEqual(res.Diagnostics, want) {
		t.Errorf("diagnostics = %v, want %v", res.Diagnostics, want)
	}
}

// zero duration is treated as infinite reading speed
func TestRefreshZeroDurationAlwaysWarns(t *testing.T) {
	for _, doc := range [][]string{
		{"[3]", "hi", "[3]"},
		{"[3]", "[3]"},
	} {
		res := Refresh(LinesOf(doc))
		cps, ok := res.Segments[0].CPS()
		if !ok || !math.IsInf(cps, 1) {
			t.Errorf("%q: cps = %v, want +Inf", doc, cps)
		}
		if len(res.Diagnostics) != 1 || res.Diagnostics[0].Message != MessageTooFast {
			t.Errorf("%q: diagnostics = %v", doc, res.Diagnostics)
		}
	}
}

func TestRefreshInvalidTimesProduceNoDiagnostics(t *testing.T) {
	res := Refresh(LinesOf([]string{"[00:01]", "a very long line of dialogue text", "[00:02]"}))
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	if !math.IsNaN(res.Segments[0].StartTime) {
		t.Errorf("start time = %v, want NaN", res.Segments[0].StartTime)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", res.Diagnostics)
	}
}

func TestRefreshOrderedAndNonOverlapping(t *testing.T) {
	res := Refresh(Lines("[0]\na\nb\n\nc\n[1]\n\n[2]\nd\n[1.5]\ne\n\n\n[9]\n"))
	for i := 1; i < len(res.Segments); i++ {
		prev, cur := res.Segments[i-1], res.Segments[i]
		if cur.StartLine < prev.StartLine {
			t.Errorf("segment %d starts before segment %d", i, i-1)
		}
		if prev.EndLine >= cur.StartLine {
			t.Errorf("segment %d (%d..%d) overlaps segment %d at %d", i-1, prev.StartLine, prev.EndLine, i, cur.StartLine)
		}
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	lines := Lines("[0]\nhello there\n\n[2.5]\n`general` kenobi\n\nextra\n[4]\n-\n[6]")
	first := Refresh(lines)
	second := Refresh(lines)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("refresh is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestRefreshAnnotations(t *testing.T) {
	res := Refresh(LinesOf([]string{"[0]", "hello", "[5]", "tail"}))
	if len(res.Annotations) != 2 {
		t.Fatalf("expected one annotation per marker, got %d", len(res.Annotations))
	}
	if a := res.Annotations[0]; a.Line != 0 || !a.HasCPS || a.CPS != 1 {
		t.Errorf("annotation 0 = %+v", a)
	}
	if a := res.Annotations[1]; a.Line != 2 || a.HasCPS {
		t.Errorf("annotation 1 = %+v", a)
	}
}

func TestRefreshUsesAnalyzerThreshold(t *testing.T) {
	engine := NewEngine()
	engine.Analyzer.MaxCPS = 4
	res := engine.Refresh(LinesOf([]string{"[0]", "hello", "[1]"}))
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Severity != SeverityWarning {
		t.Errorf("diagnostics = %v", res.Diagnostics)
	}
}

func TestLinesStripsCarriageReturns(t *testing.T) {
	lines := Lines("[1]\r\nhi\r\n")
	want := []Line{{0, "[1]"}, {1, "hi"}, {2, ""}}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Lines() = %v, want %v", lines, want)
	}
	res := Refresh(lines)
	if len(res.Segments) != 1 || res.Segments[0].Lines[0] != "hi" {
		t.Errorf("segments = %+v", res.Segments)
	}
}

func TestStartTimes(t *testing.T) {
	res := Refresh(LinesOf([]string{"[1]", "a", "[2.5]", "b", "[4]"}))
	want := []float64{1, 2.5, 4}
	if got := res.StartTimes(); !reflect.DeepEqual(got, want) {
		t.Errorf("StartTimes() = %v, want %v", got, want)
	}
}

func TestAnnotationLabel(t *testing.T) {
	tests := []struct {
		a    Annotation
		want string
	}{
		{Annotation{CPS: 14, HasCPS: true}, "14 CPS"},
		{Annotation{CPS: -1, HasCPS: true}, "-1 CPS"},
		{Annotation{CPS: math.Inf(1), HasCPS: true}, "+Inf CPS"},
		{Annotation{}, ""},
	}
	for _, tt := range tests {
		if got := tt.a.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}
