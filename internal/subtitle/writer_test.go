package subtitle

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mgpai22/subtitler/internal/script"
)

func segmentsOf(doc string) []script.Segment {
	return script.Refresh(script.Lines(doc)).Segments
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		srt     string
		vtt     string
	}{
		{3725.4, "01:02:05,400", "01:02:05.400"},
		{0, "00:00:00,000", "00:00:00.000"},
		{59.999, "00:00:59,999", "00:00:59.999"},
		{8.2, "00:00:08,200", "00:00:08.200"},
		{4.9, "00:00:04,900", "00:00:04.900"},
		{36000.5, "10:00:00,500", "10:00:00.500"},
		{-0.1, "00:00:00,000", "00:00:00.000"},
	}
	for _, tt := range tests {
		if got := formatSRTTime(tt.seconds); got != tt.srt {
			t.Errorf("formatSRTTime(%v) = %q, want %q", tt.seconds, got, tt.srt)
		}
		if got := formatVTTTime(tt.seconds); got != tt.vtt {
			t.Errorf("formatVTTTime(%v) = %q, want %q", tt.seconds, got, tt.vtt)
		}
	}
}

// Milliseconds come from the whole-millisecond total rather than from the
// fractional second, so binary error in values like 8.2 does not drop a
// millisecond. Values a hair under a second boundary round up to it.
func TestMillisecondsDivergeFromFractionalFloor(t *testing.T) {
	if naive := math.Floor(math.Mod(8.2, 1) * 1000); naive != 199 {
		t.Fatalf("fractional floor of 8.2 = %v, expected the 199 artifact", naive)
	}
	if got := formatSRTTime(8.2); got != "00:00:08,200" {
		t.Errorf("formatSRTTime(8.2) = %q, want 00:00:08,200", got)
	}
	if got := formatVTTTime(9.9999999999); got != "00:00:10.000" {
		t.Errorf("formatVTTTime(9.9999999999) = %q, want 00:00:10.000", got)
	}
}

func TestSplitTimeClampsHugeValues(t *testing.T) {
	for _, seconds := range []float64{1e16, 1e17, math.MaxFloat64} {
		h, m, s, ms := splitTime(seconds)
		if h != maxMillis/3_600_000 {
			t.Errorf("splitTime(%g) hours = %d, want %d", seconds, h, int64(maxMillis/3_600_000))
		}
		if m < 0 || s < 0 || ms < 0 {
			t.Errorf("splitTime(%g) = %d:%d:%d.%d", seconds, h, m, s, ms)
		}
	}
}

func TestExportSkipsTimesTooLargeToRender(t *testing.T) {
	segs := segmentsOf("[10000000000000000]\nhi\n[10000000000000001]\n[1]\nok\n[2]")
	doc, err := Export(segs, FormatVTT, Timing{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	want := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nok\n"
	if doc.Entries != 1 || doc.Text != want {
		t.Errorf("Export = %d entries %q, want %q", doc.Entries, doc.Text, want)
	}
}

func TestSRTWriterRender(t *testing.T) {
	segs := segmentsOf("[1]\nHello, world!\n\n[4]\n-\n\n[5.5]\nThis is a test.\nWith multiple lines.\n\n[8.2]\n")

	got := (&SRTWriter{}).Render(segs, Timing{})
	want := "1\n" +
		"00:00:01,000 --> 00:00:04,000\n" +
		"Hello, world!\n" +
		"\n" +
		"2\n" +
		"00:00:05,500 --> 00:00:08,200\n" +
		"This is a test.\n" +
		"With multiple lines.\n"
	if got != want {
		t.Errorf("Render() =\n%q\nwant\n%q", got, want)
	}
}

func TestVTTWriterRender(t *testing.T) {
	segs := segmentsOf("[1]\nHello, world!\n\n[4]\n")

	got := (&VTTWriter{}).Render(segs, Timing{})
	want := "WEBVTT\n\n00:00:01.000 --> 00:00:04.000\nHello, world!\n"
	if got != want {
		t.Errorf("Render() =\n%q\nwant\n%q", got, want)
	}

	if empty := (&VTTWriter{}).Render(nil, Timing{}); empty != "WEBVTT\n" {
		t.Errorf("empty document = %q", empty)
	}
}

func TestRenderAppliesTiming(t *testing.T) {
	segs := segmentsOf("[5]\nhi\n[10]")
	got := (&SRTWriter{}).Render(segs, Timing{Offset: 1, Gap: 0.5})
	if !strings.Contains(got, "00:00:04,000 --> 00:00:08,500") {
		t.Errorf("offset/gap not applied:\n%s", got)
	}

	got = (&VTTWriter{}).Render(segs, Timing{Offset: -2})
	if !strings.Contains(got, "00:00:07.000 --> 00:00:12.000") {
		t.Errorf("negative offset not applied:\n%s", got)
	}
}

// SubRip and WebVTT intentionally keep different default adjustments.
func TestDefaultTimingDiffersPerFormat(t *testing.T) {
	if got := DefaultTiming(FormatSRT); got != (Timing{Offset: 0.1, Gap: 0.067}) {
		t.Errorf("DefaultTiming(srt) = %+v", got)
	}
	if got := DefaultTiming(FormatVTT); got != (Timing{}) {
		t.Errorf("DefaultTiming(vtt) = %+v", got)
	}

	segs := segmentsOf("[5]\nhi\n[10]")
	srt, err := Export(segs, FormatSRT, DefaultTiming(FormatSRT))
	if err != nil {
		t.Fatalf("Export(srt) failed: %v", err)
	}
	if !strings.Contains(srt.Text, "00:00:04,900 --> 00:00:09,833") {
		t.Errorf("srt defaults not applied:\n%s", srt.Text)
	}
	vtt, err := Export(segs, FormatVTT, DefaultTiming(FormatVTT))
	if err != nil {
		t.Fatalf("Export(vtt) failed: %v", err)
	}
	if !strings.Contains(vtt.Text, "00:00:05.000 --> 00:00:10.000") {
		t.Errorf("vtt should be unadjusted:\n%s", vtt.Text)
	}
}

func TestRenderClampsNegativeStart(t *testing.T) {
	segs := segmentsOf("[0]\nfirst\n[2]")
	got := (&SRTWriter{}).Render(segs, DefaultTiming(FormatSRT))
	if !strings.HasPrefix(got, "1\n00:00:00,000 --> 00:00:01,833\n") {
		t.Errorf("Render() = %q", got)
	}
}

func TestRenderEmphasis(t *testing.T) {
	segs := segmentsOf("[0]\nsay `hello` now\n`a` and `b`\n[3]")
	got := (&VTTWriter{}).Render(segs, Timing{})
	if !strings.Contains(got, "say <i>hello</i> now\n") {
		t.Errorf("emphasis not translated:\n%s", got)
	}
	if !strings.Contains(got, "<i>a</i> and <i>b</i>\n") {
		t.Errorf("multiple spans not translated:\n%s", got)
	}
}

func TestEmphasize(t *testing.T) {
	tests := map[string]string{
		"say `hello` now": "say <i>hello</i> now",
		"no markup":       "no markup",
		"``":              "``",
		"odd ` tick":      "odd ` tick",
		"`x` `y":          "<i>x</i> `y",
	}
	for in, want := range tests {
		if got := Emphasize(in); got != want {
			t.Errorf("Emphasize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExportableFilter(t *testing.T) {
	segs := segmentsOf(strings.Join([]string{
		"[0]", "kept", "",
		"[1]", " - ", "",
		"[2]", "",
		"[3]", "-", "-", "",
		"[4]", "unterminated",
	}, "\n"))

	got := Exportable(segs)
	if len(got) != 2 {
		t.Fatalf("expected 2 exportable segments, got %d", len(got))
	}
	if got[0].Lines[0] != "kept" || got[1].Lines[0] != "-" {
		t.Errorf("exportable = %+v", got)
	}
}

func TestExportSkipsInvalidTimes(t *testing.T) {
	segs := []script.Segment{
		{StartTime: math.NaN(), EndTime: 3, HasEndTime: true, Lines: []string{"a"}},
		{StartTime: 1, EndTime: math.NaN(), HasEndTime: true, Lines: []string{"b"}},
		{StartTime: 1, EndTime: math.Inf(1), HasEndTime: true, Lines: []string{"c"}},
	}
	doc, err := Export(segs, FormatSRT, Timing{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if doc.Entries != 0 || doc.Text != "" {
		t.Errorf("expected empty document, got %d entries: %q", doc.Entries, doc.Text)
	}
}

func TestExportNumbersOnlyIncludedEntries(t *testing.T) {
	segs := segmentsOf("[0]\n-\n[1]\none\n[2]\n\n[3]\ntwo\n[4]")
	doc, err := Export(segs, FormatSRT, Timing{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasPrefix(doc.Text, "1\n00:00:01,000") {
		t.Errorf("first entry should be numbered 1:\n%s", doc.Text)
	}
	if !strings.Contains(doc.Text, "\n\n2\n00:00:03,000 --> 00:00:04,000\ntwo\n") {
		t.Errorf("second entry should be numbered 2:\n%s", doc.Text)
	}
	if doc.Entries != 2 || doc.Extension() != ".srt" {
		t.Errorf("document = %+v", doc)
	}
}

func TestExportOutOfOrderStillSerialized(t *testing.T) {
	segs := segmentsOf("[10]\nhi\n[5]")
	doc, err := Export(segs, FormatVTT, Timing{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.Contains(doc.Text, "00:00:10.000 --> 00:00:05.000") {
		t.Errorf("out-of-order segment missing:\n%s", doc.Text)
	}
}

// rendered SubRip parses back into as many entries as passed the filter
func TestSRTEntryCountRoundTrip(t *testing.T) {
	docs := []string{
		"",
		"[0]\nhello\n\n[5]",
		"[0]\na\n[1]\n-\n[2]\nb\nc\n\nd\n[3]\n[4]\ne\n[5]\nf",
		"[1]\nx\n[1]\ny\n[0.5]\nz\n[2]",
	}
	for _, d := range docs {
		segs := segmentsOf(d)
		out, err := Export(segs, FormatSRT, DefaultTiming(FormatSRT))
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		entries, err := Parse(strings.NewReader(out.Text), FormatSRT)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if len(entries) != len(Exportable(segs)) || out.Entries != len(entries) {
			t.Errorf("%q: parsed %d entries, exported %d, filter passed %d",
				d, len(entries), out.Entries, len(Exportable(segs)))
		}
	}
}

func TestNewWriterUnsupported(t *testing.T) {
	_, err := NewWriter(Format("ass"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"srt", FormatSRT, false},
		{"SRT", FormatSRT, false},
		{".vtt", FormatVTT, false},
		{" vtt ", FormatVTT, false},
		{"ass", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("talk/episode.txt", FormatVTT); got != "talk/episode.vtt" {
		t.Errorf("OutputPath = %q", got)
	}
	if got := OutputPath("script", FormatSRT); got != "script.srt" {
		t.Errorf("OutputPath = %q", got)
	}
}
