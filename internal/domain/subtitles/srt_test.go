package subtitles

import (
	"reflect"
	"strings"
	"testing"

	"github.com/forPelevin/capsync/internal/types"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00,000"},
		{3725.4, "01:02:05,400"},
		{59.9999, "00:00:59,999"},
		{0.3, "00:00:00,300"},
		{36000, "10:00:00,000"},
		{-2, "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.in); got != tt.want {
			t.Fatalf("FormatTimestamp(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSerializeSRT(t *testing.T) {
	segs := []types.Segment{
		{Text: "Hello world.", Start: 0, End: 1.5},
		{Text: "Second line", Start: 1.5, End: 3.25},
	}
	want := "1\n00:00:00,000 --> 00:00:01,500\nHello world.\n\n" +
		"2\n00:00:01,500 --> 00:00:03,250\nSecond line\n\n"
	if got := SerializeSRT(segs); got != want {
		t.Fatalf("unexpected srt:\n%q\nwant:\n%q", got, want)
	}
	if got := SerializeSRT(nil); got != "" {
		t.Fatalf("empty input must serialize to empty string, got %q", got)
	}
}

func TestSerializeSRT_BlankLinesInText(t *testing.T) {
	out := SerializeSRT([]types.Segment{{Text: "a\n\nb", Start: 0, End: 1}})
	if strings.Contains(out, "a\n\nb") {
		t.Fatalf("blank line inside cue text: %q", out)
	}
}

func TestSRT_RoundTrip(t *testing.T) {
	segs := []types.Segment{
		{Text: "One.", Start: 0, End: 1.001},
		{Text: "Two\nlines", Start: 1.001, End: 62.5},
		{Text: "नमस्ते।", Start: 3600, End: 3725.4},
	}
	got, err := ParseSRT(SerializeSRT(segs))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if !reflect.DeepEqual(got, segs) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, segs)
	}
}

func TestParseSRT_Variants(t *testing.T) {
	in := "\ufeff1\r\n00:00:01.000-->00:00:02,500\r\nfirst\r\n\r\n\r\n" +
		"00:00:03,000 --> 00:00:04,000 X1:10\nsecond\n"
	got, err := ParseSRT(in)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	want := []types.Segment{
		{Text: "first", Start: 1, End: 2.5},
		{Text: "second", Start: 3, End: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseSRT_Errors(t *testing.T) {
	for _, in := range []string{
		"1\nno timing here\n",
		"1\n00:00:01 --> 00:00:02,000\ntext\n",
		"1\n00:00:01,000 -->\ntext\n",
	} {
		if _, err := ParseSRT(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
