package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/forPelevin/capsync/internal/types"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm, truncating to whole
// milliseconds. Negative input is clamped to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	// The epsilon absorbs binary representation error (3725.4*1000 is
	// 3725399.99...) so decimal inputs floor to the millisecond they name.
	total := int64(math.Floor(seconds*1000 + 1e-6))
	ms := total % 1000
	secs := (total / 1000) % 60
	minutes := (total / 60000) % 60
	hours := total / 3600000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, ms)
}

// SerializeSRT renders segments as SRT. Export and burn-in both use this.
func SerializeSRT(segs []types.Segment) string {
	var b strings.Builder
	for i, s := range segs {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
		b.WriteString(FormatTimestamp(s.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(s.End))
		b.WriteString("\n")
		b.WriteString(cueText(s.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// cueText drops blank lines, which would otherwise end the cue early.
func cueText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if strings.TrimSpace(ln) != "" {
			kept = append(kept, strings.TrimRight(ln, " \t"))
		}
	}
	return strings.Join(kept, "\n")
}

// ParseSRT reads SRT text back into segments. Cue numbers are optional;
// the arrow may appear with or without surrounding spaces and milliseconds
// may use a period.
func ParseSRT(content string) ([]types.Segment, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var out []types.Segment
	for n, block := range splitBlocks(content) {
		lines := strings.Split(block, "\n")
		i := 0
		if !strings.Contains(lines[0], "-->") {
			i = 1
		}
		if i >= len(lines) || !strings.Contains(lines[i], "-->") {
			return nil, fmt.Errorf("srt cue %d: missing timing line", n+1)
		}
		start, end, err := parseTimingLine(lines[i])
		if err != nil {
			return nil, fmt.Errorf("srt cue %d: %w", n+1, err)
		}
		out = append(out, types.Segment{
			Text:  strings.Join(lines[i+1:], "\n"),
			Start: start,
			End:   end,
		})
	}
	return out, nil
}

func splitBlocks(content string) []string {
	var blocks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, ln := range strings.Split(content, "\n") {
		if strings.TrimSpace(ln) == "" {
			flush()
			continue
		}
		cur = append(cur, ln)
	}
	flush()
	return blocks
}

func parseTimingLine(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// Positional settings may follow the end timestamp.
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp")
	}
	end, err := ParseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseTimestamp parses HH:MM:SS,mmm (or HH:MM:SS.mmm) into seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := int64(hours)*3600000 + int64(minutes)*60000 + int64(seconds)*1000 + int64(millis)
	return float64(total) / 1000, nil
}
