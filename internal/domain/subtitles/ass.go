package subtitles

import (
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/capsync/internal/domain/styles"
	"github.com/forPelevin/capsync/internal/types"
)

const (
	styleName    = "Caption"
	barStyleName = "Bar"
)

// RenderASS renders segments as an ASS script styled by p. Progressive
// styles get karaoke timing: the caption is cut into wordCount equal
// slices and word i turns to the highlight color once i+1 slices have
// elapsed, which is the same count the playback preview highlights.
// Styles with a bar get a second event per caption on the layer below,
// laying out the same text so the bar spans the caption box.
func RenderASS(segs []types.Segment, p styles.Params) string {
	clip, bar := styles.BarClip(p)
	var b strings.Builder
	b.WriteString(assHeader(p, bar))
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	layer := 0
	if bar {
		layer = 1
	}
	for _, s := range segs {
		start, end := centis(s.Start), centis(s.End)
		text := sanitizeASS(s.Text)
		if bar {
			writeDialogue(&b, 0, start, end, barStyleName, clip+text)
		}
		if p.Progressive {
			text = karaokeText(s.Text, end-start)
		}
		writeDialogue(&b, layer, start, end, styleName, text)
	}
	return b.String()
}

func writeDialogue(b *strings.Builder, layer, start, end int, style, text string) {
	fmt.Fprintf(b, "Dialogue: %d,%s,%s,%s,,0,0,0,,%s\n", layer, assTime(start), assTime(end), style, text)
}

// karaokeText emits one leading empty syllable and one syllable per word.
// \k switches a syllable to PrimaryColour when the syllable starts.
func karaokeText(text string, durCS int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	n := len(words)
	// Word i starts at boundary(i+1); boundaries are computed cumulatively so
	// rounding never drifts.
	boundary := func(k int) int {
		if k > n {
			k = n
		}
		return durCS * k / n
	}
	var b strings.Builder
	fmt.Fprintf(&b, "{\\k%d}", boundary(1))
	for i, w := range words {
		fmt.Fprintf(&b, "{\\k%d}%s", boundary(i+2)-boundary(i+1), sanitizeASS(w))
		if i < n-1 {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func assHeader(p styles.Params, bar bool) string {
	lines := []string{
		"[Script Info]",
		"ScriptType: v4.00+",
		fmt.Sprintf("PlayResX: %d", styles.ASSScriptWidth),
		fmt.Sprintf("PlayResY: %d", styles.ASSScriptHeight),
		"ScaledBorderAndShadow: yes",
		"WrapStyle: 0",
		"",
		"[V4+ Styles]",
		"Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding",
		styles.StyleLine(p, styleName),
	}
	if bar {
		lines = append(lines, styles.BarStyleLine(p, barStyleName))
	}
	return strings.Join(lines, "\n")
}

func centis(sec float64) int {
	if sec < 0 {
		return 0
	}
	return int(math.Round(sec * 100))
}

func assTime(cs int) string {
	if cs < 0 {
		cs = 0
	}
	hs := cs / 360000
	cs -= hs * 360000
	ms := cs / 6000
	cs -= ms * 6000
	s := cs / 100
	cs -= s * 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", "\\N")
	return s
}
