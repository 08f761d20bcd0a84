package transcribe

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/capsync/internal/types"
)

// Normalize puts a backend result into canonical form: NFC text, trimmed
// chunks, empty chunks dropped, and negative or inverted timing clamped.
// FullText falls back to the joined chunk text.
func Normalize(tr types.TranscriptionResult) types.TranscriptionResult {
	out := types.TranscriptionResult{FullText: clean(tr.FullText)}
	for _, c := range tr.Chunks {
		c.Text = clean(c.Text)
		if c.Text == "" {
			continue
		}
		if c.Start < 0 {
			c.Start = 0
		}
		if c.End < c.Start {
			c.End = c.Start
		}
		out.Chunks = append(out.Chunks, c)
	}
	if out.FullText == "" && len(out.Chunks) > 0 {
		parts := make([]string, len(out.Chunks))
		for i, c := range out.Chunks {
			parts[i] = c.Text
		}
		out.FullText = strings.Join(parts, " ")
	}
	return out
}

func clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
