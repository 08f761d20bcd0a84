package segments

import (
	"strings"

	"github.com/forPelevin/capsync/internal/types"
)

// Estimate assigns synthetic timing to text that arrived without any.
// Words are grouped with the same closing rule as Group; each segment
// lasts wordCount/WordsPerSecond and starts where the previous one ended,
// the first at 0. The result is an approximation, not measured timing.
func Estimate(text string, opts Options) []types.Segment {
	opts = opts.withDefaults(WordMinChunks)
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var out []types.Segment
	var cur []string
	start := 0.0
	for i, w := range words {
		cur = append(cur, w)
		if opts.endsSentence(w) || len(cur) >= opts.MinChunks || i == len(words)-1 {
			end := start + float64(len(cur))/opts.WordsPerSecond
			out = append(out, types.Segment{Text: strings.Join(cur, " "), Start: start, End: end})
			start = end
			cur = nil
		}
	}
	return out
}
