package segments

import (
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/capsync/internal/types"
)

// DefaultTerminals closes a segment when a chunk ends with one of these
// runes. "।" is the Devanagari danda.
const DefaultTerminals = ".!?।"

const (
	// SentenceMinChunks is the closing count used for end-user captions.
	SentenceMinChunks = 2
	// WordMinChunks is the closing count used when words are grouped for
	// timestamp estimation.
	WordMinChunks = 5
	// WordsPerSecond paces synthetic timing in the estimation fallback.
	WordsPerSecond = 2.5
)

// Options parameterises both grouping algorithms.
type Options struct {
	// MinChunks closes a segment once it holds this many chunks.
	MinChunks int
	// Terminals is the set of sentence-terminal runes.
	Terminals string
	// WordsPerSecond is only used by Estimate.
	WordsPerSecond float64
}

// SentenceOptions groups measured chunks into readable captions.
func SentenceOptions() Options {
	return Options{MinChunks: SentenceMinChunks, Terminals: DefaultTerminals, WordsPerSecond: WordsPerSecond}
}

// WordOptions groups bare words for the estimation fallback.
func WordOptions() Options {
	return Options{MinChunks: WordMinChunks, Terminals: DefaultTerminals, WordsPerSecond: WordsPerSecond}
}

func (o Options) withDefaults(minChunks int) Options {
	if o.MinChunks <= 0 {
		o.MinChunks = minChunks
	}
	if o.Terminals == "" {
		o.Terminals = DefaultTerminals
	}
	if o.WordsPerSecond <= 0 {
		o.WordsPerSecond = WordsPerSecond
	}
	return o
}

func (o Options) endsSentence(text string) bool {
	r, _ := utf8.DecodeLastRuneInString(text)
	return r != utf8.RuneError && strings.ContainsRune(o.Terminals, r)
}

// FromTranscription picks the algorithm for tr: grouping when chunks carry
// timing, estimation from the text otherwise. The second return value is
// true when timing was estimated rather than measured.
func FromTranscription(tr types.TranscriptionResult, opts Options) ([]types.Segment, bool) {
	chunks := dropEmpty(tr.Chunks)
	if len(chunks) > 0 && !allUntimed(chunks) {
		return Group(chunks, opts), false
	}
	text := strings.TrimSpace(tr.FullText)
	if text == "" {
		text = joinText(chunks)
	}
	if text == "" {
		return nil, false
	}
	est := opts
	est.MinChunks = WordMinChunks
	return Estimate(text, est), true
}

// Group closes a segment after a sentence terminal, after MinChunks
// chunks, or at the last chunk. Chunks with empty text are dropped first.
// Output is ordered and non-overlapping: a chunk that starts before the
// previous segment ended is pulled forward.
func Group(chunks []types.Chunk, opts Options) []types.Segment {
	opts = opts.withDefaults(SentenceMinChunks)
	chunks = fillMissingTiming(dropEmpty(chunks), opts.WordsPerSecond)
	if len(chunks) == 0 {
		return nil
	}

	out := make([]types.Segment, 0, len(chunks)/opts.MinChunks+1)
	var parts []string
	var cur types.Segment
	for i, c := range chunks {
		if len(parts) == 0 {
			cur = types.Segment{Start: c.Start}
		}
		parts = append(parts, c.Text)
		cur.End = c.End

		if opts.endsSentence(c.Text) || len(parts) >= opts.MinChunks || i == len(chunks)-1 {
			cur.Text = strings.Join(parts, " ")
			out = append(out, cur)
			parts = parts[:0]
		}
	}
	return enforceOrder(out)
}

func dropEmpty(chunks []types.Chunk) []types.Chunk {
	out := make([]types.Chunk, 0, len(chunks))
	for _, c := range chunks {
		c.Text = strings.TrimSpace(c.Text)
		if c.Text == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func allUntimed(chunks []types.Chunk) bool {
	for _, c := range chunks {
		if !c.Untimed() {
			return false
		}
	}
	return true
}

func joinText(chunks []types.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, " ")
}

// fillMissingTiming repairs isolated sentinel chunks inside an otherwise
// timed sequence. A sentinel gets the previous chunk's end as start and a
// word-rate duration, capped by the next timed chunk's start.
func fillMissingTiming(chunks []types.Chunk, wps float64) []types.Chunk {
	prevEnd := 0.0
	for i := range chunks {
		c := &chunks[i]
		if !c.Untimed() {
			if c.End < c.Start {
				c.End = c.Start
			}
			prevEnd = c.End
			continue
		}
		dur := float64(len(strings.Fields(c.Text))) / wps
		c.Start = prevEnd
		c.End = prevEnd + dur
		if next, ok := nextTimedStart(chunks, i+1); ok && next >= c.Start && c.End > next {
			c.End = next
		}
		prevEnd = c.End
	}
	return chunks
}

func nextTimedStart(chunks []types.Chunk, from int) (float64, bool) {
	for j := from; j < len(chunks); j++ {
		if !chunks[j].Untimed() {
			return chunks[j].Start, true
		}
	}
	return 0, false
}

// minDuration is the shortest span a segment may have.
const minDuration = 0.001

// enforceOrder pulls each start up to the previous end and keeps every
// span at least minDuration long. When a chunk ends before an earlier one
// did, its segment is clamped past that earlier end, so the final end can
// exceed the last chunk's end. Monotonic input keeps it equal.
func enforceOrder(segs []types.Segment) []types.Segment {
	prevEnd := 0.0
	for i := range segs {
		s := &segs[i]
		if i > 0 && s.Start < prevEnd {
			s.Start = prevEnd
		}
		if s.End <= s.Start {
			s.End = s.Start + minDuration
		}
		prevEnd = s.End
	}
	return segs
}
