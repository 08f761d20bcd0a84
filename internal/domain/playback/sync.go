// Package playback selects the caption visible at a playback position and
// computes karaoke progress for the live preview.
package playback

import (
	"math"
	"strings"

	"github.com/forPelevin/capsync/internal/domain/styles"
	"github.com/forPelevin/capsync/internal/types"
)

type Word struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
}

// State is what the preview draws at one instant.
type State struct {
	// Index is the position of the active segment, or -1 when none is.
	Index   int            `json:"index"`
	Segment *types.Segment `json:"segment,omitempty"`
	Style   styles.ID      `json:"style"`

	// HighlightFraction is set only for progressive styles.
	HighlightFraction *float64 `json:"highlightFraction,omitempty"`
	Words             []Word   `json:"words,omitempty"`
}

func (s State) Active() bool { return s.Segment != nil }

// HighlightedCount returns how many leading words are highlighted.
func (s State) HighlightedCount() int {
	n := 0
	for _, w := range s.Words {
		if w.Highlighted {
			n++
		}
	}
	return n
}

// Sync returns the preview state at time t. The first segment in list
// order with start <= t <= end wins, so authored overlaps resolve to the
// earlier entry.
func Sync(segs []types.Segment, t float64, styleID string) State {
	p := styles.Resolve(styleID)
	st := State{Index: -1, Style: p.Style}
	if math.IsNaN(t) {
		return st
	}
	for i := range segs {
		if segs[i].Start <= t && t <= segs[i].End {
			seg := segs[i]
			st.Index = i
			st.Segment = &seg
			break
		}
	}
	if st.Segment == nil || !p.Progressive {
		return st
	}

	progress := Progress(*st.Segment, t)
	st.HighlightFraction = &progress

	words := strings.Fields(st.Segment.Text)
	lit := HighlightCount(progress, len(words))
	st.Words = make([]Word, len(words))
	for i, w := range words {
		st.Words[i] = Word{Text: w, Highlighted: i < lit}
	}
	return st
}

// Progress is the clamped fraction of seg elapsed at t. A zero-length
// segment is fully elapsed once reached.
func Progress(seg types.Segment, t float64) float64 {
	d := seg.End - seg.Start
	if d <= 0 {
		if t >= seg.Start {
			return 1
		}
		return 0
	}
	return clamp01((t - seg.Start) / d)
}

// HighlightCount is floor(progress*words), clamped to [0, words]. The
// karaoke burn-in switches word i at the (i+1)th equal slice, which
// yields the same count.
func HighlightCount(progress float64, words int) int {
	if words <= 0 {
		return 0
	}
	n := int(math.Floor(clamp01(progress) * float64(words)))
	if n > words {
		n = words
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
