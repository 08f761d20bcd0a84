package segments

import (
	"fmt"
	"strings"

	"github.com/forPelevin/capsync/internal/types"
)

// Issue describes one problem found in an authored caption list.
type Issue struct {
	Index   int
	Message string
	// Fatal issues make the list unrenderable; overlaps are not fatal.
	Fatal bool
}

func (i Issue) String() string { return fmt.Sprintf("caption %d: %s", i.Index+1, i.Message) }

// Validate reports problems in user-edited segments without changing them.
func Validate(segs []types.Segment) []Issue {
	var issues []Issue
	for i, s := range segs {
		if strings.TrimSpace(s.Text) == "" {
			issues = append(issues, Issue{Index: i, Message: "empty text", Fatal: true})
		}
		if s.Start < 0 {
			issues = append(issues, Issue{Index: i, Message: "negative start", Fatal: true})
		}
		if s.End <= s.Start {
			issues = append(issues, Issue{Index: i, Message: fmt.Sprintf("end %.3f is not after start %.3f", s.End, s.Start), Fatal: true})
		}
		if i > 0 && s.Start < segs[i-1].End {
			issues = append(issues, Issue{Index: i, Message: "overlaps previous caption"})
		}
	}
	return issues
}

// FirstFatal returns the first issue that blocks rendering.
func FirstFatal(issues []Issue) (Issue, bool) {
	for _, is := range issues {
		if is.Fatal {
			return is, true
		}
	}
	return Issue{}, false
}
