package recognizer

import (
	"strings"

	"github.com/Ayoola1o/lara/internal/transcript"
)

// batcher numbers segments across one recognition session.
type batcher struct {
	next int
}

// build converts one backend response into a segment batch. Finals keep
// their order; interim hypotheses are joined into one trailing segment.
func (b *batcher) build(finals []string, interims []string) []transcript.Segment {
	out := make([]transcript.Segment, 0, len(finals)+1)
	for _, text := range finals {
		seg := transcript.NewSegment(text, true, b.next)
		if seg.Text == "" {
			continue
		}
		out = append(out, seg)
		b.next++
	}

	parts := make([]string, 0, len(interims))
	for _, text := range interims {
		if clean := transcript.CleanText(text); clean != "" {
			parts = append(parts, clean)
		}
	}
	if len(parts) > 0 {
		out = append(out, transcript.NewSegment(strings.Join(parts, " "), false, b.next))
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
