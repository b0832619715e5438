package transcript

import "strings"

// CleanText collapses whitespace in a raw recognizer hypothesis.
func CleanText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// NewSegment builds a segment from raw backend text.
//
// Final text carries one trailing space so consecutive finals concatenate
// into separate words.
func NewSegment(raw string, final bool, index int) Segment {
	text := CleanText(raw)
	if final && text != "" {
		text += " "
	}
	return Segment{Text: text, IsFinal: final, Index: index}
}
