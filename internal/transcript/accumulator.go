// Package transcript merges streaming recognition segments into a running transcript.
package transcript

import "strings"

// Segment is one recognition hypothesis delivered by a recognizer backend.
type Segment struct {
	Text    string
	IsFinal bool
	Index   int
}

// Accumulator holds the running transcript for one turn.
//
// Final text only grows between resets. Interim text is replaced by every
// batch. Accumulator is not safe for concurrent use; the turn controller owns
// it from a single goroutine.
type Accumulator struct {
	final   strings.Builder
	interim string
}

// Reset clears final and interim text.
func (a *Accumulator) Reset() {
	a.final.Reset()
	a.interim = ""
}

// ApplyBatch folds one recognizer callback into the transcript.
//
// Final segments are appended in arrival order. Interim text becomes the
// concatenation of the batch's non-final segments.
func (a *Accumulator) ApplyBatch(segments []Segment) {
	if len(segments) == 0 {
		return
	}

	var interim strings.Builder
	for _, seg := range segments {
		if seg.IsFinal {
			a.final.WriteString(seg.Text)
			continue
		}
		interim.WriteString(seg.Text)
	}
	a.interim = interim.String()
}

// CurrentText returns final plus interim text for live display.
func (a *Accumulator) CurrentText() string {
	return a.final.String() + a.interim
}

// FinalOnlyText returns the trimmed final text submitted for inference.
func (a *Accumulator) FinalOnlyText() string {
	return strings.TrimSpace(a.final.String())
}

// Interim returns the interim text of the most recent batch.
func (a *Accumulator) Interim() string {
	return a.interim
}
