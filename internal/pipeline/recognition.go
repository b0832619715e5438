package pipeline

import (
	"context"
	"fmt"

	"github.com/Ayoola1o/lara/internal/transcript"
	"github.com/Ayoola1o/lara/internal/turn"
)

// countingRecognizer maps start failures onto turn.ErrRecognition and
// counts delivered segments.
type countingRecognizer struct {
	next  turn.Recognizer
	meter Meter
}

// WrapRecognizer returns next with error mapping and segment counting.
func WrapRecognizer(next turn.Recognizer, meter Meter) turn.Recognizer {
	if next == nil {
		return nil
	}
	return countingRecognizer{next: next, meter: meter}
}

func (r countingRecognizer) Start(ctx context.Context, audio <-chan []byte, h turn.RecognitionHandler) (turn.Recognition, error) {
	if r.meter != nil {
		h = countingHandler{next: h, meter: r.meter}
	}
	recognition, err := r.next.Start(ctx, audio, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", turn.ErrRecognition, err)
	}
	return recognition, nil
}

type countingHandler struct {
	next  turn.RecognitionHandler
	meter Meter
}

func (h countingHandler) OnResults(segments []transcript.Segment) {
	for _, seg := range segments {
		h.meter.SegmentReceived(seg.IsFinal)
	}
	h.next.OnResults(segments)
}

func (h countingHandler) OnEnd() {
	h.next.OnEnd()
}

func (h countingHandler) OnError(reason string) {
	h.next.OnError(reason)
}
