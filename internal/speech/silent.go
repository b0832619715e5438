package speech

import (
	"context"

	"github.com/Ayoola1o/lara/internal/turn"
)

// Silent completes every utterance immediately. It is used when spoken
// replies are switched off so turns still finish through Speaking.
type Silent struct{}

func (Silent) Speak(_ context.Context, _ string, h turn.SpeechHandler) (turn.Utterance, error) {
	go h.OnDone()
	return silentUtterance{}, nil
}

type silentUtterance struct{}

func (silentUtterance) Cancel() error { return nil }
