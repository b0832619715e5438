package turn

import (
	"context"
	"time"

	"github.com/Ayoola1o/lara/internal/transcript"
)

// CaptureSource opens and releases microphone streams.
type CaptureSource interface {
	// Acquire returns a live stream or an error wrapping ErrPermissionDenied or ErrDevice.
	Acquire(ctx context.Context) (CaptureStream, error)
	Release(CaptureStream) error
}

// CaptureStream delivers PCM chunks until released.
type CaptureStream interface {
	Chunks() <-chan []byte
}

// Recognizer starts one streaming recognition session over audio.
type Recognizer interface {
	Start(ctx context.Context, audio <-chan []byte, h RecognitionHandler) (Recognition, error)
}

// RecognitionHandler receives recognition callbacks in delivery order.
type RecognitionHandler interface {
	OnResults([]transcript.Segment)
	// OnEnd reports that the engine finished, whether asked to or not.
	OnEnd()
	OnError(reason string)
}

// Recognition is an active recognition session.
type Recognition interface {
	// Stop stops accepting audio. Remaining results are flushed before OnEnd.
	Stop() error
}

// Inference sends one user utterance and returns the assistant reply.
type Inference interface {
	Send(ctx context.Context, text string) (string, error)
}

// Synthesizer starts speaking text. Speak returns once playback was scheduled.
type Synthesizer interface {
	Speak(ctx context.Context, text string, h SpeechHandler) (Utterance, error)
}

// SpeechHandler receives playback completion callbacks.
type SpeechHandler interface {
	OnDone()
	OnError(reason string)
}

// Utterance is scheduled or in-progress playback.
type Utterance interface {
	Cancel() error
}

// Observer is notified after every applied event that changed the snapshot.
// Observe runs on the controller loop and must return quickly.
type Observer interface {
	Observe(ctx context.Context, prev, next Snapshot)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, prev, next Snapshot)

func (f ObserverFunc) Observe(ctx context.Context, prev, next Snapshot) {
	f(ctx, prev, next)
}

// Recorder receives turn metrics.
type Recorder interface {
	TurnFinished(outcome string)
	PhaseObserved(phase string, d time.Duration)
	InferenceObserved(d time.Duration, err error)
	StaleResult(kind string)
}

type noopRecorder struct{}

func (noopRecorder) TurnFinished(string)                    {}
func (noopRecorder) PhaseObserved(string, time.Duration)    {}
func (noopRecorder) InferenceObserved(time.Duration, error) {}
func (noopRecorder) StaleResult(string)                     {}

// unavailableCapture keeps the controller usable when no capture source is wired.
type unavailableCapture struct{}

func (unavailableCapture) Acquire(context.Context) (CaptureStream, error) {
	return nil, ErrDevice
}

func (unavailableCapture) Release(CaptureStream) error { return nil }

type unavailableRecognizer struct{}

func (unavailableRecognizer) Start(context.Context, <-chan []byte, RecognitionHandler) (Recognition, error) {
	return nil, ErrRecognitionUnsupported
}

type unavailableInference struct{}

func (unavailableInference) Send(context.Context, string) (string, error) {
	return "", ErrBackend
}

type unavailableSynthesizer struct{}

func (unavailableSynthesizer) Speak(context.Context, string, SpeechHandler) (Utterance, error) {
	return nil, ErrSynthesisUnsupported
}
