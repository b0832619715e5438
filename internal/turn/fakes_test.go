package turn

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ayoola1o/lara/internal/fsm"
	"github.com/Ayoola1o/lara/internal/metrics"
	"github.com/Ayoola1o/lara/internal/transcript"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	ch chan []byte
}

func (s *fakeStream) Chunks() <-chan []byte { return s.ch }

type fakeCapture struct {
	acquireErr error
	gate       chan struct{}

	acquired atomic.Int32
	released atomic.Int32
}

func (f *fakeCapture) Acquire(ctx context.Context) (CaptureStream, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.acquired.Add(1)
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	return &fakeStream{ch: make(chan []byte)}, nil
}

func (f *fakeCapture) Release(CaptureStream) error {
	f.released.Add(1)
	return nil
}

type fakeRecognizer struct {
	startErr   error
	silentStop bool

	mu      sync.Mutex
	handler RecognitionHandler

	started atomic.Int32
	stops   atomic.Int32
}

func (f *fakeRecognizer) Start(_ context.Context, _ <-chan []byte, h RecognitionHandler) (Recognition, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.started.Add(1)
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
	return &fakeRecognition{r: f, h: h}, nil
}

func (f *fakeRecognizer) current() RecognitionHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

type fakeRecognition struct {
	r *fakeRecognizer
	h RecognitionHandler
}

func (f *fakeRecognition) Stop() error {
	f.r.stops.Add(1)
	if !f.r.silentStop {
		go f.h.OnEnd()
	}
	return nil
}

type fakeInference struct {
	reply string
	err   error
	gate  chan struct{}

	calls atomic.Int32
	mu    sync.Mutex
	texts []string
}

func (f *fakeInference) Send(ctx context.Context, text string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeInference) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeSynth struct {
	speakErr error
	autoDone bool

	mu      sync.Mutex
	handler SpeechHandler
	texts   []string

	cancels atomic.Int32
}

func (f *fakeSynth) Speak(_ context.Context, text string, h SpeechHandler) (Utterance, error) {
	if f.speakErr != nil {
		return nil, f.speakErr
	}
	f.mu.Lock()
	f.handler = h
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.autoDone {
		go h.OnDone()
	}
	return &fakeUtterance{s: f}, nil
}

func (f *fakeSynth) current() SpeechHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

func (f *fakeSynth) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type fakeUtterance struct {
	s *fakeSynth
}

func (u *fakeUtterance) Cancel() error {
	u.s.cancels.Add(1)
	return nil
}

// stateRecorder collects the distinct state sequence seen by an observer.
type stateRecorder struct {
	mu     sync.Mutex
	states []fsm.State
	calls  int
}

func (r *stateRecorder) Observe(_ context.Context, _, next Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if n := len(r.states); n > 0 && r.states[n-1] == next.State {
		return
	}
	r.states = append(r.states, next.State)
}

func (r *stateRecorder) sequence() []fsm.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fsm.State(nil), r.states...)
}

func (r *stateRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type harness struct {
	ctrl       *Controller
	capture    *fakeCapture
	recognizer *fakeRecognizer
	inference  *fakeInference
	synth      *fakeSynth
	recorder   *stateRecorder
	metrics    *metrics.Metrics
}

func newHarness(t *testing.T, h harness) *harness {
	t.Helper()

	if h.capture == nil {
		h.capture = &fakeCapture{}
	}
	if h.recognizer == nil {
		h.recognizer = &fakeRecognizer{}
	}
	if h.inference == nil {
		h.inference = &fakeInference{reply: "Hi! How can I help?"}
	}
	if h.synth == nil {
		h.synth = &fakeSynth{autoDone: true}
	}
	h.recorder = &stateRecorder{}
	h.metrics = metrics.New()

	h.ctrl = NewController(Options{
		Capture:     h.capture,
		Recognizer:  h.recognizer,
		Inference:   h.inference,
		Synthesizer: h.synth,
		Observers:   []Observer{h.recorder},
		Metrics:     h.metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.ctrl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &h
}

// listen starts a turn and waits until capture and recognition are open.
func (h *harness) listen(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.Start(context.Background()))
	waitFor(t, h.ctrl, "listening", func(s Snapshot) bool { return s.Turn.Listening })
}

func (h *harness) say(text string) {
	h.recognizer.current().OnResults([]transcript.Segment{transcript.NewSegment(text, true, 0)})
}

func waitFor(t *testing.T, ctrl *Controller, what string, cond func(Snapshot) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond(ctrl.Snapshot()) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s (snapshot=%+v)", what, ctrl.Snapshot())
}

func waitForState(t *testing.T, ctrl *Controller, desired fsm.State) {
	t.Helper()
	waitFor(t, ctrl, "state "+string(desired), func(s Snapshot) bool { return s.State == desired })
}
