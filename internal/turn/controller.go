// Package turn coordinates one conversational turn across capture,
// recognition, inference and synthesis.
package turn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ayoola1o/lara/internal/fsm"
	"github.com/Ayoola1o/lara/internal/transcript"
)

const eventQueueSize = 256

// Turn is the user-visible data of the live turn.
type Turn struct {
	ID            uint64
	UserText      string
	AssistantText string
	ErrorMessage  string
	Notice        string
	Listening     bool
}

// Snapshot is the observable controller view after one applied event.
type Snapshot struct {
	State    fsm.State
	Turn     Turn
	LiveText string
	Status   string
}

// Options wires collaborators into a Controller. Nil collaborators fail
// their phase with the matching unsupported error.
type Options struct {
	Logger      *slog.Logger
	Capture     CaptureSource
	Recognizer  Recognizer
	Inference   Inference
	Synthesizer Synthesizer
	Observers   []Observer
	Metrics     Recorder
}

type eventKind int

const (
	eventStart eventKind = iota + 1
	eventStop
	eventToggle
	eventReset
	eventOpened
	eventOpenFailed
	eventResults
	eventEnded
	eventRecognitionError
	eventResponse
	eventSpoken
	eventSpeechError
)

type event struct {
	kind        eventKind
	turnID      uint64
	segments    []transcript.Segment
	text        string
	err         error
	stream      CaptureStream
	recognition Recognition
	elapsed     time.Duration
	reply       chan error
}

// Controller owns turn state. All state changes happen on the goroutine
// running Run; actions and collaborator callbacks reach it as events.
type Controller struct {
	logger      *slog.Logger
	capture     CaptureSource
	recognizer  Recognizer
	inference   Inference
	synthesizer Synthesizer
	observers   []Observer
	metrics     Recorder

	events  chan event
	done    chan struct{}
	running atomic.Bool

	mu       sync.RWMutex
	snapshot Snapshot

	// Fields below are only touched by the Run goroutine.
	ctx          context.Context
	seq          uint64
	state        fsm.State
	turn         Turn
	acc          transcript.Accumulator
	stream       CaptureStream
	recognition  Recognition
	utterance    Utterance
	phaseStarted time.Time
}

// NewController constructs a controller with safe fallbacks for missing collaborators.
func NewController(opts Options) *Controller {
	c := &Controller{
		logger:      opts.Logger,
		capture:     opts.Capture,
		recognizer:  opts.Recognizer,
		inference:   opts.Inference,
		synthesizer: opts.Synthesizer,
		observers:   opts.Observers,
		metrics:     opts.Metrics,
		events:      make(chan event, eventQueueSize),
		done:        make(chan struct{}),
		ctx:         context.Background(),
		state:       fsm.StateIdle,
	}
	if c.capture == nil {
		c.capture = unavailableCapture{}
	}
	if c.recognizer == nil {
		c.recognizer = unavailableRecognizer{}
	}
	if c.inference == nil {
		c.inference = unavailableInference{}
	}
	if c.synthesizer == nil {
		c.synthesizer = unavailableSynthesizer{}
	}
	if c.metrics == nil {
		c.metrics = noopRecorder{}
	}
	c.snapshot = c.view()
	return c
}

// Snapshot returns the most recently published view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	return c.Snapshot().State
}

// Start begins recording. It is a no-op while already recording and fails
// with ErrBusy while a previous turn is still finishing.
func (c *Controller) Start(ctx context.Context) error {
	return c.dispatch(ctx, eventStart)
}

// Stop ends recording. It is a no-op unless recording.
func (c *Controller) Stop(ctx context.Context) error {
	return c.dispatch(ctx, eventStop)
}

// Toggle stops while recording and starts otherwise.
func (c *Controller) Toggle(ctx context.Context) error {
	return c.dispatch(ctx, eventToggle)
}

// Reset abandons the current turn from any state.
func (c *Controller) Reset(ctx context.Context) error {
	return c.dispatch(ctx, eventReset)
}

// Run applies events until ctx is cancelled. It may only be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("turn controller already running")
	}
	defer close(c.done)

	c.ctx = ctx
	c.phaseStarted = time.Now()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case ev := <-c.events:
			c.apply(ev)
		}
	}
}

// dispatch enqueues a user action and waits until the loop applied it.
func (c *Controller) dispatch(ctx context.Context, kind eventKind) error {
	reply := make(chan error, 1)
	select {
	case c.events <- event{kind: kind, reply: reply}:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post delivers a collaborator event unless the loop has exited.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) apply(ev event) {
	var err error

	switch ev.kind {
	case eventStart:
		err = c.start()
	case eventStop:
		err = c.stop()
	case eventToggle:
		if c.state == fsm.StateRecording {
			err = c.stop()
		} else {
			err = c.start()
		}
	case eventReset:
		err = c.reset()
	case eventOpened:
		c.onOpened(ev)
	case eventOpenFailed:
		if !c.current(ev, fsm.StateRecording) {
			c.metrics.StaleResult("capture")
			break
		}
		c.fail(ev.err)
	case eventResults:
		if !c.current(ev, fsm.StateRecording) {
			c.metrics.StaleResult("recognition")
			break
		}
		c.acc.ApplyBatch(ev.segments)
	case eventEnded:
		c.onEnded(ev)
	case eventRecognitionError:
		if !c.current(ev, fsm.StateRecording) {
			c.metrics.StaleResult("recognition")
			break
		}
		c.fail(fmt.Errorf("%w: %s", ErrRecognition, ev.text))
	case eventResponse:
		c.onResponse(ev)
	case eventSpoken:
		if !c.current(ev, fsm.StateSpeaking) {
			c.metrics.StaleResult("synthesis")
			break
		}
		c.utterance = nil
		c.metrics.TurnFinished("completed")
		_ = c.transition(fsm.EventSpoken)
	case eventSpeechError:
		if !c.current(ev, fsm.StateSpeaking) {
			c.metrics.StaleResult("synthesis")
			break
		}
		c.utterance = nil
		c.fail(fmt.Errorf("%w: %s", ErrSynthesis, ev.text))
	}

	c.publish()
	if ev.reply != nil {
		ev.reply <- err
	}
}

// current reports whether ev belongs to the live turn and the loop is in one of states.
func (c *Controller) current(ev event, states ...fsm.State) bool {
	if ev.turnID != c.turn.ID {
		return false
	}
	for _, s := range states {
		if c.state == s {
			return true
		}
	}
	return false
}

func (c *Controller) start() error {
	if c.state == fsm.StateRecording {
		return nil
	}
	if fsm.Busy(c.state) {
		return ErrBusy
	}

	c.seq++
	c.turn.ID = c.seq
	c.turn.ErrorMessage = ""
	c.turn.Notice = ""
	c.turn.Listening = false
	c.acc.Reset()

	if err := c.transition(fsm.EventStart); err != nil {
		return err
	}
	c.open(c.turn.ID)
	return nil
}

// open acquires capture and starts recognition off the loop.
func (c *Controller) open(turnID uint64) {
	ctx := c.ctx
	go func() {
		stream, err := c.capture.Acquire(ctx)
		if err != nil {
			c.post(event{kind: eventOpenFailed, turnID: turnID, err: err})
			return
		}

		recognition, err := c.recognizer.Start(ctx, stream.Chunks(), recognitionHandler{c: c, turnID: turnID})
		if err != nil {
			_ = c.capture.Release(stream)
			c.post(event{kind: eventOpenFailed, turnID: turnID, err: err})
			return
		}

		c.post(event{kind: eventOpened, turnID: turnID, stream: stream, recognition: recognition})
	}()
}

func (c *Controller) onOpened(ev event) {
	if !c.current(ev, fsm.StateRecording) {
		c.metrics.StaleResult("capture")
		if ev.recognition != nil {
			if err := ev.recognition.Stop(); err != nil {
				c.log(slog.LevelDebug, "stop late recognition failed", "error", err.Error())
			}
		}
		if ev.stream != nil {
			if err := c.capture.Release(ev.stream); err != nil {
				c.log(slog.LevelDebug, "release late capture failed", "error", err.Error())
			}
		}
		return
	}

	c.stream = ev.stream
	c.recognition = ev.recognition
	c.turn.Listening = true
}

func (c *Controller) stop() error {
	if c.state != fsm.StateRecording {
		return nil
	}
	if err := c.transition(fsm.EventStop); err != nil {
		return err
	}
	c.finalize()
	return nil
}

func (c *Controller) onEnded(ev event) {
	if !c.current(ev, fsm.StateRecording) {
		c.metrics.StaleResult("recognition")
		return
	}
	if err := c.transition(fsm.EventStop); err != nil {
		c.fail(err)
		return
	}
	c.finalize()
}

// finalize freezes the transcript on entering Finalizing. Recognition
// results and errors arriving after this point belong to a finished phase
// and are discarded.
func (c *Controller) finalize() {
	text := c.acc.FinalOnlyText()

	c.turn.Listening = false
	c.stopRecognition()
	c.releaseStream()

	if text == "" {
		c.turn.Notice = defaultMessages.noSpeech
		c.metrics.TurnFinished("empty")
		c.log(slog.LevelInfo, "turn ended without speech", "turn_id", c.turn.ID, "error", ErrEmptyTranscript.Error())
		_ = c.transition(fsm.EventEmpty)
		return
	}

	c.turn.UserText = text
	c.turn.AssistantText = ""
	if err := c.transition(fsm.EventFinalized); err != nil {
		c.fail(err)
		return
	}
	c.think(c.turn.ID, text)
}

// think runs inference off the loop. Reset does not cancel it.
func (c *Controller) think(turnID uint64, text string) {
	ctx := c.ctx
	go func() {
		started := time.Now()
		reply, err := c.inference.Send(ctx, text)
		c.post(event{kind: eventResponse, turnID: turnID, text: reply, err: err, elapsed: time.Since(started)})
	}()
}

func (c *Controller) onResponse(ev event) {
	c.metrics.InferenceObserved(ev.elapsed, ev.err)
	if !c.current(ev, fsm.StateThinking) {
		c.metrics.StaleResult("inference")
		c.log(slog.LevelDebug, "discarding stale inference result", "turn_id", ev.turnID, "current_turn_id", c.turn.ID)
		return
	}
	if ev.err != nil {
		c.fail(ev.err)
		return
	}

	reply := strings.TrimSpace(ev.text)
	if reply == "" {
		c.fail(fmt.Errorf("%w: empty reply", ErrBackend))
		return
	}

	c.turn.AssistantText = reply
	if err := c.transition(fsm.EventResponded); err != nil {
		c.fail(err)
		return
	}

	utterance, err := c.synthesizer.Speak(c.ctx, reply, speechHandler{c: c, turnID: c.turn.ID})
	if err != nil {
		c.fail(err)
		return
	}
	c.utterance = utterance
}

func (c *Controller) reset() error {
	active := c.state != fsm.StateIdle

	c.stopRecognition()
	c.releaseStream()
	c.cancelUtterance()
	c.acc.Reset()

	c.seq++
	c.turn = Turn{ID: c.seq}
	if active {
		c.metrics.TurnFinished("reset")
	}
	return c.transition(fsm.EventReset)
}

// fail surfaces err, releases every resource of the turn and returns to idle.
func (c *Controller) fail(err error) {
	c.stopRecognition()
	c.releaseStream()
	c.cancelUtterance()

	c.turn.Listening = false
	c.turn.ErrorMessage = UserMessage(err)
	c.metrics.TurnFinished("error")
	c.log(slog.LevelWarn, "turn failed", "turn_id", c.turn.ID, "state", string(c.state), "error", err.Error())

	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventRecover)
}

func (c *Controller) shutdown() {
	c.stopRecognition()
	c.releaseStream()
	c.cancelUtterance()
}

func (c *Controller) stopRecognition() {
	if c.recognition == nil {
		return
	}
	if err := c.recognition.Stop(); err != nil {
		c.log(slog.LevelDebug, "stop recognition failed", "error", err.Error())
	}
	c.recognition = nil
}

func (c *Controller) releaseStream() {
	if c.stream == nil {
		return
	}
	if err := c.capture.Release(c.stream); err != nil {
		c.log(slog.LevelDebug, "release capture failed", "error", err.Error())
	}
	c.stream = nil
}

func (c *Controller) cancelUtterance() {
	if c.utterance == nil {
		return
	}
	if err := c.utterance.Cancel(); err != nil {
		c.log(slog.LevelDebug, "cancel speech failed", "error", err.Error())
	}
	c.utterance = nil
}

// transition applies one FSM event and publishes the resulting snapshot.
func (c *Controller) transition(ev fsm.Event) error {
	next, err := fsm.Transition(c.state, ev)
	if err != nil {
		c.log(slog.LevelError, "rejected transition", "turn_id", c.turn.ID, "error", err.Error())
		return err
	}

	now := time.Now()
	if next != c.state && c.state != fsm.StateIdle {
		c.metrics.PhaseObserved(string(c.state), now.Sub(c.phaseStarted))
	}
	if next != c.state {
		c.phaseStarted = now
	}

	c.log(slog.LevelDebug, "turn transition", "turn_id", c.turn.ID, "from", string(c.state), "to", string(next), "event", string(ev))
	c.state = next
	c.publish()
	return nil
}

func (c *Controller) view() Snapshot {
	return Snapshot{
		State:    c.state,
		Turn:     c.turn,
		LiveText: c.acc.CurrentText(),
		Status:   Status(c.state, c.turn),
	}
}

// publish stores the current view and notifies observers when it changed.
func (c *Controller) publish() {
	next := c.view()

	c.mu.Lock()
	prev := c.snapshot
	c.snapshot = next
	c.mu.Unlock()

	if prev == next {
		return
	}
	for _, obs := range c.observers {
		obs.Observe(c.ctx, prev, next)
	}
}

func (c *Controller) log(level slog.Level, msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Log(context.Background(), level, msg, args...)
}

type recognitionHandler struct {
	c      *Controller
	turnID uint64
}

func (h recognitionHandler) OnResults(segments []transcript.Segment) {
	batch := append([]transcript.Segment(nil), segments...)
	h.c.post(event{kind: eventResults, turnID: h.turnID, segments: batch})
}

func (h recognitionHandler) OnEnd() {
	h.c.post(event{kind: eventEnded, turnID: h.turnID})
}

func (h recognitionHandler) OnError(reason string) {
	h.c.post(event{kind: eventRecognitionError, turnID: h.turnID, text: reason})
}

type speechHandler struct {
	c      *Controller
	turnID uint64
}

func (h speechHandler) OnDone() {
	h.c.post(event{kind: eventSpoken, turnID: h.turnID})
}

func (h speechHandler) OnError(reason string) {
	h.c.post(event{kind: eventSpeechError, turnID: h.turnID, text: reason})
}
