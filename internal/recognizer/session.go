package recognizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ayoola1o/lara/internal/transcript"
	"github.com/Ayoola1o/lara/internal/turn"
)

// stream is the backend half of a recognition session.
type stream interface {
	sendAudio([]byte) error
	// closeSend tells the backend no more audio follows.
	closeSend() error
	// recv blocks for the next batch; io.EOF marks a clean end.
	recv() ([]transcript.Segment, error)
	close() error
}

// session pumps audio into a stream and stream results into a handler.
type session struct {
	backend string
	logger  *slog.Logger
	stream  stream
	handler turn.RecognitionHandler
	cancel  context.CancelFunc
	drain   time.Duration

	stopCh   chan struct{}
	recvDone chan struct{}
	stopOnce sync.Once
	stopped  atomic.Bool
}

func startSession(backend string, logger *slog.Logger, st stream, cancel context.CancelFunc, audio <-chan []byte, h turn.RecognitionHandler) *session {
	s := &session{
		backend:  backend,
		logger:   logger,
		stream:   st,
		handler:  h,
		cancel:   cancel,
		drain:    defaultDrainTimeout,
		stopCh:   make(chan struct{}),
		recvDone: make(chan struct{}),
	}
	go s.sendLoop(audio)
	go s.recvLoop()
	return s
}

// Stop ends the audio stream. The backend flushes its last results before
// the handler sees OnEnd; a backend that never ends is cut off after drain.
func (s *session) Stop() error {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		close(s.stopCh)
		time.AfterFunc(s.drain, s.cancel)
	})
	return nil
}

func (s *session) sendLoop(audio <-chan []byte) {
	defer func() {
		if err := s.stream.closeSend(); err != nil {
			s.debug("recognizer close send failed", err)
		}
	}()

	for {
		select {
		case <-s.recvDone:
			return
		case <-s.stopCh:
			s.flush(audio)
			return
		case chunk, ok := <-audio:
			if !ok {
				return
			}
			if len(chunk) == 0 {
				continue
			}
			if err := s.stream.sendAudio(chunk); err != nil {
				// The receive side reports the backend error.
				s.debug("recognizer send failed", err)
				return
			}
		}
	}
}

// flush forwards audio that was already buffered when Stop arrived.
func (s *session) flush(audio <-chan []byte) {
	for {
		select {
		case chunk, ok := <-audio:
			if !ok {
				return
			}
			if len(chunk) == 0 {
				continue
			}
			if err := s.stream.sendAudio(chunk); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *session) recvLoop() {
	defer close(s.recvDone)
	defer s.cancel()
	defer func() {
		if err := s.stream.close(); err != nil {
			s.debug("recognizer close failed", err)
		}
	}()

	for {
		segments, err := s.stream.recv()
		if err == nil {
			if len(segments) > 0 {
				s.handler.OnResults(segments)
			}
			continue
		}
		if errors.Is(err, io.EOF) || (s.stopped.Load() && errors.Is(err, context.Canceled)) {
			s.handler.OnEnd()
			return
		}
		s.handler.OnError(err.Error())
		return
	}
}

func (s *session) debug(msg string, err error) {
	if s.logger == nil || err == nil {
		return
	}
	s.logger.Debug(msg, "backend", s.backend, "error", err.Error())
}
