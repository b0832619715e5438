// Package pipeline adapts audio capture and recognizer backends to the turn
// collaborator contracts and assembles them from config.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Ayoola1o/lara/internal/audio"
	"github.com/Ayoola1o/lara/internal/config"
	"github.com/Ayoola1o/lara/internal/turn"
)

const tapBuffer = 64

// Tap observes every captured chunk, e.g. the spectrum analyzer.
type Tap interface {
	Feed(pcm []byte)
}

// Meter counts pipeline traffic. *metrics.Metrics satisfies it.
type Meter interface {
	AudioCaptured(n int)
	SegmentReceived(final bool)
}

type capture interface {
	Device() audio.Device
	Chunks() <-chan []byte
	BytesCaptured() int64
	RawPCM() []byte
	Stop() error
}

// MicrophoneOptions wires optional observers into a Microphone.
type MicrophoneOptions struct {
	Logger *slog.Logger
	Taps   []Tap
	Meter  Meter
	// Debug receives a WAV of every released capture when set.
	Debug *Artifacts
}

// Microphone implements turn.CaptureSource over the Pulse capture stack.
type Microphone struct {
	cfg    config.AudioConfig
	logger *slog.Logger
	taps   []Tap
	meter  Meter
	debug  *Artifacts

	selectDevice func(context.Context, string, string) (audio.Selection, error)
	startCapture func(context.Context, audio.Device, audio.CaptureOptions) (capture, error)
}

// NewMicrophone selects devices with cfg's input/fallback preferences.
func NewMicrophone(cfg config.AudioConfig, opts MicrophoneOptions) *Microphone {
	return &Microphone{
		cfg:          cfg,
		logger:       opts.Logger,
		taps:         opts.Taps,
		meter:        opts.Meter,
		debug:        opts.Debug,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device, o audio.CaptureOptions) (capture, error) {
			return audio.StartCapture(ctx, device, o)
		},
	}
}

// Acquire opens the selected source. Chunks flow until Release.
func (m *Microphone) Acquire(ctx context.Context) (turn.CaptureStream, error) {
	selection, err := m.selectDevice(ctx, m.cfg.Input, m.cfg.Fallback)
	if err != nil {
		return nil, captureError(err)
	}
	if selection.Warning != "" && m.logger != nil {
		m.logger.Warn(selection.Warning)
	}

	c, err := m.startCapture(ctx, selection.Device, audio.CaptureOptions{KeepRaw: m.debug != nil})
	if err != nil {
		return nil, captureError(err)
	}
	if m.logger != nil {
		m.logger.Debug("capture started", "device", audio.Describe(selection.Device), "fallback", selection.Fallback)
	}

	s := &micStream{
		capture: c,
		out:     make(chan []byte, tapBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.forward(m.taps, m.meter)
	return s, nil
}

// Release stops the capture and writes the debug dump, if enabled.
func (m *Microphone) Release(stream turn.CaptureStream) error {
	s, ok := stream.(*micStream)
	if !ok {
		return fmt.Errorf("release capture: unexpected stream %T", stream)
	}

	var err error
	s.once.Do(func() {
		close(s.stop)
		err = s.capture.Stop()
		<-s.done

		if m.logger != nil {
			m.logger.Debug("capture released",
				"device", audio.Describe(s.capture.Device()),
				"bytes_captured", s.capture.BytesCaptured(),
			)
		}
		if m.debug != nil {
			path, dumpErr := m.debug.WriteAudio(s.capture.RawPCM(), audio.CaptureSampleRate)
			switch {
			case dumpErr != nil && m.logger != nil:
				m.logger.Warn("unable to write debug audio dump", "error", dumpErr.Error())
			case path != "" && m.logger != nil:
				m.logger.Debug("debug audio dump written", "path", path)
			}
		}
	})
	return err
}

// captureError maps audio failures onto the turn taxonomy.
func captureError(err error) error {
	if errors.Is(err, audio.ErrAccessDenied) {
		return fmt.Errorf("%w: %w", turn.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %w", turn.ErrDevice, err)
}

type micStream struct {
	capture capture
	out     chan []byte
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (s *micStream) Chunks() <-chan []byte {
	return s.out
}

// forward copies capture chunks to taps and out. After stop, chunks are
// still drained from the capture but no longer delivered.
func (s *micStream) forward(taps []Tap, meter Meter) {
	defer close(s.done)
	defer close(s.out)

	for chunk := range s.capture.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		for _, tap := range taps {
			tap.Feed(chunk)
		}
		if meter != nil {
			meter.AudioCaptured(len(chunk))
		}
		select {
		case s.out <- chunk:
		case <-s.stop:
		}
	}
}
