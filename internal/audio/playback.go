package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

// ErrPlaybackCanceled is returned by Playback.Wait after Cancel.
var ErrPlaybackCanceled = errors.New("playback canceled")

// Player schedules mono s16 PCM on the default Pulse sink.
// Plays are serialized so cues and speech never overlap.
type Player struct {
	mediaName string
	mu        sync.Mutex
}

// NewPlayer returns a player whose streams carry mediaName.
func NewPlayer(mediaName string) *Player {
	if mediaName == "" {
		mediaName = appName + " playback"
	}
	return &Player{mediaName: mediaName}
}

// Playback is one scheduled PCM stream.
type Playback struct {
	done     chan struct{}
	canceled atomic.Bool
	err      error
}

// Play connects a playback stream and starts it on a background goroutine.
// Connection errors are returned directly; stream errors surface via Wait.
func (p *Player) Play(ctx context.Context, samples []int16, sampleRate int) (*Playback, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	pb := &Playback{done: make(chan struct{})}
	if len(samples) == 0 {
		close(pb.done)
		return pb, nil
	}

	client, err := newClient("audio-speakers")
	if err != nil {
		return nil, err
	}

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pb.canceled.Load() || cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName(p.mediaName),
	)
	if err != nil {
		client.Close()
		return nil, classifyConnectError("create pulse playback stream", err)
	}

	go func() {
		defer close(pb.done)
		defer client.Close()
		defer stream.Close()

		select {
		case <-ctx.Done():
			pb.canceled.Store(true)
			return
		default:
		}

		stop := context.AfterFunc(ctx, func() { pb.canceled.Store(true) })
		defer stop()

		p.mu.Lock()
		defer p.mu.Unlock()

		stream.Start()
		stream.Drain()
		if err := stream.Error(); err != nil && !pb.canceled.Load() {
			pb.err = fmt.Errorf("play stream: %w", err)
		}
	}()

	return pb, nil
}

// Cancel ends playback at the next buffer boundary.
func (pb *Playback) Cancel() error {
	pb.canceled.Store(true)
	return nil
}

// Done is closed when playback finished or was canceled.
func (pb *Playback) Done() <-chan struct{} {
	return pb.done
}

// Wait blocks until playback ends.
func (pb *Playback) Wait() error {
	<-pb.done
	if pb.canceled.Load() {
		return ErrPlaybackCanceled
	}
	return pb.err
}
