// Package speech turns assistant replies into audio and plays them.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Ayoola1o/lara/internal/audio"
	"github.com/Ayoola1o/lara/internal/config"
	"github.com/Ayoola1o/lara/internal/turn"
)

const defaultFetchTimeout = 30 * time.Second

// Config holds one resolved text-to-speech setup.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Voice      string
	Speed      float64
	SampleRate int
}

// FromConfig resolves defaults and reads the API key from the environment.
func FromConfig(cfg config.SynthesisConfig) Config {
	out := Config{
		BaseURL:    cfg.ResolvedBaseURL(),
		Model:      cfg.Model,
		Voice:      cfg.Voice,
		Speed:      cfg.Speed,
		SampleRate: cfg.SampleRate,
	}
	if env := cfg.ResolvedAPIKeyEnv(); env != "" {
		out.APIKey = strings.TrimSpace(os.Getenv(env))
	}
	return out
}

// Player schedules PCM samples for playback.
type Player interface {
	Play(ctx context.Context, samples []int16, sampleRate int) (Playback, error)
}

// Playback is scheduled audio.
type Playback interface {
	Wait() error
}

// PulsePlayer adapts an audio.Player.
func PulsePlayer(p *audio.Player) Player {
	return pulsePlayer{p: p}
}

type pulsePlayer struct {
	p *audio.Player
}

func (pp pulsePlayer) Play(ctx context.Context, samples []int16, sampleRate int) (Playback, error) {
	pb, err := pp.p.Play(ctx, samples, sampleRate)
	if err != nil {
		return nil, err
	}
	return pb, nil
}

// Synthesizer fetches raw PCM from an OpenAI-compatible speech endpoint.
type Synthesizer struct {
	cfg    Config
	client *openai.Client
	player Player
	logger *slog.Logger
}

// New builds a synthesizer that plays through player.
func New(cfg Config, player Player, logger *slog.Logger) *Synthesizer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = strings.TrimRight(base, "/")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 24000
	}
	return &Synthesizer{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
		player: player,
		logger: logger,
	}
}

// Speak starts fetching and playing text. It returns before any audio is
// fetched; completion and failure reach h unless the utterance is canceled.
func (s *Synthesizer) Speak(ctx context.Context, text string, h turn.SpeechHandler) (turn.Utterance, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: nothing to speak", turn.ErrSynthesis)
	}

	uctx, cancel := context.WithCancel(ctx)
	u := &utterance{cancel: cancel}
	go s.run(uctx, u, text, h)
	return u, nil
}

func (s *Synthesizer) run(ctx context.Context, u *utterance, text string, h turn.SpeechHandler) {
	defer u.cancel()

	started := time.Now()
	pcm, err := s.fetch(ctx, text)
	if u.canceled() {
		return
	}
	if err != nil {
		s.debug("speech fetch failed", "error", err.Error())
		h.OnError(err.Error())
		return
	}
	s.debug("speech fetched", "bytes", len(pcm), "elapsed_ms", time.Since(started).Milliseconds())

	pb, err := s.player.Play(ctx, audio.Samples(pcm), s.cfg.SampleRate)
	if u.canceled() {
		return
	}
	if err != nil {
		h.OnError(fmt.Sprintf("playback: %v", err))
		return
	}

	err = pb.Wait()
	if u.canceled() || errors.Is(err, audio.ErrPlaybackCanceled) {
		return
	}
	if err != nil {
		h.OnError(fmt.Sprintf("playback: %v", err))
		return
	}
	h.OnDone()
}

func (s *Synthesizer) fetch(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
	defer cancel()

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.cfg.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          s.cfg.Speed,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("speech endpoint: %s (status %d)", apiErr.Message, apiErr.HTTPStatusCode)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, fmt.Errorf("speech endpoint: status %d", reqErr.HTTPStatusCode)
		}
		return nil, fmt.Errorf("speech endpoint: %w", err)
	}
	defer resp.Close()

	pcm, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	if len(pcm) < 2 {
		return nil, errors.New("speech endpoint returned no audio")
	}
	return pcm, nil
}

func (s *Synthesizer) debug(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, args...)
}

type utterance struct {
	cancel context.CancelFunc

	mu   sync.Mutex
	done bool
}

// Cancel stops fetching or playback. No handler callback follows.
func (u *utterance) Cancel() error {
	u.mu.Lock()
	u.done = true
	u.mu.Unlock()
	u.cancel()
	return nil
}

func (u *utterance) canceled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.done
}
