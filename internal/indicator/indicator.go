// Package indicator mirrors turn status into desktop notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Ayoola1o/lara/internal/config"
	"github.com/Ayoola1o/lara/internal/fsm"
	"github.com/Ayoola1o/lara/internal/hypr"
	"github.com/Ayoola1o/lara/internal/speech"
	"github.com/Ayoola1o/lara/internal/turn"
)

const (
	colorListening = "rgb(89b4fa)"
	colorWorking   = "rgb(cba6f7)"
	colorSpeaking  = "rgb(a6e3a1)"
	colorError     = "rgb(f38ba8)"

	iconInfo  = 1
	iconError = 3

	persistentMS          = 300000
	defaultErrorTimeoutMS = 1200
	dispatchTimeout       = 400 * time.Millisecond
)

// Indicator routes notifications via Hyprland or desktop DBus based on
// config backend. It implements turn.Observer.
type Indicator struct {
	cfg    config.IndicatorConfig
	player speech.Player
	logger *slog.Logger

	desktopBus *desktopNotifier
	soundMu    sync.Mutex
}

// New creates an indicator. player may be nil, which silences cues.
func New(cfg config.IndicatorConfig, player speech.Player, logger *slog.Logger) *Indicator {
	return &Indicator{
		cfg:        cfg,
		player:     player,
		logger:     logger,
		desktopBus: newDesktopNotifier(cfg.DesktopAppName),
	}
}

// Observe reacts to phase changes and new error messages.
func (i *Indicator) Observe(ctx context.Context, prev, next turn.Snapshot) {
	if msg := next.Turn.ErrorMessage; msg != "" && msg != prev.Turn.ErrorMessage {
		i.playCue(cueCancel)
		i.showError(ctx, msg)
		return
	}
	if prev.State == next.State {
		return
	}

	switch next.State {
	case fsm.StateRecording:
		i.playCue(cueStart)
		i.show(ctx, colorListening, next.Status)
	case fsm.StateFinalizing:
		i.playCue(cueStop)
		i.show(ctx, colorWorking, next.Status)
	case fsm.StateThinking:
		i.show(ctx, colorWorking, next.Status)
	case fsm.StateSpeaking:
		i.show(ctx, colorSpeaking, next.Status)
	case fsm.StateIdle:
		if next.Turn.ErrorMessage != "" {
			// the error notification expires on its own
			return
		}
		if prev.State == fsm.StateSpeaking {
			i.playCue(cueComplete)
		} else {
			i.playCue(cueCancel)
		}
		i.hide(ctx)
	}
}

func (i *Indicator) show(ctx context.Context, color string, text string) {
	if !i.cfg.Enable {
		return
	}
	i.run(ctx, func(ctx context.Context) error {
		return i.notify(ctx, iconInfo, persistentMS, color, text)
	})
}

func (i *Indicator) showError(ctx context.Context, text string) {
	if !i.cfg.Enable {
		return
	}
	timeout := i.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = defaultErrorTimeoutMS
	}
	i.run(ctx, func(ctx context.Context) error {
		return i.notify(ctx, iconError, timeout, colorError, text)
	})
}

func (i *Indicator) hide(ctx context.Context) {
	if !i.cfg.Enable {
		return
	}
	i.run(ctx, i.dismiss)
}

// notify dispatches indicator output through the configured backend.
func (i *Indicator) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if i.desktop() {
		urgency := urgencyNormal
		if icon == iconError {
			urgency = urgencyCritical
		}
		return i.desktopBus.show(ctx, text, urgency, timeoutMS)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

// dismiss removes indicator output from the configured backend.
func (i *Indicator) dismiss(ctx context.Context) error {
	if i.desktop() {
		return i.desktopBus.dismiss(ctx)
	}
	return hypr.DismissNotify(ctx)
}

func (i *Indicator) desktop() bool {
	return strings.EqualFold(strings.TrimSpace(i.cfg.Backend), "desktop")
}

// run executes an indicator operation with a bounded timeout.
func (i *Indicator) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		i.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (i *Indicator) playCue(kind cueKind) {
	if !i.cfg.SoundEnable || i.player == nil {
		return
	}
	go func() {
		i.soundMu.Lock()
		defer i.soundMu.Unlock()
		if err := emitCue(context.Background(), i.player, kind); err != nil {
			i.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (i *Indicator) log(message string, err error) {
	if i.logger == nil || err == nil {
		return
	}
	i.logger.Debug(message, "error", err.Error())
}
