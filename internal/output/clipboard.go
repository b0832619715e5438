// Package output copies assistant replies to the clipboard.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/Ayoola1o/lara/internal/config"
	"github.com/Ayoola1o/lara/internal/fsm"
	"github.com/Ayoola1o/lara/internal/turn"
)

const clipboardTimeout = 2 * time.Second

// ReplyCopier writes each new assistant reply to the clipboard command.
// It implements turn.Observer.
type ReplyCopier struct {
	argv   []string
	logger *slog.Logger
}

// NewReplyCopier builds a copier from the clipboard command config.
func NewReplyCopier(cfg config.CommandConfig, logger *slog.Logger) *ReplyCopier {
	return &ReplyCopier{argv: cfg.Argv, logger: logger}
}

// Observe copies the reply when a turn starts speaking.
func (r *ReplyCopier) Observe(ctx context.Context, prev, next turn.Snapshot) {
	if next.State != fsm.StateSpeaking || prev.State == fsm.StateSpeaking {
		return
	}
	if err := r.Copy(ctx, next.Turn.AssistantText); err != nil && r.logger != nil {
		r.logger.Error("copy reply failed", "error", err.Error())
	}
}

// Copy writes text to the clipboard. Empty text is ignored.
func (r *ReplyCopier) Copy(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := runCommandWithInput(ctx, r.argv, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
