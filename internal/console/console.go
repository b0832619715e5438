// Package console is the terminal front-end: a bubbletea program that renders
// turn snapshots and maps keys to turn actions.
package console

import (
	"context"
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Ayoola1o/lara/internal/turn"
)

// Levels supplies spectrum band levels in [0, 1].
type Levels interface {
	Levels() []float64
}

// Actions are the turn actions reachable from the keyboard.
type Actions interface {
	Toggle(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Console bridges controller observations into a running program.
// It implements turn.Observer.
type Console struct {
	out    io.Writer
	levels Levels
	styles styles

	mu      sync.Mutex
	program *tea.Program
	last    turn.Snapshot
}

// New returns a console drawing to out. levels may be nil.
func New(out io.Writer, levels Levels) *Console {
	return &Console{
		out:    out,
		levels: levels,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Observe forwards next to the program. Snapshots seen before Run starts
// seed the first frame.
func (c *Console) Observe(_ context.Context, _, next turn.Snapshot) {
	c.mu.Lock()
	c.last = next
	program := c.program
	c.mu.Unlock()

	if program != nil {
		program.Send(snapshotMsg(next))
	}
}

// Run drives the program until q or ctrl+c, or until ctx ends. A nil in
// disables keyboard input.
func (c *Console) Run(ctx context.Context, in io.Reader, actions Actions) error {
	c.mu.Lock()
	model := newModel(ctx, actions, c.levels, c.styles)
	model.snap = c.last
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(c.out),
		tea.WithoutSignalHandler(),
	)
	c.program = program
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.program = nil
		c.mu.Unlock()
	}()

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	if m, ok := final.(*Model); ok {
		return m.err
	}
	return nil
}
