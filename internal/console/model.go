package console

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Ayoola1o/lara/internal/fsm"
	"github.com/Ayoola1o/lara/internal/turn"
)

const (
	spectrumInterval = 100 * time.Millisecond
	helpLine         = "Enter: start/stop · x: reset · q: quit"
	busyHint         = "Still working on the last turn. Press x to reset."
)

var bars = []rune(" ▁▂▃▄▅▆▇█")

type snapshotMsg turn.Snapshot

type tickMsg time.Time

type actionDoneMsg struct {
	err error
}

// Model is the bubbletea model behind the console.
type Model struct {
	ctx     context.Context
	actions Actions
	levels  Levels
	styles  styles

	snap     turn.Snapshot
	spectrum string
	hint     string
	err      error
}

func newModel(ctx context.Context, actions Actions, levels Levels, st styles) *Model {
	return &Model{
		ctx:     ctx,
		actions: actions,
		levels:  levels,
		styles:  st,
		snap:    turn.Snapshot{State: fsm.StateIdle},
	}
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = turn.Snapshot(msg)
		if m.snap.State != fsm.StateRecording {
			m.spectrum = ""
		}
		return m, nil

	case tickMsg:
		if m.snap.State == fsm.StateRecording && m.levels != nil {
			m.spectrum = Spectrum(m.levels.Levels())
		}
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case actionDoneMsg:
		switch {
		case msg.err == nil:
			return m, nil
		case errors.Is(msg.err, turn.ErrStopped):
			m.err = msg.err
			return m, tea.Quit
		case errors.Is(msg.err, turn.ErrBusy):
			m.hint = busyHint
		default:
			m.hint = msg.err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // only the bound keys matter
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter, tea.KeyCtrlJ, tea.KeySpace:
		m.hint = ""
		return m, m.do(m.actions.Toggle)
	case tea.KeyRunes:
		switch strings.ToLower(string(msg.Runes)) {
		case "q":
			return m, tea.Quit
		case "x":
			m.hint = ""
			return m, m.do(m.actions.Reset)
		}
	}
	m.hint = helpLine
	return m, nil
}

// do runs action off the update loop; the controller publishes back into
// this program while the action is applied.
func (m *Model) do(action func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: action(ctx)}
	}
}

func (m *Model) View() string {
	lines := []string{render(m.styles, m.snap)}
	if m.spectrum != "" {
		lines = append(lines, m.styles.spectrum.Render(m.spectrum))
	}
	if m.hint != "" && m.hint != helpLine {
		lines = append(lines, m.styles.hint.Render(m.hint))
	}
	lines = append(lines, m.styles.hint.Render(helpLine))
	return strings.Join(lines, "\n") + "\n"
}

// render formats one snapshot.
func render(st styles, s turn.Snapshot) string {
	lines := make([]string, 0, 4)

	statusStyle := st.status
	switch {
	case s.Turn.ErrorMessage != "":
		statusStyle = st.errorText
	case s.State == fsm.StateRecording:
		statusStyle = st.recording
	case fsm.Busy(s.State):
		statusStyle = st.busy
	}
	lines = append(lines, statusStyle.Render("● "+s.Status))

	if (s.State == fsm.StateRecording || s.State == fsm.StateFinalizing) && strings.TrimSpace(s.LiveText) != "" {
		lines = append(lines, st.live.Render(strings.TrimSpace(s.LiveText)))
	}
	if s.Turn.UserText != "" {
		lines = append(lines, st.userLabel.Render("You:")+" "+st.text.Render(s.Turn.UserText))
	}
	if s.Turn.AssistantText != "" {
		lines = append(lines, st.botLabel.Render("Lara:")+" "+st.text.Render(s.Turn.AssistantText))
	}
	return strings.Join(lines, "\n")
}

// Spectrum draws one bar character per level.
func Spectrum(levels []float64) string {
	var b strings.Builder
	top := len(bars) - 1
	for _, level := range levels {
		level = math.Max(0, math.Min(1, level))
		b.WriteRune(bars[int(math.Round(level*float64(top)))])
	}
	return b.String()
}

func tick() tea.Cmd {
	return tea.Tick(spectrumInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
