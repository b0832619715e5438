package console

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorSuccess   = lipgloss.Color("#22C55E")
	colorError     = lipgloss.Color("#EF4444")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorText      = lipgloss.Color("#F8FAFC")
	colorMuted     = lipgloss.Color("#94A3B8")
	colorSubtle    = lipgloss.Color("#64748B")
)

type styles struct {
	status    lipgloss.Style
	recording lipgloss.Style
	busy      lipgloss.Style
	errorText lipgloss.Style
	live      lipgloss.Style
	userLabel lipgloss.Style
	botLabel  lipgloss.Style
	text      lipgloss.Style
	hint      lipgloss.Style
	spectrum  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		status:    r.NewStyle().Foreground(colorSuccess).Bold(true),
		recording: r.NewStyle().Foreground(colorSecondary).Bold(true),
		busy:      r.NewStyle().Foreground(colorWarning).Bold(true),
		errorText: r.NewStyle().Foreground(colorError).Bold(true),
		live:      r.NewStyle().Foreground(colorMuted).Italic(true).PaddingLeft(2),
		userLabel: r.NewStyle().Foreground(colorSecondary).Bold(true),
		botLabel:  r.NewStyle().Foreground(colorPrimary).Bold(true),
		text:      r.NewStyle().Foreground(colorText),
		hint:      r.NewStyle().Foreground(colorSubtle).Italic(true),
		spectrum:  r.NewStyle().Foreground(colorSecondary),
	}
}
