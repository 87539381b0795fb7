package output

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#0B7285", Dark: "#3BC9DB"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#2B8A3E", Dark: "#69DB7C"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#E67700", Dark: "#FFD43B"}
	colorError   = lipgloss.AdaptiveColor{Light: "#C92A2A", Dark: "#FF6B6B"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#868E96", Dark: "#868E96"}
)

// Styles holds the lipgloss styles used by all commands. They are bound to
// the renderer's output so color is dropped when the writer is not a terminal.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	Path    lipgloss.Style
	Code    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style

	FatalBlock   lipgloss.Style
	WarningBlock lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Header1: r.NewStyle().Bold(true).Foreground(colorAccent),
		Header2: r.NewStyle().Bold(true).Underline(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Success: r.NewStyle().Foreground(colorSuccess),
		Warning: r.NewStyle().Foreground(colorWarning),
		Error:   r.NewStyle().Foreground(colorError).Bold(true),
		Info:    r.NewStyle().Foreground(colorAccent),
		Path:    r.NewStyle().Foreground(colorAccent).Underline(true),
		Code:    r.NewStyle().Italic(true),

		StatusSuccess: r.NewStyle().Foreground(colorSuccess).Bold(true),
		StatusFailed:  r.NewStyle().Foreground(colorError).Bold(true),

		FatalBlock: r.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorError).
			PaddingLeft(1),
		WarningBlock: r.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorWarning).
			PaddingLeft(1),
	}
}
