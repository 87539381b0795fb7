// Package output renders command results for terminals, pipes and machines.
//
// A Renderer resolves the requested Mode once: auto becomes text on a
// terminal and markdown otherwise. Text mode styles output with lipgloss;
// markdown and json never emit escape sequences.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes formatted output for one command invocation.
type Renderer struct {
	out       io.Writer
	errOut    io.Writer
	mode      Mode
	effective Mode
	styles    Styles
}

// NewRenderer creates a renderer. Unknown modes behave like ModeAuto.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	effective := resolveMode(mode, out)

	lr := lipgloss.NewRenderer(out)
	if effective != ModeText {
		lr.SetColorProfile(termenv.Ascii)
	}

	return &Renderer{
		out:       out,
		errOut:    errOut,
		mode:      mode,
		effective: effective,
		styles:    newStyles(lr),
	}
}

func resolveMode(mode Mode, out io.Writer) Mode {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
		return mode
	}
	if IsTerminal(out) {
		return ModeText
	}
	return ModeMarkdown
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// Mode returns the requested mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// EffectiveMode returns the mode actually used.
func (r *Renderer) EffectiveMode() Mode {
	return r.effective
}

// Styles returns the renderer's styles.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Writer returns the primary output writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the diagnostic output writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Println writes a line to the primary output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the primary output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// Header writes a level 1 or 2 heading.
func (r *Renderer) Header(level int, text string) {
	if r.effective != ModeText {
		r.Println(FormatHeader(level, text))
		r.Println("")
		return
	}
	style := r.styles.Header2
	if level <= 1 {
		style = r.styles.Header1
	}
	r.Println(style.Render(text))
	r.Println("")
}

// StatusLine writes "<icon> name  detail" with the icon chosen by status
// ("success", "failed", "skipped").
func (r *Renderer) StatusLine(name, status, detail string) {
	var icon string
	switch status {
	case "success":
		icon = r.styles.StatusSuccess.Render("✓")
	case "failed":
		icon = r.styles.StatusFailed.Render("✗")
	default:
		icon = r.styles.Muted.Render("○")
	}
	line := icon + " " + name
	if detail != "" {
		line += "  " + r.styles.Muted.Render(detail)
	}
	if r.effective == ModeMarkdown {
		line = "- " + line
	}
	r.Println(line)
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(msg))
}

// Warning writes a warning to the diagnostic output.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("Warning: "+msg))
}

// Error writes an error to the diagnostic output.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("Error: "+msg))
}

// Muted writes secondary text.
func (r *Renderer) Muted(text string) {
	r.Println(r.styles.Muted.Render(text))
}

// FormatHeader returns a markdown heading.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}
