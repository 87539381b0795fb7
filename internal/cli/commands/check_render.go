package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/preflight/internal/cli/output"
	"github.com/leapstack-labs/preflight/pkg/report"
	"github.com/leapstack-labs/preflight/pkg/validate"
)

// title upper-cases the first letter of every word. Casers keep state, so
// each call gets its own.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// renderReport writes the report in the renderer's effective mode.
func renderReport(r *output.Renderer, rep *report.Report) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rep.Document())
	case output.ModeMarkdown:
		renderReportMarkdown(r, rep)
	default:
		renderReportText(r, rep)
	}
	return nil
}

func renderReportText(r *output.Renderer, rep *report.Report) {
	styles := r.Styles()

	if len(rep.Fatal) > 0 {
		r.Header(1, "Build blocked: hardware violations detected")
		renderBlocksText(r, rep.Fatal, styles.FatalBlock)
	}
	if len(rep.Warnings) > 0 {
		r.Header(2, fmt.Sprintf("Warnings (%d)", len(rep.Warnings)))
		renderBlocksText(r, rep.Warnings, styles.WarningBlock)
	}
	renderNotes(r, rep.Notes)
	renderSkipped(r, rep.Skipped)

	if rep.Passed() {
		r.Println(styles.StatusSuccess.Render(rep.Summary()))
		return
	}
	r.Println(styles.StatusFailed.Render(rep.Summary()))
}

func renderBlocksText(r *output.Renderer, vs []validate.Violation, block lipgloss.Style) {
	styles := r.Styles()
	for _, v := range vs {
		fields := report.Fields(v)
		lines := make([]string, 0, len(fields))
		for _, f := range fields {
			lines = append(lines, styles.Bold.Render(f.Label+":")+" "+f.Value)
		}
		r.Println(block.Render(strings.Join(lines, "\n")))
		r.Println("")
	}
}

func renderReportMarkdown(r *output.Renderer, rep *report.Report) {
	r.Header(1, "Preflight "+title(strings.ToLower(rep.Status())))

	if len(rep.Fatal) > 0 {
		r.Header(2, fmt.Sprintf("Fatal Violations (%d)", len(rep.Fatal)))
		renderBlocksMarkdown(r, rep.Fatal)
	}
	if len(rep.Warnings) > 0 {
		r.Header(2, fmt.Sprintf("Warnings (%d)", len(rep.Warnings)))
		renderBlocksMarkdown(r, rep.Warnings)
	}
	renderNotes(r, rep.Notes)
	renderSkipped(r, rep.Skipped)

	r.Println("**" + rep.Summary() + "**")
}

func renderBlocksMarkdown(r *output.Renderer, vs []validate.Violation) {
	for _, v := range vs {
		r.Header(3, kindTitle(v.Kind)+": "+v.Subject)
		for _, f := range report.Fields(v) {
			if f.Label == "Code" {
				r.Println(output.FormatKeyValue(f.Label, "`"+f.Value+"`"))
				continue
			}
			r.Println(output.FormatKeyValue(f.Label, f.Value))
		}
		r.Println("")
	}
}

func renderNotes(r *output.Renderer, notes []validate.Note) {
	if len(notes) == 0 {
		return
	}
	r.Header(2, fmt.Sprintf("Notes (%d)", len(notes)))
	for _, n := range notes {
		r.StatusLine(fmt.Sprintf("%s:%d", n.Location.File, n.Location.Line), "info", n.Message)
	}
	r.Println("")
}

func renderSkipped(r *output.Renderer, skipped []validate.SkippedFile) {
	if len(skipped) == 0 {
		return
	}
	r.Header(2, fmt.Sprintf("Skipped Files (%d)", len(skipped)))
	for _, s := range skipped {
		detail := ""
		if s.Err != nil {
			detail = s.Err.Error()
		}
		r.StatusLine(s.Path, "skipped", detail)
	}
	r.Println("")
}

// kindTitle turns "init_order" into "Init Order".
func kindTitle(k validate.Kind) string {
	return title(strings.ReplaceAll(string(k), "_", " "))
}
