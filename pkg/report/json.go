package report

import "github.com/leapstack-labs/preflight/pkg/validate"

// Document is the JSON form of a report. Field names are stable; CI
// tooling parses them.
type Document struct {
	Passed   bool                   `json:"passed"`
	Summary  Counts                 `json:"summary"`
	Fatal    []validate.Violation   `json:"fatal"`
	Warnings []validate.Violation   `json:"warnings"`
	Notes    []validate.Note        `json:"notes"`
	Skipped  []validate.SkippedFile `json:"skipped"`
}

// Counts are the summary numbers of a report.
type Counts struct {
	Fatal    int `json:"fatal"`
	Warnings int `json:"warnings"`
	Notes    int `json:"notes"`
	Skipped  int `json:"skipped"`
	Files    int `json:"files"`
}

// Document returns the JSON model. Empty sections encode as [] not null.
func (r *Report) Document() Document {
	return Document{
		Passed: r.Passed(),
		Summary: Counts{
			Fatal:    len(r.Fatal),
			Warnings: len(r.Warnings),
			Notes:    len(r.Notes),
			Skipped:  len(r.Skipped),
			Files:    r.FilesScanned,
		},
		Fatal:    nonNil(r.Fatal),
		Warnings: nonNil(r.Warnings),
		Notes:    nonNil(r.Notes),
		Skipped:  nonNil(r.Skipped),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
