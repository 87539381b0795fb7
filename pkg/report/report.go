// Package report turns a validation result into the gate decision and the
// data every output format renders: fatal violations first, then warnings,
// then notes and skipped files, then a one-line summary.
package report

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/preflight/pkg/validate"
)

// FixHint is printed under every fatal init-order violation.
const FixHint = "Ensure hardware is properly initialized before use"

// Report is the partitioned, ordered view of a run.
type Report struct {
	Fatal        []validate.Violation
	Warnings     []validate.Violation
	Notes        []validate.Note
	Skipped      []validate.SkippedFile
	FilesScanned int
}

// Build partitions the result by each violation's fatal flag, keeping the
// validator's order inside each partition.
func Build(res *validate.Result) *Report {
	r := &Report{}
	if res == nil {
		return r
	}
	for _, v := range res.Violations {
		if v.Fatal {
			r.Fatal = append(r.Fatal, v)
		} else {
			r.Warnings = append(r.Warnings, v)
		}
	}
	r.Notes = res.Notes
	r.Skipped = res.Skipped
	r.FilesScanned = res.FilesScanned()
	return r
}

// Passed reports whether there are no fatal violations.
func (r *Report) Passed() bool {
	return len(r.Fatal) == 0
}

// ExitCode is 0 when the gate passes and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.Passed() {
		return 0
	}
	return 1
}

// Status returns "PASSED" or "FAILED".
func (r *Report) Status() string {
	if r.Passed() {
		return "PASSED"
	}
	return "FAILED"
}

// Summary returns the final report line.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d fatal, %d warning(s) in %d files: %s",
		len(r.Fatal), len(r.Warnings), r.FilesScanned, r.Status())
}

// Field is one labelled line of a violation block.
type Field struct {
	Label string
	Value string
}

// Fields lays out one violation block. Empty values are left out, and the
// fix hint is added for fatal init-order violations only.
func Fields(v validate.Violation) []Field {
	subject := "Resource"
	if v.Kind == validate.KindOrderViolation {
		subject = "Rule"
	}
	fields := []Field{
		{"Kind", string(v.Kind)},
		{subject, v.Subject},
		{"File", v.Location.File},
		{"Line", strconv.Itoa(v.Location.Line)},
		{"Function", v.Location.Function},
		{"Code", v.Location.Code},
		{"Violation", v.Message},
		{"Reason", v.Description},
		{"Impact", v.Impact},
	}
	if v.Fatal && v.Kind == validate.KindInitOrder {
		fields = append(fields, Field{"Fix", FixHint})
	}

	out := fields[:0]
	for _, f := range fields {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}
