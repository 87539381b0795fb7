package validate

import (
	"encoding/json"

	"github.com/leapstack-labs/preflight/pkg/rules"
)

// Kind distinguishes the two kinds of violation.
type Kind string

// Violation kinds.
const (
	KindInitOrder      Kind = "init_order"
	KindOrderViolation Kind = "order_violation"
)

// CodeLocation identifies one source line.
type CodeLocation struct {
	File     string `json:"file"`
	Line     int    `json:"line"`     // 1-based
	Function string `json:"function"` // enclosing function or lexical.GlobalScope
	Code     string `json:"code"`     // trimmed raw text of the line
}

// ForbiddenUse is one forbidden marker seen before initialization.
type ForbiddenUse struct {
	Location CodeLocation
	Marker   rules.Marker
}

// InitializationState tracks one resource within one file. Once Initialized
// is set it never reverts, and no forbidden uses are recorded after it.
type InitializationState struct {
	Initialized  bool
	InitLocation *CodeLocation
	Violations   []ForbiddenUse
}

func (s *InitializationState) markInitialized(loc CodeLocation) bool {
	if s.Initialized {
		return false
	}
	s.Initialized = true
	s.InitLocation = &loc
	return true
}

func (s *InitializationState) recordUse(use ForbiddenUse) {
	if s.Initialized {
		return
	}
	s.Violations = append(s.Violations, use)
}

// Violation is a single finding that can fail the gate.
type Violation struct {
	Kind        Kind         `json:"kind"`
	Subject     string       `json:"subject"` // resource for init_order, rule name for order_violation
	Location    CodeLocation `json:"location"`
	Marker      string       `json:"marker,omitempty"`
	Message     string       `json:"message"`
	Fatal       bool         `json:"fatal"`
	Impact      string       `json:"impact,omitempty"`
	Description string       `json:"description,omitempty"`
}

// Note is an informational finding. Notes never affect the gate.
type Note struct {
	Resource string       `json:"resource"`
	Location CodeLocation `json:"location"`
	First    CodeLocation `json:"first"`
	Message  string       `json:"message"`
}

// SkippedFile is a file that could not be read. The run continues without it.
type SkippedFile struct {
	Path string
	Err  error
}

// MarshalJSON renders Err as its message.
func (s SkippedFile) MarshalJSON() ([]byte, error) {
	msg := ""
	if s.Err != nil {
		msg = s.Err.Error()
	}
	return json.Marshal(struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}{s.Path, msg})
}

// ResourceState pairs a resource with its final state in one file.
type ResourceState struct {
	Resource string
	State    *InitializationState
}

// FileResult holds the per-file state machines after a scan.
type FileResult struct {
	Path   string
	Lines  int
	States []ResourceState // rule declaration order
}

// State returns the final state of a resource in this file.
func (f *FileResult) State(resource string) (*InitializationState, bool) {
	for _, rs := range f.States {
		if rs.Resource == resource {
			return rs.State, true
		}
	}
	return nil, false
}

// Result is everything a run produced.
type Result struct {
	Files      []FileResult
	Violations []Violation
	Notes      []Note
	Skipped    []SkippedFile
}

// FilesScanned returns the number of files that were read and checked.
func (r *Result) FilesScanned() int {
	return len(r.Files)
}
