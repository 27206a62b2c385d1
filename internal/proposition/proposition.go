// Package proposition models the atomic-proposition partition shared across
// the synthesis pipeline: an ordered sequence of uncontrollable inputs
// followed by an ordered sequence of controllable outputs, each carrying a
// usage status discovered by the LTL simplifier.
package proposition

import "fmt"

// Status is the usage classification of a single atomic proposition after
// formula simplification.
type Status uint8

const (
	// Used means the proposition actually appears in the simplified formula.
	Used Status = iota
	// Unused means the proposition was simplified away entirely.
	Unused
	// ForcedTrue means every model of the formula fixes the proposition true.
	ForcedTrue
	// ForcedFalse means every model of the formula fixes the proposition false.
	ForcedFalse
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Used:
		return "Used"
	case Unused:
		return "Unused"
	case ForcedTrue:
		return "ForcedTrue"
	case ForcedFalse:
		return "ForcedFalse"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Forced reports whether the status pins the proposition to a constant, and
// if so, to which value.
func (s Status) Forced() (value, ok bool) {
	switch s {
	case ForcedTrue:
		return true, true
	case ForcedFalse:
		return false, true
	default:
		return false, false
	}
}

// Set is the ordered proposition partition: index 0..len(Inputs)-1 are
// Environment-controlled, len(Inputs)..len(Inputs)+len(Outputs)-1 are
// System-controlled. Variable indices handed out by the edge tree decoder
// and the BDD managers always refer to this single global order.
type Set struct {
	Inputs  []string
	Outputs []string

	// Statuses holds one entry per proposition, inputs first then outputs,
	// populated by the translator's simplification pass. A nil Statuses
	// means "all Used" (no simplification was requested).
	Statuses []Status
}

// NumInputs returns the number of uncontrollable propositions.
func (s *Set) NumInputs() int { return len(s.Inputs) }

// NumOutputs returns the number of controllable propositions.
func (s *Set) NumOutputs() int { return len(s.Outputs) }

// Total returns the total number of propositions.
func (s *Set) Total() int { return len(s.Inputs) + len(s.Outputs) }

// IsInput reports whether global variable index v addresses an input.
func (s *Set) IsInput(v int) bool { return v < len(s.Inputs) }

// Name returns the proposition name for a global variable index.
func (s *Set) Name(v int) string {
	if s.IsInput(v) {
		return s.Inputs[v]
	}
	return s.Outputs[v-len(s.Inputs)]
}

// StatusOf returns the usage status of global variable v, defaulting to Used
// when no simplification info is present.
func (s *Set) StatusOf(v int) Status {
	if s.Statuses == nil || v >= len(s.Statuses) {
		return Used
	}
	return s.Statuses[v]
}

// EnsureStatuses allocates an all-Used status vector if none is present,
// so downstream code can always index Statuses directly.
func (s *Set) EnsureStatuses() {
	if s.Statuses == nil {
		s.Statuses = make([]Status, s.Total())
	}
}
