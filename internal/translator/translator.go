// Package translator defines the contract for the external LTL parser and
// LTL-to-DPA oracle (spec.md §6.1). The real translator (an LTL parser
// married to an automaton-construction library) is an out-of-scope external
// collaborator; this package only pins down the interface the rest of the
// pipeline consumes, plus the acceptance-normalization arithmetic from
// spec.md §4.1 that every concrete translator's output must be pushed
// through before reaching the game constructor.
package translator

import (
	"fmt"

	"github.com/pkg/errors"
)

// AcceptanceKind enumerates the parity/safety acceptance flavors a DPA
// backend may report before normalization to max-even.
type AcceptanceKind int

const (
	Safety AcceptanceKind = iota
	CoSafety
	Buchi
	CoBuchi
	ParityMinEven
	ParityMaxOdd
	ParityMinOdd
	ParityMaxEven
)

// Sentinel automaton-state indices, valid in every automaton regardless of
// backend: TOP is the trivially-accepting sink, BOTTOM the trivially
// rejecting one.
const (
	Top    = -1
	Bottom = -2
)

// NoColor is the raw priority an oracle reports for a Büchi transition that
// is not in the accepting set (owl's sentinel, automaton.rs): it must
// normalize to an odd (losing) color, never to 0, or a Büchi condition
// becomes vacuously winning.
const NoColor = -1

// EdgeTreeData is the raw, packed shape the oracle hands back for a single
// automaton state (spec.md §4.1 / §6.1): three flat arrays the caller
// decodes (internal/edgetree does this).
type EdgeTreeData struct {
	// Nodes packs inner nodes as [var, left, right] triples; Nodes[i*3] is
	// var, Nodes[i*3+1] is left, Nodes[i*3+2] is right.
	Nodes []int
	// Edges packs leaves as [successor, priority] pairs.
	Edges []int
	// Scores holds one heuristic merit value per leaf, indexed in the same
	// order as Edges.
	Scores []float64
}

// Formula is an opaque handle to a parsed (and possibly simplified) LTL
// formula, owned by a particular VM.
type Formula interface {
	// Destroy releases the formula. Safe to call more than once.
	Destroy()
}

// Automaton is an opaque handle to a deterministic automaton derived from a
// Formula.
type Automaton interface {
	// Initial returns the initial state index.
	Initial() int
	// Acceptance reports the acceptance flavor and the number of priorities
	// (colors) used by it, both before normalization to max-even.
	Acceptance() (AcceptanceKind, int)
	// EdgeTree fetches the packed edge tree for state. Expensive; callers
	// should memoize (internal/edgetree does this).
	EdgeTree(state int) (EdgeTreeData, error)
	// Decompose returns the structured-label components for state, or nil
	// if the backend has no decomposition to offer (spec.md §4.8).
	Decompose(state int) []int
	// Destroy releases the automaton. Safe to call more than once.
	Destroy()
}

// VM is an opaque handle to a translator instance: the entry point for
// parsing LTL and building automata.
type VM interface {
	// Parse parses ltl over the given ordered proposition names.
	Parse(ltl string, propositions []string) (Formula, error)
	// Simplify simplifies formula, returning a (possibly new) formula and a
	// usage status per proposition, inputs first then outputs.
	Simplify(f Formula, numInputs int) (Formula, []Status, error)
	// Build constructs a deterministic automaton for f. simplifyLanguage
	// requests language-preserving simplification inside the backend, if
	// supported.
	Build(f Formula, simplifyLanguage bool) (Automaton, error)
	// Destroy releases the VM. Safe to call more than once.
	Destroy()
}

// Status mirrors proposition.Status without importing that package, so this
// contract file has no dependency on the rest of the module;
// internal/orchestrator's convertStatuses converts between the two.
type Status uint8

const (
	StatusTrue Status = iota
	StatusFalse
	StatusUsed
	StatusUnused
)

// Error kinds from spec.md §7. TranslatorFailure wraps any VM-creation,
// parse, or automaton-construction failure and is always non-recoverable.
type TranslatorFailure struct {
	Op  string
	Err error
}

func (e *TranslatorFailure) Error() string {
	return fmt.Sprintf("translator: %s: %v", e.Op, e.Err)
}

func (e *TranslatorFailure) Unwrap() error { return e.Err }

// Wrap builds a TranslatorFailure, following the teacher's pkg/errors idiom
// of annotating the low-level error with the operation that failed.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TranslatorFailure{Op: op, Err: errors.WithStack(err)}
}

// NormalizeAcceptance converts a reported (kind, numColors) pair and a raw
// priority into the max-even-normalized (priority, numColors) pair, per
// spec.md §4.1.
func NormalizeAcceptance(kind AcceptanceKind, numColors, priority int) (normPriority, normColors int) {
	switch kind {
	case Safety:
		return 0, max2(numColors, 1)
	case CoSafety:
		return 1, max2(numColors, 2)
	case Buchi:
		if priority == NoColor {
			return 1, max2(numColors, 2)
		}
		return 2, max2(numColors, 3)
	case CoBuchi:
		return 1, max2(numColors, 2)
	case ParityMinEven:
		nc := bumpToOdd(numColors)
		return nc - 1 - priority, nc
	case ParityMaxOdd:
		return priority + 1, numColors + 1
	case ParityMinOdd:
		nc := bumpToEven(numColors)
		return nc - 1 - priority, nc
	case ParityMaxEven:
		return priority, numColors
	default:
		return priority, numColors
	}
}

func bumpToEven(c int) int {
	if c%2 != 0 {
		return c + 1
	}
	return c
}

func bumpToOdd(c int) int {
	if c%2 == 0 {
		return c + 1
	}
	return c
}

func max2(a, b int) int {
	if a > b {
		return a
	}
	return b
}
