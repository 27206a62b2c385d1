package translator

import "fmt"

// StateSpec is a hand-built automaton state used by ExplicitVM. It lets
// tests and examples exercise the full pipeline (constructor, solver,
// transducer builder, minimizer, encoder) without depending on a real LTL
// parser, which is out of scope for this module (spec.md §1).
type StateSpec struct {
	// Tree is the edge tree for this state, already in the packed
	// [var,left,right]/[successor,priority] shape edgetree.Store expects.
	Tree EdgeTreeData
	// Decomposition is the optional structured-label decomposition.
	Decomposition []int
}

// ExplicitAutomaton is a DPA given directly as a table of states, with no
// LTL formula behind it.
type ExplicitAutomaton struct {
	InitialState int
	Kind         AcceptanceKind
	NumColorsRaw int
	States       map[int]StateSpec
}

func (a *ExplicitAutomaton) Initial() int { return a.InitialState }

func (a *ExplicitAutomaton) Acceptance() (AcceptanceKind, int) { return a.Kind, a.NumColorsRaw }

func (a *ExplicitAutomaton) EdgeTree(state int) (EdgeTreeData, error) {
	s, ok := a.States[state]
	if !ok {
		return EdgeTreeData{}, fmt.Errorf("explicit automaton: no state %d", state)
	}
	return s.Tree, nil
}

func (a *ExplicitAutomaton) Decompose(state int) []int {
	s, ok := a.States[state]
	if !ok {
		return nil
	}
	return s.Decomposition
}

func (a *ExplicitAutomaton) Destroy() {}

// ExplicitFormula is a no-op Formula handle: ExplicitVM never parses text,
// it only ever returns a pre-built ExplicitAutomaton.
type ExplicitFormula struct {
	Automaton *ExplicitAutomaton
}

func (f *ExplicitFormula) Destroy() {}

// ExplicitVM is a reference VM implementation that serves a fixed, directly
// constructed automaton regardless of the LTL text it is asked to parse.
// It exists purely to drive integration tests of the game/solver/transducer
// pipeline end to end.
type ExplicitVM struct {
	Automaton *ExplicitAutomaton
	Statuses  []Status
}

func (vm *ExplicitVM) Parse(ltl string, propositions []string) (Formula, error) {
	return &ExplicitFormula{Automaton: vm.Automaton}, nil
}

func (vm *ExplicitVM) Simplify(f Formula, numInputs int) (Formula, []Status, error) {
	if vm.Statuses != nil {
		return f, vm.Statuses, nil
	}
	ef := f.(*ExplicitFormula)
	total := len(ef.Automaton.States[ef.Automaton.InitialState].Tree.Nodes) // not meaningful, fallback below
	_ = total
	return f, nil, nil
}

func (vm *ExplicitVM) Build(f Formula, simplifyLanguage bool) (Automaton, error) {
	ef := f.(*ExplicitFormula)
	return ef.Automaton, nil
}

func (vm *ExplicitVM) Destroy() {}
