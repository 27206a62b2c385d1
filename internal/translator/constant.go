package translator

import "fmt"

// constantAutomaton is the trivial one-state automaton a ConstantVM builds:
// its only reachable state is the TOP or BOTTOM sentinel, which
// edgetree.Store already pre-seeds with a self-loop, so EdgeTree is never
// actually called on it in practice.
type constantAutomaton struct {
	initial int
}

func (a *constantAutomaton) Initial() int                     { return a.initial }
func (a *constantAutomaton) Acceptance() (AcceptanceKind, int) { return ParityMaxEven, 2 }
func (a *constantAutomaton) Decompose(state int) []int         { return nil }
func (a *constantAutomaton) Destroy()                          {}
func (a *constantAutomaton) EdgeTree(state int) (EdgeTreeData, error) {
	return EdgeTreeData{}, fmt.Errorf("translator: constant automaton has no state %d to fetch (only the pre-seeded TOP/BOTTOM sentinels exist)", state)
}

type constantFormula struct{ truth bool }

func (constantFormula) Destroy() {}

// ConstantVM is a minimal translator.VM covering the two literal-constant
// boundary cases spec.md §8 names explicitly ("true" -> Realizable,
// "false" -> Unrealizable) without requiring a real LTL-to-DPA backend.
// Building one from a parsed atomic proposition (or any richer formula) is
// exactly the out-of-scope external collaborator spec.md §1's Non-goals
// name ("parsing LTL; implementing a DPA from scratch"); ConstantVM only
// ever recognizes the two trivial constants and otherwise reports
// TranslatorFailure pointing at the VM interface as the extension point a
// real backend (e.g. a cgo binding to an LTL-to-DPA translator) would
// implement.
type ConstantVM struct{}

func (ConstantVM) Parse(ltl string, propositions []string) (Formula, error) {
	switch trimBoolLiteral(ltl) {
	case "true", "1":
		return constantFormula{truth: true}, nil
	case "false", "0":
		return constantFormula{truth: false}, nil
	default:
		return nil, fmt.Errorf("translator: no LTL-to-DPA backend is linked into this build; only the literal constants \"true\"/\"false\" are recognized without one (implement translator.VM against a real oracle for anything else)")
	}
}

func trimBoolLiteral(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\n' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (ConstantVM) Simplify(f Formula, numInputs int) (Formula, []Status, error) {
	return f, nil, nil
}

func (ConstantVM) Build(f Formula, simplifyLanguage bool) (Automaton, error) {
	cf := f.(constantFormula)
	if cf.truth {
		return &constantAutomaton{initial: Top}, nil
	}
	return &constantAutomaton{initial: Bottom}, nil
}

func (ConstantVM) Destroy() {}
