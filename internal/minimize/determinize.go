package minimize

import (
	"github.com/strixeng/strix/internal/bdd"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/transducer"
)

// Determinize collapses the nondeterminism left over where the transducer
// builder had no recorded strategy for a vertex and fell back to exploring
// every branch (spec.md §4.7.3). Branches are ranked by weight, the number
// of cubes their BDD enumerates to; how often a successor is used across
// the machine is not counted, and the representative cube kept is the first
// one enumerated. For a Mealy machine it keeps, per transition, the output
// branch with the most output cubes and one representative output cube out
// of it; for a Moore machine it instead keeps, per state, the single
// transition whose output branches have the most cubes in total, one
// representative input cube for it, and its heaviest output branch narrowed
// the same way. Unreachable states are
// dropped afterward with the same machinery as MinimalReachableStates.
func Determinize(m *transducer.Machine) (*transducer.Machine, error) {
	states := make([][]transducer.Transition, m.NumStates())
	var err error
	for s, transitions := range m.States {
		if m.Winner == pgame.System {
			states[s], err = determinizeMealyState(m, transitions)
		} else {
			states[s], err = determinizeMooreState(m, transitions)
		}
		if err != nil {
			return nil, err
		}
	}

	out := &transducer.Machine{
		Winner:  m.Winner,
		Inputs:  m.Inputs,
		Outputs: m.Outputs,
		Initial: m.Initial,
		States:  states,
	}

	reachable, err := MinimalReachableStates(out)
	if err != nil {
		return nil, err
	}
	return ApplyReachability(out, reachable), nil
}

// weight approximates "how many input/output valuations take this branch"
// by its cube count, standing in for the original engine's runtime usage
// counters which this offline pass has no access to.
func weight(mgr *bdd.Manager, ref bdd.Ref) (int, error) {
	cubes, err := mgr.Enumerate(ref)
	if err != nil {
		return 0, err
	}
	return len(cubes), nil
}

// representativeCube collapses ref to the BDD of a single cube drawn from
// it, picking an arbitrary but deterministic (first-enumerated) witness.
func representativeCube(mgr *bdd.Manager, ref bdd.Ref) (bdd.Ref, error) {
	cubes, err := mgr.Enumerate(ref)
	if err != nil {
		return nil, err
	}
	if len(cubes) == 0 {
		return mgr.Zero(), nil
	}
	acc := mgr.One()
	for i, lit := range cubes[0] {
		var term bdd.Ref
		switch lit {
		case 1:
			term, err = mgr.Var(i)
		case 0:
			term, err = mgr.NVar(i)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		if acc, err = mgr.And(acc, term); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func determinizeMealyState(m *transducer.Machine, transitions []transducer.Transition) ([]transducer.Transition, error) {
	out := make([]transducer.Transition, len(transitions))
	for i, t := range transitions {
		branch, err := pickBestBranch(m, t.Outputs)
		if err != nil {
			return nil, err
		}
		out[i] = transducer.Transition{InputBDD: t.InputBDD, Outputs: []transducer.OutputBranch{branch}}
	}
	return out, nil
}

func determinizeMooreState(m *transducer.Machine, transitions []transducer.Transition) ([]transducer.Transition, error) {
	if len(transitions) == 0 {
		return transitions, nil
	}
	bestIdx := 0
	bestScore := -1
	for i, t := range transitions {
		score := 0
		for _, o := range t.Outputs {
			w, err := weight(m.Outputs, o.OutputBDD)
			if err != nil {
				return nil, err
			}
			score += w
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	chosen := transitions[bestIdx]
	input, err := representativeCube(m.Inputs, chosen.InputBDD)
	if err != nil {
		return nil, err
	}
	branch, err := pickBestBranch(m, chosen.Outputs)
	if err != nil {
		return nil, err
	}
	return []transducer.Transition{{InputBDD: input, Outputs: []transducer.OutputBranch{branch}}}, nil
}

func pickBestBranch(m *transducer.Machine, outputs []transducer.OutputBranch) (transducer.OutputBranch, error) {
	bestIdx := 0
	bestScore := -1
	for i, o := range outputs {
		w, err := weight(m.Outputs, o.OutputBDD)
		if err != nil {
			return transducer.OutputBranch{}, err
		}
		if w > bestScore {
			bestScore = w
			bestIdx = i
		}
	}
	chosen := outputs[bestIdx]
	cube, err := representativeCube(m.Outputs, chosen.OutputBDD)
	if err != nil {
		return transducer.OutputBranch{}, err
	}
	return transducer.OutputBranch{OutputBDD: cube, Next: chosen.Next}, nil
}
