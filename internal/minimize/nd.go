// Package minimize shrinks a synthesized transducer two ways (spec.md
// §4.7, component C7): dropping unreachable states under a SAT-searched
// minimum reachable set, and, for deterministic machines, SAT-covering
// minimization in the style of Abel & Reineke's MeMin. Both are grounded
// directly on the original engine's minimization.rs, ported from its
// varisat/cudd calls onto internal/satcnf and internal/bdd.
package minimize

import (
	"github.com/irifrance/gini/z"
	"github.com/pkg/errors"

	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/satcnf"
	"github.com/strixeng/strix/internal/transducer"
)

// MinimalReachableStates returns, for each transducer state index, whether
// a minimum-cardinality reachable set (spec.md §4.7.1) includes it. The
// search grows the "number of states known false" by one each round via an
// incremental sequential-counter cardinality constraint, keeping the best
// model seen until the next round goes unsatisfiable.
func MinimalReachableStates(m *transducer.Machine) ([]bool, error) {
	n := m.NumStates()
	b := satcnf.New()
	r := make([]z.Lit, n)
	for i := range r {
		r[i] = b.NewLit()
	}
	b.AddClause(r[int(m.Initial)])

	for v, transitions := range m.States {
		if m.Winner == pgame.System {
			// Mealy: if v is reachable, every transition's chosen input
			// must still land on some reachable successor.
			for _, t := range transitions {
				lits := make([]z.Lit, 0, len(t.Outputs)+1)
				lits = append(lits, r[v].Not())
				for _, o := range t.Outputs {
					lits = append(lits, r[int(o.Next)])
				}
				b.AddClause(lits...)
			}
		} else {
			// Moore: if v is reachable, some output action must be the
			// one actually taken, and that action's successor is
			// reachable too.
			for _, t := range transitions {
				aux := make([]z.Lit, len(t.Outputs))
				for k := range aux {
					aux[k] = b.NewLit()
				}
				lits := append([]z.Lit{r[v].Not()}, aux...)
				b.AddClause(lits...)
				for k, o := range t.Outputs {
					b.AddClause(aux[k].Not(), r[int(o.Next)])
				}
			}
		}
	}

	if b.Solve() != satcnf.Sat {
		return nil, errors.New("minimize: reachability instance unexpectedly unsat")
	}
	best := b.Model(r)

	counter := satcnf.NewSequentialCounter(b)
	for _, lit := range r {
		counter.Add(lit)
	}
	for k := 1; k < n; k++ {
		counter.AtLeastFalse(k)
		if b.Solve() != satcnf.Sat {
			break
		}
		best = b.Model(r)
	}
	return best, nil
}

// ApplyReachability drops every state MinimalReachableStates marked false
// and relinks transitions to the resulting compact indices.
func ApplyReachability(m *transducer.Machine, reachable []bool) *transducer.Machine {
	remap := make([]transducer.State, len(reachable))
	keep := make([]transducer.State, 0, len(reachable))
	for v, ok := range reachable {
		if !ok {
			continue
		}
		remap[v] = transducer.State(len(keep))
		keep = append(keep, transducer.State(v))
	}

	states := make([][]transducer.Transition, len(keep))
	for newIdx, oldIdx := range keep {
		old := m.States[oldIdx]
		relinked := make([]transducer.Transition, len(old))
		for i, t := range old {
			outs := make([]transducer.OutputBranch, len(t.Outputs))
			for j, o := range t.Outputs {
				outs[j] = transducer.OutputBranch{OutputBDD: o.OutputBDD, Next: remap[int(o.Next)]}
			}
			relinked[i] = transducer.Transition{InputBDD: t.InputBDD, Outputs: outs}
		}
		states[newIdx] = relinked
	}

	return &transducer.Machine{
		Winner:  m.Winner,
		Inputs:  m.Inputs,
		Outputs: m.Outputs,
		Initial: remap[int(m.Initial)],
		States:  states,
	}
}
