package minimize

import (
	"sort"

	"github.com/irifrance/gini/z"
	"github.com/pkg/errors"

	"github.com/strixeng/strix/internal/bdd"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/satcnf"
	"github.com/strixeng/strix/internal/transducer"
)

// action is one "uncontrollable action" a state offers: the input guard
// for Mealy, the output guard for Moore, paired with the successor it
// leads to.
type action struct {
	guard bdd.Ref
	succ  transducer.State
}

func actionsOf(m *transducer.Machine, s transducer.State) []action {
	var out []action
	if m.Winner == pgame.System {
		for _, t := range m.States[s] {
			out = append(out, action{guard: t.InputBDD, succ: t.Outputs[0].Next})
		}
	} else {
		for _, o := range m.States[s][0].Outputs {
			out = append(out, action{guard: o.OutputBDD, succ: o.Next})
		}
	}
	return out
}

func intersects(mgr *bdd.Manager, a, b bdd.Ref) (bool, bdd.Ref, error) {
	i, err := mgr.And(a, b)
	if err != nil {
		return false, nil, err
	}
	return !mgr.IsZero(i), i, nil
}

func actionMgr(m *transducer.Machine) *bdd.Manager {
	if m.Winner == pgame.System {
		return m.Inputs
	}
	return m.Outputs
}

// predecessorEntry groups predecessors that reach a state under the same
// (deduplicated) action guard.
type predecessorEntry struct {
	guard        bdd.Ref
	predecessors []transducer.State
}

type predecessorMap [][]predecessorEntry

func buildPredecessorMap(m *transducer.Machine) predecessorMap {
	pm := make(predecessorMap, m.NumStates())
	byGuardID := make([]map[int]int, m.NumStates())
	for i := range byGuardID {
		byGuardID[i] = make(map[int]int)
	}
	for s := 0; s < m.NumStates(); s++ {
		for _, a := range actionsOf(m, transducer.State(s)) {
			succ := int(a.succ)
			gid := bdd.ID(a.guard)
			if idx, ok := byGuardID[succ][gid]; ok {
				pm[succ][idx].predecessors = append(pm[succ][idx].predecessors, transducer.State(s))
				continue
			}
			byGuardID[succ][gid] = len(pm[succ])
			pm[succ] = append(pm[succ], predecessorEntry{guard: a.guard, predecessors: []transducer.State{transducer.State(s)}})
		}
	}
	return pm
}

// IncompatibilityMatrix records, for every pair of states, whether some
// common action witnesses they can never be merged (spec.md §4.7.2 step 2).
type IncompatibilityMatrix struct {
	n            int
	incompatible []bool
}

func (mat *IncompatibilityMatrix) at(i, j int) bool { return mat.incompatible[i*mat.n+j] }

func (mat *IncompatibilityMatrix) set(i, j int) {
	mat.incompatible[i*mat.n+j] = true
	mat.incompatible[j*mat.n+i] = true
}

// ComputeIncompatibility builds the matrix, seeding direct incompatibility
// from disjoint continuations under an overlapping action guard, then
// propagating backward through the predecessor map.
func ComputeIncompatibility(m *transducer.Machine) (*IncompatibilityMatrix, error) {
	n := m.NumStates()
	mat := &IncompatibilityMatrix{n: n, incompatible: make([]bool, n*n)}
	pm := buildPredecessorMap(m)
	mgr := actionMgr(m)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if mat.at(i, j) {
				continue
			}
			inc, err := statesIncompatible(m, mgr, transducer.State(i), transducer.State(j))
			if err != nil {
				return nil, err
			}
			if inc {
				mat.set(i, j)
				if err := mat.propagate(i, j, pm, mgr); err != nil {
					return nil, err
				}
			}
		}
	}
	return mat, nil
}

func statesIncompatible(m *transducer.Machine, mgr *bdd.Manager, s1, s2 transducer.State) (bool, error) {
	a1 := actionsOf(m, s1)
	a2 := actionsOf(m, s2)
	if m.Winner == pgame.System {
		for _, x := range a1 {
			for _, y := range a2 {
				overlap, _, err := intersects(mgr, x.guard, y.guard)
				if err != nil {
					return false, err
				}
				if !overlap {
					continue
				}
				disjointOutputs, err := outputsDisjoint(m, s1, s2, x, y)
				if err != nil {
					return false, err
				}
				if disjointOutputs {
					return true, nil
				}
			}
		}
		return false, nil
	}
	// Moore: the state's own single input guard stands in for "common
	// action"; disjoint guards make the states trivially incompatible
	// since no input ever visits both.
	g1 := m.States[s1][0].InputBDD
	g2 := m.States[s2][0].InputBDD
	return m.Inputs.IsZero(mustAnd(m.Inputs, g1, g2)), nil
}

func mustAnd(mgr *bdd.Manager, a, b bdd.Ref) bdd.Ref {
	r, err := mgr.And(a, b)
	if err != nil {
		return mgr.Zero()
	}
	return r
}

// outputsDisjoint compares the Mealy output BDDs attached to the specific
// transitions x/y came from (there is exactly one output per transition in
// a deterministic machine, matching the precondition of this pass).
func outputsDisjoint(m *transducer.Machine, s1, s2 transducer.State, x, y action) (bool, error) {
	out1 := findOutputFor(m, s1, x)
	out2 := findOutputFor(m, s2, y)
	i, err := m.Outputs.And(out1, out2)
	if err != nil {
		return false, err
	}
	return m.Outputs.IsZero(i), nil
}

func findOutputFor(m *transducer.Machine, s transducer.State, a action) bdd.Ref {
	for _, t := range m.States[s] {
		if bdd.ID(t.InputBDD) == bdd.ID(a.guard) {
			return t.Outputs[0].OutputBDD
		}
	}
	return m.Outputs.Zero()
}

func (mat *IncompatibilityMatrix) propagate(i, j int, pm predecessorMap, mgr *bdd.Manager) error {
	type pair struct{ i, j int }
	queue := []pair{{i, j}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, pre1 := range pm[p.i] {
			for _, pre2 := range pm[p.j] {
				overlap, _, err := intersects(mgr, pre1.guard, pre2.guard)
				if err != nil {
					return err
				}
				if !overlap {
					continue
				}
				for _, s1 := range pre1.predecessors {
					for _, s2 := range pre2.predecessors {
						if !mat.at(int(s1), int(s2)) {
							mat.set(int(s1), int(s2))
							queue = append(queue, pair{int(s1), int(s2)})
						}
					}
				}
			}
		}
	}
	return nil
}

// TransitivelyCompatibleClasses returns the weakly connected components of
// the complement of the incompatibility graph (spec.md §4.7.2 step 3).
func (mat *IncompatibilityMatrix) TransitivelyCompatibleClasses() [][]int {
	processed := make([]bool, mat.n)
	var classes [][]int
	for i := 0; i < mat.n; i++ {
		if processed[i] {
			continue
		}
		processed[i] = true
		class := []int{i}
		queue := []int{i}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for j := 0; j < mat.n; j++ {
				if !processed[j] && !mat.at(v, j) {
					processed[j] = true
					class = append(class, j)
					queue = append(queue, j)
				}
			}
		}
		classes = append(classes, class)
	}
	return classes
}

// PairwiseIncompatibleWitness greedily picks states such that each one is
// incompatible with every previously chosen one, visiting states in
// descending order of total incompatibility count (spec.md §4.7.2 step 4).
func (mat *IncompatibilityMatrix) PairwiseIncompatibleWitness() []int {
	type scored struct{ state, count int }
	rows := make([]scored, mat.n)
	for i := 0; i < mat.n; i++ {
		c := 0
		for j := 0; j < mat.n; j++ {
			if mat.at(i, j) {
				c++
			}
		}
		rows[i] = scored{i, c}
	}
	sort.Slice(rows, func(a, b int) bool { return rows[a].count > rows[b].count })

	var witness []int
	for _, r := range rows {
		ok := true
		for _, w := range witness {
			if !mat.at(r.state, w) {
				ok = false
				break
			}
		}
		if ok {
			witness = append(witness, r.state)
		}
	}
	return witness
}

// SplitActions rewrites every class in classes so its member states share
// one common disjoint refinement of their action guards (spec.md §4.7.2
// step 5): iteratively split overlapping guards with the queue-based
// refinement the original engine uses, then re-expand each state's
// transitions over the shared refined partition.
func SplitActions(m *transducer.Machine, classes [][]int) (*transducer.Machine, error) {
	mgr := actionMgr(m)
	newStates := make([][]transducer.Transition, m.NumStates())

	for _, class := range classes {
		refined, err := disjointActionSet(m, mgr, class)
		if err != nil {
			return nil, err
		}
		for _, s := range class {
			if m.Winner == pgame.System {
				var transitions []transducer.Transition
				for _, t := range m.States[s] {
					for _, g := range refined {
						overlap, _, err := intersects(mgr, g, t.InputBDD)
						if err != nil {
							return nil, err
						}
						if !overlap {
							continue
						}
						transitions = append(transitions, transducer.Transition{InputBDD: g, Outputs: t.Outputs})
					}
				}
				sort.Slice(transitions, func(a, b int) bool { return bdd.ID(transitions[a].InputBDD) < bdd.ID(transitions[b].InputBDD) })
				newStates[s] = transitions
			} else {
				t := m.States[s][0]
				var outs []transducer.OutputBranch
				for _, o := range t.Outputs {
					for _, g := range refined {
						overlap, _, err := intersects(mgr, g, o.OutputBDD)
						if err != nil {
							return nil, err
						}
						if !overlap {
							continue
						}
						outs = append(outs, transducer.OutputBranch{OutputBDD: g, Next: o.Next})
					}
				}
				sort.Slice(outs, func(a, b int) bool { return bdd.ID(outs[a].OutputBDD) < bdd.ID(outs[b].OutputBDD) })
				newStates[s] = []transducer.Transition{{InputBDD: t.InputBDD, Outputs: outs}}
			}
		}
	}

	return &transducer.Machine{
		Winner:  m.Winner,
		Inputs:  m.Inputs,
		Outputs: m.Outputs,
		Initial: m.Initial,
		States:  newStates,
	}, nil
}

// disjointActionSet computes a set of pairwise-disjoint guards whose union
// equals the union of class's action guards, by repeatedly splitting any
// overlapping pair into (intersection, two differences).
func disjointActionSet(m *transducer.Machine, mgr *bdd.Manager, class []int) ([]bdd.Ref, error) {
	var queue []bdd.Ref
	for _, s := range class {
		for _, a := range actionsOf(m, transducer.State(s)) {
			queue = append(queue, a.guard)
		}
	}

	seen := make(map[int]bdd.Ref)
	order := []int{}
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		gid := bdd.ID(g)
		if _, ok := seen[gid]; ok {
			continue
		}

		var splitWith int = -1
		var intersection bdd.Ref
		for _, oid := range order {
			o := seen[oid]
			overlap, inter, err := intersects(mgr, o, g)
			if err != nil {
				return nil, err
			}
			if overlap {
				splitWith = oid
				intersection = inter
				break
			}
		}
		if splitWith == -1 {
			seen[gid] = g
			order = append(order, gid)
			continue
		}

		other := seen[splitWith]
		diffG, err := diffBDD(mgr, g, intersection)
		if err != nil {
			return nil, err
		}
		diffOther, err := diffBDD(mgr, other, intersection)
		if err != nil {
			return nil, err
		}
		switch {
		case mgr.IsZero(diffG):
			delete(seen, splitWith)
			removeID(&order, splitWith)
			addGuard(mgr, &seen, &order, intersection)
			addGuard(mgr, &seen, &order, diffOther)
		case mgr.IsZero(diffOther):
			queue = append(queue, diffG)
		default:
			delete(seen, splitWith)
			removeID(&order, splitWith)
			queue = append(queue, diffG)
			addGuard(mgr, &seen, &order, intersection)
			addGuard(mgr, &seen, &order, diffOther)
		}
	}

	out := make([]bdd.Ref, 0, len(order))
	for _, id := range order {
		out = append(out, seen[id])
	}
	return out, nil
}

func addGuard(mgr *bdd.Manager, seen *map[int]bdd.Ref, order *[]int, g bdd.Ref) {
	id := bdd.ID(g)
	if _, ok := (*seen)[id]; ok {
		return
	}
	(*seen)[id] = g
	*order = append(*order, id)
}

func removeID(order *[]int, id int) {
	for i, v := range *order {
		if v == id {
			*order = append((*order)[:i], (*order)[i+1:]...)
			return
		}
	}
}

func diffBDD(mgr *bdd.Manager, a, b bdd.Ref) (bdd.Ref, error) {
	nb, err := mgr.Not(b)
	if err != nil {
		return nil, err
	}
	return mgr.And(a, nb)
}

// MeMin runs the full incompletely-specified-machine minimization pipeline
// (spec.md §4.7.2): compute pairwise incompatibility, split each
// transitively-compatible class onto a shared disjoint action refinement,
// then search for the smallest SAT-satisfiable covering starting from the
// pairwise-incompatible witness's size and growing one class at a time.
func MeMin(m *transducer.Machine) (*transducer.Machine, error) {
	mat, err := ComputeIncompatibility(m)
	if err != nil {
		return nil, errors.Wrap(err, "minimize: incompatibility matrix")
	}
	classes := mat.TransitivelyCompatibleClasses()
	split, err := SplitActions(m, classes)
	if err != nil {
		return nil, errors.Wrap(err, "minimize: split actions")
	}
	splitMat, err := ComputeIncompatibility(split)
	if err != nil {
		return nil, errors.Wrap(err, "minimize: post-split incompatibility matrix")
	}
	witness := splitMat.PairwiseIncompatibleWitness()

	for numStates := len(witness); numStates <= split.NumStates(); numStates++ {
		result, err := FindCoveringMachine(split, splitMat, witness, numStates)
		if err != nil {
			return nil, errors.Wrap(err, "minimize: covering search")
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, errors.New("minimize: no covering machine found up to the original state count")
}

// FindCoveringMachine searches for a machine with numStates states that
// covers m (spec.md §4.7.2 step 6), using the MeMin SAT-covering encoding:
// every state assigned to some class, incompatible states kept apart, and
// a closure constraint per (class, action) pair linking to a consistent
// successor class. SplitActions must already have been applied to m and
// classes, so every state in a class exposes the same action partition.
func FindCoveringMachine(m *transducer.Machine, mat *IncompatibilityMatrix, witness []int, numStates int) (*transducer.Machine, error) {
	n := m.NumStates()
	b := satcnf.New()

	classStateVars := make([][]z.Lit, numStates)
	for i := range classStateVars {
		classStateVars[i] = make([]z.Lit, n)
		for s := 0; s < n; s++ {
			classStateVars[i][s] = b.NewLit()
		}
	}

	for s := 0; s < n; s++ {
		lits := make([]z.Lit, numStates)
		for i := 0; i < numStates; i++ {
			lits[i] = classStateVars[i][s]
		}
		b.AddClause(lits...)
	}

	for i, s := range witness {
		if i >= numStates {
			break
		}
		b.AddClause(classStateVars[i][s])
	}

	possibleStates := make([][]int, numStates)
	for i := 0; i < numStates; i++ {
		for s1 := 0; s1 < n; s1++ {
			if i < len(witness) && mat.at(s1, witness[i]) {
				continue
			}
			possibleStates[i] = append(possibleStates[i], s1)
		}
	}

	for i := 0; i < numStates; i++ {
		if i < len(witness) {
			w := witness[i]
			for s1 := 0; s1 < n; s1++ {
				if mat.at(s1, w) {
					b.AddClause(classStateVars[i][s1].Not())
				}
			}
			continue
		}
		for s1 := 0; s1 < n; s1++ {
			for s2 := s1 + 1; s2 < n; s2++ {
				if mat.at(s1, s2) {
					b.AddClause(classStateVars[i][s1].Not(), classStateVars[i][s2].Not())
				}
			}
		}
	}

	numActions := 0
	for s := 0; s < n; s++ {
		na := numActionsOf(m, transducer.State(s))
		if na > numActions {
			numActions = na
		}
	}

	classSuccessors := make([][][]classVar, numStates)
	for i := 0; i < numStates; i++ {
		classSuccessors[i] = make([][]classVar, numActions)
		for a := 0; a < numActions; a++ {
			succClasses := make(map[int]bool)
			for _, s := range possibleStates[i] {
				succ, ok := successorUnderAction(m, transducer.State(s), a)
				if !ok {
					continue
				}
				for j := 0; j < numStates; j++ {
					if j < len(witness) && mat.at(int(succ), witness[j]) {
						continue
					}
					succClasses[j] = true
				}
			}
			if len(succClasses) == 0 {
				continue
			}
			jids := make([]int, 0, len(succClasses))
			for j := range succClasses {
				jids = append(jids, j)
			}
			sort.Ints(jids)

			mapping := make([]classVar, len(jids))
			lits := make([]z.Lit, len(jids))
			for k, j := range jids {
				v := b.NewLit()
				mapping[k] = classVar{class: j, lit: v}
				lits[k] = v
			}
			b.AddClause(lits...)

			for _, s := range possibleStates[i] {
				succ, ok := successorUnderAction(m, transducer.State(s), a)
				if !ok {
					continue
				}
				for _, cv := range mapping {
					b.AddClause(cv.lit.Not(), classStateVars[i][s].Not(), classStateVars[cv.class][int(succ)])
				}
			}
			classSuccessors[i][a] = mapping
		}
	}

	if b.Solve() != satcnf.Sat {
		return nil, nil
	}

	classes := make([][]transducer.State, numStates)
	for i := 0; i < numStates; i++ {
		for s := 0; s < n; s++ {
			if b.Value(classStateVars[i][s]) {
				classes[i] = append(classes[i], transducer.State(s))
			}
		}
	}
	successors := make([][][]int, numStates)
	for i := 0; i < numStates; i++ {
		successors[i] = make([][]int, numActions)
		for a, mapping := range classSuccessors[i] {
			for _, cv := range mapping {
				if b.Value(cv.lit) {
					successors[i][a] = append(successors[i][a], cv.class)
				}
			}
		}
	}

	return buildMachineFromClasses(m, classes, successors, numActions)
}

type classVar struct {
	class int
	lit   z.Lit
}

func numActionsOf(m *transducer.Machine, s transducer.State) int {
	if m.Winner == pgame.System {
		return len(m.States[s])
	}
	return len(m.States[s][0].Outputs)
}

func successorUnderAction(m *transducer.Machine, s transducer.State, a int) (transducer.State, bool) {
	if m.Winner == pgame.System {
		if a >= len(m.States[s]) {
			return 0, false
		}
		return m.States[s][a].Outputs[0].Next, true
	}
	outs := m.States[s][0].Outputs
	if a >= len(outs) {
		return 0, false
	}
	return outs[a].Next, true
}

func buildMachineFromClasses(m *transducer.Machine, classes [][]transducer.State, successors [][][]int, numActions int) (*transducer.Machine, error) {
	var initial transducer.State
	for i, class := range classes {
		for _, s := range class {
			if s == m.Initial {
				initial = transducer.State(i)
			}
		}
	}

	states := make([][]transducer.Transition, len(classes))
	for i, class := range classes {
		if len(class) == 0 {
			return nil, errors.Errorf("minimize: class %d is empty in covering solution", i)
		}
		rep := class[0]

		if m.Winner == pgame.System {
			var transitions []transducer.Transition
			for a := 0; a < numActions && a < len(m.States[rep]); a++ {
				if len(successors[i][a]) == 0 {
					continue
				}
				input := m.States[rep][a].InputBDD
				output := m.States[rep][a].Outputs[0].OutputBDD
				for _, other := range class[1:] {
					if a < len(m.States[other]) {
						var err error
						output, err = m.Outputs.And(output, m.States[other][a].Outputs[0].OutputBDD)
						if err != nil {
							return nil, err
						}
					}
				}
				transitions = append(transitions, transducer.Transition{
					InputBDD: input,
					Outputs:  []transducer.OutputBranch{{OutputBDD: output, Next: transducer.State(successors[i][a][0])}},
				})
			}
			states[i] = transitions
		} else {
			input := m.States[rep][0].InputBDD
			for _, other := range class[1:] {
				var err error
				input, err = m.Inputs.And(input, m.States[other][0].InputBDD)
				if err != nil {
					return nil, err
				}
			}
			var outs []transducer.OutputBranch
			for a := 0; a < numActions && a < len(m.States[rep][0].Outputs); a++ {
				if len(successors[i][a]) == 0 {
					continue
				}
				output := m.States[rep][0].Outputs[a].OutputBDD
				outs = append(outs, transducer.OutputBranch{OutputBDD: output, Next: transducer.State(successors[i][a][0])})
			}
			states[i] = []transducer.Transition{{InputBDD: input, Outputs: outs}}
		}
	}

	return &transducer.Machine{
		Winner:  m.Winner,
		Inputs:  m.Inputs,
		Outputs: m.Outputs,
		Initial: initial,
		States:  states,
	}, nil
}
