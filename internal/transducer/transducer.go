// Package transducer builds a symbolic Mealy/Moore machine from a solved
// game, its strategy and the underlying automaton's edge trees (spec.md
// §4.6, component C6). It walks the edge tree twice per game state — once
// over input-owned branches, once over output-owned branches — and labels
// each surviving path with the BDD of valuations that traverse it,
// following the teacher's breadth-first frontier idiom (mcts/search.go
// expands one node's children at a time from a work queue) generalized
// from a single best-child choice to "every choice the non-winner could
// make, one choice for the winner".
package transducer

import (
	"math"

	"github.com/pkg/errors"

	"github.com/strixeng/strix/internal/bdd"
	"github.com/strixeng/strix/internal/edgetree"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/solver"
)

// State is a transducer-local state index, interned by automaton state.
type State int

// OutputBranch is one (output valuation, successor state) arm of a
// transition.
type OutputBranch struct {
	OutputBDD bdd.Ref
	Next      State
}

// Transition is one input-guarded arm of a state: InputBDD is true exactly
// for the input valuations that take this transition; Outputs lists every
// reachable (output valuation, next state) pair under it.
type Transition struct {
	InputBDD bdd.Ref
	Outputs  []OutputBranch
}

// Machine is the symbolic transducer: Mealy if Winner is System, Moore
// otherwise (spec.md §3's transducer data model). In Moore form a state has
// one Transition per input branch the strategy leaves open (a single one
// where the strategy records a choice at every input-owned node), and its
// InputBDD is that branch's input valuation, which is One() only when the
// state's edge tree does not branch on an input.
type Machine struct {
	Winner  pgame.Owner
	Inputs  *bdd.Manager
	Outputs *bdd.Manager
	Initial State

	// States[i] are the transitions leaving transducer state i.
	States [][]Transition

	// AutomatonStates[i] is the DPA state index transducer state i was
	// interned from, in the same order as States. internal/symbolic uses it
	// to drive the automaton-decomposition structured labelling (spec.md
	// §4.8.1).
	AutomatonStates []int
}

// Builder drives the walk described in spec.md §4.6.
type Builder struct {
	automaton interface {
		Initial() int
	}
	store    *edgetree.Store
	game     *pgame.Game
	strategy solver.Strategy
	winner   pgame.Owner
	props    *proposition.Set

	inputsMgr  *bdd.Manager
	outputsMgr *bdd.Manager
	statusIn   bdd.Ref
	statusOut  bdd.Ref

	stateOf map[int]State
	queue   []int // automaton states pending expansion, indexed in tandem with machine.States
	machine *Machine

	pathMemo map[pathKey]bdd.Ref
}

type pathKey struct {
	state        int
	source, target edgetree.TreeIndex
	shift        int
}

// New creates a Builder. automaton must expose at least Initial(); it is
// typically a translator.Automaton. game/strategy/store must have been
// produced together (store drives game, strategy is solver output over
// game), winner selects Mealy (System) vs Moore (Environment).
func New(automaton interface{ Initial() int }, store *edgetree.Store, game *pgame.Game, strategy solver.Strategy, winner pgame.Owner, props *proposition.Set) (*Builder, error) {
	inputsMgr, err := bdd.NewManager(max1(props.NumInputs()), props.Inputs)
	if err != nil {
		return nil, errors.Wrap(err, "transducer: input manager")
	}
	outputsMgr, err := bdd.NewManager(max1(props.NumOutputs()), props.Outputs)
	if err != nil {
		return nil, errors.Wrap(err, "transducer: output manager")
	}

	b := &Builder{
		automaton:  automaton,
		store:      store,
		game:       game,
		strategy:   strategy,
		winner:     winner,
		props:      props,
		inputsMgr:  inputsMgr,
		outputsMgr: outputsMgr,
		stateOf:    make(map[int]State),
		pathMemo:   make(map[pathKey]bdd.Ref),
	}
	if b.statusIn, err = statusConstraint(inputsMgr, props, 0, props.NumInputs()); err != nil {
		return nil, err
	}
	if b.statusOut, err = statusConstraint(outputsMgr, props, props.NumInputs(), props.Total()); err != nil {
		return nil, err
	}
	return b, nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// statusConstraint builds the conjunction that forces every ForcedTrue
// proposition in [lo,hi) to true and every ForcedFalse one to false.
func statusConstraint(mgr *bdd.Manager, props *proposition.Set, lo, hi int) (bdd.Ref, error) {
	acc := mgr.One()
	for v := lo; v < hi; v++ {
		value, ok := props.StatusOf(v).Forced()
		if !ok {
			continue
		}
		var lit bdd.Ref
		var err error
		if value {
			lit, err = mgr.Var(v - lo)
		} else {
			lit, err = mgr.NVar(v - lo)
		}
		if err != nil {
			return nil, err
		}
		if acc, err = mgr.And(acc, lit); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Build runs the full breadth-first walk and returns the resulting machine.
func (b *Builder) Build() (*Machine, error) {
	b.machine = &Machine{Winner: b.winner, Inputs: b.inputsMgr, Outputs: b.outputsMgr}
	b.machine.Initial = b.internState(b.automaton.Initial())

	for i := 0; i < len(b.queue); i++ {
		state := b.queue[i]
		transitions, err := b.expandState(state)
		if err != nil {
			return nil, errors.Wrapf(err, "transducer: expanding state %d", state)
		}
		b.machine.States = append(b.machine.States, transitions)
	}
	b.machine.AutomatonStates = append([]int(nil), b.queue...)
	return b.machine, nil
}

func (b *Builder) internState(automatonState int) State {
	if s, ok := b.stateOf[automatonState]; ok {
		return s
	}
	s := State(len(b.queue))
	b.stateOf[automatonState] = s
	b.queue = append(b.queue, automatonState)
	return s
}

func (b *Builder) expandState(state int) ([]Transition, error) {
	tree, err := b.store.Get(state)
	if err != nil {
		return nil, err
	}

	inputFrontier, err := b.expandBranches(state, tree, edgetree.Root, pgame.Environment)
	if err != nil {
		return nil, err
	}

	var transitions []Transition
	for _, idx := range inputFrontier {
		inputBDD, err := b.bddForPaths(state, tree, edgetree.Root, idx, b.props.NumInputs(), b.inputsMgr, 0)
		if err != nil {
			return nil, err
		}
		if inputBDD, err = b.inputsMgr.And(inputBDD, b.statusIn); err != nil {
			return nil, err
		}

		outputFrontier, err := b.expandBranches(state, tree, idx, pgame.System)
		if err != nil {
			return nil, err
		}

		var outputs []OutputBranch
		for _, leafIdx := range outputFrontier {
			leaf := tree.Nodes[leafIdx]
			outputBDD, err := b.bddForPaths(state, tree, idx, leafIdx, math.MaxInt32, b.outputsMgr, b.props.NumInputs())
			if err != nil {
				return nil, err
			}
			if outputBDD, err = b.outputsMgr.And(outputBDD, b.statusOut); err != nil {
				return nil, err
			}
			outputs = append(outputs, OutputBranch{
				OutputBDD: outputBDD,
				Next:      b.internState(leaf.Successor),
			})
		}
		transitions = append(transitions, Transition{InputBDD: inputBDD, Outputs: outputs})
	}
	return transitions, nil
}

// expandBranches walks the tree from idx, following every branch of
// wantOwner-owned nodes for which the winner's strategy leaves a choice,
// and only the strategy's chosen branch where wantOwner is the winner. It
// stops at the first node that either is a leaf or belongs to the other
// owner, returning the stopping indices.
func (b *Builder) expandBranches(state int, tree *edgetree.Tree, idx edgetree.TreeIndex, wantOwner pgame.Owner) ([]edgetree.TreeIndex, error) {
	node := tree.Nodes[idx]
	if node.IsLeaf {
		return []edgetree.TreeIndex{idx}, nil
	}
	owner := pgame.Environment
	if !b.props.IsInput(node.Var) {
		owner = pgame.System
	}
	if owner != wantOwner {
		return []edgetree.TreeIndex{idx}, nil
	}

	children := []edgetree.TreeIndex{node.Left}
	if node.Right != node.Left {
		children = append(children, node.Right)
	}

	if owner == b.winner {
		v, ok := b.game.Find(state, idx)
		if !ok {
			return nil, errors.Errorf("transducer: no game vertex for state %d tree index %d", state, idx)
		}
		if chosen, ok := b.strategy[v]; ok {
			sd := b.game.Vertex(chosen)
			return b.expandBranches(state, tree, sd.Tree, wantOwner)
		}
		// No strategy recorded (can happen for vertices outside the
		// solved winning region reached only by dead branches); fall
		// through to exploring every branch rather than failing the
		// whole build.
	}

	var out []edgetree.TreeIndex
	for _, c := range children {
		sub, err := b.expandBranches(state, tree, c, wantOwner)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// bddForPaths is the memoized walk from source to target within one
// state's edge tree (spec.md §4.6), stopping early at nodes whose variable
// is >= targetVar and re-indexing variables by -shift for the destination
// manager.
func (b *Builder) bddForPaths(state int, tree *edgetree.Tree, source, target edgetree.TreeIndex, targetVar int, mgr *bdd.Manager, shift int) (bdd.Ref, error) {
	if source == target {
		return mgr.One(), nil
	}
	key := pathKey{state: state, source: source, target: target, shift: shift}
	if r, ok := b.pathMemo[key]; ok {
		return r, nil
	}
	node := tree.Nodes[source]
	if node.IsLeaf || node.Var >= targetVar {
		return mgr.Zero(), nil
	}

	left, err := b.bddForPaths(state, tree, node.Left, target, targetVar, mgr, shift)
	if err != nil {
		return nil, err
	}
	right, err := b.bddForPaths(state, tree, node.Right, target, targetVar, mgr, shift)
	if err != nil {
		return nil, err
	}

	varIdx := node.Var - shift
	nlit, err := mgr.NVar(varIdx)
	if err != nil {
		return nil, err
	}
	plit, err := mgr.Var(varIdx)
	if err != nil {
		return nil, err
	}
	leftTerm, err := mgr.And(nlit, left)
	if err != nil {
		return nil, err
	}
	rightTerm, err := mgr.And(plit, right)
	if err != nil {
		return nil, err
	}
	result, err := mgr.Or(leftTerm, rightTerm)
	if err != nil {
		return nil, err
	}
	b.pathMemo[key] = result
	return result, nil
}

// NumStates returns the number of transducer states discovered so far.
func (m *Machine) NumStates() int { return len(m.States) }
