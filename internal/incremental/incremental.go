// Package incremental interleaves on-the-fly exploration with parity-game
// solving (spec.md §4.5, component C5): each round grows the two winning
// regions discovered so far, tries to close the gap with one inner-solver
// call per player, and reports realizability as soon as the initial vertex
// falls into either region. This mirrors the teacher's agent.go driving loop
// (alternate a cheap local step against a shared running state until a
// stopping condition fires) generalized from self-play rounds to solver
// rounds.
package incremental

import (
	"time"

	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/solver"
)

// Result is the outcome of one Solve round.
type Result int

const (
	Unknown Result = iota
	RealizableEven
	RealizableOdd
)

func (r Result) String() string {
	switch r {
	case RealizableEven:
		return "Even"
	case RealizableOdd:
		return "Odd"
	default:
		return "None"
	}
}

// Solver holds the running winning regions across successive rounds of
// exploration + solving.
type Solver struct {
	algo    solver.Algorithm
	winEven solver.Set
	winOdd  solver.Set
}

// New creates an incremental solver that dispatches inner solves to algo.
func New(algo solver.Algorithm) *Solver {
	return &Solver{algo: algo}
}

func border(g *pgame.Game) solver.Set {
	n := g.NumVertices()
	b := solver.NewSet(n)
	for v := 0; v < n; v++ {
		if !g.Vertex(pgame.Vertex(v)).Expanded {
			b.Add(pgame.Vertex(v))
		}
	}
	return b
}

func regionFor(s *Solver, p pgame.Owner) *solver.Set {
	if p == pgame.System {
		return &s.winEven
	}
	return &s.winOdd
}

// Solve runs one round against game's current (possibly just-grown) state
// and returns the realizability verdict known so far.
func (s *Solver) Solve(g *pgame.Game) Result {
	n := g.NumVertices()
	empty := solver.NewSet(n)

	s.winEven = s.winEven.Grow(n)
	s.winOdd = s.winOdd.Grow(n)
	s.winEven = solver.Attract(g, empty, s.winEven, pgame.System)
	s.winOdd = solver.Attract(g, empty, s.winOdd, pgame.Environment)

	b := border(g)

	for _, p := range [...]pgame.Owner{pgame.System, pgame.Environment} {
		opp := p.Opponent()
		winP := regionFor(s, p)
		winOpp := regionFor(s, opp)

		disabled := winOpp.Clone()
		disabled.Union(b)

		avoidingWinP := solver.Attract(g, *winP, disabled, opp)
		disabled.Union(avoidingWinP)

		unrestricted := solver.Attract(g, empty, disabled, opp)
		disabled.Union(unrestricted)

		disabled.Union(*winP)

		region, _ := s.algo.Solve(g, disabled, p, false)
		winP.Union(region)
	}

	switch {
	case s.winEven.Has(g.Initial()):
		return RealizableEven
	case s.winOdd.Has(g.Initial()):
		return RealizableOdd
	default:
		return Unknown
	}
}

// Strategy computes a positional strategy for player over the current game,
// restricting away the frontier by attracting it for the opponent first so
// unexplored border vertices never appear as a chosen successor.
func (s *Solver) Strategy(g *pgame.Game, player pgame.Owner) solver.Strategy {
	n := g.NumVertices()
	b := border(g)
	disabled := solver.Attract(g, solver.NewSet(n), b, player.Opponent())
	_, strat := s.algo.Solve(g, disabled, player, true)
	return strat
}

// WinEven and WinOdd expose the running regions for diagnostics/dot dumps.
func (s *Solver) WinEven() solver.Set { return s.winEven }
func (s *Solver) WinOdd() solver.Set  { return s.winOdd }

// BudgetOption selects which resource an exploration round is bounded by
// (spec.md §4.5's orchestrator policy table).
type BudgetOption int

const (
	BudgetUnlimited BudgetOption = iota
	BudgetNodes
	BudgetEdges
	BudgetStates
	BudgetDuration
	BudgetMultiplier
)

// Budget is one parsed "-x<num>" exploration-budget flag.
type Budget struct {
	Option BudgetOption
	Num    int
}

// Limit converts Budget into the pgame.Limit for the next Explore call.
// solverElapsed/explorerElapsed are the cumulative times spent in the solver
// and in exploration so far, used only by BudgetMultiplier.
func (b Budget) Limit(solverElapsed, explorerElapsed time.Duration) pgame.Limit {
	switch b.Option {
	case BudgetNodes:
		return pgame.Limit{Kind: pgame.LimitNodes, Count: b.Num}
	case BudgetEdges:
		return pgame.Limit{Kind: pgame.LimitEdges, Count: b.Num}
	case BudgetStates:
		return pgame.Limit{Kind: pgame.LimitStates, Count: b.Num}
	case BudgetDuration:
		return pgame.Limit{Kind: pgame.LimitDuration, Duration: time.Duration(b.Num) * time.Second}
	case BudgetMultiplier:
		d := solverElapsed*time.Duration(b.Num) - explorerElapsed
		if d < 0 {
			d = 0
		}
		return pgame.Limit{Kind: pgame.LimitDuration, Duration: d}
	default:
		return pgame.NoLimit
	}
}
