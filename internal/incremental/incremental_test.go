package incremental

import (
	"testing"
	"time"

	"github.com/strixeng/strix/internal/edgetree"
	"github.com/strixeng/strix/internal/equeue"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/solver"
	"github.com/strixeng/strix/internal/translator"
)

// buildFixtureGame mirrors internal/solver's safety-game fixture so this
// package's round-based driving loop can be exercised end to end without a
// real LTL parser.
func buildFixtureGame() *pgame.Game {
	automaton := &translator.ExplicitAutomaton{
		InitialState: 0,
		Kind:         translator.Safety,
		NumColorsRaw: 1,
		States: map[int]translator.StateSpec{
			0: {Tree: translator.EdgeTreeData{
				Nodes: []int{0, -1, -2},
				Edges: []int{translator.Bottom, 0, 1, 0},
			}},
			1: {Tree: translator.EdgeTreeData{
				Nodes: []int{0, -1, -2},
				Edges: []int{1, 0, translator.Bottom, 0},
			}},
		},
	}
	props := &proposition.Set{Outputs: []string{"a"}}
	store := edgetree.NewStore(automaton)
	queue := equeue.New(equeue.BFS)
	c := pgame.New(automaton, store, props, queue)
	if err := c.Explore(pgame.NoLimit); err != nil {
		panic(err)
	}
	return c.Game()
}

func TestSolveOnFullyExploredGameReportsRealizableEven(t *testing.T) {
	g := buildFixtureGame()
	s := New(solver.FPI{})
	if got := s.Solve(g); got != RealizableEven {
		t.Fatalf("Solve() = %v, want RealizableEven", got)
	}
	if !s.WinEven().Has(g.Initial()) {
		t.Fatal("WinEven() should contain the initial vertex")
	}
}

func TestStrategyMatchesDirectSolve(t *testing.T) {
	g := buildFixtureGame()
	s := New(solver.FPI{})
	s.Solve(g)

	strat := s.Strategy(g, pgame.System)
	if strat[pgame.Vertex(0)] != pgame.Vertex(2) {
		t.Fatalf("Strategy()[0] = %v, want 2", strat[pgame.Vertex(0)])
	}
	if strat[pgame.Vertex(3)] != pgame.Vertex(5) {
		t.Fatalf("Strategy()[3] = %v, want 5", strat[pgame.Vertex(3)])
	}
}

func TestBudgetLimitMapping(t *testing.T) {
	cases := []struct {
		name string
		b    Budget
		want pgame.LimitKind
	}{
		{"nodes", Budget{Option: BudgetNodes, Num: 3}, pgame.LimitNodes},
		{"edges", Budget{Option: BudgetEdges, Num: 3}, pgame.LimitEdges},
		{"states", Budget{Option: BudgetStates, Num: 3}, pgame.LimitStates},
		{"duration", Budget{Option: BudgetDuration, Num: 3}, pgame.LimitDuration},
		{"unlimited", Budget{Option: BudgetUnlimited}, pgame.LimitNone},
	}
	for _, c := range cases {
		got := c.b.Limit(0, 0)
		if got.Kind != c.want {
			t.Errorf("%s: Limit().Kind = %v, want %v", c.name, got.Kind, c.want)
		}
	}
	durationBudget := Budget{Option: BudgetDuration, Num: 2}
	if got := durationBudget.Limit(0, 0).Duration; got != 2*time.Second {
		t.Fatalf("duration budget = %v, want 2s", got)
	}
}

func TestBudgetMultiplierNeverNegative(t *testing.T) {
	b := Budget{Option: BudgetMultiplier, Num: 2}
	lim := b.Limit(1*time.Second, 5*time.Second)
	if lim.Duration != 0 {
		t.Fatalf("multiplier duration = %v, want 0 when explorer already exceeds solver*multiplier", lim.Duration)
	}
	lim2 := b.Limit(5*time.Second, 1*time.Second)
	if lim2.Duration != 9*time.Second {
		t.Fatalf("multiplier duration = %v, want 9s", lim2.Duration)
	}
}
