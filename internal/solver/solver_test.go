package solver

import (
	"testing"

	"github.com/strixeng/strix/internal/edgetree"
	"github.com/strixeng/strix/internal/equeue"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/translator"
)

// buildFixtureGame constructs the same "a & XG!a" safety game used across
// this module's integration tests (spec.md §8's literal example): state 0
// needs a=true or the play falls into Bottom forever (odd, losing for
// System); state 1 needs a=false to self-loop forever (even, winning).
// Vertex creation order is deterministic (BFS exploration, fixed push
// order), yielding indices 0=(0,Root) 1=(0,left->Bottom) 2=(0,right->s1)
// 3=(1,Root) 4=(Bottom,Root) 5=(1,left->s1) 6=(1,right->Bottom).
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

func TestAttractEnvironmentStopsAtSystemEscape(t *testing.T) {
	g := buildFixtureGame()
	seed := AttractSeedVertices(g, pgame.Vertex(4))
	in := Attract(g, nil, seed, pgame.Environment)

	want := map[pgame.Vertex]bool{1: true, 4: true, 6: true}
	for v := pgame.Vertex(0); int(v) < g.NumVertices(); v++ {
		if in.Has(v) != want[v] {
			t.Errorf("Attract(Environment).Has(%d) = %v, want %v", v, in.Has(v), want[v])
		}
	}
}

func TestAttractSystemForcesThroughOwnChoices(t *testing.T) {
	g := buildFixtureGame()
	seed := AttractSeedVertices(g, pgame.Vertex(4))
	in := Attract(g, nil, seed, pgame.System)

	// System owns every branch vertex here, so it can always choose to walk
	// itself into the Bottom sink even though it need not.
	for v := pgame.Vertex(0); int(v) < g.NumVertices(); v++ {
		if !in.Has(v) {
			t.Errorf("Attract(System).Has(%d) = false, want true", v)
		}
	}
}

func wantSystemWin() map[pgame.Vertex]bool {
	return map[pgame.Vertex]bool{0: true, 1: false, 2: true, 3: true, 4: false, 5: true, 6: false}
}

func checkWinSet(t *testing.T, name string, g *pgame.Game, win Set) {
	t.Helper()
	for v, want := range wantSystemWin() {
		if win.Has(v) != want {
			t.Errorf("%s: win.Has(%d) = %v, want %v", name, v, win.Has(v), want)
		}
	}
}

func TestFPISolvesSafetyGame(t *testing.T) {
	g := buildFixtureGame()
	win, strat := FPI{}.Solve(g, nil, pgame.System, true)
	checkWinSet(t, "FPI", g, win)
	if strat[pgame.Vertex(0)] != pgame.Vertex(2) {
		t.Fatalf("FPI strategy at vertex 0 = %v, want 2", strat[pgame.Vertex(0)])
	}
	if strat[pgame.Vertex(3)] != pgame.Vertex(5) {
		t.Fatalf("FPI strategy at vertex 3 = %v, want 5", strat[pgame.Vertex(3)])
	}
}

func TestZLKSolvesSafetyGameRealizabilityOnly(t *testing.T) {
	g := buildFixtureGame()
	win, strat := ZLK{}.Solve(g, nil, pgame.System, true)
	checkWinSet(t, "ZLK", g, win)
	if strat != nil {
		t.Fatal("ZLK must never return a strategy")
	}
}

func TestSISolvesSafetyGame(t *testing.T) {
	g := buildFixtureGame()
	win, strat := SI{}.Solve(g, nil, pgame.System, true)
	checkWinSet(t, "SI", g, win)
	if strat[pgame.Vertex(0)] != pgame.Vertex(2) {
		t.Fatalf("SI strategy at vertex 0 = %v, want 2", strat[pgame.Vertex(0)])
	}
	if strat[pgame.Vertex(3)] != pgame.Vertex(5) {
		t.Fatalf("SI strategy at vertex 3 = %v, want 5", strat[pgame.Vertex(3)])
	}
}

func TestNumColorsAndParity(t *testing.T) {
	g := buildFixtureGame()
	if got := NumColors(g); got != 2 {
		t.Fatalf("NumColors() = %d, want 2", got)
	}
	if Parity(0) != pgame.System {
		t.Fatal("priority 0 should favor System")
	}
	if Parity(1) != pgame.Environment {
		t.Fatal("priority 1 should favor Environment")
	}
}

func TestSetOperations(t *testing.T) {
	s := NewSet(4)
	if !s.Add(pgame.Vertex(1)) {
		t.Fatal("first Add should report true")
	}
	if s.Add(pgame.Vertex(1)) {
		t.Fatal("second Add of the same vertex should report false")
	}
	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", s.Count())
	}
	clone := s.Clone()
	clone.Add(pgame.Vertex(2))
	if s.Has(pgame.Vertex(2)) {
		t.Fatal("mutating a clone should not affect the original")
	}
	grown := s.Grow(8)
	if len(grown) != 8 || !grown.Has(pgame.Vertex(1)) {
		t.Fatalf("Grow(8) = %v, want length 8 preserving membership", grown)
	}
	other := NewSet(4)
	other.Add(pgame.Vertex(3))
	s.Union(other)
	if !s.Has(pgame.Vertex(3)) {
		t.Fatal("Union should add the other set's members")
	}
}
