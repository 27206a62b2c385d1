package hoa

import (
	"bytes"
	"strings"
	"testing"

	"github.com/strixeng/strix/internal/edgetree"
	"github.com/strixeng/strix/internal/equeue"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/solver"
	"github.com/strixeng/strix/internal/transducer"
	"github.com/strixeng/strix/internal/translator"
)

// buildSolvedFixture reproduces the "a & XG!a" example end to end: no
// inputs, one output "a", a minimal 2-state Mealy machine.
func buildSolvedFixture(t *testing.T) (*transducer.Machine, *proposition.Set) {
	t.Helper()
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
		t.Fatalf("Explore error: %v", err)
	}
	_, strat := solver.FPI{}.Solve(c.Game(), nil, pgame.System, true)
	b, err := transducer.New(automaton, store, c.Game(), strat, pgame.System, props)
	if err != nil {
		t.Fatalf("transducer.New error: %v", err)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return m, props
}

func TestWriteEmitsAMinimalDeterministicHOAAutomaton(t *testing.T) {
	m, props := buildSolvedFixture(t)

	var buf bytes.Buffer
	if err := Write(&buf, m, props); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"HOA: v1\n",
		"States: 2\n",
		"Start: 0\n",
		"AP: 1 \"a\"\n",
		"controllable-AP: 0\n",
		"Acceptance: 0 t\n",
		"properties: deterministic complete\n",
		"--BODY--\n",
		"State: 0\n",
		"[a] 1\n",
		"State: 1\n",
		"[!a] 1\n",
		"--END--\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q; full output:\n%s", want, out)
		}
	}

	// State 0's edge should come strictly before state 1's in document order.
	if strings.Index(out, "State: 0\n") > strings.Index(out, "State: 1\n") {
		t.Fatalf("states out of order:\n%s", out)
	}
}
