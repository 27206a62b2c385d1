package symbolic

import (
	"testing"

	"github.com/strixeng/strix/internal/aig"
	"github.com/strixeng/strix/internal/bdd"
	"github.com/strixeng/strix/internal/edgetree"
	"github.com/strixeng/strix/internal/equeue"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/solver"
	"github.com/strixeng/strix/internal/transducer"
	"github.com/strixeng/strix/internal/translator"
)

func TestLabelsSimpleAssignsOneValuePerState(t *testing.T) {
	m := &transducer.Machine{States: make([][]transducer.Transition, 3)}
	labels, err := Labels(LabelSimple, m, nil)
	if err != nil {
		t.Fatalf("Labels error: %v", err)
	}
	if len(labels) != 3 {
		t.Fatalf("len(labels) = %d, want 3", len(labels))
	}
	for i, lbl := range labels {
		if len(lbl) != 1 || lbl[0].DontCare || lbl[0].Value != i {
			t.Fatalf("labels[%d] = %+v, want Val(%d)", i, lbl, i)
		}
	}
}

func TestLabelsInnerIsNotImplemented(t *testing.T) {
	m := &transducer.Machine{States: make([][]transducer.Transition, 1)}
	if _, err := Labels(LabelInner, m, nil); err != ErrNotImplemented {
		t.Fatalf("Labels(LabelInner) error = %v, want ErrNotImplemented", err)
	}
}

func TestLabelsAutomatonPadsShorterDecompositions(t *testing.T) {
	m := &transducer.Machine{
		States:          make([][]transducer.Transition, 2),
		AutomatonStates: []int{10, 20},
	}
	decompose := func(state int) []int {
		if state == 10 {
			return []int{1, 2}
		}
		return []int{3}
	}
	labels, err := Labels(LabelAutomaton, m, decompose)
	if err != nil {
		t.Fatalf("Labels error: %v", err)
	}
	if len(labels[0]) != 2 || len(labels[1]) != 2 {
		t.Fatalf("labels = %+v, want width 2 for both", labels)
	}
	if labels[1][1] != DontCare {
		t.Fatalf("labels[1][1] = %+v, want DontCare", labels[1][1])
	}
}

func TestBitWidthsCoversMaxValuePerComponent(t *testing.T) {
	labels := []StructuredLabel{{Val(0)}, {Val(1)}, {Val(2)}}
	widths := BitWidths(labels)
	if len(widths) != 1 || widths[0] != 2 {
		t.Fatalf("BitWidths = %v, want [2] (ceil(log2(3)))", widths)
	}
}

// buildSolvedFixture reproduces the "a & XG!a" example end to end so Encode
// and ToAIG can be exercised against a real, already-minimal transducer.
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

func TestEncodeProducesOneLatchWorthOfState(t *testing.T) {
	m, props := buildSolvedFixture(t)
	labels, err := Labels(LabelSimple, m, nil)
	if err != nil {
		t.Fatalf("Labels error: %v", err)
	}
	enc, err := Encode(m, props, labels, bdd.ReorderNone)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if enc.NumInputs != 0 {
		t.Fatalf("NumInputs = %d, want 0", enc.NumInputs)
	}
	if enc.NumBits != 1 {
		t.Fatalf("NumBits = %d, want 1", enc.NumBits)
	}
	if len(enc.StateBDD) != 2 || len(enc.OutputBDD) != 1 || len(enc.NextBDD) != 1 {
		t.Fatalf("Encoding shape = %+v, want 2 state BDDs, 1 output, 1 next-bit", enc)
	}
	if enc.Bits[0][0] != 0 || enc.Bits[1][0] != 1 {
		t.Fatalf("Bits = %v, want state 0 -> 0, state 1 -> 1", enc.Bits)
	}
}

func TestToAIGBuildsOneLatchOneOutputCircuit(t *testing.T) {
	m, props := buildSolvedFixture(t)
	labels, err := Labels(LabelSimple, m, nil)
	if err != nil {
		t.Fatalf("Labels error: %v", err)
	}
	enc, err := Encode(m, props, labels, bdd.ReorderNone)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	builder, err := ToAIG(enc, props)
	if err != nil {
		t.Fatalf("ToAIG error: %v", err)
	}
	builder.Compress(aig.CompressMore)
	circuit := builder.Build()

	if len(circuit.Inputs) != 0 {
		t.Fatalf("len(Inputs) = %d, want 0", len(circuit.Inputs))
	}
	if len(circuit.Latches) != 1 {
		t.Fatalf("len(Latches) = %d, want 1", len(circuit.Latches))
	}
	if circuit.Latches[0].Reset != 0 {
		t.Fatalf("Latches[0].Reset = %d, want 0 (initial state bit is 0)", circuit.Latches[0].Reset)
	}
	if len(circuit.Outputs) != 1 || circuit.OutputNames[0] != "a" {
		t.Fatalf("Outputs = %v names %v, want one output named a", circuit.Outputs, circuit.OutputNames)
	}
}
