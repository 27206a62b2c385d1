package aig

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddAndFoldsConstants(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	if got := b.AddAnd(x, False); got != False {
		t.Fatalf("x & false = %v, want False", got)
	}
	if got := b.AddAnd(x, True); got != x {
		t.Fatalf("x & true = %v, want x", got)
	}
	if got := b.AddAnd(x, x); got != x {
		t.Fatalf("x & x = %v, want x", got)
	}
	if got := b.AddAnd(x, b.Not(x)); got != False {
		t.Fatalf("x & !x = %v, want False", got)
	}
	if b.NumGates() != 0 {
		t.Fatalf("NumGates() = %d, want 0 (every case folded)", b.NumGates())
	}
}

func TestAddAndHashConsesStructurallyIdenticalGates(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	y := b.AddInput("y")
	g1 := b.AddAnd(x, y)
	g2 := b.AddAnd(x, y)
	g3 := b.AddAnd(y, x) // commuted operand order should still hit the cache
	if g1 != g2 || g1 != g3 {
		t.Fatalf("AddAnd(x,y) = %v, AddAnd(x,y) = %v, AddAnd(y,x) = %v, want all equal", g1, g2, g3)
	}
	if b.NumGates() != 1 {
		t.Fatalf("NumGates() = %d, want 1", b.NumGates())
	}
}

func TestOrAndIteDeriveFromAnd(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	y := b.AddInput("y")

	or := b.Or(x, y)
	// De Morgan: x|y = !(!x & !y), one gate reused for both negations' AND.
	want := b.Not(b.AddAnd(b.Not(x), b.Not(y)))
	if or != want {
		t.Fatalf("Or(x,y) = %v, want %v", or, want)
	}

	c := b.AddInput("c")
	ite := b.AddIte(c, x, y)
	wantIte := b.Or(b.AddAnd(c, x), b.AddAnd(b.Not(c), y))
	if ite != wantIte {
		t.Fatalf("AddIte(c,x,y) = %v, want %v", ite, wantIte)
	}
}

func TestSweepMarksOnlyUnreachableGatesDead(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	y := b.AddInput("y")
	live := b.AddAnd(x, y)
	_ = b.AddAnd(live, x) // built but never used by an output or latch next
	b.AddOutput("out", live)

	before := b.NumGates()
	if before != 2 {
		t.Fatalf("NumGates() before Sweep = %d, want 2", before)
	}
	b.Sweep()
	if got := b.NumGates(); got != 1 {
		t.Fatalf("NumGates() after Sweep = %d, want 1 (dead gate dropped)", got)
	}
}

func TestSweepKeepsGatesReachableFromLatchNext(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	l := b.AddLatch("s")
	feedback := b.AddAnd(x, l)
	b.SetLatchNext(l, feedback)
	b.SetLatchReset(l, false)
	b.AddOutput("out", l)

	b.Sweep()
	if got := b.NumGates(); got != 1 {
		t.Fatalf("NumGates() = %d, want 1 (feedback gate kept alive by the latch)", got)
	}
}

func TestCompressNoneLeavesDeadGatesInPlace(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	y := b.AddInput("y")
	b.AddAnd(x, y) // dead: never reaches an output
	b.AddOutput("out", x)

	b.Compress(CompressNone)
	if got := b.NumGates(); got != 1 {
		t.Fatalf("NumGates() = %d, want 1 (Compress(CompressNone) must not sweep)", got)
	}
}

func TestCompressBasicDropsDeadGates(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	y := b.AddInput("y")
	b.AddAnd(x, y)
	b.AddOutput("out", x)

	b.Compress(CompressBasic)
	if got := b.NumGates(); got != 0 {
		t.Fatalf("NumGates() = %d, want 0", got)
	}
}

func TestBuildRenumbersInputsLatchesThenAnds(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	l := b.AddLatch("s")
	g := b.AddAnd(x, l)
	b.SetLatchNext(l, g)
	b.SetLatchReset(l, true)
	b.AddOutput("out", g)

	circuit := b.Build()
	if len(circuit.Inputs) != 1 || len(circuit.Latches) != 1 || len(circuit.Ands) != 1 {
		t.Fatalf("circuit shape = %+v, want 1 input, 1 latch, 1 and", circuit)
	}
	// AIGER numbering: input gets variable 1 (literal 2), latch variable 2
	// (literal 4), the AND gate variable 3 (literal 6).
	if circuit.Inputs[0] != 2 {
		t.Fatalf("Inputs[0] = %d, want 2", circuit.Inputs[0])
	}
	if circuit.Latches[0].Lit != 4 {
		t.Fatalf("Latches[0].Lit = %d, want 4", circuit.Latches[0].Lit)
	}
	if circuit.Latches[0].Reset != 1 {
		t.Fatalf("Latches[0].Reset = %d, want 1", circuit.Latches[0].Reset)
	}
	if circuit.Ands[0].Lhs != 6 {
		t.Fatalf("Ands[0].Lhs = %d, want 6", circuit.Ands[0].Lhs)
	}
	if circuit.Ands[0].Rhs0 != 2 || circuit.Ands[0].Rhs1 != 4 {
		t.Fatalf("Ands[0] rhs = (%d,%d), want (2,4)", circuit.Ands[0].Rhs0, circuit.Ands[0].Rhs1)
	}
	if circuit.Outputs[0] != 6 || circuit.OutputNames[0] != "out" {
		t.Fatalf("Outputs = %v names %v, want [6] [out]", circuit.Outputs, circuit.OutputNames)
	}
	if circuit.MaxVar != 3 {
		t.Fatalf("MaxVar = %d, want 3", circuit.MaxVar)
	}
}

func TestWriteASCIIProducesAagHeaderAndBody(t *testing.T) {
	b := New()
	x := b.AddInput("x")
	y := b.AddInput("y")
	g := b.AddAnd(x, y)
	b.AddOutput("out", g)
	circuit := b.Build()

	var buf bytes.Buffer
	if err := circuit.WriteASCII(&buf); err != nil {
		t.Fatalf("WriteASCII error: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "aag 3 2 0 1 1" {
		t.Fatalf("header = %q, want %q", lines[0], "aag 3 2 0 1 1")
	}
	if !strings.Contains(out, "o0 out\n") {
		t.Fatalf("output symbol table missing \"o0 out\": %q", out)
	}
}
