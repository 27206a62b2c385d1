package satcnf

import (
	"testing"

	"github.com/irifrance/gini/z"
)

func TestSolveReportsSatisfiableUnitClause(t *testing.T) {
	b := New()
	x := b.NewLit()
	b.AddClause(x)
	if got := b.Solve(); got != Sat {
		t.Fatalf("Solve() = %v, want Sat", got)
	}
	if got := b.Model([]z.Lit{x}); got[0] != true {
		t.Fatalf("Model(x) = %v, want [true]", got)
	}
}

func TestSolveReportsUnsatisfiableContradiction(t *testing.T) {
	b := New()
	x := b.NewLit()
	b.AddClause(x)
	b.AddClause(x.Not())
	if got := b.Solve(); got != Unsat {
		t.Fatalf("Solve() = %v, want Unsat", got)
	}
}

func TestSequentialCounterAtLeastFalseZeroIsANoOp(t *testing.T) {
	b := New()
	a, c := b.NewLit(), b.NewLit()
	b.AddClause(a)
	b.AddClause(c)
	sc := NewSequentialCounter(b)
	sc.Add(a)
	sc.Add(c)
	sc.AtLeastFalse(0) // "at least 0 false" forbids nothing
	if got := b.Solve(); got != Sat {
		t.Fatalf("Solve() = %v, want Sat (forcing both true should still be allowed)", got)
	}
}

func TestSequentialCounterAtLeastFalseBlocksAllTrue(t *testing.T) {
	b := New()
	a, c, d := b.NewLit(), b.NewLit(), b.NewLit()
	b.AddClause(a)
	b.AddClause(c)
	b.AddClause(d)
	sc := NewSequentialCounter(b)
	sc.Add(a)
	sc.Add(c)
	sc.Add(d)
	sc.AtLeastFalse(1) // at most 2 of 3 may be true; all three are forced true above
	if got := b.Solve(); got != Unsat {
		t.Fatalf("Solve() = %v, want Unsat (3 forced-true inputs violate at-most-2-true)", got)
	}
}

func TestSequentialCounterAtLeastFalseAllForcesEveryInputFalse(t *testing.T) {
	b := New()
	a, c := b.NewLit(), b.NewLit()
	sc := NewSequentialCounter(b)
	sc.Add(a)
	sc.Add(c)
	sc.AtLeastFalse(2) // at least 2 of 2 false means both false
	if got := b.Solve(); got != Sat {
		t.Fatalf("Solve() = %v, want Sat", got)
	}
	model := b.Model([]z.Lit{a, c})
	if model[0] || model[1] {
		t.Fatalf("Model(a,c) = %v, want both false", model)
	}
}
