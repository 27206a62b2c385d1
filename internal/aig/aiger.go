package aig

import (
	"bufio"
	"fmt"
	"io"
)

// LatchDef is one finalized latch: Lit is its own (even) literal, Next its
// feedback function, Reset its initial value (0 or 1).
type LatchDef struct {
	Lit   int
	Next  int
	Reset int
}

// AndDef is one finalized AND gate: Lhs = Rhs0 ∧ Rhs1.
type AndDef struct {
	Lhs, Rhs0, Rhs1 int
}

// Aiger is the finalized circuit in AIGER's numbering convention: variables
// 1..I are inputs, I+1..I+L latches, I+L+1..I+L+A AND gates, each block in
// the order its nodes were created (spec.md §6.4).
type Aiger struct {
	MaxVar int

	Inputs     []int
	InputNames []string

	Latches    []LatchDef
	LatchNames []string

	Outputs     []int
	OutputNames []string

	Ands []AndDef
}

// Build finalizes the graph: groups nodes into the input/latch/and blocks
// AIGER requires, live-only (Compress should run first if a caller wants
// dead gates dropped), and renumbers every literal accordingly.
func (b *Builder) Build() *Aiger {
	var inputs, latches, ands []int
	for v := 1; v < len(b.nodes); v++ {
		n := b.nodes[v]
		switch n.kind {
		case kindInput:
			inputs = append(inputs, v)
		case kindLatch:
			latches = append(latches, v)
		case kindAnd:
			if !n.dead {
				ands = append(ands, v)
			}
		}
	}

	finalVar := make([]int, len(b.nodes))
	next := 1
	for _, v := range inputs {
		finalVar[v] = next
		next++
	}
	for _, v := range latches {
		finalVar[v] = next
		next++
	}
	for _, v := range ands {
		finalVar[v] = next
		next++
	}

	remap := func(l Lit) int {
		switch l {
		case False:
			return 0
		case True:
			return 1
		default:
			return finalVar[l.variable()]<<1 | int(l.sign())
		}
	}

	a := &Aiger{MaxVar: next - 1}
	for _, v := range inputs {
		a.Inputs = append(a.Inputs, finalVar[v]<<1)
		a.InputNames = append(a.InputNames, b.nodes[v].name)
	}
	for _, v := range latches {
		n := b.nodes[v]
		reset := 0
		if n.reset {
			reset = 1
		}
		a.Latches = append(a.Latches, LatchDef{Lit: finalVar[v] << 1, Next: remap(n.next), Reset: reset})
		a.LatchNames = append(a.LatchNames, n.name)
	}
	for _, o := range b.outputs {
		a.Outputs = append(a.Outputs, remap(o.lit))
		a.OutputNames = append(a.OutputNames, o.name)
	}
	for _, v := range ands {
		n := b.nodes[v]
		a.Ands = append(a.Ands, AndDef{Lhs: finalVar[v] << 1, Rhs0: remap(n.a), Rhs1: remap(n.b)})
	}
	return a
}

// symbols writes the trailing "iN name"/"lN name"/"oN name" symbol table
// shared by both the ASCII and binary writers (spec.md §6.4's AIGER
// writer).
func (a *Aiger) symbols(w *bufio.Writer) {
	for i, name := range a.InputNames {
		if name == "" {
			continue
		}
		fmt.Fprintf(w, "i%d %s\n", i, name)
	}
	for i, name := range a.LatchNames {
		if name == "" {
			continue
		}
		fmt.Fprintf(w, "l%d %s\n", i, name)
	}
	for i, name := range a.OutputNames {
		if name == "" {
			continue
		}
		fmt.Fprintf(w, "o%d %s\n", i, name)
	}
}

// WriteASCII emits the AIGER "aag" text format.
func (a *Aiger) WriteASCII(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "aag %d %d %d %d %d\n", a.MaxVar, len(a.Inputs), len(a.Latches), len(a.Outputs), len(a.Ands))
	for _, i := range a.Inputs {
		fmt.Fprintf(bw, "%d\n", i)
	}
	for _, l := range a.Latches {
		fmt.Fprintf(bw, "%d %d %d\n", l.Lit, l.Next, l.Reset)
	}
	for _, o := range a.Outputs {
		fmt.Fprintf(bw, "%d\n", o)
	}
	for _, g := range a.Ands {
		fmt.Fprintf(bw, "%d %d %d\n", g.Lhs, g.Rhs0, g.Rhs1)
	}
	a.symbols(bw)
	return bw.Flush()
}

// WriteBinary emits the AIGER "aig" binary format: the same header and
// output lines as ASCII, latch lines that carry only the next-state literal
// and reset value (the latch's own literal is implied by position), and each
// AND gate's two deltas from its own literal are packed as
// little-endian-base-128 varints instead of decimal text, and inputs are
// omitted entirely since their literals are implied by position.
func (a *Aiger) WriteBinary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "aig %d %d %d %d %d\n", a.MaxVar, len(a.Inputs), len(a.Latches), len(a.Outputs), len(a.Ands))
	for _, l := range a.Latches {
		fmt.Fprintf(bw, "%d %d\n", l.Next, l.Reset)
	}
	for _, o := range a.Outputs {
		fmt.Fprintf(bw, "%d\n", o)
	}
	for _, g := range a.Ands {
		r0, r1 := g.Rhs0, g.Rhs1
		if r0 < r1 {
			r0, r1 = r1, r0
		}
		writeLEB128(bw, uint32(g.Lhs-r0))
		writeLEB128(bw, uint32(r0-r1))
	}
	a.symbols(bw)
	return bw.Flush()
}

func writeLEB128(w *bufio.Writer, x uint32) {
	for x >= 0x80 {
		w.WriteByte(byte(x&0x7f) | 0x80)
		x >>= 7
	}
	w.WriteByte(byte(x))
}
