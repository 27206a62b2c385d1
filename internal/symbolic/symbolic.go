// Package symbolic implements the structured-label → BDD → AIG pipeline
// (spec.md §4.8, component C8): assign each transducer state a compact
// multi-component label, bit-encode the label components into state
// variables, build BDDs for the next-state and output functions over
// (uncontrollable inputs, state bits), optionally reorder, and finally walk
// the BDDs into an and-inverter graph. Grounded on internal/bdd (the
// rudd-backed manager) and internal/aig (this module's own AIGER builder);
// the state-arena/label-vector shape follows the teacher's encoding.go
// (board-to-float-vector state encoding) generalized from a fixed-size
// game-board encoding to a variable-width per-state bit vector.
package symbolic

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/strixeng/strix/internal/aig"
	"github.com/strixeng/strix/internal/bdd"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/transducer"
	"github.com/strixeng/strix/internal/translator"
)

// LabelValue is one component of a structured label: either a concrete
// value or a don't-care (spec.md §4.8.1).
type LabelValue struct {
	DontCare bool
	Value    int
}

// DontCare is the shared don't-care value.
var DontCare = LabelValue{DontCare: true}

// Val wraps a concrete component value.
func Val(v int) LabelValue { return LabelValue{Value: v} }

// StructuredLabel is a fixed-length vector of label components, one per
// transducer state.
type StructuredLabel []LabelValue

// LabellingKind selects between the two implemented labellings and the
// explicitly unimplemented third (spec.md §9's open question).
type LabellingKind int

const (
	LabelSimple LabellingKind = iota
	LabelAutomaton
	LabelInner // compositional inner labelling: never implemented, see ErrNotImplemented
)

// ErrNotImplemented is returned for LabelInner, matching spec.md §9's
// instruction to leave an explicit NotImplemented path rather than guess at
// a compositional decomposition the source never finished either.
var ErrNotImplemented = errors.New("symbolic: compositional inner labelling is not implemented")

// Labels computes one StructuredLabel per transducer state (spec.md
// §4.8.1). decompose, when non-nil, is typically automaton.Decompose;
// LabelAutomaton calls it per machine state (via m.AutomatonStates) and
// maps translator.Top/translator.Bottom states to all-DontCare labels.
func Labels(kind LabellingKind, m *transducer.Machine, decompose func(state int) []int) ([]StructuredLabel, error) {
	switch kind {
	case LabelSimple:
		out := make([]StructuredLabel, m.NumStates())
		for i := range out {
			out[i] = StructuredLabel{Val(i)}
		}
		return out, nil
	case LabelAutomaton:
		return automatonLabels(m, decompose)
	case LabelInner:
		return nil, ErrNotImplemented
	default:
		return nil, errors.Errorf("symbolic: unknown labelling kind %d", kind)
	}
}

func automatonLabels(m *transducer.Machine, decompose func(state int) []int) ([]StructuredLabel, error) {
	if decompose == nil {
		return nil, errors.New("symbolic: automaton labelling requires a decomposition function")
	}
	width := 0
	raw := make([][]int, m.NumStates())
	for i, as := range m.AutomatonStates {
		if as == translator.Top || as == translator.Bottom {
			continue
		}
		comps := decompose(as)
		raw[i] = comps
		if len(comps) > width {
			width = len(comps)
		}
	}
	out := make([]StructuredLabel, m.NumStates())
	for i, comps := range raw {
		lbl := make(StructuredLabel, width)
		for k := 0; k < width; k++ {
			if k >= len(comps) || comps[k] < 0 {
				lbl[k] = DontCare
			} else {
				lbl[k] = Val(comps[k])
			}
		}
		out[i] = lbl
	}
	return out, nil
}

// BitWidths returns, for each label component, ceil(log2(max+1)) over every
// state's value at that component (DontCare contributes 0), per spec.md
// §4.8.2.
func BitWidths(labels []StructuredLabel) []int {
	if len(labels) == 0 {
		return nil
	}
	width := len(labels[0])
	maxVal := make([]int, width)
	for _, lbl := range labels {
		for k, v := range lbl {
			if !v.DontCare && v.Value > maxVal[k] {
				maxVal[k] = v.Value
			}
		}
	}
	widths := make([]int, width)
	for k, mv := range maxVal {
		widths[k] = bitsFor(mv)
	}
	return widths
}

func bitsFor(maxVal int) int {
	n := 0
	for (1 << n) <= maxVal {
		n++
	}
	return n
}

// bit is a single encoded state-bit value: 0, 1, or -1 for don't-care.
type bit int8

const bitDontCare bit = -1

// encodeBits concatenates every component's fixed-width binary encoding
// (MSB first), producing bitDontCare for bits under a DontCare component.
func encodeBits(lbl StructuredLabel, widths []int) []bit {
	total := 0
	for _, w := range widths {
		total += w
	}
	out := make([]bit, 0, total)
	for k, w := range widths {
		v := lbl[k]
		for i := w - 1; i >= 0; i-- {
			if v.DontCare {
				out = append(out, bitDontCare)
			} else if v.Value&(1<<i) != 0 {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out
}

// Encoding is the joint BDD representation built from a transducer and its
// structured labels (spec.md §4.8.3): one manager over uncontrollable
// inputs followed by state bits, a state-selector BDD per transducer
// state, a next-state BDD per state bit, and an output BDD per output
// proposition.
type Encoding struct {
	Manager   *bdd.Manager
	NumInputs int // U
	Widths    []int
	NumBits   int // B = sum(Widths)

	StateBDD  []bdd.Ref // per transducer state
	NextBDD   []bdd.Ref // per state bit
	OutputBDD []bdd.Ref // per output proposition

	Initial transducer.State
	Bits    [][]bit // per transducer state, its encoded bit pattern (cached for AIG reset wiring)
}

// Encode builds the joint manager and its BDDs (spec.md §4.8.3). reorder
// is passed to Manager.AutodynEnable around construction, which does nothing
// on this kernel, so the BDDs are built in the fixed variable order; Permute
// (called separately) performs the only reordering pass.
func Encode(m *transducer.Machine, props *proposition.Set, labels []StructuredLabel, reorder bdd.ReorderMode) (*Encoding, error) {
	if len(labels) != m.NumStates() {
		return nil, errors.Errorf("symbolic: got %d labels for %d states", len(labels), m.NumStates())
	}
	widths := BitWidths(labels)
	numBits := 0
	for _, w := range widths {
		numBits += w
	}
	u := props.NumInputs()

	names := make([]string, u+numBits)
	copy(names, props.Inputs)
	for i := 0; i < numBits; i++ {
		names[u+i] = fmt.Sprintf("s%d", i)
	}

	mgr, err := bdd.NewManager(max1(u+numBits), names)
	if err != nil {
		return nil, errors.Wrap(err, "symbolic: joint manager")
	}
	mgr.AutodynEnable(reorder)
	defer mgr.AutodynDisable()

	bits := make([][]bit, len(labels))
	stateBDD := make([]bdd.Ref, len(labels))
	for s, lbl := range labels {
		bits[s] = encodeBits(lbl, widths)
		ref, err := stateCube(mgr, u, bits[s])
		if err != nil {
			return nil, err
		}
		stateBDD[s] = ref
	}

	outputBDD := make([]bdd.Ref, props.NumOutputs())
	for k := range outputBDD {
		outputBDD[k] = mgr.Zero()
	}
	nextBDD := make([]bdd.Ref, numBits)
	for i := range nextBDD {
		nextBDD[i] = mgr.Zero()
	}

	for s, transitions := range m.States {
		for _, t := range transitions {
			inputBDD, err := m.Inputs.Transfer(t.InputBDD, mgr)
			if err != nil {
				return nil, err
			}
			for _, o := range t.Outputs {
				cond, err := mgr.And(stateBDD[s], inputBDD)
				if err != nil {
					return nil, err
				}

				outCube, err := m.Outputs.Enumerate(o.OutputBDD)
				if err != nil {
					return nil, err
				}
				if len(outCube) > 0 {
					for k, v := range outCube[0] {
						if v != 1 {
							continue
						}
						if outputBDD[k], err = mgr.Or(outputBDD[k], cond); err != nil {
							return nil, err
						}
					}
				}

				succBits := bits[o.Next]
				for i, v := range succBits {
					if v != 1 {
						continue
					}
					if nextBDD[i], err = mgr.Or(nextBDD[i], cond); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	return &Encoding{
		Manager:   mgr,
		NumInputs: u,
		Widths:    widths,
		NumBits:   numBits,
		StateBDD:  stateBDD,
		NextBDD:   nextBDD,
		OutputBDD: outputBDD,
		Initial:   m.Initial,
		Bits:      bits,
	}, nil
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func stateCube(mgr *bdd.Manager, u int, bits []bit) (bdd.Ref, error) {
	acc := mgr.One()
	for i, v := range bits {
		if v == bitDontCare {
			continue
		}
		var lit bdd.Ref
		var err error
		if v == 1 {
			lit, err = mgr.Var(u + i)
		} else {
			lit, err = mgr.NVar(u + i)
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

// Reorder applies a post-construction variable reordering pass (spec.md
// §4.8.4), rebuilding the encoding's manager and every BDD it holds under
// the new order via bdd.Manager.Permute.
func (enc *Encoding) Reorder(mode bdd.ReorderMode) error {
	if mode == bdd.ReorderNone {
		return nil
	}
	roots := make([]bdd.Ref, 0, len(enc.StateBDD)+len(enc.NextBDD)+len(enc.OutputBDD))
	roots = append(roots, enc.StateBDD...)
	roots = append(roots, enc.NextBDD...)
	roots = append(roots, enc.OutputBDD...)

	newMgr, newRoots, err := enc.Manager.Permute(mode, roots)
	if err != nil {
		return err
	}
	enc.Manager = newMgr
	i := 0
	for s := range enc.StateBDD {
		enc.StateBDD[s] = newRoots[i]
		i++
	}
	for b := range enc.NextBDD {
		enc.NextBDD[b] = newRoots[i]
		i++
	}
	for k := range enc.OutputBDD {
		enc.OutputBDD[k] = newRoots[i]
		i++
	}
	return nil
}

// Size is the total live node count across the encoding's next-state and
// output BDDs (the per-state StateBDD entries are not counted), used by the orchestrator's portfolio to pick the smallest candidate
// before AIG construction even starts.
func (enc *Encoding) Size() (int, error) {
	roots := make([]bdd.Ref, 0, len(enc.NextBDD)+len(enc.OutputBDD))
	roots = append(roots, enc.NextBDD...)
	roots = append(roots, enc.OutputBDD...)
	shape, err := enc.Manager.Shape(roots...)
	if err != nil {
		return 0, err
	}
	return len(shape), nil
}

// ToAIG walks the encoding's next-state and output BDDs into an AIG (spec.md
// §4.8.5): each uncontrollable proposition becomes a primary input, each
// state bit a latch, and every BDD inner node an ite(var, high, low) gate,
// hash-consed and shared across every root by a single memo table. The
// returned Builder is not yet compressed or finalized; callers run
// Builder.Compress and then Builder.Build to get the AIGER-ready circuit,
// matching spec.md §4.8.6's separate compression stage.
func ToAIG(enc *Encoding, props *proposition.Set) (*aig.Builder, error) {
	b := aig.New()

	inputLit := make([]aig.Lit, enc.NumInputs)
	for i := 0; i < enc.NumInputs; i++ {
		inputLit[i] = b.AddInput(props.Name(i))
	}
	latchLit := make([]aig.Lit, enc.NumBits)
	for i := 0; i < enc.NumBits; i++ {
		latchLit[i] = b.AddLatch(fmt.Sprintf("l%d", i))
	}
	varLit := append(append([]aig.Lit(nil), inputLit...), latchLit...)

	roots := make([]bdd.Ref, 0, len(enc.NextBDD)+len(enc.OutputBDD))
	roots = append(roots, enc.NextBDD...)
	roots = append(roots, enc.OutputBDD...)

	lits, err := bdd.Fold(enc.Manager, roots, aig.False, aig.True, func(level int, low, high aig.Lit) aig.Lit {
		return b.AddIte(varLit[level], high, low)
	})
	if err != nil {
		return nil, err
	}

	for i := range enc.NextBDD {
		lit := lits[i]
		b.SetLatchNext(latchLit[i], lit)
		reset := enc.Bits[enc.Initial][i] == 1
		b.SetLatchReset(latchLit[i], reset)
	}
	for k := range enc.OutputBDD {
		lit := lits[len(enc.NextBDD)+k]
		b.AddOutput(props.Outputs[k], lit)
	}

	return b, nil
}
