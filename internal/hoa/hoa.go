// Package hoa writes a transducer as a minimal HOA v1 automaton (spec.md
// §6.3): one state per transducer state, one transition per (input guard,
// output valuation, successor) branch, guard and output jointly rendered as
// a single Boolean label over every atomic proposition. This is the
// "transducer-as-automaton" output format spec.md §4.9 lists alongside the
// BDD/AIG encodings, grounded on internal/bdd's existing factored-form
// pretty-printer (internal/bdd/bdd.go's Manager.Factored) rather than a new
// expression renderer.
package hoa

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/transducer"
)

// Write emits m as a minimal deterministic HOA v1 automaton over w. Every
// atomic proposition is listed as an AP; outputs are additionally marked
// controllable-AP, matching the input/output partition the rest of the
// pipeline already carries. The acceptance condition is the trivial "all"
// condition: m is already a transducer, not a DPA, so there is nothing left
// to accept or reject.
func Write(w io.Writer, m *transducer.Machine, props *proposition.Set) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "HOA: v1\n")
	fmt.Fprintf(bw, "States: %d\n", m.NumStates())
	fmt.Fprintf(bw, "Start: %d\n", m.Initial)
	fmt.Fprintf(bw, "AP: %d", props.Total())
	for v := 0; v < props.Total(); v++ {
		fmt.Fprintf(bw, " \"%s\"", props.Name(v))
	}
	bw.WriteString("\n")

	if props.NumOutputs() > 0 {
		bw.WriteString("controllable-AP:")
		for v := props.NumInputs(); v < props.Total(); v++ {
			fmt.Fprintf(bw, " %d", v)
		}
		bw.WriteString("\n")
	}

	fmt.Fprintf(bw, "acc-name: all\n")
	fmt.Fprintf(bw, "Acceptance: 0 t\n")
	fmt.Fprintf(bw, "tool: strix\n")
	fmt.Fprintf(bw, "properties: deterministic complete\n")
	bw.WriteString("--BODY--\n")

	for s, transitions := range m.States {
		fmt.Fprintf(bw, "State: %d\n", s)
		for _, t := range transitions {
			if err := writeTransitions(bw, m, props, t); err != nil {
				return errors.Wrapf(err, "hoa: state %d", s)
			}
		}
	}
	bw.WriteString("--END--\n")
	return bw.Flush()
}

// writeTransitions renders one input-guarded transition as one HOA edge per
// output branch: the edge label conjoins the input guard (named by the
// input manager) with the output valuation (named by the output manager,
// shifted past the input propositions), so the label alone is a full
// assignment to every atomic proposition that reaches this successor.
func writeTransitions(bw *bufio.Writer, m *transducer.Machine, props *proposition.Set, t transducer.Transition) error {
	inLabel, err := m.Inputs.Factored(t.InputBDD, props.Inputs)
	if err != nil {
		return err
	}
	for _, o := range t.Outputs {
		outLabel, err := m.Outputs.Factored(o.OutputBDD, props.Outputs)
		if err != nil {
			return err
		}
		label := inLabel
		if outLabel != "" && outLabel != "1" {
			if label == "" || label == "1" {
				label = outLabel
			} else {
				label = label + " & " + outLabel
			}
		}
		if label == "" {
			label = "t"
		}
		fmt.Fprintf(bw, "[%s] %d\n", label, o.Next)
	}
	return nil
}
