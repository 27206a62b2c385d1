// Package orchestrator wires every pipeline component into the end-to-end
// synthesis run spec.md §4.9 describes (component C9): parse LTL, build the
// DPA, construct and solve the parity game on the fly, build and minimize a
// transducer on either verdict (Mealy when System wins, Moore when the
// Environment wins) unless only realizability was requested, then encode to
// BDDs/AIG and, for the portfolio option, keep the smallest BDD encoding
// across several structured labellings. Grounded on the teacher's top-level agogo.go (a single
// "Config in, Agent/Arena driving loop out" entry point coordinating every
// other package) generalized from a self-play training loop to a one-shot
// synthesis pipeline, logged the same way with a per-run *log.Logger.
package orchestrator

import (
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/strixeng/strix/internal/aig"
	"github.com/strixeng/strix/internal/bdd"
	"github.com/strixeng/strix/internal/edgetree"
	"github.com/strixeng/strix/internal/equeue"
	"github.com/strixeng/strix/internal/incremental"
	"github.com/strixeng/strix/internal/minimize"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/solver"
	"github.com/strixeng/strix/internal/symbolic"
	"github.com/strixeng/strix/internal/transducer"
	"github.com/strixeng/strix/internal/translator"
)

// SolverChoice selects the inner parity-game algorithm (spec.md §6.5's
// -s/--solver).
type SolverChoice int

const (
	SolverFPI SolverChoice = iota
	SolverZLK
	SolverSI
)

// ParseSolver maps a CLI token to a SolverChoice.
func ParseSolver(s string) (SolverChoice, error) {
	switch s {
	case "fpi":
		return SolverFPI, nil
	case "zlk":
		return SolverZLK, nil
	case "si":
		return SolverSI, nil
	default:
		return 0, &ConfigurationError{Msg: "unknown solver " + s}
	}
}

func (c SolverChoice) algorithm() solver.Algorithm {
	switch c {
	case SolverZLK:
		return solver.ZLK{}
	case SolverSI:
		return solver.SI{}
	default:
		return solver.FPI{}
	}
}

// SimplificationMode selects how much the translator simplifies the
// formula before automaton construction (spec.md §6.5's --simplification).
type SimplificationMode int

const (
	SimplificationNone SimplificationMode = iota
	SimplificationLanguage
	SimplificationRealizability
)

// ParseSimplification maps a CLI token to a SimplificationMode.
func ParseSimplification(s string) (SimplificationMode, error) {
	switch s {
	case "none":
		return SimplificationNone, nil
	case "language":
		return SimplificationLanguage, nil
	case "realizability":
		return SimplificationRealizability, nil
	default:
		return 0, &ConfigurationError{Msg: "unknown simplification mode " + s}
	}
}

// MinimizeMode selects which transducer minimization passes run (spec.md
// §6.5's -m/--minimize).
type MinimizeMode int

const (
	MinimizeNone MinimizeMode = iota
	MinimizeND
	MinimizeDC
	MinimizeBoth
)

// ParseMinimize maps a CLI token to a MinimizeMode.
func ParseMinimize(s string) (MinimizeMode, error) {
	switch s {
	case "none":
		return MinimizeNone, nil
	case "nd":
		return MinimizeND, nil
	case "dc":
		return MinimizeDC, nil
	case "both":
		return MinimizeBoth, nil
	default:
		return 0, &ConfigurationError{Msg: "unknown minimization mode " + s}
	}
}

// OutputFormat selects the final artifact (spec.md §6.5's -o/--output-format).
type OutputFormat int

const (
	FormatPG OutputFormat = iota
	FormatHOA
	FormatBDD
	FormatAAG
	FormatAIG
)

// ParseOutputFormat maps a CLI token to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "pg":
		return FormatPG, nil
	case "hoa":
		return FormatHOA, nil
	case "bdd":
		return FormatBDD, nil
	case "aag":
		return FormatAAG, nil
	case "aig":
		return FormatAIG, nil
	default:
		return 0, &ConfigurationError{Msg: "unknown output format " + s}
	}
}

// ConfigurationError reports a bad CLI/option combination (spec.md §7).
type ConfigurationError struct{ Msg string }

func (e *ConfigurationError) Error() string { return "configuration: " + e.Msg }

// Options bundles every orchestration choice spec.md §6.5 lists as a CLI
// flag, independent of how they were parsed.
type Options struct {
	Formula string
	Inputs  []string
	Outputs []string

	OutputFormat      OutputFormat
	RealizabilityOnly bool
	Portfolio         bool // -a/--aiger: try every labelling, keep the smallest
	Determinize       bool

	Exploration equeue.Mode
	OnTheFly    incremental.Budget
	Solver      SolverChoice

	Simplification SimplificationMode
	Minimize       MinimizeMode
	Labels         []symbolic.LabellingKind // candidate labellings; defaults to {LabelSimple} if empty
	Reordering     bdd.ReorderMode
	Compression    aig.CompressionLevel

	Trace bool
}

// Result is everything a caller (the CLI, or a test) might want out of one
// Run.
type Result struct {
	Verdict incremental.Result
	Winner  pgame.Owner
	Stats   pgame.Stats

	Machine  *transducer.Machine
	Encoding *symbolic.Encoding
	Circuit  *aig.Aiger

	// Warnings accumulates non-fatal recoveries (spec.md §7's SatFailure
	// fallback-and-continue policy), following the teacher's go-multierror
	// idiom for independent failures that don't abort the overall run.
	Warnings *multierror.Error
}

// Realizable reports the synthesis verdict in boolean form.
func (r *Result) Realizable() bool { return r.Verdict == incremental.RealizableEven }

// Run drives the full pipeline (spec.md §4.9) against vm.
func Run(vm translator.VM, opts Options) (*Result, error) {
	if opts.Solver == SolverZLK && !opts.RealizabilityOnly {
		return nil, &ConfigurationError{Msg: "zlk solver computes no strategy; pass -r or choose fpi/si to synthesize a controller"}
	}

	props := &proposition.Set{Inputs: opts.Inputs, Outputs: opts.Outputs}
	propNames := append(append([]string(nil), opts.Inputs...), opts.Outputs...)

	formula, err := vm.Parse(opts.Formula, propNames)
	if err != nil {
		return nil, translator.Wrap("parse", err)
	}
	defer formula.Destroy()

	if opts.Simplification != SimplificationNone {
		simplified, statuses, err := vm.Simplify(formula, len(opts.Inputs))
		if err != nil {
			return nil, translator.Wrap("simplify", err)
		}
		formula = simplified
		if statuses != nil {
			props.Statuses = convertStatuses(statuses)
		}
	}
	props.EnsureStatuses()

	automaton, err := vm.Build(formula, opts.Simplification == SimplificationLanguage)
	if err != nil {
		return nil, translator.Wrap("build", err)
	}
	defer automaton.Destroy()

	res, err := solveGame(automaton, props, opts)
	if err != nil {
		return nil, err
	}
	if res.Verdict != incremental.RealizableEven && res.Verdict != incremental.RealizableOdd {
		return nil, errors.New("orchestrator: exploration exhausted without a realizability verdict")
	}
	return res, nil
}

// solveGame runs the explore/solve loop (spec.md §4.5's incremental
// interleaving) until a verdict is known or the game is fully explored,
// then — on either verdict, unless the caller only asked for the verdict —
// builds and finishes the transducer (spec.md §4.9 steps 5-9).
func solveGame(automaton translator.Automaton, props *proposition.Set, opts Options) (*Result, error) {
	store := edgetree.NewStore(automaton)
	queue := equeue.New(opts.Exploration)
	ctor := pgame.New(automaton, store, props, queue)
	inc := incremental.New(opts.Solver.algorithm())

	var solverElapsed, explorerElapsed time.Duration
	verdict := incremental.Unknown
	for {
		limit := opts.OnTheFly.Limit(solverElapsed, explorerElapsed)
		t0 := time.Now()
		if err := ctor.Explore(limit); err != nil {
			return nil, errors.Wrap(err, "orchestrator: exploration")
		}
		explorerElapsed += time.Since(t0)

		t1 := time.Now()
		verdict = inc.Solve(ctor.Game())
		solverElapsed += time.Since(t1)

		if verdict != incremental.Unknown {
			break
		}
		if ctor.Exhausted() {
			break
		}
	}

	winner := pgame.System
	if verdict == incremental.RealizableOdd {
		winner = pgame.Environment
	}

	result := &Result{
		Verdict: verdict,
		Winner:  winner,
		Stats:   ctor.Stats(),
	}
	if (verdict == incremental.RealizableEven || verdict == incremental.RealizableOdd) && !opts.RealizabilityOnly {
		strat := inc.Strategy(ctor.Game(), winner)
		if err := attachMachine(automaton, store, ctor.Game(), strat, winner, props, opts, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func attachMachine(automaton translator.Automaton, store *edgetree.Store, g *pgame.Game, strat solver.Strategy, winner pgame.Owner, props *proposition.Set, opts Options, result *Result) error {
	builder, err := transducer.New(automaton, store, g, strat, winner, props)
	if err != nil {
		return errors.Wrap(err, "orchestrator: transducer builder")
	}
	machine, err := builder.Build()
	if err != nil {
		return errors.Wrap(err, "orchestrator: transducer build")
	}

	machine, warnings := minimizeMachine(machine, opts)
	result.Warnings = warnings
	result.Machine = machine

	switch opts.OutputFormat {
	case FormatPG, FormatHOA:
		return nil
	case FormatBDD, FormatAAG, FormatAIG:
		return encodeAndPick(machine, automaton, props, opts, result)
	default:
		return nil
	}
}

// minimizeMachine applies the requested minimization passes, following
// spec.md §7's local-recovery rule: a SatFailure during minimization falls
// back to the machine as it stood before that step and is recorded as a
// warning rather than aborting the run.
func minimizeMachine(m *transducer.Machine, opts Options) (*transducer.Machine, *multierror.Error) {
	var warnings *multierror.Error
	determinizeFirst := opts.Determinize || opts.Minimize == MinimizeDC || opts.Minimize == MinimizeBoth

	if determinizeFirst {
		det, err := minimize.Determinize(m)
		if err != nil {
			warnings = multierror.Append(warnings, errors.Wrap(err, "determinize"))
		} else {
			m = det
		}
	}

	switch opts.Minimize {
	case MinimizeND:
		m = applyND(m, &warnings)
	case MinimizeDC:
		m = applyDC(m, &warnings)
	case MinimizeBoth:
		m = applyND(m, &warnings)
		m = applyDC(m, &warnings)
	}
	return m, warnings
}

func applyND(m *transducer.Machine, warnings **multierror.Error) *transducer.Machine {
	reachable, err := minimize.MinimalReachableStates(m)
	if err != nil {
		*warnings = multierror.Append(*warnings, errors.Wrap(err, "nd-minimization"))
		return m
	}
	return minimize.ApplyReachability(m, reachable)
}

func applyDC(m *transducer.Machine, warnings **multierror.Error) *transducer.Machine {
	covered, err := minimize.MeMin(m)
	if err != nil {
		*warnings = multierror.Append(*warnings, errors.Wrap(err, "dc-minimization"))
		return m
	}
	return covered
}

// candidate is one portfolio entry: a labelling kind paired with its
// resulting encoding, kept only long enough to compare sizes.
type candidate struct {
	kind symbolic.LabellingKind
	enc  *symbolic.Encoding
}

// encodeAndPick runs the structured-label -> BDD -> (AIG) stages (spec.md
// §4.8), trying every labelling opts.Labels names (defaulting to just
// LabelSimple) and keeping the smallest resulting BDD encoding, per spec.md
// §4.9 step 9's portfolio description.
func encodeAndPick(m *transducer.Machine, automaton translator.Automaton, props *proposition.Set, opts Options, result *Result) error {
	kinds := opts.Labels
	if len(kinds) == 0 {
		kinds = []symbolic.LabellingKind{symbolic.LabelSimple}
	}
	if opts.Portfolio && len(kinds) == 1 {
		kinds = []symbolic.LabellingKind{symbolic.LabelSimple, symbolic.LabelAutomaton}
	}

	var best *candidate
	for _, kind := range kinds {
		var decompose func(int) []int
		if kind == symbolic.LabelAutomaton {
			decompose = automaton.Decompose
		}
		labels, err := symbolic.Labels(kind, m, decompose)
		if err == symbolic.ErrNotImplemented {
			result.Warnings = multierror.Append(result.Warnings, err)
			continue
		}
		if err != nil {
			return errors.Wrap(err, "orchestrator: structured labelling")
		}

		enc, err := symbolic.Encode(m, props, labels, opts.Reordering)
		if err != nil {
			return errors.Wrap(err, "orchestrator: symbolic encoding")
		}
		if err := enc.Reorder(opts.Reordering); err != nil {
			return errors.Wrap(err, "orchestrator: reordering")
		}

		size, err := enc.Size()
		if err != nil {
			return errors.Wrap(err, "orchestrator: encoding size")
		}
		if best == nil || size < mustSize(best) {
			best = &candidate{kind: kind, enc: enc}
		}
	}
	if best == nil {
		return errors.New("orchestrator: no labelling produced an encoding")
	}
	result.Encoding = best.enc

	if opts.OutputFormat == FormatBDD {
		return nil
	}

	b, err := symbolic.ToAIG(best.enc, props)
	if err != nil {
		return errors.Wrap(err, "orchestrator: BDD-to-AIG")
	}
	b.Compress(opts.Compression)
	result.Circuit = b.Build()
	return nil
}

func mustSize(c *candidate) int {
	n, err := c.enc.Size()
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

func convertStatuses(in []translator.Status) []proposition.Status {
	out := make([]proposition.Status, len(in))
	for i, s := range in {
		switch s {
		case translator.StatusTrue:
			out[i] = proposition.ForcedTrue
		case translator.StatusFalse:
			out[i] = proposition.ForcedFalse
		case translator.StatusUnused:
			out[i] = proposition.Unused
		default:
			out[i] = proposition.Used
		}
	}
	return out
}
