// Command strix drives the reactive-synthesis pipeline end to end (spec.md
// §6.5): parse an LTL formula over a declared input/output partition,
// construct and solve the induced parity game, and, if realizable, emit a
// minimized controller as a transducer, a BDD dump, or an AIGER circuit.
// Flag handling follows the teacher's cmd/*/main.go idiom (plain stdlib
// flag.*Var pairs, no config file, a *log.Logger for diagnostics).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/strixeng/strix/internal/aig"
	"github.com/strixeng/strix/internal/bdd"
	"github.com/strixeng/strix/internal/equeue"
	"github.com/strixeng/strix/internal/hoa"
	"github.com/strixeng/strix/internal/incremental"
	"github.com/strixeng/strix/internal/orchestrator"
	"github.com/strixeng/strix/internal/proposition"
	"github.com/strixeng/strix/internal/symbolic"
	"github.com/strixeng/strix/internal/translator"
)

func stringFlag(p *string, short, long, def, usage string) {
	flag.StringVar(p, short, def, usage)
	flag.StringVar(p, long, def, usage)
}

func boolFlag(p *bool, short, long string, def bool, usage string) {
	flag.BoolVar(p, short, def, usage)
	flag.BoolVar(p, long, def, usage)
}

func main() {
	var (
		formula     string
		formulaFile string
		ins         string
		outs        string
		outFormat   string
		outFile     string
		realizOnly  bool
		portfolio   bool
		determinize bool
		exploration string
		scoring     bool
		onTheFly    string
		solverName  string
		simplify    string
		minimizeOpt string
		label       string
		reordering  string
		compression string
		trace       bool
	)

	stringFlag(&formula, "f", "formula", "", "the LTL formula to synthesize a controller for")
	stringFlag(&formulaFile, "F", "formula-file", "", "read the LTL formula from this file instead of -f")
	flag.StringVar(&ins, "ins", "", "comma-separated uncontrollable (input) proposition names")
	flag.StringVar(&outs, "outs", "", "comma-separated controllable (output) proposition names")
	stringFlag(&outFormat, "o", "output-format", "pg", "output format: pg|hoa|bdd|aag|aig")
	stringFlag(&outFile, "O", "output-file", "", "write output here instead of stdout")
	boolFlag(&realizOnly, "r", "realizability", false, "only report REALIZABLE/UNREALIZABLE, build no controller")
	boolFlag(&portfolio, "a", "aiger", false, "try multiple structured labellings, keep the smallest BDD encoding")
	boolFlag(&determinize, "d", "determinize", false, "determinize the transducer before minimization/output")
	stringFlag(&exploration, "e", "exploration", "bfs", "exploration order: bfs|dfs|min|max|minmax")
	flag.BoolVar(&scoring, "scoring", false, "accepted and ignored: min/max/minmax exploration uses whatever leaf scores the translator's edge trees carry")
	flag.StringVar(&onTheFly, "onthefly", "none", "exploration budget: none|n<k>|e<k>|s<k>|t<k>|m<k>")
	stringFlag(&solverName, "s", "solver", "fpi", "parity-game solver: fpi|zlk|si")
	flag.StringVar(&simplify, "simplification", "none", "translator simplification: none|language|realizability")
	stringFlag(&minimizeOpt, "m", "minimize", "none", "transducer minimization: none|nd|dc|both")
	stringFlag(&label, "l", "label", "none", "structured labelling: none|outer|inner")
	flag.StringVar(&reordering, "reordering", "none", "BDD variable reordering: none|heuristic|mixed|exact")
	flag.StringVar(&compression, "compression", "none", "AIG compression: none|basic|more")
	boolFlag(&trace, "t", "trace", false, "enable verbose tracing")

	flag.Parse()

	logger := log.New(os.Stderr, "", log.Ltime)
	if !trace {
		logger.SetOutput(ioutil.Discard)
	}

	opts, err := buildOptions(formula, formulaFile, ins, outs, outFormat, realizOnly, portfolio, determinize,
		exploration, onTheFly, solverName, simplify, minimizeOpt, label, reordering, compression, trace)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	result, err := orchestrator.Run(translator.ConstantVM{}, *opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "strix: opening output file:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if result.Realizable() {
		fmt.Fprintln(out, "REALIZABLE")
	} else {
		fmt.Fprintln(out, "UNREALIZABLE")
	}
	for _, w := range warningsOf(result) {
		logger.Printf("warning: %v", w)
	}

	if opts.RealizabilityOnly || !result.Realizable() {
		os.Exit(0)
	}

	if err := writeControllerOutput(out, opts, result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func warningsOf(r *orchestrator.Result) []error {
	if r.Warnings == nil {
		return nil
	}
	return r.Warnings.Errors
}

func buildOptions(formula, formulaFile, ins, outs, outFormat string, realizOnly, portfolio, determinize bool,
	exploration, onTheFly, solverName, simplify, minimizeOpt, label, reordering, compression string, trace bool) (*orchestrator.Options, error) {

	if formulaFile != "" {
		data, err := ioutil.ReadFile(formulaFile)
		if err != nil {
			return nil, fmt.Errorf("strix: reading formula file: %w", err)
		}
		formula = strings.TrimSpace(string(data))
	}
	if formula == "" {
		return nil, fmt.Errorf("strix: -f/--formula or -F/--formula-file is required")
	}

	format, err := orchestrator.ParseOutputFormat(outFormat)
	if err != nil {
		return nil, err
	}
	expMode, err := equeue.ParseMode(exploration)
	if err != nil {
		return nil, err
	}
	budget, err := parseOnTheFly(onTheFly)
	if err != nil {
		return nil, err
	}
	solverChoice, err := orchestrator.ParseSolver(solverName)
	if err != nil {
		return nil, err
	}
	simplMode, err := orchestrator.ParseSimplification(simplify)
	if err != nil {
		return nil, err
	}
	minMode, err := orchestrator.ParseMinimize(minimizeOpt)
	if err != nil {
		return nil, err
	}
	labelKind, err := parseLabel(label)
	if err != nil {
		return nil, err
	}
	reorderMode, err := parseReordering(reordering)
	if err != nil {
		return nil, err
	}
	compressLevel, err := parseCompression(compression)
	if err != nil {
		return nil, err
	}

	return &orchestrator.Options{
		Formula:           formula,
		Inputs:            splitNames(ins),
		Outputs:           splitNames(outs),
		OutputFormat:      format,
		RealizabilityOnly: realizOnly,
		Portfolio:         portfolio,
		Determinize:       determinize,
		Exploration:       expMode,
		OnTheFly:          budget,
		Solver:            solverChoice,
		Simplification:    simplMode,
		Minimize:          minMode,
		Labels:            []symbolic.LabellingKind{labelKind},
		Reordering:        reorderMode,
		Compression:       compressLevel,
		Trace:             trace,
	}, nil
}

func splitNames(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseOnTheFly decodes the -onthefly token (spec.md §4.5's budget table):
// none, or a one-letter kind (n/e/s/t/m) followed by an integer.
func parseOnTheFly(s string) (incremental.Budget, error) {
	if s == "" || s == "none" {
		return incremental.Budget{Option: incremental.BudgetUnlimited}, nil
	}
	kind := s[0]
	rest := s[1:]
	num, err := strconv.Atoi(rest)
	if err != nil {
		return incremental.Budget{}, fmt.Errorf("strix: bad -onthefly value %q: %w", s, err)
	}
	var opt incremental.BudgetOption
	switch kind {
	case 'n':
		opt = incremental.BudgetNodes
	case 'e':
		opt = incremental.BudgetEdges
	case 's':
		opt = incremental.BudgetStates
	case 't':
		opt = incremental.BudgetDuration
	case 'm':
		opt = incremental.BudgetMultiplier
	default:
		return incremental.Budget{}, fmt.Errorf("strix: bad -onthefly value %q: unknown kind %q", s, string(kind))
	}
	return incremental.Budget{Option: opt, Num: num}, nil
}

func parseLabel(s string) (symbolic.LabellingKind, error) {
	switch s {
	case "none":
		return symbolic.LabelSimple, nil
	case "outer":
		return symbolic.LabelAutomaton, nil
	case "inner":
		return symbolic.LabelInner, nil
	default:
		return 0, fmt.Errorf("strix: unknown -label value %q", s)
	}
}

func parseReordering(s string) (bdd.ReorderMode, error) {
	switch s {
	case "none":
		return bdd.ReorderNone, nil
	case "heuristic":
		return bdd.ReorderHeuristic, nil
	case "mixed":
		return bdd.ReorderMixed, nil
	case "exact":
		return bdd.ReorderExact, nil
	default:
		return 0, fmt.Errorf("strix: unknown -reordering value %q", s)
	}
}

func parseCompression(s string) (aig.CompressionLevel, error) {
	switch s {
	case "none":
		return aig.CompressNone, nil
	case "basic":
		return aig.CompressBasic, nil
	case "more":
		return aig.CompressMore, nil
	default:
		return 0, fmt.Errorf("strix: unknown -compression value %q", s)
	}
}

func writeControllerOutput(out *os.File, opts *orchestrator.Options, result *orchestrator.Result) error {
	bw := bufio.NewWriter(out)
	defer bw.Flush()

	switch opts.OutputFormat {
	case orchestrator.FormatPG:
		return nil
	case orchestrator.FormatHOA:
		return hoa.Write(bw, result.Machine, &proposition.Set{Inputs: opts.Inputs, Outputs: opts.Outputs})
	case orchestrator.FormatBDD:
		if result.Encoding == nil {
			return fmt.Errorf("strix: no BDD encoding was produced")
		}
		for k, ref := range result.Encoding.OutputBDD {
			s, err := result.Encoding.Manager.Factored(ref, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(bw, "%s = %s\n", opts.Outputs[k], s)
		}
		return nil
	case orchestrator.FormatAAG:
		if result.Circuit == nil {
			return fmt.Errorf("strix: no AIG circuit was produced")
		}
		return result.Circuit.WriteASCII(bw)
	case orchestrator.FormatAIG:
		if result.Circuit == nil {
			return fmt.Errorf("strix: no AIG circuit was produced")
		}
		return result.Circuit.WriteBinary(bw)
	default:
		return fmt.Errorf("strix: unknown output format")
	}
}
