package orchestrator

import (
	"testing"

	"github.com/strixeng/strix/internal/incremental"
	"github.com/strixeng/strix/internal/pgame"
	"github.com/strixeng/strix/internal/translator"
)

// fixtureVM reproduces the "a & XG!a" example (no inputs, one output "a")
// as an ExplicitVM so Run can be driven end to end without a real LTL
// parser.
func fixtureVM() *translator.ExplicitVM {
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
	return &translator.ExplicitVM{Automaton: automaton}
}

func baseOptions() Options {
	return Options{
		Formula: "a & XG!a",
		Outputs: []string{"a"},
		Solver:  SolverFPI,
	}
}

func TestRunRealizabilityOnlySkipsTransducerConstruction(t *testing.T) {
	opts := baseOptions()
	opts.RealizabilityOnly = true
	opts.OutputFormat = FormatPG

	res, err := Run(fixtureVM(), opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !res.Realizable() {
		t.Fatal("expected a realizable verdict")
	}
	if res.Winner != pgame.System {
		t.Fatalf("Winner = %v, want System", res.Winner)
	}
	if res.Machine != nil {
		t.Fatal("RealizabilityOnly should not build a transducer")
	}
}

func TestRunHOAFormatBuildsMachineButNotEncoding(t *testing.T) {
	opts := baseOptions()
	opts.OutputFormat = FormatHOA

	res, err := Run(fixtureVM(), opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Machine == nil {
		t.Fatal("expected a built transducer")
	}
	if res.Machine.NumStates() != 2 {
		t.Fatalf("NumStates() = %d, want 2", res.Machine.NumStates())
	}
	if res.Encoding != nil || res.Circuit != nil {
		t.Fatal("hoa output should not run the symbolic/AIG stages")
	}
}

func TestRunAIGFormatProducesOneLatchCircuit(t *testing.T) {
	opts := baseOptions()
	opts.OutputFormat = FormatAIG

	res, err := Run(fixtureVM(), opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Encoding == nil {
		t.Fatal("expected a symbolic encoding")
	}
	if res.Circuit == nil {
		t.Fatal("expected a built AIG circuit")
	}
	if len(res.Circuit.Latches) != 1 {
		t.Fatalf("len(Latches) = %d, want 1", len(res.Circuit.Latches))
	}
	if len(res.Circuit.Outputs) != 1 || res.Circuit.OutputNames[0] != "a" {
		t.Fatalf("Outputs = %v names %v, want one output named a", res.Circuit.Outputs, res.Circuit.OutputNames)
	}
}

func TestRunRejectsZLKWithoutRealizabilityOnly(t *testing.T) {
	opts := baseOptions()
	opts.Solver = SolverZLK
	opts.OutputFormat = FormatPG

	_, err := Run(fixtureVM(), opts)
	if err == nil {
		t.Fatal("expected a ConfigurationError")
	}
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("error = %T, want *ConfigurationError", err)
	}
}

func TestRunZLKRealizabilityOnlyReportsVerdictWithNoStrategy(t *testing.T) {
	opts := baseOptions()
	opts.Solver = SolverZLK
	opts.RealizabilityOnly = true
	opts.OutputFormat = FormatPG

	res, err := Run(fixtureVM(), opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Verdict != incremental.RealizableEven {
		t.Fatalf("Verdict = %v, want RealizableEven", res.Verdict)
	}
	if res.Machine != nil {
		t.Fatal("expected no transducer from a realizability-only ZLK run")
	}
}

// unrealizableFixtureVM is a trivial one-vertex game whose initial state is
// the Bottom sentinel: a priority-1 self-loop, so Environment wins outright
// with no exploration needed.
func unrealizableFixtureVM() *translator.ExplicitVM {
	automaton := &translator.ExplicitAutomaton{
		InitialState: translator.Bottom,
		Kind:         translator.Safety,
		NumColorsRaw: 1,
		States:       map[int]translator.StateSpec{},
	}
	return &translator.ExplicitVM{Automaton: automaton}
}

func TestRunUnrealizableStillBuildsMooreMachineWhenControllerRequested(t *testing.T) {
	opts := baseOptions()
	opts.Formula = "false"
	opts.OutputFormat = FormatHOA

	res, err := Run(unrealizableFixtureVM(), opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Realizable() {
		t.Fatal("expected an unrealizable verdict")
	}
	if res.Winner != pgame.Environment {
		t.Fatalf("Winner = %v, want Environment", res.Winner)
	}
	if res.Machine == nil {
		t.Fatal("expected a Moore machine to be built for the unrealizable verdict")
	}
	if res.Machine.Winner != pgame.Environment {
		t.Fatalf("Machine.Winner = %v, want Environment", res.Machine.Winner)
	}
}

func TestRunUnrealizableRealizabilityOnlySkipsTransducerConstruction(t *testing.T) {
	opts := baseOptions()
	opts.Formula = "false"
	opts.RealizabilityOnly = true
	opts.OutputFormat = FormatPG

	res, err := Run(unrealizableFixtureVM(), opts)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Realizable() {
		t.Fatal("expected an unrealizable verdict")
	}
	if res.Machine != nil {
		t.Fatal("RealizabilityOnly should not build a transducer")
	}
}

func TestParseHelpersRoundTripValidTokensAndRejectUnknown(t *testing.T) {
	if s, err := ParseSolver("si"); err != nil || s != SolverSI {
		t.Fatalf("ParseSolver(si) = (%v,%v), want (SolverSI,nil)", s, err)
	}
	if _, err := ParseSolver("bogus"); err == nil {
		t.Fatal("expected an error for an unknown solver token")
	}
	if m, err := ParseMinimize("both"); err != nil || m != MinimizeBoth {
		t.Fatalf("ParseMinimize(both) = (%v,%v), want (MinimizeBoth,nil)", m, err)
	}
	if f, err := ParseOutputFormat("aag"); err != nil || f != FormatAAG {
		t.Fatalf("ParseOutputFormat(aag) = (%v,%v), want (FormatAAG,nil)", f, err)
	}
	if _, err := ParseSimplification("bogus"); err == nil {
		t.Fatal("expected an error for an unknown simplification token")
	}
}
