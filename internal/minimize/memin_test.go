package minimize

import "testing"

func TestComputeIncompatibilityMarksDifferingOutputsIncompatible(t *testing.T) {
	m := buildSolvedFixture(t)
	mat, err := ComputeIncompatibility(m)
	if err != nil {
		t.Fatalf("ComputeIncompatibility error: %v", err)
	}
	if !mat.at(0, 1) {
		t.Fatal("states 0 and 1 require opposite output values under their only input and should be incompatible")
	}
}

func TestTransitivelyCompatibleClassesAreSingletonsWhenAllIncompatible(t *testing.T) {
	m := buildSolvedFixture(t)
	mat, err := ComputeIncompatibility(m)
	if err != nil {
		t.Fatalf("ComputeIncompatibility error: %v", err)
	}
	classes := mat.TransitivelyCompatibleClasses()
	if len(classes) != 2 {
		t.Fatalf("len(classes) = %d, want 2 singleton classes", len(classes))
	}
	for _, c := range classes {
		if len(c) != 1 {
			t.Fatalf("class %v is not a singleton", c)
		}
	}
}

func TestMeMinLeavesAnAlreadyMinimalMachineAtTwoStates(t *testing.T) {
	m := buildSolvedFixture(t)
	out, err := MeMin(m)
	if err != nil {
		t.Fatalf("MeMin error: %v", err)
	}
	if out.NumStates() != 2 {
		t.Fatalf("NumStates() = %d, want 2 (already minimal)", out.NumStates())
	}
}
