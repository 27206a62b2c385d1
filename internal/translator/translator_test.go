package translator

import "testing"

func TestNormalizeAcceptanceSafety(t *testing.T) {
	p, c := NormalizeAcceptance(Safety, 1, 7)
	if p != 0 {
		t.Fatalf("safety priority = %d, want 0", p)
	}
	if c != 1 {
		t.Fatalf("safety numColors = %d, want 1", c)
	}
}

func TestNormalizeAcceptanceCoSafety(t *testing.T) {
	p, c := NormalizeAcceptance(CoSafety, 0, 3)
	if p != 1 || c != 2 {
		t.Fatalf("co-safety (p,c) = (%d,%d), want (1,2)", p, c)
	}
}

func TestNormalizeAcceptanceBuchi(t *testing.T) {
	// NoColor (not in the accepting set) must normalize to an odd (losing)
	// priority, never to 0 — otherwise a Büchi condition is vacuously
	// winning.
	if p, c := NormalizeAcceptance(Buchi, 0, NoColor); p != 1 || c != 2 {
		t.Fatalf("buchi non-accepting (p,c) = (%d,%d), want (1,2)", p, c)
	}
	if p, c := NormalizeAcceptance(Buchi, 0, 0); p != 2 || c != 3 {
		t.Fatalf("buchi accepting (p,c) = (%d,%d), want (2,3)", p, c)
	}
}

func TestNormalizeAcceptanceParityMaxEvenIdentity(t *testing.T) {
	p, c := NormalizeAcceptance(ParityMaxEven, 4, 2)
	if p != 2 || c != 4 {
		t.Fatalf("max-even identity (p,c) = (%d,%d), want (2,4)", p, c)
	}
}

func TestNormalizeAcceptanceParityMinEven(t *testing.T) {
	// Reflecting a min-condition into max-even via nc-1-priority only
	// preserves the win parity when nc-1 is even, i.e. nc is odd; 3 is
	// already odd so it is left unbumped.
	p, c := NormalizeAcceptance(ParityMinEven, 3, 0)
	if c != 3 {
		t.Fatalf("numColors = %d, want 3", c)
	}
	if p != 2 {
		t.Fatalf("priority = %d, want 2", p)
	}
}

func TestNormalizeAcceptanceParityMinOdd(t *testing.T) {
	// ParityMinOdd needs nc even so that nc-1 is odd; 3 is odd so it is
	// bumped up to 4.
	p, c := NormalizeAcceptance(ParityMinOdd, 3, 0)
	if c != 4 {
		t.Fatalf("numColors = %d, want 4", c)
	}
	if p != 3 {
		t.Fatalf("priority = %d, want 3", p)
	}
}

func TestConstantVMTrue(t *testing.T) {
	vm := ConstantVM{}
	f, err := vm.Parse("true", nil)
	if err != nil {
		t.Fatalf("Parse(true) error: %v", err)
	}
	a, err := vm.Build(f, false)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if a.Initial() != Top {
		t.Fatalf("Initial() = %d, want Top", a.Initial())
	}
}

func TestConstantVMFalse(t *testing.T) {
	vm := ConstantVM{}
	f, err := vm.Parse(" false ", nil)
	if err != nil {
		t.Fatalf("Parse(false) error: %v", err)
	}
	a, err := vm.Build(f, false)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if a.Initial() != Bottom {
		t.Fatalf("Initial() = %d, want Bottom", a.Initial())
	}
}

func TestConstantVMRejectsNonLiteral(t *testing.T) {
	vm := ConstantVM{}
	if _, err := vm.Parse("a & X!a", []string{"a"}); err == nil {
		t.Fatal("expected an error for a non-constant formula")
	}
}

func TestConstantAutomatonEdgeTreeFails(t *testing.T) {
	vm := ConstantVM{}
	f, _ := vm.Parse("true", nil)
	a, _ := vm.Build(f, false)
	if _, err := a.EdgeTree(a.Initial()); err == nil {
		t.Fatal("expected EdgeTree to fail on the sentinel-only constant automaton")
	}
}
