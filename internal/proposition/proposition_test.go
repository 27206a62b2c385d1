package proposition

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetPartition(t *testing.T) {
	s := &Set{Inputs: []string{"r1", "r2"}, Outputs: []string{"g"}}

	require.Equal(t, 2, s.NumInputs())
	require.Equal(t, 1, s.NumOutputs())
	require.Equal(t, 3, s.Total())
	require.True(t, s.IsInput(0) && s.IsInput(1))
	require.False(t, s.IsInput(2))
	require.Equal(t, "r1", s.Name(0))
	require.Equal(t, "g", s.Name(2))
}

func TestStatusOfDefaultsToUsed(t *testing.T) {
	s := &Set{Inputs: []string{"a"}, Outputs: []string{"b"}}
	if got := s.StatusOf(0); got != Used {
		t.Fatalf("StatusOf with nil Statuses = %v, want Used", got)
	}
	s.EnsureStatuses()
	if len(s.Statuses) != 2 {
		t.Fatalf("EnsureStatuses allocated %d entries, want 2", len(s.Statuses))
	}
	s.Statuses[1] = ForcedTrue
	value, ok := s.StatusOf(1).Forced()
	if !ok || !value {
		t.Fatalf("StatusOf(1).Forced() = (%v,%v), want (true,true)", value, ok)
	}
}

func TestStatusForced(t *testing.T) {
	if _, ok := Used.Forced(); ok {
		t.Fatal("Used.Forced() should report ok=false")
	}
	if v, ok := ForcedFalse.Forced(); !ok || v {
		t.Fatalf("ForcedFalse.Forced() = (%v,%v), want (false,true)", v, ok)
	}
}
