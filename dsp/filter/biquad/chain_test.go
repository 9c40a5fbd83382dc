package biquad

import (
	"math"
	"testing"
)

func TestNewChain_Empty(t *testing.T) {
	c := NewChain(nil)
	if c.NumSections() != 0 {
		t.Fatalf("expected 0 sections, got %d", c.NumSections())
	}
	if y := c.ProcessSample(0.5); !almostEqual(y, 0.5, eps) {
		t.Fatalf("empty chain should pass through: got %v", y)
	}
}

func TestChain_CascadeMatchesManual(t *testing.T) {
	coeffs := []Coefficients{
		{B0: 0.3, B1: 0.2, B2: 0.1, A1: -0.5, A2: 0.2},
		{B0: 0.7, B1: -0.1, B2: 0.05, A1: 0.3, A2: -0.1},
	}

	chain := NewChain(coeffs)
	s0 := NewSection(coeffs[0])
	s1 := NewSection(coeffs[1])

	for i := 0; i < 64; i++ {
		x := math.Sin(0.2 * float64(i))
		want := s1.ProcessSample(s0.ProcessSample(x))
		got := chain.ProcessSample(x)
		if !almostEqual(got, want, 1e-12) {
			t.Fatalf("sample %d: chain %v != manual cascade %v", i, got, want)
		}
	}
}

func TestChain_WithGain(t *testing.T) {
	chain := NewChain([]Coefficients{passthrough()}, WithGain(2))
	if y := chain.ProcessSample(1); !almostEqual(y, 2, eps) {
		t.Fatalf("gain not applied: got %v", y)
	}
	chain.SetGain(0.5)
	if chain.Gain() != 0.5 {
		t.Fatalf("gain not updated: %v", chain.Gain())
	}
}

func TestChain_ProcessBlockMatchesPerSample(t *testing.T) {
	coeffs := []Coefficients{
		{B0: 0.25, B1: 0.5, B2: 0.25, A1: -0.2, A2: 0.04},
		{B0: 0.9, B1: 0.1, B2: 0, A1: -0.1, A2: 0},
	}

	input := make([]float64, 101)
	for i := range input {
		input[i] = math.Cos(0.05 * float64(i))
	}

	ref := NewChain(coeffs, WithGain(1.5))
	want := make([]float64, len(input))
	for i, x := range input {
		want[i] = ref.ProcessSample(x)
	}

	blk := NewChain(coeffs, WithGain(1.5))
	got := append([]float64(nil), input...)
	blk.ProcessBlock(got)

	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Fatalf("sample %d: block %v != per-sample %v", i, got[i], want[i])
		}
	}
}

func TestChain_UpdateCoefficients_PreservesState(t *testing.T) {
	chain := NewChain([]Coefficients{simpleLowpass()})
	chain.ProcessSample(1)
	before := chain.State()

	chain.UpdateCoefficients([]Coefficients{{B0: 0.4, B1: 0.4}}, 1)
	after := chain.State()

	if before[0] != after[0] {
		t.Fatalf("same-size update cleared state: before %v, after %v", before, after)
	}

	// Changing the section count resets state.
	chain.UpdateCoefficients([]Coefficients{passthrough(), passthrough()}, 1)
	for i, st := range chain.State() {
		if st != [2]float64{0, 0} {
			t.Fatalf("section %d state not reset after resize: %v", i, st)
		}
	}
}

func TestChain_StateRoundTrip(t *testing.T) {
	chain := NewChain([]Coefficients{simpleLowpass(), simpleLowpass()})
	chain.ProcessSample(1)
	chain.ProcessSample(-0.5)

	saved := chain.State()
	chain.Reset()
	chain.SetState(saved)

	got := chain.State()
	for i := range saved {
		if got[i] != saved[i] {
			t.Fatalf("section %d: got %v, want %v", i, got[i], saved[i])
		}
	}
}
