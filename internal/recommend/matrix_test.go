package recommend

import (
	"math/rand"
	"testing"
)

func TestMatrixRowAndAt(t *testing.T) {
	m := NewMatrix(2, 3)
	row := m.Row(1)
	row[0], row[1], row[2] = 4, 5, 6

	if m.At(1, 0) != 4 || m.At(1, 2) != 6 {
		t.Errorf("expected row view to alias matrix data, got %v", m.Data)
	}
	if m.At(0, 0) != 0 {
		t.Errorf("expected untouched row to stay zero, got %v", m.At(0, 0))
	}
}

func TestNewUniformMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := NewUniformMatrix(10, 5, 0.1, 0.9, rng)

	for _, v := range m.Data {
		if v < 0.1 || v >= 0.9 {
			t.Fatalf("expected entries in [0.1, 0.9), got %v", v)
		}
	}

	// Same seed, same matrix.
	again := NewUniformMatrix(10, 5, 0.1, 0.9, rand.New(rand.NewSource(1)))
	for i := range m.Data {
		if m.Data[i] != again.Data[i] {
			t.Fatal("expected identical matrices from the same seed")
		}
	}
}

func TestSumSquares(t *testing.T) {
	m := NewMatrix(1, 3)
	m.Data[0], m.Data[1], m.Data[2] = 1, 2, 3

	if got := m.SumSquares(); got != 14 {
		t.Errorf("expected 14, got %v", got)
	}
}

func TestDotAndClamp(t *testing.T) {
	if got := dot([]float64{1, 2, 3}, []float64{4, 5, 6}); got != 32 {
		t.Errorf("expected dot 32, got %v", got)
	}

	if got := clamp(5, 0, 1); got != 1 {
		t.Errorf("expected clamp above to 1, got %v", got)
	}
	if got := clamp(-5, 0, 1); got != 0 {
		t.Errorf("expected clamp below to 0, got %v", got)
	}
	if got := clamp(0.5, 0, 1); got != 0.5 {
		t.Errorf("expected in-range value unchanged, got %v", got)
	}

	v := []float64{-1, 0.5, 99}
	clampSlice(v, 0, 1)
	if v[0] != 0 || v[1] != 0.5 || v[2] != 1 {
		t.Errorf("expected slice clamped in place, got %v", v)
	}
}
