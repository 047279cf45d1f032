package noise

import (
	"math"
	"testing"
)

func TestSample2DRangeAndDeterminism(t *testing.T) {
	a := NewNoiseGenerator(42)
	b := NewNoiseGenerator(42)

	for i := 0; i < 2000; i++ {
		x := float64(i) * 0.037
		va := a.Sample2D(x, 0.5)
		vb := b.Sample2D(x, 0.5)
		if va < 0 || va > 1 {
			t.Fatalf("Sample2D(%v) = %v out of [0,1]", x, va)
		}
		if va != vb {
			t.Fatalf("same seed diverged at x=%v: %v vs %v", x, va, vb)
		}
	}
}

func TestSample2DIsSmooth(t *testing.T) {
	ng := NewNoiseGenerator(7)
	prev := ng.Sample2D(0, 0.5)
	for i := 1; i < 1000; i++ {
		x := float64(i) * 0.001
		v := ng.Sample2D(x, 0.5)
		if math.Abs(v-prev) > 0.01 {
			t.Fatalf("jump of %v between consecutive samples at x=%v", math.Abs(v-prev), x)
		}
		prev = v
	}
}

func TestPerlin2DLatticeIsZero(t *testing.T) {
	ng := NewNoiseGenerator(1)
	for x := -3; x <= 3; x++ {
		for y := -3; y <= 3; y++ {
			if v := ng.Perlin2D(float64(x), float64(y), 99); v != 0 {
				t.Errorf("Perlin2D(%d,%d) = %v, want 0", x, y, v)
			}
		}
	}
}

func TestSeedsDecorrelate(t *testing.T) {
	a := NewNoiseGenerator(1)
	b := NewNoiseGenerator(2)
	same := 0
	for i := 0; i < 100; i++ {
		x := float64(i)*0.31 + 0.17
		if a.Sample2D(x, 0.5) == b.Sample2D(x, 0.5) {
			same++
		}
	}
	if same > 10 {
		t.Errorf("different seeds produced %d identical samples out of 100", same)
	}
}

func TestFBM1DZeroOctaves(t *testing.T) {
	ng := NewNoiseGenerator(3)
	if v := ng.FBM1D(1.5, 0, 2, 0.5, 3); v != 0 {
		t.Errorf("FBM1D with zero octaves = %v, want 0", v)
	}
}
