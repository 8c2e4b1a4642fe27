package scoring

import (
	"math"
	"testing"
)

func TestAngleHistogram(t *testing.T) {
	h := AngleHistogram([]float64{-180, -175, 0, 5, 179, 180, 200})

	if len(h) != 36 {
		t.Fatalf("expected 36 bins, got %d", len(h))
	}
	// six values in range, 200 is dropped
	unit := 1 / (6 + 1e-6)
	want := map[int]float64{0: 2 * unit, 18: 2 * unit, 35: 2 * unit}
	for i, v := range h {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("bin %d: got %v, want %v", i, v, want[i])
		}
	}
}

func TestAngleHistogram_Empty(t *testing.T) {
	for i, v := range AngleHistogram(nil) {
		if v != 0 {
			t.Errorf("bin %d: got %v, want 0", i, v)
		}
	}
}

func TestHistogramCorrelation(t *testing.T) {
	a := AngleHistogram([]float64{0, 0, 90, 90, 90, -90})
	b := AngleHistogram([]float64{-45, 135})
	flat := make([]float64, 36)

	tests := []struct {
		name string
		x, y []float64
		want float64
		tol  float64
	}{
		{"self", a, a, 1, 1e-9},
		{"flat is defined as 1", flat, a, 1, 0},
		{"both flat", flat, flat, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HistogramCorrelation(tt.x, tt.y); math.Abs(got-tt.want) > tt.tol {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if got := HistogramCorrelation(a, b); got >= 0 {
		t.Errorf("disjoint histograms should correlate negatively, got %v", got)
	}
}
