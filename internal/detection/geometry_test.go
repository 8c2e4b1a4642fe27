package detection

import (
	"image"
	"math"
	"testing"
)

func TestQuadCenter(t *testing.T) {
	q := Quad{{0, 0}, {10, 0}, {10, 20}, {0, 20}}
	c := q.Center()
	if c.X != 5 || c.Y != 10 {
		t.Errorf("Center: got %+v, want (5,10)", c)
	}
}

func TestQuadBounds(t *testing.T) {
	tests := []struct {
		name string
		quad Quad
		want image.Rectangle
	}{
		{"axis aligned", QuadFromRect(image.Rect(3, 4, 30, 40)), image.Rect(3, 4, 30, 40)},
		{"fractional truncates", Quad{{3.9, 4.2}, {30.7, 4.9}, {30.1, 40.99}, {3.2, 40.5}}, image.Rect(3, 4, 30, 40)},
		{"skewed", Quad{{10, 0}, {20, 2}, {18, 12}, {8, 10}}, image.Rect(8, 0, 20, 12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quad.Bounds(); got != tt.want {
				t.Errorf("Bounds: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointLerp(t *testing.T) {
	p := Point{0, 10}.Lerp(Point{10, 20}, 0.25)
	if math.Abs(p.X-2.5) > 1e-9 || math.Abs(p.Y-12.5) > 1e-9 {
		t.Errorf("Lerp: got %+v, want (2.5,12.5)", p)
	}
}

func TestQuadTopWidth(t *testing.T) {
	q := Quad{{0, 0}, {3, 4}, {3, 10}, {0, 10}}
	if w := q.TopWidth(); math.Abs(w-5) > 1e-9 {
		t.Errorf("TopWidth: got %v, want 5", w)
	}
}
