package imaging

import (
	"image"
	"testing"
)

func fillMask(m *Mask, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, 255)
		}
	}
}

func TestSobel_Uniform(t *testing.T) {
	m := NewMask(6, 4)
	fillMask(m, image.Rect(0, 0, 6, 4))

	g, err := Sobel(m)
	if err != nil {
		t.Fatalf("Sobel() error: %v", err)
	}
	for i := range g.X {
		if g.X[i] != 0 || g.Y[i] != 0 {
			t.Fatalf("uniform mask should have zero gradient, got gx=%v gy=%v at %d", g.X[i], g.Y[i], i)
		}
	}
}

func TestSobel_VerticalStep(t *testing.T) {
	// left half background, right half ink
	m := NewMask(6, 3)
	fillMask(m, image.Rect(3, 0, 6, 3))

	g, err := Sobel(m)
	if err != nil {
		t.Fatalf("Sobel() error: %v", err)
	}
	tests := []struct {
		x, y int
		want float32
	}{
		{2, 1, 4},
		{3, 1, 4},
		{0, 1, 0},
	}
	for _, tt := range tests {
		if gx, _ := g.At(tt.x, tt.y); gx != tt.want {
			t.Errorf("gx at (%d,%d): got %v, want %v", tt.x, tt.y, gx, tt.want)
		}
	}
	// mirrored rows leave no vertical gradient
	for i, v := range g.Y {
		if v != 0 {
			t.Fatalf("gy should be zero, got %v at %d", v, i)
		}
	}
}

func TestSobel_BorderReflects(t *testing.T) {
	// a single ink pixel on the left edge: reflect-101 mirrors column 1 onto
	// column -1, so gx at the pixel itself cancels out
	m := NewMask(3, 3)
	m.Set(0, 1, 200)

	g, err := Sobel(m)
	if err != nil {
		t.Fatalf("Sobel() error: %v", err)
	}
	if gx, _ := g.At(0, 1); gx != 0 {
		t.Errorf("gx at reflected border: got %v, want 0", gx)
	}
	if gx, _ := g.At(1, 1); gx != -2 {
		t.Errorf("gx right of pixel: got %v, want -2", gx)
	}
}

func TestSobel_Empty(t *testing.T) {
	g, err := Sobel(NewMask(0, 0))
	if err != nil {
		t.Fatalf("Sobel() error: %v", err)
	}
	if len(g.X) != 0 || len(g.Y) != 0 {
		t.Errorf("empty mask should give empty planes")
	}
}

func TestIndicatorMat(t *testing.T) {
	m := NewMask(2, 2)
	m.Set(1, 0, 200)
	m.Set(0, 1, 1)

	mat, err := IndicatorMat(m)
	if err != nil {
		t.Fatalf("IndicatorMat() error: %v", err)
	}
	defer mat.Close()

	got := mat.ToBytes()
	want := []byte{0, 1, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("indicator[%d]: got %d, want %d", i, got[i], want[i])
		}
	}
}
