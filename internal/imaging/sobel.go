package imaging

import (
	"gocv.io/x/gocv"
)

// Gradient holds per-pixel derivatives in row-major order.
type Gradient struct {
	Width  int
	Height int
	X      []float32
	Y      []float32
}

// At returns the x and y derivatives at (x, y). Coordinates must be in range.
func (g *Gradient) At(x, y int) (float32, float32) {
	i := y*g.Width + x
	return g.X[i], g.Y[i]
}

// Sobel computes the 3x3 horizontal and vertical derivatives of the ink
// indicator of m (1 for ink, 0 for background) as CV_32F with a reflect-101
// border.
func Sobel(m *Mask) (*Gradient, error) {
	g := &Gradient{Width: m.Width, Height: m.Height}
	if m.Empty() {
		return g, nil
	}

	indicator, err := IndicatorMat(m)
	if err != nil {
		return nil, err
	}
	defer indicator.Close()

	plane := gocv.NewMat()
	defer plane.Close()
	indicator.ConvertTo(&plane, gocv.MatTypeCV32F)

	if g.X, err = sobelPlane(plane, 1, 0); err != nil {
		return nil, err
	}
	if g.Y, err = sobelPlane(plane, 0, 1); err != nil {
		return nil, err
	}
	return g, nil
}

func sobelPlane(src gocv.Mat, dx, dy int) ([]float32, error) {
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Sobel(src, &dst, gocv.MatTypeCV32F, dx, dy, 3, 1, 0, gocv.BorderReflect101)
	return float32Plane(dst)
}
