package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// grayMat converts an image to a single-channel 8-bit Mat. The caller owns
// the returned Mat and must Close it.
func grayMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageGrayToMatGray(compactGray(ToGray(img)))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert image to mat: %w", err)
	}
	return mat, nil
}

// GrayMat is the exported form of grayMat for packages that run their own
// OpenCV stages (line detection, handwriting classification).
func GrayMat(img image.Image) (gocv.Mat, error) {
	return grayMat(img)
}

// MaskMat converts a mask to a CV_8U Mat. The caller owns the returned Mat.
func MaskMat(m *Mask) (gocv.Mat, error) {
	mat, err := gocv.ImageGrayToMatGray(m.Gray())
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert mask to mat: %w", err)
	}
	return mat, nil
}

// MaskFromMat copies a CV_8U Mat into a Mask. The Mat is not closed.
func MaskFromMat(mat gocv.Mat) (*Mask, error) {
	if mat.Empty() {
		return NewMask(0, 0), nil
	}
	if mat.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("expected CV_8U mat, got type %d", mat.Type())
	}
	data := mat.ToBytes()
	rows, cols := mat.Rows(), mat.Cols()
	if len(data) < rows*cols {
		return nil, fmt.Errorf("mat data too short: %d bytes for %dx%d", len(data), cols, rows)
	}
	m := NewMask(cols, rows)
	copy(m.Pix, data[:rows*cols])
	return m, nil
}

// IndicatorMat returns a CV_8U Mat that is 1 where m has ink and 0
// elsewhere. The caller owns the returned Mat.
func IndicatorMat(m *Mask) (gocv.Mat, error) {
	src, err := MaskMat(m)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer src.Close()

	dst := gocv.NewMat()
	gocv.Threshold(src, &dst, 0, 1, gocv.ThresholdBinary)
	return dst, nil
}

// float32Plane copies a continuous CV_32F Mat into Go memory.
func float32Plane(mat gocv.Mat) ([]float32, error) {
	data, err := mat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read float mat: %w", err)
	}
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// compactGray returns g with a zero origin and a stride equal to its width,
// copying only when needed. gocv reads Pix as one contiguous block.
func compactGray(g *image.Gray) *image.Gray {
	b := g.Bounds()
	if b.Min == (image.Point{}) && g.Stride == b.Dx() && len(g.Pix) == b.Dx()*b.Dy() {
		return g
	}
	return MaskFromGray(g).Gray()
}
