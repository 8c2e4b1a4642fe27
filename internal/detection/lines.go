package detection

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// Orientation classifies a ruling segment.
type Orientation int

const (
	Oblique Orientation = iota
	Horizontal
	Vertical
)

// Line is a detected straight segment.
type Line struct {
	Start        image.Point `json:"start"`
	End          image.Point `json:"end"`
	Length       float64     `json:"length"`
	AngleDegrees float64     `json:"angle_degrees"`
}

// NewLine builds a Line from its endpoints, computing length and angle.
func NewLine(x1, y1, x2, y2 int) Line {
	dx := float64(x2 - x1)
	dy := float64(y2 - y1)
	return Line{
		Start:        image.Pt(x1, y1),
		End:          image.Pt(x2, y2),
		Length:       math.Hypot(dx, dy),
		AngleDegrees: segmentAngle(x1, y1, x2, y2),
	}
}

// segmentAngle is |atan(dy/dx)| in degrees; a segment with dx = 0 is 90.
func segmentAngle(x1, y1, x2, y2 int) float64 {
	if x2-x1 == 0 {
		return 90
	}
	return math.Abs(math.Atan(float64(y2-y1)/float64(x2-x1)) * 180 / math.Pi)
}

// Orientation reports whether the segment is within 10 degrees of vertical or
// horizontal.
func (l Line) Orientation() Orientation {
	switch {
	case l.AngleDegrees > 80:
		return Vertical
	case l.AngleDegrees < 10:
		return Horizontal
	default:
		return Oblique
	}
}

// Coordinate returns the x midpoint of a vertical line or the y midpoint of
// a horizontal one, truncated to an integer.
func (l Line) Coordinate() int {
	if l.Orientation() == Vertical {
		return int(float64(l.Start.X+l.End.X) / 2)
	}
	return int(float64(l.Start.Y+l.End.Y) / 2)
}

// Hough parameters for worksheet rulings.
const (
	houghRho       = 1
	houghThreshold = 100
	houghMinLength = 100
	houghMaxGap    = 10
)

// DetectLines finds long straight segments: Canny (50, 150), a single 3x3
// dilation to bridge small breaks, then the probabilistic Hough transform.
func DetectLines(img image.Image) ([]Line, error) {
	gray, err := imaging.GrayMat(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	if gray.Empty() {
		return nil, nil
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	gocv.Dilate(edges, &edges, kernel)

	segments := gocv.NewMat()
	defer segments.Close()
	gocv.HoughLinesPWithParams(edges, &segments, houghRho, float32(math.Pi/180),
		houghThreshold, houghMinLength, houghMaxGap)

	if segments.Empty() {
		return nil, nil
	}
	if segments.Type() != gocv.MatTypeCV32SC4 {
		return nil, fmt.Errorf("unexpected hough output type %d", segments.Type())
	}

	lines := make([]Line, 0, segments.Rows())
	for i := 0; i < segments.Rows(); i++ {
		v := segments.GetVeciAt(i, 0)
		lines = append(lines, NewLine(int(v[0]), int(v[1]), int(v[2]), int(v[3])))
	}
	return lines, nil
}
