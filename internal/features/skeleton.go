package features

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// skeletonThreshold is the value a mask pixel must exceed to take part in
// thinning. Area-resized masks have soft edges; only the solid part counts.
const skeletonThreshold = 127

// Skeletonize reduces the ink of m (pixels > 127) to one-pixel-wide lines
// with Zhang-Suen thinning, which preserves connectivity and endpoints.
// The result is a 0/255 mask of the same size.
func Skeletonize(m *imaging.Mask) (*imaging.Mask, error) {
	if m.Empty() {
		return imaging.NewMask(m.Width, m.Height), nil
	}

	src, err := imaging.MaskMat(m)
	if err != nil {
		return nil, fmt.Errorf("skeletonize: %w", err)
	}
	defer src.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(src, &binary, skeletonThreshold, 255, gocv.ThresholdBinary)

	thin := gocv.NewMat()
	defer thin.Close()
	contrib.Thinning(binary, &thin, contrib.ThinningZhangSuen)

	return imaging.MaskFromMat(thin)
}

// neighbourCounts returns, for every pixel, the number of 8-connected ink
// neighbours. The border is mirrored (reflect-101), so a pixel on the edge
// sees its inner neighbours twice.
func neighbourCounts(skeleton *imaging.Mask) ([]uint8, error) {
	indicator, err := imaging.IndicatorMat(skeleton)
	if err != nil {
		return nil, err
	}
	defer indicator.Close()

	kernel := gocv.Ones(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	kernel.SetFloatAt(1, 1, 0)

	counts := gocv.NewMat()
	defer counts.Close()
	gocv.Filter2D(indicator, &counts, gocv.MatTypeCV8U, kernel, image.Pt(-1, -1), 0, gocv.BorderReflect101)

	return counts.ToBytes(), nil
}

// KeyPoints returns the skeleton endpoints (exactly one neighbour) and
// junctions (three or more), each in row-major order.
func KeyPoints(skeleton *imaging.Mask) (endpoints, junctions []image.Point, err error) {
	endpoints = []image.Point{}
	junctions = []image.Point{}
	if skeleton.Empty() {
		return endpoints, junctions, nil
	}

	counts, err := neighbourCounts(skeleton)
	if err != nil {
		return nil, nil, fmt.Errorf("key points: %w", err)
	}
	for i, v := range skeleton.Pix {
		if v == 0 {
			continue
		}
		p := image.Pt(i%skeleton.Width, i/skeleton.Width)
		switch n := counts[i]; {
		case n == 1:
			endpoints = append(endpoints, p)
		case n >= 3:
			junctions = append(junctions, p)
		}
	}
	return endpoints, junctions, nil
}

// StrokeFeatures measures a skeleton. An empty skeleton has zero length and
// zero strokes.
func StrokeFeatures(skeleton *imaging.Mask) (StrokeStats, error) {
	total := skeleton.CountNonZero()
	if total == 0 {
		return StrokeStats{
			Endpoints: []image.Point{},
			Junctions: []image.Point{},
		}, nil
	}

	endpoints, junctions, err := KeyPoints(skeleton)
	if err != nil {
		return StrokeStats{}, err
	}
	return StrokeStats{
		TotalLength: total,
		StrokeCount: max(1, (len(endpoints)+1)/2),
		Endpoints:   endpoints,
		Junctions:   junctions,
	}, nil
}

// StrokeAngles returns the Sobel gradient direction, in degrees within
// [-180, 180], at every skeleton pixel in row-major order.
func StrokeAngles(skeleton *imaging.Mask) ([]float64, error) {
	angles := make([]float64, 0, skeleton.CountNonZero())
	if cap(angles) == 0 {
		return angles, nil
	}

	g, err := imaging.Sobel(skeleton)
	if err != nil {
		return nil, fmt.Errorf("stroke angles: %w", err)
	}
	for i, v := range skeleton.Pix {
		if v == 0 {
			continue
		}
		angles = append(angles, math.Atan2(float64(g.Y[i]), float64(g.X[i]))*180/math.Pi)
	}
	return angles, nil
}
