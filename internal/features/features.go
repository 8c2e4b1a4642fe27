package features

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// Point2D is a normalized coordinate in [0, 1].
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ratios is the share of ink in each half of the character box.
// Upper+Lower and Left+Right are both 1.
type Ratios struct {
	Upper float64 `json:"upper_ratio"`
	Lower float64 `json:"lower_ratio"`
	Left  float64 `json:"left_ratio"`
	Right float64 `json:"right_ratio"`
}

// StrokeStats summarizes the skeleton.
type StrokeStats struct {
	// TotalLength is the skeleton pixel count, a proxy for path length.
	TotalLength int `json:"total_length"`

	// StrokeCount is estimated from endpoints alone: max(1, (endpoints+1)/2).
	// Closed loops and junctions are not accounted for.
	StrokeCount int `json:"stroke_count"`

	Endpoints []image.Point `json:"endpoints"`
	Junctions []image.Point `json:"junctions"`
}

// FeatureSet is the measured shape of one character.
type FeatureSet struct {
	CenterOfMass Point2D     `json:"center_of_mass"`
	Ratios       *Ratios     `json:"ratios,omitempty"`
	Strokes      StrokeStats `json:"stroke_features"`
	Angles       []float64   `json:"angles"`
	Size         image.Point `json:"size"`
}

// Extract measures m. The mask is read as-is; callers resize it to the
// canonical size first so that results are comparable.
func Extract(m *imaging.Mask) (*FeatureSet, error) {
	skeleton, err := Skeletonize(m)
	if err != nil {
		return nil, err
	}
	center, err := CenterOfMass(m)
	if err != nil {
		return nil, err
	}
	strokes, err := StrokeFeatures(skeleton)
	if err != nil {
		return nil, err
	}
	angles, err := StrokeAngles(skeleton)
	if err != nil {
		return nil, err
	}

	ratios := AspectRatios(m)
	return &FeatureSet{
		CenterOfMass: center,
		Ratios:       &ratios,
		Strokes:      strokes,
		Angles:       angles,
		Size:         m.Size(),
	}, nil
}

// CenterOfMass returns the intensity-weighted centroid (image moments
// m10/m00 and m01/m00) normalized by the mask width and height. A mask with
// no ink yields (0.5, 0.5).
func CenterOfMass(m *imaging.Mask) (Point2D, error) {
	neutral := Point2D{X: 0.5, Y: 0.5}
	if m.Empty() {
		return neutral, nil
	}

	mat, err := imaging.MaskMat(m)
	if err != nil {
		return Point2D{}, fmt.Errorf("center of mass: %w", err)
	}
	defer mat.Close()

	mom := gocv.Moments(mat, false)
	if mom["m00"] == 0 {
		return neutral, nil
	}
	return Point2D{
		X: mom["m10"] / mom["m00"] / float64(m.Width),
		Y: mom["m01"] / mom["m00"] / float64(m.Height),
	}, nil
}

// AspectRatios splits the mask at h/2 and w/2 (integer division, so an odd
// middle row or column counts toward the lower or right half) and returns the
// ink share of each half. A mask with no ink yields 0.5 everywhere.
func AspectRatios(m *imaging.Mask) Ratios {
	midY, midX := m.Height/2, m.Width/2
	var upper, lower, left, right int
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] == 0 {
				continue
			}
			if y < midY {
				upper++
			} else {
				lower++
			}
			if x < midX {
				left++
			} else {
				right++
			}
		}
	}

	upperRatio, leftRatio := 0.5, 0.5
	if total := upper + lower; total > 0 {
		upperRatio = float64(upper) / float64(total)
	}
	if total := left + right; total > 0 {
		leftRatio = float64(left) / float64(total)
	}
	return Ratios{
		Upper: upperRatio,
		Lower: 1 - upperRatio,
		Left:  leftRatio,
		Right: 1 - leftRatio,
	}
}
