package detection

import (
	"image"
	"math"
)

// Point is a sub-pixel image coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Lerp returns the point a fraction t of the way from p to q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// Quad is a character quadrilateral with corners ordered top-left,
// top-right, bottom-right, bottom-left.
type Quad [4]Point

// QuadFromRect builds an axis-aligned quad.
func QuadFromRect(r image.Rectangle) Quad {
	return Quad{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
	}
}

// Center returns the mean of the four corners.
func (q Quad) Center() Point {
	var c Point
	for _, p := range q {
		c.X += p.X
		c.Y += p.Y
	}
	return Point{X: c.X / 4, Y: c.Y / 4}
}

// Bounds returns the axis-aligned bounding rectangle with corner coordinates
// truncated to integers. Max is exclusive, so a quad whose corners all share
// an x or y coordinate has empty bounds.
func (q Quad) Bounds() image.Rectangle {
	minX, minY := math.MaxInt, math.MaxInt
	maxX, maxY := math.MinInt, math.MinInt
	for _, p := range q {
		x, y := int(p.X), int(p.Y)
		minX = min(minX, x)
		minY = min(minY, y)
		maxX = max(maxX, x)
		maxY = max(maxY, y)
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// TopWidth is the length of the top edge.
func (q Quad) TopWidth() float64 {
	return math.Hypot(q[1].X-q[0].X, q[1].Y-q[0].Y)
}

// Detection is one raw result from a text detection oracle: a quadrilateral
// with the text recognized inside it.
type Detection struct {
	Quad       Quad    `json:"quad"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// CharacterBox locates a single character on the worksheet.
type CharacterBox struct {
	Text       string  `json:"char"`
	Quad       Quad    `json:"quad"`
	Confidence float64 `json:"confidence"`

	// Set by the grid filter.
	InTable  bool   `json:"in_table,omitempty"`
	CellSide string `json:"cell_side,omitempty"`

	// Set by the handwriting classifier fallback.
	HandwritingScore float64 `json:"handwriting_score,omitempty"`
}
