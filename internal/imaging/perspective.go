package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"
)

// PerspectiveCorrect flattens a photographed sheet of paper.
//
// The largest external contour of the edge map is approximated with a
// polygon (epsilon = 2% of its perimeter). When that polygon has exactly four
// vertices the image is warped so those corners become the output rectangle.
// Otherwise the input is returned unchanged: failing to find the paper is
// not an error.
func (p *Preprocessor) PerspectiveCorrect(img image.Image) (image.Image, error) {
	corners, ok, err := DetectPaperCorners(img)
	if err != nil {
		return nil, err
	}
	if !ok {
		return img, nil
	}
	return WarpToCorners(img, corners)
}

// PerspectiveCorrectCorners warps img using caller-supplied corners in any
// order; they are sorted into top-left, top-right, bottom-right, bottom-left
// first.
func (p *Preprocessor) PerspectiveCorrectCorners(img image.Image, corners []image.Point) (image.Image, error) {
	if len(corners) != 4 {
		return nil, fmt.Errorf("perspective correction needs 4 corners, got %d", len(corners))
	}
	return WarpToCorners(img, orderCorners(corners))
}

// DetectPaperCorners finds the four corners of the dominant quadrilateral in
// the image, ordered top-left, top-right, bottom-right, bottom-left.
func DetectPaperCorners(img image.Image) ([4]image.Point, bool, error) {
	var corners [4]image.Point

	gray, err := grayMat(img)
	if err != nil {
		return corners, false, err
	}
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, 50, 150)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	if contours.Size() == 0 {
		return corners, false, nil
	}

	best := -1
	bestArea := -1.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			bestArea = area
			best = i
		}
	}

	largest := contours.At(best)
	epsilon := 0.02 * gocv.ArcLength(largest, true)
	approx := gocv.ApproxPolyDP(largest, epsilon, true)
	defer approx.Close()

	if approx.Size() != 4 {
		return corners, false, nil
	}

	pts := approx.ToPoints()
	return orderCorners(pts), true, nil
}

// orderCorners sorts four points into TL, TR, BR, BL order using the usual
// coordinate sum/difference trick.
func orderCorners(pts []image.Point) [4]image.Point {
	var out [4]image.Point
	sorted := make([]image.Point, len(pts))
	copy(sorted, pts)

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].X+sorted[i].Y < sorted[j].X+sorted[j].Y
	})
	out[0] = sorted[0]
	out[2] = sorted[len(sorted)-1]

	rest := []image.Point{sorted[1], sorted[2]}
	if rest[0].X-rest[0].Y > rest[1].X-rest[1].Y {
		out[1], out[3] = rest[0], rest[1]
	} else {
		out[1], out[3] = rest[1], rest[0]
	}
	return out
}

// WarpToCorners maps the quadrilateral corners (TL, TR, BR, BL) onto an
// axis-aligned rectangle whose sides are the longer of each pair of opposite
// edges.
func WarpToCorners(img image.Image, corners [4]image.Point) (image.Image, error) {
	width := int(math.Max(dist(corners[0], corners[1]), dist(corners[2], corners[3])))
	height := int(math.Max(dist(corners[0], corners[3]), dist(corners[1], corners[2])))
	if width <= 1 || height <= 1 {
		return img, nil
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer src.Close()

	srcPts := gocv.NewPointVectorFromPoints(corners[:])
	defer srcPts.Close()
	dstPts := gocv.NewPointVectorFromPoints([]image.Point{
		{0, 0},
		{width - 1, 0},
		{width - 1, height - 1},
		{0, height - 1},
	})
	defer dstPts.Close()

	transform := gocv.GetPerspectiveTransform(srcPts, dstPts)
	defer transform.Close()

	warped := gocv.NewMat()
	defer warped.Close()
	gocv.WarpPerspective(src, &warped, transform, image.Pt(width, height))

	out, err := warped.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert warped mat: %w", err)
	}
	return out, nil
}

func dist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
