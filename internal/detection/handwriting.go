package detection

import (
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// ClassifierConfig weights the four handwriting signals. A box is
// handwritten when the weighted sum exceeds Threshold.
type ClassifierConfig struct {
	DarknessWeight     float64
	DensityWeight      float64
	VariationWeight    float64
	IrregularityWeight float64
	Threshold          float64
}

// DefaultClassifierConfig returns the empirically calibrated weights.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		DarknessWeight:     0.35,
		DensityWeight:      0.25,
		VariationWeight:    0.25,
		IrregularityWeight: 0.15,
		Threshold:          0.45,
	}
}

// minCropSide is the smallest crop, in pixels per side, worth classifying.
const minCropSide = 10

// Signals are the individual handwriting cues, each in [0, 1].
type Signals struct {
	Darkness     float64 `json:"darkness"`
	Density      float64 `json:"density"`
	Variation    float64 `json:"variation"`
	Irregularity float64 `json:"irregularity"`
}

// HandwritingClassifier separates pen strokes from printed reference glyphs
// on worksheets without a detectable grid. Handwriting tends to be darker,
// denser and less uniform in stroke width than print.
type HandwritingClassifier struct {
	cfg ClassifierConfig
}

// NewHandwritingClassifier creates a classifier.
func NewHandwritingClassifier(cfg ClassifierConfig) *HandwritingClassifier {
	return &HandwritingClassifier{cfg: cfg}
}

// Combine returns the weighted sum of the signals.
func (h *HandwritingClassifier) Combine(s Signals) float64 {
	return h.cfg.DarknessWeight*s.Darkness +
		h.cfg.DensityWeight*s.Density +
		h.cfg.VariationWeight*s.Variation +
		h.cfg.IrregularityWeight*s.Irregularity
}

// Classify crops box out of gray and scores it. Crops smaller than 10 px on
// a side, or with no ink after Otsu binarization, are (false, 0).
func (h *HandwritingClassifier) Classify(gray *image.Gray, box CharacterBox) (bool, float64) {
	r := box.Quad.Bounds().Intersect(gray.Bounds())
	if r.Dx() < minCropSide || r.Dy() < minCropSide {
		return false, 0
	}
	crop := gray.SubImage(r).(*image.Gray)

	signals, ok := h.Signals(crop)
	if !ok {
		return false, 0
	}
	score := h.Combine(signals)
	return score > h.cfg.Threshold, score
}

// Signals measures the four cues on a grayscale crop. ok is false when the
// crop has no ink or cannot be converted.
func (h *HandwritingClassifier) Signals(crop *image.Gray) (Signals, bool) {
	var s Signals

	src, err := imaging.GrayMat(crop)
	if err != nil {
		return s, false
	}
	defer src.Close()
	if src.Empty() {
		return s, false
	}

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(src, &binary, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)

	ink, err := imaging.MaskFromMat(binary)
	if err != nil {
		return s, false
	}
	gray := imaging.MaskFromGray(crop)

	var inkCount int
	var inkSum float64
	for i, v := range ink.Pix {
		if v > 0 {
			inkCount++
			inkSum += float64(gray.Pix[i])
		}
	}
	if inkCount == 0 {
		return s, false
	}

	s.Darkness = darknessScore(inkSum / float64(inkCount))
	s.Density = clamp01(float64(inkCount) / float64(len(ink.Pix)) * 5)
	s.Variation = strokeWidthVariation(binary)
	s.Irregularity = edgeIrregularity(src, binary)
	return s, true
}

// darknessScore is 1 for mean ink gray below 100, falling linearly to 0 at 200.
func darknessScore(meanInk float64) float64 {
	if meanInk < 100 {
		return 1
	}
	return clamp01((200 - meanInk) / 100)
}

// strokeWidthVariation is the coefficient of variation of the L2 distance
// transform over ink pixels. With ten or fewer samples it is 0.5.
func strokeWidthVariation(binary gocv.Mat) float64 {
	dist := gocv.NewMat()
	defer dist.Close()
	labels := gocv.NewMat()
	defer labels.Close()
	gocv.DistanceTransform(binary, &dist, &labels, gocv.DistL2, gocv.DistanceMask5, gocv.DistanceLabelCComp)

	widths := make([]float64, 0, dist.Rows()*dist.Cols())
	for y := 0; y < dist.Rows(); y++ {
		for x := 0; x < dist.Cols(); x++ {
			if v := dist.GetFloatAt(y, x); v > 0 {
				widths = append(widths, float64(v))
			}
		}
	}
	if len(widths) <= 10 {
		return 0.5
	}

	mean, std := stat.PopMeanStdDev(widths, nil)
	return clamp01(std / (mean + 1e-6))
}

// edgeIrregularity is the Canny edge pixel count over the total external
// contour perimeter, halved. Without contours it is 0.5.
func edgeIrregularity(src, binary gocv.Mat) float64 {
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, 50, 150)
	edgeCount := gocv.CountNonZero(edges)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var perimeter float64
	for i := 0; i < contours.Size(); i++ {
		perimeter += gocv.ArcLength(contours.At(i), true)
	}
	if perimeter <= 0 {
		return 0.5
	}
	return clamp01(float64(edgeCount) / perimeter / 2)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
