package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Angle histogram layout: 36 bins of 10 degrees over [-180, 180].
const (
	angleBins     = 36
	angleMin      = -180.0
	angleMax      = 180.0
	histogramEps  = 1e-6
	varianceFloor = 1e-300
)

// AngleHistogram bins angles into 36 equal bins over [-180, 180] and
// normalizes the counts to sum to (almost) one. The last bin is closed, so
// 180 falls into it; values outside the range are ignored.
func AngleHistogram(angles []float64) []float64 {
	hist := make([]float64, angleBins)
	width := (angleMax - angleMin) / angleBins
	for _, a := range angles {
		if a < angleMin || a > angleMax || math.IsNaN(a) {
			continue
		}
		i := int((a - angleMin) / width)
		if i >= angleBins {
			i = angleBins - 1
		}
		hist[i]++
	}

	total := floats.Sum(hist) + histogramEps
	floats.Scale(1/total, hist)
	return hist
}

// HistogramCorrelation is the Pearson correlation of two histograms. When
// either histogram is flat the correlation is undefined and 1 is returned.
func HistogramCorrelation(a, b []float64) float64 {
	_, va := stat.PopMeanVariance(a, nil)
	_, vb := stat.PopMeanVariance(b, nil)
	if va*vb <= varianceFloor {
		return 1
	}
	return stat.Correlation(a, b, nil)
}
