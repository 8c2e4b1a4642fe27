package scoring

import (
	"math"
	"strconv"

	"github.com/ironsheep/calligraphy-grader/internal/features"
)

// Grade is a named score band.
type Grade string

const (
	Excellent        Grade = "excellent"
	Good             Grade = "good"
	Medium           Grade = "medium"
	Pass             Grade = "pass"
	NeedsImprovement Grade = "needs-improvement"
)

// Weights for the dimension fusion.
type Weights struct {
	CenterOfMass   float64 `json:"center_of_mass"`
	StrokeAccuracy float64 `json:"stroke_accuracy"`
	Structure      float64 `json:"structure"`
}

// Thresholds are inclusive lower bounds of each grade band.
type Thresholds struct {
	Excellent float64 `json:"excellent"`
	Good      float64 `json:"good"`
	Medium    float64 `json:"medium"`
	Pass      float64 `json:"pass"`
}

// Config holds the scorer settings.
type Config struct {
	Weights    Weights
	Thresholds Thresholds
}

// DefaultConfig returns the standard weights and grade bands.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			CenterOfMass:   0.25,
			StrokeAccuracy: 0.40,
			Structure:      0.35,
		},
		Thresholds: Thresholds{
			Excellent: 90,
			Good:      75,
			Medium:    60,
			Pass:      45,
		},
	}
}

// Neutral fallbacks and tolerances.
const (
	neutralScore = 50.0

	// maxCenterDeviation is the centroid distance that scores zero.
	maxCenterDeviation = 0.3

	// structureSlope turns a ratio difference into a penalty.
	structureSlope = 3.0
)

// Dimensions are the per-dimension scores.
type Dimensions struct {
	CenterOfMass   float64 `json:"center_of_mass"`
	StrokeAccuracy float64 `json:"stroke_accuracy"`
	Structure      float64 `json:"structure"`
}

// ScoreResult is the outcome of comparing one student character with its
// template. Scores are rounded to one decimal place; the grade is decided
// before rounding.
type ScoreResult struct {
	TotalScore float64              `json:"total_score"`
	Grade      Grade                `json:"grade"`
	Dimensions Dimensions           `json:"dimensions"`
	Student    *features.FeatureSet `json:"student_features"`
	Template   *features.FeatureSet `json:"template_features"`
}

// Scorer grades FeatureSets. It holds no mutable state.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// CenterOfMassScore is 100 at zero centroid distance, falling linearly to 0
// at a distance of 0.3 or more.
func (s *Scorer) CenterOfMassScore(student, template features.Point2D) float64 {
	d := math.Hypot(student.X-template.X, student.Y-template.Y)
	return 100 * math.Max(0, 1-d/maxCenterDeviation)
}

// StrokeAccuracyScore averages a skeleton length score and an angle
// histogram score. A template with no skeleton scores 50 on length; an empty
// angle list on either side scores 50 on angles.
func (s *Scorer) StrokeAccuracyScore(student, template *features.FeatureSet) float64 {
	lengthScore := neutralScore
	if tl := template.Strokes.TotalLength; tl != 0 {
		ratio := float64(student.Strokes.TotalLength) / float64(tl)
		lengthScore = 100 * math.Max(0, 1-math.Abs(ratio-1))
	}

	angleScore := neutralScore
	if len(student.Angles) > 0 && len(template.Angles) > 0 {
		corr := HistogramCorrelation(AngleHistogram(student.Angles), AngleHistogram(template.Angles))
		angleScore = 100 * math.Max(0, corr)
	}

	return 0.5*lengthScore + 0.5*angleScore
}

// StructureScore compares the upper and left ink ratios. Each difference d
// scores 100*max(0, 1-3d); with ratios missing on either side the result is 50.
func (s *Scorer) StructureScore(student, template *features.FeatureSet) float64 {
	if student.Ratios == nil || template.Ratios == nil {
		return neutralScore
	}
	upper := 100 * math.Max(0, 1-structureSlope*math.Abs(student.Ratios.Upper-template.Ratios.Upper))
	left := 100 * math.Max(0, 1-structureSlope*math.Abs(student.Ratios.Left-template.Ratios.Left))
	return (upper + left) / 2
}

// GradeFor maps a total score to its band. Thresholds are inclusive.
func (s *Scorer) GradeFor(score float64) Grade {
	th := s.cfg.Thresholds
	switch {
	case score >= th.Excellent:
		return Excellent
	case score >= th.Good:
		return Good
	case score >= th.Medium:
		return Medium
	case score >= th.Pass:
		return Pass
	default:
		return NeedsImprovement
	}
}

// ScoreChar scores student against template. A nil FeatureSet is treated as
// an empty character.
func (s *Scorer) ScoreChar(student, template *features.FeatureSet) ScoreResult {
	if student == nil {
		student = emptyFeatureSet()
	}
	if template == nil {
		template = emptyFeatureSet()
	}

	center := s.CenterOfMassScore(student.CenterOfMass, template.CenterOfMass)
	stroke := s.StrokeAccuracyScore(student, template)
	structure := s.StructureScore(student, template)

	w := s.cfg.Weights
	total := w.CenterOfMass*center + w.StrokeAccuracy*stroke + w.Structure*structure

	return ScoreResult{
		TotalScore: Round1(total),
		Grade:      s.GradeFor(total),
		Dimensions: Dimensions{
			CenterOfMass:   Round1(center),
			StrokeAccuracy: Round1(stroke),
			Structure:      Round1(structure),
		},
		Student:  student,
		Template: template,
	}
}

func emptyFeatureSet() *features.FeatureSet {
	return &features.FeatureSet{CenterOfMass: features.Point2D{X: 0.5, Y: 0.5}}
}

// Round1 rounds to one decimal place. The stored binary value is rounded
// exactly and true ties go to the even digit, so 0.25 gives 0.2 and 0.15
// (stored just below) gives 0.1.
func Round1(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
