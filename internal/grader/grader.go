package grader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/ironsheep/calligraphy-grader/internal/config"
	"github.com/ironsheep/calligraphy-grader/internal/detection"
	"github.com/ironsheep/calligraphy-grader/internal/features"
	"github.com/ironsheep/calligraphy-grader/internal/feedback"
	"github.com/ironsheep/calligraphy-grader/internal/imaging"
	"github.com/ironsheep/calligraphy-grader/internal/scoring"
	"github.com/ironsheep/calligraphy-grader/internal/templates"
)

var (
	// ErrUnreadableImage means the input file could not be decoded. It is
	// terminal for that image.
	ErrUnreadableImage = imaging.ErrUnreadable

	// ErrNoTextDetected means nothing gradable was found in the image.
	ErrNoTextDetected = detection.ErrNoTextDetected
)

// NoTemplateNote marks characters that could not be scored.
const NoTemplateNote = "no template"

// CharResult is the outcome for one character.
type CharResult struct {
	Char        string              `json:"char"`
	Quad        detection.Quad      `json:"bbox"`
	Score       *float64            `json:"score"`
	Grade       scoring.Grade       `json:"grade,omitempty"`
	Dimensions  *scoring.Dimensions `json:"dimensions,omitempty"`
	Comment     string              `json:"comment,omitempty"`
	Feedback    []string            `json:"feedback,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
	Note        string              `json:"note,omitempty"`
}

// Report is the outcome for one worksheet image.
type Report struct {
	ID string `json:"id"`

	// OverallScore is the mean of the scored characters, or nil when no
	// character could be scored.
	OverallScore *float64             `json:"overall_score"`
	CharCount    int                  `json:"char_count"`
	Chars        []CharResult         `json:"chars"`
	FilterMode   detection.FilterMode `json:"filter_mode"`
}

// Grader holds the pipeline stages.
type Grader struct {
	pipeline     config.PipelineConfig
	preprocessor *imaging.Preprocessor
	localizer    *detection.Localizer
	filter       *detection.PrintedFilter
	scorer       *scoring.Scorer
	feedback     *feedback.Generator
	templates    *templates.Provider
	logger       *log.Logger
}

// New assembles a grader. The oracle finds text in worksheet images and the
// provider supplies templates; a nil logger discards output.
func New(cfg *config.Config, oracle detection.TextDetectionOracle, provider *templates.Provider, logger *log.Logger) *Grader {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Grader{
		pipeline:     cfg.Pipeline,
		preprocessor: imaging.NewPreprocessor(cfg.Preprocess),
		localizer:    detection.NewLocalizer(oracle, logger),
		filter:       detection.NewPrintedFilter(cfg.Grid, cfg.Classifier, logger),
		scorer:       scoring.NewScorer(cfg.Scoring),
		feedback:     feedback.NewGenerator(cfg.Feedback),
		templates:    provider,
		logger:       logger,
	}
}

// Preprocessor exposes the grader's preprocessor.
func (g *Grader) Preprocessor() *imaging.Preprocessor {
	return g.preprocessor
}

// Filter exposes the printed-glyph filter, including its grid locator.
func (g *Grader) Filter() *detection.PrintedFilter {
	return g.filter
}

// Templates exposes the template provider.
func (g *Grader) Templates() *templates.Provider {
	return g.templates
}

// GradeFile decodes the image at path and grades it.
func (g *Grader) GradeFile(ctx context.Context, path string) (*Report, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, err
	}
	return g.Grade(ctx, img)
}

// Grade grades every handwritten character found in img.
//
// Characters without a template stay in the report with a nil score. An
// image in which nothing is found, or in which every box is filtered away,
// returns ErrNoTextDetected.
func (g *Grader) Grade(ctx context.Context, img image.Image) (*Report, error) {
	if g.pipeline.PerspectiveCorrect {
		corrected, err := g.preprocessor.PerspectiveCorrect(img)
		if err != nil {
			return nil, fmt.Errorf("perspective correction failed: %w", err)
		}
		img = corrected
	}

	mask, err := g.preprocessor.Preprocess(img)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}

	boxes, err := g.localizer.Localize(ctx, img)
	if err != nil {
		return nil, err
	}

	mode := detection.FilterNone
	if g.pipeline.FilterPrinted && len(boxes) > 0 {
		boxes, mode, err = g.filter.Filter(img, boxes)
		if err != nil {
			return nil, fmt.Errorf("printed glyph filtering failed: %w", err)
		}
	}
	if len(boxes) == 0 {
		return nil, ErrNoTextDetected
	}

	report := &Report{
		ID:         uuid.NewString(),
		Chars:      make([]CharResult, 0, len(boxes)),
		FilterMode: mode,
	}
	for _, box := range boxes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		crop := mask.Crop(box.Quad.Bounds())
		if crop.Empty() {
			continue
		}
		r, err := g.gradeMask(ctx, crop, box.Text)
		if err != nil {
			return nil, err
		}
		r.Quad = box.Quad
		report.Chars = append(report.Chars, *r)
	}

	report.CharCount = len(report.Chars)
	report.OverallScore = meanScore(report.Chars)
	g.logger.Printf("graded %d characters (filter: %s)", report.CharCount, mode)
	return report, nil
}

// GradeCharacter grades one pre-cropped character. A grayscale image is
// taken to be an ink mask already; anything else is preprocessed first.
func (g *Grader) GradeCharacter(ctx context.Context, img image.Image, char string) (*CharResult, error) {
	if char == "" {
		return nil, errors.New("character must not be empty")
	}
	mask, err := g.CharacterMask(img)
	if err != nil {
		return nil, err
	}

	r, err := g.gradeMask(ctx, mask, char)
	if err != nil {
		return nil, err
	}
	r.Quad = detection.QuadFromRect(img.Bounds())
	return r, nil
}

// CharacterMask returns the ink mask of a single-character image: grayscale
// input is used as is, colour input is preprocessed.
func (g *Grader) CharacterMask(img image.Image) (*imaging.Mask, error) {
	var mask *imaging.Mask
	if gray, ok := img.(*image.Gray); ok {
		mask = imaging.MaskFromGray(gray)
	} else {
		m, err := g.preprocessor.Preprocess(img)
		if err != nil {
			return nil, fmt.Errorf("preprocessing failed: %w", err)
		}
		mask = m
	}
	if mask.Empty() {
		return nil, errors.New("character image is empty")
	}
	return mask, nil
}

// Measure normalizes a character mask to the canonical size and extracts its
// features.
func (g *Grader) Measure(m *imaging.Mask) (*features.FeatureSet, error) {
	resized, err := g.preprocessor.ResizeChar(m)
	if err != nil {
		return nil, err
	}
	return features.Extract(resized)
}

// ScoreChar compares two feature sets without any image work.
func (g *Grader) ScoreChar(student, template *features.FeatureSet) scoring.ScoreResult {
	return g.scorer.ScoreChar(student, template)
}

// Feedback generates commentary for a score result.
func (g *Grader) Feedback(r scoring.ScoreResult) feedback.Feedback {
	return g.feedback.Generate(r)
}

func (g *Grader) gradeMask(ctx context.Context, m *imaging.Mask, char string) (*CharResult, error) {
	student, err := g.Measure(m)
	if err != nil {
		return nil, fmt.Errorf("measuring %q: %w", char, err)
	}

	template, ok, err := g.templates.Features(ctx, char, g.preprocessor.TargetSize())
	if err != nil {
		return nil, fmt.Errorf("template lookup for %q: %w", char, err)
	}
	if !ok {
		g.logger.Printf("no template for %q", char)
		return &CharResult{Char: char, Note: NoTemplateNote}, nil
	}

	scored := g.scorer.ScoreChar(student, template)
	fb := g.feedback.Generate(scored)
	score := scored.TotalScore
	dims := scored.Dimensions
	return &CharResult{
		Char:        char,
		Score:       &score,
		Grade:       scored.Grade,
		Dimensions:  &dims,
		Comment:     fb.OverallComment,
		Feedback:    fb.Items,
		Suggestions: fb.Suggestions,
	}, nil
}

// Text renders r as the feedback text a student sees.
func (r *CharResult) Text() string {
	if r.Score == nil {
		return fmt.Sprintf("%s: %s", r.Char, r.Note)
	}
	return feedback.Format(feedback.Feedback{
		OverallComment: r.Comment,
		Items:          r.Feedback,
		Suggestions:    r.Suggestions,
		Score:          *r.Score,
		Grade:          r.Grade,
	})
}

func meanScore(chars []CharResult) *float64 {
	var sum float64
	n := 0
	for _, c := range chars {
		if c.Score != nil {
			sum += *c.Score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := scoring.Round1(sum / float64(n))
	return &mean
}
