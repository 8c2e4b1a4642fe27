package detection

import (
	"image"
	"io"
	"log"

	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// FilterMode records which rule selected the graded characters.
type FilterMode string

const (
	FilterNone       FilterMode = "none"
	FilterGrid       FilterMode = "grid"
	FilterClassifier FilterMode = "classifier"
)

// PrintedFilter drops printed reference glyphs. The grid rules are tried
// first; when the sheet has no grid, or the grid keeps nothing, each box is
// run through the handwriting classifier instead.
type PrintedFilter struct {
	grid       *GridLocator
	classifier *HandwritingClassifier
	logger     *log.Logger
}

// NewPrintedFilter creates a filter. A nil logger discards output.
func NewPrintedFilter(grid GridConfig, classifier ClassifierConfig, logger *log.Logger) *PrintedFilter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PrintedFilter{
		grid:       NewGridLocator(grid, logger),
		classifier: NewHandwritingClassifier(classifier),
		logger:     logger,
	}
}

// Grid exposes the grid locator.
func (f *PrintedFilter) Grid() *GridLocator {
	return f.grid
}

// Filter returns the handwritten boxes of img and the rule that chose them.
func (f *PrintedFilter) Filter(img image.Image, boxes []CharacterBox) ([]CharacterBox, FilterMode, error) {
	kept, ok, err := f.grid.Filter(img, boxes)
	if err != nil {
		return nil, FilterNone, err
	}
	if ok && len(kept) > 0 {
		return kept, FilterGrid, nil
	}

	f.logger.Printf("no usable grid, falling back to handwriting classifier")
	return f.Classify(imaging.ToGray(img), boxes), FilterClassifier, nil
}

// Classify keeps the boxes the handwriting classifier accepts, recording
// each kept box's score.
func (f *PrintedFilter) Classify(gray *image.Gray, boxes []CharacterBox) []CharacterBox {
	kept := make([]CharacterBox, 0, len(boxes))
	for _, b := range boxes {
		ok, score := f.classifier.Classify(gray, b)
		if !ok {
			continue
		}
		b.HandwritingScore = score
		kept = append(kept, b)
	}
	f.logger.Printf("classifier kept %d of %d boxes", len(kept), len(boxes))
	return kept
}
