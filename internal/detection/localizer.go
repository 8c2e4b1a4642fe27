package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"unicode/utf8"
)

var (
	// ErrNoTextDetected means the image yielded no characters to grade.
	ErrNoTextDetected = errors.New("no text detected")

	// ErrOracleFailed is returned when the detection oracle itself fails.
	// It wraps ErrNoTextDetected so callers that only care about "nothing to
	// grade" can check for that alone.
	ErrOracleFailed = fmt.Errorf("%w: detection oracle failed", ErrNoTextDetected)
)

// TextDetectionOracle finds and recognizes text in an image. An empty result
// is valid and means no text was found.
type TextDetectionOracle interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// Localizer turns oracle detections into single-character boxes.
type Localizer struct {
	oracle TextDetectionOracle
	logger *log.Logger
}

// NewLocalizer wraps oracle. A nil logger discards output.
func NewLocalizer(oracle TextDetectionOracle, logger *log.Logger) *Localizer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Localizer{oracle: oracle, logger: logger}
}

// Localize runs the oracle and splits every multi-character detection into
// one box per character. Detections with empty text are dropped.
//
// Oracle failures are reported as ErrOracleFailed; an empty slice with a nil
// error means the oracle ran and found nothing.
func (l *Localizer) Localize(ctx context.Context, img image.Image) ([]CharacterBox, error) {
	detections, err := l.oracle.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleFailed, err)
	}

	boxes := make([]CharacterBox, 0, len(detections))
	for _, d := range detections {
		switch n := utf8.RuneCountInString(d.Text); {
		case n == 0:
			continue
		case n == 1:
			boxes = append(boxes, CharacterBox{
				Text:       d.Text,
				Quad:       d.Quad,
				Confidence: d.Confidence,
			})
		default:
			boxes = append(boxes, SplitBox(d.Text, d.Quad)...)
		}
	}

	l.logger.Printf("localized %d characters from %d detections", len(boxes), len(detections))
	return boxes, nil
}

// SplitBox divides a text quad into one equal-width box per rune by
// interpolating the top edge (TL to TR) and the bottom edge (BL to BR)
// independently. Each resulting box has confidence 1.0.
//
// The split assumes evenly spaced, unskewed glyphs.
func SplitBox(text string, q Quad) []CharacterBox {
	runes := []rune(text)
	n := len(runes)
	if n <= 1 {
		return []CharacterBox{{Text: text, Quad: q, Confidence: 1.0}}
	}

	tl, tr, br, bl := q[0], q[1], q[2], q[3]
	boxes := make([]CharacterBox, n)
	for i, r := range runes {
		start := float64(i) / float64(n)
		end := float64(i+1) / float64(n)
		boxes[i] = CharacterBox{
			Text: string(r),
			Quad: Quad{
				tl.Lerp(tr, start),
				tl.Lerp(tr, end),
				bl.Lerp(br, end),
				bl.Lerp(br, start),
			},
			Confidence: 1.0,
		}
	}
	return boxes
}
