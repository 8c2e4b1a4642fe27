package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/calligraphy-grader/internal/detection"
)

// Config selects the Tesseract language model and segmentation.
type Config struct {
	// Language is a '+'-separated list of Tesseract language codes.
	Language string

	// TessdataPrefix overrides the traineddata directory when non-empty.
	TessdataPrefix string

	// PageSegMode is a Tesseract PSM value; 3 is fully automatic.
	PageSegMode int

	// Level is the iterator level boxes are reported at. Symbol level gives
	// one box per Han character; word level groups runs of characters and
	// leaves splitting to the localizer.
	Level gosseract.PageIteratorLevel
}

// DefaultConfig returns settings for simplified Chinese worksheets.
func DefaultConfig() Config {
	return Config{
		Language:    "chi_sim",
		PageSegMode: int(gosseract.PSM_AUTO),
		Level:       gosseract.RIL_SYMBOL,
	}
}

// Engine is a Tesseract-backed text detection oracle.
//
// A Tesseract client is not safe for concurrent use, so Detect serializes
// calls on a mutex. One Engine can be shared by every request of a server.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
	cfg    Config
}

var _ detection.TextDetectionOracle = (*Engine)(nil)

// NewEngine creates and configures a Tesseract client. Close releases it.
func NewEngine(cfg Config) (*Engine, error) {
	client := gosseract.NewClient()

	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(cfg.Language, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &Engine{client: client, cfg: cfg}, nil
}

// Close releases the Tesseract client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

// Detect recognizes words in img and returns one detection per non-empty
// word, with Tesseract's 0-100 confidence scaled to 0-1.
//
// The context is checked before the image is handed to Tesseract; a
// recognition already in progress cannot be interrupted.
func (e *Engine) Detect(ctx context.Context, img image.Image) ([]detection.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(e.cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	return toDetections(boxes, img.Bounds().Min), nil
}

// toDetections converts symbol or word boxes to detections, shifting them by origin so
// they are expressed in the coordinates of the source image.
func toDetections(boxes []gosseract.BoundingBox, origin image.Point) []detection.Detection {
	out := make([]detection.Detection, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		out = append(out, detection.Detection{
			Quad:       detection.QuadFromRect(box.Box.Add(origin)),
			Text:       word,
			Confidence: box.Confidence / 100.0,
		})
	}
	return out
}

// Info describes the OCR backend.
type Info struct {
	Engine   string `json:"engine"`
	Version  string `json:"version"`
	Language string `json:"language"`
}

// Info reports the Tesseract version and configured language.
func (e *Engine) Info() Info {
	return Info{
		Engine:   "tesseract",
		Version:  gosseract.Version(),
		Language: e.cfg.Language,
	}
}
