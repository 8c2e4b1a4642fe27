package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// createImageWithText renders text with basicfont and scales it up by pixel
// replication so Tesseract has enough resolution to work with.
func createImageWithText(text string, scale int) *image.RGBA {
	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height*scale; y++ {
		for x := 0; x < width*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return img
}

// englishEngine returns an engine for English text, skipping the test when
// Tesseract or its English language data is unavailable.
func englishEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Language = "eng"

	e, err := NewEngine(cfg)
	if err != nil {
		t.Skipf("tesseract unavailable: %v", err)
	}
	t.Cleanup(func() { e.Close() })

	if _, err := e.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 20, 20))); err != nil {
		t.Skipf("tesseract cannot initialize: %v", err)
	}
	return e
}

func TestToDetections(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(10, 20, 50, 40), Word: "永字", Confidence: 87},
		{Box: image.Rect(60, 20, 70, 40), Word: "  ", Confidence: 10},
	}

	got := toDetections(boxes, image.Pt(5, 5))
	if len(got) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(got))
	}
	d := got[0]
	if d.Text != "永字" {
		t.Errorf("text: got %q", d.Text)
	}
	if d.Confidence != 0.87 {
		t.Errorf("confidence: got %v, want 0.87", d.Confidence)
	}
	if d.Quad[0].X != 15 || d.Quad[0].Y != 25 || d.Quad[2].X != 55 || d.Quad[2].Y != 45 {
		t.Errorf("quad not shifted to image coordinates: %+v", d.Quad)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Language != "chi_sim" {
		t.Errorf("default language: got %q, want chi_sim", cfg.Language)
	}
	if cfg.PageSegMode != 3 {
		t.Errorf("default PSM: got %d, want 3", cfg.PageSegMode)
	}
	if cfg.Level != gosseract.RIL_SYMBOL {
		t.Errorf("default level: got %v, want RIL_SYMBOL", cfg.Level)
	}
}

func TestDetect_CanceledContext(t *testing.T) {
	e := englishEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDetect_RealText(t *testing.T) {
	e := englishEngine(t)
	img := createImageWithText("HELLO WORLD", 4)

	detections, err := e.Detect(context.Background(), img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(detections) == 0 {
		t.Fatal("expected at least one detection")
	}

	var words []string
	for _, d := range detections {
		if n := len([]rune(d.Text)); n != 1 {
			t.Errorf("symbol-level detection %q should hold one character, got %d", d.Text, n)
		}
		words = append(words, d.Text)
		if d.Confidence < 0 || d.Confidence > 1 {
			t.Errorf("confidence out of range: %v", d.Confidence)
		}
		if b := d.Quad.Bounds(); !b.In(img.Bounds()) {
			t.Errorf("detection %q outside image: %v", d.Text, b)
		}
	}
	if joined := strings.ToUpper(strings.Join(words, "")); !strings.Contains(joined, "HELLO") {
		t.Logf("recognized %q (OCR accuracy varies by Tesseract version)", joined)
	}
}

func TestInfo(t *testing.T) {
	e := englishEngine(t)
	info := e.Info()
	if info.Engine != "tesseract" || info.Language != "eng" || info.Version == "" {
		t.Errorf("unexpected info: %+v", info)
	}
}
