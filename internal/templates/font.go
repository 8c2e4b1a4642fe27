package templates

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/freetype/truetype"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// FontSource renders templates from a TrueType font.
//
// The glyph is drawn black on a white canvas twice the glyph size, cropped to
// its ink plus padding, area-resized to the requested size and inverse
// thresholded so that ink ends up white.
type FontSource struct {
	font      *truetype.Font
	name      string
	glyphSize int
	padding   int
}

// FindFont returns the first *.ttf file in dir in lexical order.
func FindFont(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

// NewFontSource loads the font at path.
func NewFontSource(path string, glyphSize, padding int) (*FontSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}
	if glyphSize <= 0 {
		return nil, fmt.Errorf("glyph size must be positive, got %d", glyphSize)
	}
	if padding < 0 {
		padding = 0
	}
	return &FontSource{
		font:      f,
		name:      filepath.Base(path),
		glyphSize: glyphSize,
		padding:   padding,
	}, nil
}

// Name is the font file name.
func (s *FontSource) Name() string {
	return s.name
}

// Has reports whether the font maps every rune of char to a glyph.
func (s *FontSource) Has(char string) bool {
	if char == "" {
		return false
	}
	for _, r := range char {
		if s.font.Index(r) == 0 {
			return false
		}
	}
	return true
}

// Render draws char and crops it to the ink bounds plus padding. The result
// is dark ink on white. ok is false when the font lacks the glyph or the
// glyph leaves no ink.
func (s *FontSource) Render(char string) (*image.Gray, bool) {
	if !s.Has(char) {
		return nil, false
	}

	face := truetype.NewFace(s.font, &truetype.Options{
		Size:    float64(s.glyphSize),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	defer face.Close()

	side := 2 * s.glyphSize
	canvas := image.NewGray(image.Rect(0, 0, side, side))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	bounds, _ := font.BoundString(face, char)
	w := bounds.Max.X - bounds.Min.X
	h := bounds.Max.Y - bounds.Min.Y
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.Black,
		Face: face,
		Dot: fixed.Point26_6{
			X: (fixed.I(side)-w)/2 - bounds.Min.X,
			Y: (fixed.I(side)-h)/2 - bounds.Min.Y,
		},
	}
	d.DrawString(char)

	ink, found := inkBounds(canvas)
	if !found {
		return nil, false
	}
	crop := image.Rect(ink.Min.X-s.padding, ink.Min.Y-s.padding, ink.Max.X-1+s.padding, ink.Max.Y-1+s.padding)
	crop = crop.Intersect(canvas.Bounds())
	return canvas.SubImage(crop).(*image.Gray), true
}

// Get implements Source.
func (s *FontSource) Get(_ context.Context, char string, size image.Point) (*imaging.Mask, bool, error) {
	g, ok := s.Render(char)
	if !ok {
		return nil, false, nil
	}
	m, err := imaging.ResizeArea(imaging.MaskFromGray(g), size)
	if err != nil {
		return nil, false, fmt.Errorf("font template %q: %w", char, err)
	}
	if m, err = binarize(m, gocv.ThresholdBinaryInv); err != nil {
		return nil, false, fmt.Errorf("font template %q: %w", char, err)
	}
	return m, true, nil
}

// inkBounds is the smallest rectangle holding every pixel darker than white.
func inkBounds(g *image.Gray) (image.Rectangle, bool) {
	b := g.Bounds()
	r := image.Rectangle{Min: b.Max, Max: b.Min}
	found := false
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y == 255 {
				continue
			}
			found = true
			r.Min.X = min(r.Min.X, x)
			r.Min.Y = min(r.Min.Y, y)
			r.Max.X = max(r.Max.X, x+1)
			r.Max.Y = max(r.Max.Y, y+1)
		}
	}
	return r, found
}
