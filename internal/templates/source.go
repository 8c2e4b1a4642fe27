package templates

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/anthonynsimon/bild/effect"
	"gocv.io/x/gocv"

	"github.com/ironsheep/calligraphy-grader/internal/imaging"
)

// Config locates template assets.
type Config struct {
	// Dir holds prebaked <char>.png files, the rendered/ subdirectory and,
	// usually, the TrueType font.
	Dir string

	// FontPath overrides the font search. Empty means the first *.ttf in Dir.
	FontPath string

	// GlyphSize is the font size in pixels used when rendering from a font.
	GlyphSize int

	// Padding is kept around the rendered ink before resizing.
	Padding int

	// RedisURL enables the shared feature store when set.
	RedisURL string
	RedisTTL time.Duration
}

// DefaultConfig returns the standard template layout.
func DefaultConfig() Config {
	return Config{
		Dir:       "data/templates",
		GlyphSize: 200,
		Padding:   20,
		RedisTTL:  24 * time.Hour,
	}
}

// Source produces a template mask for a character at the given size.
// ok is false when the source has no template for char.
type Source interface {
	Get(ctx context.Context, char string, size image.Point) (mask *imaging.Mask, ok bool, err error)
}

// Chain tries each source in order and returns the first template found.
type Chain []Source

// Get implements Source.
func (c Chain) Get(ctx context.Context, char string, size image.Point) (*imaging.Mask, bool, error) {
	for _, src := range c {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		m, ok, err := src.Get(ctx, char, size)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return m, true, nil
		}
	}
	return nil, false, nil
}

// binaryLevel is the last intensity treated as background; ink is > 127.
const binaryLevel = 127

// PrebakedSource reads <dir>/<char>.png. Images drawn dark-on-light are
// inverted so that ink is always white, then thresholded to 0/255.
type PrebakedSource struct {
	dir string
}

// NewPrebakedSource returns a source reading from dir.
func NewPrebakedSource(dir string) *PrebakedSource {
	return &PrebakedSource{dir: dir}
}

// Get implements Source.
func (s *PrebakedSource) Get(_ context.Context, char string, size image.Point) (*imaging.Mask, bool, error) {
	g, ok := loadGray(filepath.Join(s.dir, char+".png"))
	if !ok {
		return nil, false, nil
	}
	m, err := imaging.ResizeArea(imaging.MaskFromGray(g), size)
	if err != nil {
		return nil, false, fmt.Errorf("prebaked template %q: %w", char, err)
	}

	if g = m.Gray(); imaging.MeanGray(g) > 127 {
		m = imaging.MaskFromGray(invert(g))
	}
	if m, err = binarize(m, gocv.ThresholdBinary); err != nil {
		return nil, false, fmt.Errorf("prebaked template %q: %w", char, err)
	}
	return m, true, nil
}

// RenderedSource reads <dir>/rendered/<char>.png. The files are expected to
// be white ink on black already and are only resized.
type RenderedSource struct {
	dir string
}

// NewRenderedSource returns a source reading from dir/rendered.
func NewRenderedSource(dir string) *RenderedSource {
	return &RenderedSource{dir: filepath.Join(dir, "rendered")}
}

// Get implements Source.
func (s *RenderedSource) Get(_ context.Context, char string, size image.Point) (*imaging.Mask, bool, error) {
	g, ok := loadGray(filepath.Join(s.dir, char+".png"))
	if !ok {
		return nil, false, nil
	}
	m, err := imaging.ResizeArea(imaging.MaskFromGray(g), size)
	if err != nil {
		return nil, false, fmt.Errorf("rendered template %q: %w", char, err)
	}
	return m, true, nil
}

// loadGray reads a template raster. A file that is missing or cannot be
// decoded counts as absent so the next source gets a chance.
func loadGray(path string) (*image.Gray, bool) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, false
	}
	g := imaging.ToGray(img)
	if g.Bounds().Empty() {
		return nil, false
	}
	return g, true
}

// binarize maps m to 0/255 at binaryLevel. typ is ThresholdBinary or
// ThresholdBinaryInv.
func binarize(m *imaging.Mask, typ gocv.ThresholdType) (*imaging.Mask, error) {
	src, err := imaging.MaskMat(m)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Threshold(src, &dst, binaryLevel, 255, typ)
	return imaging.MaskFromMat(dst)
}

func invert(g *image.Gray) *image.Gray {
	return imaging.ToGray(effect.Invert(g))
}
