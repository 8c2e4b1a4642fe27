package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Mask is a single-channel ink map.
//
// Pixels are stored row-major; 0 is background and any non-zero value is ink.
// Masks produced by Preprocessor are strictly 0/255, but area-resized masks
// carry intermediate intensities along stroke borders, and the feature
// extractor weights its moments by those intensities.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// Size returns the mask dimensions as a point.
func (m *Mask) Size() image.Point {
	return image.Pt(m.Width, m.Height)
}

// Empty reports whether the mask has no pixels at all.
func (m *Mask) Empty() bool {
	return m == nil || m.Width == 0 || m.Height == 0
}

// At returns the value at (x, y), or 0 outside the mask.
func (m *Mask) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set writes v at (x, y); out-of-range writes are ignored.
func (m *Mask) Set(x, y int, v uint8) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Ink reports whether (x, y) is an ink pixel.
func (m *Mask) Ink(x, y int) bool {
	return m.At(x, y) > 0
}

// CountNonZero returns the number of ink pixels.
func (m *Mask) CountNonZero() int {
	n := 0
	for _, v := range m.Pix {
		if v > 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Width: m.Width, Height: m.Height, Pix: pix}
}

// Crop copies the part of the mask inside r. The rectangle is clipped to the
// mask first; an empty intersection yields an empty mask.
func (m *Mask) Crop(r image.Rectangle) *Mask {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	out := NewMask(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := (r.Min.Y+y)*m.Width + r.Min.X
		copy(out.Pix[y*out.Width:(y+1)*out.Width], m.Pix[src:src+out.Width])
	}
	return out
}

// Gray converts the mask to an 8-bit grayscale image.
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(g.Pix, m.Pix)
	return g
}

// MaskFromGray copies a grayscale image into a mask, honouring the image
// stride and origin.
func MaskFromGray(g *image.Gray) *Mask {
	b := g.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		copy(m.Pix[y*m.Width:(y+1)*m.Width], g.Pix[off:off+m.Width])
	}
	return m
}

// ToGray returns img as an 8-bit grayscale image. Images that are already
// *image.Gray are returned unchanged; everything else goes through
// imaging.Grayscale, which uses the BT.601 luma weights.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	nrgba := imaging.Grayscale(img)
	b := nrgba.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			off := nrgba.PixOffset(b.Min.X+x, b.Min.Y+y)
			g.SetGray(x, y, color.Gray{Y: nrgba.Pix[off]})
		}
	}
	return g
}

// MeanGray returns the mean intensity of a grayscale image.
func MeanGray(g *image.Gray) float64 {
	b := g.Bounds()
	if b.Empty() {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(g.GrayAt(x, y).Y)
		}
	}
	return sum / float64(b.Dx()*b.Dy())
}
