package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Mark is one graded character to outline on the worksheet.
type Mark struct {
	Rect  image.Rectangle
	Score *float64 // nil when the character could not be scored
}

var (
	lowScoreColor  = colorful.Color{R: 0.827, G: 0.184, B: 0.184} // #d32f2f
	highScoreColor = colorful.Color{R: 0.220, G: 0.557, B: 0.235} // #388e3c
	noScoreColor   = color.RGBA{158, 158, 158, 255}
)

// ScoreColor maps a 0-100 score onto a red-to-green ramp, blended in Lab
// space so the midpoint does not turn muddy. Unscored marks are gray.
func ScoreColor(score *float64) color.RGBA {
	if score == nil {
		return noScoreColor
	}
	t := *score / 100
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	r, g, b := lowScoreColor.BlendLab(highScoreColor, t).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Annotate draws each mark as a 2px rectangle outline with its score printed
// above the top-left corner and returns the result as a base64 PNG.
func Annotate(img image.Image, marks []Mark) (*EncodedImage, error) {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for _, m := range marks {
		c := ScoreColor(m.Score)
		drawRect(result, m.Rect, c, 2)

		label := "-"
		if m.Score != nil {
			label = fmt.Sprintf("%.0f", *m.Score)
		}
		drawLabel(result, m.Rect.Min.X, m.Rect.Min.Y-2, label, c)
	}

	return EncodePNG(result)
}

// drawRect outlines r with the given stroke thickness, clipped to the image.
func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	b := img.Bounds()
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setClipped(img, b, x, r.Min.Y+t, c)
			setClipped(img, b, x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setClipped(img, b, r.Min.X+t, y, c)
			setClipped(img, b, r.Max.X-1-t, y, c)
		}
	}
}

func setClipped(img *image.RGBA, b image.Rectangle, x, y int, c color.RGBA) {
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		img.SetRGBA(x, y, c)
	}
}

// drawLabel prints text with its baseline at (x, y) on a dark background box.
func drawLabel(img *image.RGBA, x, y int, text string, fg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	ascent := face.Metrics().Ascent.Ceil()

	if y-ascent < img.Bounds().Min.Y {
		y = img.Bounds().Min.Y + ascent
	}

	bg := image.Rect(x-1, y-ascent-1, x+width+1, y+2).Intersect(img.Bounds())
	draw.Draw(img, bg, image.NewUniform(color.RGBA{0, 0, 0, 180}), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
