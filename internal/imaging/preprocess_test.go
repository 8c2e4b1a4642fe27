package imaging

import (
	"image"
	"image/color"
	"testing"
)

// whiteWithBar draws a thin vertical dark stroke on a white page.
func whiteWithBar(width, height, barX, barWidth int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(255)
			if x >= barX && x < barX+barWidth && y >= 10 && y < height-10 {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestPreprocess_ThinStroke(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessConfig())
	img := whiteWithBar(64, 64, 30, 3)

	mask, err := p.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if mask.Width != 64 || mask.Height != 64 {
		t.Fatalf("size: got %dx%d, want 64x64", mask.Width, mask.Height)
	}
	if mask.At(31, 32) != 255 {
		t.Errorf("stroke pixel: got %d, want 255", mask.At(31, 32))
	}
	if mask.At(5, 5) != 0 {
		t.Errorf("background pixel: got %d, want 0", mask.At(5, 5))
	}
	for _, v := range mask.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("mask must be binary, found %d", v)
		}
	}
}

func TestPreprocess_BlankPage(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessConfig())
	img := whiteWithBar(40, 40, 0, 0)

	mask, err := p.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if n := mask.CountNonZero(); n != 0 {
		t.Errorf("blank page produced %d ink pixels", n)
	}
}

func TestResizeArea(t *testing.T) {
	m := NewMask(64, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			m.Set(x, y, 255)
		}
	}

	out, err := ResizeArea(m, image.Pt(256, 256))
	if err != nil {
		t.Fatalf("ResizeArea failed: %v", err)
	}
	if out.Width != 256 || out.Height != 256 {
		t.Errorf("size: got %dx%d, want 256x256", out.Width, out.Height)
	}
	if out.At(128, 128) != 255 {
		t.Errorf("solid mask should stay solid, got %d", out.At(128, 128))
	}
}

func TestResizeArea_Empty(t *testing.T) {
	if _, err := ResizeArea(NewMask(0, 0), image.Pt(8, 8)); err == nil {
		t.Error("expected error for empty mask")
	}
}

func TestResizeChar_UsesTargetSize(t *testing.T) {
	cfg := DefaultPreprocessConfig()
	cfg.TargetSize = image.Pt(32, 32)
	p := NewPreprocessor(cfg)

	out, err := p.ResizeChar(NewMask(10, 20))
	if err != nil {
		t.Fatalf("ResizeChar failed: %v", err)
	}
	if out.Size() != image.Pt(32, 32) {
		t.Errorf("size: got %v, want (32,32)", out.Size())
	}
}

func TestPerspectiveCorrect_NoPaperFound(t *testing.T) {
	p := NewPreprocessor(DefaultPreprocessConfig())
	img := whiteWithBar(80, 60, 0, 0)

	out, err := p.PerspectiveCorrect(img)
	if err != nil {
		t.Fatalf("PerspectiveCorrect failed: %v", err)
	}
	if out != image.Image(img) {
		t.Error("uniform image should be returned unchanged")
	}
}

func TestOrderCorners(t *testing.T) {
	pts := []image.Point{{90, 5}, {3, 80}, {2, 4}, {95, 85}}
	got := orderCorners(pts)
	want := [4]image.Point{{2, 4}, {90, 5}, {95, 85}, {3, 80}}
	if got != want {
		t.Errorf("orderCorners: got %v, want %v", got, want)
	}
}
