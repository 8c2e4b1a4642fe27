package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// PreprocessConfig holds the binarization parameters.
type PreprocessConfig struct {
	// TargetSize is the canonical character size every feature is measured at.
	TargetSize image.Point

	// ClipLimit and TileGrid configure CLAHE lighting normalization.
	ClipLimit float64
	TileGrid  image.Point

	// DenoiseKernel is the median blur aperture; must be odd and >= 3.
	DenoiseKernel int

	// BlockSize and ThresholdC configure the adaptive Gaussian threshold.
	BlockSize  int
	ThresholdC float64
}

// DefaultPreprocessConfig returns the standard worksheet settings.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		TargetSize:    image.Pt(256, 256),
		ClipLimit:     2.0,
		TileGrid:      image.Pt(8, 8),
		DenoiseKernel: 3,
		BlockSize:     11,
		ThresholdC:    2,
	}
}

// Preprocessor turns photographs into ink masks and normalizes character
// crops to the canonical size.
type Preprocessor struct {
	cfg PreprocessConfig
}

// NewPreprocessor creates a preprocessor with the given configuration.
func NewPreprocessor(cfg PreprocessConfig) *Preprocessor {
	return &Preprocessor{cfg: cfg}
}

// TargetSize returns the canonical character size.
func (p *Preprocessor) TargetSize() image.Point {
	return p.cfg.TargetSize
}

// Preprocess converts an image into an ink mask.
//
// The pipeline is:
//
//  1. Grayscale conversion (skipped for *image.Gray input)
//  2. CLAHE lighting normalization
//  3. Median blur denoising
//  4. Adaptive Gaussian threshold, inverted so ink is 255
//
// The returned mask has the same dimensions as the input.
func (p *Preprocessor) Preprocess(img image.Image) (*Mask, error) {
	gray, err := grayMat(img)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	if gray.Empty() {
		return NewMask(0, 0), nil
	}

	clahe := gocv.NewCLAHEWithParams(p.cfg.ClipLimit, p.cfg.TileGrid)
	defer clahe.Close()

	normalized := gocv.NewMat()
	defer normalized.Close()
	clahe.Apply(gray, &normalized)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.MedianBlur(normalized, &denoised, p.cfg.DenoiseKernel)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.AdaptiveThreshold(denoised, &binary, 255,
		gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv,
		p.cfg.BlockSize, float32(p.cfg.ThresholdC))

	mask, err := MaskFromMat(binary)
	if err != nil {
		return nil, fmt.Errorf("failed to read binarized image: %w", err)
	}
	return mask, nil
}

// ResizeChar scales a character mask to the canonical target size using area
// interpolation.
func (p *Preprocessor) ResizeChar(m *Mask) (*Mask, error) {
	return ResizeArea(m, p.cfg.TargetSize)
}

// ResizeArea scales a mask to size using area interpolation. Intermediate
// intensities are kept; callers that need a strict 0/255 mask threshold the
// result themselves.
func ResizeArea(m *Mask, size image.Point) (*Mask, error) {
	if m.Empty() {
		return nil, fmt.Errorf("cannot resize empty mask")
	}
	if m.Width == size.X && m.Height == size.Y {
		return m.Clone(), nil
	}

	src, err := MaskMat(m)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, size, 0, 0, gocv.InterpolationArea)

	return MaskFromMat(dst)
}
