// Package imaging provides the raster side of the grading pipeline.
//
// It covers decoding worksheet photos (with EXIF orientation), the Mask type
// that carries ink/background classification between stages, the
// Preprocessor that binarizes photos and normalizes character crops, optional
// perspective correction, and rendering of graded results back onto the
// photo.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive
//
// # Masks
//
// A Mask stores one byte per pixel. Zero is background, anything else is
// ink. Preprocess produces strictly 0/255 masks with ink high; ResizeArea
// keeps the fractional coverage produced by area interpolation.
//
// # OpenCV
//
// Binarization, resizing and contour work run through gocv. Mats never leave
// this package's exported functions except through GrayMat and MaskMat, and
// whoever receives one is responsible for closing it.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Preprocessor holds only its
// configuration and may be shared between goroutines.
package imaging
