// Package detection locates the handwritten characters on a worksheet photo.
//
// Character boxes start out as detections from an external text
// recognizer (see TextDetectionOracle). The Localizer splits each
// multi-character detection into equal-width single-character quads.
//
// # Printed Glyph Filtering
//
// Practice worksheets pair a printed reference glyph with a space for the
// student's copy. Two rules separate them:
//
//   - Grid: ruling lines are found with Canny + dilation + probabilistic
//     Hough, clustered per axis, and each box is kept only when its centre
//     lies in the right-hand part of a table cell.
//   - Classifier: without a usable grid, each box is scored on ink
//     darkness, ink density, stroke-width variation and edge irregularity.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Quad corners are ordered top-left, top-right, bottom-right, bottom-left
package detection
