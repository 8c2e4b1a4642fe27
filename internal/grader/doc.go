// Package grader runs the full worksheet grading pipeline.
//
// A Grader chains preprocessing, character localization, printed-glyph
// filtering, feature extraction, template comparison, scoring and feedback.
// It is safe for concurrent use as long as its TextDetectionOracle is; the
// only state shared between calls is the template cache.
package grader
