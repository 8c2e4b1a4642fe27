// Package ocr adapts Tesseract (via gosseract/v2) to the detection package's
// TextDetectionOracle.
//
// # Prerequisites
//
// Tesseract and the language data for the configured language must be
// installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-chi-sim
//   - macOS: brew install tesseract tesseract-lang
//
// Set TESSDATA_PREFIX (or Config.TessdataPrefix) when the traineddata files
// live outside Tesseract's default search path.
//
// # Results
//
// The engine works at word level. Chinese text usually comes back as runs of
// several characters per word; the detection Localizer splits those into
// single-character boxes.
package ocr
