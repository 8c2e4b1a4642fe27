// Package config loads grader settings from the environment.
//
// Every tunable threshold of the pipeline lives in the owning package's
// Config struct with a DefaultConfig constructor; this package only reads
// overrides from environment variables (optionally seeded from a .env file)
// and validates the combined result.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/calligraphy-grader/internal/detection"
	"github.com/ironsheep/calligraphy-grader/internal/feedback"
	"github.com/ironsheep/calligraphy-grader/internal/imaging"
	"github.com/ironsheep/calligraphy-grader/internal/ocr"
	"github.com/ironsheep/calligraphy-grader/internal/scoring"
	"github.com/ironsheep/calligraphy-grader/internal/templates"
)

var (
	// ErrInvalidWeights is returned when scoring weights are negative or do
	// not sum to 1.0.
	ErrInvalidWeights = errors.New("invalid scoring weights")

	// ErrInvalidConfig wraps every other validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// weightTolerance is how far the scoring weight sum may drift from 1.0.
const weightTolerance = 1e-6

// PipelineConfig controls optional pipeline stages.
type PipelineConfig struct {
	// PerspectiveCorrect runs paper-corner detection before anything else.
	PerspectiveCorrect bool

	// FilterPrinted drops printed reference glyphs (grid first, classifier fallback).
	FilterPrinted bool
}

// Config is the full grader configuration.
type Config struct {
	LogLevel string

	Pipeline   PipelineConfig
	Preprocess imaging.PreprocessConfig
	Grid       detection.GridConfig
	Classifier detection.ClassifierConfig
	Scoring    scoring.Config
	Feedback   feedback.Config
	Templates  templates.Config
	OCR        ocr.Config
}

// Default returns the configuration with every documented default applied.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{
			PerspectiveCorrect: false,
			FilterPrinted:      true,
		},
		Preprocess: imaging.DefaultPreprocessConfig(),
		Grid:       detection.DefaultGridConfig(),
		Classifier: detection.DefaultClassifierConfig(),
		Scoring:    scoring.DefaultConfig(),
		Feedback:   feedback.DefaultConfig(),
		Templates:  templates.DefaultConfig(),
		OCR:        ocr.DefaultConfig(),
	}
}

// Load reads an optional .env file and then applies GRADER_* environment
// overrides on top of Default. The result is validated before it is returned.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	cfg.LogLevel = strings.ToLower(getEnvOrDefault("GRADER_LOG_LEVEL", cfg.LogLevel))

	cfg.Pipeline.PerspectiveCorrect = getEnvAsBoolOrDefault("GRADER_PERSPECTIVE_CORRECT", cfg.Pipeline.PerspectiveCorrect)
	cfg.Pipeline.FilterPrinted = getEnvAsBoolOrDefault("GRADER_FILTER_PRINTED", cfg.Pipeline.FilterPrinted)

	p := &cfg.Preprocess
	size := getEnvAsIntOrDefault("GRADER_TARGET_SIZE", p.TargetSize.X)
	p.TargetSize.X, p.TargetSize.Y = size, size
	p.DenoiseKernel = getEnvAsIntOrDefault("GRADER_DENOISE_KERNEL", p.DenoiseKernel)
	p.ClipLimit = getEnvAsFloatOrDefault("GRADER_CLAHE_CLIP_LIMIT", p.ClipLimit)
	p.BlockSize = getEnvAsIntOrDefault("GRADER_THRESHOLD_BLOCK_SIZE", p.BlockSize)
	p.ThresholdC = getEnvAsFloatOrDefault("GRADER_THRESHOLD_C", p.ThresholdC)

	g := &cfg.Grid
	g.ClusterDistance = getEnvAsIntOrDefault("GRADER_GRID_CLUSTER_DISTANCE", g.ClusterDistance)
	g.TitleFraction = getEnvAsFloatOrDefault("GRADER_GRID_TITLE_FRACTION", g.TitleFraction)
	g.CellSplit = getEnvAsFloatOrDefault("GRADER_GRID_CELL_SPLIT", g.CellSplit)

	c := &cfg.Classifier
	c.DarknessWeight = getEnvAsFloatOrDefault("GRADER_CLASSIFIER_DARKNESS_WEIGHT", c.DarknessWeight)
	c.DensityWeight = getEnvAsFloatOrDefault("GRADER_CLASSIFIER_DENSITY_WEIGHT", c.DensityWeight)
	c.VariationWeight = getEnvAsFloatOrDefault("GRADER_CLASSIFIER_VARIATION_WEIGHT", c.VariationWeight)
	c.IrregularityWeight = getEnvAsFloatOrDefault("GRADER_CLASSIFIER_IRREGULARITY_WEIGHT", c.IrregularityWeight)
	c.Threshold = getEnvAsFloatOrDefault("GRADER_CLASSIFIER_THRESHOLD", c.Threshold)

	s := &cfg.Scoring
	s.Weights.CenterOfMass = getEnvAsFloatOrDefault("GRADER_WEIGHT_CENTER", s.Weights.CenterOfMass)
	s.Weights.StrokeAccuracy = getEnvAsFloatOrDefault("GRADER_WEIGHT_STROKE", s.Weights.StrokeAccuracy)
	s.Weights.Structure = getEnvAsFloatOrDefault("GRADER_WEIGHT_STRUCTURE", s.Weights.Structure)
	s.Thresholds.Excellent = getEnvAsFloatOrDefault("GRADER_GRADE_EXCELLENT", s.Thresholds.Excellent)
	s.Thresholds.Good = getEnvAsFloatOrDefault("GRADER_GRADE_GOOD", s.Thresholds.Good)
	s.Thresholds.Medium = getEnvAsFloatOrDefault("GRADER_GRADE_MEDIUM", s.Thresholds.Medium)
	s.Thresholds.Pass = getEnvAsFloatOrDefault("GRADER_GRADE_PASS", s.Thresholds.Pass)

	f := &cfg.Feedback
	f.GoodScore = getEnvAsFloatOrDefault("GRADER_FEEDBACK_GOOD_SCORE", f.GoodScore)
	f.CenterDeadBand = getEnvAsFloatOrDefault("GRADER_FEEDBACK_CENTER_DEADBAND", f.CenterDeadBand)
	f.RatioDeadBand = getEnvAsFloatOrDefault("GRADER_FEEDBACK_RATIO_DEADBAND", f.RatioDeadBand)
	f.ShortLength = getEnvAsFloatOrDefault("GRADER_FEEDBACK_SHORT_LENGTH", f.ShortLength)
	f.LongLength = getEnvAsFloatOrDefault("GRADER_FEEDBACK_LONG_LENGTH", f.LongLength)

	t := &cfg.Templates
	t.Dir = getEnvOrDefault("GRADER_TEMPLATE_DIR", t.Dir)
	t.FontPath = getEnvOrDefault("GRADER_TEMPLATE_FONT", t.FontPath)
	t.GlyphSize = getEnvAsIntOrDefault("GRADER_TEMPLATE_GLYPH_SIZE", t.GlyphSize)
	t.Padding = getEnvAsIntOrDefault("GRADER_TEMPLATE_PADDING", t.Padding)
	t.RedisURL = getEnvOrDefault("GRADER_REDIS_URL", t.RedisURL)
	t.RedisTTL = time.Duration(getEnvAsIntOrDefault("GRADER_REDIS_TTL_SECONDS", int(t.RedisTTL/time.Second))) * time.Second

	o := &cfg.OCR
	o.Language = getEnvOrDefault("GRADER_OCR_LANGUAGE", o.Language)
	o.TessdataPrefix = getEnvOrDefault("TESSDATA_PREFIX", o.TessdataPrefix)
	o.PageSegMode = getEnvAsIntOrDefault("GRADER_OCR_PSM", o.PageSegMode)
	switch strings.ToLower(os.Getenv("GRADER_OCR_LEVEL")) {
	case "word":
		o.Level = gosseract.RIL_WORD
	case "symbol":
		o.Level = gosseract.RIL_SYMBOL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
//
// Scoring weights must be non-negative and sum to 1.0; a misconfigured set
// would silently move the 0-100 scale, so it is rejected rather than
// normalized.
func (c *Config) Validate() error {
	w := c.Scoring.Weights
	if w.CenterOfMass < 0 || w.StrokeAccuracy < 0 || w.Structure < 0 {
		return fmt.Errorf("%w: weights must be non-negative (center=%g stroke=%g structure=%g)",
			ErrInvalidWeights, w.CenterOfMass, w.StrokeAccuracy, w.Structure)
	}
	if sum := w.CenterOfMass + w.StrokeAccuracy + w.Structure; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %g, want 1.0", ErrInvalidWeights, sum)
	}

	th := c.Scoring.Thresholds
	if !(th.Excellent >= th.Good && th.Good >= th.Medium && th.Medium >= th.Pass) {
		return fmt.Errorf("%w: grade thresholds must be non-increasing", ErrInvalidConfig)
	}

	p := c.Preprocess
	if p.TargetSize.X <= 0 || p.TargetSize.Y <= 0 {
		return fmt.Errorf("%w: target size must be positive, got %v", ErrInvalidConfig, p.TargetSize)
	}
	if p.DenoiseKernel < 3 || p.DenoiseKernel%2 == 0 {
		return fmt.Errorf("%w: denoise kernel must be odd and >= 3, got %d", ErrInvalidConfig, p.DenoiseKernel)
	}
	if p.BlockSize < 3 || p.BlockSize%2 == 0 {
		return fmt.Errorf("%w: threshold block size must be odd and >= 3, got %d", ErrInvalidConfig, p.BlockSize)
	}

	if c.Grid.CellSplit < 0 || c.Grid.CellSplit > 1 {
		return fmt.Errorf("%w: grid cell split must be within [0,1], got %g", ErrInvalidConfig, c.Grid.CellSplit)
	}
	if f := c.Feedback; f.ShortLength <= 0 || f.ShortLength > f.LongLength {
		return fmt.Errorf("%w: stroke length band must satisfy 0 < short <= long, got %g..%g", ErrInvalidConfig, f.ShortLength, f.LongLength)
	}
	if c.Templates.GlyphSize <= 0 {
		return fmt.Errorf("%w: template glyph size must be positive", ErrInvalidConfig)
	}
	return nil
}

// Debug reports whether debug logging was requested.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
