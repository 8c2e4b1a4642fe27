package config

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/otiai10/gosseract/v2"
)

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
	if cfg.Preprocess.TargetSize != image.Pt(256, 256) {
		t.Errorf("TargetSize: got %v, want 256x256", cfg.Preprocess.TargetSize)
	}
	if !cfg.Pipeline.FilterPrinted || cfg.Pipeline.PerspectiveCorrect {
		t.Errorf("Pipeline: got %+v", cfg.Pipeline)
	}
	if cfg.Debug() {
		t.Error("default log level should not be debug")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"negative weight", func(c *Config) {
			c.Scoring.Weights.CenterOfMass = -0.1
			c.Scoring.Weights.Structure += 0.1
		}, ErrInvalidWeights},
		{"weights do not sum to one", func(c *Config) { c.Scoring.Weights.Structure = 0.5 }, ErrInvalidWeights},
		{"thresholds out of order", func(c *Config) { c.Scoring.Thresholds.Pass = 95 }, ErrInvalidConfig},
		{"zero target size", func(c *Config) { c.Preprocess.TargetSize = image.Point{} }, ErrInvalidConfig},
		{"even denoise kernel", func(c *Config) { c.Preprocess.DenoiseKernel = 4 }, ErrInvalidConfig},
		{"small block size", func(c *Config) { c.Preprocess.BlockSize = 1 }, ErrInvalidConfig},
		{"cell split above one", func(c *Config) { c.Grid.CellSplit = 1.5 }, ErrInvalidConfig},
		{"inverted length band", func(c *Config) { c.Feedback.ShortLength, c.Feedback.LongLength = 1.2, 0.8 }, ErrInvalidConfig},
		{"zero short length", func(c *Config) { c.Feedback.ShortLength = 0 }, ErrInvalidConfig},
		{"zero glyph size", func(c *Config) { c.Templates.GlyphSize = 0 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GRADER_LOG_LEVEL", "DEBUG")
	t.Setenv("GRADER_PERSPECTIVE_CORRECT", "true")
	t.Setenv("GRADER_FILTER_PRINTED", "false")
	t.Setenv("GRADER_TARGET_SIZE", "128")
	t.Setenv("GRADER_WEIGHT_CENTER", "0.4")
	t.Setenv("GRADER_WEIGHT_STROKE", "0.3")
	t.Setenv("GRADER_WEIGHT_STRUCTURE", "0.3")
	t.Setenv("GRADER_REDIS_TTL_SECONDS", "60")
	t.Setenv("GRADER_OCR_PSM", "6")
	t.Setenv("GRADER_TEMPLATE_DIR", "/srv/templates")
	t.Setenv("GRADER_FEEDBACK_SHORT_LENGTH", "0.8")
	t.Setenv("GRADER_FEEDBACK_LONG_LENGTH", "1.25")
	t.Setenv("GRADER_OCR_LEVEL", "word")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Debug() {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
	if !cfg.Pipeline.PerspectiveCorrect || cfg.Pipeline.FilterPrinted {
		t.Errorf("Pipeline: got %+v", cfg.Pipeline)
	}
	if cfg.Preprocess.TargetSize != image.Pt(128, 128) {
		t.Errorf("TargetSize: got %v", cfg.Preprocess.TargetSize)
	}
	if cfg.Scoring.Weights.CenterOfMass != 0.4 {
		t.Errorf("CenterOfMass weight: got %g", cfg.Scoring.Weights.CenterOfMass)
	}
	if cfg.Templates.RedisTTL != time.Minute {
		t.Errorf("RedisTTL: got %v", cfg.Templates.RedisTTL)
	}
	if cfg.OCR.PageSegMode != 6 {
		t.Errorf("PageSegMode: got %d", cfg.OCR.PageSegMode)
	}
	if cfg.Templates.Dir != "/srv/templates" {
		t.Errorf("Templates.Dir: got %q", cfg.Templates.Dir)
	}
	if cfg.Feedback.ShortLength != 0.8 || cfg.Feedback.LongLength != 1.25 {
		t.Errorf("length band: got %g..%g, want 0.8..1.25", cfg.Feedback.ShortLength, cfg.Feedback.LongLength)
	}
	if cfg.OCR.Level != gosseract.RIL_WORD {
		t.Errorf("OCR level: got %v, want RIL_WORD", cfg.OCR.Level)
	}
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("GRADER_TARGET_SIZE", "large")
	t.Setenv("GRADER_FILTER_PRINTED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	def := Default()
	if cfg.Preprocess.TargetSize != def.Preprocess.TargetSize {
		t.Errorf("TargetSize: got %v, want default", cfg.Preprocess.TargetSize)
	}
	if cfg.Pipeline.FilterPrinted != def.Pipeline.FilterPrinted {
		t.Error("FilterPrinted should keep its default")
	}
}

func TestLoad_RejectsBadWeights(t *testing.T) {
	t.Setenv("GRADER_WEIGHT_CENTER", "0.9")

	if _, err := Load(); !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("Load() = %v, want ErrInvalidWeights", err)
	}
}
