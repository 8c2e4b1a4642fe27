package grader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/calligraphy-grader/internal/scoring"
)

// imageExtensions are the worksheet formats picked up by GradeDir.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// FileResult is the outcome for one file of a batch.
type FileResult struct {
	Path   string  `json:"path"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Succeeded reports whether the file was graded.
func (r FileResult) Succeeded() bool {
	return r.Report != nil
}

// BatchSummary aggregates a directory run.
type BatchSummary struct {
	Dir       string `json:"dir"`
	Files     int    `json:"files"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`

	// MeanScore averages the overall scores of the files that have one.
	MeanScore  *float64     `json:"mean_score"`
	TotalChars int          `json:"total_chars"`
	Results    []FileResult `json:"results"`
}

// FindImages lists the worksheet images directly inside dir, sorted by name.
// Extensions are matched case-insensitively.
func FindImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// GradeDir grades every image in dir, one after another. A file that fails
// is recorded and the run continues; only a cancelled context or an
// unreadable directory stops it.
func (g *Grader) GradeDir(ctx context.Context, dir string) (*BatchSummary, error) {
	paths, err := FindImages(dir)
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{
		Dir:     dir,
		Files:   len(paths),
		Results: make([]FileResult, 0, len(paths)),
	}

	var sum float64
	scored := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result := FileResult{Path: path}
		report, err := g.GradeFile(ctx, path)
		if err != nil {
			g.logger.Printf("grading %s failed: %v", path, err)
			result.Error = err.Error()
			summary.Failed++
		} else {
			result.Report = report
			summary.Succeeded++
			summary.TotalChars += report.CharCount
			if report.OverallScore != nil {
				sum += *report.OverallScore
				scored++
			}
		}
		summary.Results = append(summary.Results, result)
	}

	if scored > 0 {
		mean := scoring.Round1(sum / float64(scored))
		summary.MeanScore = &mean
	}
	return summary, nil
}
