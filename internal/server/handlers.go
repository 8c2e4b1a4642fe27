package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/calligraphy-grader/internal/detection"
	"github.com/ironsheep/calligraphy-grader/internal/features"
	"github.com/ironsheep/calligraphy-grader/internal/feedback"
	"github.com/ironsheep/calligraphy-grader/internal/grader"
	"github.com/ironsheep/calligraphy-grader/internal/imaging"
	"github.com/ironsheep/calligraphy-grader/internal/scoring"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "grade_image", "detect_grid").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Grading
	case "grade_image":
		return s.handleGradeImage(ctx, args)
	case "grade_character":
		return s.handleGradeCharacter(ctx, args)
	case "grade_directory":
		return s.handleGradeDirectory(ctx, args)

	// Pipeline stages
	case "preprocess_image":
		return s.handlePreprocessImage(args)
	case "detect_grid":
		return s.handleDetectGrid(args)
	case "extract_features":
		return s.handleExtractFeatures(args)
	case "score_features":
		return s.handleScoreFeatures(args)
	case "annotate_grade":
		return s.handleAnnotateGrade(ctx, args)

	// Templates
	case "template_info":
		return s.handleTemplateInfo(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

type regionArg struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r *regionArg) rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	return json.Unmarshal(args, v)
}

// loadRegion loads an image from the cache and optionally crops it.
func (s *Server) loadRegion(path string, region *regionArg) (image.Image, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return img, nil
	}
	return imaging.CropImage(img, region.rect())
}

// === Grading Handlers ===

func (s *Server) handleGradeImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadRegion(a.Path, nil)
	if err != nil {
		return nil, err
	}
	return s.grader.Grade(ctx, img)
}

type gradeCharacterArgs struct {
	Path   string     `json:"path"`
	Char   string     `json:"char"`
	Region *regionArg `json:"region,omitempty"`
}

type gradeCharacterResult struct {
	*grader.CharResult
	Text string `json:"text"`
}

func (s *Server) handleGradeCharacter(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a gradeCharacterArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadRegion(a.Path, a.Region)
	if err != nil {
		return nil, err
	}
	r, err := s.grader.GradeCharacter(ctx, img, a.Char)
	if err != nil {
		return nil, err
	}
	return gradeCharacterResult{CharResult: r, Text: r.Text()}, nil
}

func (s *Server) handleGradeDirectory(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	summary, err := s.grader.GradeDir(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	// the batch read every file fresh; drop older decodes of the same paths
	for _, r := range summary.Results {
		s.cache.Evict(r.Path)
	}
	return summary, nil
}

// === Pipeline Stage Handlers ===

type preprocessArgs struct {
	Path        string   `json:"path"`
	Perspective bool     `json:"perspective"`
	Corners     [][2]int `json:"corners,omitempty"`
}

type preprocessResult struct {
	*imaging.EncodedImage
	InkPixels int `json:"ink_pixels"`
}

func (s *Server) handlePreprocessImage(args json.RawMessage) (interface{}, error) {
	var a preprocessArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadRegion(a.Path, nil)
	if err != nil {
		return nil, err
	}

	p := s.grader.Preprocessor()
	switch {
	case len(a.Corners) > 0:
		corners := make([]image.Point, len(a.Corners))
		for i, c := range a.Corners {
			corners[i] = image.Pt(c[0], c[1])
		}
		img, err = p.PerspectiveCorrectCorners(img, corners)
	case a.Perspective:
		img, err = p.PerspectiveCorrect(img)
	}
	if err != nil {
		return nil, err
	}

	mask, err := p.Preprocess(img)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(mask.Gray())
	if err != nil {
		return nil, err
	}
	return preprocessResult{EncodedImage: encoded, InkPixels: mask.CountNonZero()}, nil
}

type detectGridResult struct {
	Found bool `json:"found"`
	*detection.GridStructure
}

func (s *Server) handleDetectGrid(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadRegion(a.Path, nil)
	if err != nil {
		return nil, err
	}
	grid, err := s.grader.Filter().Grid().Detect(img)
	if err != nil {
		return nil, err
	}
	return detectGridResult{Found: grid.Valid(), GridStructure: grid}, nil
}

type extractFeaturesArgs struct {
	Path   string     `json:"path"`
	Region *regionArg `json:"region,omitempty"`
}

func (s *Server) handleExtractFeatures(args json.RawMessage) (interface{}, error) {
	var a extractFeaturesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadRegion(a.Path, a.Region)
	if err != nil {
		return nil, err
	}
	mask, err := s.grader.CharacterMask(img)
	if err != nil {
		return nil, err
	}
	return s.grader.Measure(mask)
}

type scoreFeaturesArgs struct {
	Student  *features.FeatureSet `json:"student"`
	Template *features.FeatureSet `json:"template"`
}

type scoreFeaturesResult struct {
	Score    scoring.ScoreResult `json:"score"`
	Feedback feedback.Feedback   `json:"feedback"`
	Text     string              `json:"text"`
}

func (s *Server) handleScoreFeatures(args json.RawMessage) (interface{}, error) {
	var a scoreFeaturesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Student == nil || a.Template == nil {
		return nil, errors.New("student and template feature sets are required")
	}
	r := s.grader.ScoreChar(a.Student, a.Template)
	fb := s.grader.Feedback(r)
	return scoreFeaturesResult{Score: r, Feedback: fb, Text: feedback.Format(fb)}, nil
}

type annotateResult struct {
	*imaging.EncodedImage
	Report *grader.Report `json:"report"`
}

func (s *Server) handleAnnotateGrade(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loadRegion(a.Path, nil)
	if err != nil {
		return nil, err
	}
	report, err := s.grader.Grade(ctx, img)
	if err != nil {
		return nil, err
	}

	marks := make([]imaging.Mark, len(report.Chars))
	for i, c := range report.Chars {
		marks[i] = imaging.Mark{Rect: c.Quad.Bounds(), Score: c.Score}
	}
	encoded, err := imaging.Annotate(img, marks)
	if err != nil {
		return nil, err
	}
	return annotateResult{EncodedImage: encoded, Report: report}, nil
}

// === Template Handlers ===

type templateInfoArgs struct {
	Char         string `json:"char"`
	IncludeImage bool   `json:"include_image"`
}

type templateFeatures struct {
	CenterOfMass features.Point2D `json:"center_of_mass"`
	Ratios       *features.Ratios `json:"ratios"`
	StrokeCount  int              `json:"stroke_count"`
}

type templateInfoResult struct {
	Char            string                `json:"char"`
	HasTemplate     bool                  `json:"has_template"`
	Size            image.Point           `json:"size"`
	Features        *templateFeatures     `json:"features,omitempty"`
	Image           *imaging.EncodedImage `json:"image,omitempty"`
	CachedTemplates int                   `json:"cached_templates"`
}

func (s *Server) handleTemplateInfo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateInfoArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Char == "" {
		return nil, errors.New("char is required")
	}

	provider := s.grader.Templates()
	size := s.grader.Preprocessor().TargetSize()
	fs, ok, err := provider.Features(ctx, a.Char, size)
	if err != nil {
		return nil, err
	}

	result := templateInfoResult{Char: a.Char, HasTemplate: ok, Size: size}
	if ok {
		result.Features = &templateFeatures{
			CenterOfMass: fs.CenterOfMass,
			Ratios:       fs.Ratios,
			StrokeCount:  fs.Strokes.StrokeCount,
		}
		if a.IncludeImage {
			m, found, err := provider.Template(ctx, a.Char, size)
			if err != nil {
				return nil, err
			}
			if found {
				if result.Image, err = imaging.EncodePNG(m.Gray()); err != nil {
					return nil, err
				}
			}
		}
	}
	result.CachedTemplates = provider.Cache().Len()
	return result, nil
}
