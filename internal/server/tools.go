package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var regionProperty = map[string]interface{}{
	"type":        "object",
	"description": "Optional crop region (x2, y2 exclusive) applied before grading",
	"properties": map[string]interface{}{
		"x1": map[string]interface{}{"type": "integer"},
		"y1": map[string]interface{}{"type": "integer"},
		"x2": map[string]interface{}{"type": "integer"},
		"y2": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"x1", "y1", "x2", "y2"},
}

var featureSetSchema = map[string]interface{}{
	"type":        "object",
	"description": "Feature set as returned by extract_features",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Grading
		{
			Name:        "grade_image",
			Description: "Grade every handwritten character on a worksheet photo. Returns per-character scores, grades, dimension scores and feedback, plus the overall score. Characters without a template are listed with a null score.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "grade_character",
			Description: "Grade a single handwritten character image against the template for the given character. Grayscale images are treated as ink masks (white ink on black); colour images are binarized first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"char": map[string]interface{}{
						"type":        "string",
						"description": "The character that was written",
					},
					"region": regionProperty,
				},
				"required": []string{"path", "char"},
			},
		},
		{
			Name:        "grade_directory",
			Description: "Grade every .jpg, .jpeg, .png and .bmp worksheet in a directory. Returns per-file reports or errors and a summary.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the directory",
					},
				},
				"required": []string{"path"},
			},
		},

		// Pipeline stages
		{
			Name:        "preprocess_image",
			Description: "Binarize a worksheet photo the way the grader sees it and return the ink mask as base64 PNG (ink is white).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"perspective": map[string]interface{}{
						"type":        "boolean",
						"description": "Detect the paper outline and flatten it first. Default false",
						"default":     false,
					},
					"corners": map[string]interface{}{
						"type":        "array",
						"description": "Explicit paper corners as four [x, y] pairs, in any order. Implies perspective correction",
						"items": map[string]interface{}{
							"type":     "array",
							"items":    map[string]interface{}{"type": "integer"},
							"minItems": 2,
							"maxItems": 2,
						},
						"minItems": 4,
						"maxItems": 4,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "detect_grid",
			Description: "Find the practice grid (table lines) on a worksheet. Returns the clustered vertical and horizontal line coordinates, or found=false.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "extract_features",
			Description: "Measure a single-character image: centre of mass, ink ratios, skeleton statistics and stroke angles at the canonical size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"region": regionProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "score_features",
			Description: "Score a student feature set against a template feature set without any image work. Returns the score result and generated feedback.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"student":  featureSetSchema,
					"template": featureSetSchema,
				},
				"required": []string{"student", "template"},
			},
		},
		{
			Name:        "annotate_grade",
			Description: "Grade a worksheet and return it as base64 PNG with each character outlined in a red-to-green colour by score (gray when unscored), together with the report.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Templates
		{
			Name:        "template_info",
			Description: "Report whether a reference template exists for a character and, if so, its center of mass, half ratios and estimated stroke count at the grading size. Optionally includes the template mask as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"char": map[string]interface{}{
						"type":        "string",
						"description": "The character to look up",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the template mask",
						"default":     false,
					},
				},
				"required": []string{"char"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
