package feedback

import (
	"fmt"

	"github.com/ironsheep/calligraphy-grader/internal/features"
	"github.com/ironsheep/calligraphy-grader/internal/scoring"
)

// Config holds the cut-offs that decide which comments fire.
type Config struct {
	// GoodScore is the dimension score at or above which only a "good"
	// item is emitted.
	GoodScore float64

	// CenterDeadBand is the centroid offset (normalized units) ignored on
	// each axis.
	CenterDeadBand float64

	// RatioDeadBand is the ink-share difference ignored for the upper and
	// left ratios.
	RatioDeadBand float64

	// ShortLength and LongLength bound the acceptable skeleton length ratio.
	ShortLength float64
	LongLength  float64
}

// DefaultConfig returns the standard cut-offs.
func DefaultConfig() Config {
	return Config{
		GoodScore:      85,
		CenterDeadBand: 0.05,
		RatioDeadBand:  0.10,
		ShortLength:    0.85,
		LongLength:     1.15,
	}
}

// Comment texts.
const (
	MsgCenterLeft  = "The character sits left of centre; shift it to the right."
	MsgCenterRight = "The character sits right of centre; shift it to the left."
	MsgCenterUp    = "The character sits too high; bring it down a little."
	MsgCenterDown  = "The character sits too low; raise it a little."
	MsgCenterGood  = "Good balance around the centre. Keep it up."

	MsgUpperHeavy = "The upper part is too large; compress the top half."
	MsgLowerHeavy = "The lower part is too large; compress the bottom half."
	MsgLeftHeavy  = "The left part is too wide; tighten the left side."
	MsgRightHeavy = "The right part is too wide; tighten the right side."
	MsgRatioGood  = "Well-proportioned structure. Keep it up."

	MsgStrokeShort = "Strokes are too short overall; extend them."
	MsgStrokeLong  = "Strokes are too long overall; rein them in."
	MsgStrokeGood  = "Strokes are complete and fluent."

	MsgEncourage = "Keep practising!"
)

const (
	suggestMoveRight   = "Watch the centre line while practising and move right slightly."
	suggestMoveLeft    = "Watch the centre line while practising and move left slightly."
	suggestMoveDown    = "Mind where the weight of the character sits and lower it."
	suggestMoveUp      = "Mind where the weight of the character sits and raise it."
	suggestShrinkUpper = "The top half is written too big; control it next time."
	suggestShrinkLower = "The bottom half is written too big; balance top and bottom."
	suggestShrinkLeft  = "The left side is too wide; keep it tighter."
	suggestShrinkRight = "The right side is too wide; keep it tighter."
	suggestExtend      = "Let the strokes stretch out more."
	suggestRestrain    = "Strokes look better slightly more restrained."
)

var overallComments = map[scoring.Grade]string{
	scoring.Excellent:        "Excellent writing! Neat structure and well-formed strokes.",
	scoring.Good:             "Good writing. A little attention to detail will take it further.",
	scoring.Medium:           "Fair writing. Practise the basic strokes more.",
	scoring.Pass:             "Passable. Keep practising, paying attention to structure and strokes.",
	scoring.NeedsImprovement: "Needs work. Start again from the basic strokes.",
}

// Feedback is the generated commentary for one character.
type Feedback struct {
	OverallComment string        `json:"overall_comment"`
	Items          []string      `json:"feedback_items"`
	Suggestions    []string      `json:"suggestions"`
	Score          float64       `json:"score"`
	Grade          scoring.Grade `json:"grade"`
}

// Generator produces Feedback from score results. It holds no state beyond
// its configuration.
type Generator struct {
	cfg Config
}

// NewGenerator returns a generator using cfg.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// Generate builds the feedback for r. Items and suggestions are ordered
// centre, structure, strokes.
func (g *Generator) Generate(r scoring.ScoreResult) Feedback {
	fb := Feedback{
		OverallComment: OverallComment(r.Grade),
		Items:          []string{},
		Suggestions:    []string{},
		Score:          r.TotalScore,
		Grade:          r.Grade,
	}

	student, template := orCentred(r.Student), orCentred(r.Template)

	g.center(&fb, r.Dimensions.CenterOfMass, student, template)
	g.structure(&fb, r.Dimensions.Structure, student.Ratios, template.Ratios)
	g.strokes(&fb, r.Dimensions.StrokeAccuracy, student.Strokes, template.Strokes)
	return fb
}

// orCentred stands in for a missing feature set with a centred, empty one.
func orCentred(fs *features.FeatureSet) *features.FeatureSet {
	if fs != nil {
		return fs
	}
	return &features.FeatureSet{CenterOfMass: features.Point2D{X: 0.5, Y: 0.5}}
}

// OverallComment returns the fixed comment for a grade, or a generic
// encouragement for an unknown grade.
func OverallComment(grade scoring.Grade) string {
	if c, ok := overallComments[grade]; ok {
		return c
	}
	return MsgEncourage
}

func (fb *Feedback) add(item, suggestion string) {
	if item != "" {
		fb.Items = append(fb.Items, item)
	}
	if suggestion != "" {
		fb.Suggestions = append(fb.Suggestions, suggestion)
	}
}

func (g *Generator) center(fb *Feedback, score float64, student, template *features.FeatureSet) {
	if score >= g.cfg.GoodScore {
		fb.add(MsgCenterGood, "")
		return
	}

	dx := student.CenterOfMass.X - template.CenterOfMass.X
	dy := student.CenterOfMass.Y - template.CenterOfMass.Y
	band := g.cfg.CenterDeadBand

	switch {
	case dx < -band:
		fb.add(MsgCenterLeft, suggestMoveRight)
	case dx > band:
		fb.add(MsgCenterRight, suggestMoveLeft)
	}
	switch {
	case dy < -band:
		fb.add(MsgCenterUp, suggestMoveDown)
	case dy > band:
		fb.add(MsgCenterDown, suggestMoveUp)
	}
}

func (g *Generator) structure(fb *Feedback, score float64, student, template *features.Ratios) {
	if score >= g.cfg.GoodScore {
		fb.add(MsgRatioGood, "")
		return
	}

	s, t := ratiosOrEven(student), ratiosOrEven(template)
	band := g.cfg.RatioDeadBand

	switch {
	case s.Upper-t.Upper > band:
		fb.add(MsgUpperHeavy, suggestShrinkUpper)
	case t.Upper-s.Upper > band:
		fb.add(MsgLowerHeavy, suggestShrinkLower)
	}
	switch {
	case s.Left-t.Left > band:
		fb.add(MsgLeftHeavy, suggestShrinkLeft)
	case t.Left-s.Left > band:
		fb.add(MsgRightHeavy, suggestShrinkRight)
	}
}

func ratiosOrEven(r *features.Ratios) features.Ratios {
	if r == nil {
		return features.Ratios{Upper: 0.5, Lower: 0.5, Left: 0.5, Right: 0.5}
	}
	return *r
}

func (g *Generator) strokes(fb *Feedback, score float64, student, template features.StrokeStats) {
	if score >= g.cfg.GoodScore {
		fb.add(MsgStrokeGood, "")
		return
	}

	if template.TotalLength > 0 {
		ratio := float64(student.TotalLength) / float64(template.TotalLength)
		switch {
		case ratio < g.cfg.ShortLength:
			fb.add(MsgStrokeShort, suggestExtend)
		case ratio > g.cfg.LongLength:
			fb.add(MsgStrokeLong, suggestRestrain)
		}
	}

	if student.StrokeCount != template.StrokeCount && template.StrokeCount > 0 {
		fb.add("", StrokeCountSuggestion(template.StrokeCount))
	}
}

// StrokeCountSuggestion reminds the student how many strokes the template
// has.
func StrokeCountSuggestion(n int) string {
	if n == 1 {
		return "Check the stroke count: the model character has 1 stroke."
	}
	return fmt.Sprintf("Check the stroke count: the model character has %d strokes.", n)
}
