// Package detect turns text lifted from uploaded drawings into component
// suggestions, by matching equipment naming conventions against configured
// regex rules.
package detect

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/layout-studio/backend/internal/models"
)

type compiledRule struct {
	rule models.PatternRule
	re   *regexp.Regexp
}

// Detector matches text blocks against a compiled rule set. Safe for
// concurrent use once built.
type Detector struct {
	rules    *models.DetectionRules
	compiled []compiledRule
}

// NewDetector compiles a rule set. Nil rules compile the built-in defaults.
// Rules apply in descending priority order; ties keep file order.
func NewDetector(rules *models.DetectionRules) (*Detector, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	ordered := make([]models.PatternRule, len(rules.Patterns))
	copy(ordered, rules.Patterns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	compiled := make([]compiledRule, 0, len(ordered))
	for _, rule := range ordered {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", rule.Pattern, err)
		}
		compiled = append(compiled, compiledRule{rule: rule, re: re})
	}
	return &Detector{rules: rules, compiled: compiled}, nil
}

// Match tries the rules against one text block. ok is false when no rule
// matches or the block's confidence falls under the configured minimum.
func (d *Detector) Match(block models.TextBlock) (models.Suggestion, bool) {
	confidence := block.Confidence
	if confidence == 0 {
		// Extractors without scoring (SVG text) leave confidence unset.
		confidence = 1
	}
	if confidence < d.rules.MinConfidence {
		return models.Suggestion{}, false
	}

	for _, c := range d.compiled {
		loc := c.re.FindStringSubmatchIndex(block.Text)
		if loc == nil {
			continue
		}
		matched := block.Text[loc[0]:loc[1]]
		label := matched
		if c.rule.Label != "" {
			label = string(c.re.ExpandString(nil, c.rule.Label, block.Text, loc))
		}

		width, height := c.rule.Width, c.rule.Height
		if width <= 0 || height <= 0 {
			width, height = defaultSize(c.rule.Type)
		}
		beltWidth := c.rule.BeltWidth
		if beltWidth <= 0 && models.IsConveyor(c.rule.Type) {
			beltWidth = d.rules.DefaultBeltWidth
		}

		// Center the suggested box on the text block.
		cx := block.X + block.Width/2
		cy := block.Y + block.Height/2
		return models.Suggestion{
			Type:        c.rule.Type,
			EquipmentID: matched,
			Label:       label,
			X:           cx - width/2,
			Y:           cy - height/2,
			Width:       width,
			Height:      height,
			BeltWidth:   beltWidth,
			CurveAngle:  c.rule.CurveAngle,
			Confidence:  confidence,
			BlockID:     block.ID,
		}, true
	}
	return models.Suggestion{}, false
}

// Detect matches every unconsumed block and collects the suggestions.
func (d *Detector) Detect(blocks []models.TextBlock) []models.Suggestion {
	suggestions := make([]models.Suggestion, 0, len(blocks))
	for _, block := range blocks {
		if block.Consumed {
			continue
		}
		if s, ok := d.Match(block); ok {
			suggestions = append(suggestions, s)
		}
	}
	return suggestions
}

// defaultSize supplies a placement box for rules that do not set one.
func defaultSize(t models.ComponentType) (w, h float64) {
	switch t {
	case models.TypeCurvedConveyor:
		return 150, 150
	case models.TypeStraightConveyor, models.TypeInclinedConveyor:
		return 200, 50
	default:
		return 30, 30
	}
}
