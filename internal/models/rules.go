package models

// DetectionRules defines the YAML configuration that turns drawing text into
// component suggestions: regex patterns mapped to component types, plus the
// default sizing applied when a pattern gives no hints of its own.
type DetectionRules struct {
	DefaultBeltWidth float64       `json:"defaultBeltWidth" yaml:"default_belt_width"`
	MinConfidence    float64       `json:"minConfidence" yaml:"min_confidence"`
	Patterns         []PatternRule `json:"patterns" yaml:"patterns"`
}

// PatternRule matches one equipment naming convention. Higher priority rules
// are evaluated first; the first match against a text block wins.
type PatternRule struct {
	Pattern    string        `json:"pattern" yaml:"pattern"` // regular expression over the block text
	Type       ComponentType `json:"type" yaml:"type"`
	BeltWidth  float64       `json:"beltWidth,omitempty" yaml:"belt_width,omitempty"`
	CurveAngle float64       `json:"curveAngle,omitempty" yaml:"curve_angle,omitempty"` // curved conveyors only
	Width      float64       `json:"width,omitempty" yaml:"width,omitempty"`            // suggested envelope size
	Height     float64       `json:"height,omitempty" yaml:"height,omitempty"`
	Label      string        `json:"label,omitempty" yaml:"label,omitempty"` // template; $0..$9 expand to capture groups
	Priority   int           `json:"priority" yaml:"priority"`
}

// RulesInfo contains metadata about an uploaded rules file.
type RulesInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UploadedAt   string `json:"uploadedAt"`
	PatternCount int    `json:"patternCount"`
}
