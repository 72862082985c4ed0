package detect

import (
	"strings"
	"testing"

	"github.com/layout-studio/backend/internal/models"
)

func TestParseRulesFromReader(t *testing.T) {
	yamlContent := `
default_belt_width: 35
min_confidence: 0.6
patterns:
  - pattern: '(?i)\bXCV[-_]?([0-9]+)\b'
    type: straight_conveyor
    belt_width: 25
    width: 180
    height: 45
    label: 'XCV-${1}'
    priority: 50
  - pattern: '(?i)\bXB[-_]?([0-9]+)\b'
    type: curved_conveyor
    curve_angle: 45
    priority: 40
`
	rules, err := ParseRulesFromReader(strings.NewReader(yamlContent))
	if err != nil {
		t.Fatalf("Failed to parse rules: %v", err)
	}
	if rules.DefaultBeltWidth != 35 {
		t.Errorf("default belt width = %v, want 35", rules.DefaultBeltWidth)
	}
	if rules.MinConfidence != 0.6 {
		t.Errorf("min confidence = %v, want 0.6", rules.MinConfidence)
	}
	if len(rules.Patterns) != 2 {
		t.Fatalf("pattern count = %d, want 2", len(rules.Patterns))
	}
	if rules.Patterns[0].Type != models.TypeStraightConveyor || rules.Patterns[0].BeltWidth != 25 {
		t.Errorf("first pattern = %+v", rules.Patterns[0])
	}
	if rules.Patterns[1].CurveAngle != 45 {
		t.Errorf("curve angle = %v, want 45", rules.Patterns[1].CurveAngle)
	}
}

func TestNewDetectorRejectsBadPattern(t *testing.T) {
	rules := &models.DetectionRules{
		Patterns: []models.PatternRule{{Pattern: "([", Type: models.TypeMotor}},
	}
	if _, err := NewDetector(rules); err == nil {
		t.Fatal("expected a compile error for an unterminated pattern")
	}
}

func TestDetectorMatchesDefaults(t *testing.T) {
	d, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}

	tests := []struct {
		text     string
		wantType models.ComponentType
		wantOK   bool
	}{
		{"CV-101", models.TypeStraightConveyor, true},
		{"conv_12 west wing", models.TypeStraightConveyor, true},
		{"CRV-7", models.TypeCurvedConveyor, true},
		{"INC-3", models.TypeInclinedConveyor, true},
		{"MTR-44", models.TypeMotor, true},
		{"PE-9", models.TypeSensor, true},
		{"E-STOP", models.TypeEmergencyStop, true},
		{"pump station", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Match(models.TextBlock{ID: "b1", Text: tt.text})
		if ok != tt.wantOK {
			t.Errorf("Match(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			continue
		}
		if ok && got.Type != tt.wantType {
			t.Errorf("Match(%q) type = %q, want %q", tt.text, got.Type, tt.wantType)
		}
	}
}

func TestDetectorSuggestionFields(t *testing.T) {
	d, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	block := models.TextBlock{ID: "b7", Text: "crv_12 spur", X: 100, Y: 50, Width: 60, Height: 12}
	s, ok := d.Match(block)
	if !ok {
		t.Fatal("expected a match")
	}
	if s.Type != models.TypeCurvedConveyor {
		t.Errorf("type = %q", s.Type)
	}
	if s.Label != "CRV-12" {
		t.Errorf("label = %q, want the expanded template CRV-12", s.Label)
	}
	if s.EquipmentID != "crv_12" {
		t.Errorf("equipment id = %q, want the matched text", s.EquipmentID)
	}
	if s.CurveAngle != 90 || s.BeltWidth != 40 {
		t.Errorf("properties = (angle %v, belt %v), want (90, 40)", s.CurveAngle, s.BeltWidth)
	}
	// Box of 150x150 centered on the block center (130, 56).
	if s.X != 130-75 || s.Y != 56-75 || s.Width != 150 || s.Height != 150 {
		t.Errorf("box = (%v, %v, %v, %v)", s.X, s.Y, s.Width, s.Height)
	}
	if s.BlockID != "b7" {
		t.Errorf("block id = %q", s.BlockID)
	}
}

func TestDetectorPriorityOrder(t *testing.T) {
	rules := &models.DetectionRules{
		DefaultBeltWidth: 40,
		Patterns: []models.PatternRule{
			{Pattern: `(?i)\bCV`, Type: models.TypeStraightConveyor, Priority: 1},
			{Pattern: `(?i)\bCV-9`, Type: models.TypeCurvedConveyor, Priority: 9},
		},
	}
	d, err := NewDetector(rules)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	s, ok := d.Match(models.TextBlock{Text: "CV-9"})
	if !ok {
		t.Fatal("expected a match")
	}
	if s.Type != models.TypeCurvedConveyor {
		t.Errorf("type = %q; the higher priority rule must win", s.Type)
	}
}

func TestDetectorConfidenceFloor(t *testing.T) {
	d, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	if _, ok := d.Match(models.TextBlock{Text: "CV-1", Confidence: 0.2}); ok {
		t.Error("low confidence block should not match")
	}
	if s, ok := d.Match(models.TextBlock{Text: "CV-1", Confidence: 0.9}); !ok || s.Confidence != 0.9 {
		t.Errorf("match = (%+v, %v), want confidence carried through", s, ok)
	}
	// Unset confidence counts as certain: SVG text has no OCR score.
	if s, ok := d.Match(models.TextBlock{Text: "CV-1"}); !ok || s.Confidence != 1 {
		t.Errorf("match = (%+v, %v), want confidence 1 for unscored blocks", s, ok)
	}
}

func TestDetectSkipsConsumedBlocks(t *testing.T) {
	d, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	blocks := []models.TextBlock{
		{ID: "a", Text: "CV-1"},
		{ID: "b", Text: "CV-2", Consumed: true},
		{ID: "c", Text: "CV-3"},
	}
	got := d.Detect(blocks)
	if len(got) != 2 {
		t.Fatalf("suggestion count = %d, want 2", len(got))
	}
	if got[0].BlockID != "a" || got[1].BlockID != "c" {
		t.Errorf("suggestions came from blocks %q and %q", got[0].BlockID, got[1].BlockID)
	}
}
