package detect

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/layout-studio/backend/internal/models"
)

// ParseRules parses a YAML detection rules file.
func ParseRules(filePath string) (*models.DetectionRules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseRulesFromReader(file)
}

// ParseRulesFromReader parses rules from an io.Reader.
func ParseRulesFromReader(r io.Reader) (*models.DetectionRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rules models.DetectionRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}

	return &rules, nil
}

// DefaultRules returns the built-in equipment naming conventions. Projects
// can replace them by uploading their own rules file.
func DefaultRules() *models.DetectionRules {
	return &models.DetectionRules{
		DefaultBeltWidth: 40,
		MinConfidence:    0.5,
		Patterns: []models.PatternRule{
			{
				Pattern:  `(?i)\bE[-_]?STOP\b`,
				Type:     models.TypeEmergencyStop,
				Width:    30,
				Height:   30,
				Priority: 40,
			},
			{
				Pattern:    `(?i)\b(CRV|CURVE)[-_]?([0-9]+)\b`,
				Type:       models.TypeCurvedConveyor,
				CurveAngle: 90,
				Width:      150,
				Height:     150,
				Label:      "CRV-${2}",
				Priority:   30,
			},
			{
				Pattern:  `(?i)\b(INC|INCL|RAMP)[-_]?([0-9]+)\b`,
				Type:     models.TypeInclinedConveyor,
				Width:    200,
				Height:   80,
				Label:    "INC-${2}",
				Priority: 30,
			},
			{
				Pattern:  `(?i)\b(CV|CONV)[-_]?([0-9]+)\b`,
				Type:     models.TypeStraightConveyor,
				Width:    200,
				Height:   50,
				Label:    "CV-${2}",
				Priority: 20,
			},
			{
				Pattern:  `(?i)\b(MTR|MOTOR)[-_]?([0-9]+)\b`,
				Type:     models.TypeMotor,
				Width:    30,
				Height:   30,
				Priority: 10,
			},
			{
				Pattern:  `(?i)\b(PE|PROX|SEN)[-_]?([0-9]+)\b`,
				Type:     models.TypeSensor,
				Width:    24,
				Height:   24,
				Priority: 10,
			},
		},
	}
}
