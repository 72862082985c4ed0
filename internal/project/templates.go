// templates.go - Built-in component presets
package project

import (
	"fmt"

	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/storage"
)

func floatPtr(v float64) *float64 { return &v }

// builtinTemplates are the palette presets every project starts from. IDs
// are stable so the frontend can pin favorites.
var builtinTemplates = []*models.Template{
	{
		ID:   "straight-200",
		Name: "Straight conveyor 2m",
		Type: models.TypeStraightConveyor,
		Properties: geometry.ConveyorProperties{
			Speed: 0.5, Direction: geometry.DirectionForward, BeltWidth: 40,
		},
		Width: 200, Height: 50,
	},
	{
		ID:   "straight-400",
		Name: "Straight conveyor 4m",
		Type: models.TypeStraightConveyor,
		Properties: geometry.ConveyorProperties{
			Speed: 0.5, Direction: geometry.DirectionForward, BeltWidth: 40,
		},
		Width: 400, Height: 50,
	},
	{
		ID:   "curve-90",
		Name: "90° curve",
		Type: models.TypeCurvedConveyor,
		Properties: geometry.ConveyorProperties{
			Speed: 0.5, Direction: geometry.DirectionForward, BeltWidth: 40,
			CurveAngle: floatPtr(90),
		},
		Width: 150, Height: 150,
	},
	{
		ID:   "curve-45",
		Name: "45° curve",
		Type: models.TypeCurvedConveyor,
		Properties: geometry.ConveyorProperties{
			Speed: 0.5, Direction: geometry.DirectionForward, BeltWidth: 40,
			CurveAngle: floatPtr(45),
		},
		Width: 150, Height: 150,
	},
	{
		ID:   "incline-15",
		Name: "Incline 15°",
		Type: models.TypeInclinedConveyor,
		Properties: geometry.ConveyorProperties{
			Speed: 0.4, Direction: geometry.DirectionForward, BeltWidth: 40, Angle: 15,
		},
		Width: 200, Height: 80,
	},
	{
		ID:     "motor",
		Name:   "Drive motor",
		Type:   models.TypeMotor,
		Width:  30,
		Height: 30,
	},
	{
		ID:     "sensor",
		Name:   "Photo eye",
		Type:   models.TypeSensor,
		Width:  24,
		Height: 24,
	},
	{
		ID:     "estop",
		Name:   "Emergency stop",
		Type:   models.TypeEmergencyStop,
		Width:  30,
		Height: 30,
	},
}

// Templates returns the built-in component presets.
func (m *Manager) Templates() []*models.Template {
	list := make([]*models.Template, len(builtinTemplates))
	for i, t := range builtinTemplates {
		tt := *t
		tt.Style = models.DefaultStyle(t.Type)
		list[i] = &tt
	}
	return list
}

// ApplyTemplate stamps a preset onto the canvas at the given origin and
// returns the created component.
func (m *Manager) ApplyTemplate(projectID, templateID string, x, y float64) (*models.Component, error) {
	var tmpl *models.Template
	for _, t := range builtinTemplates {
		if t.ID == templateID {
			tmpl = t
			break
		}
	}
	if tmpl == nil {
		return nil, fmt.Errorf("template %s: %w", templateID, storage.ErrNotFound)
	}

	return m.AddComponent(projectID, models.Component{
		Type:       tmpl.Type,
		Geometry:   geometry.Envelope{X: x, Y: y, Width: tmpl.Width, Height: tmpl.Height},
		Properties: tmpl.Properties,
	})
}
