package models

import (
	"time"

	"github.com/layout-studio/backend/internal/geometry"
)

// ComponentType identifies what a component represents on the canvas.
type ComponentType string

const (
	TypeStraightConveyor ComponentType = "straight_conveyor"
	TypeCurvedConveyor   ComponentType = "curved_conveyor"
	TypeInclinedConveyor ComponentType = "inclined_conveyor"
	TypeMotor            ComponentType = "motor"
	TypeSensor           ComponentType = "sensor"
	TypeEmergencyStop    ComponentType = "emergency_stop"
	TypeLabel            ComponentType = "label"
)

// KindForType maps conveyor component types to the geometry kind the engine
// builds for them. ok is false for non-conveyor types, which carry no belt
// geometry of their own.
func KindForType(t ComponentType) (kind geometry.Kind, ok bool) {
	switch t {
	case TypeStraightConveyor:
		return geometry.KindStraight, true
	case TypeCurvedConveyor:
		return geometry.KindCurved, true
	case TypeInclinedConveyor:
		return geometry.KindInclined, true
	default:
		return "", false
	}
}

// IsConveyor reports whether the type renders belt geometry.
func IsConveyor(t ComponentType) bool {
	_, ok := KindForType(t)
	return ok
}

// Component is a single placed element of a layout: a conveyor run, an
// accessory marker or a text label. Drawing caches the engine output for the
// current geometry and properties; the project manager refreshes it on every
// mutation, so readers may use it without rebuilding.
type Component struct {
	ID          string                      `json:"id"`
	ProjectID   string                      `json:"projectId"`
	Type        ComponentType               `json:"type"`
	Name        string                      `json:"name"`
	EquipmentID string                      `json:"equipmentId,omitempty"` // PLC tag binding
	Label       string                      `json:"label,omitempty"`
	Geometry    geometry.Envelope           `json:"geometry"`
	Properties  geometry.ConveyorProperties `json:"properties"`
	Style       geometry.Style              `json:"style"`
	Accessories []geometry.AccessoryRequest `json:"accessories,omitempty"`
	Layer       int                         `json:"layer,omitempty"`
	Locked      bool                        `json:"locked,omitempty"`
	Visible     bool                        `json:"visible"`
	Tags        []string                    `json:"tags,omitempty"`
	Drawing     *geometry.Bundle            `json:"drawing,omitempty"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// NewComponent creates a visible component with timestamps set.
func NewComponent(id, projectID string, t ComponentType) *Component {
	now := time.Now().UTC()
	return &Component{
		ID:        id,
		ProjectID: projectID,
		Type:      t,
		Visible:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DefaultStyle returns the canvas style applied to components created
// without an explicit one.
func DefaultStyle(t ComponentType) geometry.Style {
	switch t {
	case TypeMotor:
		return geometry.Style{Fill: "#ffd54f", Stroke: "#8d6e63", StrokeWidth: 1.5}
	case TypeSensor:
		return geometry.Style{Fill: "#4fc3f7", Stroke: "#01579b", StrokeWidth: 1.5}
	case TypeEmergencyStop:
		return geometry.Style{Fill: "#e53935", Stroke: "#7f0000", StrokeWidth: 1.5}
	case TypeLabel:
		return geometry.Style{Fill: "#333333"}
	default:
		return geometry.Style{Fill: "#e8e8e8", Stroke: "#444444", StrokeWidth: 2}
	}
}
