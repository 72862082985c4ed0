package models

import (
	"time"

	"github.com/layout-studio/backend/internal/geometry"
)

// Template is a reusable component preset: stamping it onto the canvas
// creates a component with these properties and style already filled in.
type Template struct {
	ID         string                      `json:"id"`
	Name       string                      `json:"name"`
	Type       ComponentType               `json:"type"`
	Properties geometry.ConveyorProperties `json:"properties"`
	Style      geometry.Style              `json:"style"`
	Width      float64                     `json:"width"`
	Height     float64                     `json:"height"`
	CreatedAt  time.Time                   `json:"createdAt"`
}
