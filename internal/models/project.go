package models

import "time"

// CanvasSettings holds per-project editor state that travels with the layout.
type CanvasSettings struct {
	GridSize   float64 `json:"gridSize"`
	SnapToGrid bool    `json:"snapToGrid"`
	ShowGrid   bool    `json:"showGrid"`
	Zoom       float64 `json:"zoom"`
	OffsetX    float64 `json:"offsetX"`
	OffsetY    float64 `json:"offsetY"`
}

// DefaultCanvasSettings returns the canvas state for a fresh project.
func DefaultCanvasSettings() CanvasSettings {
	return CanvasSettings{GridSize: 10, SnapToGrid: true, ShowGrid: true, Zoom: 1}
}

// Project is one conveyor layout: components keyed by ID plus canvas state.
type Project struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Components  map[string]*Component `json:"components"`
	Canvas      CanvasSettings        `json:"canvas"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// NewProject creates an empty project with default canvas settings.
func NewProject(id, name string) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:         id,
		Name:       name,
		Components: make(map[string]*Component),
		Canvas:     DefaultCanvasSettings(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ComponentCount reports the number of placed components.
func (p *Project) ComponentCount() int { return len(p.Components) }

// ProjectInfo is the listing summary for a stored project.
type ProjectInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	ComponentCount int       `json:"componentCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Info returns the listing summary for the project.
func (p *Project) Info() *ProjectInfo {
	return &ProjectInfo{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		ComponentCount: p.ComponentCount(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
