// handlers_geometry.go - Drawing computation handlers
package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/storage"
)

// GeometryHandlerImpl implements the GeometryHandler interface
type GeometryHandlerImpl struct {
	projects *project.Manager
	opts     geometry.Options
}

// NewGeometryHandler creates a new geometry handler
func NewGeometryHandler(projects *project.Manager, opts geometry.Options) GeometryHandler {
	return &GeometryHandlerImpl{
		projects: projects,
		opts:     opts,
	}
}

type previewGeometryRequest struct {
	Type        models.ComponentType        `json:"type"`
	Geometry    geometry.Envelope           `json:"geometry"`
	Properties  geometry.ConveyorProperties `json:"properties"`
	Style       geometry.Style              `json:"style"`
	Accessories []geometry.AccessoryRequest `json:"accessories,omitempty"`
}

func (r *previewGeometryRequest) validate() error {
	if !models.IsConveyor(r.Type) {
		return NewValidationError("type")
	}
	return nil
}

// dragLength is the diagonal of the drawn envelope, the same measure the
// canvas uses while the gesture is in flight.
func (r *previewGeometryRequest) dragLength() float64 {
	return math.Hypot(r.Geometry.Width, r.Geometry.Height)
}

// previewGeometryResponse carries the computed bundle plus resolution
// details the canvas overlays during a drag.
type previewGeometryResponse struct {
	Bundle  *geometry.Bundle `json:"bundle"`
	Kind    geometry.Kind    `json:"kind"`
	Clamped bool             `json:"clamped,omitempty"`
}

// HandlePreviewGeometry computes a drawing bundle for an in-flight draw
// gesture without touching any project. Drags shorter than the minimum are
// rejected so the canvas can drop the gesture.
func (h *GeometryHandlerImpl) HandlePreviewGeometry(c echo.Context) error {
	var req previewGeometryRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if minDrag := h.opts.MinDrag(); req.dragLength() < minDrag {
		return NewBadRequestError(
			fmt.Sprintf("drag length %.1f below minimum %.0f", req.dragLength(), minDrag), nil)
	}

	kind, _ := models.KindForType(req.Type)
	seg, err := geometry.ResolveSegment(req.Geometry, req.Properties, kind)
	if err != nil {
		return err
	}

	opts := h.opts
	opts.Accessories = req.Accessories
	bundle, err := geometry.BuildSegment(seg, req.Style, opts)
	if err != nil {
		return err
	}

	resp := previewGeometryResponse{Bundle: bundle, Kind: kind}
	if curved, ok := seg.(geometry.Curved); ok {
		resp.Clamped = curved.Clamped()
	}
	return c.JSON(http.StatusOK, resp)
}

// projectDrawings collects the cached bundles of every conveyor component.
func (h *GeometryHandlerImpl) projectDrawings(projectID string) (map[string]*geometry.Bundle, error) {
	p, err := h.projects.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	drawings := make(map[string]*geometry.Bundle)
	for id, comp := range p.Components {
		if comp.Drawing != nil {
			drawings[id] = comp.Drawing
		}
	}
	return drawings, nil
}

// HandleGetProjectGeometry returns every cached drawing bundle keyed by
// component id
func (h *GeometryHandlerImpl) HandleGetProjectGeometry(c echo.Context) error {
	projectID := c.Param("projectId")
	if projectID == "" {
		return NewValidationError("projectId")
	}

	drawings, err := h.projectDrawings(projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", projectID)
		}
		return NewInternalError("failed to load project", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"projectId": projectID,
		"drawings":  drawings,
		"count":     len(drawings),
	})
}

// HandleGetProjectGeometryMsgpack returns the same bundle map as a
// MessagePack blob, the canvas fast path for large layouts
func (h *GeometryHandlerImpl) HandleGetProjectGeometryMsgpack(c echo.Context) error {
	projectID := c.Param("projectId")
	if projectID == "" {
		return NewValidationError("projectId")
	}

	drawings, err := h.projectDrawings(projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", projectID)
		}
		return NewInternalError("failed to load project", err)
	}

	response := map[string]interface{}{
		"projectId": projectID,
		"drawings":  drawings,
		"count":     len(drawings),
	}

	data, err := msgpack.Marshal(response)
	if err != nil {
		return NewInternalError("failed to encode drawings", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetComponentGeometry returns one component's cached bundle,
// rebuilding is never needed because the project manager refreshes the
// drawing on every mutation
func (h *GeometryHandlerImpl) HandleGetComponentGeometry(c echo.Context) error {
	projectID := c.Param("projectId")
	componentID := c.Param("componentId")
	if componentID == "" {
		return NewValidationError("componentId")
	}

	comp, err := h.projects.GetComponent(projectID, componentID)
	if err != nil {
		return err
	}
	if comp.Drawing == nil {
		return NewNotFoundError("drawing", componentID)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"componentId": comp.ID,
		"drawing":     comp.Drawing,
	})
}
