// handlers_component.go - Component handlers
package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/storage"
)

// ComponentHandlerImpl implements the ComponentHandler interface
type ComponentHandlerImpl struct {
	projects  *project.Manager
	broadcast Broadcaster
}

// NewComponentHandler creates a new component handler
func NewComponentHandler(projects *project.Manager, broadcast Broadcaster) ComponentHandler {
	return &ComponentHandlerImpl{
		projects:  projects,
		broadcast: broadcast,
	}
}

func validComponentType(t models.ComponentType) bool {
	switch t {
	case models.TypeStraightConveyor, models.TypeCurvedConveyor, models.TypeInclinedConveyor,
		models.TypeMotor, models.TypeSensor, models.TypeEmergencyStop, models.TypeLabel:
		return true
	default:
		return false
	}
}

func (h *ComponentHandlerImpl) notify(projectID, event string, payload interface{}) {
	if h.broadcast != nil {
		h.broadcast.NotifyProject(projectID, event, payload)
	}
}

// HandleListComponents returns the project's components ordered by layer,
// matching the draw order of the exporters
func (h *ComponentHandlerImpl) HandleListComponents(c echo.Context) error {
	projectID := c.Param("projectId")
	if projectID == "" {
		return NewValidationError("projectId")
	}

	p, err := h.projects.GetProject(projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", projectID)
		}
		return NewInternalError("failed to load project", err)
	}

	components := make([]*models.Component, 0, len(p.Components))
	for _, comp := range p.Components {
		components = append(components, comp)
	}
	sort.Slice(components, func(i, j int) bool {
		a, b := components[i], components[j]
		if a.Layer != b.Layer {
			return a.Layer < b.Layer
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"components": components,
		"count":      len(components),
	})
}

// HandleAddComponent creates a component from the posted spec. The server
// assigns the id and recomputes the drawing before responding.
func (h *ComponentHandlerImpl) HandleAddComponent(c echo.Context) error {
	projectID := c.Param("projectId")
	if projectID == "" {
		return NewValidationError("projectId")
	}

	var spec models.Component
	if err := c.Bind(&spec); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if !validComponentType(spec.Type) {
		return NewValidationError("type")
	}

	comp, err := h.projects.AddComponent(projectID, spec)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", projectID)
		}
		// Engine rejections map to VALIDATION_ERROR centrally
		return err
	}

	h.notify(projectID, "component:added", comp)
	return c.JSON(http.StatusCreated, comp)
}

// HandleGetComponent returns a single component with its cached drawing
func (h *ComponentHandlerImpl) HandleGetComponent(c echo.Context) error {
	projectID := c.Param("projectId")
	componentID := c.Param("componentId")
	if componentID == "" {
		return NewValidationError("componentId")
	}

	comp, err := h.projects.GetComponent(projectID, componentID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, comp)
}

// HandleUpdateComponent applies a partial update. Geometry and property
// changes rebuild the drawing; locked components reject edits with 409.
func (h *ComponentHandlerImpl) HandleUpdateComponent(c echo.Context) error {
	projectID := c.Param("projectId")
	componentID := c.Param("componentId")
	if componentID == "" {
		return NewValidationError("componentId")
	}

	var patch project.ComponentPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	comp, err := h.projects.UpdateComponent(projectID, componentID, patch)
	if err != nil {
		return err
	}

	h.notify(projectID, "component:updated", comp)
	return c.JSON(http.StatusOK, comp)
}

// HandleDeleteComponent removes a component from the project
func (h *ComponentHandlerImpl) HandleDeleteComponent(c echo.Context) error {
	projectID := c.Param("projectId")
	componentID := c.Param("componentId")
	if componentID == "" {
		return NewValidationError("componentId")
	}

	if err := h.projects.DeleteComponent(projectID, componentID); err != nil {
		return err
	}

	h.notify(projectID, "component:removed", map[string]string{"id": componentID})
	return c.NoContent(http.StatusNoContent)
}

// HandleDuplicateComponent clones a component with a small canvas offset
func (h *ComponentHandlerImpl) HandleDuplicateComponent(c echo.Context) error {
	projectID := c.Param("projectId")
	componentID := c.Param("componentId")
	if componentID == "" {
		return NewValidationError("componentId")
	}

	comp, err := h.projects.DuplicateComponent(projectID, componentID)
	if err != nil {
		return err
	}

	h.notify(projectID, "component:added", comp)
	return c.JSON(http.StatusCreated, comp)
}
