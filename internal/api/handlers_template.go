// handlers_template.go - Component template catalog handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/project"
)

// TemplateHandlerImpl implements the TemplateHandler interface
type TemplateHandlerImpl struct {
	projects  *project.Manager
	broadcast Broadcaster
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(projects *project.Manager, broadcast Broadcaster) TemplateHandler {
	return &TemplateHandlerImpl{
		projects:  projects,
		broadcast: broadcast,
	}
}

// HandleListTemplates returns the built-in template catalog
func (h *TemplateHandlerImpl) HandleListTemplates(c echo.Context) error {
	templates := h.projects.Templates()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"templates": templates,
		"count":     len(templates),
	})
}

type applyTemplateRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandleApplyTemplate stamps a template into the project at a canvas position
func (h *TemplateHandlerImpl) HandleApplyTemplate(c echo.Context) error {
	projectID := c.Param("projectId")
	templateID := c.Param("templateId")
	if templateID == "" {
		return NewValidationError("templateId")
	}

	var req applyTemplateRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	comp, err := h.projects.ApplyTemplate(projectID, templateID, req.X, req.Y)
	if err != nil {
		return err
	}

	if h.broadcast != nil {
		h.broadcast.NotifyProject(projectID, "component:added", comp)
	}
	return c.JSON(http.StatusCreated, comp)
}
