// handlers_project.go - Project document handlers
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/history"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/storage"
)

// ProjectHandlerImpl implements the ProjectHandler interface
type ProjectHandlerImpl struct {
	projects *project.Manager
	history  *history.Store
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *project.Manager, hist *history.Store) ProjectHandler {
	return &ProjectHandlerImpl{
		projects: projects,
		history:  hist,
	}
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *createProjectRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	return nil
}

// HandleListProjects returns summaries of all stored projects
func (h *ProjectHandlerImpl) HandleListProjects(c echo.Context) error {
	infos, err := h.projects.ListProjects()
	if err != nil {
		return NewInternalError("failed to list projects", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"projects": infos,
		"count":    len(infos),
	})
}

// HandleCreateProject creates an empty project document
func (h *ProjectHandlerImpl) HandleCreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	p, err := h.projects.CreateProject(req.Name, req.Description)
	if err != nil {
		return NewInternalError("failed to create project", err)
	}

	fmt.Printf("[Project] Created %s (%s)\n", p.ID, p.Name)
	return c.JSON(http.StatusCreated, p)
}

// HandleGetProject returns the full project document including components
func (h *ProjectHandlerImpl) HandleGetProject(c echo.Context) error {
	id := c.Param("projectId")
	if id == "" {
		return NewValidationError("projectId")
	}

	p, err := h.projects.GetProject(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", id)
		}
		return NewInternalError("failed to load project", err)
	}

	return c.JSON(http.StatusOK, p)
}

// HandleUpdateProject applies a partial update to project metadata
// and canvas settings
func (h *ProjectHandlerImpl) HandleUpdateProject(c echo.Context) error {
	id := c.Param("projectId")
	if id == "" {
		return NewValidationError("projectId")
	}

	var patch project.ProjectPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	p, err := h.projects.UpdateProject(id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", id)
		}
		return err
	}

	return c.JSON(http.StatusOK, p)
}

// HandleDeleteProject removes a project and its snapshot history
func (h *ProjectHandlerImpl) HandleDeleteProject(c echo.Context) error {
	id := c.Param("projectId")
	if id == "" {
		return NewValidationError("projectId")
	}

	if err := h.projects.DeleteProject(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", id)
		}
		return NewInternalError("failed to delete project", err)
	}

	// Clean up associated snapshots
	if h.history != nil {
		if err := h.history.DeleteForProject(id); err != nil {
			fmt.Printf("[Project] Failed to delete history for %s: %v\n", id, err)
		}
	}

	fmt.Printf("[Project] Deleted %s\n", id)
	return c.NoContent(http.StatusNoContent)
}
