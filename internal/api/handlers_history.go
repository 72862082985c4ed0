// handlers_history.go - Snapshot history handlers
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/history"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/storage"
)

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	history   *history.Store
	projects  *project.Manager
	broadcast Broadcaster
}

// NewHistoryHandler creates a new history handler. A nil store disables the
// endpoints with 503 responses.
func NewHistoryHandler(hist *history.Store, projects *project.Manager, broadcast Broadcaster) HistoryHandler {
	return &HistoryHandlerImpl{
		history:   hist,
		projects:  projects,
		broadcast: broadcast,
	}
}

func (h *HistoryHandlerImpl) available() error {
	if h.history == nil {
		return NewServiceUnavailableError("snapshot history is not available")
	}
	return nil
}

// HandleListSnapshots returns snapshot headers for a project, newest first
func (h *HistoryHandlerImpl) HandleListSnapshots(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	projectID := c.Param("projectId")
	if projectID == "" {
		return NewValidationError("projectId")
	}

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			return NewValidationError("limit")
		}
		limit = parsed
	}

	snapshots, err := h.history.List(projectID, limit)
	if err != nil {
		return NewInternalError("failed to list snapshots", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

type createSnapshotRequest struct {
	Label string `json:"label"`
}

// HandleCreateSnapshot records the project's current document
func (h *HistoryHandlerImpl) HandleCreateSnapshot(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	projectID := c.Param("projectId")
	if projectID == "" {
		return NewValidationError("projectId")
	}

	var req createSnapshotRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	p, err := h.projects.GetProject(projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", projectID)
		}
		return NewInternalError("failed to load project", err)
	}

	snap, err := h.history.Record(p, req.Label)
	if err != nil {
		return NewInternalError("failed to record snapshot", err)
	}

	return c.JSON(http.StatusCreated, snap)
}

// HandleGetSnapshot returns one snapshot including its document
func (h *HistoryHandlerImpl) HandleGetSnapshot(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	id := c.Param("snapshotId")
	if id == "" {
		return NewValidationError("snapshotId")
	}

	snap, err := h.history.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("snapshot", id)
		}
		return NewInternalError("failed to load snapshot", err)
	}

	return c.JSON(http.StatusOK, snap)
}

// HandleRestoreSnapshot replaces the project document with a snapshot's,
// rebuilding every drawing
func (h *HistoryHandlerImpl) HandleRestoreSnapshot(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	id := c.Param("snapshotId")
	if id == "" {
		return NewValidationError("snapshotId")
	}

	restored, err := h.history.Restore(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("snapshot", id)
		}
		return NewInternalError("failed to restore snapshot", err)
	}

	p, err := h.projects.AdoptProject(restored)
	if err != nil {
		return NewInternalError("failed to adopt restored project", err)
	}

	if h.broadcast != nil {
		h.broadcast.NotifyProject(p.ID, "project:restored", p.Info())
	}

	fmt.Printf("[History] Restored project %s from snapshot %s\n", p.ID, id)
	return c.JSON(http.StatusOK, p)
}

type pruneHistoryRequest struct {
	Keep int `json:"keep"`
}

// HandlePruneHistory deletes all but the newest snapshots of a project
func (h *HistoryHandlerImpl) HandlePruneHistory(c echo.Context) error {
	if err := h.available(); err != nil {
		return err
	}
	projectID := c.Param("projectId")
	if projectID == "" {
		return NewValidationError("projectId")
	}

	var req pruneHistoryRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Keep < 0 {
		return NewValidationError("keep")
	}

	removed, err := h.history.Prune(projectID, req.Keep)
	if err != nil {
		return NewInternalError("failed to prune snapshots", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"removed": removed,
		"kept":    req.Keep,
	})
}
