// handlers_detect.go - Equipment detection handlers
package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/detect"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/storage"
)

// DetectHandlerImpl implements the DetectHandler interface
type DetectHandlerImpl struct {
	store     storage.Store
	detectMgr *detect.Manager
	projects  *project.Manager
	broadcast Broadcaster

	mu             sync.RWMutex
	currentRulesID string
	currentRules   *models.DetectionRules
	detector       *detect.Detector
}

// NewDetectHandler creates a new detection handler
func NewDetectHandler(store storage.Store, detectMgr *detect.Manager, projects *project.Manager, broadcast Broadcaster) DetectHandler {
	return &DetectHandlerImpl{
		store:     store,
		detectMgr: detectMgr,
		projects:  projects,
		broadcast: broadcast,
	}
}

// GetCurrentRules returns the active rule set, nil when the built-in
// defaults apply
func (h *DetectHandlerImpl) GetCurrentRules() (string, *models.DetectionRules) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentRulesID, h.currentRules
}

// SetCurrentRules swaps the active rule set and rebuilds the detector
func (h *DetectHandlerImpl) SetCurrentRules(rulesID string, rules *models.DetectionRules) {
	detector, err := detect.NewDetector(rules)
	if err != nil {
		fmt.Printf("[Detect] Rejecting rules %s: %v\n", rulesID, err)
		return
	}
	h.activateRules(rulesID, rules, detector)
}

func (h *DetectHandlerImpl) activateRules(rulesID string, rules *models.DetectionRules, detector *detect.Detector) {
	h.mu.Lock()
	h.currentRulesID = rulesID
	h.currentRules = rules
	h.detector = detector
	h.mu.Unlock()
}

// currentDetector returns the detector for the active rules, nil when the
// manager's default should run
func (h *DetectHandlerImpl) currentDetector() *detect.Detector {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.detector
}

type startDetectionRequest struct {
	ProjectID string `json:"projectId"`
	FileID    string `json:"fileId"`
}

func (r *startDetectionRequest) validate() error {
	if r.ProjectID == "" {
		return NewValidationError("projectId")
	}
	if r.FileID == "" {
		return NewValidationError("fileId")
	}
	return nil
}

// HandleStartDetection extracts text blocks from an uploaded drawing and
// launches a background detection run over them
func (h *DetectHandlerImpl) HandleStartDetection(c echo.Context) error {
	var req startDetectionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	if _, err := h.projects.GetProject(req.ProjectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", req.ProjectID)
		}
		return NewInternalError("failed to load project", err)
	}

	path, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		return NewNotFoundError("file", req.FileID)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return NewInternalError("failed to read file", err)
	}

	blocks, err := extractTextBlocks(data, req.FileID)
	if err != nil {
		return NewBadRequestError("unsupported drawing content", err)
	}

	session, err := h.detectMgr.StartDetection(req.ProjectID, req.FileID, blocks, h.currentDetector())
	if err != nil {
		return NewInternalError("failed to start detection", err)
	}

	fmt.Printf("[Detect] Session %s started: %d blocks from file %s\n",
		session.ID[:8], len(blocks), req.FileID)

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"sessionId":  session.ID,
		"status":     session.Status,
		"blockCount": len(blocks),
	})
}

// extractTextBlocks sniffs the payload format: SVG documents go through the
// text extractor, anything else must be a pre-extracted block list in JSON.
func extractTextBlocks(data []byte, fileID string) ([]models.TextBlock, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return detect.ExtractSVGText(bytes.NewReader(data), fileID)
	}
	return detect.ParseBlocksJSON(bytes.NewReader(data), fileID)
}

// HandleDetectStatus returns the session state including suggestions once
// the run completed
func (h *DetectHandlerImpl) HandleDetectStatus(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	session, ok := h.detectMgr.SnapshotSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, session)
}

// HandleDetectProgressStream streams detection progress via SSE
func (h *DetectHandlerImpl) HandleDetectProgressStream(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	// Get initial session state
	session, ok := h.detectMgr.SnapshotSession(id)
	if !ok {
		sendSSEError(c, "session not found")
		return nil
	}

	// Send initial status
	sendSSEData(c, session)
	if session.Status == models.SessionStatusComplete ||
		session.Status == models.SessionStatusError {
		return nil
	}

	// Stream updates until complete or error
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			session, ok := h.detectMgr.SnapshotSession(id)
			if !ok {
				sendSSEError(c, "session not found")
				return nil
			}

			sendSSEData(c, session)

			// Stop streaming if complete or error
			if session.Status == models.SessionStatusComplete ||
				session.Status == models.SessionStatusError {
				return nil
			}

		case <-timeout.C:
			sendSSEError(c, "stream timeout")
			return nil
		}
	}
}

// HandleDetectBlocks returns the text blocks the session was started with
func (h *DetectHandlerImpl) HandleDetectBlocks(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	blocks, ok := h.detectMgr.GetBlocks(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"blocks": blocks,
		"count":  len(blocks),
	})
}

// HandleDetectKeepAlive extends session lifetime for active viewing
func (h *DetectHandlerImpl) HandleDetectKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if ok := h.detectMgr.TouchSession(id); !ok {
		return NewNotFoundError("session", id)
	}

	return c.NoContent(http.StatusNoContent)
}

type applySuggestionsRequest struct {
	ProjectID   string              `json:"projectId"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// HandleApplySuggestions materializes suggestions as components. An empty
// suggestion list applies everything the session produced.
func (h *DetectHandlerImpl) HandleApplySuggestions(c echo.Context) error {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		return NewValidationError("sessionId")
	}

	var req applySuggestionsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	session, ok := h.detectMgr.SnapshotSession(sessionID)
	if !ok {
		return NewNotFoundError("session", sessionID)
	}
	if session.Status != models.SessionStatusComplete {
		return NewConflictError("detection has not completed")
	}

	projectID := req.ProjectID
	if projectID == "" {
		projectID = session.ProjectID
	}
	suggestions := req.Suggestions
	if len(suggestions) == 0 {
		suggestions = session.Suggestions
	}

	created, skipped, err := h.projects.ApplySuggestions(projectID, suggestions)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("project", projectID)
		}
		return NewInternalError("failed to apply suggestions", err)
	}

	if h.broadcast != nil && len(created) > 0 {
		h.broadcast.NotifyProject(projectID, "suggestions:applied", created)
	}

	fmt.Printf("[Detect] Session %s applied: %d created, %d skipped\n",
		sessionID[:8], len(created), skipped)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"components": created,
		"applied":    len(created),
		"skipped":    skipped,
	})
}

// HandleGetRules returns the active detection rules; the built-in defaults
// when none were uploaded
func (h *DetectHandlerImpl) HandleGetRules(c echo.Context) error {
	rulesID, rules := h.GetCurrentRules()
	if rules == nil {
		rules = detect.DefaultRules()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"rulesId":      rulesID,
		"patternCount": len(rules.Patterns),
		"rules":        rules,
	})
}

type uploadRulesRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded YAML
}

func (r *uploadRulesRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

// HandleUploadRules validates, stores and activates a detection rule file
func (h *DetectHandlerImpl) HandleUploadRules(c echo.Context) error {
	var req uploadRulesRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := req.validate(); err != nil {
		return err
	}

	// Decode base64 content
	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	// Parse and compile before anything is stored, so a broken rule set can
	// never displace the active one
	rules, err := detect.ParseRulesFromReader(bytes.NewReader(decoded))
	if err != nil {
		return NewBadRequestError("invalid rules YAML", err)
	}
	detector, err := detect.NewDetector(rules)
	if err != nil {
		return NewBadRequestError("invalid rules pattern", err)
	}

	// Save rules file
	info, err := h.store.Save("", req.Name, bytes.NewReader(decoded))
	if err != nil {
		return NewInternalError("failed to save rules file", err)
	}

	h.activateRules(info.ID, rules, detector)

	return c.JSON(http.StatusCreated, models.RulesInfo{
		ID:           info.ID,
		Name:         info.Name,
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
		PatternCount: len(rules.Patterns),
	})
}
