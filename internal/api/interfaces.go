// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/models"
)

// ProjectHandler handles project document operations
type ProjectHandler interface {
	HandleListProjects(c echo.Context) error
	HandleCreateProject(c echo.Context) error
	HandleGetProject(c echo.Context) error
	HandleUpdateProject(c echo.Context) error
	HandleDeleteProject(c echo.Context) error
}

// ComponentHandler handles component operations within a project
type ComponentHandler interface {
	HandleListComponents(c echo.Context) error
	HandleAddComponent(c echo.Context) error
	HandleGetComponent(c echo.Context) error
	HandleUpdateComponent(c echo.Context) error
	HandleDeleteComponent(c echo.Context) error
	HandleDuplicateComponent(c echo.Context) error
}

// TemplateHandler handles the component template catalog
type TemplateHandler interface {
	HandleListTemplates(c echo.Context) error
	HandleApplyTemplate(c echo.Context) error
}

// GeometryHandler handles drawing computation operations
type GeometryHandler interface {
	HandlePreviewGeometry(c echo.Context) error
	HandleGetProjectGeometry(c echo.Context) error
	HandleGetProjectGeometryMsgpack(c echo.Context) error
	HandleGetComponentGeometry(c echo.Context) error
}

// UploadHandler handles drawing file upload operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadChunk(c echo.Context) error
	HandleCompleteUpload(c echo.Context) error
	HandleUploadBinary(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleGetFileContent(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
	HandleUploadJobStatus(c echo.Context) error
	HandleUploadJobStream(c echo.Context) error
}

// DetectHandler handles equipment detection operations
type DetectHandler interface {
	HandleStartDetection(c echo.Context) error
	HandleDetectStatus(c echo.Context) error
	HandleDetectProgressStream(c echo.Context) error
	HandleDetectBlocks(c echo.Context) error
	HandleDetectKeepAlive(c echo.Context) error
	HandleApplySuggestions(c echo.Context) error
	HandleGetRules(c echo.Context) error
	HandleUploadRules(c echo.Context) error
	GetCurrentRules() (string, *models.DetectionRules)
	SetCurrentRules(rulesID string, rules *models.DetectionRules)
}

// ExportHandler handles project export operations
type ExportHandler interface {
	HandleListFormats(c echo.Context) error
	HandleExportSVG(c echo.Context) error
	HandleExportPerspective(c echo.Context) error
	HandleExportVision(c echo.Context) error
	HandleExportPNG(c echo.Context) error
}

// HistoryHandler handles snapshot history operations
type HistoryHandler interface {
	HandleListSnapshots(c echo.Context) error
	HandleCreateSnapshot(c echo.Context) error
	HandleGetSnapshot(c echo.Context) error
	HandleRestoreSnapshot(c echo.Context) error
	HandlePruneHistory(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// Broadcaster pushes project change events to live clients. REST handlers
// call it after mutations so open editors converge without polling.
type Broadcaster interface {
	NotifyProject(projectID, event string, payload interface{})
}
