// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/detect"
	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/history"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/storage"
	"github.com/layout-studio/backend/internal/upload"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Projects  *project.Manager
	Store     storage.Store
	UploadMgr *upload.Manager
	DetectMgr *detect.Manager
	History   *history.Store
	Engine    geometry.Options
	Export    ExportSettings

	AllowFileDeletion bool
	WSMaxMessage      int64 // inbound WebSocket frame cap in bytes, 0 = unlimited
	Version           string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Project   ProjectHandler
	Component ComponentHandler
	Template  TemplateHandler
	Geometry  GeometryHandler
	Upload    UploadHandler
	Detect    DetectHandler
	Export    ExportHandler
	History   HistoryHandler
	WS        *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	ws := NewWebSocketHandler(deps.Projects, deps.Engine, deps.WSMaxMessage)
	return &Handlers{
		Health:    NewHealthHandler(deps.Version),
		Project:   NewProjectHandler(deps.Projects, deps.History),
		Component: NewComponentHandler(deps.Projects, ws),
		Template:  NewTemplateHandler(deps.Projects, ws),
		Geometry:  NewGeometryHandler(deps.Projects, deps.Engine),
		Upload:    NewUploadHandler(deps.Store, deps.UploadMgr, deps.AllowFileDeletion),
		Detect:    NewDetectHandler(deps.Store, deps.DetectMgr, deps.Projects, ws),
		Export:    NewExportHandler(deps.Projects, deps.Engine, deps.Export),
		History:   NewHistoryHandler(deps.History, deps.Projects, ws),
		WS:        ws,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)

	// Project document routes
	projectGroup := e.Group("/api/projects")
	projectGroup.GET("", handlers.Project.HandleListProjects)
	projectGroup.POST("", handlers.Project.HandleCreateProject)
	projectGroup.GET("/:projectId", handlers.Project.HandleGetProject)
	projectGroup.PUT("/:projectId", handlers.Project.HandleUpdateProject)
	projectGroup.DELETE("/:projectId", handlers.Project.HandleDeleteProject)

	// Component routes
	componentGroup := e.Group("/api/projects/:projectId/components")
	componentGroup.GET("", handlers.Component.HandleListComponents)
	componentGroup.POST("", handlers.Component.HandleAddComponent)
	componentGroup.GET("/:componentId", handlers.Component.HandleGetComponent)
	componentGroup.PATCH("/:componentId", handlers.Component.HandleUpdateComponent)
	componentGroup.DELETE("/:componentId", handlers.Component.HandleDeleteComponent)
	componentGroup.POST("/:componentId/duplicate", handlers.Component.HandleDuplicateComponent)
	componentGroup.GET("/:componentId/drawing", handlers.Geometry.HandleGetComponentGeometry)

	// Template catalog routes
	e.GET("/api/templates", handlers.Template.HandleListTemplates)
	e.POST("/api/projects/:projectId/templates/:templateId", handlers.Template.HandleApplyTemplate)

	// Drawing computation routes
	e.POST("/api/geometry/preview", handlers.Geometry.HandlePreviewGeometry)
	drawingGroup := e.Group("/api/projects/:projectId/drawings")
	drawingGroup.GET("", handlers.Geometry.HandleGetProjectGeometry)
	drawingGroup.GET("/msgpack", handlers.Geometry.HandleGetProjectGeometryMsgpack)

	// Drawing file upload routes
	uploadGroup := e.Group("/api/files")
	uploadGroup.POST("/upload", handlers.Upload.HandleUploadFile)
	uploadGroup.POST("/upload/chunk", handlers.Upload.HandleUploadChunk)
	uploadGroup.POST("/upload/complete", handlers.Upload.HandleCompleteUpload)
	uploadGroup.POST("/upload/binary", handlers.Upload.HandleUploadBinary)
	uploadGroup.GET("/recent", handlers.Upload.HandleGetRecentFiles)
	uploadGroup.GET("/jobs/:jobId", handlers.Upload.HandleUploadJobStatus)
	uploadGroup.GET("/jobs/:jobId/stream", handlers.Upload.HandleUploadJobStream)
	uploadGroup.GET("/:id", handlers.Upload.HandleGetFile)
	uploadGroup.GET("/:id/content", handlers.Upload.HandleGetFileContent)
	uploadGroup.DELETE("/:id", handlers.Upload.HandleDeleteFile)
	uploadGroup.PUT("/:id", handlers.Upload.HandleRenameFile)

	// Equipment detection routes
	detectGroup := e.Group("/api/detect")
	detectGroup.POST("", handlers.Detect.HandleStartDetection)
	detectGroup.GET("/rules", handlers.Detect.HandleGetRules)
	detectGroup.POST("/rules/upload", handlers.Detect.HandleUploadRules)
	detectGroup.GET("/:sessionId/status", handlers.Detect.HandleDetectStatus)
	detectGroup.POST("/:sessionId/keepalive", handlers.Detect.HandleDetectKeepAlive)
	detectGroup.GET("/:sessionId/progress", handlers.Detect.HandleDetectProgressStream)
	detectGroup.GET("/:sessionId/blocks", handlers.Detect.HandleDetectBlocks)
	detectGroup.POST("/:sessionId/apply", handlers.Detect.HandleApplySuggestions)

	// Export routes
	e.GET("/api/export/formats", handlers.Export.HandleListFormats)
	exportGroup := e.Group("/api/projects/:projectId/export")
	exportGroup.GET("/svg", handlers.Export.HandleExportSVG)
	exportGroup.GET("/perspective", handlers.Export.HandleExportPerspective)
	exportGroup.GET("/vision", handlers.Export.HandleExportVision)
	exportGroup.GET("/png", handlers.Export.HandleExportPNG)

	// Snapshot history routes
	historyGroup := e.Group("/api/projects/:projectId/history")
	historyGroup.GET("", handlers.History.HandleListSnapshots)
	historyGroup.POST("", handlers.History.HandleCreateSnapshot)
	historyGroup.POST("/prune", handlers.History.HandlePruneHistory)
	e.GET("/api/history/:snapshotId", handlers.History.HandleGetSnapshot)
	e.POST("/api/history/:snapshotId/restore", handlers.History.HandleRestoreSnapshot)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws", handlers.WS.HandleWS)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
