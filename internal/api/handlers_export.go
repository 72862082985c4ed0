// handlers_export.go - Project export handlers
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/layout-studio/backend/internal/export"
	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/render"
	"github.com/layout-studio/backend/internal/storage"
)

// ExportSettings carries the configured export defaults.
type ExportSettings struct {
	Padding           float64 // margin around the drawing bounds, canvas units
	PNGScale          float64
	PNGBackground     string
	PerspectivePrefix string
	VisionPrefix      string
}

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	projects *project.Manager
	engine   geometry.Options
	settings ExportSettings
}

// NewExportHandler creates a new export handler
func NewExportHandler(projects *project.Manager, engine geometry.Options, settings ExportSettings) ExportHandler {
	return &ExportHandlerImpl{
		projects: projects,
		engine:   engine,
		settings: settings,
	}
}

// HandleListFormats returns the supported export formats
func (h *ExportHandlerImpl) HandleListFormats(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"formats": []export.Format{
			export.FormatSVG,
			export.FormatPerspective,
			export.FormatVision,
			export.FormatPNG,
		},
	})
}

func (h *ExportHandlerImpl) loadProject(c echo.Context) (*models.Project, error) {
	projectID := c.Param("projectId")
	if projectID == "" {
		return nil, NewValidationError("projectId")
	}

	p, err := h.projects.GetProject(projectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError("project", projectID)
		}
		return nil, NewInternalError("failed to load project", err)
	}
	return p, nil
}

// HandleExportSVG renders the project as an SVG document
func (h *ExportHandlerImpl) HandleExportSVG(c echo.Context) error {
	p, err := h.loadProject(c)
	if err != nil {
		return err
	}

	opts := export.SVGOptions{
		Padding:    h.settings.Padding,
		Background: c.QueryParam("background"),
		Engine:     h.engine,
	}

	var buf bytes.Buffer
	if err := export.WriteSVG(&buf, p, opts); err != nil {
		return NewInternalError("failed to render SVG", err)
	}

	setDownloadHeader(c, p.Name, "svg")
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// HandleExportPerspective renders the project as an Ignition Perspective
// view.json document
func (h *ExportHandlerImpl) HandleExportPerspective(c echo.Context) error {
	p, err := h.loadProject(c)
	if err != nil {
		return err
	}

	opts := export.PerspectiveOptions{
		ViewName:    h.exportName(c, h.settings.PerspectivePrefix, p.Name),
		TagProvider: c.QueryParam("provider"),
		Engine:      h.engine,
	}

	data, err := export.WritePerspectiveJSON(p, opts)
	if err != nil {
		return NewInternalError("failed to render Perspective view", err)
	}

	setDownloadHeader(c, p.Name, "json")
	return c.Blob(http.StatusOK, "application/json", data)
}

// HandleExportVision renders the project as a Vision window XML document
func (h *ExportHandlerImpl) HandleExportVision(c echo.Context) error {
	p, err := h.loadProject(c)
	if err != nil {
		return err
	}

	opts := export.VisionOptions{
		WindowName:  h.exportName(c, h.settings.VisionPrefix, p.Name),
		TagProvider: c.QueryParam("provider"),
		Engine:      h.engine,
	}

	var buf bytes.Buffer
	if err := export.WriteVisionXML(&buf, p, opts); err != nil {
		return NewInternalError("failed to render Vision window", err)
	}

	setDownloadHeader(c, p.Name, "xml")
	return c.Blob(http.StatusOK, "application/xml", buf.Bytes())
}

// HandleExportPNG rasterizes the project to a PNG preview
func (h *ExportHandlerImpl) HandleExportPNG(c echo.Context) error {
	p, err := h.loadProject(c)
	if err != nil {
		return err
	}

	scale := h.settings.PNGScale
	if s := c.QueryParam("scale"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || parsed <= 0 {
			return NewValidationError("scale")
		}
		scale = parsed
	}
	background := h.settings.PNGBackground
	if b := c.QueryParam("background"); b != "" {
		background = b
	}

	data, err := render.ProjectPNG(p, render.Options{
		Scale:      scale,
		Padding:    h.settings.Padding,
		Background: background,
		Engine:     h.engine,
	})
	if err != nil {
		return NewBadRequestError("failed to render PNG", err)
	}

	setDownloadHeader(c, p.Name, "png")
	return c.Blob(http.StatusOK, "image/png", data)
}

// exportName resolves the output document name: an explicit ?name= wins,
// otherwise the configured prefix is joined with the project name.
func (h *ExportHandlerImpl) exportName(c echo.Context, prefix, projectName string) string {
	if name := c.QueryParam("name"); name != "" {
		return name
	}
	if prefix == "" || projectName == "" {
		return prefix
	}
	return prefix + "_" + sanitizeName(projectName)
}

// setDownloadHeader attaches a filename when the client asked for a download
func setDownloadHeader(c echo.Context, projectName, ext string) {
	if c.QueryParam("download") == "" {
		return
	}
	name := sanitizeName(projectName)
	if name == "" {
		name = "layout"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.%s"`, name, ext))
}

func sanitizeName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", "\"", "")
	return replacer.Replace(name)
}
