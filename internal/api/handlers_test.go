// handlers_test.go - Shared test setup and project handler tests
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layout-studio/backend/internal/detect"
	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/storage"
	"github.com/layout-studio/backend/internal/upload"
)

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	projStore, err := storage.NewLocalProjectStore(filepath.Join(dir, "projects"))
	require.NoError(t, err)

	detector, err := detect.NewDetector(nil)
	require.NoError(t, err)

	return &Dependencies{
		Projects:  project.NewManager(projStore, geometry.Options{}),
		Store:     store,
		UploadMgr: upload.NewManager(filepath.Join(dir, "uploads"), store),
		DetectMgr: detect.NewManager(detector),
		Engine:    geometry.Options{},
		Export: ExportSettings{
			Padding:           20,
			PNGScale:          1,
			PNGBackground:     "#ffffff",
			PerspectivePrefix: "ConveyorView",
			VisionPrefix:      "ConveyorWindow",
		},
		AllowFileDeletion: true,
		Version:           "test",
	}
}

// newTestServer wires the full route table so tests exercise routing and
// the central error mapping exactly like production does.
func newTestServer(t *testing.T) (*echo.Echo, *Dependencies) {
	t.Helper()
	deps := newTestDeps(t)
	return newServerForDeps(deps), deps
}

// newServerForDeps is the variant for tests that tweak the dependency set
// before wiring, e.g. disabling file deletion or attaching a history store.
func newServerForDeps(deps *Dependencies) *echo.Echo {
	e := echo.New()
	SetupMiddleware(e)
	handlers := NewHandlers(deps)
	RegisterRoutes(e, handlers)
	RegisterWebSocketRoutes(e, handlers)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var apiErr APIError
	decodeJSON(t, rec, &apiErr)
	return apiErr.Code
}

func createTestProject(t *testing.T, e *echo.Echo, name string) *models.Project {
	t.Helper()
	rec := doRequest(e, http.MethodPost, "/api/projects", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var p models.Project
	decodeJSON(t, rec, &p)
	require.NotEmpty(t, p.ID)
	return &p
}

const conveyorSpec = `{
	"type": "straight_conveyor",
	"equipmentId": "CV001",
	"geometry": {"x": 0, "y": 100, "width": 300, "height": 40},
	"properties": {"beltWidth": 40}
}`

func addTestConveyor(t *testing.T, e *echo.Echo, projectID string) *models.Component {
	t.Helper()
	rec := doRequest(e, http.MethodPost, "/api/projects/"+projectID+"/components", conveyorSpec)
	require.Equal(t, http.StatusCreated, rec.Code)

	var comp models.Component
	decodeJSON(t, rec, &comp)
	require.NotEmpty(t, comp.ID)
	return &comp
}

func TestProjectLifecycle(t *testing.T) {
	e, _ := newTestServer(t)

	// 1. Empty listing
	rec := doRequest(e, http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)

	// 2. Create
	p := createTestProject(t, e, "Line A")
	assert.Equal(t, "Line A", p.Name)
	assert.Equal(t, 10.0, p.Canvas.GridSize)

	// 3. Get
	rec = doRequest(e, http.MethodGet, "/api/projects/"+p.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Line A"`)

	// 4. List shows it
	rec = doRequest(e, http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), p.ID)

	// 5. Rename
	rec = doRequest(e, http.MethodPut, "/api/projects/"+p.ID, `{"name":"Line B"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Line B"`)

	// 6. Delete
	rec = doRequest(e, http.MethodDelete, "/api/projects/"+p.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/projects/"+p.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestCreateProjectRequiresName(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodPost, "/api/projects", `{"description":"no name"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestComponentLifecycle(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")

	// 1. Add a conveyor; the server assigns id, name and drawing
	comp := addTestConveyor(t, e, p.ID)
	assert.Equal(t, models.TypeStraightConveyor, comp.Type)
	assert.NotEmpty(t, comp.Name)
	require.NotNil(t, comp.Drawing)
	assert.NotEmpty(t, comp.Drawing.Segments)

	base := "/api/projects/" + p.ID + "/components"

	// 2. Listing is layer-ordered and counts it
	rec := doRequest(e, http.MethodGet, base, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	// 3. Patch the label
	rec = doRequest(e, http.MethodPatch, base+"/"+comp.ID, `{"label":"Inbound"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"label":"Inbound"`)

	// 4. Lock, then reject a further edit with 409
	rec = doRequest(e, http.MethodPatch, base+"/"+comp.ID, `{"locked":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodPatch, base+"/"+comp.ID, `{"label":"Outbound"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, rec))

	// 5. Unlocking is allowed
	rec = doRequest(e, http.MethodPatch, base+"/"+comp.ID, `{"locked":false}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// 6. Duplicate clones with a fresh id
	rec = doRequest(e, http.MethodPost, base+"/"+comp.ID+"/duplicate", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	var clone models.Component
	decodeJSON(t, rec, &clone)
	assert.NotEqual(t, comp.ID, clone.ID)

	// 7. Delete the original
	rec = doRequest(e, http.MethodDelete, base+"/"+comp.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(e, http.MethodGet, base+"/"+comp.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddComponentRejectsBadInput(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")
	base := "/api/projects/" + p.ID + "/components"

	// Unknown type
	rec := doRequest(e, http.MethodPost, base, `{"type":"teleporter"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	// Engine rejection: conveyor without belt width
	rec = doRequest(e, http.MethodPost, base,
		`{"type":"straight_conveyor","geometry":{"width":300,"height":40}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	// Unknown project
	rec = doRequest(e, http.MethodPost, "/api/projects/nope/components", conveyorSpec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateCatalog(t *testing.T) {
	e, _ := newTestServer(t)
	p := createTestProject(t, e, "Line A")

	// 1. Catalog is non-empty
	rec := doRequest(e, http.MethodGet, "/api/templates", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Templates []*models.Template `json:"templates"`
		Count     int                `json:"count"`
	}
	decodeJSON(t, rec, &listing)
	require.NotEmpty(t, listing.Templates)

	// 2. Apply the first template at a canvas point
	templateID := listing.Templates[0].ID
	rec = doRequest(e, http.MethodPost,
		"/api/projects/"+p.ID+"/templates/"+templateID, `{"x": 40, "y": 80}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var comp models.Component
	decodeJSON(t, rec, &comp)
	assert.NotEmpty(t, comp.ID)

	// 3. Unknown template is a 404
	rec = doRequest(e, http.MethodPost,
		"/api/projects/"+p.ID+"/templates/nope", `{"x": 0, "y": 0}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doRequest(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}
