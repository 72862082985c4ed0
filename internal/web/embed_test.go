package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAvailable(t *testing.T) {
	if !Available() {
		t.Fatal("expected the placeholder canvas bundle to be embedded")
	}
}

func TestSPAFallback(t *testing.T) {
	e := echo.New()
	if err := RegisterSPARoutes(e); err != nil {
		t.Fatalf("RegisterSPARoutes: %v", err)
	}

	// The root, the index itself, and an editor deep link all land on the
	// canvas page.
	for _, target := range []string{"/", "/index.html", "/projects/abc/editor"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "<title>Layout Studio</title>") {
			t.Errorf("GET %s did not serve the canvas page", target)
		}
	}
}
