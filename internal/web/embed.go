// Package web embeds the built layout canvas frontend so a single binary can
// be dropped onto an air-gapped line server.
package web

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed dist
var dist embed.FS

// Assets returns the canvas bundle with dist/ as its root.
func Assets() (fs.FS, error) {
	return fs.Sub(dist, "dist")
}

// Available reports whether a canvas build is embedded in this binary.
func Available() bool {
	_, err := dist.ReadFile("dist/index.html")
	return err == nil
}

// RegisterSPARoutes serves the embedded canvas under every path the API does
// not claim. Unknown paths fall back to index.html so deep links into the
// editor survive a reload. Call after the API routes are registered.
func RegisterSPARoutes(e *echo.Echo) error {
	assets, err := Assets()
	if err != nil {
		return err
	}
	server := http.FileServer(http.FS(assets))

	e.GET("/*", func(c echo.Context) error {
		name := strings.TrimPrefix(path.Clean(c.Request().URL.Path), "/")
		if name == "" || name == "." || name == "index.html" {
			// http.FileServer answers /index.html with a redirect,
			// so the root page is always served directly.
			return serveIndex(c, assets)
		}

		f, err := assets.Open(name)
		if err != nil {
			return serveIndex(c, assets)
		}
		stat, statErr := f.Stat()
		f.Close()
		if statErr != nil || stat.IsDir() {
			return serveIndex(c, assets)
		}

		server.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	return nil
}

func serveIndex(c echo.Context, assets fs.FS) error {
	f, err := assets.Open("index.html")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "canvas bundle has no index.html")
	}
	defer f.Close()

	page, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read index.html")
	}
	return c.HTMLBlob(http.StatusOK, page)
}
