package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/layout-studio/backend/internal/api"
	"github.com/layout-studio/backend/internal/config"
	"github.com/layout-studio/backend/internal/detect"
	"github.com/layout-studio/backend/internal/history"
	"github.com/layout-studio/backend/internal/project"
	"github.com/layout-studio/backend/internal/storage"
	"github.com/layout-studio/backend/internal/upload"
	"github.com/layout-studio/backend/internal/web"
)

// Maintenance cadence for finished upload jobs and detection sessions.
const (
	cleanupEvery  = 10 * time.Minute
	cleanupMaxAge = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the layout editor server",
	Long: `Start the HTTP server: the REST API, the canvas WebSocket, and,
when a frontend build is embedded, the editor itself.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	// Check if running in embedded mode (frontend built into binary)
	embeddedMode := web.Available()

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}
	projectStore, err := storage.NewLocalProjectStore(filepath.Join(cfg.GetDataDir(), "projects"))
	if err != nil {
		return fmt.Errorf("failed to initialize project storage: %w", err)
	}

	// Compile the default detection rule set
	detector, err := detect.NewDetector(nil)
	if err != nil {
		return fmt.Errorf("failed to compile default detection rules: %w", err)
	}

	projects := project.NewManager(projectStore, cfg.EngineOptions())
	uploadMgr := upload.NewManager(cfg.GetUploadDir(), fileStore)
	detectMgr := detect.NewManager(detector)

	// Snapshot history is optional; without it the endpoints answer 503.
	var snapshots *history.Store
	if cfg.Storage.EnablePersistence {
		snapshots, err = history.NewStore(
			filepath.Join(cfg.GetHistoryDir(), "history.duckdb"),
			history.Options{
				MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
				Threads:     cfg.Advanced.DuckDBThreads,
			})
		if err != nil {
			fmt.Printf("Warning: snapshot history disabled: %v\n", err)
			snapshots = nil
		} else {
			defer snapshots.Close()
		}
	}

	// Sweep finished upload jobs and detection sessions in the background
	go func() {
		ticker := time.NewTicker(cleanupEvery)
		defer ticker.Stop()
		for range ticker.C {
			uploadMgr.CleanupOldJobs(cleanupMaxAge)
			detectMgr.CleanupOldSessions(cleanupMaxAge)
		}
	}()

	deps := &api.Dependencies{
		Projects:  projects,
		Store:     fileStore,
		UploadMgr: uploadMgr,
		DetectMgr: detectMgr,
		History:   snapshots,
		Engine:    cfg.EngineOptions(),
		Export: api.ExportSettings{
			Padding:           cfg.Export.Padding,
			PNGScale:          cfg.Export.PNGScale,
			PNGBackground:     cfg.Export.PNGBackground,
			PerspectivePrefix: cfg.Export.PerspectivePre,
			VisionPrefix:      cfg.Export.VisionPrefix,
		},
		AllowFileDeletion: cfg.Security.AllowFileDeletion,
		WSMaxMessage:      cfg.Advanced.WebSocketMaxMessageSize,
		Version:           Version,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasSuffix(path, "/status") ||
				strings.HasSuffix(path, "/stream") ||
				path == "/health" ||
				!strings.HasPrefix(path, "/api")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/stream") ||
				strings.Contains(path, "/upload") ||
				path == "/api/ws" ||
				c.Request().Header.Get("Accept") == "text/event-stream"
		},
		ErrorMessage: "Request timeout - operation took too long",
	}))

	// Compression middleware. PNG output and the live streams stay raw.
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/api/ws" ||
				strings.HasSuffix(path, "/export/png") ||
				c.Request().Header.Get("Accept") == "text/event-stream"
		},
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		if embeddedMode {
			// In embedded mode, use config settings
			origins := strings.Split(cfg.Server.AllowOrigins, ",")
			for i := range origins {
				origins[i] = strings.TrimSpace(origins[i])
			}
			if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
				origins = []string{"*"}
			}
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: origins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			}))
		} else {
			// Development mode - only allow the local dev servers
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: []string{
					"http://localhost:5173", "http://127.0.0.1:5173",
					"http://localhost:3000", "http://127.0.0.1:3000",
				},
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		}
	}

	handlers := api.NewHandlers(deps)
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterSPARoutes(e); err != nil {
			fmt.Printf("Warning: failed to register frontend routes: %v\n", err)
		} else {
			fmt.Println("Serving embedded frontend from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, cfgPath, embeddedMode)

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}

// printBanner prints the startup banner
func printBanner(cfg *config.AppConfig, cfgPath string, embedded bool) {
	mode := "Development"
	if embedded {
		mode = "Air-Gapped (Embedded)"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Layout Studio Server                            ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", cfgPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embedded {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}
