package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/layout-studio/backend/internal/config"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Layout Studio - conveyor layout editor backend",
	Long: `Layout Studio serves the conveyor layout editor: the drawing engine,
project storage, equipment detection, and the exporters, all in one binary
built for air-gapped line servers.

Examples:
  studio serve                                      # Start the editor server
  studio export --project line-a.json --format svg  # Headless export
  studio version                                    # Show build information`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to LayoutStudio.exe.config (default: next to the executable)")
}

// loadAppConfig resolves the configuration file, writing a default one on
// first run the way the desktop build does.
func loadAppConfig() (*config.AppConfig, string, error) {
	path := configPath
	if path == "" {
		exePath, err := os.Executable()
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve executable path: %w", err)
		}
		path = filepath.Join(filepath.Dir(exePath), "LayoutStudio.exe.config")
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}
