package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/layout-studio/backend/internal/export"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/render"
)

var (
	exportProjectPath string
	exportFormat      string
	exportOut         string
	exportScale       float64
	exportBackground  string
	exportViewName    string
	exportProvider    string
)

var exportExts = map[export.Format]string{
	export.FormatSVG:         "svg",
	export.FormatPerspective: "json",
	export.FormatVision:      "xml",
	export.FormatPNG:         "png",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a saved project file without starting the server",
	Long: `Render a project JSON file to SVG, Ignition Perspective JSON,
Ignition Vision XML, or PNG. Useful for build pipelines and for
regenerating HMI views after editing a layout offline.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportProjectPath, "project", "", "path to a saved project JSON file (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "svg", "output format: svg, perspective, vision, png")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: project name + format extension)")
	exportCmd.Flags().Float64Var(&exportScale, "scale", 0, "PNG pixels per canvas unit (default from config)")
	exportCmd.Flags().StringVar(&exportBackground, "background", "", "background colour override, e.g. #f0f0f0")
	exportCmd.Flags().StringVar(&exportViewName, "name", "", "view or window name override for perspective and vision")
	exportCmd.Flags().StringVar(&exportProvider, "provider", "", "tag provider for generated bindings (default \"default\")")
	_ = exportCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(exportProjectPath)
	if err != nil {
		return fmt.Errorf("failed to read project file: %w", err)
	}
	var p models.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to parse project file: %w", err)
	}
	if p.Components == nil {
		p.Components = make(map[string]*models.Component)
	}

	engine := cfg.EngineOptions()
	background := cfg.Export.PNGBackground
	if exportBackground != "" {
		background = exportBackground
	}
	scale := cfg.Export.PNGScale
	if exportScale > 0 {
		scale = exportScale
	}

	var out []byte
	switch format {
	case export.FormatSVG:
		var buf bytes.Buffer
		err = export.WriteSVG(&buf, &p, export.SVGOptions{
			Padding:    cfg.Export.Padding,
			Background: exportBackground,
			Engine:     engine,
		})
		out = buf.Bytes()
	case export.FormatPerspective:
		out, err = export.WritePerspectiveJSON(&p, export.PerspectiveOptions{
			ViewName:    documentName(cfg.Export.PerspectivePre, p.Name),
			TagProvider: exportProvider,
			Engine:      engine,
		})
	case export.FormatVision:
		var buf bytes.Buffer
		err = export.WriteVisionXML(&buf, &p, export.VisionOptions{
			WindowName:  documentName(cfg.Export.VisionPrefix, p.Name),
			TagProvider: exportProvider,
			Engine:      engine,
		})
		out = buf.Bytes()
	case export.FormatPNG:
		out, err = render.ProjectPNG(&p, render.Options{
			Scale:      scale,
			Padding:    cfg.Export.Padding,
			Background: background,
			Engine:     engine,
		})
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	path := exportOut
	if path == "" {
		path = defaultOutName(p.Name, format)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", path, len(out))
	return nil
}

// documentName mirrors the server's view naming: an explicit --name wins,
// otherwise the configured prefix is joined with the project name.
func documentName(prefix, projectName string) string {
	if exportViewName != "" {
		return exportViewName
	}
	if prefix == "" || projectName == "" {
		return prefix
	}
	return prefix + "_" + fileSafeName(projectName)
}

func defaultOutName(projectName string, format export.Format) string {
	name := fileSafeName(projectName)
	if name == "" {
		name = "layout"
	}
	return name + "." + exportExts[format]
}

func fileSafeName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", "\"", "")
	return replacer.Replace(name)
}
