// Package export serializes layout projects into the formats downstream
// tooling consumes: a standalone SVG document, an Ignition Perspective view
// definition and an Ignition Vision window definition. Exporters are thin
// consumers of the geometry engine's output; no geometry math happens here.
package export

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/pathdata"
)

// Format names an export output format.
type Format string

const (
	FormatSVG         Format = "svg"
	FormatPerspective Format = "perspective"
	FormatVision      Format = "vision"
	FormatPNG         Format = "png"
)

// ParseFormat resolves a format name, case-sensitively, the way the CLI and
// the export endpoints receive it.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSVG, FormatPerspective, FormatVision, FormatPNG:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// DefaultCanvas sizes the output when a project has nothing to draw.
var DefaultCanvas = pathdata.Rect{Max: geometry.Pt(800, 600)}

// AccessoryColor is the marker palette shared by every output format.
func AccessoryColor(t geometry.AccessoryType) string {
	switch t {
	case geometry.AccessoryMotor:
		return "#ffd54f"
	case geometry.AccessorySensor:
		return "#4fc3f7"
	case geometry.AccessoryEmergencyStop:
		return "#e53935"
	default:
		return "#9e9e9e"
	}
}

// ComponentDrawing pairs a component with its resolved drawing bundle.
// Bundle is nil for non-conveyor components and for components whose
// geometry the engine rejected; exporters fall back to envelope markers.
type ComponentDrawing struct {
	Component *models.Component
	Bundle    *geometry.Bundle
}

// Collect resolves the drawing bundle of every visible component, in a
// deterministic order: layer, then name, then ID. Components with a cached
// bundle keep it; conveyors without one are rebuilt with opts so exports
// of freshly restored projects do not lose their outlines.
func Collect(p *models.Project, opts geometry.Options) []ComponentDrawing {
	items := make([]ComponentDrawing, 0, len(p.Components))
	for _, c := range p.Components {
		if !c.Visible {
			continue
		}
		item := ComponentDrawing{Component: c, Bundle: c.Drawing}
		if item.Bundle == nil {
			if kind, ok := models.KindForType(c.Type); ok {
				o := opts
				o.Accessories = c.Accessories
				if bundle, err := geometry.Build(c.Geometry, c.Properties, c.Style, kind, o); err == nil {
					item.Bundle = bundle
				}
			}
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].Component, items[j].Component
		if a.Layer != b.Layer {
			return a.Layer < b.Layer
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return items
}

// DrawingBounds computes the tight bounding box over every drawable item:
// outline paths with their arc bulges, roller and support lines, accessory
// anchors, and the envelopes of marker components. ok is false for a layout
// with nothing to draw.
func DrawingBounds(items []ComponentDrawing) (pathdata.Rect, bool) {
	var (
		acc pathdata.Rect
		any bool
	)
	add := func(r pathdata.Rect) {
		if !any {
			acc, any = r, true
		} else {
			acc = acc.Union(r)
		}
	}
	point := func(pt geometry.Point) {
		add(pathdata.Rect{Min: pt, Max: pt})
	}

	for _, item := range items {
		if item.Bundle == nil {
			env := item.Component.Geometry
			add(pathdata.Rect{
				Min: geometry.Pt(env.X, env.Y),
				Max: geometry.Pt(env.X+env.Width, env.Y+env.Height),
			})
			continue
		}
		for _, prim := range item.Bundle.Segments {
			if b, err := pathdata.BoundsOf(prim.Path); err == nil {
				add(b)
			}
			for _, line := range prim.Rollers {
				point(line.From)
				point(line.To)
			}
		}
		for _, s := range item.Bundle.Supports {
			point(s.Position)
			point(s.Position.Translate(0, s.Height))
		}
		for _, a := range item.Bundle.Accessories {
			point(a.Position)
		}
	}
	return acc, any
}

// fmtF formats a coordinate with the shortest decimal form that round-trips,
// matching the engine's path formatting so exported numbers agree with the
// embedded path strings.
func fmtF(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
