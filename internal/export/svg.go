package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
)

// SVGOptions tunes the SVG document output.
type SVGOptions struct {
	// Padding is the margin added around the drawing bounds, canvas units.
	Padding float64
	// Background fills the document; empty means no background rectangle.
	Background string
	// Engine options used to rebuild bundles that are not cached.
	Engine geometry.Options
}

// WriteSVG assembles the whole project into one standalone SVG document.
// Component order follows Collect, so identical projects always serialize
// byte-identically.
func WriteSVG(w io.Writer, p *models.Project, opts SVGOptions) error {
	items := Collect(p, opts.Engine)
	box, ok := DrawingBounds(items)
	if !ok {
		box = DefaultCanvas
	}
	box = box.Pad(opts.Padding)

	sw := &svgWriter{w: w}
	sw.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sw.printf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"%s %s %s %s\">\n",
		fmtF(box.Min.X), fmtF(box.Min.Y), fmtF(box.Width()), fmtF(box.Height()))
	sw.printf("  <title>%s</title>\n", escapeXML(p.Name))
	if opts.Background != "" {
		sw.printf("  <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"%s\"/>\n",
			fmtF(box.Min.X), fmtF(box.Min.Y), fmtF(box.Width()), fmtF(box.Height()), escapeXML(opts.Background))
	}

	for _, item := range items {
		sw.writeComponent(item)
	}

	sw.printf("</svg>\n")
	return sw.err
}

type svgWriter struct {
	w   io.Writer
	err error
}

func (sw *svgWriter) printf(format string, args ...interface{}) {
	if sw.err != nil {
		return
	}
	_, sw.err = fmt.Fprintf(sw.w, format, args...)
}

func (sw *svgWriter) writeComponent(item ComponentDrawing) {
	c := item.Component
	sw.printf("  <g id=\"%s\"", escapeXML(c.ID))
	if c.EquipmentID != "" {
		sw.printf(" data-equipment-id=\"%s\"", escapeXML(c.EquipmentID))
	}
	sw.printf(" data-type=\"%s\">\n", escapeXML(string(c.Type)))

	switch {
	case item.Bundle != nil:
		sw.writeBundle(item.Bundle)
	case c.Type != models.TypeLabel:
		sw.writeMarker(c)
	}
	if c.Label != "" {
		sw.writeLabel(c)
	}

	sw.printf("  </g>\n")
}

// writeBundle draws a conveyor bundle: outline paths with their passthrough
// style, then rollers, supports and accessory anchors.
func (sw *svgWriter) writeBundle(b *geometry.Bundle) {
	for _, prim := range b.Segments {
		sw.printf("    <path d=\"%s\"%s/>\n", prim.Path, styleAttrs(prim.Style))
		for _, line := range prim.Rollers {
			sw.printf("    <line x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\" stroke=\"%s\" stroke-width=\"1\"/>\n",
				fmtF(line.From.X), fmtF(line.From.Y), fmtF(line.To.X), fmtF(line.To.Y), rollerStroke(prim.Style))
		}
	}
	for _, s := range b.Supports {
		sw.printf("    <line x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\" stroke=\"#666666\" stroke-width=\"%s\"/>\n",
			fmtF(s.Position.X), fmtF(s.Position.Y), fmtF(s.Position.X), fmtF(s.Position.Y+s.Height), fmtF(s.Width))
	}
	for _, a := range b.Accessories {
		sw.printf("    <circle cx=\"%s\" cy=\"%s\" r=\"6\" class=\"accessory-%s\" fill=\"%s\"/>\n",
			fmtF(a.Position.X), fmtF(a.Position.Y), escapeXML(string(a.Type)), AccessoryColor(a.Type))
	}
}

// writeMarker draws a non-conveyor component as its envelope box.
func (sw *svgWriter) writeMarker(c *models.Component) {
	env := c.Geometry
	sw.printf("    <rect x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\"%s/>\n",
		fmtF(env.X), fmtF(env.Y), fmtF(env.Width), fmtF(env.Height), styleAttrs(componentStyle(c)))
}

func (sw *svgWriter) writeLabel(c *models.Component) {
	env := c.Geometry
	sw.printf("    <text x=\"%s\" y=\"%s\" font-size=\"12\" text-anchor=\"middle\">%s</text>\n",
		fmtF(env.X+env.Width/2), fmtF(env.Y-4), escapeXML(c.Label))
}

// styleAttrs renders the passthrough style descriptor as SVG presentation
// attributes. Unset fields emit "none" for paint and nothing for width.
func styleAttrs(s geometry.Style) string {
	var sb strings.Builder
	fill := s.Fill
	if fill == "" {
		fill = "none"
	}
	fmt.Fprintf(&sb, " fill=\"%s\"", escapeXML(fill))
	stroke := s.Stroke
	if stroke == "" {
		stroke = "none"
	}
	fmt.Fprintf(&sb, " stroke=\"%s\"", escapeXML(stroke))
	if s.StrokeWidth > 0 {
		fmt.Fprintf(&sb, " stroke-width=\"%s\"", fmtF(s.StrokeWidth))
	}
	return sb.String()
}

// rollerStroke picks the roller mark color: the outline stroke when set, a
// neutral gray otherwise.
func rollerStroke(s geometry.Style) string {
	if s.Stroke != "" {
		return escapeXML(s.Stroke)
	}
	return "#888888"
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string { return xmlReplacer.Replace(s) }
