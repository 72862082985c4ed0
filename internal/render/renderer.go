// Package render rasterizes layout drawings into PNG previews. It drives the
// rasterx scanline engine over the geometry bundles the same way the SVG
// export walks them, so raster and vector output always agree on what is
// drawn. Text labels are not rasterized.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"github.com/layout-studio/backend/internal/export"
	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
	"github.com/layout-studio/backend/internal/pathdata"
)

// maxImageDim caps either output dimension; a runaway scale must not turn
// into a multi-gigabyte allocation.
const maxImageDim = 8192

// Options tunes the raster output.
type Options struct {
	// Scale is device pixels per canvas unit; 0 means 1.
	Scale float64
	// Padding is the margin around the drawing bounds, canvas units.
	Padding float64
	// Background fills the image; empty or "none" leaves it transparent.
	Background string
	// MaxErr bounds the arc flattening error, canvas units; 0 means 0.25.
	MaxErr float64
	// Engine options used to rebuild bundles that are not cached.
	Engine geometry.Options
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.MaxErr <= 0 {
		o.MaxErr = 0.25
	}
	return o
}

// ProjectImage rasterizes every visible component of the project.
func ProjectImage(p *models.Project, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	items := export.Collect(p, opts.Engine)
	box, ok := export.DrawingBounds(items)
	if !ok {
		box = export.DefaultCanvas
	}
	box = box.Pad(opts.Padding)

	w := int(math.Ceil(box.Width() * opts.Scale))
	h := int(math.Ceil(box.Height() * opts.Scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w > maxImageDim || h > maxImageDim {
		return nil, fmt.Errorf("render: image %dx%d exceeds the %d pixel limit; lower the scale", w, h, maxImageDim)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg, ok := ParseHexColor(opts.Background); ok {
		draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	}

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	cv := &canvas{
		scanner: scanner,
		filler:  rasterx.NewFiller(w, h, scanner),
		dasher:  rasterx.NewDasher(w, h, scanner),
		origin:  box.Min,
		scale:   opts.Scale,
		maxErr:  opts.MaxErr,
	}
	for _, item := range items {
		cv.drawItem(item)
	}
	return img, nil
}

// ProjectPNG rasterizes the project and encodes it as PNG.
func ProjectPNG(p *models.Project, opts Options) ([]byte, error) {
	img, err := ProjectImage(p, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// canvas drives one filler/dasher pair over a shared scanner. Colors are set
// on the scanner, so each shape must be drawn and cleared before the next.
type canvas struct {
	scanner *rasterx.ScannerGV
	filler  *rasterx.Filler
	dasher  *rasterx.Dasher
	origin  geometry.Point
	scale   float64
	maxErr  float64
}

func (c *canvas) device(pt geometry.Point) fixed.Point26_6 {
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round((pt.X - c.origin.X) * c.scale * 64)),
		Y: fixed.Int26_6(math.Round((pt.Y - c.origin.Y) * c.scale * 64)),
	}
}

func (c *canvas) drawItem(item export.ComponentDrawing) {
	comp := item.Component
	if item.Bundle == nil {
		if comp.Type == models.TypeLabel {
			return
		}
		c.drawMarker(comp)
		return
	}
	for _, prim := range item.Bundle.Segments {
		c.drawPrimitive(prim)
	}
	for _, s := range item.Bundle.Supports {
		c.strokeSegment(s.Position, s.Position.Translate(0, s.Height), supportColor, s.Width)
	}
	for _, a := range item.Bundle.Accessories {
		if col, ok := ParseHexColor(export.AccessoryColor(a.Type)); ok {
			c.fillCircle(a.Position, accessoryRadius, col)
		}
	}
}

func (c *canvas) drawPrimitive(prim geometry.Primitive) {
	path, err := pathdata.Parse(prim.Path)
	if err != nil {
		return
	}
	lines, err := path.Flatten(c.maxErr)
	if err != nil {
		return
	}

	if fill, ok := ParseHexColor(prim.Style.Fill); ok {
		c.fill(lines, fill)
	}
	if stroke, ok := ParseHexColor(prim.Style.Stroke); ok {
		width := prim.Style.StrokeWidth
		if width <= 0 {
			width = 1
		}
		c.stroke(lines, stroke, width)
		for _, roller := range prim.Rollers {
			c.strokeSegment(roller.From, roller.To, stroke, 1)
		}
	}
}

func (c *canvas) drawMarker(comp *models.Component) {
	env := comp.Geometry
	style := comp.Style
	if style == (geometry.Style{}) {
		style = models.DefaultStyle(comp.Type)
	}
	outline := []pathdata.Polyline{{
		Points: []geometry.Point{
			geometry.Pt(env.X, env.Y),
			geometry.Pt(env.X+env.Width, env.Y),
			geometry.Pt(env.X+env.Width, env.Y+env.Height),
			geometry.Pt(env.X, env.Y+env.Height),
		},
		Closed: true,
	}}
	if fill, ok := ParseHexColor(style.Fill); ok {
		c.fill(outline, fill)
	}
	if stroke, ok := ParseHexColor(style.Stroke); ok {
		width := style.StrokeWidth
		if width <= 0 {
			width = 1
		}
		c.stroke(outline, stroke, width)
	}
}

func (c *canvas) fill(lines []pathdata.Polyline, col color.Color) {
	c.scanner.SetColor(col)
	for _, line := range lines {
		c.feed(c.filler, line, true)
	}
	c.filler.Draw()
	c.filler.Clear()
}

func (c *canvas) stroke(lines []pathdata.Polyline, col color.Color, width float64) {
	c.setStrokeWidth(width)
	c.scanner.SetColor(col)
	for _, line := range lines {
		c.feed(c.dasher, line, line.Closed)
	}
	c.dasher.Draw()
	c.dasher.Clear()
}

func (c *canvas) strokeSegment(from, to geometry.Point, col color.Color, width float64) {
	c.setStrokeWidth(width)
	c.scanner.SetColor(col)
	c.dasher.Start(c.device(from))
	c.dasher.Line(c.device(to))
	c.dasher.Stop(false)
	c.dasher.Draw()
	c.dasher.Clear()
}

func (c *canvas) fillCircle(center geometry.Point, radius float64, col color.Color) {
	const segments = 24
	c.scanner.SetColor(col)
	for i := 0; i <= segments; i++ {
		angle := float64(i) / segments * 2 * math.Pi
		pt := c.device(geometry.Pt(center.X+radius*math.Cos(angle), center.Y+radius*math.Sin(angle)))
		if i == 0 {
			c.filler.Start(pt)
		} else {
			c.filler.Line(pt)
		}
	}
	c.filler.Stop(true)
	c.filler.Draw()
	c.filler.Clear()
}

func (c *canvas) setStrokeWidth(width float64) {
	c.dasher.SetStroke(
		fixed.Int26_6(math.Round(width*c.scale*64)), fixed.Int26_6(4*64),
		rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round, nil, 0)
}

func (c *canvas) feed(adder rasterx.Adder, line pathdata.Polyline, close bool) {
	if len(line.Points) == 0 {
		return
	}
	adder.Start(c.device(line.Points[0]))
	for _, pt := range line.Points[1:] {
		adder.Line(c.device(pt))
	}
	adder.Stop(close)
}

const accessoryRadius = 6.0

var supportColor = color.NRGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}

// ParseHexColor reads #rgb, #rrggbb and #rrggbbaa triplets, the only forms
// the style layer produces. "", "none" and malformed strings report ok=false.
func ParseHexColor(s string) (color.NRGBA, bool) {
	if len(s) == 0 || s == "none" || s[0] != '#' {
		return color.NRGBA{}, false
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		r, ok1 := nibble(hex[0])
		g, ok2 := nibble(hex[1])
		b, ok3 := nibble(hex[2])
		if !ok1 || !ok2 || !ok3 {
			return color.NRGBA{}, false
		}
		return color.NRGBA{R: r * 17, G: g * 17, B: b * 17, A: 0xff}, true
	case 6, 8:
		var parts [4]uint8
		parts[3] = 0xff
		for i := 0; i < len(hex)/2; i++ {
			hi, ok1 := nibble(hex[2*i])
			lo, ok2 := nibble(hex[2*i+1])
			if !ok1 || !ok2 {
				return color.NRGBA{}, false
			}
			parts[i] = hi<<4 | lo
		}
		return color.NRGBA{R: parts[0], G: parts[1], B: parts[2], A: parts[3]}, true
	default:
		return color.NRGBA{}, false
	}
}

func nibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
