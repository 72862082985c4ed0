package export

import (
	"encoding/xml"
	"io"

	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
)

// VisionOptions tunes the Ignition Vision window export.
type VisionOptions struct {
	// WindowName names the exported window, e.g. "ConveyorWindow".
	WindowName string
	// TagProvider prefixes generated tag paths; defaults to "default".
	TagProvider string
	// Engine options used to rebuild bundles that are not cached.
	Engine geometry.Options
}

// VisionWindow is an Ignition Vision window definition: a root container of
// one component element per layout component, carrying the same path data the
// SVG export emits.
type VisionWindow struct {
	XMLName xml.Name        `xml:"window"`
	Name    string          `xml:"name,attr"`
	Width   float64         `xml:"width,attr"`
	Height  float64         `xml:"height,attr"`
	Root    VisionContainer `xml:"root-container"`
}

type VisionContainer struct {
	Name       string            `xml:"name,attr"`
	Components []VisionComponent `xml:"component"`
}

type VisionComponent struct {
	Name        string        `xml:"name,attr"`
	Type        string        `xml:"type,attr"`
	EquipmentID string        `xml:"equipment-id,attr,omitempty"`
	TagPath     string        `xml:"tag-path,attr,omitempty"`
	X           float64       `xml:"x,attr"`
	Y           float64       `xml:"y,attr"`
	Width       float64       `xml:"width,attr"`
	Height      float64       `xml:"height,attr"`
	Paths       []VisionPath  `xml:"path,omitempty"`
	Rollers     []VisionLine  `xml:"roller,omitempty"`
	Supports    []VisionLine  `xml:"support,omitempty"`
	Label       *VisionLabel  `xml:"label,omitempty"`
}

type VisionPath struct {
	Data        string  `xml:"d,attr"`
	Fill        string  `xml:"fill,attr,omitempty"`
	Stroke      string  `xml:"stroke,attr,omitempty"`
	StrokeWidth float64 `xml:"stroke-width,attr,omitempty"`
}

type VisionLine struct {
	X1 float64 `xml:"x1,attr"`
	Y1 float64 `xml:"y1,attr"`
	X2 float64 `xml:"x2,attr"`
	Y2 float64 `xml:"y2,attr"`
}

type VisionLabel struct {
	Text string  `xml:"text,attr"`
	X    float64 `xml:"x,attr"`
	Y    float64 `xml:"y,attr"`
}

// BuildVisionWindow assembles the project into a Vision window definition.
func BuildVisionWindow(p *models.Project, opts VisionOptions) (*VisionWindow, error) {
	if opts.WindowName == "" {
		opts.WindowName = "ConveyorWindow"
	}
	if opts.TagProvider == "" {
		opts.TagProvider = "default"
	}

	items := Collect(p, opts.Engine)
	box, ok := DrawingBounds(items)
	if !ok {
		box = DefaultCanvas
	}

	win := &VisionWindow{
		Name:   opts.WindowName,
		Width:  box.Max.X,
		Height: box.Max.Y,
		Root:   VisionContainer{Name: "Root Container"},
	}
	for _, item := range items {
		win.Root.Components = append(win.Root.Components, visionComponent(item, opts.TagProvider))
	}
	return win, nil
}

// WriteVisionXML serializes the window with the standard XML header and
// two-space indentation.
func WriteVisionXML(w io.Writer, p *models.Project, opts VisionOptions) error {
	win, err := BuildVisionWindow(p, opts)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(win); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func visionComponent(item ComponentDrawing, provider string) VisionComponent {
	c := item.Component
	env := c.Geometry
	vc := VisionComponent{
		Name:        c.Name,
		Type:        string(c.Type),
		EquipmentID: c.EquipmentID,
		X:           env.X,
		Y:           env.Y,
		Width:       env.Width,
		Height:      env.Height,
	}
	if c.EquipmentID != "" {
		vc.TagPath = "[" + provider + "]Equipment/" + c.EquipmentID + "/value"
	}

	if item.Bundle != nil {
		for _, prim := range item.Bundle.Segments {
			vc.Paths = append(vc.Paths, VisionPath{
				Data:        prim.Path,
				Fill:        prim.Style.Fill,
				Stroke:      prim.Style.Stroke,
				StrokeWidth: prim.Style.StrokeWidth,
			})
			for _, line := range prim.Rollers {
				vc.Rollers = append(vc.Rollers, VisionLine{
					X1: line.From.X, Y1: line.From.Y,
					X2: line.To.X, Y2: line.To.Y,
				})
			}
		}
		for _, s := range item.Bundle.Supports {
			vc.Supports = append(vc.Supports, VisionLine{
				X1: s.Position.X, Y1: s.Position.Y,
				X2: s.Position.X, Y2: s.Position.Y + s.Height,
			})
		}
	} else {
		style := componentStyle(c)
		vc.Paths = append(vc.Paths, VisionPath{
			Data:        envelopeRectPath(env),
			Fill:        style.Fill,
			Stroke:      style.Stroke,
			StrokeWidth: style.StrokeWidth,
		})
	}
	if c.Label != "" {
		vc.Label = &VisionLabel{
			Text: c.Label,
			X:    env.X + env.Width/2,
			Y:    env.Y - 4,
		}
	}
	return vc
}

// envelopeRectPath renders an envelope as a closed rectangle path so
// non-conveyor components carry path data too.
func envelopeRectPath(env geometry.Envelope) string {
	var pb geometry.PathBuilder
	pb.MoveTo(geometry.Pt(env.X, env.Y))
	pb.LineTo(geometry.Pt(env.X+env.Width, env.Y))
	pb.LineTo(geometry.Pt(env.X+env.Width, env.Y+env.Height))
	pb.LineTo(geometry.Pt(env.X, env.Y+env.Height))
	pb.Close()
	return pb.String()
}
