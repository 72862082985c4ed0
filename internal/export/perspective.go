package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/layout-studio/backend/internal/geometry"
	"github.com/layout-studio/backend/internal/models"
)

// PerspectiveOptions tunes the Ignition Perspective view export.
type PerspectiveOptions struct {
	// ViewName becomes the root container name, e.g. "ConveyorView".
	ViewName string
	// TagProvider prefixes generated tag bindings; defaults to "default".
	TagProvider string
	// Timestamp overrides the generation time stamped into component meta.
	// Zero means time.Now; tests pin it for byte-stable output.
	Timestamp time.Time
	// Engine options used to rebuild bundles that are not cached.
	Engine geometry.Options
}

// PerspectiveView is an Ignition Perspective view definition: a fixed coord
// container whose children are one drawing component per layout component.
type PerspectiveView struct {
	Custom map[string]interface{} `json:"custom"`
	Params map[string]interface{} `json:"params"`
	Props  PerspectiveViewProps   `json:"props"`
	Root   PerspectiveContainer   `json:"root"`
}

type PerspectiveViewProps struct {
	DefaultSize PerspectiveSize `json:"defaultSize"`
}

type PerspectiveContainer struct {
	Type     string                 `json:"type"`
	Version  int                    `json:"version"`
	Props    map[string]interface{} `json:"props"`
	Meta     PerspectiveMeta        `json:"meta"`
	Children []PerspectiveComponent `json:"children"`
}

// PerspectiveComponent mirrors the studio's generated component structure:
// perspective.{type} with position, size, props and generation metadata.
type PerspectiveComponent struct {
	Type     string                 `json:"type"`
	Position PerspectivePoint       `json:"position"`
	Size     PerspectiveSize        `json:"size"`
	Props    map[string]interface{} `json:"props"`
	Meta     PerspectiveMeta        `json:"meta"`
}

type PerspectivePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PerspectiveSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type PerspectiveMeta struct {
	Name      string `json:"name"`
	Generated bool   `json:"generated,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// BuildPerspectiveView assembles the project into a Perspective view
// definition. Geometry travels as SVG path strings inside component props so
// the Perspective drawing component can replay them verbatim.
func BuildPerspectiveView(p *models.Project, opts PerspectiveOptions) (*PerspectiveView, error) {
	if opts.ViewName == "" {
		opts.ViewName = "ConveyorView"
	}
	if opts.TagProvider == "" {
		opts.TagProvider = "default"
	}
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := ts.UTC().Format(time.RFC3339)

	items := Collect(p, opts.Engine)
	box, ok := DrawingBounds(items)
	if !ok {
		box = DefaultCanvas
	}

	view := &PerspectiveView{
		Custom: map[string]interface{}{},
		Params: map[string]interface{}{},
		Props: PerspectiveViewProps{
			DefaultSize: PerspectiveSize{Width: box.Max.X, Height: box.Max.Y},
		},
		Root: PerspectiveContainer{
			Type:    "ia.container.coord",
			Version: 0,
			Props:   map[string]interface{}{"mode": "fixed"},
			Meta:    PerspectiveMeta{Name: opts.ViewName},
		},
	}
	for _, item := range items {
		view.Root.Children = append(view.Root.Children, perspectiveComponent(item, opts.TagProvider, stamp))
	}
	return view, nil
}

// WritePerspectiveJSON marshals the view with two-space indentation, the
// format Ignition's designer produces for view.json files.
func WritePerspectiveJSON(p *models.Project, opts PerspectiveOptions) ([]byte, error) {
	view, err := BuildPerspectiveView(p, opts)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(view, "", "  ")
}

func perspectiveComponent(item ComponentDrawing, provider, stamp string) PerspectiveComponent {
	c := item.Component
	env := c.Geometry
	props := map[string]interface{}{}

	if item.Bundle != nil {
		paths := make([]map[string]interface{}, 0, len(item.Bundle.Segments))
		for _, prim := range item.Bundle.Segments {
			paths = append(paths, map[string]interface{}{
				"d":     prim.Path,
				"style": styleProps(prim.Style),
			})
		}
		props["paths"] = paths
		if n := rollerCount(item.Bundle); n > 0 {
			props["rollerCount"] = n
		}
	} else {
		props["style"] = styleProps(componentStyle(c))
	}
	if c.Label != "" {
		props["label"] = c.Label
	}
	if c.EquipmentID != "" {
		props["tagPath"] = fmt.Sprintf("{[%s]Equipment/%s/value}", provider, c.EquipmentID)
	}

	return PerspectiveComponent{
		Type:     "perspective." + string(c.Type),
		Position: PerspectivePoint{X: env.X, Y: env.Y},
		Size:     PerspectiveSize{Width: env.Width, Height: env.Height},
		Props:    props,
		Meta: PerspectiveMeta{
			Name:      c.Name,
			Generated: true,
			Timestamp: stamp,
		},
	}
}

func styleProps(s geometry.Style) map[string]interface{} {
	out := map[string]interface{}{}
	if s.Fill != "" {
		out["fill"] = s.Fill
	}
	if s.Stroke != "" {
		out["stroke"] = s.Stroke
	}
	if s.StrokeWidth > 0 {
		out["strokeWidth"] = s.StrokeWidth
	}
	return out
}

func componentStyle(c *models.Component) geometry.Style {
	if c.Style != (geometry.Style{}) {
		return c.Style
	}
	return models.DefaultStyle(c.Type)
}

func rollerCount(b *geometry.Bundle) int {
	n := 0
	for _, prim := range b.Segments {
		n += len(prim.Rollers)
	}
	return n
}
