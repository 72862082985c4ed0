// Package pathdata parses the SVG path strings produced by the geometry
// engine back into structured form, and derives bounding boxes and flattened
// polylines from them. Exporters use the bounds to size viewBoxes; the PNG
// renderer consumes the polylines.
//
// The grammar covers the absolute M, L, A and Z commands, the full command
// vocabulary of the engine. Arc rotation must be zero.
package pathdata

import (
	"fmt"

	"github.com/alecthomas/participle/v2"

	"github.com/layout-studio/backend/internal/geometry"
)

// Path is the parsed command list of one path attribute.
type Path struct {
	Commands []*Command `parser:"@@+"`
}

// Command is one drawing command. Exactly one field is set.
type Command struct {
	Move  *Move `parser:"  @@"`
	Line  *Line `parser:"| @@"`
	Arc   *Arc  `parser:"| @@"`
	Close bool  `parser:"| @ClosePath"`
}

// Move lifts the pen to an absolute position and starts a subpath.
type Move struct {
	To Coord `parser:"MoveTo @@"`
}

// Line draws a straight edge to an absolute position.
type Line struct {
	To Coord `parser:"LineTo @@"`
}

// Arc draws an elliptical arc to an absolute position, in the SVG endpoint
// form: radii, axis rotation, the large-arc and sweep flags, then the target.
type Arc struct {
	RadiusX  float64 `parser:"ArcTo @Number"`
	RadiusY  float64 `parser:"@Number"`
	Rotation float64 `parser:"@Number"`
	LargeArc int     `parser:"@Number"`
	Sweep    int     `parser:"@Number"`
	To       Coord   `parser:"@@"`
}

// Coord is an absolute x, y pair.
type Coord struct {
	X float64 `parser:"@Number"`
	Y float64 `parser:"@Number"`
}

func (c Coord) point() geometry.Point { return geometry.Pt(c.X, c.Y) }

var parser = participle.MustBuild[Path](
	participle.Lexer(pathLexer),
	participle.Elide("Whitespace"),
)

// Parse parses one path attribute string.
func Parse(input string) (*Path, error) {
	path, err := parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse path data: %w", err)
	}
	return path, nil
}

func (a *Arc) validate() error {
	if a.Rotation != 0 {
		return fmt.Errorf("arc rotation %v not supported", a.Rotation)
	}
	if a.LargeArc != 0 && a.LargeArc != 1 {
		return fmt.Errorf("arc large-arc flag must be 0 or 1, got %d", a.LargeArc)
	}
	if a.Sweep != 0 && a.Sweep != 1 {
		return fmt.Errorf("arc sweep flag must be 0 or 1, got %d", a.Sweep)
	}
	return nil
}
