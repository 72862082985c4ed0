package pathdata

import (
	"fmt"
	"math"

	"github.com/layout-studio/backend/internal/geometry"
)

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min geometry.Point `json:"min"`
	Max geometry.Point `json:"max"`
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Union returns the smallest rectangle covering both.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Min: geometry.Pt(math.Min(r.Min.X, o.Min.X), math.Min(r.Min.Y, o.Min.Y)),
		Max: geometry.Pt(math.Max(r.Max.X, o.Max.X), math.Max(r.Max.Y, o.Max.Y)),
	}
}

// Pad grows the rectangle by the margin on every side.
func (r Rect) Pad(margin float64) Rect {
	return Rect{
		Min: geometry.Pt(r.Min.X-margin, r.Min.Y-margin),
		Max: geometry.Pt(r.Max.X+margin, r.Max.Y+margin),
	}
}

// Polyline is one flattened subpath.
type Polyline struct {
	Points []geometry.Point
	Closed bool
}

// arcGeom is an arc in center form: parameter t sweeps from theta over delta,
// the point at t being (cx + rx cos t, cy + ry sin t). In screen coordinates
// a positive delta runs clockwise.
type arcGeom struct {
	cx, cy, rx, ry float64
	theta, delta   float64
}

func (g arcGeom) at(t float64) geometry.Point {
	return geometry.Pt(g.cx+g.rx*math.Cos(t), g.cy+g.ry*math.Sin(t))
}

// arcCenterForm converts an SVG endpoint arc to center form, including the
// standard radius scale-up when the endpoints lie too far apart for the
// requested radii. ok is false when the arc draws nothing: coincident
// endpoints, or a zero radius that degenerates the arc to a line.
func arcCenterForm(from, to geometry.Point, rx, ry float64, largeArc, sweep bool) (arcGeom, bool) {
	if rx == 0 || ry == 0 {
		return arcGeom{}, false
	}
	x1p := (from.X - to.X) / 2
	y1p := (from.Y - to.Y) / 2
	if x1p == 0 && y1p == 0 {
		return arcGeom{}, false
	}
	if lam := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry); lam > 1 {
		s := math.Sqrt(lam)
		rx *= s
		ry *= s
	}
	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	co := math.Sqrt(math.Max(0, num/den))
	if largeArc == sweep {
		co = -co
	}
	cxp := co * rx * y1p / ry
	cyp := -co * ry * x1p / rx

	theta := math.Atan2((y1p-cyp)/ry, (x1p-cxp)/rx)
	delta := math.Atan2((-y1p-cyp)/ry, (-x1p-cxp)/rx) - theta
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}
	return arcGeom{
		cx:    cxp + (from.X+to.X)/2,
		cy:    cyp + (from.Y+to.Y)/2,
		rx:    rx,
		ry:    ry,
		theta: theta,
		delta: delta,
	}, true
}

type rectAcc struct {
	r   Rect
	any bool
}

func (a *rectAcc) add(p geometry.Point) {
	if !a.any {
		a.r = Rect{Min: p, Max: p}
		a.any = true
		return
	}
	a.r.Min.X = math.Min(a.r.Min.X, p.X)
	a.r.Min.Y = math.Min(a.r.Min.Y, p.Y)
	a.r.Max.X = math.Max(a.r.Max.X, p.X)
	a.r.Max.Y = math.Max(a.r.Max.Y, p.Y)
}

// Bounds computes the tight bounding box of the path. Arc bulges count: the
// box covers the axis extrema of every arc, not just its endpoints.
func (p *Path) Bounds() (Rect, error) {
	var (
		acc   rectAcc
		cur   geometry.Point
		begun bool
	)
	for _, cmd := range p.Commands {
		switch {
		case cmd.Move != nil:
			cur = cmd.Move.To.point()
			begun = true
			acc.add(cur)
		case cmd.Line != nil:
			if !begun {
				return Rect{}, fmt.Errorf("line command before initial move")
			}
			cur = cmd.Line.To.point()
			acc.add(cur)
		case cmd.Arc != nil:
			if !begun {
				return Rect{}, fmt.Errorf("arc command before initial move")
			}
			if err := cmd.Arc.validate(); err != nil {
				return Rect{}, err
			}
			to := cmd.Arc.To.point()
			acc.add(to)
			g, ok := arcCenterForm(cur, to, math.Abs(cmd.Arc.RadiusX), math.Abs(cmd.Arc.RadiusY), cmd.Arc.LargeArc == 1, cmd.Arc.Sweep == 1)
			if ok {
				arcExtrema(g, acc.add)
			}
			cur = to
		}
	}
	if !acc.any {
		return Rect{}, fmt.Errorf("path has no coordinates")
	}
	return acc.r, nil
}

// arcExtrema visits the points where the arc crosses an ellipse axis, the
// only interior candidates for the bounding box.
func arcExtrema(g arcGeom, visit func(geometry.Point)) {
	lo := math.Min(g.theta, g.theta+g.delta)
	hi := math.Max(g.theta, g.theta+g.delta)
	const quarter = math.Pi / 2
	for k := math.Ceil(lo / quarter); k*quarter <= hi; k++ {
		visit(g.at(k * quarter))
	}
}

// Flatten approximates the path with straight polylines. maxErr bounds the
// sagitta of each arc chord; non-positive values fall back to a quarter unit.
func (p *Path) Flatten(maxErr float64) ([]Polyline, error) {
	if maxErr <= 0 {
		maxErr = 0.25
	}
	var (
		out   []Polyline
		cur   geometry.Point
		line  *Polyline
		begun bool
	)
	open := func(at geometry.Point) {
		out = append(out, Polyline{Points: []geometry.Point{at}})
		line = &out[len(out)-1]
	}
	for _, cmd := range p.Commands {
		switch {
		case cmd.Move != nil:
			cur = cmd.Move.To.point()
			begun = true
			open(cur)
		case cmd.Line != nil:
			if !begun {
				return nil, fmt.Errorf("line command before initial move")
			}
			cur = cmd.Line.To.point()
			line.Points = append(line.Points, cur)
		case cmd.Arc != nil:
			if !begun {
				return nil, fmt.Errorf("arc command before initial move")
			}
			if err := cmd.Arc.validate(); err != nil {
				return nil, err
			}
			to := cmd.Arc.To.point()
			g, ok := arcCenterForm(cur, to, math.Abs(cmd.Arc.RadiusX), math.Abs(cmd.Arc.RadiusY), cmd.Arc.LargeArc == 1, cmd.Arc.Sweep == 1)
			if ok {
				for _, pt := range sampleArc(g, maxErr) {
					line.Points = append(line.Points, pt)
				}
			}
			// Land exactly on the written endpoint, whatever the sampling did.
			line.Points = append(line.Points, to)
			cur = to
		case cmd.Close:
			if !begun {
				return nil, fmt.Errorf("close command before initial move")
			}
			line.Closed = true
			cur = line.Points[0]
		}
	}
	return out, nil
}

// sampleArc yields interior points of the arc, excluding both endpoints. The
// step size keeps each chord's sagitta under maxErr.
func sampleArc(g arcGeom, maxErr float64) []geometry.Point {
	rmax := math.Max(g.rx, g.ry)
	if rmax == 0 {
		return nil
	}
	step := 2 * math.Sqrt(2*maxErr/rmax)
	if step > math.Pi/4 {
		step = math.Pi / 4
	}
	n := int(math.Ceil(math.Abs(g.delta) / step))
	pts := make([]geometry.Point, 0, n)
	for i := 1; i < n; i++ {
		pts = append(pts, g.at(g.theta+g.delta*float64(i)/float64(n)))
	}
	return pts
}

// BoundsOf parses every path and unions their bounding boxes. Useful for
// sizing a viewBox over a whole drawing.
func BoundsOf(paths ...string) (Rect, error) {
	var (
		acc Rect
		any bool
	)
	for _, raw := range paths {
		p, err := Parse(raw)
		if err != nil {
			return Rect{}, err
		}
		b, err := p.Bounds()
		if err != nil {
			return Rect{}, err
		}
		if !any {
			acc, any = b, true
		} else {
			acc = acc.Union(b)
		}
	}
	if !any {
		return Rect{}, fmt.Errorf("no paths given")
	}
	return acc, nil
}
