// Package geometry is the conveyor geometry engine: a pure, stateless
// translation from parametric conveyor descriptions (envelope, belt width,
// curvature, incline) into 2-D vector primitives (outline paths, roller
// marks, support-leg and accessory anchors) consumed by the canvas renderer
// and the export serializers.
//
// Coordinates are screen coordinates: x grows rightward, y grows downward,
// angles are measured in radians from the positive x axis and increase in the
// clockwise on-screen direction. Every caller shares this convention; flipping
// it would silently mirror every curved shape.
package geometry

import "math"

// Point is a position on the canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{x, y} }

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Lerp linearly interpolates from p to q; t=0 yields p, t=1 yields q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{p.X + (q.X-p.X)*t, p.Y + (q.Y-p.Y)*t}
}

// Translate returns p shifted by (dx, dy).
func (p Point) Translate(dx, dy float64) Point {
	return Point{p.X + dx, p.Y + dy}
}

// Line is a straight mark between two points (roller lines, leg centerlines).
type Line struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// PointOnCircle projects an angle onto the circle around center. A radius of
// 0 degenerates to the center itself.
func PointOnCircle(center Point, radius, angle float64) Point {
	return Point{
		X: center.X + radius*math.Cos(angle),
		Y: center.Y + radius*math.Sin(angle),
	}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
