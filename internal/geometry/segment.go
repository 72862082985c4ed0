package geometry

import "math"

// Envelope is the placement box of one conveyor instance. Rotation and scale
// are rigid transforms applied by consumers around the box center; the engine
// validates them but emits untransformed coordinates.
type Envelope struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"` // degrees
	Scale    float64 `json:"scale,omitempty"`    // uniform; zero value means 1
}

// Direction is the belt travel direction.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// ConveyorProperties is the parametric description of a conveyor. CurveRadius
// and CurveAngle are optional; absent values resolve to the documented
// defaults during segment generation.
type ConveyorProperties struct {
	Speed       float64   `json:"speed,omitempty"`
	Direction   Direction `json:"direction,omitempty"`
	BeltWidth   float64   `json:"beltWidth"`
	Angle       float64   `json:"angle,omitempty"` // incline angle, degrees
	CurveRadius *float64  `json:"curveRadius,omitempty"`
	CurveAngle  *float64  `json:"curveAngle,omitempty"`
}

// Style is passed through to output primitives, never interpreted.
type Style struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Kind selects the segment variant to generate.
type Kind string

const (
	KindStraight Kind = "straight"
	KindCurved   Kind = "curved"
	KindInclined Kind = "inclined"
)

// MinDragDistance is the drag length below which interactive callers should
// discard a draw gesture before invoking the engine. The engine itself only
// rejects exact zero-length segments.
const MinDragDistance = 10.0

// DefaultCurveAngle is the sweep applied to curved segments that do not
// specify one.
const DefaultCurveAngle = 90.0

// Segment is the resolved geometric description of one conveyor piece. The
// variant set is closed (Straight, Curved, Inclined), so a type switch over
// the three concrete types is exhaustive; the unexported method keeps other
// packages from adding a fourth.
type Segment interface {
	segment()
	// Endpoints returns the segment's start and end on the canvas. For curved
	// segments these are the outer-arc endpoints, the abutment anchors.
	Endpoints() (start, end Point)
	// Belt returns the belt width (band thickness).
	Belt() float64
}

// Straight runs in a line from Start to End.
type Straight struct {
	Start     Point
	End       Point
	BeltWidth float64
}

func (Straight) segment() {}

func (s Straight) Endpoints() (Point, Point) { return s.Start, s.End }

func (s Straight) Belt() float64 { return s.BeltWidth }

// Length returns the centerline length.
func (s Straight) Length() float64 { return s.Start.Distance(s.End) }

// Corners returns the four outline corners of the belt polygon, starting at
// the start edge offset to the positive perpendicular side and winding
// through end-positive, end-negative, start-negative.
func (s Straight) Corners() [4]Point {
	dx, dy := s.End.X-s.Start.X, s.End.Y-s.Start.Y
	length := math.Hypot(dx, dy)
	px := -dy / length * s.BeltWidth / 2
	py := dx / length * s.BeltWidth / 2
	return [4]Point{
		{s.Start.X + px, s.Start.Y + py},
		{s.End.X + px, s.End.Y + py},
		{s.End.X - px, s.End.Y - py},
		{s.Start.X - px, s.Start.Y - py},
	}
}

// Inclined is straight geometry carrying a slope tag. The tag changes nothing
// in the outline math; support placement reads it to give the two legs their
// different heights, and exporters map it to the inclined component type.
type Inclined struct {
	Straight
	InclineAngle float64 // degrees, informational
}

func (Inclined) segment() {}

// Curved sweeps Angle degrees clockwise around Center at outer radius Radius.
// Start and End are the outer-arc endpoints. The canonical frame puts the
// entry at the top of the circle (270 degrees) so a 90 degree sweep occupies
// the top-right quadrant of the envelope with its flat faces on the top and
// right edges.
type Curved struct {
	Start     Point
	End       Point
	BeltWidth float64
	Center    Point
	Radius    float64
	Angle     float64 // sweep magnitude in degrees, always positive
}

func (Curved) segment() {}

func (c Curved) Endpoints() (Point, Point) { return c.Start, c.End }

func (c Curved) Belt() float64 { return c.BeltWidth }

// InnerRadius returns the inner-arc radius after the documented floor:
// max(Radius - BeltWidth, 1). Thickness greater than the outer radius clamps
// rather than erroring; see Clamped.
func (c Curved) InnerRadius() float64 {
	r := c.Radius - c.BeltWidth
	if r < 1 {
		r = 1
	}
	return r
}

// Clamped reports whether InnerRadius hit its floor, i.e. the requested belt
// no longer fits inside the outer radius.
func (c Curved) Clamped() bool {
	return c.Radius-c.BeltWidth < 1
}

// entry angle of the canonical frame: the top of the circle.
const canonicalEntryDeg = 270.0

func (c Curved) angles() (start, end float64) {
	start = Radians(canonicalEntryDeg)
	return start, start + Radians(c.Angle)
}

// ResolveSegment turns an envelope plus conveyor properties into one resolved
// Segment of the requested kind. Defaults: a curved segment missing
// CurveRadius takes min(width, height)/2, a missing CurveAngle takes 90.
// Start and end points come from the envelope's diagonal corners; callers
// that drew the conveyor from two canvas points should build the Straight or
// Inclined value directly.
func ResolveSegment(env Envelope, props ConveyorProperties, kind Kind) (Segment, error) {
	if err := validateInputs(env, props); err != nil {
		return nil, err
	}
	switch kind {
	case KindStraight:
		return resolveStraight(env, props)
	case KindInclined:
		s, err := resolveStraight(env, props)
		if err != nil {
			return nil, err
		}
		return Inclined{Straight: s, InclineAngle: props.Angle}, nil
	case KindCurved:
		return resolveCurved(env, props)
	default:
		return nil, invalidInput("kind", "unknown segment kind "+string(kind))
	}
}

func resolveStraight(env Envelope, props ConveyorProperties) (Straight, error) {
	start := Pt(env.X, env.Y)
	end := Pt(env.X+env.Width, env.Y+env.Height)
	if start == end {
		return Straight{}, invalidInput("length", "is zero; segment has no direction")
	}
	return Straight{Start: start, End: end, BeltWidth: props.BeltWidth}, nil
}

func resolveCurved(env Envelope, props ConveyorProperties) (Curved, error) {
	radius := math.Min(env.Width, env.Height) / 2
	if props.CurveRadius != nil {
		radius = *props.CurveRadius
	}
	if radius <= 0 {
		return Curved{}, invalidInput("curveRadius", "must resolve to a positive value")
	}
	angle := DefaultCurveAngle
	if props.CurveAngle != nil {
		angle = math.Abs(*props.CurveAngle)
	}
	if angle <= 0 || angle >= 360 {
		return Curved{}, invalidInput("curveAngle", "must lie in (0, 360)")
	}
	c := Curved{
		BeltWidth: props.BeltWidth,
		Center:    Pt(env.X+env.Width/2, env.Y+env.Height/2),
		Radius:    radius,
		Angle:     angle,
	}
	a0, a1 := c.angles()
	c.Start = PointOnCircle(c.Center, c.Radius, a0)
	c.End = PointOnCircle(c.Center, c.Radius, a1)
	return c, nil
}

func validateInputs(env Envelope, props ConveyorProperties) error {
	if env.Width < 0 {
		return invalidInput("width", "must not be negative")
	}
	if env.Height < 0 {
		return invalidInput("height", "must not be negative")
	}
	if env.Scale < 0 {
		return invalidInput("scale", "must be positive")
	}
	if props.BeltWidth <= 0 {
		return invalidInput("beltWidth", "must be positive")
	}
	return nil
}
