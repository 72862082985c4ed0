package geometry

import "math"

// Support is a single vertical leg anchor. Position is the top of the leg on
// the belt's lower boundary; Height runs from there down to the ground line.
// Supports are ephemeral: regenerated on every build, never persisted.
type Support struct {
	Position Point   `json:"position"`
	Height   float64 `json:"height"`
	Width    float64 `json:"width"`
}

// AccessoryType tags non-structural equipment anchors.
type AccessoryType string

const (
	AccessoryMotor         AccessoryType = "motor"
	AccessorySensor        AccessoryType = "sensor"
	AccessoryEmergencyStop AccessoryType = "emergency_stop"
)

// AccessoryRequest asks for an accessory anchor at a fractional position
// along the segment centerline (0 = start, 1 = end). Out-of-range fractions
// clamp into [0, 1].
type AccessoryRequest struct {
	Type AccessoryType `json:"type"`
	At   float64       `json:"at"`
}

// Accessory is a resolved anchor: a position and a semantic tag. Appearance
// is the renderer's concern.
type Accessory struct {
	Type     AccessoryType `json:"type"`
	Position Point         `json:"position"`
}

// PlaceSupports computes the leg anchors for a segment: one near each end,
// inset along the centerline by opts.LegInset (clamped to half the segment so
// short pieces keep both legs inside). Inclined segments get two different
// heights through their sloped endpoints; no special casing is needed.
func PlaceSupports(seg Segment, opts Options) []Support {
	opts = opts.withDefaults()
	switch s := seg.(type) {
	case Straight:
		return straightSupports(s, opts)
	case Inclined:
		return straightSupports(s.Straight, opts)
	case Curved:
		return curvedSupports(s, opts)
	default:
		return nil
	}
}

func straightSupports(s Straight, opts Options) []Support {
	length := s.Length()
	if length == 0 {
		return nil
	}
	inset := math.Min(opts.LegInset, length/2)
	t := inset / length
	dx, dy := (s.End.X-s.Start.X)/length, (s.End.Y-s.Start.Y)/length
	half := s.BeltWidth / 2
	anchors := []Point{
		lowerEdgePoint(s.Start.Lerp(s.End, t), dx, dy, half),
		lowerEdgePoint(s.Start.Lerp(s.End, 1-t), dx, dy, half),
	}
	return supportsAt(anchors, opts)
}

func curvedSupports(c Curved, opts Options) []Support {
	a0, a1 := c.angles()
	centerRadius := (c.Radius + c.InnerRadius()) / 2
	inset := opts.LegInset / centerRadius
	if max := (a1 - a0) / 2; inset > max {
		inset = max
	}
	// Legs sit under the outer rim, the structural edge of a curved run.
	anchors := []Point{
		PointOnCircle(c.Center, c.Radius, a0+inset),
		PointOnCircle(c.Center, c.Radius, a1-inset),
	}
	return supportsAt(anchors, opts)
}

func supportsAt(anchors []Point, opts Options) []Support {
	supports := make([]Support, 0, len(anchors))
	for _, at := range anchors {
		ground := opts.GroundY
		if ground == 0 {
			ground = at.Y + DefaultLegDrop
		}
		height := ground - at.Y
		if height < 0 {
			height = 0
		}
		supports = append(supports, Support{Position: at, Height: height, Width: opts.LegWidth})
	}
	return supports
}

// lowerEdgePoint offsets a centerline point to the belt boundary on the
// screen-lower side, where the legs attach. Vertical runs have no lower side;
// they keep the centerline point.
func lowerEdgePoint(at Point, dirX, dirY, half float64) Point {
	px, py := -dirY, dirX
	if py < 0 {
		px, py = -px, -py
	}
	return Pt(at.X+px*half, at.Y+py*half)
}

// PlaceAccessories resolves accessory anchors along the segment centerline.
func PlaceAccessories(seg Segment, reqs []AccessoryRequest) []Accessory {
	if len(reqs) == 0 {
		return nil
	}
	out := make([]Accessory, 0, len(reqs))
	for _, req := range reqs {
		at := math.Min(math.Max(req.At, 0), 1)
		out = append(out, Accessory{Type: req.Type, Position: centerlinePoint(seg, at)})
	}
	return out
}

func centerlinePoint(seg Segment, t float64) Point {
	switch s := seg.(type) {
	case Curved:
		a0, a1 := s.angles()
		centerRadius := (s.Radius + s.InnerRadius()) / 2
		return PointOnCircle(s.Center, centerRadius, a0+(a1-a0)*t)
	default:
		start, end := seg.Endpoints()
		return start.Lerp(end, t)
	}
}
