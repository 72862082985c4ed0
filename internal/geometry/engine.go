package geometry

// Engine defaults, applied by Options.withDefaults where the caller leaves a
// knob at zero. Canvas units throughout.
const (
	DefaultRollerSpacing = 30.0
	DefaultLegInset      = 12.0
	DefaultLegWidth      = 6.0
	DefaultLegDrop       = 40.0
)

// Options tunes the auxiliary output of a build. The zero value means "use
// the defaults"; a negative RollerSpacing suppresses roller marks entirely.
// GroundY places the support ground line; zero drops legs DefaultLegDrop
// below their anchors instead.
type Options struct {
	RollerSpacing float64
	LegInset      float64
	LegWidth      float64
	GroundY       float64
	// MinDragDistance overrides the MinDragDistance constant for
	// interactive callers; zero keeps the constant.
	MinDragDistance float64
	Accessories     []AccessoryRequest
}

// MinDrag returns the interactive drag floor in canvas units.
func (o Options) MinDrag() float64 {
	if o.MinDragDistance > 0 {
		return o.MinDragDistance
	}
	return MinDragDistance
}

func (o Options) withDefaults() Options {
	if o.RollerSpacing == 0 {
		o.RollerSpacing = DefaultRollerSpacing
	}
	if o.LegInset == 0 {
		o.LegInset = DefaultLegInset
	}
	if o.LegWidth == 0 {
		o.LegWidth = DefaultLegWidth
	}
	return o
}

// SegmentRecord is the serialized form of a Segment, tagged by kind so
// consumers can dispatch without knowing the engine's concrete types.
type SegmentRecord struct {
	Kind         Kind    `json:"kind"`
	Start        Point   `json:"start"`
	End          Point   `json:"end"`
	BeltWidth    float64 `json:"beltWidth"`
	CurveCenter  *Point  `json:"curveCenter,omitempty"`
	CurveRadius  float64 `json:"curveRadius,omitempty"`
	CurveAngle   float64 `json:"curveAngle,omitempty"`
	InclineAngle float64 `json:"inclineAngle,omitempty"`
}

// Record flattens a Segment into its tagged serialized form.
func Record(seg Segment) SegmentRecord {
	switch s := seg.(type) {
	case Straight:
		return SegmentRecord{Kind: KindStraight, Start: s.Start, End: s.End, BeltWidth: s.BeltWidth}
	case Inclined:
		return SegmentRecord{Kind: KindInclined, Start: s.Start, End: s.End, BeltWidth: s.BeltWidth, InclineAngle: s.InclineAngle}
	case Curved:
		center := s.Center
		return SegmentRecord{
			Kind: KindCurved, Start: s.Start, End: s.End, BeltWidth: s.BeltWidth,
			CurveCenter: &center, CurveRadius: s.Radius, CurveAngle: s.Angle,
		}
	default:
		return SegmentRecord{}
	}
}

// Primitive pairs a resolved segment with its drawable geometry: the closed
// outline path, the polygon corners for straight runs, roller marks and the
// passthrough style. Clamped flags curved primitives whose inner radius hit
// the documented floor, so UIs can warn about physically nonsensical belts.
type Primitive struct {
	Segment SegmentRecord `json:"segment"`
	Kind    Kind          `json:"kind"`
	Path    string        `json:"path"`
	Corners []Point       `json:"corners,omitempty"`
	Rollers []Line        `json:"rollers,omitempty"`
	Clamped bool          `json:"clamped,omitempty"`
	Style   Style         `json:"style"`
}

// Bundle is the full primitive set for one conveyor instance. Consumers must
// treat it as read-only; the engine never retains or mutates it after return.
type Bundle struct {
	Segments    []Primitive `json:"segments"`
	Supports    []Support   `json:"supports"`
	Accessories []Accessory `json:"accessories"`
}

// Build computes the complete primitive bundle for one conveyor instance. It
// is a pure function of its arguments: identical inputs yield byte-identical
// path strings, which the export contract depends on. Validation failures
// return a ValidationError and no partial bundle.
func Build(env Envelope, props ConveyorProperties, style Style, kind Kind, opts Options) (*Bundle, error) {
	seg, err := ResolveSegment(env, props, kind)
	if err != nil {
		return nil, err
	}
	return BuildSegment(seg, style, opts)
}

// BuildSegment computes the bundle for an already-resolved segment, for
// callers that construct segments from canvas points directly.
func BuildSegment(seg Segment, style Style, opts Options) (*Bundle, error) {
	prim, err := BuildPrimitive(seg, style, opts)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Segments:    []Primitive{prim},
		Supports:    PlaceSupports(seg, opts),
		Accessories: PlaceAccessories(seg, opts.Accessories),
	}, nil
}

// BuildPrimitive produces the drawable primitive for one segment.
func BuildPrimitive(seg Segment, style Style, opts Options) (Primitive, error) {
	opts = opts.withDefaults()
	switch s := seg.(type) {
	case Straight:
		return straightPrimitive(s, KindStraight, style, opts), nil
	case Inclined:
		p := straightPrimitive(s.Straight, KindInclined, style, opts)
		p.Segment = Record(s)
		return p, nil
	case Curved:
		path, rollers := CurveOutline(s, opts.RollerSpacing)
		return Primitive{
			Segment: Record(s),
			Kind:    KindCurved,
			Path:    path,
			Rollers: rollers,
			Clamped: s.Clamped(),
			Style:   style,
		}, nil
	default:
		return Primitive{}, invalidInput("segment", "unknown variant")
	}
}

func straightPrimitive(s Straight, kind Kind, style Style, opts Options) Primitive {
	corners := s.Corners()
	var b PathBuilder
	b.MoveTo(corners[0])
	b.LineTo(corners[1])
	b.LineTo(corners[2])
	b.LineTo(corners[3])
	b.Close()
	return Primitive{
		Segment: Record(s),
		Kind:    kind,
		Path:    b.String(),
		Corners: corners[:],
		Rollers: straightRollers(s, opts.RollerSpacing),
		Style:   style,
	}
}

// straightRollers draws cross marks over a straight run with the same
// distribution law as the curved builder: count floored at 1, centered steps.
func straightRollers(s Straight, spacing float64) []Line {
	if spacing <= 0 {
		return nil
	}
	length := s.Length()
	count := int(length / spacing)
	if count < 1 {
		count = 1
	}
	dx, dy := (s.End.X-s.Start.X)/length, (s.End.Y-s.Start.Y)/length
	px, py := -dy*s.BeltWidth/2, dx*s.BeltWidth/2
	lines := make([]Line, 0, count)
	for i := 0; i < count; i++ {
		at := s.Start.Lerp(s.End, (float64(i)+0.5)/float64(count))
		lines = append(lines, Line{
			From: Pt(at.X+px, at.Y+py),
			To:   Pt(at.X-px, at.Y-py),
		})
	}
	return lines
}

// RollerCount reports how many roller marks a curved segment of the given
// outer radius and sweep would receive for a spacing, without building the
// outline. Exposed for callers that size canvas buffers ahead of a build.
func RollerCount(c Curved, spacing float64) int {
	if spacing <= 0 {
		return 0
	}
	arcLen := (c.Radius + c.InnerRadius()) / 2 * Radians(c.Angle)
	count := int(arcLen / spacing)
	if count < 1 {
		count = 1
	}
	return count
}
