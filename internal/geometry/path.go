package geometry

import (
	"math"
	"strconv"
	"strings"
)

// PathBuilder accumulates drawing commands in the grammar the export tooling
// depends on: "M x y", "L x y", "A rx ry 0 largeArcFlag sweepFlag x y", "Z".
// Coordinates are formatted with the shortest decimal form that round-trips,
// so identical inputs always yield byte-identical strings.
type PathBuilder struct {
	sb    strings.Builder
	start Point
	cur   Point
}

// MoveTo starts a subpath at p.
func (b *PathBuilder) MoveTo(p Point) {
	b.put("M", fmtFloat(p.X), fmtFloat(p.Y))
	b.start = p
	b.cur = p
}

// LineTo draws a straight edge to p.
func (b *PathBuilder) LineTo(p Point) {
	b.put("L", fmtFloat(p.X), fmtFloat(p.Y))
	b.cur = p
}

// Arc appends the circular arc around center from startAngle to endAngle. The
// current point must already sit on the arc's start; see ArcPathFragment for
// the flag selection rules.
func (b *PathBuilder) Arc(center Point, radius, startAngle, endAngle float64) {
	b.put(ArcPathFragment(center, radius, startAngle, endAngle))
	b.cur = PointOnCircle(center, radius, endAngle)
}

// Close closes the current subpath.
func (b *PathBuilder) Close() {
	b.put("Z")
	b.cur = b.start
}

// Pos returns the current point.
func (b *PathBuilder) Pos() Point { return b.cur }

// String returns the accumulated path.
func (b *PathBuilder) String() string { return b.sb.String() }

func (b *PathBuilder) put(tokens ...string) {
	for _, tok := range tokens {
		if b.sb.Len() > 0 {
			b.sb.WriteByte(' ')
		}
		b.sb.WriteString(tok)
	}
}

// ArcPathFragment encodes the circular arc around center from startAngle to
// endAngle as a single "A" command ending at the projected end point. The
// large-arc flag is 1 exactly when the absolute angular delta exceeds pi. The
// sweep flag follows the sign of the delta under the package's global
// clockwise-positive convention; every curved shape funnels through here so
// the winding order cannot drift between callers.
func ArcPathFragment(center Point, radius, startAngle, endAngle float64) string {
	delta := endAngle - startAngle
	end := PointOnCircle(center, radius, endAngle)
	return strings.Join([]string{
		"A", fmtFloat(radius), fmtFloat(radius), "0",
		flag(math.Abs(delta) > math.Pi), flag(delta > 0),
		fmtFloat(end.X), fmtFloat(end.Y),
	}, " ")
}

func flag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

func fmtFloat(v float64) string {
	if v == 0 {
		v = 0 // fold -0 into 0 before formatting
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
