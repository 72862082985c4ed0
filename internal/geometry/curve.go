package geometry

import "math"

// The curve path builder turns a Curved segment into a closed donut-sector
// outline plus roller marks.
//
// Construction, in the canonical frame (entry at the top of the circle,
// clockwise sweep):
//
//   - Outer boundary: arc of radius R = Radius around Center.
//   - Inner boundary: arc of radius r = max(R-t, 1), where t is the belt
//     width. For the 90 degree case the inner center is offset diagonally
//     from the outer center by the effective thickness s = R-r along the
//     sweep bisector, which lands both inner endpoints on the flat faces
//     exactly s away from the outer endpoints: the entry face lies flush on
//     the top edge of the quadrant and the exit face on the right edge, each
//     exactly one belt width long, so an abutting straight segment meets the
//     curve without a seam.
//   - 180 degrees is the symmetric special case: the faces are the two ends
//     of the diameter, where the concentric construction is already exact.
//     All other sweeps use the concentric construction as well; the diagonal
//     offset has no solution for thick belts at small sweeps, so the
//     concentric form is the one that stays total over the input space.
//
// Assembly order is fixed and load-bearing for export fidelity: inner start,
// line to outer start (entry face), clockwise outer arc, line to inner end
// (exit face), counter-clockwise inner arc back, close.

const angleEps = 1e-9

// CurveOutline builds the closed outline path and roller marks for a curved
// segment. rollerSpacing is the desired arc distance between marks, measured
// on the centerline; non-positive spacing suppresses the marks.
func CurveOutline(c Curved, rollerSpacing float64) (path string, rollers []Line) {
	R := c.Radius
	r := c.InnerRadius()
	a0, a1 := c.angles()

	innerCenter, q0, q1 := innerBoundary(c, r, a0, a1)

	var b PathBuilder
	b.MoveTo(q0)
	b.LineTo(PointOnCircle(c.Center, R, a0))
	b.Arc(c.Center, R, a0, a1)
	b.LineTo(q1)
	b.Arc(innerCenter, r, a1, a0)
	b.Close()

	if rollerSpacing > 0 {
		rollers = rollerLines(c, innerCenter, r, a0, a1, rollerSpacing)
	}
	return b.String(), rollers
}

// innerBoundary resolves the inner-arc center and endpoints for the sweep.
// q0 abuts the entry face, q1 the exit face.
func innerBoundary(c Curved, r, a0, a1 float64) (center, q0, q1 Point) {
	if math.Abs(c.Angle-90) < angleEps {
		// Offset construction: shift the inner center toward the convex side
		// of the quadrant. With entry at the top, that is (+s, -s) in screen
		// coordinates.
		s := c.Radius - r
		center = c.Center.Translate(s, -s)
	} else {
		center = c.Center
	}
	return center, PointOnCircle(center, r, a0), PointOnCircle(center, r, a1)
}

// rollerLines distributes roller marks over the sector. The count derives
// from the arc length at the centerline radius (R+r)/2; spacing by the outer
// arc would over-pack the marks once projected onto the narrower inner edge.
// The count is floored at 1 so every curve shows at least one mark. Marks sit
// at centered angular steps and span the band along each radial ray, from the
// inner boundary to the outer arc.
func rollerLines(c Curved, innerCenter Point, r, a0, a1, spacing float64) []Line {
	sweep := a1 - a0
	arcLen := (c.Radius + r) / 2 * sweep
	count := int(arcLen / spacing)
	if count < 1 {
		count = 1
	}
	step := sweep / float64(count)
	lines := make([]Line, 0, count)
	for i := 0; i < count; i++ {
		ang := a0 + (float64(i)+0.5)*step
		lines = append(lines, Line{
			From: bandInnerPoint(c.Center, innerCenter, r, ang),
			To:   PointOnCircle(c.Center, c.Radius, ang),
		})
	}
	return lines
}

// bandInnerPoint intersects the radial ray from the outer center at ang with
// the inner boundary circle. For the concentric construction this is simply
// the inner radius; for the offset construction it keeps the marks on the
// band. When an extreme thickness clamp leaves the ray outside the inner
// circle entirely, the closest approach along the ray is used.
func bandInnerPoint(outerCenter, innerCenter Point, r, ang float64) Point {
	ex, ey := math.Cos(ang), math.Sin(ang)
	dx, dy := innerCenter.X-outerCenter.X, innerCenter.Y-outerCenter.Y
	ed := ex*dx + ey*dy
	disc := ed*ed - (dx*dx + dy*dy) + r*r
	u := ed
	if disc > 0 {
		u += math.Sqrt(disc)
	}
	return Pt(outerCenter.X+u*ex, outerCenter.Y+u*ey)
}
