package geometry

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func resolveCurve(t *testing.T, env Envelope, props ConveyorProperties) Curved {
	t.Helper()
	seg, err := ResolveSegment(env, props, KindCurved)
	if err != nil {
		t.Fatalf("ResolveSegment: %v", err)
	}
	return seg.(Curved)
}

// The first M coordinates and the final arc endpoint must match as formatted
// strings, not just numerically, so the closed outline survives round trips
// through text-based exports.
func pathClosesExactly(t *testing.T, path string) {
	t.Helper()
	tokens := strings.Fields(path)
	if len(tokens) < 6 || tokens[0] != "M" || tokens[len(tokens)-1] != "Z" {
		t.Fatalf("path is not a closed outline: %q", path)
	}
	sx, sy := tokens[1], tokens[2]
	ex, ey := tokens[len(tokens)-3], tokens[len(tokens)-2]
	if sx != ex || sy != ey {
		t.Errorf("path does not close: starts at (%s, %s), final arc ends at (%s, %s)", sx, sy, ex, ey)
	}
}

func TestCurveOutlineCloses(t *testing.T) {
	for _, sweep := range []float64{45, 90, 180} {
		t.Run(fmtFloat(sweep), func(t *testing.T) {
			c := resolveCurve(t, Envelope{Width: 200, Height: 200}, ConveyorProperties{BeltWidth: 40, CurveAngle: &sweep})
			path, _ := CurveOutline(c, -1)
			pathClosesExactly(t, path)
		})
	}
}

func TestCurveOutlineFaceThickness(t *testing.T) {
	c := resolveCurve(t, Envelope{Width: 200, Height: 200}, ConveyorProperties{BeltWidth: 40})
	a0, a1 := c.angles()
	_, q0, q1 := innerBoundary(c, c.InnerRadius(), a0, a1)

	if d := q0.Distance(c.Start); math.Abs(d-40) > 1e-9 {
		t.Errorf("entry face length = %v, want belt width 40", d)
	}
	if d := q1.Distance(c.End); math.Abs(d-40) > 1e-9 {
		t.Errorf("exit face length = %v, want belt width 40", d)
	}
}

func TestCurveOutlineEndToEndDefaults(t *testing.T) {
	c := resolveCurve(t, Envelope{Width: 200, Height: 200}, ConveyorProperties{BeltWidth: 40})
	if c.Radius != 100 {
		t.Fatalf("resolved radius = %v, want 100", c.Radius)
	}
	if c.InnerRadius() != 60 {
		t.Fatalf("inner radius = %v, want 60", c.InnerRadius())
	}

	path, rollers := CurveOutline(c, DefaultRollerSpacing)
	if !strings.Contains(path, "A 100 100 0 0 1 ") {
		t.Errorf("path lacks the clockwise outer arc at radius 100: %q", path)
	}
	if !strings.Contains(path, "A 60 60 0 0 0 ") {
		t.Errorf("path lacks the counter-clockwise inner arc at radius 60: %q", path)
	}
	pathClosesExactly(t, path)

	// Centerline radius 80 over a quarter sweep is ~125.7 units of arc.
	if len(rollers) != 4 {
		t.Errorf("roller count = %d, want 4 at spacing %v", len(rollers), DefaultRollerSpacing)
	}
	for i, line := range rollers {
		if d := line.To.Distance(c.Center); math.Abs(d-c.Radius) > 1e-9 {
			t.Errorf("roller %d outer end at distance %v from center, want %v", i, d, c.Radius)
		}
	}
}

func TestCurveOutlineSuppressedRollers(t *testing.T) {
	c := resolveCurve(t, Envelope{Width: 200, Height: 200}, ConveyorProperties{BeltWidth: 40})
	if _, rollers := CurveOutline(c, -1); rollers != nil {
		t.Errorf("negative spacing produced %d rollers, want none", len(rollers))
	}
}

func TestRollerCountGrowsWithRadius(t *testing.T) {
	small := Curved{Radius: 100, BeltWidth: 40, Angle: 90}
	large := Curved{Radius: 200, BeltWidth: 40, Angle: 90}
	ns, nl := RollerCount(small, DefaultRollerSpacing), RollerCount(large, DefaultRollerSpacing)
	if ns != 4 || nl != 9 {
		t.Errorf("counts = (%d, %d), want (4, 9)", ns, nl)
	}
	if ns >= nl {
		t.Errorf("roller count must grow with radius at fixed sweep: %d >= %d", ns, nl)
	}
}

func TestRollerCountMatchesOutline(t *testing.T) {
	c := resolveCurve(t, Envelope{Width: 400, Height: 400}, ConveyorProperties{BeltWidth: 40})
	_, rollers := CurveOutline(c, DefaultRollerSpacing)
	if want := RollerCount(c, DefaultRollerSpacing); len(rollers) != want {
		t.Errorf("outline produced %d rollers, RollerCount says %d", len(rollers), want)
	}
}

func TestTinyCurveStillProducesOneRoller(t *testing.T) {
	c := resolveCurve(t, Envelope{Width: 20, Height: 20}, ConveyorProperties{BeltWidth: 4})
	_, rollers := CurveOutline(c, DefaultRollerSpacing)
	if len(rollers) != 1 {
		t.Errorf("roller count = %d, want the floor of 1", len(rollers))
	}
}

func TestDegenerateThicknessClamps(t *testing.T) {
	// Belt wider than the outer radius: inner radius floors at 1 and the
	// outline must stay closed and free of self-intersection.
	c := resolveCurve(t, Envelope{Width: 10, Height: 10}, ConveyorProperties{BeltWidth: 40})
	if c.Radius != 5 {
		t.Fatalf("resolved radius = %v, want 5", c.Radius)
	}
	if got := c.InnerRadius(); got != 1 {
		t.Errorf("InnerRadius() = %v, want the floor of 1", got)
	}
	if !c.Clamped() {
		t.Error("Clamped() = false, want true")
	}

	path, _ := CurveOutline(c, DefaultRollerSpacing)
	pathClosesExactly(t, path)

	// Every inner-arc point must sit outside the outer circle here, so the
	// two arcs cannot cross.
	a0, a1 := c.angles()
	center, q0, q1 := innerBoundary(c, c.InnerRadius(), a0, a1)
	for i := 0; i <= 8; i++ {
		ang := a0 + (a1-a0)*float64(i)/8
		p := PointOnCircle(center, c.InnerRadius(), ang)
		if d := p.Distance(c.Center); d <= c.Radius {
			t.Errorf("inner arc point %v at angle step %d lies inside the outer circle (distance %v <= %v)", p, i, d, c.Radius)
		}
	}

	// The two flat faces shrink to the effective thickness and stay apart.
	if d := q0.Distance(c.Start); math.Abs(d-4) > 1e-9 {
		t.Errorf("entry face length = %v, want 4", d)
	}
	if d := q1.Distance(c.End); math.Abs(d-4) > 1e-9 {
		t.Errorf("exit face length = %v, want 4", d)
	}
}

func TestConcentricSweepKeepsCenter(t *testing.T) {
	for _, sweep := range []float64{45, 180, 270} {
		c := resolveCurve(t, Envelope{Width: 200, Height: 200}, ConveyorProperties{BeltWidth: 40, CurveAngle: &sweep})
		a0, a1 := c.angles()
		center, q0, _ := innerBoundary(c, c.InnerRadius(), a0, a1)
		if center != c.Center {
			t.Errorf("sweep %v: inner center %v diverged from %v", sweep, center, c.Center)
		}
		if d := q0.Distance(c.Center); math.Abs(d-c.InnerRadius()) > 1e-9 {
			t.Errorf("sweep %v: inner start at radius %v, want %v", sweep, d, c.InnerRadius())
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	env := Envelope{X: 25, Y: 25, Width: 200, Height: 200}
	props := ConveyorProperties{BeltWidth: 40, Speed: 1.5, Direction: DirectionForward}
	style := Style{Fill: "#888", Stroke: "#222", StrokeWidth: 2}
	opts := Options{Accessories: []AccessoryRequest{{Type: AccessoryMotor, At: 0.5}}}

	first, err := Build(env, props, style, KindCurved, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(env, props, style, KindCurved, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("two builds of identical inputs differ (-first +second):\n%s", diff)
	}
}

func TestBuildStraightBundle(t *testing.T) {
	bundle, err := Build(Envelope{Width: 300, Height: 0}, ConveyorProperties{BeltWidth: 40}, Style{}, KindStraight, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(bundle.Segments) != 1 {
		t.Fatalf("segment count = %d, want 1", len(bundle.Segments))
	}
	prim := bundle.Segments[0]
	if prim.Path != "M 0 20 L 300 20 L 300 -20 L 0 -20 Z" {
		t.Errorf("straight path = %q", prim.Path)
	}
	if len(prim.Corners) != 4 {
		t.Errorf("corner count = %d, want 4", len(prim.Corners))
	}
	if len(prim.Rollers) != 10 {
		t.Errorf("roller count = %d, want 10 for a 300 unit run at spacing 30", len(prim.Rollers))
	}
	if len(bundle.Supports) != 2 {
		t.Errorf("support count = %d, want 2", len(bundle.Supports))
	}
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	_, err := Build(Envelope{Width: 200, Height: 200}, ConveyorProperties{}, Style{}, KindCurved, Options{})
	if err == nil {
		t.Fatal("expected a validation error for missing belt width")
	}
	if !IsValidationError(err) {
		t.Errorf("error %v is not a ValidationError", err)
	}
}
