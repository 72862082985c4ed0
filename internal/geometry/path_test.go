package geometry

import (
	"math"
	"strings"
	"testing"
)

func TestPathBuilderGrammar(t *testing.T) {
	var b PathBuilder
	b.MoveTo(Pt(0, 20))
	b.LineTo(Pt(300, 20))
	b.LineTo(Pt(300, -20))
	b.LineTo(Pt(0, -20))
	b.Close()

	want := "M 0 20 L 300 20 L 300 -20 L 0 -20 Z"
	if got := b.String(); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestPathBuilderFoldsNegativeZero(t *testing.T) {
	var b PathBuilder
	b.MoveTo(Pt(math.Copysign(0, -1), 0))
	if got := b.String(); got != "M 0 0" {
		t.Errorf("path = %q, want %q", got, "M 0 0")
	}
}

func TestArcPathFragmentFlags(t *testing.T) {
	center := Pt(0, 0)
	tests := []struct {
		name       string
		start, end float64 // degrees
		largeArc   string
		sweep      string
	}{
		{"quarter clockwise", 0, 90, "0", "1"},
		{"quarter counterclockwise", 90, 0, "0", "0"},
		{"half exactly is not large", 0, 180, "0", "1"},
		{"past half is large", 0, 200, "1", "1"},
		{"reverse past half", 200, 0, "1", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag := ArcPathFragment(center, 10, Radians(tt.start), Radians(tt.end))
			fields := strings.Fields(frag)
			if len(fields) != 8 {
				t.Fatalf("fragment %q has %d fields, want 8", frag, len(fields))
			}
			if fields[4] != tt.largeArc {
				t.Errorf("large-arc flag = %s, want %s (fragment %q)", fields[4], tt.largeArc, frag)
			}
			if fields[5] != tt.sweep {
				t.Errorf("sweep flag = %s, want %s (fragment %q)", fields[5], tt.sweep, frag)
			}
		})
	}
}

func TestPointOnCircleZeroRadius(t *testing.T) {
	center := Pt(12, -7)
	if got := PointOnCircle(center, 0, 1.234); got != center {
		t.Errorf("PointOnCircle(center, 0, a) = %v, want %v", got, center)
	}
}
