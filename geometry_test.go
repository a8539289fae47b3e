package main

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{Scale: 1.5, TranslateX: 320, TranslateY: -48}
	points := []Point{
		{X: 0, Y: 0},
		{X: -250.5, Y: 910},
		{X: 13.25, Y: -0.75},
		{X: 99999, Y: -99999},
	}
	for _, p := range points {
		got := tr.ScreenToWorld(tr.WorldToScreen(p))
		if !almostEqual(got.X, p.X) || !almostEqual(got.Y, p.Y) {
			t.Errorf("round trip of %v gave %v", p, got)
		}
	}
}

func TestFitToViewportCentersContent(t *testing.T) {
	box := Rect{X: -300, Y: -100, W: 600, H: 200}
	tr := FitToViewport(box, 2000, 1600, viewportPadding, 1.0)

	sr := tr.ScreenRect(box)
	c := sr.Center()
	if !almostEqual(c.X, 1000) || !almostEqual(c.Y, 800) {
		t.Errorf("scaled box centered at (%v, %v), want viewport center (1000, 800)", c.X, c.Y)
	}
}

func TestFitToViewportKeepsMargin(t *testing.T) {
	// The multiplier pushes the content past exact fit; the translation must
	// keep its leading edge at the minimum margin instead of clipping it.
	box := Rect{X: -400, Y: -300, W: 800, H: 600}
	tr := FitToViewport(box, 640, 480, viewportPadding, 1.5)

	sr := tr.ScreenRect(box)
	if !almostEqual(sr.X, minFitMargin) {
		t.Errorf("oversized box left edge at %v, want %v", sr.X, minFitMargin)
	}
	if !almostEqual(sr.Y, minFitMargin) {
		t.Errorf("oversized box top edge at %v, want %v", sr.Y, minFitMargin)
	}
}

func TestFitToViewportDegenerateBox(t *testing.T) {
	tr := FitToViewport(Rect{}, 800, 600, viewportPadding, 1.5)
	if tr.Scale <= 0 || math.IsInf(tr.Scale, 0) || math.IsNaN(tr.Scale) {
		t.Fatalf("degenerate box produced scale %v", tr.Scale)
	}
}

func TestClampRectInto(t *testing.T) {
	bounds := Rect{X: 0, Y: 0, W: 100, H: 100}
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside untouched", Rect{X: 10, Y: 10, W: 20, H: 20}, Rect{X: 10, Y: 10, W: 20, H: 20}},
		{"pushed off left", Rect{X: -50, Y: 40, W: 20, H: 20}, Rect{X: 0, Y: 40, W: 20, H: 20}},
		{"pushed off bottom right", Rect{X: 95, Y: 95, W: 20, H: 20}, Rect{X: 80, Y: 80, W: 20, H: 20}},
		{"larger than bounds pins top left", Rect{X: 30, Y: 30, W: 300, H: 300}, Rect{X: 0, Y: 0, W: 300, H: 300}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ClampRectInto(tc.in, bounds)
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRectUnionAndIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 20, Y: 5, W: 10, H: 10}
	if a.Intersects(b) {
		t.Error("disjoint rects reported as intersecting")
	}
	u := a.Union(b)
	want := Rect{X: 0, Y: 0, W: 30, H: 15}
	if u != want {
		t.Errorf("union %+v, want %+v", u, want)
	}
	if !a.Intersects(Rect{X: 5, Y: 5, W: 10, H: 10}) {
		t.Error("overlapping rects reported as disjoint")
	}
}
