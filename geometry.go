package main

import "math"

// World-space geometry for the mind map. Node positions are centers in an
// abstract pixel-like coordinate space; the Transform maps that space onto
// the viewport. All pointer/cursor hit-testing goes through ScreenToWorld
// before being compared against node positions.

type Point struct {
	X float64
	Y float64
}

type Size struct {
	W float64
	H float64
}

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// RectAround builds the rectangle of the given size centered on p.
func RectAround(p Point, s Size) Rect {
	return Rect{X: p.X - s.W/2, Y: p.Y - s.H/2, W: s.W, H: s.H}
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Expand grows the rectangle by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	x1 := math.Min(r.X, o.X)
	y1 := math.Min(r.Y, o.Y)
	x2 := math.Max(r.Right(), o.Right())
	y2 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Transform maps world coordinates to viewport pixels. It is recomputed
// whenever the bounding box of the visible nodes changes.
type Transform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// IdentityTransform leaves coordinates untouched.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

func (t Transform) WorldToScreen(p Point) Point {
	return Point{X: p.X*t.Scale + t.TranslateX, Y: p.Y*t.Scale + t.TranslateY}
}

func (t Transform) ScreenToWorld(p Point) Point {
	return Point{X: (p.X - t.TranslateX) / t.Scale, Y: (p.Y - t.TranslateY) / t.Scale}
}

// WorldRect maps a screen-space rectangle back into world space.
func (t Transform) WorldRect(r Rect) Rect {
	tl := t.ScreenToWorld(Point{X: r.X, Y: r.Y})
	br := t.ScreenToWorld(Point{X: r.Right(), Y: r.Bottom()})
	return Rect{X: tl.X, Y: tl.Y, W: br.X - tl.X, H: br.Y - tl.Y}
}

// ScreenRect maps a world-space rectangle into screen space.
func (t Transform) ScreenRect(r Rect) Rect {
	tl := t.WorldToScreen(Point{X: r.X, Y: r.Y})
	return Rect{X: tl.X, Y: tl.Y, W: r.W * t.Scale, H: r.H * t.Scale}
}

// minFitMargin is the smallest distance the fitted content may sit from a
// viewport edge when the translation has to be adjusted to avoid clipping.
const minFitMargin = 20.0

// FitToViewport computes the transform that centers box in a viewport of the
// given size. sizeMultiplier deliberately allows the content to exceed the
// exact-fit scale for visual emphasis; when that (or a tiny viewport) would
// clip the box, the translation is pinned so the top-left region stays
// visible at minFitMargin instead of staying perfectly centered.
func FitToViewport(box Rect, viewportW, viewportH, padding, sizeMultiplier float64) Transform {
	bw := box.W
	bh := box.H
	if bw <= 0 {
		bw = 1
	}
	if bh <= 0 {
		bh = 1
	}
	availW := viewportW - 2*padding
	availH := viewportH - 2*padding
	if availW < 1 {
		availW = 1
	}
	if availH < 1 {
		availH = 1
	}
	scale := math.Min(availW/bw, availH/bh) * sizeMultiplier
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		scale = 1
	}

	center := box.Center()
	tx := viewportW/2 - center.X*scale
	ty := viewportH/2 - center.Y*scale

	tx = adjustTranslation(tx, box.X*scale, bw*scale, viewportW)
	ty = adjustTranslation(ty, box.Y*scale, bh*scale, viewportH)

	return Transform{Scale: scale, TranslateX: tx, TranslateY: ty}
}

// adjustTranslation nudges one axis of the translation so the scaled box is
// not clipped outside the viewport. If the box is too large to fit with the
// margin on both sides, the leading edge wins.
func adjustTranslation(t, boxMin, boxExtent, viewport float64) float64 {
	if boxExtent > viewport-2*minFitMargin {
		return minFitMargin - boxMin
	}
	lo := boxMin + t
	hi := lo + boxExtent
	if lo < minFitMargin {
		return t + (minFitMargin - lo)
	}
	if hi > viewport-minFitMargin {
		return t - (hi - (viewport - minFitMargin))
	}
	return t
}

// ClampRectInto moves r the minimum distance needed to sit fully inside
// bounds. A rectangle larger than bounds is pinned to the top-left edge.
func ClampRectInto(r Rect, bounds Rect) Rect {
	if r.X < bounds.X {
		r.X = bounds.X
	} else if r.Right() > bounds.Right() {
		r.X = bounds.Right() - r.W
	}
	if r.X < bounds.X {
		r.X = bounds.X
	}
	if r.Y < bounds.Y {
		r.Y = bounds.Y
	} else if r.Bottom() > bounds.Bottom() {
		r.Y = bounds.Bottom() - r.H
	}
	if r.Y < bounds.Y {
		r.Y = bounds.Y
	}
	return r
}
