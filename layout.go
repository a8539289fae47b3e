package main

import "math"

// Deterministic centered tree layout: sizes are measured first, subtree
// widths are computed bottom-up, then nodes are placed top-down with each
// parent's children centered under it. An earlier two-sided scheme that
// alternated primary branches left/right is superseded by this; the centered
// layout produces the same wide symmetric shape without explicit side
// assignment.

// LayoutResult carries everything downstream consumers need: world-space
// center positions, measured sizes and the overall bounding box. After the
// final shift the bounding box is centered on the world origin.
type LayoutResult struct {
	Positions map[string]Point
	Sizes     map[string]Size
	Bounds    Rect
	LevelGap  float64
	NodeGap   float64
}

// LayoutEngine computes positions for a tree. It owns no mutable state, so
// the same engine can lay out any number of trees.
type LayoutEngine struct {
	measurer TextMeasurer
}

func NewLayoutEngine(measurer TextMeasurer) *LayoutEngine {
	return &LayoutEngine{measurer: measurer}
}

// Layout places every node of the tree. Identical trees always produce
// identical positions: there is no randomness and no dependency on anything
// but labels and child order.
func (e *LayoutEngine) Layout(root *MindMapNode) (*LayoutResult, error) {
	if root == nil {
		return nil, &DataError{Msg: "cannot lay out a nil tree"}
	}

	sizes := make(map[string]Size)
	maxW, maxH := 0.0, 0.0
	root.Walk(func(n *MindMapNode, _ int) {
		s := e.measurer.Measure(n.Label)
		sizes[n.ID] = s
		maxW = math.Max(maxW, s.W)
		maxH = math.Max(maxH, s.H)
	})

	// Gaps derive from the largest measured node so dense trees with long
	// labels spread out proportionally.
	nodeGap := math.Max(60, 0.6*maxW)
	levelGap := math.Max(140, 2.2*maxH)

	widths := make(map[string]float64)
	subtreeWidth(root, sizes, widths, nodeGap)

	positions := make(map[string]Point, len(sizes))
	positions[root.ID] = Point{X: 0, Y: 0}
	placeChildren(root, positions, sizes, widths, nodeGap, levelGap)

	// Shift everything so the bounding-box center, not the root, sits at the
	// origin. That center is what gets fitted into the viewport.
	bounds := boundingBox(positions, sizes)
	c := bounds.Center()
	for id, p := range positions {
		positions[id] = Point{X: p.X - c.X, Y: p.Y - c.Y}
	}
	bounds.X -= c.X
	bounds.Y -= c.Y

	return &LayoutResult{
		Positions: positions,
		Sizes:     sizes,
		Bounds:    bounds,
		LevelGap:  levelGap,
		NodeGap:   nodeGap,
	}, nil
}

// subtreeWidth fills widths with the horizontal extent each subtree needs: a
// leaf needs its own width, an internal node the larger of its own width and
// its children's combined slots.
func subtreeWidth(n *MindMapNode, sizes map[string]Size, widths map[string]float64, gap float64) float64 {
	own := sizes[n.ID].W
	if len(n.Children) == 0 {
		widths[n.ID] = own
		return own
	}
	total := 0.0
	for i, c := range n.Children {
		total += subtreeWidth(c, sizes, widths, gap)
		if i > 0 {
			total += gap
		}
	}
	w := math.Max(own, total)
	widths[n.ID] = w
	return w
}

// placeChildren positions n's children one level down, centered as a group
// under n, each child at the center of its subtree slot, then recurses.
func placeChildren(n *MindMapNode, positions map[string]Point, sizes map[string]Size, widths map[string]float64, gap, levelGap float64) {
	if len(n.Children) == 0 {
		return
	}
	parent := positions[n.ID]

	total := 0.0
	for i, c := range n.Children {
		total += widths[c.ID]
		if i > 0 {
			total += gap
		}
	}

	cursor := parent.X - total/2
	y := parent.Y + levelGap
	for _, c := range n.Children {
		slot := widths[c.ID]
		positions[c.ID] = Point{X: cursor + slot/2, Y: y}
		cursor += slot + gap
		placeChildren(c, positions, sizes, widths, gap, levelGap)
	}
}

// boundingBox covers every placed node's rectangle.
func boundingBox(positions map[string]Point, sizes map[string]Size) Rect {
	first := true
	var box Rect
	for id, p := range positions {
		r := RectAround(p, sizes[id])
		if first {
			box = r
			first = false
			continue
		}
		box = box.Union(r)
	}
	return box
}
