package main

import (
	"fmt"
	"testing"
)

// fixedMeasurer gives every label the same size, which makes expected
// positions easy to reason about.
type fixedMeasurer struct {
	size Size
}

func (f fixedMeasurer) Measure(string) Size { return f.size }

func photosynthesisTree(t *testing.T) *MindMapNode {
	t.Helper()
	raw := []byte(`{
		"root": "Photosynthesis",
		"nodes": [
			{"id": "b1", "label": "Light Reactions", "children": [
				{"id": "c1", "label": "Chlorophyll"},
				{"id": "c2", "label": "ATP Synthesis"}
			]},
			{"id": "b2", "label": "Calvin Cycle", "children": [
				{"id": "c3", "label": "Carbon Fixation"}
			]},
			{"id": "b3", "label": "Limiting Factors"}
		]
	}`)
	tree, err := ParseMindMap(raw)
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return tree
}

// wideTree builds a three-level tree with enough fan-out to expose overlap
// bugs.
func wideTree(t *testing.T, branches, leaves int) *MindMapNode {
	t.Helper()
	data := mindMapData{Root: "Root"}
	for i := 0; i < branches; i++ {
		wn := wireNode{ID: fmt.Sprintf("b%d", i), Label: fmt.Sprintf("Branch %d", i)}
		for j := 0; j < leaves; j++ {
			wn.Children = append(wn.Children, wireNode{
				ID:    fmt.Sprintf("b%d-l%d", i, j),
				Label: fmt.Sprintf("Leaf %d of branch %d", j, i),
			})
		}
		data.Nodes = append(data.Nodes, wn)
	}
	tree, err := BuildTree(data)
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	return tree
}

func TestLayoutDeterministic(t *testing.T) {
	engine := NewLayoutEngine(NewCellMeasurer())
	tree := wideTree(t, 7, 6)

	first, err := engine.Layout(tree)
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.Layout(tree)
	if err != nil {
		t.Fatal(err)
	}
	for id, p := range first.Positions {
		if second.Positions[id] != p {
			t.Errorf("node %s moved between runs: %v vs %v", id, p, second.Positions[id])
		}
	}
}

func TestLayoutNoOverlap(t *testing.T) {
	engine := NewLayoutEngine(NewCellMeasurer())
	tree := wideTree(t, 8, 6)

	res, err := engine.Layout(tree)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(res.Positions); got != tree.Count() {
		t.Fatalf("placed %d of %d nodes", got, tree.Count())
	}

	ids := make([]string, 0, len(res.Positions))
	tree.Walk(func(n *MindMapNode, _ int) { ids = append(ids, n.ID) })
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a := RectAround(res.Positions[ids[i]], res.Sizes[ids[i]])
			b := RectAround(res.Positions[ids[j]], res.Sizes[ids[j]])
			if a.Intersects(b) {
				t.Errorf("nodes %s and %s overlap: %+v / %+v", ids[i], ids[j], a, b)
			}
		}
	}
}

func TestLayoutBoundsCenteredAtOrigin(t *testing.T) {
	engine := NewLayoutEngine(fixedMeasurer{Size{W: 120, H: 40}})
	res, err := engine.Layout(photosynthesisTree(t))
	if err != nil {
		t.Fatal(err)
	}
	c := res.Bounds.Center()
	if !almostEqual(c.X, 0) || !almostEqual(c.Y, 0) {
		t.Errorf("bounds centered at (%v, %v), want origin", c.X, c.Y)
	}
}

func TestLayoutGapsScaleWithNodeSize(t *testing.T) {
	engine := NewLayoutEngine(fixedMeasurer{Size{W: 400, H: 100}})
	res, err := engine.Layout(photosynthesisTree(t))
	if err != nil {
		t.Fatal(err)
	}
	if want := 0.6 * 400; res.NodeGap != want {
		t.Errorf("node gap %v, want %v", res.NodeGap, want)
	}
	if want := 2.2 * 100; res.LevelGap != want {
		t.Errorf("level gap %v, want %v", res.LevelGap, want)
	}

	// Small nodes fall back to the floor values.
	engine = NewLayoutEngine(fixedMeasurer{Size{W: 50, H: 20}})
	res, err = engine.Layout(photosynthesisTree(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.NodeGap != 60 || res.LevelGap != 140 {
		t.Errorf("gaps (%v, %v), want floors (60, 140)", res.NodeGap, res.LevelGap)
	}
}

func TestLayoutPhotosynthesisShape(t *testing.T) {
	engine := NewLayoutEngine(fixedMeasurer{Size{W: 120, H: 40}})
	res, err := engine.Layout(photosynthesisTree(t))
	if err != nil {
		t.Fatal(err)
	}
	pos := res.Positions

	// Branches share a level one gap below the root, left to right in
	// payload order.
	for _, id := range []string{"b1", "b2", "b3"} {
		if got := pos[id].Y - pos[RootID].Y; !almostEqual(got, res.LevelGap) {
			t.Errorf("branch %s is %v below root, want %v", id, got, res.LevelGap)
		}
	}
	if !(pos["b1"].X < pos["b2"].X && pos["b2"].X < pos["b3"].X) {
		t.Errorf("branches out of order: %v, %v, %v", pos["b1"].X, pos["b2"].X, pos["b3"].X)
	}

	// b1's children sit centered under b1, one more level down.
	if got := pos["c1"].Y - pos["b1"].Y; !almostEqual(got, res.LevelGap) {
		t.Errorf("child level gap %v, want %v", got, res.LevelGap)
	}
	mid := (pos["c1"].X + pos["c2"].X) / 2
	if !almostEqual(mid, pos["b1"].X) {
		t.Errorf("children centered at %v, want parent x %v", mid, pos["b1"].X)
	}
	// A single child sits directly under its parent.
	if !almostEqual(pos["c3"].X, pos["b2"].X) {
		t.Errorf("only child at x %v, want %v", pos["c3"].X, pos["b2"].X)
	}

	// Siblings keep at least the node gap between box edges.
	gap := pos["b2"].X - pos["b1"].X
	if gap < 120+res.NodeGap-1e-6 {
		t.Errorf("branch centers %v apart, want at least %v", gap, 120+res.NodeGap)
	}
}

func TestLayoutNilTree(t *testing.T) {
	engine := NewLayoutEngine(NewCellMeasurer())
	if _, err := engine.Layout(nil); err == nil {
		t.Fatal("expected error for nil tree")
	}
}

func TestLayoutRootAtTop(t *testing.T) {
	engine := NewLayoutEngine(NewCellMeasurer())
	res, err := engine.Layout(wideTree(t, 5, 4))
	if err != nil {
		t.Fatal(err)
	}
	rootY := res.Positions[RootID].Y
	for id, p := range res.Positions {
		if p.Y < rootY-1e-6 {
			t.Errorf("node %s at y %v sits above the root (%v)", id, p.Y, rootY)
		}
	}
}
