package main

import (
	"errors"
	"testing"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := NewSession(photosynthesisTree(t), fixedMeasurer{Size{W: 120, H: 40}}, 1.0)
	if err != nil {
		t.Fatalf("building session: %v", err)
	}
	sess.SetViewport(1600, 1200)
	return sess
}

func TestSessionStatesAreExclusive(t *testing.T) {
	sess := newTestSession(t)

	if err := sess.BeginDrag("b1", sess.Position("b1")); err != nil {
		t.Fatal(err)
	}
	if err := sess.BeginConnection("b2", AnchorLeft); err == nil {
		t.Error("connection started during drag")
	}
	if _, err := sess.BeginLabelEdit("b2"); err == nil {
		t.Error("label edit started during drag")
	}
	if err := sess.DeleteNode("b2"); err == nil {
		t.Error("node deleted during drag")
	}

	sess.CancelInteraction()
	if sess.State() != StateIdle {
		t.Fatalf("state %v after cancel, want idle", sess.State())
	}
	if err := sess.BeginConnection("b2", AnchorLeft); err != nil {
		t.Errorf("connection rejected after cancel: %v", err)
	}
}

func TestDragMovesNode(t *testing.T) {
	sess := newTestSession(t)
	start := sess.Position("b1")

	grab := Point{X: start.X + 10, Y: start.Y + 5}
	if err := sess.BeginDrag("b1", grab); err != nil {
		t.Fatal(err)
	}
	sess.DragTo(Point{X: grab.X + 50, Y: grab.Y + 30})
	sess.EndDrag()

	got := sess.Position("b1")
	want := Point{X: start.X + 50, Y: start.Y + 30}
	if !almostEqual(got.X, want.X) || !almostEqual(got.Y, want.Y) {
		t.Errorf("node at %v, want %v", got, want)
	}
	if !sess.CanUndo() {
		t.Error("move did not record an undo action")
	}
}

func TestDragClampedToViewport(t *testing.T) {
	sess := newTestSession(t)
	pos := sess.Position("b1")

	if err := sess.BeginDrag("b1", pos); err != nil {
		t.Fatal(err)
	}
	// Way outside any reasonable viewport.
	sess.DragTo(Point{X: 1e6, Y: -1e6})
	sess.EndDrag()

	bounds := sess.Transform().WorldRect(Rect{
		X: viewportPadding,
		Y: viewportPadding,
		W: 1600 - 2*viewportPadding,
		H: 1200 - 2*viewportPadding,
	})
	r := sess.NodeRect("b1")
	if r.X < bounds.X-1e-6 || r.Right() > bounds.Right()+1e-6 ||
		r.Y < bounds.Y-1e-6 || r.Bottom() > bounds.Bottom()+1e-6 {
		t.Errorf("dragged node %+v escaped viewport bounds %+v", r, bounds)
	}
}

func TestDragCancelReverts(t *testing.T) {
	sess := newTestSession(t)
	start := sess.Position("b1")

	if err := sess.BeginDrag("b1", start); err != nil {
		t.Fatal(err)
	}
	sess.DragTo(Point{X: start.X + 80, Y: start.Y})
	sess.CancelInteraction()

	if got := sess.Position("b1"); got != start {
		t.Errorf("node at %v after cancel, want %v", got, start)
	}
	if sess.CanUndo() {
		t.Error("cancelled drag recorded an undo action")
	}
}

func TestCompleteConnectionRejections(t *testing.T) {
	sess := newTestSession(t)

	if err := sess.BeginConnection("b1", AnchorRight); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.CompleteConnection("b1", AnchorLeft); err == nil {
		t.Fatal("self connection accepted")
	} else {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("self connection error %T, want *ValidationError", err)
		}
	}

	// The failed attempt leaves the connection pending; finish it properly.
	if _, err := sess.CompleteConnection("b2", AnchorLeft); err != nil {
		t.Fatal(err)
	}

	// The exact same anchor tuple is a duplicate.
	if err := sess.BeginConnection("b1", AnchorRight); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.CompleteConnection("b2", AnchorLeft); err == nil {
		t.Fatal("duplicate connection accepted")
	}
	sess.CancelInteraction()

	// Same nodes, different anchors: allowed.
	if err := sess.BeginConnection("b1", AnchorBottom); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.CompleteConnection("b2", AnchorTop); err != nil {
		t.Errorf("distinct anchor pair rejected: %v", err)
	}
	if got := len(sess.ManualConnections()); got != 2 {
		t.Errorf("%d manual connections, want 2", got)
	}
}

func TestDeleteNodeCascadesItsEdgesOnly(t *testing.T) {
	sess := newTestSession(t)

	mustConnect := func(from string, fa Anchor, to string, ta Anchor) Connection {
		t.Helper()
		if err := sess.BeginConnection(from, fa); err != nil {
			t.Fatal(err)
		}
		conn, err := sess.CompleteConnection(to, ta)
		if err != nil {
			t.Fatal(err)
		}
		return conn
	}

	mustConnect("b2", AnchorRight, "b3", AnchorLeft)
	mustConnect("c1", AnchorBottom, "b2", AnchorTop)
	survivor := mustConnect("b1", AnchorRight, "b3", AnchorTop)

	if err := sess.DeleteNode("b2"); err != nil {
		t.Fatal(err)
	}

	remaining := sess.ManualConnections()
	if len(remaining) != 1 {
		t.Fatalf("%d connections survive, want 1", len(remaining))
	}
	if remaining[0].ID != survivor.ID {
		t.Errorf("wrong survivor: %+v", remaining[0])
	}
	if sess.Node("b2") != nil {
		t.Error("deleted node still indexed")
	}
}

func TestDeleteNodePromotesChildren(t *testing.T) {
	sess := newTestSession(t)

	if err := sess.DeleteNode("b1"); err != nil {
		t.Fatal(err)
	}

	// b1's children take its slot in the root's child list.
	got := make([]string, 0, 4)
	for _, c := range sess.Tree().Children {
		got = append(got, c.ID)
	}
	want := []string{"c1", "c2", "b2", "b3"}
	if len(got) != len(want) {
		t.Fatalf("root children %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("root children %v, want %v", got, want)
		}
	}
}

func TestDeleteRootRejected(t *testing.T) {
	sess := newTestSession(t)
	err := sess.DeleteNode(RootID)
	if err == nil {
		t.Fatal("root deletion accepted")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %T, want *ValidationError", err)
	}
}

func TestResetIdempotent(t *testing.T) {
	sess := newTestSession(t)
	origB1 := sess.Position("b1")

	// Pile up edits of every kind.
	if err := sess.BeginDrag("b1", origB1); err != nil {
		t.Fatal(err)
	}
	sess.DragTo(Point{X: origB1.X + 70, Y: origB1.Y + 40})
	sess.EndDrag()

	if err := sess.BeginConnection("b1", AnchorRight); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.CompleteConnection("b2", AnchorLeft); err != nil {
		t.Fatal(err)
	}

	if _, err := sess.BeginLabelEdit("b2"); err != nil {
		t.Fatal(err)
	}
	if err := sess.CommitLabel("Dark Reactions"); err != nil {
		t.Fatal(err)
	}

	sess.Reset()

	snapshot := func() (map[string]Point, []Connection, string) {
		pos := make(map[string]Point)
		for _, id := range sess.NodeIDs() {
			pos[id] = sess.Position(id)
		}
		return pos, sess.ManualConnections(), sess.Label("b2")
	}

	pos1, conns1, label1 := snapshot()
	if pos1["b1"] != origB1 {
		t.Errorf("b1 at %v after reset, want %v", pos1["b1"], origB1)
	}
	if len(conns1) != 0 {
		t.Errorf("%d manual connections after reset, want 0", len(conns1))
	}
	if label1 != "Calvin Cycle" {
		t.Errorf("label %q after reset, want original", label1)
	}
	if sess.CanUndo() || sess.CanRedo() {
		t.Error("undo history survived reset")
	}

	sess.Reset()
	pos2, conns2, label2 := snapshot()
	if len(conns2) != 0 || label2 != label1 {
		t.Error("second reset changed state")
	}
	for id, p := range pos1 {
		if pos2[id] != p {
			t.Errorf("node %s moved on second reset: %v vs %v", id, p, pos2[id])
		}
	}
}

func TestResetDoesNotResurrectDeletedNodes(t *testing.T) {
	sess := newTestSession(t)
	if err := sess.DeleteNode("b3"); err != nil {
		t.Fatal(err)
	}
	sess.Reset()
	if sess.Node("b3") != nil {
		t.Error("reset resurrected a deleted node")
	}
}

func TestUndoRedoMove(t *testing.T) {
	sess := newTestSession(t)
	start := sess.Position("c1")

	if err := sess.BeginDrag("c1", start); err != nil {
		t.Fatal(err)
	}
	sess.DragTo(Point{X: start.X + 33, Y: start.Y - 21})
	sess.EndDrag()
	moved := sess.Position("c1")

	sess.Undo()
	if got := sess.Position("c1"); got != start {
		t.Errorf("undo left node at %v, want %v", got, start)
	}
	sess.Redo()
	if got := sess.Position("c1"); got != moved {
		t.Errorf("redo left node at %v, want %v", got, moved)
	}
}

func TestUndoDeleteNodeRestoresEverything(t *testing.T) {
	sess := newTestSession(t)

	if err := sess.BeginConnection("b2", AnchorRight); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.CompleteConnection("b3", AnchorLeft); err != nil {
		t.Fatal(err)
	}

	if err := sess.DeleteNode("b2"); err != nil {
		t.Fatal(err)
	}
	if sess.Node("b2") != nil || len(sess.ManualConnections()) != 0 {
		t.Fatal("delete did not take effect")
	}

	sess.Undo()

	b2 := sess.Node("b2")
	if b2 == nil {
		t.Fatal("undo did not restore the node")
	}
	if len(b2.Children) != 1 || b2.Children[0].ID != "c3" {
		t.Errorf("b2 children %+v, want [c3]", b2.Children)
	}
	if len(sess.ManualConnections()) != 1 {
		t.Error("undo did not restore the cascaded connection")
	}
	// Slot order back to the original.
	got := make([]string, 0, 3)
	for _, c := range sess.Tree().Children {
		got = append(got, c.ID)
	}
	want := []string{"b1", "b2", "b3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("root children %v, want %v", got, want)
		}
	}

	sess.Redo()
	if sess.Node("b2") != nil {
		t.Error("redo did not reapply the delete")
	}
}

func TestLabelEdit(t *testing.T) {
	sess := newTestSession(t)

	text, err := sess.BeginLabelEdit("b1")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Light Reactions" {
		t.Errorf("prefill %q, want original label", text)
	}
	if err := sess.CommitLabel("  Light Stage  "); err != nil {
		t.Fatal(err)
	}
	if got := sess.Label("b1"); got != "Light Stage" {
		t.Errorf("label %q, want trimmed edit", got)
	}
	// The tree node itself keeps the original label.
	if sess.Node("b1").Label != "Light Reactions" {
		t.Error("edit mutated the original label")
	}

	// Editing again prefills with the edit; committing blank reverts nothing.
	text, err = sess.BeginLabelEdit("b1")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Light Stage" {
		t.Errorf("prefill %q, want current edit", text)
	}
	if err := sess.CommitLabel("   "); err != nil {
		t.Fatal(err)
	}
	if got := sess.Label("b1"); got != "Light Stage" {
		t.Errorf("blank commit changed label to %q", got)
	}
	if sess.State() != StateIdle {
		t.Errorf("state %v after commit, want idle", sess.State())
	}
}

func TestNearestAnchorAndHitTest(t *testing.T) {
	sess := newTestSession(t)
	pos := sess.Position("b2")
	size := sess.NodeSize("b2")

	if a := sess.NearestAnchor("b2", Point{X: pos.X + size.W, Y: pos.Y}); a != AnchorRight {
		t.Errorf("anchor %v, want right", a)
	}
	if a := sess.NearestAnchor("b2", Point{X: pos.X, Y: pos.Y - size.H}); a != AnchorTop {
		t.Errorf("anchor %v, want top", a)
	}

	if id, ok := sess.NodeAtWorld(pos); !ok || id != "b2" {
		t.Errorf("hit test at center found %q", id)
	}
	if _, ok := sess.NodeAtWorld(Point{X: pos.X, Y: pos.Y + size.H}); ok {
		t.Error("hit test outside the box found a node")
	}
}

func TestStructuralConnectionsAreDataOnly(t *testing.T) {
	sess := newTestSession(t)
	structural := sess.StructuralConnections()
	if len(structural) != 6 {
		t.Fatalf("%d structural connections, want 6", len(structural))
	}
	for _, c := range structural {
		if c.Manual {
			t.Errorf("structural connection %s marked manual", c.ID)
		}
		if err := sess.DeleteConnection(c.ID); err == nil {
			t.Errorf("structural connection %s deletable", c.ID)
		}
	}
}
