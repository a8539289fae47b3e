package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
)

// Anchor names one of the four directional connection points on a node.
type Anchor string

const (
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
)

// Connection joins two node anchors. Structural connections mirror the
// original parent-child links; they are kept as data but never rendered once
// the interactive layout is up. Manual connections are user-drawn,
// rendered and deletable.
type Connection struct {
	ID         string
	From       string
	FromAnchor Anchor
	To         string
	ToAnchor   Anchor
	Manual     bool
}

// SessionState is the interaction mode of the edit session. Exactly one is
// active at a time; starting an interaction while another is active is a
// rejected no-op, while cancel always returns to idle from any state.
type SessionState int

const (
	StateIdle SessionState = iota
	StateDragging
	StateConnecting
	StateEditingLabel
)

type dragState struct {
	nodeID  string
	grabDX  float64
	grabDY  float64
	startAt Point
}

type connectState struct {
	fromID     string
	fromAnchor Anchor
}

// Session owns all mutable state of one open mind map: the frozen originals
// from the layout pass, the user's overrides, the manual connections and the
// transient interaction state. Everything lives here rather than in package
// globals so multiple maps can be open at once and tests need no rendering
// surface.
type Session struct {
	tree  *MindMapNode
	nodes map[string]*MindMapNode
	// parent id per node id; order is the stable depth-first draw order.
	parents map[string]string
	order   []string

	sizes             map[string]Size
	originalPositions map[string]Point
	customPositions   map[string]Point
	contentEdits      map[string]string
	structural        []Connection
	manual            []Connection

	transform  Transform
	viewportW  float64
	viewportH  float64
	padding    float64
	multiplier float64

	state   SessionState
	drag    *dragState
	connect *connectState
	editing string

	undoStack []editAction
	redoStack []editAction
}

// Default padding between the fitted content and the viewport edge.
const viewportPadding = 40.0

// NewSession lays out the tree and freezes the result as the reset baseline.
func NewSession(tree *MindMapNode, measurer TextMeasurer, sizeMultiplier float64) (*Session, error) {
	engine := NewLayoutEngine(measurer)
	res, err := engine.Layout(tree)
	if err != nil {
		return nil, err
	}

	s := &Session{
		tree:              tree,
		sizes:             res.Sizes,
		originalPositions: res.Positions,
		customPositions:   make(map[string]Point),
		contentEdits:      make(map[string]string),
		transform:         IdentityTransform(),
		padding:           viewportPadding,
		multiplier:        sizeMultiplier,
	}
	s.rebuildIndex()
	return s, nil
}

// rebuildIndex refreshes the id index, parent links, draw order and the
// structural connection set from the live tree. Called after any tree
// mutation.
func (s *Session) rebuildIndex() {
	s.nodes = make(map[string]*MindMapNode)
	s.parents = make(map[string]string)
	s.order = s.order[:0]
	s.structural = s.structural[:0]

	var walk func(n *MindMapNode)
	walk = func(n *MindMapNode) {
		s.nodes[n.ID] = n
		s.order = append(s.order, n.ID)
		for _, c := range n.Children {
			s.parents[c.ID] = n.ID
			s.structural = append(s.structural, Connection{
				ID:         "tree:" + n.ID + ":" + c.ID,
				From:       n.ID,
				FromAnchor: AnchorBottom,
				To:         c.ID,
				ToAnchor:   AnchorTop,
			})
			walk(c)
		}
	}
	walk(s.tree)
}

func (s *Session) Tree() *MindMapNode  { return s.tree }
func (s *Session) State() SessionState { return s.state }
func (s *Session) NodeIDs() []string   { return append([]string(nil), s.order...) }

func (s *Session) Node(id string) *MindMapNode { return s.nodes[id] }

// Position returns the effective world position of a node: the drag override
// if one exists, otherwise the computed layout position.
func (s *Session) Position(id string) Point {
	if p, ok := s.customPositions[id]; ok {
		return p
	}
	return s.originalPositions[id]
}

func (s *Session) NodeSize(id string) Size { return s.sizes[id] }

// NodeRect is the node's world-space bounding rectangle.
func (s *Session) NodeRect(id string) Rect {
	return RectAround(s.Position(id), s.sizes[id])
}

// Label returns the effective label: the in-session edit if present,
// otherwise the original.
func (s *Session) Label(id string) string {
	if l, ok := s.contentEdits[id]; ok {
		return l
	}
	if n := s.nodes[id]; n != nil {
		return n.Label
	}
	return ""
}

func (s *Session) Transform() Transform { return s.transform }

// SetViewport records the viewport size and refits the content into it.
func (s *Session) SetViewport(w, h float64) {
	s.viewportW = w
	s.viewportH = h
	s.refit()
}

// refit recomputes the transform from the current bounding box. It runs when
// the viewport changes and whenever the set of visible nodes changes; it is
// deliberately not run during a drag, where the transform must stay put.
func (s *Session) refit() {
	if s.viewportW <= 0 || s.viewportH <= 0 {
		return
	}
	s.transform = FitToViewport(s.currentBounds(), s.viewportW, s.viewportH, s.padding, s.multiplier)
}

// currentBounds is the bounding box over every live node at its effective
// position.
func (s *Session) currentBounds() Rect {
	first := true
	var box Rect
	for _, id := range s.order {
		r := s.NodeRect(id)
		if first {
			box = r
			first = false
			continue
		}
		box = box.Union(r)
	}
	return box
}

// viewportWorldBounds is the padded viewport rectangle mapped back into
// world space; dragged nodes are clamped into it.
func (s *Session) viewportWorldBounds() (Rect, bool) {
	if s.viewportW <= 0 || s.viewportH <= 0 {
		return Rect{}, false
	}
	screen := Rect{
		X: s.padding,
		Y: s.padding,
		W: s.viewportW - 2*s.padding,
		H: s.viewportH - 2*s.padding,
	}
	return s.transform.WorldRect(screen), true
}

// BeginDrag starts dragging a node. pointer is the grab point in world
// coordinates; the offset between it and the node center is preserved for
// the whole drag so the node does not jump under the pointer.
func (s *Session) BeginDrag(id string, pointer Point) error {
	if s.state != StateIdle {
		return fmt.Errorf("cannot start drag while %v", s.state)
	}
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("unknown node %q", id)
	}
	pos := s.Position(id)
	s.drag = &dragState{
		nodeID:  id,
		grabDX:  pointer.X - pos.X,
		grabDY:  pointer.Y - pos.Y,
		startAt: pos,
	}
	s.state = StateDragging
	return nil
}

// DragTo moves the dragged node to follow the pointer, clamped so the node's
// full extent stays inside the viewport's world-space bounds.
func (s *Session) DragTo(pointer Point) {
	if s.state != StateDragging || s.drag == nil {
		return
	}
	pos := Point{X: pointer.X - s.drag.grabDX, Y: pointer.Y - s.drag.grabDY}
	size := s.sizes[s.drag.nodeID]
	if bounds, ok := s.viewportWorldBounds(); ok {
		r := ClampRectInto(RectAround(pos, size), bounds)
		pos = r.Center()
	}
	s.customPositions[s.drag.nodeID] = pos
}

// EndDrag commits the drag and returns to idle.
func (s *Session) EndDrag() {
	if s.state != StateDragging || s.drag == nil {
		return
	}
	end := s.Position(s.drag.nodeID)
	if end != s.drag.startAt {
		s.recordEdit(editAction{
			kind:   editMoveNode,
			nodeID: s.drag.nodeID,
			from:   s.drag.startAt,
			to:     end,
		})
	}
	s.drag = nil
	s.state = StateIdle
}

// DraggedNode reports the node being dragged, if any.
func (s *Session) DraggedNode() (string, bool) {
	if s.state == StateDragging && s.drag != nil {
		return s.drag.nodeID, true
	}
	return "", false
}

// BeginConnection starts drawing a manual connection from a node anchor.
func (s *Session) BeginConnection(id string, anchor Anchor) error {
	if s.state != StateIdle {
		return fmt.Errorf("cannot start connection while %v", s.state)
	}
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("unknown node %q", id)
	}
	s.connect = &connectState{fromID: id, fromAnchor: anchor}
	s.state = StateConnecting
	return nil
}

// PendingConnection reports the source of the connection being drawn.
func (s *Session) PendingConnection() (string, Anchor, bool) {
	if s.state == StateConnecting && s.connect != nil {
		return s.connect.fromID, s.connect.fromAnchor, true
	}
	return "", "", false
}

// CompleteConnection commits the pending connection onto a target anchor.
// Exact duplicates of an existing manual connection are rejected, as is
// connecting a node to itself.
func (s *Session) CompleteConnection(toID string, toAnchor Anchor) (Connection, error) {
	if s.state != StateConnecting || s.connect == nil {
		return Connection{}, fmt.Errorf("no connection in progress")
	}
	if _, ok := s.nodes[toID]; !ok {
		return Connection{}, fmt.Errorf("unknown node %q", toID)
	}
	if toID == s.connect.fromID {
		return Connection{}, &ValidationError{Msg: "cannot connect a node to itself"}
	}
	for _, c := range s.manual {
		if c.From == s.connect.fromID && c.FromAnchor == s.connect.fromAnchor &&
			c.To == toID && c.ToAnchor == toAnchor {
			return Connection{}, &ValidationError{Msg: "connection already exists"}
		}
	}
	conn := Connection{
		ID:         uuid.NewString(),
		From:       s.connect.fromID,
		FromAnchor: s.connect.fromAnchor,
		To:         toID,
		ToAnchor:   toAnchor,
		Manual:     true,
	}
	s.manual = append(s.manual, conn)
	s.recordEdit(editAction{kind: editAddConnection, conn: conn})
	s.connect = nil
	s.state = StateIdle
	return conn, nil
}

// CancelInteraction is the single exit path out of any transient state. A
// drag in progress reverts to its start position; a pending connection or
// label edit is dropped without committing.
func (s *Session) CancelInteraction() {
	if s.state == StateDragging && s.drag != nil {
		if s.drag.startAt == s.originalPositions[s.drag.nodeID] {
			delete(s.customPositions, s.drag.nodeID)
		} else {
			s.customPositions[s.drag.nodeID] = s.drag.startAt
		}
	}
	s.drag = nil
	s.connect = nil
	s.editing = ""
	s.state = StateIdle
}

// BeginLabelEdit opens an inline edit of a node label and returns the
// current (possibly already edited) text for prefilling.
func (s *Session) BeginLabelEdit(id string) (string, error) {
	if s.state != StateIdle {
		return "", fmt.Errorf("cannot edit label while %v", s.state)
	}
	if _, ok := s.nodes[id]; !ok {
		return "", fmt.Errorf("unknown node %q", id)
	}
	s.editing = id
	s.state = StateEditingLabel
	return s.Label(id), nil
}

// CommitLabel stores the trimmed text as the node's label. An empty result
// reverts to the prior label without recording a mutation.
func (s *Session) CommitLabel(text string) error {
	if s.state != StateEditingLabel || s.editing == "" {
		return fmt.Errorf("no label edit in progress")
	}
	id := s.editing
	s.editing = ""
	s.state = StateIdle

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == s.Label(id) {
		return nil
	}
	prev, hadPrev := s.contentEdits[id]
	s.contentEdits[id] = trimmed
	s.recordEdit(editAction{
		kind:      editLabel,
		nodeID:    id,
		labelFrom: prev,
		hadLabel:  hadPrev,
		labelTo:   trimmed,
	})
	return nil
}

// EditingNode reports which node's label is being edited, if any.
func (s *Session) EditingNode() (string, bool) {
	if s.state == StateEditingLabel {
		return s.editing, true
	}
	return "", false
}

// DeleteNode removes a node: its overrides and originals are purged, every
// manual connection touching it is cascaded away, and its children are
// promoted into its parent's child list at its former slot. The root is
// undeletable.
func (s *Session) DeleteNode(id string) error {
	if s.state != StateIdle {
		return fmt.Errorf("cannot delete node while %v", s.state)
	}
	if id == s.tree.ID {
		return &ValidationError{Msg: "the root node cannot be deleted"}
	}
	node, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("unknown node %q", id)
	}

	parent := s.nodes[s.parents[id]]
	idx := childIndex(parent, id)

	var removedEdges []Connection
	kept := s.manual[:0]
	for _, c := range s.manual {
		if c.From == id || c.To == id {
			removedEdges = append(removedEdges, c)
			continue
		}
		kept = append(kept, c)
	}
	s.manual = kept

	snap := deletedNode{
		node:        node,
		parentID:    parent.ID,
		index:       idx,
		children:    append([]*MindMapNode(nil), node.Children...),
		origPos:     s.originalPositions[id],
		edges:       removedEdges,
		customPos:   s.customPositions[id],
		hadCustom:   hasKey(s.customPositions, id),
		labelEdit:   s.contentEdits[id],
		hadEdit:     hasKey(s.contentEdits, id),
	}

	// Promote children into the parent's list where the node used to be.
	promoted := append([]*MindMapNode(nil), node.Children...)
	parent.Children = append(parent.Children[:idx:idx], append(promoted, parent.Children[idx+1:]...)...)
	node.Children = nil

	delete(s.originalPositions, id)
	delete(s.customPositions, id)
	delete(s.contentEdits, id)

	s.rebuildIndex()
	s.recordEdit(editAction{kind: editDeleteNode, deleted: &snap})
	s.refit()
	return nil
}

func childIndex(parent *MindMapNode, id string) int {
	for i, c := range parent.Children {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func hasKey[V any](m map[string]V, k string) bool {
	_, ok := m[k]
	return ok
}

// DeleteConnection removes a manual connection. Structural connections are
// not rendered and cannot be deleted.
func (s *Session) DeleteConnection(id string) error {
	for i, c := range s.manual {
		if c.ID == id {
			s.manual = append(s.manual[:i], s.manual[i+1:]...)
			s.recordEdit(editAction{kind: editDeleteConnection, conn: c})
			return nil
		}
	}
	return fmt.Errorf("unknown connection %q", id)
}

// ManualConnections returns the rendered (user-drawn) connections.
func (s *Session) ManualConnections() []Connection {
	return append([]Connection(nil), s.manual...)
}

// StructuralConnections returns the original parent-child links. They are
// kept as data only; the render model does not draw them.
func (s *Session) StructuralConnections() []Connection {
	return append([]Connection(nil), s.structural...)
}

// Reset discards every in-session edit: overrides, label edits and manual
// connections go away and each surviving node returns to its computed
// layout position. Calling it twice is the same as calling it once.
func (s *Session) Reset() {
	s.CancelInteraction()
	s.customPositions = make(map[string]Point)
	s.contentEdits = make(map[string]string)
	s.manual = nil
	s.undoStack = nil
	s.redoStack = nil
	s.refit()
}

// AnchorPoint is the world position of one of a node's four anchors.
func (s *Session) AnchorPoint(id string, anchor Anchor) Point {
	pos := s.Position(id)
	size := s.sizes[id]
	switch anchor {
	case AnchorLeft:
		return Point{X: pos.X - size.W/2, Y: pos.Y}
	case AnchorRight:
		return Point{X: pos.X + size.W/2, Y: pos.Y}
	case AnchorTop:
		return Point{X: pos.X, Y: pos.Y - size.H/2}
	default:
		return Point{X: pos.X, Y: pos.Y + size.H/2}
	}
}

// NearestAnchor picks the node anchor closest to a world point, used to snap
// the connection preview while the pointer hovers a node.
func (s *Session) NearestAnchor(id string, p Point) Anchor {
	best := AnchorLeft
	bestDist := math.Inf(1)
	for _, a := range []Anchor{AnchorLeft, AnchorRight, AnchorTop, AnchorBottom} {
		ap := s.AnchorPoint(id, a)
		d := math.Hypot(ap.X-p.X, ap.Y-p.Y)
		if d < bestDist {
			bestDist = d
			best = a
		}
	}
	return best
}

// EdgePath returns the cubic bezier of a connection: both endpoints and the
// two control points. Curvature grows with the horizontal distance between
// the anchors.
func (s *Session) EdgePath(c Connection) (p0, c0, c1, p1 Point) {
	p0 = s.AnchorPoint(c.From, c.FromAnchor)
	p1 = s.AnchorPoint(c.To, c.ToAnchor)
	offset := math.Max(60, 0.35*math.Abs(p1.X-p0.X))
	c0 = controlPoint(p0, c.FromAnchor, offset)
	c1 = controlPoint(p1, c.ToAnchor, offset)
	return p0, c0, c1, p1
}

func controlPoint(p Point, a Anchor, offset float64) Point {
	switch a {
	case AnchorLeft:
		return Point{X: p.X - offset, Y: p.Y}
	case AnchorRight:
		return Point{X: p.X + offset, Y: p.Y}
	case AnchorTop:
		return Point{X: p.X, Y: p.Y - offset}
	default:
		return Point{X: p.X, Y: p.Y + offset}
	}
}

// EdgeMidpoint approximates the visual middle of a connection, where its
// delete control sits.
func (s *Session) EdgeMidpoint(c Connection) Point {
	p0, c0, c1, p1 := s.EdgePath(c)
	// Cubic bezier at t=0.5.
	x := (p0.X + 3*c0.X + 3*c1.X + p1.X) / 8
	y := (p0.Y + 3*c0.Y + 3*c1.Y + p1.Y) / 8
	return Point{X: x, Y: y}
}

// NodeAtWorld hit-tests a world point against node rectangles, preferring
// the most recently drawn node.
func (s *Session) NodeAtWorld(p Point) (string, bool) {
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		if s.NodeRect(id).Contains(p) {
			return id, true
		}
	}
	return "", false
}

// ConnectionNear finds the manual connection whose midpoint lies within
// radius of a world point.
func (s *Session) ConnectionNear(p Point, radius float64) (Connection, bool) {
	best := Connection{}
	bestDist := radius
	found := false
	for _, c := range s.manual {
		mid := s.EdgeMidpoint(c)
		d := math.Hypot(mid.X-p.X, mid.Y-p.Y)
		if d <= bestDist {
			best = c
			bestDist = d
			found = true
		}
	}
	return best, found
}
