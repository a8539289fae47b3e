package main

// Undo/redo for edit-session mutations. Every committed mutation pushes one
// action carrying enough data to apply it in either direction; reset clears
// both stacks along with everything else.

type editKind int

const (
	editMoveNode editKind = iota
	editAddConnection
	editDeleteConnection
	editLabel
	editDeleteNode
)

type deletedNode struct {
	node      *MindMapNode
	parentID  string
	index     int
	children  []*MindMapNode
	origPos   Point
	customPos Point
	hadCustom bool
	labelEdit string
	hadEdit   bool
	edges     []Connection
}

type editAction struct {
	kind      editKind
	nodeID    string
	from      Point
	to        Point
	conn      Connection
	labelFrom string
	labelTo   string
	hadLabel  bool
	deleted   *deletedNode
}

func (s *Session) recordEdit(a editAction) {
	s.undoStack = append(s.undoStack, a)
	s.redoStack = s.redoStack[:0]
}

// CanUndo reports whether an edit is available to undo.
func (s *Session) CanUndo() bool { return len(s.undoStack) > 0 }

// CanRedo reports whether an undone edit is available to redo.
func (s *Session) CanRedo() bool { return len(s.redoStack) > 0 }

// Undo reverts the most recent committed edit. It is a no-op while an
// interaction is in progress.
func (s *Session) Undo() {
	if s.state != StateIdle || len(s.undoStack) == 0 {
		return
	}
	last := len(s.undoStack) - 1
	a := s.undoStack[last]
	s.undoStack = s.undoStack[:last]

	switch a.kind {
	case editMoveNode:
		s.setOverride(a.nodeID, a.from)
	case editAddConnection:
		s.removeManual(a.conn.ID)
	case editDeleteConnection:
		s.manual = append(s.manual, a.conn)
	case editLabel:
		if a.hadLabel {
			s.contentEdits[a.nodeID] = a.labelFrom
		} else {
			delete(s.contentEdits, a.nodeID)
		}
	case editDeleteNode:
		s.restoreDeleted(a.deleted)
	}

	s.redoStack = append(s.redoStack, a)
}

// Redo reapplies the most recently undone edit.
func (s *Session) Redo() {
	if s.state != StateIdle || len(s.redoStack) == 0 {
		return
	}
	last := len(s.redoStack) - 1
	a := s.redoStack[last]
	s.redoStack = s.redoStack[:last]

	switch a.kind {
	case editMoveNode:
		s.setOverride(a.nodeID, a.to)
	case editAddConnection:
		s.manual = append(s.manual, a.conn)
	case editDeleteConnection:
		s.removeManual(a.conn.ID)
	case editLabel:
		s.contentEdits[a.nodeID] = a.labelTo
	case editDeleteNode:
		s.reapplyDeleted(a.deleted)
	}

	s.undoStack = append(s.undoStack, a)
}

// setOverride stores a position override, dropping it when the position is
// back at the computed layout position.
func (s *Session) setOverride(id string, p Point) {
	if p == s.originalPositions[id] {
		delete(s.customPositions, id)
		return
	}
	s.customPositions[id] = p
}

func (s *Session) removeManual(id string) {
	for i, c := range s.manual {
		if c.ID == id {
			s.manual = append(s.manual[:i], s.manual[i+1:]...)
			return
		}
	}
}

// restoreDeleted reverses a node deletion: its promoted children move back
// under it, the node returns to its slot in the parent, and its position,
// label edit and manual connections come back.
func (s *Session) restoreDeleted(d *deletedNode) {
	parent := s.nodes[d.parentID]
	if parent == nil {
		return
	}
	// The promoted children occupy [index, index+len) in the parent.
	end := d.index + len(d.children)
	rest := append([]*MindMapNode(nil), parent.Children[end:]...)
	parent.Children = append(parent.Children[:d.index], d.node)
	parent.Children = append(parent.Children, rest...)
	d.node.Children = append([]*MindMapNode(nil), d.children...)

	s.originalPositions[d.node.ID] = d.origPos
	if d.hadCustom {
		s.customPositions[d.node.ID] = d.customPos
	}
	if d.hadEdit {
		s.contentEdits[d.node.ID] = d.labelEdit
	}
	s.manual = append(s.manual, d.edges...)

	s.rebuildIndex()
	s.refit()
}

// reapplyDeleted re-runs a node deletion without recording a new action.
func (s *Session) reapplyDeleted(d *deletedNode) {
	parent := s.nodes[d.parentID]
	if parent == nil {
		return
	}
	idx := childIndex(parent, d.node.ID)
	if idx < 0 {
		return
	}
	promoted := append([]*MindMapNode(nil), d.node.Children...)
	parent.Children = append(parent.Children[:idx:idx], append(promoted, parent.Children[idx+1:]...)...)
	d.node.Children = nil

	delete(s.originalPositions, d.node.ID)
	delete(s.customPositions, d.node.ID)
	delete(s.contentEdits, d.node.ID)

	kept := s.manual[:0]
	for _, c := range s.manual {
		if c.From == d.node.ID || c.To == d.node.ID {
			continue
		}
		kept = append(kept, c)
	}
	s.manual = kept

	s.rebuildIndex()
	s.refit()
}
