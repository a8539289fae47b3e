package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeKind distinguishes the root, its direct children and everything deeper.
type NodeKind int

const (
	KindRoot NodeKind = iota
	KindBranch
	KindSub
)

// RootID is the synthesized id of the tree root. The backend sends the root
// as a bare label, not as an entry in the nodes array.
const RootID = "root"

// MindMapNode is one node of the generated tree. Ids are unique across the
// whole tree and every node has exactly one parent in the original
// structure.
type MindMapNode struct {
	ID          string
	Label       string
	Explanation string
	Kind        NodeKind
	Children    []*MindMapNode
}

// mindMapData is the wire shape under mind_map.mind_map_data in the
// generation response: a root label plus a flattened list of branch nodes
// with parent links, each of which may carry nested children.
type mindMapData struct {
	Root  string     `json:"root"`
	Nodes []wireNode `json:"nodes"`
}

type wireNode struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Explanation string     `json:"explanation,omitempty"`
	Parent      string     `json:"parent,omitempty"`
	Children    []wireNode `json:"children,omitempty"`
}

// ParseMindMap decodes and validates a mind_map_data payload. It fails fast
// on structural faults (missing root, empty nodes, duplicate ids, unknown
// parent references) rather than building a partial tree.
func ParseMindMap(raw []byte) (*MindMapNode, error) {
	var data mindMapData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &DataError{Msg: fmt.Sprintf("malformed mind map payload: %v", err)}
	}
	return BuildTree(data)
}

// BuildTree assembles the tree from the decoded wire data.
func BuildTree(data mindMapData) (*MindMapNode, error) {
	if strings.TrimSpace(data.Root) == "" {
		return nil, &DataError{Msg: "mind map has no root"}
	}
	if len(data.Nodes) == 0 {
		return nil, &DataError{Msg: "mind map has no nodes"}
	}

	root := &MindMapNode{ID: RootID, Label: data.Root, Kind: KindRoot}
	seen := map[string]*MindMapNode{RootID: root}

	// First pass: convert every top-level entry and its nested children,
	// registering ids, so parent links may reference entries defined later.
	converted := make([]*MindMapNode, len(data.Nodes))
	for i, wn := range data.Nodes {
		node, err := convertWireNode(wn, seen)
		if err != nil {
			return nil, err
		}
		converted[i] = node
	}

	// Second pass: attach by parent link, preserving payload order.
	for i, wn := range data.Nodes {
		parentID := wn.Parent
		if parentID == "" {
			parentID = RootID
		}
		parent, ok := seen[parentID]
		if !ok {
			return nil, &DataError{Msg: fmt.Sprintf("node %q references unknown parent %q", wn.ID, wn.Parent)}
		}
		parent.Children = append(parent.Children, converted[i])
	}

	assignKinds(root, 0)
	return root, nil
}

func convertWireNode(wn wireNode, seen map[string]*MindMapNode) (*MindMapNode, error) {
	if strings.TrimSpace(wn.ID) == "" {
		return nil, &DataError{Msg: fmt.Sprintf("node %q has no id", wn.Label)}
	}
	if _, dup := seen[wn.ID]; dup {
		return nil, &DataError{Msg: fmt.Sprintf("duplicate node id %q", wn.ID)}
	}
	node := &MindMapNode{ID: wn.ID, Label: wn.Label, Explanation: wn.Explanation}
	seen[wn.ID] = node
	for _, cw := range wn.Children {
		child, err := convertWireNode(cw, seen)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

func assignKinds(n *MindMapNode, depth int) {
	switch depth {
	case 0:
		n.Kind = KindRoot
	case 1:
		n.Kind = KindBranch
	default:
		n.Kind = KindSub
	}
	for _, c := range n.Children {
		assignKinds(c, depth+1)
	}
}

// Walk visits the subtree depth-first in child order.
func (n *MindMapNode) Walk(fn func(node *MindMapNode, depth int)) {
	n.walk(fn, 0)
}

func (n *MindMapNode) walk(fn func(node *MindMapNode, depth int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the subtree including n itself.
func (n *MindMapNode) Count() int {
	total := 0
	n.Walk(func(*MindMapNode, int) { total++ })
	return total
}

// Find returns the node with the given id, or nil.
func (n *MindMapNode) Find(id string) *MindMapNode {
	var found *MindMapNode
	n.Walk(func(node *MindMapNode, _ int) {
		if node.ID == id {
			found = node
		}
	})
	return found
}

// Digest serializes the tree to the flat textual outline pushed into the
// chat transcript: root label first, then one depth-first line per node
// indented two spaces per level. It always reflects the original labels,
// never in-session edits.
func (n *MindMapNode) Digest() string {
	var b strings.Builder
	n.Walk(func(node *MindMapNode, depth int) {
		if depth == 0 {
			b.WriteString(node.Label)
			b.WriteString("\n")
			return
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
		b.WriteString(node.Label)
		if node.Explanation != "" {
			b.WriteString(": ")
			b.WriteString(node.Explanation)
		}
		b.WriteString("\n")
	})
	return b.String()
}
