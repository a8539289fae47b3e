package main

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// The render model: paints the session's nodes and manual connections onto a
// rune grid sized to the viewport. Each node is drawn exactly once per id
// from the session's stable draw order; a repaint after any mutation always
// reflects the latest committed positions. Structural (original) connections
// are data only and are never drawn here.

type cellStyle byte

const (
	styleNone cellStyle = iota
	styleRoot
	styleBranch
	styleSelected
	styleEdge
	styleAnchor
	stylePreview
	styleHandle
)

func styleCode(s cellStyle) string {
	switch s {
	case styleRoot:
		return "\033[1;35m"
	case styleBranch:
		return "\033[36m"
	case styleSelected:
		return "\033[1;33m"
	case styleEdge:
		return "\033[32m"
	case styleAnchor:
		return "\033[1;36m"
	case stylePreview:
		return "\033[2;32m"
	case styleHandle:
		return "\033[1;31m"
	default:
		return ""
	}
}

// RenderOptions selects the transient decorations for one frame.
type RenderOptions struct {
	CursorX int
	CursorY int
	// HoverNode shows that node's four anchors; anchors are otherwise
	// hidden.
	HoverNode string
	// SelectedNode is drawn with an emphasized border (the node being moved
	// or targeted).
	SelectedNode string
	// PreviewToCursor draws the in-progress connection from the session's
	// pending source anchor to the cursor.
	PreviewToCursor bool
	// PreviewSnapNode snaps the preview endpoint onto that node's anchor
	// nearest the cursor, matching where CompleteConnection would attach.
	PreviewSnapNode string
	// HoverEdge marks that connection's midpoint delete handle.
	HoverEdge string
	// EditText, when non-empty together with the session's editing node,
	// replaces that node's label with the live input.
	EditText string
}

// Canvas renders one frame of the mind map into terminal cells.
type Canvas struct {
	width  int
	height int
	grid   [][]rune
	styles [][]cellStyle
}

func NewCanvas(width, height int) *Canvas {
	c := &Canvas{width: width, height: height}
	c.grid = make([][]rune, height)
	c.styles = make([][]cellStyle, height)
	for y := 0; y < height; y++ {
		c.grid[y] = make([]rune, width)
		c.styles[y] = make([]cellStyle, width)
		for x := 0; x < width; x++ {
			c.grid[y][x] = ' '
		}
	}
	return c
}

// CellToWorld converts a cell coordinate to the world point at its center.
func CellToWorld(sess *Session, cx, cy int) Point {
	screen := Point{X: (float64(cx) + 0.5) * cellWidth, Y: (float64(cy) + 0.5) * cellHeight}
	return sess.Transform().ScreenToWorld(screen)
}

// NodeAtCell hit-tests the cursor cell against node rectangles.
func NodeAtCell(sess *Session, cx, cy int) (string, bool) {
	return sess.NodeAtWorld(CellToWorld(sess, cx, cy))
}

// EdgeAtCell finds a manual connection whose midpoint is within two cells of
// the cursor.
func EdgeAtCell(sess *Session, cx, cy int) (Connection, bool) {
	t := sess.Transform()
	if t.Scale <= 0 {
		return Connection{}, false
	}
	radius := 2 * cellWidth / t.Scale
	return sess.ConnectionNear(CellToWorld(sess, cx, cy), radius)
}

// nodeCellRect is the node's on-screen rectangle in cells, clamped to a
// minimum drawable box.
func nodeCellRect(sess *Session, id string) (x, y, w, h int) {
	r := sess.Transform().ScreenRect(sess.NodeRect(id))
	x = int(r.X / cellWidth)
	y = int(r.Y / cellHeight)
	w = int(r.W/cellWidth + 0.5)
	h = int(r.H/cellHeight + 0.5)
	if w < 4 {
		w = 4
	}
	if h < 3 {
		h = 3
	}
	return x, y, w, h
}

func anchorCell(sess *Session, id string, a Anchor) (int, int) {
	x, y, w, h := nodeCellRect(sess, id)
	switch a {
	case AnchorLeft:
		return x, y + h/2
	case AnchorRight:
		return x + w - 1, y + h/2
	case AnchorTop:
		return x + w/2, y
	default:
		return x + w/2, y + h - 1
	}
}

// Render paints one frame and returns it line by line.
func (c *Canvas) Render(sess *Session, opts RenderOptions) []string {
	for _, conn := range sess.ManualConnections() {
		c.drawEdge(sess, conn, conn.ID == opts.HoverEdge)
	}

	if opts.PreviewToCursor {
		if fromID, fromAnchor, ok := sess.PendingConnection(); ok {
			fx, fy := anchorCell(sess, fromID, fromAnchor)
			tx, ty := previewTarget(sess, opts)
			c.drawElbow(fx, fy, tx, ty, stylePreview)
		}
	}

	for _, id := range sess.NodeIDs() {
		c.drawNode(sess, id, opts)
	}

	if opts.HoverNode != "" {
		c.drawAnchors(sess, opts.HoverNode)
	}

	if opts.CursorX >= 0 && opts.CursorY >= 0 {
		c.set(opts.CursorX, opts.CursorY, '▮', styleSelected)
	}

	return c.lines()
}

func (c *Canvas) drawNode(sess *Session, id string, opts RenderOptions) {
	x, y, w, h := nodeCellRect(sess, id)

	node := sess.Node(id)
	style := styleNone
	switch {
	case id == opts.SelectedNode:
		style = styleSelected
	case node != nil && node.Kind == KindRoot:
		style = styleRoot
	case node != nil && node.Kind == KindBranch:
		style = styleBranch
	}

	hc, vc, cc := '-', '|', '+'
	if id == opts.SelectedNode {
		hc, vc, cc = '#', '#', '#'
	}

	// Clear the interior so the box occludes edges passing underneath.
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			c.set(xx, yy, ' ', style)
		}
	}
	for xx := x; xx < x+w; xx++ {
		c.set(xx, y, hc, style)
		c.set(xx, y+h-1, hc, style)
	}
	for yy := y; yy < y+h; yy++ {
		c.set(x, yy, vc, style)
		c.set(x+w-1, yy, vc, style)
	}
	c.set(x, y, cc, style)
	c.set(x+w-1, y, cc, style)
	c.set(x, y+h-1, cc, style)
	c.set(x+w-1, y+h-1, cc, style)

	label := sess.Label(id)
	if editID, ok := sess.EditingNode(); ok && editID == id && opts.EditText != "" {
		label = opts.EditText
	}
	inner := w - 2
	if inner < 1 {
		return
	}
	lines := wrapLabel(label, inner)
	maxLines := h - 2
	for i, line := range lines {
		if i >= maxLines {
			break
		}
		line = runewidth.Truncate(line, inner, "…")
		pad := (inner - runewidth.StringWidth(line)) / 2
		cx := x + 1 + pad
		for _, r := range line {
			c.set(cx, y+1+i, r, style)
			cx += runewidth.RuneWidth(r)
		}
	}
}

// previewTarget resolves the endpoint of the in-progress connection preview:
// the hovered target node's anchor nearest the cursor, or the raw cursor
// cell when no target is hovered. Hovering the source node never snaps.
func previewTarget(sess *Session, opts RenderOptions) (int, int) {
	if opts.PreviewSnapNode != "" {
		if fromID, _, ok := sess.PendingConnection(); ok && opts.PreviewSnapNode != fromID {
			a := sess.NearestAnchor(opts.PreviewSnapNode, CellToWorld(sess, opts.CursorX, opts.CursorY))
			return anchorCell(sess, opts.PreviewSnapNode, a)
		}
	}
	return opts.CursorX, opts.CursorY
}

func (c *Canvas) drawAnchors(sess *Session, id string) {
	for _, a := range []Anchor{AnchorLeft, AnchorRight, AnchorTop, AnchorBottom} {
		ax, ay := anchorCell(sess, id, a)
		c.set(ax, ay, 'o', styleAnchor)
	}
}

func (c *Canvas) drawEdge(sess *Session, conn Connection, hovered bool) {
	fx, fy := anchorCell(sess, conn.From, conn.FromAnchor)
	tx, ty := anchorCell(sess, conn.To, conn.ToAnchor)
	c.drawElbow(fx, fy, tx, ty, styleEdge)

	// Midpoint handle, where the delete control lives.
	mx, my := (fx+tx)/2, (fy+ty)/2
	handle := 'o'
	style := styleEdge
	if hovered {
		handle = 'x'
		style = styleHandle
	}
	c.set(mx, my, handle, style)
}

// drawElbow draws an axis-aligned approximation of the curve: along the
// longer axis first, one corner, then in.
func (c *Canvas) drawElbow(x0, y0, x1, y1 int, style cellStyle) {
	if abs(x1-x0) >= abs(y1-y0) {
		c.drawHorizontal(x0, x1, y0, style)
		c.drawVertical(y0, y1, x1, style)
		if y0 != y1 {
			c.set(x1, y0, '+', style)
		}
	} else {
		c.drawVertical(y0, y1, x0, style)
		c.drawHorizontal(x0, x1, y1, style)
		if x0 != x1 {
			c.set(x0, y1, '+', style)
		}
	}
}

func (c *Canvas) drawHorizontal(x0, x1, y int, style cellStyle) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		c.setIfEmpty(x, y, '-', style)
	}
}

func (c *Canvas) drawVertical(y0, y1, x int, style cellStyle) {
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.setIfEmpty(x, y, '|', style)
	}
}

func (c *Canvas) set(x, y int, r rune, style cellStyle) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.grid[y][x] = r
	c.styles[y][x] = style
}

// setIfEmpty only paints blank cells, so edges never punch through boxes.
func (c *Canvas) setIfEmpty(x, y int, r rune, style cellStyle) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	if c.grid[y][x] != ' ' {
		return
	}
	c.grid[y][x] = r
	c.styles[y][x] = style
}

// lines assembles the grid into strings, wrapping styled runs in ANSI codes.
func (c *Canvas) lines() []string {
	out := make([]string, c.height)
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		b.Reset()
		current := styleNone
		for x := 0; x < c.width; x++ {
			s := c.styles[y][x]
			if s != current {
				if current != styleNone {
					b.WriteString("\033[0m")
				}
				if s != styleNone {
					b.WriteString(styleCode(s))
				}
				current = s
			}
			b.WriteRune(c.grid[y][x])
		}
		if current != styleNone {
			b.WriteString("\033[0m")
		}
		out[y] = b.String()
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
