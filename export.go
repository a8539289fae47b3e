package main

import (
	"fmt"
	"os"
	"time"

	svg "github.com/ajstarks/svgo"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"
)

// Exports draw from the session's current state: edited labels, moved nodes,
// manual connections. Structural connections stay undrawn, same as on
// screen.

const (
	exportMargin   = 40.0
	exportFontSize = 14.0
	exportLineGap  = 18.0
	boxCornerR     = 8.0
)

func exportFilename(ext string) string {
	return fmt.Sprintf("mindmap-%s.%s", time.Now().Format("20060102-150405"), ext)
}

// fontMeasurer sizes labels with real font metrics, for layouts rendered
// straight to an image without passing through the terminal grid.
type fontMeasurer struct {
	dc *gg.Context
}

func NewFontMeasurer() (TextMeasurer, error) {
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("loading export font: %w", err)
	}
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: exportFontSize}))
	return &fontMeasurer{dc: dc}, nil
}

func (m *fontMeasurer) Measure(label string) Size {
	lines := wrapLabel(label, labelWrapCols)
	maxW := 0.0
	for _, line := range lines {
		if w, _ := m.dc.MeasureString(line); w > maxW {
			maxW = w
		}
	}
	if maxW < exportFontSize {
		maxW = exportFontSize
	}
	// Horizontal padding and room for the border above and below the text.
	return Size{W: maxW + 32, H: float64(len(lines))*exportLineGap + 24}
}

// exportBounds is the union of node rects and manual edge midpoints, padded.
func exportBounds(sess *Session) Rect {
	var bounds Rect
	first := true
	for _, id := range sess.NodeIDs() {
		r := sess.NodeRect(id)
		if first {
			bounds = r
			first = false
		} else {
			bounds = bounds.Union(r)
		}
	}
	for _, conn := range sess.ManualConnections() {
		mid := sess.EdgeMidpoint(conn)
		bounds = bounds.Union(Rect{X: mid.X, Y: mid.Y, W: 1, H: 1})
	}
	return bounds.Expand(exportMargin)
}

func nodeFillStroke(kind NodeKind) (fill, stroke [3]float64) {
	switch kind {
	case KindRoot:
		return [3]float64{0.93, 0.87, 0.96}, [3]float64{0.55, 0.27, 0.68}
	case KindBranch:
		return [3]float64{0.88, 0.95, 0.97}, [3]float64{0.15, 0.47, 0.59}
	default:
		return [3]float64{0.96, 0.96, 0.96}, [3]float64{0.45, 0.45, 0.45}
	}
}

// ExportPNG renders the session to a PNG file at 1 world unit per pixel.
func ExportPNG(sess *Session, path string) error {
	bounds := exportBounds(sess)
	w, h := int(bounds.W), int(bounds.H)
	if w < 1 || h < 1 {
		return fmt.Errorf("nothing to export")
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Translate(-bounds.X, -bounds.Y)

	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return fmt.Errorf("loading export font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: exportFontSize}))

	dc.SetLineWidth(2)
	dc.SetRGB(0.2, 0.55, 0.3)
	for _, conn := range sess.ManualConnections() {
		p0, c0, c1, p1 := sess.EdgePath(conn)
		dc.MoveTo(p0.X, p0.Y)
		dc.CubicTo(c0.X, c0.Y, c1.X, c1.Y, p1.X, p1.Y)
		dc.Stroke()
	}

	for _, id := range sess.NodeIDs() {
		node := sess.Node(id)
		r := sess.NodeRect(id)
		fill, stroke := nodeFillStroke(node.Kind)

		dc.SetRGB(fill[0], fill[1], fill[2])
		dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, boxCornerR)
		dc.FillPreserve()
		dc.SetRGB(stroke[0], stroke[1], stroke[2])
		dc.Stroke()

		dc.SetRGB(0.1, 0.1, 0.1)
		lines := wrapLabel(sess.Label(id), labelWrapCols)
		startY := r.Y + r.H/2 - exportLineGap*float64(len(lines)-1)/2
		for i, line := range lines {
			dc.DrawStringAnchored(line, r.X+r.W/2, startY+float64(i)*exportLineGap, 0.5, 0.5)
		}
	}

	return dc.SavePNG(path)
}

// ExportSVG renders the session to an SVG file.
func ExportSVG(sess *Session, path string) error {
	bounds := exportBounds(sess)
	w, h := int(bounds.W), int(bounds.H)
	if w < 1 || h < 1 {
		return fmt.Errorf("nothing to export")
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	canvas := svg.New(file)
	canvas.Startview(w, h, int(bounds.X), int(bounds.Y), w, h)
	defer canvas.End()

	canvas.Rect(int(bounds.X), int(bounds.Y), w, h, "fill:white")

	for _, conn := range sess.ManualConnections() {
		p0, c0, c1, p1 := sess.EdgePath(conn)
		d := fmt.Sprintf("M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f",
			p0.X, p0.Y, c0.X, c0.Y, c1.X, c1.Y, p1.X, p1.Y)
		canvas.Path(d, "fill:none;stroke:#338a4d;stroke-width:2")
	}

	for _, id := range sess.NodeIDs() {
		node := sess.Node(id)
		r := sess.NodeRect(id)
		fill, stroke := nodeFillStroke(node.Kind)
		boxStyle := fmt.Sprintf("fill:rgb(%d,%d,%d);stroke:rgb(%d,%d,%d);stroke-width:2",
			int(fill[0]*255), int(fill[1]*255), int(fill[2]*255),
			int(stroke[0]*255), int(stroke[1]*255), int(stroke[2]*255))
		canvas.Roundrect(int(r.X), int(r.Y), int(r.W), int(r.H), int(boxCornerR), int(boxCornerR), boxStyle)

		lines := wrapLabel(sess.Label(id), labelWrapCols)
		startY := r.Y + r.H/2 - exportLineGap*float64(len(lines)-1)/2
		for i, line := range lines {
			canvas.Text(int(r.X+r.W/2), int(startY+float64(i)*exportLineGap),
				line, "font-family:monospace;font-size:14px;text-anchor:middle;dominant-baseline:middle")
		}
	}

	return nil
}

// ExportDigest writes the map's text outline to a file.
func ExportDigest(sess *Session, path string) error {
	return os.WriteFile(path, []byte(sess.Tree().Digest()+"\n"), 0644)
}

// SaveMapJSON writes the raw generation payload so the headless commands can
// re-render it later.
func SaveMapJSON(gen *GeneratedMap, path string) error {
	return os.WriteFile(path, gen.Raw, 0644)
}

// LoadMapJSON reads a saved payload back into a tree.
func LoadMapJSON(path string) (*MindMapNode, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMindMap(raw)
}
