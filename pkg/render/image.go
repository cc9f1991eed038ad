package render

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/fogleman/gg"

	"github.com/arbormap/arbor/pkg/tree"
)

// RenderPNG rasterizes the tree to a PNG image of the given dimensions.
func RenderPNG(t *tree.Tree, width, height int) ([]byte, error) {
	dc := drawTree(t, width, height)
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderJPEG rasterizes the tree to a JPEG image with the given quality
// (1-100).
func RenderJPEG(t *tree.Tree, width, height, quality int) ([]byte, error) {
	dc := drawTree(t, width, height)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// drawTree paints the full diagram onto a fresh drawing context:
// white background, marriage lines, bezier child connectors, cards.
func drawTree(t *tree.Tree, width, height int) *gg.Context {
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if len(t.Persons) == 0 {
		dc.SetRGB(0, 0, 0)
		dc.DrawString("Empty Family Tree", 50, 50)
		return dc
	}

	v := fitViewport(t, float64(width), float64(height))

	dc.SetHexColor(colorEdge)
	dc.SetLineWidth(2)
	for _, m := range sortedMarriages(t) {
		p1, ok1 := t.Persons[m.Spouse1ID]
		p2, ok2 := t.Persons[m.Spouse2ID]
		if !ok1 || !ok2 {
			continue
		}
		dc.DrawLine(v.x(p1.X), v.y(p1.Y), v.x(p2.X), v.y(p2.Y))
		dc.Stroke()
	}

	dc.SetLineWidth(1)
	for _, pc := range t.ParentChild {
		parent, ok1 := t.Persons[pc.ParentID]
		child, ok2 := t.Persons[pc.ChildID]
		if !ok1 || !ok2 {
			continue
		}
		px, py := v.x(parent.X), v.y(parent.Y)
		cx, cy := v.x(child.X), v.y(child.Y)
		midY := (py + cy) / 2
		dc.MoveTo(px, py)
		dc.CubicTo(px, midY, cx, midY, cx, cy)
		dc.Stroke()
	}

	for _, p := range sortedPersons(t) {
		drawPersonCard(dc, v, p)
	}

	return dc
}

// drawPersonCard paints one rounded, gender-colored card with the name
// and date caption.
func drawPersonCard(dc *gg.Context, v viewport, p *tree.Person) {
	x, y := v.x(p.X), v.y(p.Y)
	w := nodeWidth * v.scale
	h := nodeHeight * v.scale
	r := cornerRadius * v.scale

	dc.DrawRoundedRectangle(x-w/2, y-h/2, w, h, r)
	dc.SetHexColor(fillColor(p))
	dc.FillPreserve()
	dc.SetHexColor(colorStroke)
	dc.SetLineWidth(1)
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	lines := nameLines(p.Name)
	if len(lines) == 2 {
		dc.DrawStringAnchored(lines[0], x, y-6*v.scale, 0.5, 0.5)
		dc.DrawStringAnchored(lines[1], x, y+6*v.scale, 0.5, 0.5)
	} else {
		dc.DrawStringAnchored(lines[0], x, y, 0.5, 0.5)
	}

	if c := caption(p); c != "" {
		dc.DrawStringAnchored(c, x, y+h/2+10*v.scale, 0.5, 0.5)
	}
}
