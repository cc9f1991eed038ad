package render

import (
	"bytes"
	"fmt"

	"github.com/arbormap/arbor/pkg/tree"
)

// RenderSVG renders the tree as an SVG document of the given dimensions.
//
// Marriage lines are drawn first, then parent-child connectors as cubic
// beziers, then the person cards on top. An empty tree renders a frame
// with a placeholder message.
func RenderSVG(t *tree.Tree, width, height int) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n", width, height, width, height)
	buf.WriteString(`  <rect width="100%" height="100%" fill="white"/>` + "\n")

	if len(t.Persons) == 0 {
		fmt.Fprintf(&buf, `  <text x="50" y="50" font-family="Helvetica" font-size="16">Empty Family Tree</text>`+"\n")
		buf.WriteString("</svg>\n")
		return buf.Bytes()
	}

	v := fitViewport(t, float64(width), float64(height))

	for _, m := range sortedMarriages(t) {
		p1, ok1 := t.Persons[m.Spouse1ID]
		p2, ok2 := t.Persons[m.Spouse2ID]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="2"/>`+"\n",
			v.x(p1.X), v.y(p1.Y), v.x(p2.X), v.y(p2.Y), colorEdge)
	}

	for _, pc := range t.ParentChild {
		parent, ok1 := t.Persons[pc.ParentID]
		child, ok2 := t.Persons[pc.ChildID]
		if !ok1 || !ok2 {
			continue
		}
		px, py := v.x(parent.X), v.y(parent.Y)
		cx, cy := v.x(child.X), v.y(child.Y)
		midY := (py + cy) / 2
		fmt.Fprintf(&buf, `  <path d="M %.2f,%.2f C %.2f,%.2f %.2f,%.2f %.2f,%.2f" stroke="%s" stroke-width="1" fill="none"/>`+"\n",
			px, py, px, midY, cx, midY, cx, cy, colorEdge)
	}

	for _, p := range sortedPersons(t) {
		writePersonCard(&buf, v, p)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// writePersonCard draws one rounded, gender-colored card with the name
// and date caption.
func writePersonCard(buf *bytes.Buffer, v viewport, p *tree.Person) {
	x, y := v.x(p.X), v.y(p.Y)
	w := nodeWidth * v.scale
	h := nodeHeight * v.scale
	r := cornerRadius * v.scale

	fmt.Fprintf(buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="%.2f" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
		x-w/2, y-h/2, w, h, r, fillColor(p), colorStroke)

	nameSize := 8 * v.scale
	lines := nameLines(p.Name)
	if len(lines) == 2 {
		writeText(buf, x, y-4*v.scale, nameSize, "bold", lines[0])
		writeText(buf, x, y+8*v.scale, nameSize, "bold", lines[1])
	} else {
		writeText(buf, x, y, nameSize, "bold", lines[0])
	}

	if c := caption(p); c != "" {
		writeText(buf, x, y+h/2+10*v.scale, 6*v.scale, "normal", c)
	}
}

func writeText(buf *bytes.Buffer, x, y, size float64, weight, s string) {
	fmt.Fprintf(buf, `  <text x="%.2f" y="%.2f" font-family="Helvetica" font-size="%.2f" font-weight="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		x, y, size, weight, escapeXML(s))
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
