package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/arbormap/arbor/pkg/tree"
)

// ToDOT converts a tree to Graphviz DOT format for a raw relationship
// view: marriages as dashed undirected lines, parent-child links as
// arrows. Unlike the positional renderers this ignores stored
// coordinates and lets Graphviz lay the graph out itself.
func ToDOT(t *tree.Tree) string {
	var buf bytes.Buffer
	buf.WriteString("digraph family {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, p := range sortedPersons(t) {
		label := p.Name
		if c := caption(p); c != "" {
			label += "\n" + c
		}
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n", p.ID, label, fillColor(p))
	}

	buf.WriteString("\n")
	for _, m := range sortedMarriages(t) {
		if _, ok := t.Persons[m.Spouse1ID]; !ok {
			continue
		}
		if _, ok := t.Persons[m.Spouse2ID]; !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [dir=none, style=dashed];\n", m.Spouse1ID, m.Spouse2ID)
	}
	for _, pc := range t.ParentChild {
		if _, ok := t.Persons[pc.ParentID]; !ok {
			continue
		}
		if _, ok := t.Persons[pc.ChildID]; !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", pc.ParentID, pc.ChildID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
