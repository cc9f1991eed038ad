// Package render draws a family tree with stored positions into portable
// artifacts: SVG, PNG, JPEG, PDF, and Graphviz DOT.
//
// Rendering consumes a snapshot and the persons' current X/Y coordinates;
// it performs no layout of its own. Run the layout engine (or place
// persons manually) before exporting.
package render

import (
	"strings"

	"github.com/arbormap/arbor/pkg/tree"
)

// Node dimensions in diagram units, matching the interactive editor's
// card aspect ratio.
const (
	nodeWidth    = 80.0
	nodeHeight   = 50.0
	cornerRadius = 5.0
)

// Frame fitting constants: outer margin and padding around the tree bounds.
const (
	frameMargin  = 50.0
	boundsPad    = 100.0
	boundsExtent = 200.0
)

// Gender fill colors.
const (
	colorMale    = "#d0e8ff"
	colorFemale  = "#ffd0e8"
	colorNeutral = "#e8e8e8"
	colorStroke  = "#000000"
	colorEdge    = "#4d4d4d"
)

// fillColor returns the card fill for a person's gender.
func fillColor(p *tree.Person) string {
	switch p.Gender {
	case tree.GenderMale:
		return colorMale
	case tree.GenderFemale:
		return colorFemale
	default:
		return colorNeutral
	}
}

// nameLines splits a long name across two lines.
// Names of more than two words break after the second word so wide names
// stay inside the card.
func nameLines(name string) []string {
	parts := strings.Fields(name)
	if len(parts) > 2 {
		return []string{strings.Join(parts[:2], " "), strings.Join(parts[2:], " ")}
	}
	return []string{name}
}

// caption returns the birth/death line shown under a card, or "" when the
// person has no dates.
func caption(p *tree.Person) string {
	switch {
	case p.DateOfBirth != "" && p.DateOfDeath != "":
		return "b. " + p.DateOfBirth + " | d. " + p.DateOfDeath
	case p.DateOfBirth != "":
		return "b. " + p.DateOfBirth
	case p.DateOfDeath != "":
		return "d. " + p.DateOfDeath
	default:
		return ""
	}
}
