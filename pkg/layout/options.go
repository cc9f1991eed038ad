// Package layout computes automatic diagram positions for a family tree.
//
// Given a snapshot of the tree and a chosen root person, [Compute] assigns
// every person a 2-D position so that generations align on one axis and
// spouses and siblings are grouped on the other. The algorithm is a single
// deterministic recursive pass:
//
//  1. Build lookup indices over marriages and parent-child links.
//  2. Recursively place the root's family units, accumulating subtree
//     footprints so sibling subtrees never overlap.
//  3. Place every person not reached from the root in a fallback row.
//  4. Map internal (generation, offset) pairs to (x, y) per the requested
//     direction.
//
// The engine is a pure function of (snapshot, options): it holds no state
// across calls, performs no I/O, and never mutates its input. Concurrent
// callers may invoke it in parallel on independent snapshots.
package layout

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// Layout directions.
const (
	// DirectionTopDown places generations along the y axis, root at the top.
	DirectionTopDown = "top-down"
	// DirectionLeftRight places generations along the x axis, root at the left.
	DirectionLeftRight = "left-right"
)

// Default spacing between persons along the family axis and between
// generations along the depth axis, in diagram units.
const (
	DefaultSpacingX = 200.0
	DefaultSpacingY = 150.0
)

// ValidDirections is the set of supported layout directions.
var ValidDirections = map[string]bool{
	DirectionTopDown:   true,
	DirectionLeftRight: true,
}

// Position is a computed diagram coordinate for one person.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Options configures a layout computation.
// This struct supports JSON serialization for API requests.
type Options struct {
	// RootID is the person the recursive placement starts from.
	// A root absent from the snapshot degrades gracefully: nobody is
	// reachable, so every person is placed by the fallback pass.
	RootID string `json:"root_person_id"`

	// Direction selects the depth axis: DirectionTopDown (default) or
	// DirectionLeftRight.
	Direction string `json:"direction,omitempty"`

	// SpacingX is the distance between adjacent persons along the family
	// axis. Defaults to DefaultSpacingX.
	SpacingX float64 `json:"spacing_x,omitempty"`

	// SpacingY is the distance between generations along the depth axis.
	// Defaults to DefaultSpacingY.
	SpacingY float64 `json:"spacing_y,omitempty"`

	// Logger receives progress and degradation warnings.
	// Defaults to a discard logger.
	Logger *log.Logger `json:"-"`
}

// SetDefaults fills in zero-valued fields with defaults.
func (o *Options) SetDefaults() {
	if o.Direction == "" {
		o.Direction = DirectionTopDown
	}
	if o.SpacingX <= 0 {
		o.SpacingX = DefaultSpacingX
	}
	if o.SpacingY <= 0 {
		o.SpacingY = DefaultSpacingY
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateDirection checks that a direction string is supported.
// The empty string is allowed and resolves to DirectionTopDown.
func ValidateDirection(direction string) error {
	if direction != "" && !ValidDirections[direction] {
		return fmt.Errorf("invalid direction: %q (must be one of: top-down, left-right)", direction)
	}
	return nil
}
