package layout

import (
	"math"
	"slices"

	"github.com/arbormap/arbor/pkg/tree"
)

// cell is an internal placement before direction mapping: depth is the
// coordinate along the generation axis, offset the coordinate along the
// family axis.
type cell struct {
	depth  float64
	offset float64
}

// placer carries the per-invocation state threaded through the recursive
// placement: the relationship index, the visited set, and the cells
// assigned so far. A placer is never reused across computations.
type placer struct {
	persons  map[string]*tree.Person
	idx      *Index
	visited  map[string]bool
	cells    map[string]cell
	spacingX float64
	spacingY float64
}

// Compute calculates positions for all persons in the tree.
//
// The placement starts at opts.RootID and walks descendants recursively,
// placing each person, their spouses, and their children. Persons not
// reachable from the root are placed afterwards in a fallback row one
// generation spacing below everything already placed, so the returned
// map always contains exactly the persons of the snapshot - no person is
// ever dropped, and no dangling spouse or child reference leaks into the
// result.
//
// Degradations are silent: an unknown root, a marriage or
// parent-child record referencing a missing person, and cyclic-looking
// data all reduce the reachable set rather than failing. Cycles cannot
// recurse unboundedly because a person is placed at most once.
//
// Compute never mutates the tree. Callers that keep editing a live tree
// concurrently must pass a snapshot (see [tree.Tree.Clone]).
func Compute(t *tree.Tree, opts Options) map[string]Position {
	opts.SetDefaults()

	if len(t.Persons) == 0 {
		return map[string]Position{}
	}

	if _, ok := t.Persons[opts.RootID]; !ok {
		opts.Logger.Warn("root person not found, using fallback placement for all persons", "root", opts.RootID)
	}

	p := &placer{
		persons:  t.Persons,
		idx:      BuildIndex(t),
		visited:  make(map[string]bool, len(t.Persons)),
		cells:    make(map[string]cell, len(t.Persons)),
		spacingX: opts.SpacingX,
		spacingY: opts.SpacingY,
	}

	p.placeFamilyUnit(opts.RootID, 0, 0)
	p.placeOrphans()

	opts.Logger.Info("calculated layout", "persons", len(p.cells), "direction", opts.Direction)
	return emit(p.cells, opts.Direction)
}

// placeFamilyUnit places a person, their spouses, and recursively their
// descendants, starting at the given generation with base as the left
// edge of the available family-axis span. It returns the footprint the
// subtree consumed, which the caller uses to start the next sibling's
// subtree without overlap.
//
// A person already visited, or referenced but absent from the snapshot,
// contributes a zero footprint. The visited guard is what makes malformed
// cyclic data terminate: the first repeated ID truncates the recursion.
func (p *placer) placeFamilyUnit(personID string, generation int, base float64) float64 {
	if p.visited[personID] {
		return 0
	}
	if _, ok := p.persons[personID]; !ok {
		return 0
	}
	p.visited[personID] = true

	// Spouses are claimed before any child recursion so a spouse reachable
	// through another path is never re-processed as a subtree root.
	var spouses []string
	var collected []string
	for _, m := range p.idx.MarriagesOf(personID) {
		spouseID := m.OtherSpouse(personID)
		if _, exists := p.persons[spouseID]; exists && !p.visited[spouseID] {
			spouses = append(spouses, spouseID)
			p.visited[spouseID] = true
		}
		collected = append(collected, p.idx.ChildrenOfMarriage(m.ID)...)
	}

	// Children recorded directly under the person, appended after the
	// marriage children so marriage grouping wins the ordering.
	for _, childID := range p.idx.ChildrenOfParent(personID) {
		if !slices.Contains(collected, childID) {
			collected = append(collected, childID)
		}
	}

	children := dedupe(collected)

	var childrenWidth float64
	placedAny := false
	for _, childID := range children {
		w := p.placeFamilyUnit(childID, generation+1, base+childrenWidth)
		if w > 0 {
			childrenWidth += w
			placedAny = true
		}
	}

	// A childless unit still needs room for the person and every spouse.
	unitWidth := p.spacingX * float64(1+len(spouses))
	if !placedAny {
		childrenWidth = unitWidth
	}

	// Center the family unit over the span its children consumed.
	familyOffset := base + childrenWidth/2 - unitWidth/2
	depth := float64(generation) * p.spacingY

	p.cells[personID] = cell{depth: depth, offset: familyOffset}
	for i, spouseID := range spouses {
		p.cells[spouseID] = cell{depth: depth, offset: familyOffset + p.spacingX*float64(i+1)}
	}

	return math.Max(childrenWidth, unitWidth)
}

// placeOrphans assigns a position to every person the recursive pass did
// not reach. Orphans line up one generation spacing beyond the deepest
// placed coordinate, spread along the family axis in sorted ID order so
// repeated runs produce identical results.
func (p *placer) placeOrphans() {
	var orphans []string
	for id := range p.persons {
		if !p.visited[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return
	}
	slices.Sort(orphans)

	var maxDepth float64
	for _, c := range p.cells {
		if c.depth > maxDepth {
			maxDepth = c.depth
		}
	}

	row := maxDepth + p.spacingY
	for i, id := range orphans {
		p.cells[id] = cell{depth: row, offset: float64(i) * p.spacingX}
	}
}

// emit maps internal (depth, offset) cells to public coordinates.
// Top-down assigns depth to y and offset to x; left-right swaps them.
func emit(cells map[string]cell, direction string) map[string]Position {
	positions := make(map[string]Position, len(cells))
	horizontal := direction == DirectionLeftRight
	for id, c := range cells {
		if horizontal {
			positions[id] = Position{X: c.depth, Y: c.offset}
		} else {
			positions[id] = Position{X: c.offset, Y: c.depth}
		}
	}
	return positions
}

// dedupe removes duplicate IDs while preserving first-occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
