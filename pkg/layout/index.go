package layout

import (
	"maps"
	"slices"

	"github.com/arbormap/arbor/pkg/tree"
)

// Index holds the relationship lookup structures the placement recursion
// walks: marriages grouped by participant, children grouped by marriage,
// and children grouped by parent.
//
// An Index is built fresh per layout invocation with [BuildIndex] and
// discarded afterwards. All lookups return empty results for absent keys.
type Index struct {
	marriagesByPerson  map[string][]*tree.Marriage
	childrenByMarriage map[string][]string
	childrenByParent   map[string][]string
}

// BuildIndex constructs the relationship index for a tree snapshot.
//
// Marriages are grouped under both participants and sorted by Order
// ascending; ties break on marriage ID so results are deterministic
// regardless of map iteration order. Children are recorded under their
// marriage (when the record names one that exists) with duplicates
// suppressed, and under their parent for every record.
//
// BuildIndex does not validate referential integrity: a parent-child
// record naming an unknown marriage simply contributes no marriage
// grouping, and records for unknown persons are indexed but never reached
// by the placement recursion. Runs in O(persons + marriages + records).
func BuildIndex(t *tree.Tree) *Index {
	idx := &Index{
		marriagesByPerson:  make(map[string][]*tree.Marriage),
		childrenByMarriage: make(map[string][]string),
		childrenByParent:   make(map[string][]string),
	}

	for _, id := range slices.Sorted(maps.Keys(t.Marriages)) {
		m := t.Marriages[id]
		idx.marriagesByPerson[m.Spouse1ID] = append(idx.marriagesByPerson[m.Spouse1ID], m)
		idx.marriagesByPerson[m.Spouse2ID] = append(idx.marriagesByPerson[m.Spouse2ID], m)
		idx.childrenByMarriage[m.ID] = []string{}
	}

	for _, ms := range idx.marriagesByPerson {
		slices.SortStableFunc(ms, func(a, b *tree.Marriage) int {
			if a.Order != b.Order {
				return a.Order - b.Order
			}
			return compareIDs(a.ID, b.ID)
		})
	}

	for _, pc := range t.ParentChild {
		idx.childrenByParent[pc.ParentID] = append(idx.childrenByParent[pc.ParentID], pc.ChildID)
		if pc.MarriageID == "" {
			continue
		}
		if kids, ok := idx.childrenByMarriage[pc.MarriageID]; ok && !slices.Contains(kids, pc.ChildID) {
			idx.childrenByMarriage[pc.MarriageID] = append(kids, pc.ChildID)
		}
	}

	return idx
}

// MarriagesOf returns the person's marriages ordered by Order ascending.
// Returns nil if the person has no marriages.
func (idx *Index) MarriagesOf(personID string) []*tree.Marriage {
	return idx.marriagesByPerson[personID]
}

// ChildrenOfMarriage returns the deduplicated child IDs recorded against
// the marriage, in insertion order. Returns nil for an unknown marriage.
func (idx *Index) ChildrenOfMarriage(marriageID string) []string {
	return idx.childrenByMarriage[marriageID]
}

// ChildrenOfParent returns every child ID recorded under the parent,
// in record order. Children linked both directly and through a marriage
// appear in both lookups; the placement pass deduplicates by ID.
func (idx *Index) ChildrenOfParent(personID string) []string {
	return idx.childrenByParent[personID]
}

func compareIDs(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
