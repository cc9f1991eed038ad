// Package tree defines the genealogical data model: persons, marriages,
// parent-child links, and the Tree container that holds them.
//
// A Tree is the unit of storage and of layout computation. Layout and
// rendering code never mutate a live Tree - they operate on snapshots
// produced by [Tree.Clone].
package tree

import (
	"github.com/google/uuid"
)

// Gender values recognized by the renderer. Any other string is treated
// as GenderUnknown for display purposes.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

// NewID generates a unique identifier for persons and marriages.
func NewID() string {
	return uuid.NewString()
}

// Person is an individual in the family tree.
//
// X and Y hold the current diagram position. They are written by the
// layout engine (via the store) and by manual drag operations; everything
// else is entered by the user.
type Person struct {
	ID          string  `json:"id" bson:"id"`
	Name        string  `json:"name" bson:"name"`
	Gender      string  `json:"gender" bson:"gender"`
	DateOfBirth string  `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	DateOfDeath string  `json:"date_of_death,omitempty" bson:"date_of_death,omitempty"`
	PhotoPath   string  `json:"photo_path,omitempty" bson:"photo_path,omitempty"`
	Notes       string  `json:"notes,omitempty" bson:"notes,omitempty"`
	X           float64 `json:"x" bson:"x"`
	Y           float64 `json:"y" bson:"y"`
}

// Marriage is a union between two persons.
//
// Spouse1ID and Spouse2ID are conceptually unordered, but the record keeps
// them distinct so that layout can identify "the other spouse" of a given
// person. Order disambiguates multiple marriages of the same person:
// lower order means earlier, and layout places that spouse closer.
type Marriage struct {
	ID           string `json:"id" bson:"id"`
	Spouse1ID    string `json:"spouse1_id" bson:"spouse1_id"`
	Spouse2ID    string `json:"spouse2_id" bson:"spouse2_id"`
	MarriageDate string `json:"marriage_date,omitempty" bson:"marriage_date,omitempty"`
	Order        int    `json:"order" bson:"order"`
}

// Involves reports whether the person participates in this marriage.
func (m Marriage) Involves(personID string) bool {
	return m.Spouse1ID == personID || m.Spouse2ID == personID
}

// OtherSpouse returns the spouse that is not personID.
// If personID is not a participant, Spouse1ID is returned.
func (m Marriage) OtherSpouse(personID string) string {
	if m.Spouse1ID == personID {
		return m.Spouse2ID
	}
	return m.Spouse1ID
}

// ParentChild links a parent to a child, optionally naming the marriage
// the child was born into. Multiple records may reference the same child
// through different parents, or through a parent directly as well as
// through that parent's marriage; consumers must deduplicate by child ID.
type ParentChild struct {
	ParentID   string `json:"parent_id" bson:"parent_id"`
	ChildID    string `json:"child_id" bson:"child_id"`
	MarriageID string `json:"marriage_id,omitempty" bson:"marriage_id,omitempty"`
}

// Tree is the complete family graph.
//
// Persons and Marriages are keyed by ID. ParentChild keeps insertion
// order, which downstream code relies on for deterministic layout.
type Tree struct {
	Persons     map[string]*Person   `json:"persons" bson:"persons"`
	Marriages   map[string]*Marriage `json:"marriages" bson:"marriages"`
	ParentChild []ParentChild        `json:"parent_child" bson:"parent_child"`
	Metadata    map[string]any       `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// New creates an empty Tree with initialized maps.
func New() *Tree {
	return &Tree{
		Persons:   make(map[string]*Person),
		Marriages: make(map[string]*Marriage),
		Metadata:  make(map[string]any),
	}
}

// Clone returns a deep copy of the tree.
//
// Clone is the snapshot primitive: layout and rendering consume clones so
// that concurrent CRUD mutations cannot race with a computation, and the
// undo/redo history stores clones so later edits cannot corrupt saved
// states.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		Persons:     make(map[string]*Person, len(t.Persons)),
		Marriages:   make(map[string]*Marriage, len(t.Marriages)),
		ParentChild: make([]ParentChild, len(t.ParentChild)),
		Metadata:    make(map[string]any, len(t.Metadata)),
	}
	for id, p := range t.Persons {
		cp := *p
		c.Persons[id] = &cp
	}
	for id, m := range t.Marriages {
		cm := *m
		c.Marriages[id] = &cm
	}
	copy(c.ParentChild, t.ParentChild)
	for k, v := range t.Metadata {
		c.Metadata[k] = v
	}
	return c
}

// Normalize initializes nil maps after deserialization.
// A Tree decoded from JSON or BSON may carry nil maps for empty sections.
func (t *Tree) Normalize() {
	if t.Persons == nil {
		t.Persons = make(map[string]*Person)
	}
	if t.Marriages == nil {
		t.Marriages = make(map[string]*Marriage)
	}
	if t.Metadata == nil {
		t.Metadata = make(map[string]any)
	}
}

// PersonCount returns the number of persons in the tree.
func (t *Tree) PersonCount() int { return len(t.Persons) }

// MarriageCount returns the number of marriages in the tree.
func (t *Tree) MarriageCount() int { return len(t.Marriages) }

// MarriagesInvolving returns all marriages in which the person participates.
// The order is not guaranteed.
func (t *Tree) MarriagesInvolving(personID string) []*Marriage {
	var out []*Marriage
	for _, m := range t.Marriages {
		if m.Involves(personID) {
			out = append(out, m)
		}
	}
	return out
}
