// Package store manages the live family tree: CRUD operations over
// persons, marriages, and parent-child links, undo/redo history, and
// snapshot access for layout and rendering.
//
// The Store is the single writer of tree state. All reads hand out copies
// or clones, so callers can never observe a partially applied mutation.
// Persistence is layered on top: [FileStore] keeps JSON files on disk and
// [MongoStore] keeps documents in MongoDB; both operate on snapshots.
package store

import (
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	arberrors "github.com/arbormap/arbor/pkg/errors"
	"github.com/arbormap/arbor/pkg/layout"
	"github.com/arbormap/arbor/pkg/tree"
)

// Store is a mutex-guarded in-memory family tree with history.
type Store struct {
	mu      sync.RWMutex
	tree    *tree.Tree
	history *History
	logger  *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for mutation logging.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithHistoryLimit caps the number of retained undo states.
func WithHistoryLimit(limit int) Option {
	return func(s *Store) { s.history = NewHistory(limit) }
}

// New creates a Store holding an empty tree.
func New(opts ...Option) *Store {
	s := &Store{
		tree:    tree.New(),
		history: NewHistory(DefaultHistoryLimit),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Persons
// =============================================================================

// PersonUpdate carries a partial person update. Nil fields are left
// untouched, mirroring a PATCH-style request body.
type PersonUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Gender      *string  `json:"gender,omitempty"`
	DateOfBirth *string  `json:"date_of_birth,omitempty"`
	DateOfDeath *string  `json:"date_of_death,omitempty"`
	PhotoPath   *string  `json:"photo_path,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
}

// PositionUpdate names one person's new diagram position.
type PositionUpdate struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// CreatePerson adds a person to the tree.
// A missing ID is generated; a missing gender defaults to unknown.
// Returns a copy of the stored person.
func (s *Store) CreatePerson(p tree.Person) *tree.Person {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = tree.NewID()
	}
	if p.Gender == "" {
		p.Gender = tree.GenderUnknown
	}

	s.history.Record(s.tree, "create_person")
	stored := p
	s.tree.Persons[p.ID] = &stored
	s.logger.Info("created person", "id", p.ID)

	out := stored
	return &out
}

// Person returns a copy of the person with the given ID.
func (s *Store) Person(id string) (*tree.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.tree.Persons[id]
	if !ok {
		return nil, arberrors.New(arberrors.ErrCodePersonNotFound, "person not found: %s", id)
	}
	out := *p
	return &out, nil
}

// Persons returns copies of all persons, sorted by name then ID for
// deterministic listings.
func (s *Store) Persons() []*tree.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*tree.Person, 0, len(s.tree.Persons))
	for _, p := range s.tree.Persons {
		cp := *p
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *tree.Person) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// UpdatePerson applies a partial update to a person.
// Returns a copy of the updated person.
func (s *Store) UpdatePerson(id string, upd PersonUpdate) (*tree.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.tree.Persons[id]
	if !ok {
		return nil, arberrors.New(arberrors.ErrCodePersonNotFound, "person not found: %s", id)
	}

	s.history.Record(s.tree, "update_person")
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Gender != nil {
		p.Gender = *upd.Gender
	}
	if upd.DateOfBirth != nil {
		p.DateOfBirth = *upd.DateOfBirth
	}
	if upd.DateOfDeath != nil {
		p.DateOfDeath = *upd.DateOfDeath
	}
	if upd.PhotoPath != nil {
		p.PhotoPath = *upd.PhotoPath
	}
	if upd.Notes != nil {
		p.Notes = *upd.Notes
	}
	if upd.X != nil {
		p.X = *upd.X
	}
	if upd.Y != nil {
		p.Y = *upd.Y
	}
	s.logger.Info("updated person", "id", id)

	out := *p
	return &out, nil
}

// UpdatePosition moves a single person.
// Position changes bypass history - recording every drag would flood the
// undo stack.
func (s *Store) UpdatePosition(id string, x, y float64) (*tree.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.tree.Persons[id]
	if !ok {
		return nil, arberrors.New(arberrors.ErrCodePersonNotFound, "person not found: %s", id)
	}
	p.X, p.Y = x, y
	out := *p
	return &out, nil
}

// UpdatePositions applies a batch of position updates, skipping unknown
// IDs, and returns how many persons were moved. Bypasses history like
// [Store.UpdatePosition].
func (s *Store) UpdatePositions(updates []PositionUpdate) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, u := range updates {
		if p, ok := s.tree.Persons[u.ID]; ok {
			p.X, p.Y = u.X, u.Y
			count++
		}
	}
	return count
}

// DeletePerson removes a person together with every marriage they
// participate in and every parent-child record naming them.
func (s *Store) DeletePerson(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Persons[id]; !ok {
		return arberrors.New(arberrors.ErrCodePersonNotFound, "person not found: %s", id)
	}

	s.history.Record(s.tree, "delete_person")
	delete(s.tree.Persons, id)

	for mID, m := range s.tree.Marriages {
		if m.Involves(id) {
			delete(s.tree.Marriages, mID)
		}
	}
	s.tree.ParentChild = slices.DeleteFunc(s.tree.ParentChild, func(pc tree.ParentChild) bool {
		return pc.ParentID == id || pc.ChildID == id
	})

	s.logger.Info("deleted person", "id", id)
	return nil
}

// =============================================================================
// Marriages
// =============================================================================

// CreateMarriage records a marriage between two existing persons.
// The marriage order is assigned as one past the number of marriages
// either spouse already participates in, so later marriages of the same
// person sort after earlier ones during layout.
func (s *Store) CreateMarriage(spouse1ID, spouse2ID, date string) (*tree.Marriage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Persons[spouse1ID]; !ok {
		return nil, arberrors.New(arberrors.ErrCodePersonNotFound, "spouse 1 not found: %s", spouse1ID)
	}
	if _, ok := s.tree.Persons[spouse2ID]; !ok {
		return nil, arberrors.New(arberrors.ErrCodePersonNotFound, "spouse 2 not found: %s", spouse2ID)
	}

	order := 1
	for _, m := range s.tree.Marriages {
		if m.Involves(spouse1ID) || m.Involves(spouse2ID) {
			order++
		}
	}

	s.history.Record(s.tree, "create_marriage")
	m := &tree.Marriage{
		ID:           tree.NewID(),
		Spouse1ID:    spouse1ID,
		Spouse2ID:    spouse2ID,
		MarriageDate: date,
		Order:        order,
	}
	s.tree.Marriages[m.ID] = m
	s.logger.Info("created marriage", "id", m.ID, "order", order)

	out := *m
	return &out, nil
}

// Marriages returns copies of all marriages, sorted by order then ID.
func (s *Store) Marriages() []*tree.Marriage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*tree.Marriage, 0, len(s.tree.Marriages))
	for _, m := range s.tree.Marriages {
		cm := *m
		out = append(out, &cm)
	}
	slices.SortFunc(out, func(a, b *tree.Marriage) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// DeleteMarriage removes a marriage and every parent-child record linked
// to it. The spouses themselves are untouched.
func (s *Store) DeleteMarriage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Marriages[id]; !ok {
		return arberrors.New(arberrors.ErrCodeMarriageNotFound, "marriage not found: %s", id)
	}

	s.history.Record(s.tree, "delete_marriage")
	delete(s.tree.Marriages, id)
	s.tree.ParentChild = slices.DeleteFunc(s.tree.ParentChild, func(pc tree.ParentChild) bool {
		return pc.MarriageID == id
	})

	s.logger.Info("deleted marriage", "id", id)
	return nil
}

// =============================================================================
// Parent-child links
// =============================================================================

// AddChild links a child to a parent, optionally naming the marriage the
// child was born into. Both persons (and the marriage, when given) must
// exist, and the same parent-child pair may only be linked once.
func (s *Store) AddChild(parentID, childID, marriageID string) (*tree.ParentChild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Persons[parentID]; !ok {
		return nil, arberrors.New(arberrors.ErrCodePersonNotFound, "parent not found: %s", parentID)
	}
	if _, ok := s.tree.Persons[childID]; !ok {
		return nil, arberrors.New(arberrors.ErrCodePersonNotFound, "child not found: %s", childID)
	}
	if marriageID != "" {
		if _, ok := s.tree.Marriages[marriageID]; !ok {
			return nil, arberrors.New(arberrors.ErrCodeMarriageNotFound, "marriage not found: %s", marriageID)
		}
	}
	for _, pc := range s.tree.ParentChild {
		if pc.ParentID == parentID && pc.ChildID == childID {
			return nil, arberrors.New(arberrors.ErrCodeRelationExists, "relationship already exists: %s -> %s", parentID, childID)
		}
	}

	s.history.Record(s.tree, "add_child")
	pc := tree.ParentChild{ParentID: parentID, ChildID: childID, MarriageID: marriageID}
	s.tree.ParentChild = append(s.tree.ParentChild, pc)
	s.logger.Info("added child relation", "parent", parentID, "child", childID)

	return &pc, nil
}

// Relations returns a copy of all parent-child records in insertion order.
func (s *Store) Relations() []tree.ParentChild {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tree.ParentChild)
}

// RemoveChild deletes the parent-child link between the two persons.
func (s *Store) RemoveChild(parentID, childID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists := slices.ContainsFunc(s.tree.ParentChild, func(pc tree.ParentChild) bool {
		return pc.ParentID == parentID && pc.ChildID == childID
	})
	if !exists {
		return arberrors.New(arberrors.ErrCodeRelationNotFound, "relationship not found: %s -> %s", parentID, childID)
	}

	s.history.Record(s.tree, "remove_child")
	s.tree.ParentChild = slices.DeleteFunc(s.tree.ParentChild, func(pc tree.ParentChild) bool {
		return pc.ParentID == parentID && pc.ChildID == childID
	})

	s.logger.Info("removed child relation", "parent", parentID, "child", childID)
	return nil
}

// =============================================================================
// Tree-level operations
// =============================================================================

// Snapshot returns a deep copy of the current tree for layout, rendering,
// or persistence. The copy is fully detached from the live tree.
func (s *Store) Snapshot() *tree.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Clone()
}

// Replace swaps in a new tree (e.g. one loaded from disk), recording the
// outgoing tree in history under the given action label.
func (s *Store) Replace(t *tree.Tree, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.Normalize()
	s.history.Record(s.tree, action)
	s.tree = t.Clone()
	s.logger.Info("replaced tree", "action", action, "persons", len(t.Persons))
}

// Reset replaces the current tree with an empty one.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Record(s.tree, "new_tree")
	s.tree = tree.New()
	s.logger.Info("created new tree")
}

// Undo restores the most recent history state.
func (s *Store) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, ok := s.history.Undo(s.tree)
	if !ok {
		return arberrors.New(arberrors.ErrCodeNothingToUndo, "nothing to undo")
	}
	s.tree = restored
	return nil
}

// Redo re-applies the most recently undone state.
func (s *Store) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, ok := s.history.Redo(s.tree)
	if !ok {
		return arberrors.New(arberrors.ErrCodeNothingToRedo, "nothing to redo")
	}
	s.tree = restored
	return nil
}

// CanUndo reports whether an undo state is available.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

// CanRedo reports whether a redo state is available.
func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// ApplyLayout computes a layout on the current tree and writes the
// resulting coordinates back onto the stored persons, recording one
// history state for the whole operation.
//
// The computation itself runs on a snapshot, so concurrent readers are
// never exposed to a half-applied layout. Returns the computed positions.
func (s *Store) ApplyLayout(opts layout.Options) (map[string]layout.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Persons[opts.RootID]; !ok {
		return nil, arberrors.New(arberrors.ErrCodePersonNotFound, "root person not found: %s", opts.RootID)
	}

	s.history.Record(s.tree, "auto_layout")
	positions := layout.Compute(s.tree.Clone(), opts)
	for id, pos := range positions {
		if p, ok := s.tree.Persons[id]; ok {
			p.X, p.Y = pos.X, pos.Y
		}
	}

	s.logger.Info("applied auto-layout", "root", opts.RootID, "persons", len(positions))
	return positions, nil
}

// ApplyPositions writes precomputed coordinates onto the stored persons
// as one undoable step. Used when a cached layout result is replayed.
func (s *Store) ApplyPositions(positions map[string]layout.Position, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Record(s.tree, action)
	for id, pos := range positions {
		if p, ok := s.tree.Persons[id]; ok {
			p.X, p.Y = pos.X, pos.Y
		}
	}
	s.logger.Info("applied positions", "action", action, "persons", len(positions))
}
