package store

import (
	"time"

	"github.com/arbormap/arbor/pkg/tree"
)

// DefaultHistoryLimit caps how many undo states are retained.
// The oldest state is dropped once the limit is reached.
const DefaultHistoryLimit = 50

// State is one entry in the undo/redo history: a snapshot of the tree
// taken just before the named action mutated it.
type State struct {
	Tree      *tree.Tree
	Action    string
	Timestamp time.Time
}

// History holds undo and redo stacks of tree snapshots.
//
// Record is called before each mutating action; Undo and Redo exchange
// the current tree against the stacks. History stores clones, so later
// edits to the live tree cannot corrupt saved states. History is not
// safe for concurrent use - the owning [Store] serializes access.
type History struct {
	limit int
	undo  []State
	redo  []State
}

// NewHistory creates a history with the given state limit.
// A limit of zero or less falls back to DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Record pushes a snapshot of t onto the undo stack and clears the redo
// stack. Any redone-able states are invalidated by a new action.
func (h *History) Record(t *tree.Tree, action string) {
	h.undo = append(h.undo, State{Tree: t.Clone(), Action: action, Timestamp: time.Now()})
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// Undo exchanges current for the most recent undo state.
// Returns the restored tree and true, or nil and false if there is
// nothing to undo. The current tree is pushed onto the redo stack.
func (h *History) Undo(current *tree.Tree) (*tree.Tree, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, State{Tree: current.Clone(), Action: top.Action, Timestamp: time.Now()})
	return top.Tree, true
}

// Redo exchanges current for the most recently undone state.
// Returns the restored tree and true, or nil and false if there is
// nothing to redo. The current tree is pushed onto the undo stack.
func (h *History) Redo(current *tree.Tree) (*tree.Tree, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, State{Tree: current.Clone(), Action: top.Action, Timestamp: time.Now()})
	return top.Tree, true
}

// CanUndo reports whether an undo state is available.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo state is available.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
