package store

import (
	"fmt"
	"testing"

	"github.com/arbormap/arbor/pkg/tree"
)

// treeWithName builds a single-person tree used as a distinguishable state.
func treeWithName(name string) *tree.Tree {
	t := tree.New()
	t.Persons["p"] = &tree.Person{ID: "p", Name: name}
	return t
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(10)

	if h.CanUndo() || h.CanRedo() {
		t.Error("fresh history reports available states")
	}
	if _, ok := h.Undo(tree.New()); ok {
		t.Error("Undo on empty history succeeded")
	}
	if _, ok := h.Redo(tree.New()); ok {
		t.Error("Redo on empty history succeeded")
	}
}

func TestHistoryUndoRedoExchange(t *testing.T) {
	h := NewHistory(10)
	before := treeWithName("before")
	after := treeWithName("after")

	h.Record(before, "edit")

	restored, ok := h.Undo(after)
	if !ok {
		t.Fatal("Undo failed")
	}
	if restored.Persons["p"].Name != "before" {
		t.Errorf("restored = %q, want before", restored.Persons["p"].Name)
	}
	if !h.CanRedo() {
		t.Fatal("no redo state after undo")
	}

	redone, ok := h.Redo(restored)
	if !ok {
		t.Fatal("Redo failed")
	}
	if redone.Persons["p"].Name != "after" {
		t.Errorf("redone = %q, want after", redone.Persons["p"].Name)
	}
}

func TestHistoryRecordClearsRedo(t *testing.T) {
	h := NewHistory(10)
	h.Record(treeWithName("one"), "edit")
	if _, ok := h.Undo(treeWithName("two")); !ok {
		t.Fatal("Undo failed")
	}

	h.Record(treeWithName("three"), "edit")

	if h.CanRedo() {
		t.Error("redo stack survived Record")
	}
}

func TestHistoryLimitDropsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Record(treeWithName(fmt.Sprintf("state-%d", i)), "edit")
	}

	// Only the 3 newest states remain; walking them back ends at state-2.
	var last *tree.Tree
	count := 0
	for {
		restored, ok := h.Undo(tree.New())
		if !ok {
			break
		}
		last = restored
		count++
	}

	if count != 3 {
		t.Errorf("undo depth = %d, want 3", count)
	}
	if last.Persons["p"].Name != "state-2" {
		t.Errorf("oldest retained = %q, want state-2", last.Persons["p"].Name)
	}
}

func TestHistoryStoresClones(t *testing.T) {
	h := NewHistory(10)
	live := treeWithName("original")

	h.Record(live, "edit")
	live.Persons["p"].Name = "mutated"

	restored, ok := h.Undo(live)
	if !ok {
		t.Fatal("Undo failed")
	}
	if restored.Persons["p"].Name != "original" {
		t.Errorf("restored = %q, want original", restored.Persons["p"].Name)
	}
}
