package tree

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteJSON encodes a tree as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(t *Tree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON tree from r.
//
// The input must be a JSON object with "persons" and "marriages" maps and
// a "parent_child" array. Missing sections decode to empty collections;
// ReadJSON never returns a tree with nil maps.
//
// ReadJSON does not validate referential integrity - a tree whose
// relationship records reference unknown persons is returned as-is.
// The layout engine tolerates such trees; the store validates on write.
func ReadJSON(r io.Reader) (*Tree, error) {
	var t Tree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	t.Normalize()
	return &t, nil
}

// ExportJSON writes a tree to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(t *Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(t, f)
}

// ImportJSON reads a JSON file at path and returns the decoded tree.
// The error wraps the underlying cause with the file path for context.
func ImportJSON(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}
