package store

import (
	"strings"
	"testing"

	arberrors "github.com/arbormap/arbor/pkg/errors"
	"github.com/arbormap/arbor/pkg/tree"
)

func TestFileStoreSaveLoad(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	tr := tree.New()
	tr.Persons["p1"] = &tree.Person{ID: "p1", Name: "Ada"}

	tests := []struct {
		name     string
		saveAs   string
		wantName string
	}{
		{name: "Named", saveAs: "my_family.json", wantName: "my_family.json"},
		{name: "ExtensionAppended", saveAs: "other", wantName: "other.json"},
		{name: "TraversalStripped", saveAs: "../escape.json", wantName: "escape.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := fs.Save(tt.saveAs, tr)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if name != tt.wantName {
				t.Errorf("saved name = %q, want %q", name, tt.wantName)
			}

			loaded, err := fs.Load(name)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if loaded.Persons["p1"].Name != "Ada" {
				t.Errorf("loaded name = %q, want Ada", loaded.Persons["p1"].Name)
			}
		})
	}
}

func TestFileStoreDefaultName(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	name, err := fs.Save("", tree.New())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(name, "family_tree_") || !strings.HasSuffix(name, ".json") {
		t.Errorf("default name = %q, want family_tree_*.json", name)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	_, err = fs.Load("absent.json")
	if arberrors.GetCode(err) != arberrors.ErrCodeFileNotFound {
		t.Errorf("code = %v, want %v", arberrors.GetCode(err), arberrors.ErrCodeFileNotFound)
	}
}

func TestFileStoreListExcludesAutosave(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := fs.Save("a.json", tree.New()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := fs.Save("b.json", tree.New()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := fs.SaveLive(tree.New()); err != nil {
		t.Fatalf("SaveLive: %v", err)
	}

	files, err := fs.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	for _, f := range files {
		if f.Filename == liveFilename {
			t.Error("autosave file leaked into listing")
		}
	}
}

func TestFileStoreLive(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	// No autosave yet: nil tree, nil error.
	loaded, err := fs.LoadLive()
	if err != nil || loaded != nil {
		t.Fatalf("LoadLive = %v, %v, want nil, nil", loaded, err)
	}

	tr := tree.New()
	tr.Persons["p1"] = &tree.Person{ID: "p1", Name: "Ada"}
	if err := fs.SaveLive(tr); err != nil {
		t.Fatalf("SaveLive: %v", err)
	}

	loaded, err = fs.LoadLive()
	if err != nil {
		t.Fatalf("LoadLive: %v", err)
	}
	if loaded.Persons["p1"].Name != "Ada" {
		t.Errorf("loaded name = %q, want Ada", loaded.Persons["p1"].Name)
	}
}
