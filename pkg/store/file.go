package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	arberrors "github.com/arbormap/arbor/pkg/errors"
	"github.com/arbormap/arbor/pkg/tree"
)

// liveFilename is the autosave target for the working tree.
const liveFilename = "autosave.json"

// FileStore persists trees as JSON files in a data directory.
// It backs both named save/load operations and autosave of the live tree.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a file-based tree store rooted at dir.
// If dir is empty, defaults to ~/.local/share/arbor/trees/.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "arbor", "trees")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory.
func (fs *FileStore) Dir() string { return fs.dir }

// Save writes the tree under the given name.
// A missing name gets a timestamped default; a missing .json extension is
// appended. Returns the filename actually used.
func (fs *FileStore) Save(name string, t *tree.Tree) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("family_tree_%s.json", time.Now().Format("20060102_150405"))
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	name = filepath.Base(name) // no path traversal out of the data dir

	if err := tree.ExportJSON(t, filepath.Join(fs.dir, name)); err != nil {
		return "", fmt.Errorf("save tree: %w", err)
	}
	return name, nil
}

// Load reads the named tree file.
func (fs *FileStore) Load(name string) (*tree.Tree, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	path := filepath.Join(fs.dir, filepath.Base(name))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, arberrors.New(arberrors.ErrCodeFileNotFound, "file not found: %s", name)
	}
	return tree.ImportJSON(path)
}

// FileInfo describes one saved tree file.
type FileInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// List returns all saved tree files, most recently modified first.
// The autosave file is excluded.
func (fs *FileStore) List() ([]FileInfo, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" || entry.Name() == liveFilename {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Filename: entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	slices.SortFunc(files, func(a, b FileInfo) int {
		return b.Modified.Compare(a.Modified)
	})
	return files, nil
}

// SaveLive writes the working tree to the autosave file.
func (fs *FileStore) SaveLive(t *tree.Tree) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return tree.ExportJSON(t, filepath.Join(fs.dir, liveFilename))
}

// LoadLive reads the autosaved working tree.
// Returns nil, nil when no autosave exists yet.
func (fs *FileStore) LoadLive() (*tree.Tree, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	path := filepath.Join(fs.dir, liveFilename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return tree.ImportJSON(path)
}
