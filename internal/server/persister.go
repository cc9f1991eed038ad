package server

import (
	"context"

	"github.com/arbormap/arbor/pkg/store"
	"github.com/arbormap/arbor/pkg/tree"
)

// FilePersister adapts the context-free local FileStore to the
// Persister interface. MongoStore satisfies Persister directly.
type FilePersister struct {
	fs *store.FileStore
}

// NewFilePersister wraps fs as a Persister.
func NewFilePersister(fs *store.FileStore) *FilePersister {
	return &FilePersister{fs: fs}
}

func (p *FilePersister) Save(_ context.Context, name string, t *tree.Tree) (string, error) {
	return p.fs.Save(name, t)
}

func (p *FilePersister) Load(_ context.Context, name string) (*tree.Tree, error) {
	return p.fs.Load(name)
}

func (p *FilePersister) List(_ context.Context) ([]store.FileInfo, error) {
	return p.fs.List()
}
