package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arbormap/arbor/pkg/cache"
	arberrors "github.com/arbormap/arbor/pkg/errors"
	"github.com/arbormap/arbor/pkg/layout"
	"github.com/arbormap/arbor/pkg/render"
)

// handleGetTree handles GET /api/tree, returning the full tree plus
// undo/redo availability for the editor toolbar.
func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"tree":     s.store.Snapshot(),
		"can_undo": s.store.CanUndo(),
		"can_redo": s.store.CanRedo(),
	})
}

// handleNewTree handles POST /api/tree/new.
func (s *Server) handleNewTree(w http.ResponseWriter, r *http.Request) {
	s.store.Reset()
	s.persistLive()
	respondJSON(w, http.StatusOK, map[string]string{"status": "new_tree"})
}

// handleSaveTree handles POST /api/tree/save.
// An empty filename gets a timestamped default from the backend.
func (s *Server) handleSaveTree(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		respondError(w, arberrors.New(arberrors.ErrCodeUnsupported, "no persistence backend configured"))
		return
	}

	var body struct {
		Filename string `json:"filename,omitempty"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}

	name, err := s.files.Save(r.Context(), body.Filename, s.store.Snapshot())
	if err != nil {
		respondError(w, err)
		return
	}
	s.logger.Info("saved tree", "name", name)
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved", "filename": name})
}

// handleLoadTree handles POST /api/tree/load.
func (s *Server) handleLoadTree(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		respondError(w, arberrors.New(arberrors.ErrCodeUnsupported, "no persistence backend configured"))
		return
	}

	var body struct {
		Filename string `json:"filename"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.Filename == "" {
		respondError(w, badRequest("filename is required"))
		return
	}

	t, err := s.files.Load(r.Context(), body.Filename)
	if err != nil {
		respondError(w, err)
		return
	}
	s.store.Replace(t, "load_tree")
	s.persistLive()
	s.logger.Info("loaded tree", "name", body.Filename, "persons", len(t.Persons))
	respondJSON(w, http.StatusOK, map[string]string{"status": "loaded", "filename": body.Filename})
}

// handleListFiles handles GET /api/tree/files.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		respondError(w, arberrors.New(arberrors.ErrCodeUnsupported, "no persistence backend configured"))
		return
	}

	infos, err := s.files.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"files": infos})
}

// handleUndo handles POST /api/tree/undo.
func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Undo(); err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusOK, map[string]string{"status": "undone"})
}

// handleRedo handles POST /api/tree/redo.
func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Redo(); err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusOK, map[string]string{"status": "redone"})
}

// layoutOptions merges request options with the configured defaults.
func (s *Server) layoutOptions(opts layout.Options) layout.Options {
	if opts.Direction == "" {
		opts.Direction = s.defaults.Direction
	}
	if opts.SpacingX <= 0 {
		opts.SpacingX = s.defaults.SpacingX
	}
	if opts.SpacingY <= 0 {
		opts.SpacingY = s.defaults.SpacingY
	}
	opts.Logger = s.logger
	opts.SetDefaults()
	return opts
}

// handleLayout handles POST /api/tree/layout.
//
// Computed positions are cached keyed on the tree content hash, so
// re-running the same layout on an unchanged tree replays the cached
// result instead of recomputing.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var opts layout.Options
	if err := decodeBody(r, &opts); err != nil {
		respondError(w, err)
		return
	}
	if opts.RootID == "" {
		respondError(w, badRequest("root_person_id is required"))
		return
	}
	if err := layout.ValidateDirection(opts.Direction); err != nil {
		respondError(w, arberrors.Wrap(arberrors.ErrCodeInvalidDirection, err, "invalid layout direction"))
		return
	}
	opts = s.layoutOptions(opts)

	treeHash, err := cache.HashJSON(s.store.Snapshot())
	if err != nil {
		respondError(w, err)
		return
	}
	key := cache.LayoutKey(treeHash, cache.LayoutKeyOpts{
		RootID:    opts.RootID,
		Direction: opts.Direction,
		SpacingX:  opts.SpacingX,
		SpacingY:  opts.SpacingY,
	})

	if data, ok, cerr := s.cache.Get(r.Context(), key); cerr == nil && ok {
		var positions map[string]layout.Position
		if err := json.Unmarshal(data, &positions); err == nil {
			s.store.ApplyPositions(positions, "auto_layout")
			s.persistLive()
			respondJSON(w, http.StatusOK, map[string]any{"status": "layout_applied", "positions": positions})
			return
		}
	}

	positions, err := s.store.ApplyLayout(opts)
	if err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()

	if data, merr := json.Marshal(positions); merr == nil {
		if cerr := s.cache.Set(r.Context(), key, data, cache.DefaultTTL); cerr != nil {
			s.logger.Warn("layout cache write failed", "err", cerr)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "layout_applied", "positions": positions})
}

// handleExport handles POST /api/tree/export, streaming the rendered
// diagram. Artifacts are cached keyed on the tree content hash plus the
// render options.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var opts render.Options
	if err := decodeBody(r, &opts); err != nil {
		respondError(w, err)
		return
	}
	opts.SetDefaults()
	if err := render.ValidateFormat(opts.Format); err != nil {
		respondError(w, arberrors.Wrap(arberrors.ErrCodeInvalidFormat, err, "invalid export format"))
		return
	}

	snapshot := s.store.Snapshot()
	treeHash, err := cache.HashJSON(snapshot)
	if err != nil {
		respondError(w, err)
		return
	}
	key := cache.ArtifactKey(treeHash, cache.ArtifactKeyOpts{
		Format:  opts.Format,
		Width:   opts.Width,
		Height:  opts.Height,
		Quality: opts.Quality,
	})

	data, hit, cerr := s.cache.Get(r.Context(), key)
	if cerr != nil || !hit {
		data, err = render.Export(snapshot, opts)
		if err != nil {
			respondError(w, err)
			return
		}
		if cerr := s.cache.Set(r.Context(), key, data, cache.DefaultTTL); cerr != nil {
			s.logger.Warn("artifact cache write failed", "err", cerr)
		}
	}

	w.Header().Set("Content-Type", render.ContentType(opts.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=family_tree.%s", render.Extension(opts.Format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
