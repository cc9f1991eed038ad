package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleCreateMarriage handles POST /api/marriages.
func (s *Server) handleCreateMarriage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Spouse1ID string `json:"spouse1_id"`
		Spouse2ID string `json:"spouse2_id"`
		Date      string `json:"date,omitempty"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.Spouse1ID == "" || body.Spouse2ID == "" {
		respondError(w, badRequest("both spouse ids are required"))
		return
	}

	m, err := s.store.CreateMarriage(body.Spouse1ID, body.Spouse2ID, body.Date)
	if err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusCreated, m)
}

// handleListMarriages handles GET /api/marriages.
func (s *Server) handleListMarriages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Marriages())
}

// handleDeleteMarriage handles DELETE /api/marriages/{marriageID}.
func (s *Server) handleDeleteMarriage(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMarriage(chi.URLParam(r, "marriageID")); err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleAddChild handles POST /api/children.
func (s *Server) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ParentID   string `json:"parent_id"`
		ChildID    string `json:"child_id"`
		MarriageID string `json:"marriage_id,omitempty"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.ParentID == "" || body.ChildID == "" {
		respondError(w, badRequest("parent_id and child_id are required"))
		return
	}

	rel, err := s.store.AddChild(body.ParentID, body.ChildID, body.MarriageID)
	if err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusCreated, rel)
}

// handleListChildren handles GET /api/children.
func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Relations())
}

// handleRemoveChild handles DELETE /api/children/{parentID}/{childID}.
func (s *Server) handleRemoveChild(w http.ResponseWriter, r *http.Request) {
	err := s.store.RemoveChild(chi.URLParam(r, "parentID"), chi.URLParam(r, "childID"))
	if err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
