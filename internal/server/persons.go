package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arbormap/arbor/pkg/store"
	"github.com/arbormap/arbor/pkg/tree"
)

// handleCreatePerson handles POST /api/persons.
func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var p tree.Person
	if err := decodeBody(r, &p); err != nil {
		respondError(w, err)
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		respondError(w, badRequest("person name is required"))
		return
	}

	created := s.store.CreatePerson(p)
	s.persistLive()
	respondJSON(w, http.StatusCreated, created)
}

// handleListPersons handles GET /api/persons.
func (s *Server) handleListPersons(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Persons())
}

// handleGetPerson handles GET /api/persons/{personID}.
func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Person(chi.URLParam(r, "personID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// handleUpdatePerson handles PUT /api/persons/{personID}.
func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	var upd store.PersonUpdate
	if err := decodeBody(r, &upd); err != nil {
		respondError(w, err)
		return
	}

	p, err := s.store.UpdatePerson(chi.URLParam(r, "personID"), upd)
	if err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusOK, p)
}

// handleUpdatePosition handles PATCH /api/persons/{personID}/position.
// Position drags bypass undo history.
func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}

	p, err := s.store.UpdatePosition(chi.URLParam(r, "personID"), body.X, body.Y)
	if err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusOK, p)
}

// handleUpdatePositions handles PATCH /api/persons/positions, the bulk
// variant used when the editor moves a whole selection.
func (s *Server) handleUpdatePositions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Positions []store.PositionUpdate `json:"positions"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}

	updated := s.store.UpdatePositions(body.Positions)
	s.persistLive()
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// handleDeletePerson handles DELETE /api/persons/{personID}.
func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePerson(chi.URLParam(r, "personID")); err != nil {
		respondError(w, err)
		return
	}
	s.persistLive()
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
