package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
)

func (s *Server) listSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.ws.ListSavedSearches(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, searches)
}

func (s *Server) saveSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string              `json:"name"`
		Filters model.SearchFilters `json:"filters"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ss, err := s.ws.SaveSearch(r.Context(), body.Name, body.Filters)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ss)
}

func (s *Server) deleteSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteSavedSearch(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type thesisBody struct {
	Thesis string `json:"thesis"`
}

func (s *Server) getThesis(w http.ResponseWriter, r *http.Request) {
	thesis, err := s.ws.Thesis(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, thesisBody{Thesis: thesis})
}

func (s *Server) setThesis(w http.ResponseWriter, r *http.Request) {
	var body thesisBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.ws.SetThesis(r.Context(), body.Thesis); err != nil {
		fail(w, r, err)
		return
	}
	s.getThesis(w, r)
}
