package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createListBody struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CompanyIDs  []string `json:"company_ids"`
}

func (s *Server) listLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.ws.ListLists(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lists)
}

func (s *Server) createList(w http.ResponseWriter, r *http.Request) {
	var body createListBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	l, err := s.ws.CreateList(r.Context(), body.Name, body.Description, body.CompanyIDs)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (s *Server) getList(w http.ResponseWriter, r *http.Request) {
	l, err := s.ws.GetList(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) deleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteList(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addToList(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CompanyIDs []string `json:"company_ids"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	l, err := s.ws.AddToList(r.Context(), chi.URLParam(r, "id"), body.CompanyIDs)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (s *Server) removeFromList(w http.ResponseWriter, r *http.Request) {
	l, err := s.ws.RemoveFromList(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "companyID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, l)
}
