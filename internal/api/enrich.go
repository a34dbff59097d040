package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/enrich"
)

func (s *Server) enrich(w http.ResponseWriter, r *http.Request) {
	var req enrich.Request
	if err := decodeJSON(w, r, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "url" {
			respondError(w, http.StatusBadRequest, enrich.MsgInvalidURL)
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	result, err := s.enricher.Enrich(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
