package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/store"
)

// companyFilter reads q, industry, stage, enriched, limit and offset.
// industry and stage may repeat or hold comma-separated values.
func companyFilter(r *http.Request) (store.CompanyFilter, error) {
	q := r.URL.Query()
	f := store.CompanyFilter{
		Query:      q.Get("q"),
		Industries: splitParam(q["industry"]),
		Stages:     splitParam(q["stage"]),
	}
	if v := q.Get("enriched"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.Enriched = &b
	}
	for key, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, strconv.ErrSyntax
			}
			*dst = n
		}
	}
	return f, nil
}

func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	filter, err := companyFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid query parameters")
		return
	}
	companies, err := s.ws.ListCompanies(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, companies)
}

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var c model.Company
	if err := decodeJSON(w, r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.ID = ""
	if err := s.ws.CreateCompany(r.Context(), &c); err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.ws.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) updateCompany(w http.ResponseWriter, r *http.Request) {
	var u model.CompanyUpdate
	if err := decodeJSON(w, r, &u); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.ws.UpdateCompany(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.DeleteCompany(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type idsBody struct {
	IDs []string `json:"ids"`
}

func (s *Server) bulkDeleteCompanies(w http.ResponseWriter, r *http.Request) {
	var body idsBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := s.ws.DeleteCompanies(r.Context(), body.IDs)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) enrichCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.ws.EnrichCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

type bulkEnrichBody struct {
	IDs        []string `json:"ids"`
	IntervalMS int      `json:"interval_ms"`
}

// bulkEnrich starts a background run and returns immediately. Only one run
// may be in flight.
func (s *Server) bulkEnrich(w http.ResponseWriter, r *http.Request) {
	var body bulkEnrichBody
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if !s.bulkRunning.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "bulk enrichment already running")
		return
	}

	s.bulkWG.Add(1)
	go func() {
		defer s.bulkWG.Done()
		defer s.bulkRunning.Store(false)
		interval := time.Duration(body.IntervalMS) * time.Millisecond
		if _, err := s.ws.BulkEnrich(s.bgCtx, body.IDs, interval); err != nil {
			zap.L().Warn("api: bulk enrich stopped", zap.Error(err))
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
