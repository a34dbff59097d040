package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/enrich"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/scrape"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/store"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/workspace"
)

const acmeDescription = "Acme builds autonomous data pipelines for logistics companies. Acme reduces manual reconciliation by 80%. The platform integrates with major ERPs."

// stubAcquirer returns a canned acquisition and counts calls.
type stubAcquirer struct {
	acq   scrape.Acquisition
	calls int
}

func (s *stubAcquirer) Acquire(_ context.Context, _ string) scrape.Acquisition {
	s.calls++
	return s.acq
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	acq     *stubAcquirer
	ws      *workspace.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	acq := &stubAcquirer{acq: scrape.Acquisition{Text: "# Acme", Succeeded: true, Source: "jina"}}
	now := func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 589e6, time.UTC) }
	pipeline := enrich.NewService(acq, nil, enrich.WithClock(now))
	ws := workspace.New(st, pipeline)
	srv := New(pipeline, ws)
	t.Cleanup(srv.Wait)
	return &testEnv{srv: srv, handler: srv.Routes(), acq: acq, ws: ws}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// --- POST /enrich ---

func TestEnrich_HeuristicMode(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/enrich", map[string]string{
		"url":         "https://acme.ai",
		"description": acmeDescription,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[model.Enrichment](t, rec)
	assert.True(t, got.Demo)
	assert.Equal(t, "Acme builds autonomous data pipelines for logistics companies. Acme reduces manual reconciliation by 80%.", got.Summary)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "https://acme.ai", got.Sources[0].URL)
	assert.Equal(t, "2026-03-14T09:26:53.589Z", got.Sources[0].Timestamp)
}

func TestEnrich_InvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing url", `{"description":"x"}`, enrich.MsgInvalidURL},
		{"url wrong type", `{"url":42}`, enrich.MsgInvalidURL},
		{"relative url", `{"url":"acme.ai"}`, enrich.MsgInvalidURL},
		{"malformed json", `{"url":`, "Invalid JSON body"},
		{"empty body", ``, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/enrich", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[errorBody](t, rec)
			assert.Contains(t, body.Error, tt.wantMsg)
			assert.Zero(t, env.acq.calls)
		})
	}
}

func TestEnrich_AcquisitionFailedWithoutDescription(t *testing.T) {
	env := newTestEnv(t)
	env.acq.acq = scrape.Acquisition{}

	rec := env.do(t, http.MethodPost, "/enrich", map[string]string{"url": "https://down.example"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "Could not fetch content from https://down.example. Provide a company description as fallback.", body.Error)
}

func TestEnrich_AcquisitionFailedWithDescription(t *testing.T) {
	env := newTestEnv(t)
	env.acq.acq = scrape.Acquisition{}

	rec := env.do(t, http.MethodPost, "/enrich", map[string]string{
		"url": "https://down.example", "description": acmeDescription,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEnrich_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/enrich", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// --- companies ---

func createCompany(t *testing.T, env *testEnv, name string) model.Company {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/companies", map[string]any{
		"name":        name,
		"url":         "https://" + strings.ToLower(name) + ".example",
		"description": acmeDescription,
		"industry":    "Logistics",
		"stage":       "Seed",
		"tags":        []string{"ai"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Company](t, rec)
}

func TestCompanies_CRUD(t *testing.T) {
	env := newTestEnv(t)
	c := createCompany(t, env, "Acme")
	assert.NotEmpty(t, c.ID)

	rec := env.do(t, http.MethodGet, "/api/companies/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", decode[model.Company](t, rec).Name)

	rec = env.do(t, http.MethodPatch, "/api/companies/"+c.ID, map[string]string{"stage": "Series A"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Series A", decode[model.Company](t, rec).Stage)

	rec = env.do(t, http.MethodDelete, "/api/companies/"+c.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/companies/"+c.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Error, "not found")
}

func TestCompanies_CreateInvalid(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/companies", map[string]string{"name": "Acme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/companies", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanies_ListFilters(t *testing.T) {
	env := newTestEnv(t)
	a := createCompany(t, env, "Alpha")
	createCompany(t, env, "Bravo")

	rec := env.do(t, http.MethodPost, "/api/companies/"+a.ID+"/enrich", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[model.Company](t, rec).Enrichment.Demo)

	rec = env.do(t, http.MethodGet, "/api/companies?enriched=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]model.Company](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "Bravo", got[0].Name)

	rec = env.do(t, http.MethodGet, "/api/companies?q=alph&industry=Logistics,Fintech", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Company](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/companies?stage=Growth", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/companies?enriched=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/companies?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanies_BulkDelete(t *testing.T) {
	env := newTestEnv(t)
	a := createCompany(t, env, "Alpha")
	b := createCompany(t, env, "Bravo")

	rec := env.do(t, http.MethodPost, "/api/companies/bulk-delete", idsBody{IDs: []string{a.ID, b.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/companies/bulk-delete", idsBody{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompanies_EnrichMissing(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/companies/missing/enrich", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompanies_BulkEnrich(t *testing.T) {
	env := newTestEnv(t)
	createCompany(t, env, "Alpha")
	createCompany(t, env, "Bravo")

	rec := env.do(t, http.MethodPost, "/api/companies/enrich", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.srv.Wait()

	notEnriched := false
	left, err := env.ws.ListCompanies(context.Background(), store.CompanyFilter{Enriched: &notEnriched})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestCompanies_BulkEnrichConflict(t *testing.T) {
	env := newTestEnv(t)
	env.srv.bulkRunning.Store(true)

	rec := env.do(t, http.MethodPost, "/api/companies/enrich", map[string]any{"ids": []string{"x"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// --- lists ---

func TestLists(t *testing.T) {
	env := newTestEnv(t)
	a := createCompany(t, env, "Alpha")
	b := createCompany(t, env, "Bravo")

	rec := env.do(t, http.MethodPost, "/api/lists", createListBody{Name: "Top Picks", CompanyIDs: []string{a.ID}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	l := decode[model.CompanyList](t, rec)
	assert.Equal(t, workspace.ListColors[0], l.Color)

	rec = env.do(t, http.MethodPost, "/api/lists/"+l.ID+"/companies", map[string]any{"company_ids": []string{b.ID, a.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{a.ID, b.ID}, decode[model.CompanyList](t, rec).CompanyIDs)

	rec = env.do(t, http.MethodDelete, "/api/lists/"+l.ID+"/companies/"+a.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{b.ID}, decode[model.CompanyList](t, rec).CompanyIDs)

	rec = env.do(t, http.MethodGet, "/api/lists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.CompanyList](t, rec), 1)

	rec = env.do(t, http.MethodDelete, "/api/lists/"+l.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/lists/"+l.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLists_Invalid(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/lists", createListBody{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/lists/missing/companies", map[string]any{"company_ids": []string{"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- searches and thesis ---

func TestSavedSearches(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/searches", map[string]any{
		"name":    "Seed logistics",
		"filters": map[string]any{"industries": []string{"Logistics"}, "query": "freight"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	ss := decode[model.SavedSearch](t, rec)
	assert.Equal(t, []string{"Logistics"}, ss.Filters.Industries)
	assert.Equal(t, []string{}, ss.Filters.Stages)

	rec = env.do(t, http.MethodGet, "/api/searches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.SavedSearch](t, rec), 1)

	rec = env.do(t, http.MethodDelete, "/api/searches/"+ss.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/searches/"+ss.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThesis(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/thesis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workspace.DefaultThesis, decode[thesisBody](t, rec).Thesis)

	rec = env.do(t, http.MethodPut, "/api/thesis", thesisBody{Thesis: "Climate infra"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Climate infra", decode[thesisBody](t, rec).Thesis)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(store.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(workspace.ErrInvalid))
	assert.Equal(t, http.StatusBadGateway, statusFor(&enrich.Error{Kind: enrich.KindUpstreamUnavailable}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&enrich.Error{Kind: enrich.KindExtraction}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
