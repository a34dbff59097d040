// Package workspace manages the deal-sourcing workspace: tracked companies,
// lists, saved searches, the investment thesis, and enrichment runs.
package workspace

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/enrich"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/store"
)

// ErrInvalid marks caller input that fails validation.
var ErrInvalid = eris.New("invalid input")

// DefaultThesis is returned until a thesis is set.
const DefaultThesis = "We invest in early-stage (Pre-Seed to Series A) technology companies building AI-native infrastructure and vertical SaaS. We look for strong technical moats, large addressable markets, and founders with deep domain expertise."

const thesisKey = "thesis"

// ListColors is the palette new lists cycle through.
var ListColors = []string{
	"#6366f1", "#8b5cf6", "#ec4899", "#f43f5e",
	"#f97316", "#eab308", "#22c55e", "#06b6d4",
}

// Enricher runs the enrichment pipeline.
type Enricher interface {
	Enrich(ctx context.Context, req enrich.Request) (*model.Enrichment, error)
}

// Service implements workspace operations over a Store.
type Service struct {
	store         store.Store
	enricher      Enricher
	defaultThesis string
	bulkInterval  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultThesis overrides DefaultThesis.
func WithDefaultThesis(thesis string) Option {
	return func(s *Service) {
		if strings.TrimSpace(thesis) != "" {
			s.defaultThesis = thesis
		}
	}
}

// WithBulkInterval sets the default pacing for BulkEnrich. Values below
// MinBulkInterval are raised to it.
func WithBulkInterval(d time.Duration) Option {
	return func(s *Service) {
		s.bulkInterval = clampInterval(d)
	}
}

// New creates a Service.
func New(st store.Store, enricher Enricher, opts ...Option) *Service {
	s := &Service{
		store:         st,
		enricher:      enricher,
		defaultThesis: DefaultThesis,
		bulkInterval:  MinBulkInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(format string, args ...any) error {
	return eris.Wrapf(ErrInvalid, format, args...)
}

// --- companies ---

// CreateCompany validates and stores a new company. Enrichment on the input
// is ignored.
func (s *Service) CreateCompany(ctx context.Context, c *model.Company) error {
	if err := normalizeCompany(c); err != nil {
		return err
	}
	c.Enrichment = nil
	return s.store.CreateCompany(ctx, c)
}

func normalizeCompany(c *model.Company) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("company name is required")
	}
	u, err := enrich.ValidateURL(c.URL)
	if err != nil {
		return invalid("company url must be an absolute http(s) URL")
	}
	c.URL = u
	c.Tags = cleanTags(c.Tags)
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *Service) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	return s.store.GetCompany(ctx, id)
}

func (s *Service) ListCompanies(ctx context.Context, filter store.CompanyFilter) ([]model.Company, error) {
	out, err := s.store.ListCompanies(ctx, filter)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Company{}
	}
	return out, nil
}

// UpdateCompany applies a partial update. Enrichment is not updatable here.
func (s *Service) UpdateCompany(ctx context.Context, id string, u model.CompanyUpdate) (*model.Company, error) {
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Apply(c)
	if err := normalizeCompany(c); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCompany(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCompany removes a company and its list memberships.
func (s *Service) DeleteCompany(ctx context.Context, id string) error {
	n, err := s.store.DeleteCompanies(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return eris.Wrapf(store.ErrNotFound, "company %s", id)
	}
	return nil
}

// DeleteCompanies removes every listed company that exists and reports how
// many were removed.
func (s *Service) DeleteCompanies(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, invalid("ids must not be empty")
	}
	return s.store.DeleteCompanies(ctx, ids...)
}

// PurgeDemoEnrichments clears every heuristic enrichment so companies read
// as un-enriched again.
func (s *Service) PurgeDemoEnrichments(ctx context.Context) (int64, error) {
	n, err := s.store.ClearDemoEnrichments(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		zap.L().Info("workspace: purged demo enrichments", zap.Int64("count", n))
	}
	return n, nil
}

// --- lists ---

// CreateList creates a list colored by the current list count, seeded with
// companyIDs.
func (s *Service) CreateList(ctx context.Context, name, description string, companyIDs []string) (*model.CompanyList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("list name is required")
	}
	if err := s.requireCompanies(ctx, companyIDs); err != nil {
		return nil, err
	}

	count, err := s.store.CountLists(ctx)
	if err != nil {
		return nil, err
	}
	l := &model.CompanyList{
		Name:        name,
		Description: strings.TrimSpace(description),
		Color:       ListColors[count%len(ListColors)],
	}
	if err := s.store.CreateList(ctx, l); err != nil {
		return nil, err
	}
	if len(companyIDs) > 0 {
		if _, err := s.store.AddToList(ctx, l.ID, companyIDs...); err != nil {
			return nil, err
		}
	}
	return s.store.GetList(ctx, l.ID)
}

func (s *Service) GetList(ctx context.Context, id string) (*model.CompanyList, error) {
	return s.store.GetList(ctx, id)
}

func (s *Service) ListLists(ctx context.Context) ([]model.CompanyList, error) {
	out, err := s.store.ListLists(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.CompanyList{}
	}
	return out, nil
}

func (s *Service) DeleteList(ctx context.Context, id string) error {
	return s.store.DeleteList(ctx, id)
}

// AddToList appends companies to a list, skipping members already present
// and keeping first-seen order.
func (s *Service) AddToList(ctx context.Context, listID string, companyIDs []string) (*model.CompanyList, error) {
	if len(companyIDs) == 0 {
		return nil, invalid("company_ids must not be empty")
	}
	if err := s.requireCompanies(ctx, companyIDs); err != nil {
		return nil, err
	}
	if _, err := s.store.AddToList(ctx, listID, companyIDs...); err != nil {
		return nil, err
	}
	return s.store.GetList(ctx, listID)
}

func (s *Service) RemoveFromList(ctx context.Context, listID, companyID string) (*model.CompanyList, error) {
	if err := s.store.RemoveFromList(ctx, listID, companyID); err != nil {
		return nil, err
	}
	return s.store.GetList(ctx, listID)
}

func (s *Service) requireCompanies(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.store.GetCompany(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// --- saved searches ---

func (s *Service) SaveSearch(ctx context.Context, name string, filters model.SearchFilters) (*model.SavedSearch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("search name is required")
	}
	if filters.Industries == nil {
		filters.Industries = []string{}
	}
	if filters.Stages == nil {
		filters.Stages = []string{}
	}
	ss := &model.SavedSearch{Name: name, Filters: filters}
	if err := s.store.CreateSavedSearch(ctx, ss); err != nil {
		return nil, err
	}
	return ss, nil
}

func (s *Service) ListSavedSearches(ctx context.Context) ([]model.SavedSearch, error) {
	out, err := s.store.ListSavedSearches(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.SavedSearch{}
	}
	return out, nil
}

func (s *Service) DeleteSavedSearch(ctx context.Context, id string) error {
	return s.store.DeleteSavedSearch(ctx, id)
}

// --- thesis ---

// Thesis returns the stored thesis, or the default when none is set.
func (s *Service) Thesis(ctx context.Context) (string, error) {
	v, err := s.store.GetSetting(ctx, thesisKey)
	if errors.Is(err, store.ErrNotFound) {
		return s.defaultThesis, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// SetThesis stores thesis. An empty thesis is allowed and disables thesis
// alignment in later runs.
func (s *Service) SetThesis(ctx context.Context, thesis string) error {
	return s.store.SetSetting(ctx, thesisKey, strings.TrimSpace(thesis))
}
