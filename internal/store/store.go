// Package store persists the deal-sourcing workspace.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("not found")

// CompanyFilter narrows ListCompanies. Zero values match everything.
type CompanyFilter struct {
	Query      string   `json:"query,omitempty"`
	Industries []string `json:"industries,omitempty"`
	Stages     []string `json:"stages,omitempty"`
	Enriched   *bool    `json:"enriched,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}

// Store defines the persistence interface for the workspace.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetCompanyByURL(ctx context.Context, url string) (*model.Company, error)
	ListCompanies(ctx context.Context, filter CompanyFilter) ([]model.Company, error)
	UpdateCompany(ctx context.Context, c *model.Company) error
	SetEnrichment(ctx context.Context, id string, e *model.Enrichment) error
	DeleteCompanies(ctx context.Context, ids ...string) (int64, error)
	ClearDemoEnrichments(ctx context.Context) (int64, error)

	// Lists
	CreateList(ctx context.Context, l *model.CompanyList) error
	GetList(ctx context.Context, id string) (*model.CompanyList, error)
	ListLists(ctx context.Context) ([]model.CompanyList, error)
	CountLists(ctx context.Context) (int, error)
	DeleteList(ctx context.Context, id string) error
	AddToList(ctx context.Context, listID string, companyIDs ...string) (int, error)
	RemoveFromList(ctx context.Context, listID, companyID string) error

	// Saved searches
	CreateSavedSearch(ctx context.Context, s *model.SavedSearch) error
	ListSavedSearches(ctx context.Context) ([]model.SavedSearch, error)
	DeleteSavedSearch(ctx context.Context, id string) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Page cache
	GetPage(ctx context.Context, url string, now time.Time) (*model.CachedPage, error)
	PutPage(ctx context.Context, page model.CachedPage) error
	DeleteExpiredPages(ctx context.Context, now time.Time) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const companyColumns = `id, name, url, description, industry, stage, tags, location, founded, logo, enrichment, created_at, updated_at`

// companyWhere renders filter as a WHERE clause. ph formats the n-th
// (1-based) placeholder; tagsExpr is the tags column as text.
func companyWhere(f CompanyFilter, ph func(n int) string, tagsExpr string) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		return ph(len(args))
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		pattern := "%" + q + "%"
		clauses = append(clauses, fmt.Sprintf("(LOWER(name) LIKE %s OR LOWER(description) LIKE %s OR LOWER(%s) LIKE %s)",
			next(pattern), next(pattern), tagsExpr, next(pattern)))
	}
	if in := inList(f.Industries, next); in != "" {
		clauses = append(clauses, "industry IN ("+in+")")
	}
	if in := inList(f.Stages, next); in != "" {
		clauses = append(clauses, "stage IN ("+in+")")
	}
	if f.Enriched != nil {
		if *f.Enriched {
			clauses = append(clauses, "enrichment IS NOT NULL")
		} else {
			clauses = append(clauses, "enrichment IS NULL")
		}
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func inList(values []string, next func(any) string) string {
	ph := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			ph = append(ph, next(v))
		}
	}
	return strings.Join(ph, ", ")
}

// pageClause renders LIMIT/OFFSET for filter.
func pageClause(f CompanyFilter) string {
	var b strings.Builder
	if f.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", f.Limit)
		if f.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", f.Offset)
		}
	}
	return b.String()
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// encodeCompany renders the JSON columns of c.
func encodeCompany(c *model.Company) (tags string, enrichment any, demo bool, err error) {
	raw, err := json.Marshal(nonNil(c.Tags))
	if err != nil {
		return "", nil, false, err
	}
	enrichment, demo, err = encodeEnrichment(c.Enrichment)
	return string(raw), enrichment, demo, err
}

// encodeEnrichment returns nil (SQL NULL) for a nil enrichment.
func encodeEnrichment(e *model.Enrichment) (any, bool, error) {
	if e == nil {
		return nil, false, nil
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, false, err
	}
	return string(raw), e.Demo, nil
}

func decodeCompany(c *model.Company, tags []byte, hasEnrichment bool, enrichment []byte) error {
	c.Tags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &c.Tags); err != nil {
			return eris.Wrap(err, "unmarshal tags")
		}
	}
	if hasEnrichment && len(enrichment) > 0 {
		var e model.Enrichment
		if err := json.Unmarshal(enrichment, &e); err != nil {
			return eris.Wrap(err, "unmarshal enrichment")
		}
		c.Enrichment = &e
	}
	return nil
}
