package workspace

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/enrich"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/model"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/store"
)

// MinBulkInterval is the smallest gap allowed between pipeline calls in a
// bulk run.
const MinBulkInterval = 500 * time.Millisecond

// BulkResult summarizes a bulk enrichment run.
type BulkResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Demo      int `json:"demo"`
	Failed    int `json:"failed"`
}

func clampInterval(d time.Duration) time.Duration {
	if d < MinBulkInterval {
		return MinBulkInterval
	}
	return d
}

// EnrichCompany runs the pipeline for a stored company using the workspace
// thesis and the company description, then attaches the result.
func (s *Service) EnrichCompany(ctx context.Context, id string) (*model.Company, error) {
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	thesis, err := s.Thesis(ctx)
	if err != nil {
		return nil, err
	}

	e, err := s.enricher.Enrich(ctx, enrich.Request{
		URL:         c.URL,
		Thesis:      thesis,
		Description: c.Description,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.SetEnrichment(ctx, c.ID, e); err != nil {
		return nil, err
	}
	c.Enrichment = e
	return c, nil
}

// BulkEnrich enriches ids one at a time, or every un-enriched company when
// ids is empty. Each call starts at least interval after the previous one
// finished (zero uses the configured default). Individual failures are
// counted; only cancellation stops the run.
func (s *Service) BulkEnrich(ctx context.Context, ids []string, interval time.Duration) (BulkResult, error) {
	var res BulkResult

	if len(ids) == 0 {
		notEnriched := false
		companies, err := s.store.ListCompanies(ctx, store.CompanyFilter{Enriched: &notEnriched})
		if err != nil {
			return res, err
		}
		for _, c := range companies {
			ids = append(ids, c.ID)
		}
	}
	if interval == 0 {
		interval = s.bulkInterval
	}
	interval = clampInterval(interval)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if i > 0 {
			if err := pause(ctx, interval); err != nil {
				return res, err
			}
		}
		res.Attempted++

		c, err := s.EnrichCompany(ctx, id)
		if err != nil {
			res.Failed++
			zap.L().Warn("workspace: bulk enrich failed",
				zap.String("company_id", id),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			continue
		}
		res.Succeeded++
		if c.Enrichment.Demo {
			res.Demo++
		}
	}

	zap.L().Info("workspace: bulk enrich complete",
		zap.Int("attempted", res.Attempted),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("demo", res.Demo),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// pause waits d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
