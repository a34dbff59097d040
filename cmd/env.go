package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/config"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/enrich"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/llm"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/scrape"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/store"
	"github.com/ComradeParth/VC-Intelligence-Interface/internal/workspace"
	"github.com/ComradeParth/VC-Intelligence-Interface/pkg/jina"
)

// appEnv holds the store and services shared by every command.
type appEnv struct {
	Store     store.Store
	Pipeline  *enrich.Service
	Workspace *workspace.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config for mode, opens and migrates the store, and
// builds the pipeline and workspace. Callers should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	pipeline, err := initPipeline(ctx, c, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	ws := workspace.New(st, pipeline,
		workspace.WithDefaultThesis(c.Workspace.DefaultThesis),
		workspace.WithBulkInterval(c.Bulk.Interval()),
	)
	return &appEnv{Store: st, Pipeline: pipeline, Workspace: ws}, nil
}

func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "sqlite":
		st, err := store.NewSQLite(sc.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, sc.DatabaseURL, &store.PoolConfig{
			MaxConns: sc.MaxConns,
			MinConns: sc.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", sc.Driver)
	}
}

// initPipeline wires acquisition (reader, optional local fallback, page
// cache) and the configured completion backend into an enrich.Service.
func initPipeline(ctx context.Context, c *config.Config, cache scrape.PageCache) (*enrich.Service, error) {
	jinaClient := jina.NewClient(c.Jina.Key,
		jina.WithBaseURL(c.Jina.BaseURL),
		jina.WithMaxAttempts(c.Jina.MaxAttempts),
		jina.WithRateLimit(c.Jina.RequestsPerMinute),
	)
	scrapers := []scrape.Scraper{scrape.NewJinaAdapter(jinaClient)}
	if c.Jina.LocalFallback {
		scrapers = append(scrapers, scrape.NewLocalScraper(c.Jina.Timeout()))
	}
	acquirer := scrape.NewAcquirer(scrape.NewChain(scrapers...),
		scrape.WithCache(cache, c.Jina.CacheTTL()),
		scrape.WithTimeout(c.Jina.Timeout()),
	)

	completer, err := llm.New(ctx, llm.Config{
		Provider: c.LLM.Provider,
		Key:      c.LLM.Key,
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "init llm")
	}

	svc := enrich.NewService(acquirer, completer,
		enrich.WithCompletionTimeout(c.LLM.Timeout()),
		enrich.WithModel(c.LLM.Model),
	)
	if svc.HeuristicOnly() {
		zap.L().Info("no llm key configured, enrichment runs in heuristic mode")
	} else {
		zap.L().Info("llm backend configured", zap.String("provider", completer.Name()))
	}
	return svc, nil
}
