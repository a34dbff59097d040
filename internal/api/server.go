// Package api exposes the enrichment pipeline and the workspace over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ComradeParth/VC-Intelligence-Interface/internal/workspace"
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	enricher    workspace.Enricher
	ws          *workspace.Service
	corsOrigins []string
	bgCtx       context.Context

	bulkRunning atomic.Bool
	bulkWG      sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. Defaults to "*".
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithBackgroundContext sets the context that background bulk runs inherit.
// Cancelling it stops a running bulk enrichment.
func WithBackgroundContext(ctx context.Context) Option {
	return func(s *Server) {
		s.bgCtx = ctx
	}
}

// New creates a Server.
func New(enricher workspace.Enricher, ws *workspace.Service, opts ...Option) *Server {
	s := &Server{
		enricher:    enricher,
		ws:          ws,
		corsOrigins: []string{"*"},
		bgCtx:       context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Post("/enrich", s.enrich)

	r.Route("/api", func(r chi.Router) {
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", s.listCompanies)
			r.Post("/", s.createCompany)
			r.Post("/bulk-delete", s.bulkDeleteCompanies)
			r.Post("/enrich", s.bulkEnrich)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getCompany)
				r.Patch("/", s.updateCompany)
				r.Delete("/", s.deleteCompany)
				r.Post("/enrich", s.enrichCompany)
			})
		})
		r.Route("/lists", func(r chi.Router) {
			r.Get("/", s.listLists)
			r.Post("/", s.createList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getList)
				r.Delete("/", s.deleteList)
				r.Post("/companies", s.addToList)
				r.Delete("/companies/{companyID}", s.removeFromList)
			})
		})
		r.Route("/searches", func(r chi.Router) {
			r.Get("/", s.listSearches)
			r.Post("/", s.saveSearch)
			r.Delete("/{id}", s.deleteSearch)
		})
		r.Get("/thesis", s.getThesis)
		r.Put("/thesis", s.setThesis)
	})

	return r
}

// Wait blocks until background bulk runs have finished.
func (s *Server) Wait() {
	s.bulkWG.Wait()
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
