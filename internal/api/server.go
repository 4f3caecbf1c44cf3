// Package api exposes lists, cleanup and enrichment over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/lists"
	"github.com/sells-group/dataforge/internal/store"
)

// Config controls the HTTP surface.
type Config struct {
	CORSOrigins []string
}

// Server routes API requests to the list service.
type Server struct {
	router chi.Router
	svc    *lists.Service
	// runCtx bounds background enrichment runs; it outlives any request.
	runCtx context.Context
}

// NewServer builds the router. Background runs started through the API stop
// when ctx is cancelled.
func NewServer(ctx context.Context, svc *lists.Service, cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		svc:    svc,
		runCtx: ctx,
	}
	s.routes(cfg)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(cfg Config) {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(requestLogger)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/lists", s.handleListLists)
		r.Get("/lists/{id}", s.handleGetList)
		r.Delete("/lists/{id}", s.handleDeleteList)
		r.Get("/lists/{id}/rows", s.handleListRows)
		r.Post("/lists/{id}/cleanup", s.handleCleanup)
		r.Post("/lists/{id}/enrich", s.handleStartEnrich)
		r.Get("/runs/{id}", s.handleGetRun)

		r.Post("/enrich/scrape", s.handleScrape)
		r.Post("/enrich/find-email", s.handleFindEmail)
		r.Post("/enrich/verify-email", s.handleVerifyEmail)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("dur", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Int("status", status), zap.Error(err))
	} else {
		zap.L().Warn("api: request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// storeStatus maps store and list-service failures onto HTTP statuses.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lists.ErrRunInFlight):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
