// Package api exposes the HTTP surface: library management, discovery,
// tags and streaming links, all under /api/v1.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"trackarr/internal/config"
	"trackarr/internal/discovery"
	"trackarr/internal/httputil"
	"trackarr/internal/ingest"
	"trackarr/internal/logging"
	"trackarr/internal/repository"
	"trackarr/internal/version"
)

type Server struct {
	config  *config.Config
	store   *repository.Store
	logger  *logrus.Logger
	version version.Info
	router  chi.Router
}

func NewServer(cfg *config.Config, store *repository.Store, ingestor *ingest.Ingestor, discoverySvc *discovery.Service, logger *logrus.Logger, ver version.Info) *Server {
	s := &Server{
		config:  cfg,
		store:   store,
		logger:  logger,
		version: ver,
	}

	r := chi.NewRouter()
	r.Use(logging.Middleware(logger))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Mount("/media", NewMediaHandler(store, ingestor, logger).Router())
		r.Mount("/tags", NewTagHandler(store).Router())
		NewDiscoveryHandler(discoverySvc).Register(r)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.CountByType()
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": s.version.Version,
		"counts":  counts,
	})
}
