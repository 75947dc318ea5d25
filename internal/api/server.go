// Package api exposes the storefront-facing HTTP surface: floor-plan
// resolution, the mail proxy, and upload storage.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mattori/backend/internal/config"
	"github.com/mattori/backend/internal/mail"
	"github.com/mattori/backend/internal/observability"
	"github.com/mattori/backend/internal/uploads"
)

// FloorplanResolver turns a listing URL into an FML document.
type FloorplanResolver interface {
	Resolve(ctx context.Context, rawURL string) (map[string]any, error)
}

// UploadIndex records stored uploads so retention can prune them later.
type UploadIndex interface {
	RecordUpload(ctx context.Context, filename, kind string, sizeBytes int64) error
}

type Server struct {
	router   *chi.Mux
	cfg      *config.Config
	resolver FloorplanResolver
	sender   mail.Sender // nil when no API key is configured
	previews *uploads.Store
	fmlStore *uploads.Store
	index    UploadIndex
}

func NewServer(cfg *config.Config, resolver FloorplanResolver, sender mail.Sender, previews, fmlStore *uploads.Store, index UploadIndex) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		resolver: resolver,
		sender:   sender,
		previews: previews,
		fmlStore: fmlStore,
		index:    index,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.router.Get("/", s.handleRoot)
	s.router.Get("/stats", s.handleStats)

	s.router.Post("/funda-fml", s.handleFundaFML)

	s.router.Post("/api/send", s.handleSend)
	s.router.Post("/api/mail", s.handleMail)
	s.router.Post("/api/feedback", s.handleFeedback)

	s.router.Post("/upload-preview", s.handleUploadPreview)
	s.router.Get("/preview/{filename}", s.handleServePreview)
	s.router.Post("/upload-fml", s.handleUploadFML)
	s.router.Get("/fml-file/{filename}", s.handleServeFML)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "mattori-api",
		"endpoints": []string{
			"/funda-fml", "/api/send", "/api/mail", "/api/feedback",
			"/upload-preview", "/preview/{filename}", "/upload-fml", "/fml-file/{filename}",
		},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, observability.Snapshot())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
