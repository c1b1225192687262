// Package api exposes route scoring over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/saferoute/internal/config"
	"github.com/sells-group/saferoute/internal/model"
	"github.com/sells-group/saferoute/internal/risk"
	"github.com/sells-group/saferoute/internal/scorer"
)

// Server scores routes for HTTP clients against a trained risk model.
type Server struct {
	scorer *scorer.RouteScorer
	model  *risk.Model
	cfg    config.ServerConfig
}

func NewServer(rs *scorer.RouteScorer, m *risk.Model, cfg config.ServerConfig) *Server {
	return &Server{scorer: rs, model: m, cfg: cfg}
}

// Router builds the HTTP handler. Scoring sits behind the rate limiter;
// health and model metadata do not.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Group(func(r chi.Router) {
		r.Use(rateLimit(s.cfg.RatePerSec, s.cfg.RateBurst))
		r.Post("/score_route", s.handleScoreRoute)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/model", s.handleModel)

	if s.cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "api: server listen")
	}
	return nil
}

type scoreRequest struct {
	Routes []json.RawMessage `json:"routes"`
}

type scoreResponse struct {
	Scores []model.Score `json:"scores"`
}

func (s *Server) handleScoreRoute(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Routes == nil {
		writeError(w, http.StatusBadRequest, "routes must be a list")
		return
	}

	scores := s.scorer.ScoreBatch(r.Context(), req.Routes)
	writeJSON(w, http.StatusOK, scoreResponse{Scores: scores})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.model.Meta())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
