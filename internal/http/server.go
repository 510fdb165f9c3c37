// Package http exposes the tracker over a JSON API: the three collections,
// the financial summary and the sync controls.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/services"
)

type Server struct {
	http.Server

	tracker *services.Tracker
	summary *services.SummaryService
	sync    *services.SyncManager
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, tracker *services.Tracker, summary *services.SummaryService, sync *services.SyncManager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		tracker: tracker,
		summary: summary,
		sync:    sync,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/transactions", s.withRequestLog(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withRequestLog(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withRequestLog(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withRequestLog(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.withRequestLog(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withRequestLog(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withRequestLog(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withRequestLog(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/rules", s.withRequestLog(s.handleListRules))
	mux.HandleFunc("POST /api/rules", s.withRequestLog(s.handleCreateRule))
	mux.HandleFunc("PUT /api/rules/{id}", s.withRequestLog(s.handleUpdateRule))
	mux.HandleFunc("DELETE /api/rules/{id}", s.withRequestLog(s.handleDeleteRule))

	mux.HandleFunc("GET /api/summary", s.withRequestLog(s.handleSummary))
	mux.HandleFunc("GET /api/sync/status", s.withRequestLog(s.handleSyncStatus))
	mux.HandleFunc("POST /api/sync", s.withRequestLog(s.handleTriggerSync))

	return s
}

// withRequestLog traces every request with a generated request id.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		slog.InfoContext(r.Context(), "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)

		next(w, r)

		slog.InfoContext(r.Context(), "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// Shutdown stops accepting new requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}
