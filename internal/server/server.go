// Package server exposes the validation pipeline and its operator
// surface over HTTP: the validate endpoint called by the host search
// frontend, the settings CRUD and export/import endpoints, the cached
// reporting view, a WebSocket live feed of block events, and the usual
// health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/searchguard/search-protection/internal/aggcache"
	"github.com/searchguard/search-protection/internal/intercept"
	"github.com/searchguard/search-protection/internal/messaging"
	"github.com/searchguard/search-protection/internal/metrics"
	"github.com/searchguard/search-protection/internal/settings"
)

// SettingsStore is the settings persistence boundary. Satisfied by
// settings.Store.
type SettingsStore interface {
	Load(ctx context.Context) (settings.Settings, error)
	Save(ctx context.Context, cfg settings.Settings) error
}

// TopTermsReport serves the cached aggregate view. Satisfied by
// aggcache.Report.
type TopTermsReport interface {
	TopTerms(ctx context.Context) (*aggcache.View, error)
}

// Server holds the handler dependencies.
type Server struct {
	settings    SettingsStore
	interceptor *intercept.Interceptor
	report      TopTermsReport
	nats        *messaging.NATSClient // nil when NATS is not configured
}

// New creates a server. nats may be nil; the live feed endpoint then
// reports unavailable.
func New(st SettingsStore, ic *intercept.Interceptor, report TopTermsReport, nats *messaging.NATSClient) *Server {
	return &Server{settings: st, interceptor: ic, report: report, nats: nats}
}

// Routes returns the HTTP mux with every endpoint registered.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("GET /v1/report/top-terms", s.handleTopTerms)
	mux.HandleFunc("GET /v1/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /v1/settings", s.handlePutSettings)
	mux.HandleFunc("GET /v1/settings/export", s.handleExportSettings)
	mux.HandleFunc("POST /v1/settings/import", s.handleImportSettings)
	mux.HandleFunc("GET /admin/events/live", s.handleLiveFeed)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// writeJSON renders v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] write response: %v", err)
	}
}

// writeError renders a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// clientIP extracts the caller's address: the first X-Forwarded-For hop
// when present, otherwise the connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestID returns the caller-supplied correlation id or mints one.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}
