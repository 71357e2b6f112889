package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/searchguard/search-protection/internal/intercept"
	"github.com/searchguard/search-protection/internal/settings"
)

// validateRequest is the body of POST /v1/validate. ClientIP is optional
// and falls back to the connection address, for hosts that terminate the
// user connection themselves.
type validateRequest struct {
	Query    string `json:"query"`
	Token    string `json:"token"`
	ClientIP string `json:"client_ip"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.settings.Load(r.Context())
	if err != nil {
		// Without a readable policy there is nothing to enforce against;
		// surface the fault to the host instead of guessing a verdict.
		log.Printf("[server] load settings: %v", err)
		writeError(w, http.StatusServiceUnavailable, "settings unavailable")
		return
	}

	ip := body.ClientIP
	if ip == "" {
		ip = clientIP(r)
	}

	verdict := s.interceptor.Evaluate(r.Context(), intercept.Request{
		RequestID: requestID(r),
		Query:     body.Query,
		Token:     body.Token,
		ClientIP:  ip,
	}, cfg)

	writeJSON(w, http.StatusOK, verdict)
}

func (s *Server) handleTopTerms(w http.ResponseWriter, r *http.Request) {
	view, err := s.report.TopTerms(r.Context())
	if err != nil {
		log.Printf("[server] top terms: %v", err)
		writeError(w, http.StatusInternalServerError, "report unavailable")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Load(r.Context())
	if err != nil {
		log.Printf("[server] load settings: %v", err)
		writeError(w, http.StatusInternalServerError, "settings unavailable")
		return
	}
	writeJSON(w, http.StatusOK, cfg.Redacted())
}

// settingsResponse reports the saved snapshot plus any non-fatal
// validation warnings (inert regex rules, a discarded redirect URL).
type settingsResponse struct {
	Settings settings.Settings `json:"settings"`
	Warnings []string          `json:"warnings,omitempty"`
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var input map[string]string
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, warnings := settings.Sanitize(input)
	s.saveSettings(w, r, cfg, warnings)
}

func (s *Server) handleExportSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Load(r.Context())
	if err != nil {
		log.Printf("[server] load settings: %v", err)
		writeError(w, http.StatusInternalServerError, "settings unavailable")
		return
	}

	data, err := settings.Export(cfg)
	if err != nil {
		log.Printf("[server] export settings: %v", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="search-protection-settings.json"`)
	w.Write(data)
}

func (s *Server) handleImportSettings(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	cfg, warnings, err := settings.Import(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings file")
		return
	}
	s.saveSettings(w, r, cfg, warnings)
}

func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request, cfg settings.Settings, warnings []error) {
	if err := s.settings.Save(r.Context(), cfg); err != nil {
		log.Printf("[server] save settings: %v", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	resp := settingsResponse{Settings: cfg.Redacted()}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}
