package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"resumelift/internal/observability"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	// Add middleware layers with observability
	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /api/v1/sessions", protected(s.createSessionHandler(om)))
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", protected(s.deleteSessionHandler(om)))

	mux.HandleFunc("POST /api/v1/sessions/{id}/resume", protected(s.uploadResumeHandler(om)))
	mux.HandleFunc("GET /api/v1/sessions/{id}/document", protected(s.getDocumentHandler(om)))
	mux.HandleFunc("PUT /api/v1/sessions/{id}/document", protected(s.putDocumentHandler(om)))
	mux.HandleFunc("PUT /api/v1/sessions/{id}/job-description", protected(s.jobDescriptionHandler(om)))
	mux.HandleFunc("POST /api/v1/sessions/{id}/analyze", protected(s.analyzeHandler(om)))
	mux.HandleFunc("GET /api/v1/sessions/{id}/render", protected(s.renderHandler(om)))

	mux.HandleFunc("POST /api/v1/sessions/{id}/edit/open", protected(s.editOpenHandler(om)))
	mux.HandleFunc("POST /api/v1/sessions/{id}/edit/save", protected(s.editSaveHandler(om)))
	mux.HandleFunc("POST /api/v1/sessions/{id}/edit/cancel", protected(s.editCancelHandler(om)))

	mux.HandleFunc("POST /api/v1/sessions/{id}/optimize/open", protected(s.optimizeOpenHandler(om)))
	mux.HandleFunc("POST /api/v1/sessions/{id}/optimize/run", protected(s.optimizeRunHandler(om)))
	mux.HandleFunc("GET /api/v1/sessions/{id}/optimize", protected(s.optimizeStatusHandler(om)))
	mux.HandleFunc("POST /api/v1/sessions/{id}/optimize/undo", protected(s.optimizeUndoHandler(om)))
	mux.HandleFunc("POST /api/v1/sessions/{id}/optimize/close", protected(s.optimizeCloseHandler(om)))

	mux.HandleFunc("GET /api/v1/sessions/{id}/export/{format}", protected(s.exportHandler(om)))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := extractAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.validAPIKey(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// extractAPIKey reads the key from X-API-Key or an Authorization Bearer
// token.
func extractAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	authHeader := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return after
	}
	return ""
}

// validAPIKey compares the presented key against every configured key
// in constant time.
func (s *Server) validAPIKey(apiKey string) bool {
	valid := false
	for _, key := range s.APIKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			valid = true
		}
	}
	return valid
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				// Limit the request body size
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
