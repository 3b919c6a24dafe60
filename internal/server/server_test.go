package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/gateway"
	"resumelift/internal/observability"
	"resumelift/internal/types"
)

type fakeGateway struct {
	parseResult   *types.ResumeDocument
	analyzeResult *types.ATSReport
	optimize      func(req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error)
	pdf           *gateway.Artifact
}

func (f *fakeGateway) ParseResume(ctx context.Context, filename string, content []byte) (*types.ResumeDocument, error) {
	if f.parseResult == nil {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed, "no parse result configured", nil)
	}
	return f.parseResult, nil
}

func (f *fakeGateway) AnalyzeATS(ctx context.Context, doc *types.ResumeDocument, jobDescription string) (*types.ATSReport, error) {
	if f.analyzeResult == nil {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed, "no analysis configured", nil)
	}
	return f.analyzeResult, nil
}

func (f *fakeGateway) OptimizeSection(ctx context.Context, req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error) {
	if f.optimize == nil {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed, "no optimizer configured", nil)
	}
	return f.optimize(req)
}

func (f *fakeGateway) GeneratePDF(ctx context.Context, doc *types.ResumeDocument) (*gateway.Artifact, error) {
	if f.pdf == nil {
		return nil, errors.NewUnsupportedError(errors.ErrCodeNotSupported, "not supported", nil)
	}
	return f.pdf, nil
}

func (f *fakeGateway) GenerateDOCX(ctx context.Context, doc *types.ResumeDocument) (*gateway.Artifact, error) {
	return nil, errors.NewUnsupportedError(errors.ErrCodeNotSupported, "not supported", nil)
}

func (f *fakeGateway) Stats() map[string]any { return map[string]any{"mode": "fake", "healthy": true} }

func (f *fakeGateway) Close() error { return nil }

func testAppConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			AllowedExtensions: []string{".pdf", ".docx"},
			MaxFileSize:       1 << 20,
		},
		Session: config.SessionConfig{
			TTL:             time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}

func testDocument() *types.ResumeDocument {
	return &types.ResumeDocument{
		Name:    "Margaret Hamilton",
		Email:   "margaret@example.com",
		Summary: "Software engineering pioneer.",
		Skills:  []string{"Assembly", "Systems design"},
	}
}

// newTestServer wires a server over the fake gateway with observability
// disabled and returns the configured mux.
func newTestServer(t *testing.T, fake *fakeGateway, serverCfg ServerConfig) (*Server, http.Handler) {
	t.Helper()

	appCfg := testAppConfig()
	logger := errors.NewLogger(slog.LevelError)
	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, appCfg)
	if err != nil {
		t.Fatalf("NewObservabilityManager() error: %v", err)
	}

	srv := NewServer(appCfg, serverCfg, logger)
	srv.Gateway = fake
	srv.Sessions = NewSessionRegistry(appCfg, fake, logger, nil)
	t.Cleanup(func() { srv.Sessions.Shutdown(context.Background()) })
	if srv.RateLimiter != nil {
		t.Cleanup(srv.RateLimiter.Close)
	}

	return srv, srv.setupRoutes(om)
}

func openSession(t *testing.T, mux http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp CreateSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode session response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("empty session id")
	}
	return resp.SessionID
}

func jsonRequest(method, url string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func loadDocument(t *testing.T, mux http.Handler, id string) {
	t.Helper()

	data, _ := json.Marshal(testDocument())
	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/"+id+"/document", bytes.NewReader(data))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put document status = %d, body: %s", rec.Code, rec.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, mux := newTestServer(t, &fakeGateway{}, ServerConfig{})

	id := openSession(t, mux)

	// Fresh session has no document yet.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/document", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("document on empty session status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("delete session status = %d", rec.Code)
	}

	// Closed sessions are gone.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/document", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("document on closed session status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), errors.ErrCodeSessionNotFound) {
		t.Errorf("body missing session error code: %s", rec.Body.String())
	}
}

func TestUploadResumeEndpoint(t *testing.T) {
	_, mux := newTestServer(t, &fakeGateway{parseResult: testDocument()}, ServerConfig{})
	id := openSession(t, mux)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "resume.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile() error: %v", err)
	}
	if _, err := part.Write([]byte("%PDF-1.4")); err != nil {
		t.Fatalf("part write error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer close error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/resume", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Margaret Hamilton") {
		t.Errorf("response missing parsed document: %s", rec.Body.String())
	}

	// Unsupported extensions are rejected with the validation code.
	buf.Reset()
	writer = multipart.NewWriter(&buf)
	part, _ = writer.CreateFormFile("file", "resume.txt")
	_, _ = part.Write([]byte("plain text"))
	_ = writer.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/resume", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("txt upload status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), errors.ErrCodeUnsupportedFile) {
		t.Errorf("body missing error code: %s", rec.Body.String())
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	fake := &fakeGateway{
		analyzeResult: &types.ATSReport{Success: true, Score: types.ATSScore{OverallScore: 82}},
	}
	_, mux := newTestServer(t, fake, ServerConfig{})
	id := openSession(t, mux)
	loadDocument(t, mux, id)

	// Analysis requires a job description first.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/analyze", map[string]any{}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("analyze without job description status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPut, "/api/v1/sessions/"+id+"/job-description",
		JobDescriptionRequest{JobDescription: "Flight software lead"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("set job description status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/analyze", map[string]any{}))
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var report types.ATSReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.Score.OverallScore != 82 {
		t.Errorf("overall score = %d, want 82", report.Score.OverallScore)
	}
}

func TestEditFlowOverHTTP(t *testing.T) {
	_, mux := newTestServer(t, &fakeGateway{}, ServerConfig{})
	id := openSession(t, mux)
	loadDocument(t, mux, id)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/edit/open",
		EditOpenRequest{Section: "summary"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("edit open status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Software engineering pioneer.") {
		t.Errorf("seed missing current summary: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/edit/save",
		map[string]any{"draft": "Updated summary text."}))
	if rec.Code != http.StatusOK {
		t.Fatalf("edit save status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/document", nil))
	if !strings.Contains(rec.Body.String(), "Updated summary text.") {
		t.Errorf("document not updated: %s", rec.Body.String())
	}

	// Saving again without an open edit conflicts.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/edit/save",
		map[string]any{"draft": "Another draft"}))
	if rec.Code != http.StatusConflict {
		t.Errorf("save without open edit status = %d", rec.Code)
	}
}

func TestOptimizeFlowOverHTTP(t *testing.T) {
	fake := &fakeGateway{
		optimize: func(req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error) {
			return &types.OptimizeSectionResponse{
				Success:          true,
				OptimizedSection: map[string]json.RawMessage{"content": json.RawMessage(`"Tailored summary."`)},
				Explanation:      "Focused on flight software",
				ChangesMade:      []string{"Rewrote summary"},
			}, nil
		},
	}
	_, mux := newTestServer(t, fake, ServerConfig{})
	id := openSession(t, mux)
	loadDocument(t, mux, id)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPut, "/api/v1/sessions/"+id+"/job-description",
		JobDescriptionRequest{JobDescription: "Flight software lead"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("set job description status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/optimize/open",
		OptimizeOpenRequest{Section: "summary"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize open status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/optimize/run",
		OptimizeRunRequest{}))
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize run status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Focused on flight software") {
		t.Errorf("run response missing explanation: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/optimize", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize status = %d", rec.Code)
	}
	var status OptimizeStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.State != "completed" {
		t.Errorf("optimizer state = %q, want completed", status.State)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/optimize/undo", map[string]any{}))
	if rec.Code != http.StatusOK {
		t.Fatalf("optimize undo status = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/document", nil))
	if !strings.Contains(rec.Body.String(), "Software engineering pioneer.") {
		t.Errorf("undo did not restore summary: %s", rec.Body.String())
	}
}

func TestOptimizeOpenRejectsNegativeItem(t *testing.T) {
	_, mux := newTestServer(t, &fakeGateway{}, ServerConfig{})
	id := openSession(t, mux)
	loadDocument(t, mux, id)

	// A negative item index is a validation error, not a request for
	// whole-section bulk optimization.
	item := -1
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/api/v1/sessions/"+id+"/optimize/open",
		OptimizeOpenRequest{Section: "skills", Item: &item}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("optimize open status = %d, want %d, body: %s",
			rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), errors.ErrCodeInvalidTarget) {
		t.Errorf("error body missing code %s: %s", errors.ErrCodeInvalidTarget, rec.Body.String())
	}
}

func TestExportTextEndpoint(t *testing.T) {
	_, mux := newTestServer(t, &fakeGateway{}, ServerConfig{})
	id := openSession(t, mux)
	loadDocument(t, mux, id)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/export/text", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body: %s", rec.Code, rec.Body.String())
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "Margaret_Hamilton_resume.txt") {
		t.Errorf("Content-Disposition = %q", disposition)
	}
	if !strings.Contains(rec.Body.String(), "MARGARET HAMILTON") {
		t.Errorf("rendered text missing name header:\n%s", rec.Body.String())
	}

	// DOCX is not supported by this backend.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/export/docx", nil))
	if rec.Code != http.StatusNotImplemented {
		t.Errorf("docx export status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/export/xlsx", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, mux := newTestServer(t, &fakeGateway{}, ServerConfig{
		APIKeys: []string{"secret-key-123456"},
	})

	tests := []struct {
		name     string
		header   string
		value    string
		expected int
	}{
		{"missing key", "", "", http.StatusUnauthorized},
		{"invalid key", "X-API-Key", "wrong-key", http.StatusUnauthorized},
		{"valid key", "X-API-Key", "secret-key-123456", http.StatusCreated},
		{"valid bearer", "Authorization", "Bearer secret-key-123456", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != tt.expected {
				t.Errorf("status = %d, want %d", rec.Code, tt.expected)
			}
		})
	}
}

func TestHealthEndpointUnauthenticated(t *testing.T) {
	_, mux := newTestServer(t, &fakeGateway{}, ServerConfig{
		Version: "1.2.3",
		APIKeys: []string{"secret-key-123456"},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	for _, want := range []string{"healthy", "resumelift", "1.2.3"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("health body missing %q: %s", want, rec.Body.String())
		}
	}
}

func TestRateLimitRejects(t *testing.T) {
	_, mux := newTestServer(t, &fakeGateway{}, ServerConfig{
		RateLimit: &config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 60,
			BurstCapacity:  1,
			ByIP:           true,
		},
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
}

func TestSessionRegistryEviction(t *testing.T) {
	appCfg := testAppConfig()
	appCfg.Session.TTL = time.Millisecond
	logger := errors.NewLogger(slog.LevelError)

	registry := NewSessionRegistry(appCfg, &fakeGateway{}, logger, nil)
	defer registry.Shutdown(context.Background())

	id, err := registry.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	registry.evictExpired()

	if _, err := registry.Get(id); err == nil {
		t.Error("expired session still resolvable")
	}
	if registry.Count() != 0 {
		t.Errorf("count = %d after eviction", registry.Count())
	}
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"123456789abcdef", "12345678****"},
	}

	for _, tt := range tests {
		if got := maskAPIKey(tt.key); got != tt.expected {
			t.Errorf("maskAPIKey(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.5"},
		{"x-real-ip", map[string]string{"X-Real-IP": "203.0.113.9"}, "10.0.0.2:1234", "203.0.113.9"},
		{"remote addr", nil, "10.0.0.2:1234", "10.0.0.2"},
		{"invalid forwarded falls through", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.2:1234", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.expected {
				t.Errorf("getClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err      error
		expected int
	}{
		{errors.NewValidationError(errors.ErrCodeInvalidFormat, "bad", nil), http.StatusBadRequest},
		{errors.NewNotFoundError(errors.ErrCodeNoResume, "none", nil), http.StatusNotFound},
		{errors.NewConflictError(errors.ErrCodeSessionState, "busy", nil), http.StatusConflict},
		{errors.NewUnsupportedError(errors.ErrCodeNotSupported, "no", nil), http.StatusNotImplemented},
		{errors.NewGatewayError(errors.ErrCodeGatewayFailed, "down", nil), http.StatusBadGateway},
		{errors.NewNetworkError(errors.ErrCodeGatewayTimeout, "slow", nil), http.StatusGatewayTimeout},
		{errors.NewInternalError(errors.ErrCodeInvalidConfig, "broken", nil), http.StatusInternalServerError},
	}

	for i, tt := range tests {
		appErr, ok := errors.IsAppError(tt.err)
		if !ok {
			t.Fatalf("case %d: not an AppError", i)
		}
		if got := statusForError(appErr); got != tt.expected {
			t.Errorf("case %d (%s): status = %d, want %d", i, appErr.Code, got, tt.expected)
		}
	}
}

func TestParseFirstIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"203.0.113.5", "203.0.113.5"},
		{"203.0.113.5, 10.0.0.1", "203.0.113.5"},
		{"garbage, 10.0.0.1", "10.0.0.1"},
		{"garbage", ""},
	}

	for _, tt := range tests {
		if got := parseFirstIP(tt.input); got != tt.expected {
			t.Errorf("parseFirstIP(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
