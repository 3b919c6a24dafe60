package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/observability"
	"resumelift/internal/render"
	"resumelift/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Backend endpoint paths.
const (
	pathParseResume     = "/parse-resume"
	pathAnalyzeATS      = "/analyze-ats"
	pathOptimizeSection = "/optimize-section"
	pathGeneratePDF     = "/generate-pdf"
	pathGenerateDOCX    = "/generate-docx"
)

// httpResult is one backend response after the status check.
type httpResult struct {
	status int
	header http.Header
	body   []byte
}

// backendError is a non-2xx backend response with its extracted detail.
type backendError struct {
	status int
	detail string
}

func (e *backendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.status, e.detail)
}

// HTTPClient talks to the REST processing backend configured at
// gateway.baseURL. All calls run through the circuit breaker and the
// shared retry policy.
type HTTPClient struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
	breaker    *Breaker[*httpResult]
	logger     *errors.Logger
	metrics    *observability.Metrics
	om         *observability.ObservabilityManager
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates the REST backend client.
func NewHTTPClient(cfg *config.Config, logger *errors.Logger, om *observability.ObservabilityManager) (*HTTPClient, error) {
	if cfg.Gateway.BaseURL == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"gateway.baseURL is required in http mode", nil)
	}

	c := &HTTPClient{
		cfg: cfg.Gateway,
		httpClient: &http.Client{
			Timeout:   cfg.Gateway.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: NewBreaker[*httpResult]("backend", cfg.Gateway.CircuitBreaker, logger),
		logger:  logger,
	}
	if om != nil {
		c.metrics = om.GetMetrics()
		c.om = om
	}
	return c, nil
}

// ParseResume uploads the file as multipart form data and returns the
// extracted document.
func (c *HTTPClient) ParseResume(ctx context.Context, filename string, content []byte) (*types.ResumeDocument, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, errors.NewInternalError("MULTIPART_ENCODE_FAILED", "Failed to encode upload", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, errors.NewInternalError("MULTIPART_ENCODE_FAILED", "Failed to encode upload", err)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.NewInternalError("MULTIPART_ENCODE_FAILED", "Failed to encode upload", err)
	}

	var parsed types.ParsedResumeResponse
	err = c.track(ctx, OpParseResume, func(ctx context.Context) error {
		res, err := c.roundTrip(ctx, OpParseResume, http.MethodPost, pathParseResume, writer.FormDataContentType(), buf.Bytes())
		if err != nil {
			return err
		}
		return json.Unmarshal(res.body, &parsed)
	})
	if err != nil {
		return nil, c.mapError(OpParseResume, err)
	}

	if !parsed.Success {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed,
			backendMessage(parsed.Message, "Backend failed to parse resume"), nil)
	}
	return &parsed.Data, nil
}

// AnalyzeATS scores the document against a job description.
func (c *HTTPClient) AnalyzeATS(ctx context.Context, doc *types.ResumeDocument, jobDescription string) (*types.ATSReport, error) {
	request := struct {
		ResumeData     *types.ResumeDocument `json:"resume_data"`
		JobDescription string                `json:"job_description"`
	}{
		ResumeData:     doc,
		JobDescription: jobDescription,
	}

	var report types.ATSReport
	err := c.postJSON(ctx, OpAnalyzeATS, pathAnalyzeATS, request, &report)
	if err != nil {
		return nil, err
	}

	if !report.Success {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed,
			backendMessage(report.Message, "Backend failed to analyze resume"), nil)
	}
	return &report, nil
}

// OptimizeSection rewrites one section for the given job description.
func (c *HTTPClient) OptimizeSection(ctx context.Context, req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error) {
	var response types.OptimizeSectionResponse
	err := c.postJSON(ctx, OpOptimizeSection, pathOptimizeSection, req, &response)
	if err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed,
			backendMessage(response.Message, "Backend failed to optimize section"), nil)
	}
	return &response, nil
}

// GeneratePDF renders the document into PDF bytes on the backend.
func (c *HTTPClient) GeneratePDF(ctx context.Context, doc *types.ResumeDocument) (*Artifact, error) {
	return c.generate(ctx, OpGeneratePDF, pathGeneratePDF, doc, "pdf", "application/pdf")
}

// GenerateDOCX renders the document into DOCX bytes on the backend.
func (c *HTTPClient) GenerateDOCX(ctx context.Context, doc *types.ResumeDocument) (*Artifact, error) {
	return c.generate(ctx, OpGenerateDOCX, pathGenerateDOCX, doc, "docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
}

func (c *HTTPClient) generate(ctx context.Context, operation, path string, doc *types.ResumeDocument, ext, contentType string) (*Artifact, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewInternalError("ENCODE_FAILED", "Failed to encode document", err)
	}

	var artifact *Artifact
	err = c.track(ctx, operation, func(ctx context.Context) error {
		res, err := c.roundTrip(ctx, operation, http.MethodPost, path, "application/json", body)
		if err != nil {
			return err
		}

		filename := dispositionFilename(res.header.Get("Content-Disposition"))
		if filename == "" {
			filename = render.ExportFilename(doc, ext)
		}
		resolvedType := res.header.Get("Content-Type")
		if resolvedType == "" {
			resolvedType = contentType
		}
		artifact = &Artifact{
			Filename:    filename,
			ContentType: resolvedType,
			Content:     res.body,
		}
		return nil
	})
	if err != nil {
		return nil, c.mapError(operation, err)
	}
	return artifact, nil
}

// Stats exposes breaker health for the stats endpoint.
func (c *HTTPClient) Stats() map[string]any {
	return map[string]any{
		"mode":            config.GatewayModeHTTP,
		"base_url":        c.cfg.BaseURL,
		"circuit_breaker": c.breaker.GetStats(),
		"healthy":         c.breaker.IsHealthy(),
	}
}

// Close implements Client.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// postJSON runs a JSON request/response call under tracking and maps
// the error.
func (c *HTTPClient) postJSON(ctx context.Context, operation, path string, request, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return errors.NewInternalError("ENCODE_FAILED", "Failed to encode request", err)
	}

	err = c.track(ctx, operation, func(ctx context.Context) error {
		res, err := c.roundTrip(ctx, operation, http.MethodPost, path, "application/json", body)
		if err != nil {
			return err
		}
		return json.Unmarshal(res.body, response)
	})
	if err != nil {
		return c.mapError(operation, err)
	}
	return nil
}

// roundTrip performs one backend call with the breaker wrapping the
// retry loop, matching how transient failures should count against the
// breaker only after retries are exhausted.
func (c *HTTPClient) roundTrip(ctx context.Context, operation, method, path, contentType string, body []byte) (*httpResult, error) {
	call := func() (*httpResult, error) {
		req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("X-API-Key", c.cfg.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &backendError{
				status: resp.StatusCode,
				detail: extractBackendDetail(data),
			}
		}

		return &httpResult{
			status: resp.StatusCode,
			header: resp.Header.Clone(),
			body:   data,
		}, nil
	}

	return c.breaker.Execute(func() (*httpResult, error) {
		return executeWithRetry(ctx, retrier{maxRetries: c.cfg.MaxRetries, logger: c.logger}, operation, call)
	})
}

// track instruments the call with gateway operation metrics and spans.
func (c *HTTPClient) track(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.metrics == nil {
		return fn(ctx)
	}
	return c.metrics.TrackGatewayOperation(ctx, operation, func(ctx context.Context) *observability.GatewayOperationResult {
		return &observability.GatewayOperationResult{Error: fn(ctx)}
	}, c.om)
}

// mapError converts transport failures into AppError values.
func (c *HTTPClient) mapError(operation string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}

	var backendErr *backendError
	if stderrors.As(err, &backendErr) {
		return errors.NewGatewayError(errors.ErrCodeGatewayFailed,
			fmt.Sprintf("Backend rejected %s: %s", operation, backendErr.detail), err).
			WithContext("status", backendErr.status)
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewNetworkError(errors.ErrCodeGatewayTimeout,
			fmt.Sprintf("Backend timed out during %s", operation), err)
	}

	return errors.NewGatewayError(errors.ErrCodeGatewayFailed,
		fmt.Sprintf("Backend call %s failed", operation), err)
}

// extractBackendDetail pulls the human-readable message out of an error
// body. FastAPI-style backends use {"detail": ...}, others use
// {"message": ...}; anything else falls back to the trimmed body.
func extractBackendDetail(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Detail) > 0 {
			var detail string
			if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
				return detail
			}
			// Validation errors arrive as structured detail; keep them
			// compact rather than dropping them.
			return string(envelope.Detail)
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	if detail == "" {
		detail = "no error detail provided"
	}
	return detail
}

// dispositionFilename extracts the filename from a Content-Disposition
// header, returning "" when absent or malformed.
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func backendMessage(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
