package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/observability"
	"resumelift/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// geminiOperation bundles the effective configuration and breaker for
// one operation type.
type geminiOperation struct {
	name    string
	cfg     config.OperationAIConfig
	breaker *Breaker[*genai.GenerateContentResponse]
}

// GeminiClient calls the Gemini API directly instead of going through
// the REST backend. Export generation has no model equivalent and is
// not supported in this mode.
type GeminiClient struct {
	client       *genai.Client
	parsing      geminiOperation
	optimization geminiOperation
	analysis     geminiOperation
	logger       *errors.Logger
	metrics      *observability.Metrics
	om           *observability.ObservabilityManager
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates the direct Gemini client with per-operation
// configuration and breakers.
func NewGeminiClient(cfg *config.Config, logger *errors.Logger, om *observability.ObservabilityManager) (*GeminiClient, error) {
	parsing := cfg.GetParsingConfig()
	optimization := cfg.GetOptimizationConfig()
	analysis := cfg.GetAnalysisConfig()

	if parsing.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"ai.apiKey is required in gemini mode", nil)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: parsing.APIKey,
	})
	if err != nil {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed,
			"Failed to create Gemini client", err)
	}

	c := &GeminiClient{
		client: client,
		parsing: geminiOperation{
			name:    "parsing",
			cfg:     parsing,
			breaker: NewBreaker[*genai.GenerateContentResponse]("parsing", parsing.CircuitBreaker, logger),
		},
		optimization: geminiOperation{
			name:    "optimization",
			cfg:     optimization,
			breaker: NewBreaker[*genai.GenerateContentResponse]("optimization", optimization.CircuitBreaker, logger),
		},
		analysis: geminiOperation{
			name:    "analysis",
			cfg:     analysis,
			breaker: NewBreaker[*genai.GenerateContentResponse]("analysis", analysis.CircuitBreaker, logger),
		},
		logger: logger,
	}
	if om != nil {
		c.metrics = om.GetMetrics()
		c.om = om
	}
	return c, nil
}

// ParseResume sends the raw file inline and asks the model for a
// structured document.
func (c *GeminiClient) ParseResume(ctx context.Context, filename string, content []byte) (*types.ResumeDocument, error) {
	mimeType := uploadMIMEType(filename)
	if mimeType == "" {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("Unsupported file type for %q, expected .pdf or .docx", filename), nil)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(content, mimeType),
			genai.NewPartFromText(DefaultUserPrompts.ParseResume),
		}, genai.RoleUser),
	}

	var doc *types.ResumeDocument
	err := c.track(ctx, OpParseResume, func(ctx context.Context) (*observability.TokenUsage, error) {
		out, usage, err := executeGeminiOperation[types.ResumeDocument](
			c, ctx, c.parsing, OpParseResume,
			contents,
			DefaultSystemPrompts.ParseResume,
			c.buildConfig(c.parsing, buildParseSchema()),
			attribute.String("input.filename", filename),
			attribute.Int("input.size_bytes", len(content)),
		)
		if err != nil {
			return usage, err
		}
		doc = &out
		return usage, nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// AnalyzeATS scores the document against a job description.
func (c *GeminiClient) AnalyzeATS(ctx context.Context, doc *types.ResumeDocument, jobDescription string) (*types.ATSReport, error) {
	resumeJSON, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError("ENCODE_FAILED", "Failed to encode document", err)
	}
	userPrompt := fmt.Sprintf(DefaultUserPrompts.AnalyzeATS, resumeJSON, jobDescription)

	var report *types.ATSReport
	err = c.track(ctx, OpAnalyzeATS, func(ctx context.Context) (*observability.TokenUsage, error) {
		out, usage, err := executeGeminiOperation[types.ATSReport](
			c, ctx, c.analysis, OpAnalyzeATS,
			genai.Text(userPrompt),
			DefaultSystemPrompts.AnalyzeATS,
			c.buildConfig(c.analysis, buildAnalyzeSchema()),
			attribute.Int("input.job_length", len(jobDescription)),
		)
		if err != nil {
			return usage, err
		}
		out.Success = true
		report = &out
		return usage, nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// OptimizeSection rewrites one section for the given job description.
// The response echoes the request's payload key so callers unwrap it
// the same way in both gateway modes.
func (c *GeminiClient) OptimizeSection(ctx context.Context, req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error) {
	key := payloadKeyOf(req)

	sectionJSON, err := json.MarshalIndent(req.SectionData, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError("ENCODE_FAILED", "Failed to encode section data", err)
	}
	resumeJSON, err := json.MarshalIndent(req.ResumeData, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError("ENCODE_FAILED", "Failed to encode document", err)
	}

	userPrompt := fmt.Sprintf(DefaultUserPrompts.OptimizeSection,
		req.Section, sectionJSON, resumeJSON, req.JobDescription)
	if req.CustomPrompt != "" {
		userPrompt += "\n\nAdditional instructions:\n" + req.CustomPrompt
	}

	var response *types.OptimizeSectionResponse
	err = c.track(ctx, OpOptimizeSection, func(ctx context.Context) (*observability.TokenUsage, error) {
		out, usage, err := executeGeminiOperation[types.OptimizeSectionResponse](
			c, ctx, c.optimization, OpOptimizeSection,
			genai.Text(userPrompt),
			DefaultSystemPrompts.OptimizeSection,
			c.buildConfig(c.optimization, buildOptimizeSchema(key, sectionValueSchema(req.Section))),
			attribute.String("input.section", req.Section),
			attribute.Int("input.job_length", len(req.JobDescription)),
		)
		if err != nil {
			return usage, err
		}
		out.Success = true
		response = &out
		return usage, nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GeneratePDF is not available in direct mode.
func (c *GeminiClient) GeneratePDF(ctx context.Context, doc *types.ResumeDocument) (*Artifact, error) {
	return nil, errors.NewUnsupportedError(errors.ErrCodeNotSupported,
		"PDF generation requires the REST backend (gateway.mode http)", nil)
}

// GenerateDOCX is not available in direct mode.
func (c *GeminiClient) GenerateDOCX(ctx context.Context, doc *types.ResumeDocument) (*Artifact, error) {
	return nil, errors.NewUnsupportedError(errors.ErrCodeNotSupported,
		"DOCX generation requires the REST backend (gateway.mode http)", nil)
}

// Stats exposes per-operation breaker health for the stats endpoint.
func (c *GeminiClient) Stats() map[string]any {
	stats := map[string]any{
		"mode":         config.GatewayModeGemini,
		"parsing":      c.parsing.breaker.GetStats(),
		"optimization": c.optimization.breaker.GetStats(),
		"analysis":     c.analysis.breaker.GetStats(),
	}
	stats["healthy"] = c.parsing.breaker.IsHealthy() &&
		c.optimization.breaker.IsHealthy() &&
		c.analysis.breaker.IsHealthy()
	return stats
}

// Close implements Client.
func (c *GeminiClient) Close() error {
	// The genai client has no Close in single-shot usage
	return nil
}

// executeGeminiOperation runs a model call with tracing, circuit
// breaker, retry, and JSON response parsing.
func executeGeminiOperation[Out any](
	c *GeminiClient,
	ctx context.Context,
	op geminiOperation,
	operationName string,
	contents []*genai.Content,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *observability.TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("resumelift.gateway.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("gateway.provider", "gemini"),
		attribute.String("gateway.model", op.cfg.Model),
		attribute.Float64("gateway.temperature", float64(*op.cfg.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *op.cfg.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	callCtx := ctx
	if op.cfg.Timeout != nil && *op.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, *op.cfg.Timeout)
		defer cancel()
	}

	result, err := op.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return executeWithRetry(callCtx, retrier{maxRetries: *op.cfg.MaxRetries, logger: c.logger}, operationName,
			func() (*genai.GenerateContentResponse, error) {
				return c.client.Models.GenerateContent(callCtx, op.cfg.Model, contents, genaiConfig)
			})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, mapGeminiError(operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, errors.NewGatewayError("GATEWAY_RESPONSE_PARSE_FAILED",
			"Failed to parse model response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("gateway.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("gateway.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("gateway.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// track instruments the call with gateway operation metrics and token
// usage.
func (c *GeminiClient) track(ctx context.Context, operation string, fn func(context.Context) (*observability.TokenUsage, error)) error {
	if c.metrics == nil {
		_, err := fn(ctx)
		return err
	}
	return c.metrics.TrackGatewayOperation(ctx, operation, func(ctx context.Context) *observability.GatewayOperationResult {
		usage, err := fn(ctx)
		return &observability.GatewayOperationResult{Error: err, TokenUsage: usage}
	}, c.om)
}

func mapGeminiError(operation string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewNetworkError(errors.ErrCodeGatewayTimeout,
			fmt.Sprintf("Model call timed out during %s", operation), err)
	}
	return errors.NewGatewayError(errors.ErrCodeGatewayFailed,
		fmt.Sprintf("Model call %s failed", operation), err)
}

// extractTokenUsage extracts token usage information from the response
func extractTokenUsage(result *genai.GenerateContentResponse) *observability.TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &observability.TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// buildConfig applies operation temperature to a schema config.
func (c *GeminiClient) buildConfig(op geminiOperation, schema *genai.Schema) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if op.cfg.Temperature != nil && *op.cfg.Temperature > 0 {
		cfg.Temperature = op.cfg.Temperature
	}
	return cfg
}

// payloadKeyOf returns the key the optimized value must be returned
// under. The request already carries it as the sole section_data key.
func payloadKeyOf(req types.OptimizeSectionRequest) string {
	for key := range req.SectionData {
		return key
	}
	if req.Section == "summary" {
		return "content"
	}
	return req.Section
}

// uploadMIMEType maps an upload filename to its inline-data MIME type,
// returning "" for unsupported extensions.
func uploadMIMEType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return ""
}
