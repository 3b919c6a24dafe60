package gateway

import (
	"context"
	"fmt"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/observability"
	"resumelift/internal/types"
)

// Operation names recorded on spans and metrics.
const (
	OpParseResume     = "parse_resume"
	OpAnalyzeATS      = "analyze_ats"
	OpOptimizeSection = "optimize_section"
	OpGeneratePDF     = "generate_pdf"
	OpGenerateDOCX    = "generate_docx"
)

// Artifact is a generated export document returned by the backend.
type Artifact struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Client is the remote processing backend. Implementations return
// *errors.AppError values; transient upstream failures carry
// ErrCodeGatewayFailed or ErrCodeGatewayTimeout.
type Client interface {
	// ParseResume extracts a structured document from an uploaded
	// resume file (.pdf or .docx).
	ParseResume(ctx context.Context, filename string, content []byte) (*types.ResumeDocument, error)

	// AnalyzeATS scores the document against a job description.
	AnalyzeATS(ctx context.Context, doc *types.ResumeDocument, jobDescription string) (*types.ATSReport, error)

	// OptimizeSection rewrites one section (or one item of a list
	// section) for the given job description.
	OptimizeSection(ctx context.Context, req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error)

	// GeneratePDF and GenerateDOCX render the document into export
	// bytes. Not every backend supports these; unsupported modes
	// return ErrCodeNotSupported.
	GeneratePDF(ctx context.Context, doc *types.ResumeDocument) (*Artifact, error)
	GenerateDOCX(ctx context.Context, doc *types.ResumeDocument) (*Artifact, error)

	// Stats exposes backend health details for the stats endpoint.
	Stats() map[string]any

	Close() error
}

// New builds the client selected by gateway.mode.
func New(cfg *config.Config, logger *errors.Logger, om *observability.ObservabilityManager) (Client, error) {
	switch cfg.Gateway.Mode {
	case config.GatewayModeHTTP:
		return NewHTTPClient(cfg, logger, om)
	case config.GatewayModeGemini:
		return NewGeminiClient(cfg, logger, om)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown gateway mode %q", cfg.Gateway.Mode), nil)
	}
}
