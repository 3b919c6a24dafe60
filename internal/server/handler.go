package server

import (
	"fmt"
	"io"
	"net/http"

	"resumelift/internal/gateway"
	"resumelift/internal/observability"
	"resumelift/internal/resume"
	"resumelift/internal/workflow"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const apiTracerName = "resumelift.api"

// session resolves the {id} path value to a workbench, writing the
// error response itself when the session is unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request, span oteltrace.Span) (*workflow.Workbench, bool) {
	id := r.PathValue("id")
	span.SetAttributes(attribute.String("session.id", id))

	wb, err := s.Sessions.Get(id)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "session"))
		writeAppError(w, err)
		return nil, false
	}
	return wb, true
}

// createSessionHandler opens a new session
func (s *Server) createSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(apiTracerName).Start(r.Context(), "api.session.create")
		defer span.End()

		id, err := s.Sessions.Open(ctx)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.String("session.id", id))
		writeJSONStatus(w, http.StatusCreated, CreateSessionResponse{SessionID: id})
	}
}

// deleteSessionHandler closes a session
func (s *Server) deleteSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(apiTracerName).Start(r.Context(), "api.session.delete")
		defer span.End()

		id := r.PathValue("id")
		span.SetAttributes(attribute.String("session.id", id))

		if err := s.Sessions.Close(ctx, id); err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}
		writeJSON(w, StatusResponse{Status: "closed"})
	}
}

// uploadResumeHandler accepts a multipart resume file, parses it
// through the gateway, and loads the result into the session
func (s *Server) uploadResumeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(apiTracerName).Start(r.Context(), "api.resume.upload")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid upload", "multipart field 'file' is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				s.Logger.Warn("Failed to close uploaded file", "error", err)
			}
		}()

		content, err := io.ReadAll(file)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid upload", fmt.Sprintf("failed to read uploaded file: %v", err), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("upload.filename", header.Filename),
			attribute.Int("upload.size_bytes", len(content)),
		)

		doc, err := wb.UploadResume(ctx, header.Filename, content)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		writeJSON(w, map[string]any{"success": true, "data": doc})
	}
}

// getDocumentHandler returns the current document
func (s *Server) getDocumentHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.document.get")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		doc, err := wb.Document()
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}
		writeJSON(w, doc)
	}
}

// putDocumentHandler loads a structured document directly, bypassing
// the parse endpoint
func (s *Server) putDocumentHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.document.put")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := wb.LoadDocumentJSON(body); err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}
		writeJSON(w, StatusResponse{Status: "loaded"})
	}
}

// jobDescriptionHandler stores the target job description
func (s *Server) jobDescriptionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.job_description.set")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		var req JobDescriptionRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := wb.SetJobDescription(req.JobDescription); err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Int("request.job_length", len(req.JobDescription)))
		writeJSON(w, StatusResponse{Status: "set"})
	}
}

// analyzeHandler scores the loaded resume against the job description
func (s *Server) analyzeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(apiTracerName).Start(r.Context(), "api.analyze")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		report, err := wb.Analyze(ctx)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("ats.overall_score", report.Score.OverallScore),
		)
		writeJSON(w, report)
	}
}

// renderHandler returns the plain-text rendering of the document
func (s *Server) renderHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.render")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		text, err := wb.RenderText()
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := io.WriteString(w, text); err != nil {
			span.RecordError(err)
		}
	}
}

// editOpenHandler opens a section for editing and returns the seed
func (s *Server) editOpenHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.edit.open")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		var req EditOpenRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(attribute.String("edit.section", req.Section))
		seed, err := wb.OpenEdit(resume.Section(req.Section))
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		writeJSON(w, EditOpenResponse{Section: req.Section, Seed: seed})
	}
}

// editSaveHandler normalizes and saves the pending draft
func (s *Server) editSaveHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.edit.save")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		var req EditSaveRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		_, section := wb.EditStatus()
		draft, err := resume.DecodeDraft(section, req.Draft)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		if err := wb.SaveEdit(draft); err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.String("edit.section", string(section)))
		writeJSON(w, StatusResponse{Status: "saved"})
	}
}

// editCancelHandler discards the pending draft
func (s *Server) editCancelHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.edit.cancel")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		wb.CancelEdit()
		writeJSON(w, StatusResponse{Status: "cancelled"})
	}
}

// optimizeOpenHandler configures an optimization target
func (s *Server) optimizeOpenHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.optimize.open")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		var req OptimizeOpenRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		target := resume.WholeSection()
		if req.Item != nil {
			target = resume.ItemAt(*req.Item)
		}

		span.SetAttributes(
			attribute.String("optimize.section", req.Section),
			attribute.String("optimize.target", target.String()),
		)

		if err := wb.OpenOptimize(resume.Section(req.Section), target); err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}
		writeJSON(w, StatusResponse{Status: "configured"})
	}
}

// optimizeRunHandler executes the configured optimization
func (s *Server) optimizeRunHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(apiTracerName).Start(r.Context(), "api.optimize.run")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		var req OptimizeRunRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		result, err := wb.RunOptimize(ctx, req.CustomPrompt)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("optimize.changes", len(result.Changes)),
			attribute.Int("optimize.failures", len(result.Failures)),
		)
		writeJSON(w, result)
	}
}

// optimizeStatusHandler reports the optimizer state; pollable during a
// bulk run
func (s *Server) optimizeStatusHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.optimize.status")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		state := wb.OptimizeState()
		section, target := wb.OptimizeTarget()
		resp := OptimizeStatusResponse{
			State:    string(state),
			Section:  string(section),
			Progress: wb.OptimizeProgress(),
			Result:   wb.OptimizeResult(),
		}
		if section != "" {
			resp.Target = target.String()
		}
		writeJSON(w, resp)
	}
}

// optimizeUndoHandler restores the pre-run value
func (s *Server) optimizeUndoHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.optimize.undo")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		if err := wb.UndoOptimize(); err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}
		writeJSON(w, StatusResponse{Status: "undone"})
	}
}

// optimizeCloseHandler accepts the outcome and drops the undo snapshot
func (s *Server) optimizeCloseHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer(apiTracerName).Start(r.Context(), "api.optimize.close")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		wb.CloseOptimize()
		writeJSON(w, StatusResponse{Status: "closed"})
	}
}

// exportHandler serves the document as a downloadable artifact
func (s *Server) exportHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(apiTracerName).Start(r.Context(), "api.export")
		defer span.End()

		wb, ok := s.session(w, r, span)
		if !ok {
			return
		}

		format := r.PathValue("format")
		span.SetAttributes(attribute.String("export.format", format))

		var (
			artifact *gateway.Artifact
			err      error
		)
		switch format {
		case "text":
			artifact, err = wb.ExportText(ctx)
		case "pdf":
			artifact, err = wb.ExportPDF(ctx)
		case "docx":
			artifact, err = wb.ExportDOCX(ctx)
		default:
			writeErrorResponse(w, "Unknown export format",
				fmt.Sprintf("format %q is not one of text, pdf, docx", format), http.StatusBadRequest)
			return
		}
		if err != nil {
			span.RecordError(err)
			writeAppError(w, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("export.size_bytes", len(artifact.Content)),
		)

		w.Header().Set("Content-Type", artifact.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
		if _, err := w.Write(artifact.Content); err != nil {
			span.RecordError(err)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := originalMiddleware(next)
		return func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit rejections
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			limited(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
