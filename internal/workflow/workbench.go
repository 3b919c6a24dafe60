package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/gateway"
	"resumelift/internal/observability"
	"resumelift/internal/render"
	"resumelift/internal/resume"
	"resumelift/internal/session"
	"resumelift/internal/types"
)

// Workbench wires one resume, its job description, and the edit and
// optimization sessions over a shared store. Mutating operations are
// serialized; optimizer progress and state remain pollable while a run
// is in flight.
type Workbench struct {
	mu sync.Mutex

	cfg       *config.Config
	client    gateway.Client
	store     *resume.Store
	edit      *session.Edit
	optimizer *session.Optimizer
	logger    *errors.Logger
	metrics   *observability.Metrics
	om        *observability.ObservabilityManager

	jobDescription string
	report         *types.ATSReport
}

// NewWorkbench creates a workbench over a fresh store.
func NewWorkbench(cfg *config.Config, client gateway.Client, logger *errors.Logger, om *observability.ObservabilityManager) *Workbench {
	store := resume.NewStore()
	w := &Workbench{
		cfg:       cfg,
		client:    client,
		store:     store,
		edit:      session.NewEdit(store),
		optimizer: session.NewOptimizer(store, client, logger),
		logger:    logger,
	}
	if om != nil {
		w.metrics = om.GetMetrics()
		w.om = om
	}
	return w
}

// UploadResume validates the file locally, sends it to the gateway for
// parsing, and loads the parsed document. Validation failures never
// reach the network.
func (w *Workbench) UploadResume(ctx context.Context, filename string, content []byte) (*types.ResumeDocument, error) {
	if !w.cfg.AllowedExtension(filename) {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("unsupported file type for %q, allowed: %s",
				filename, strings.Join(w.cfg.Upload.AllowedExtensions, ", ")), nil)
	}
	if len(content) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeFileNotReadable,
			"uploaded file is empty", nil)
	}
	if int64(len(content)) > w.cfg.Upload.MaxFileSize {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("file exceeds the %d byte upload limit", w.cfg.Upload.MaxFileSize), nil)
	}

	doc, err := w.client.ParseResume(ctx, filename, content)
	w.recordBusiness(ctx, "resume_parsed", err == nil)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.store.Load(doc)
	w.report = nil
	return w.store.Document(), nil
}

// LoadDocument loads an already-structured document, bypassing the
// parse endpoint.
func (w *Workbench) LoadDocument(doc *types.ResumeDocument) error {
	if doc == nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"document is required", nil)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.store.Load(doc)
	w.report = nil
	return nil
}

// LoadDocumentJSON decodes raw JSON into a document and loads it.
func (w *Workbench) LoadDocumentJSON(data []byte) error {
	var doc types.ResumeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"document is not valid resume JSON", err)
	}
	return w.LoadDocument(&doc)
}

// Document returns a deep copy of the current document.
func (w *Workbench) Document() (*types.ResumeDocument, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.store.Loaded() {
		return nil, errors.NewNotFoundError(errors.ErrCodeNoResume,
			"no resume loaded", nil)
	}
	return w.store.Document(), nil
}

// Loaded reports whether a document has been loaded.
func (w *Workbench) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Loaded()
}

// SetJobDescription stores the target job description used by analyze
// and optimize calls.
func (w *Workbench) SetJobDescription(jobDescription string) error {
	if strings.TrimSpace(jobDescription) == "" {
		return errors.NewValidationError(errors.ErrCodeNoJobDescription,
			"job description must not be blank", nil)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.jobDescription = jobDescription
	w.report = nil
	return nil
}

// JobDescription returns the stored job description.
func (w *Workbench) JobDescription() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.jobDescription
}

// Analyze runs the ATS analysis for the loaded document against the
// stored job description and caches the report.
func (w *Workbench) Analyze(ctx context.Context) (*types.ATSReport, error) {
	w.mu.Lock()
	if !w.store.Loaded() {
		w.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeNoResume,
			"no resume loaded", nil)
	}
	if strings.TrimSpace(w.jobDescription) == "" {
		w.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeNoJobDescription,
			"set a job description before analyzing", nil)
	}
	doc := w.store.Document()
	jobDescription := w.jobDescription
	w.mu.Unlock()

	report, err := w.client.AnalyzeATS(ctx, doc, jobDescription)
	w.recordBusiness(ctx, "analysis_run", err == nil)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.report = report
	w.mu.Unlock()
	return report, nil
}

// Report returns the cached analysis report, or nil when the document
// or job description changed since the last run.
func (w *Workbench) Report() *types.ATSReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.report
}

// OpenEdit starts editing a section and returns the editable seed.
func (w *Workbench) OpenEdit(section resume.Section) (any, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.edit.Open(section)
}

// SaveEdit normalizes and writes the draft through the store.
func (w *Workbench) SaveEdit(draft any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.edit.Save(draft); err != nil {
		return err
	}
	w.report = nil
	return nil
}

// CancelEdit discards the pending draft.
func (w *Workbench) CancelEdit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.edit.Cancel()
}

// EditStatus returns the edit session state and open section.
func (w *Workbench) EditStatus() (session.EditState, resume.Section) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.edit.State(), w.edit.Section()
}

// OpenOptimize configures an optimization for section/target.
func (w *Workbench) OpenOptimize(section resume.Section, target resume.Target) error {
	return w.optimizer.Open(section, target)
}

// RunOptimize executes the configured optimization against the stored
// job description. Store mutations are serialized with the other
// workbench operations for the duration of the run.
func (w *Workbench) RunOptimize(ctx context.Context, customPrompt string) (*session.Result, error) {
	w.mu.Lock()
	jobDescription := w.jobDescription
	w.mu.Unlock()

	result, err := w.optimizer.Run(ctx, jobDescription, customPrompt)
	w.recordBusiness(ctx, "section_optimized", err == nil)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.report = nil
	w.mu.Unlock()
	return result, nil
}

// OptimizeState returns the optimizer lifecycle state. Pollable during
// a run.
func (w *Workbench) OptimizeState() session.OptimizerState {
	return w.optimizer.State()
}

// OptimizeTarget returns the configured section and target.
func (w *Workbench) OptimizeTarget() (resume.Section, resume.Target) {
	return w.optimizer.Target()
}

// OptimizeProgress returns the bulk progress counter. Pollable during
// a run.
func (w *Workbench) OptimizeProgress() session.Progress {
	return w.optimizer.Progress()
}

// OptimizeResult returns the outcome of the last completed run.
func (w *Workbench) OptimizeResult() *session.Result {
	return w.optimizer.Result()
}

// UndoOptimize restores the pre-run value.
func (w *Workbench) UndoOptimize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.optimizer.Undo(); err != nil {
		return err
	}
	w.report = nil
	return nil
}

// CloseOptimize accepts the outcome and drops the undo snapshot.
func (w *Workbench) CloseOptimize() {
	w.optimizer.Close()
}

// RenderText renders the loaded document into plain text.
func (w *Workbench) RenderText() (string, error) {
	doc, err := w.Document()
	if err != nil {
		return "", err
	}
	return render.Text(doc), nil
}

// ExportText renders the document locally into a text artifact.
func (w *Workbench) ExportText(ctx context.Context) (*gateway.Artifact, error) {
	doc, err := w.Document()
	if err != nil {
		return nil, err
	}
	artifact := &gateway.Artifact{
		Filename:    render.ExportFilename(doc, "txt"),
		ContentType: "text/plain; charset=utf-8",
		Content:     []byte(render.Text(doc)),
	}
	w.recordBusiness(ctx, "export_served", true)
	return artifact, nil
}

// ExportPDF renders the document into PDF bytes on the backend.
func (w *Workbench) ExportPDF(ctx context.Context) (*gateway.Artifact, error) {
	return w.export(ctx, w.client.GeneratePDF)
}

// ExportDOCX renders the document into DOCX bytes on the backend.
func (w *Workbench) ExportDOCX(ctx context.Context) (*gateway.Artifact, error) {
	return w.export(ctx, w.client.GenerateDOCX)
}

func (w *Workbench) export(ctx context.Context, generate func(context.Context, *types.ResumeDocument) (*gateway.Artifact, error)) (*gateway.Artifact, error) {
	doc, err := w.Document()
	if err != nil {
		return nil, err
	}
	artifact, err := generate(ctx, doc)
	w.recordBusiness(ctx, "export_served", err == nil)
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// Stats summarizes the workbench for the stats endpoint.
func (w *Workbench) Stats() map[string]any {
	w.mu.Lock()
	loaded := w.store.Loaded()
	hasJob := strings.TrimSpace(w.jobDescription) != ""
	editState := w.edit.State()
	w.mu.Unlock()

	return map[string]any{
		"resume_loaded":       loaded,
		"job_description_set": hasJob,
		"edit_state":          editState,
		"optimizer_state":     w.optimizer.State(),
		"gateway":             w.client.Stats(),
	}
}

// Close releases the gateway client.
func (w *Workbench) Close() error {
	return w.client.Close()
}

func (w *Workbench) recordBusiness(ctx context.Context, metricType string, success bool) {
	if w.metrics == nil {
		return
	}
	w.metrics.RecordBusinessMetric(ctx, metricType, success, w.om)
}
