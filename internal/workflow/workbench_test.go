package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"resumelift/internal/config"
	"resumelift/internal/errors"
	"resumelift/internal/gateway"
	"resumelift/internal/resume"
	"resumelift/internal/types"
)

type fakeGateway struct {
	parseCalls    int
	analyzeCalls  int
	optimizeCalls int

	parseResult   *types.ResumeDocument
	analyzeResult *types.ATSReport
	optimize      func(req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error)
	pdf           *gateway.Artifact
}

func (f *fakeGateway) ParseResume(ctx context.Context, filename string, content []byte) (*types.ResumeDocument, error) {
	f.parseCalls++
	if f.parseResult == nil {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed, "no parse result configured", nil)
	}
	return f.parseResult, nil
}

func (f *fakeGateway) AnalyzeATS(ctx context.Context, doc *types.ResumeDocument, jobDescription string) (*types.ATSReport, error) {
	f.analyzeCalls++
	if f.analyzeResult == nil {
		return nil, errors.NewGatewayError(errors.ErrCodeGatewayFailed, "no analysis configured", nil)
	}
	return f.analyzeResult, nil
}

func (f *fakeGateway) OptimizeSection(ctx context.Context, req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error) {
	f.optimizeCalls++
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

func (f *fakeGateway) Stats() map[string]any { return map[string]any{"mode": "fake"} }

func (f *fakeGateway) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			AllowedExtensions: []string{".pdf", ".docx"},
			MaxFileSize:       1024,
		},
	}
}

func testParsedDocument() *types.ResumeDocument {
	return &types.ResumeDocument{
		Name:    "Margaret Hamilton",
		Email:   "margaret@example.com",
		Summary: "Software engineering pioneer.",
		Skills:  []string{"Assembly", "Systems design"},
	}
}

func newTestWorkbench(fake *fakeGateway) *Workbench {
	return NewWorkbench(testConfig(), fake, errors.NewLogger(slog.LevelError), nil)
}

func TestUploadResumeRejectsUnsupportedFileBeforeNetwork(t *testing.T) {
	fake := &fakeGateway{parseResult: testParsedDocument()}
	w := newTestWorkbench(fake)

	_, err := w.UploadResume(context.Background(), "resume.txt", []byte("plain text"))
	if err == nil {
		t.Fatal("Expected error for .txt upload")
	}
	appErr, ok := errors.IsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeUnsupportedFile {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeUnsupportedFile)
	}
	if fake.parseCalls != 0 {
		t.Errorf("gateway called %d times for a rejected upload", fake.parseCalls)
	}
}

func TestUploadResumeRejectsOversizedFile(t *testing.T) {
	fake := &fakeGateway{parseResult: testParsedDocument()}
	w := newTestWorkbench(fake)

	_, err := w.UploadResume(context.Background(), "resume.pdf", make([]byte, 2048))
	if err == nil {
		t.Fatal("Expected error for oversized upload")
	}
	if fake.parseCalls != 0 {
		t.Error("gateway called for an oversized upload")
	}
}

func TestUploadResumeLoadsParsedDocument(t *testing.T) {
	fake := &fakeGateway{parseResult: testParsedDocument()}
	w := newTestWorkbench(fake)

	doc, err := w.UploadResume(context.Background(), "resume.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("UploadResume() error: %v", err)
	}
	if doc.Name != "Margaret Hamilton" {
		t.Errorf("doc.Name = %q", doc.Name)
	}
	if !w.Loaded() {
		t.Error("workbench not loaded after upload")
	}

	// Returned documents are copies; mutating one must not leak back.
	doc.Name = "Someone Else"
	current, err := w.Document()
	if err != nil {
		t.Fatalf("Document() error: %v", err)
	}
	if current.Name != "Margaret Hamilton" {
		t.Errorf("stored document mutated through returned copy: %q", current.Name)
	}
}

func TestLoadDocumentJSON(t *testing.T) {
	w := newTestWorkbench(&fakeGateway{})

	data, _ := json.Marshal(testParsedDocument())
	if err := w.LoadDocumentJSON(data); err != nil {
		t.Fatalf("LoadDocumentJSON() error: %v", err)
	}
	if !w.Loaded() {
		t.Error("workbench not loaded")
	}

	if err := w.LoadDocumentJSON([]byte("{not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestAnalyzeRequiresResumeAndJobDescription(t *testing.T) {
	fake := &fakeGateway{analyzeResult: &types.ATSReport{Success: true}}
	w := newTestWorkbench(fake)

	if _, err := w.Analyze(context.Background()); err == nil {
		t.Error("Expected error without a resume")
	}

	if err := w.LoadDocument(testParsedDocument()); err != nil {
		t.Fatalf("LoadDocument() error: %v", err)
	}
	if _, err := w.Analyze(context.Background()); err == nil {
		t.Error("Expected error without a job description")
	}

	if err := w.SetJobDescription("   "); err == nil {
		t.Error("Expected error for blank job description")
	}
	if err := w.SetJobDescription("Flight software lead"); err != nil {
		t.Fatalf("SetJobDescription() error: %v", err)
	}

	report, err := w.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if !report.Success {
		t.Error("report not returned")
	}
	if fake.analyzeCalls != 1 {
		t.Errorf("gateway analyze calls = %d", fake.analyzeCalls)
	}
}

func TestAnalysisReportInvalidatedByMutation(t *testing.T) {
	fake := &fakeGateway{analyzeResult: &types.ATSReport{Success: true, Score: types.ATSScore{OverallScore: 70}}}
	w := newTestWorkbench(fake)

	if err := w.LoadDocument(testParsedDocument()); err != nil {
		t.Fatalf("LoadDocument() error: %v", err)
	}
	if err := w.SetJobDescription("Flight software lead"); err != nil {
		t.Fatalf("SetJobDescription() error: %v", err)
	}
	if _, err := w.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if w.Report() == nil {
		t.Fatal("report not cached")
	}

	if _, err := w.OpenEdit(resume.SectionSummary); err != nil {
		t.Fatalf("OpenEdit() error: %v", err)
	}
	if err := w.SaveEdit("An even better summary."); err != nil {
		t.Fatalf("SaveEdit() error: %v", err)
	}

	if w.Report() != nil {
		t.Error("stale report survived a document mutation")
	}
}

func TestOptimizeFlowThroughWorkbench(t *testing.T) {
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
	w := newTestWorkbench(fake)

	if err := w.LoadDocument(testParsedDocument()); err != nil {
		t.Fatalf("LoadDocument() error: %v", err)
	}
	if err := w.SetJobDescription("Flight software lead"); err != nil {
		t.Fatalf("SetJobDescription() error: %v", err)
	}

	if err := w.OpenOptimize(resume.SectionSummary, resume.WholeSection()); err != nil {
		t.Fatalf("OpenOptimize() error: %v", err)
	}
	result, err := w.RunOptimize(context.Background(), "")
	if err != nil {
		t.Fatalf("RunOptimize() error: %v", err)
	}
	if result.Explanation != "Focused on flight software" {
		t.Errorf("explanation = %q", result.Explanation)
	}

	doc, err := w.Document()
	if err != nil {
		t.Fatalf("Document() error: %v", err)
	}
	if doc.Summary != "Tailored summary." {
		t.Errorf("summary = %q after optimize", doc.Summary)
	}

	if err := w.UndoOptimize(); err != nil {
		t.Fatalf("UndoOptimize() error: %v", err)
	}
	doc, _ = w.Document()
	if doc.Summary != "Software engineering pioneer." {
		t.Errorf("summary = %q after undo", doc.Summary)
	}
}

func TestExportText(t *testing.T) {
	w := newTestWorkbench(&fakeGateway{})
	if err := w.LoadDocument(testParsedDocument()); err != nil {
		t.Fatalf("LoadDocument() error: %v", err)
	}

	artifact, err := w.ExportText(context.Background())
	if err != nil {
		t.Fatalf("ExportText() error: %v", err)
	}
	if artifact.Filename != "Margaret_Hamilton_resume.txt" {
		t.Errorf("filename = %q", artifact.Filename)
	}
	if !strings.Contains(string(artifact.Content), "MARGARET HAMILTON") {
		t.Errorf("rendered content missing name header:\n%s", artifact.Content)
	}
}

func TestExportRequiresDocument(t *testing.T) {
	w := newTestWorkbench(&fakeGateway{})
	if _, err := w.ExportText(context.Background()); err == nil {
		t.Error("Expected error without a document")
	}
	if _, err := w.ExportPDF(context.Background()); err == nil {
		t.Error("Expected error without a document")
	}
}
