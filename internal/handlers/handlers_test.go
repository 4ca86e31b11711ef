package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/repositories"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

type fakeAnalysisService struct {
	analyses    map[uuid.UUID]*models.Analysis
	createErr   error
	runErr      error
	runStatus   models.AnalysisStatus
	report      *models.MatchReport
	suggestions string
	lastReq     *models.AnalyzeRequest
}

func newFakeAnalysisService() *fakeAnalysisService {
	return &fakeAnalysisService{analyses: make(map[uuid.UUID]*models.Analysis)}
}

func (f *fakeAnalysisService) Create(req *models.AnalyzeRequest) (*models.Analysis, error) {
	f.lastReq = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	analysis := &models.Analysis{ID: uuid.New(), Status: models.StatusQueued}
	f.analyses[analysis.ID] = analysis
	return analysis, nil
}

func (f *fakeAnalysisService) Analyze(_ context.Context, req *models.AnalyzeRequest) (*models.Analysis, error) {
	f.lastReq = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	analysis := &models.Analysis{ID: uuid.New(), Status: models.StatusProcessing}
	f.analyses[analysis.ID] = analysis
	f.finish(analysis)
	return analysis, f.runErr
}

func (f *fakeAnalysisService) Run(_ context.Context, id uuid.UUID) error {
	f.finish(f.analyses[id])
	return f.runErr
}

func (f *fakeAnalysisService) finish(analysis *models.Analysis) {
	analysis.Status = f.runStatus
	if f.runStatus == models.StatusCompleted {
		analysis.Report = f.report
	}
	if f.runStatus == models.StatusFailed {
		msg := "Failed to extract text from PDF. Please try a different file."
		analysis.ErrorMessage = &msg
	}
}

func (f *fakeAnalysisService) Get(id uuid.UUID) (*models.Analysis, error) {
	analysis, ok := f.analyses[id]
	if !ok {
		return nil, repositories.ErrAnalysisNotFound
	}
	return analysis, nil
}

func (f *fakeAnalysisService) Suggest(_ context.Context, id uuid.UUID, _ models.Section) (string, error) {
	analysis, err := f.Get(id)
	if err != nil {
		return "", err
	}
	if analysis.Status != models.StatusCompleted {
		return "", services.ErrAnalysisNotReady
	}
	return f.suggestions, nil
}

type fakeWorker struct {
	enqueued []uuid.UUID
}

func (w *fakeWorker) Start(context.Context) {}
func (w *fakeWorker) Stop() {}

func (w *fakeWorker) EnqueueJob(id uuid.UUID) {
	w.enqueued = append(w.enqueued, id)
}

type memoryDocumentRepo struct {
	docs []models.Document
}

func (r *memoryDocumentRepo) Create(doc *models.Document) error {
	r.docs = append(r.docs, *doc)
	return nil
}

func (r *memoryDocumentRepo) FindByID(uuid.UUID) (*models.Document, error) {
	return nil, repositories.ErrDocumentNotFound
}

func (r *memoryDocumentRepo) FindByIDs([]uuid.UUID) ([]models.Document, error) { return nil, nil }
func (r *memoryDocumentRepo) Delete(uuid.UUID) error { return nil }

type stubPDFParser struct {
	text string
	err  error
}

func (p *stubPDFParser) ExtractText([]byte) (string, error) { return p.text, p.err }
func (p *stubPDFParser) ExtractTextFromFile(string) (string, error) { return p.text, p.err }
func (p *stubPDFParser) ExtractTextWithMetaData(string) (*services.PDFContent, error) {
	return &services.PDFContent{Text: p.text}, p.err
}

func completedReport() *models.MatchReport {
	return &models.MatchReport{
		OverallMatchScore: 64,
		MatchedSkills:     []string{"Go"},
		MissingSkills:     []string{"Kubernetes"},
		Strengths:         []string{},
		Weaknesses:        []string{},
		Recommendations:   []string{"Add a projects section"},
		KeywordMatches:    []string{},
		SectionScores:     map[models.Section]int{models.SectionExperience: 70},
		Summary:           "Reasonable fit.",
	}
}

func newTestApp(svc *fakeAnalysisService, worker *fakeWorker) *fiber.App {
	log := zap.NewNop()
	app := fiber.New()
	api := app.Group("/api/v1")

	analysisHandler := NewAnalysisHandler(svc, worker, log)
	resultHandler := NewResultHandler(svc, log)
	suggestionHandler := NewSuggestionHandler(svc)

	api.Post("/analyze", analysisHandler.HandleAnalyze)
	api.Post("/analyses", analysisHandler.HandleCreateAnalysis)
	api.Get("/analyses/:id", resultHandler.HandleGetResult)
	api.Get("/analyses/:id/report.csv", resultHandler.HandleReportCSV)
	api.Get("/analyses/:id/summary", resultHandler.HandleSummary)
	api.Post("/analyses/:id/suggestions/:section", suggestionHandler.HandleSuggest)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func TestCreateAnalysisEnqueues(t *testing.T) {
	svc := newFakeAnalysisService()
	worker := &fakeWorker{}
	app := newTestApp(svc, worker)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/analyses",
		`{"resume_document_id":"r","job_description_text":"Go developer"}`)

	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if body["status"] != "queued" || len(worker.enqueued) != 1 || body["id"] != worker.enqueued[0].String() {
		t.Fatalf("unexpected response %v / enqueued %v", body, worker.enqueued)
	}
	if svc.lastReq.JobDescriptionText != "Go developer" {
		t.Fatalf("request not decoded: %+v", svc.lastReq)
	}
}

func TestCreateAnalysisErrors(t *testing.T) {
	tests := []struct {
		name       string
		createErr  error
		body       string
		wantStatus int
	}{
		{name: "missing input", createErr: services.ErrMissingInput, body: `{}`, wantStatus: fiber.StatusBadRequest},
		{name: "unknown document", createErr: repositories.ErrDocumentNotFound, body: `{}`, wantStatus: fiber.StatusNotFound},
		{name: "database down", createErr: errors.New("connection refused"), body: `{}`, wantStatus: fiber.StatusInternalServerError},
		{name: "malformed body", body: `{`, wantStatus: fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeAnalysisService()
			svc.createErr = tt.createErr
			worker := &fakeWorker{}

			resp, body := doJSON(t, newTestApp(svc, worker), http.MethodPost, "/api/v1/analyses", tt.body)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%v)", tt.wantStatus, resp.StatusCode, body)
			}
			if body["error"] == nil || int(body["code"].(float64)) != tt.wantStatus {
				t.Fatalf("expected JSON error body, got %v", body)
			}
			if len(worker.enqueued) != 0 {
				t.Fatalf("nothing should be enqueued on error")
			}
		})
	}
}

func TestAnalyzeSynchronously(t *testing.T) {
	svc := newFakeAnalysisService()
	svc.runStatus = models.StatusCompleted
	svc.report = completedReport()

	worker := &fakeWorker{}
	resp, body := doJSON(t, newTestApp(svc, worker), http.MethodPost, "/api/v1/analyze",
		`{"resume_document_id":"r","job_description_text":"Go developer"}`)

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(worker.enqueued) != 0 {
		t.Fatalf("inline analysis must not be queued: %v", worker.enqueued)
	}
	if body["status"] != "completed" || body["verdict"] != "Good Match" {
		t.Fatalf("unexpected body: %v", body)
	}
	result, ok := body["result"].(map[string]interface{})
	if !ok || result["overall_match_score"].(float64) != 64 {
		t.Fatalf("report missing from body: %v", body)
	}
}

func TestAnalyzeSynchronouslyExtractionFailure(t *testing.T) {
	svc := newFakeAnalysisService()
	svc.runStatus = models.StatusFailed
	svc.runErr = errors.New("extraction failed")

	resp, body := doJSON(t, newTestApp(svc, &fakeWorker{}), http.MethodPost, "/api/v1/analyze",
		`{"resume_document_id":"r","job_description_text":"Go developer"}`)

	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if body["status"] != "failed" || body["error_message"] == nil || body["result"] != nil {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGetResult(t *testing.T) {
	svc := newFakeAnalysisService()
	queued, _ := svc.Create(&models.AnalyzeRequest{})
	app := newTestApp(svc, &fakeWorker{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/analyses/"+queued.ID.String(), "")
	if resp.StatusCode != fiber.StatusOK || body["status"] != "queued" || body["result"] != nil {
		t.Fatalf("unexpected queued response %d: %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/analyses/not-a-uuid", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/analyses/"+uuid.NewString(), "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", resp.StatusCode)
	}
}

func TestReportDownloads(t *testing.T) {
	svc := newFakeAnalysisService()
	analysis, _ := svc.Create(&models.AnalyzeRequest{})
	app := newTestApp(svc, &fakeWorker{})

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/analyses/"+analysis.ID.String()+"/report.csv", "")
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", resp.StatusCode)
	}

	analysis.Status = models.StatusCompleted
	analysis.Report = completedReport()
	analysis.UpdatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysis.ID.String()+"/report.csv", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get(fiber.HeaderContentDisposition), "ats_analysis_20240102_030405.csv") {
		t.Fatalf("unexpected disposition: %q", resp.Header.Get(fiber.HeaderContentDisposition))
	}
	if !strings.HasPrefix(string(raw), "Analysis Date,Overall Score,Summary") {
		t.Fatalf("unexpected csv: %s", raw)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysis.ID.String()+"/summary", nil)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "Overall Match Score: 64% (Good Match)") {
		t.Fatalf("unexpected summary: %s", raw)
	}
}

func TestSuggestions(t *testing.T) {
	svc := newFakeAnalysisService()
	svc.suggestions = "1. Lead with impact"
	analysis, _ := svc.Create(&models.AnalyzeRequest{})
	app := newTestApp(svc, &fakeWorker{})
	path := "/api/v1/analyses/" + analysis.ID.String() + "/suggestions/"

	resp, _ := doJSON(t, app, http.MethodPost, path+"skills", "")
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPost, path+"hobbies", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown section, got %d", resp.StatusCode)
	}

	analysis.Status = models.StatusCompleted
	resp, body := doJSON(t, app, http.MethodPost, path+"Experience", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body["section"] != "experience" || body["suggestions"] != "1. Lead with impact" {
		t.Fatalf("unexpected body: %v", body)
	}
}

type uploadFile struct {
	name    string
	content []byte
}

func multipartRequest(t *testing.T, path string, files map[string]uploadFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for field, file := range files {
		part, err := writer.CreateFormFile(field, file.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(file.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	return req
}

func newUploadApp(t *testing.T, parser *stubPDFParser, docs *memoryDocumentRepo) (*fiber.App, string) {
	t.Helper()

	dir := t.TempDir()
	storage := services.NewStorageService(dir)
	handler := NewUploadHandler(docs, storage, parser, 1<<20, zap.NewNop())

	app := fiber.New()
	app.Post("/upload", handler.HandleUpload)
	return app, dir
}

func TestUploadResumeAndJobDescription(t *testing.T) {
	docs := &memoryDocumentRepo{}
	longText := strings.Repeat("x", 1200)
	app, _ := newUploadApp(t, &stubPDFParser{text: longText}, docs)

	req := multipartRequest(t, "/upload", map[string]uploadFile{
		"resume":          {name: "cv.pdf", content: []byte("%PDF-1.4")},
		"job_description": {name: "jd.txt", content: []byte("  Go developer  ")},
	})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
	}

	var body struct {
		Documents []models.UploadResponse `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Documents) != 2 || len(docs.docs) != 2 {
		t.Fatalf("expected two stored documents, got %+v", body.Documents)
	}

	resume, jd := body.Documents[0], body.Documents[1]
	if resume.FileType != "resume" || len([]rune(resume.Preview)) != previewLength+3 || !strings.HasSuffix(resume.Preview, "...") {
		t.Fatalf("unexpected resume preview (%d runes)", len([]rune(resume.Preview)))
	}
	if jd.FileType != "job_description" || jd.Preview != "Go developer" {
		t.Fatalf("unexpected job description response: %+v", jd)
	}
}

func TestUploadRejectsUnreadableResume(t *testing.T) {
	docs := &memoryDocumentRepo{}
	app, dir := newUploadApp(t, &stubPDFParser{err: services.ErrExtractionFailed}, docs)

	req := multipartRequest(t, "/upload", map[string]uploadFile{
		"resume": {name: "cv.pdf", content: []byte("garbage")},
	})
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if len(docs.docs) != 0 {
		t.Fatalf("no document should be recorded")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected upload should be removed, found %d files", len(entries))
	}
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]uploadFile
	}{
		{name: "no files", files: map[string]uploadFile{"other": {name: "a.pdf", content: []byte("x")}}},
		{name: "resume not pdf", files: map[string]uploadFile{"resume": {name: "cv.docx", content: []byte("x")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newUploadApp(t, &stubPDFParser{text: "ok"}, &memoryDocumentRepo{})
			resp, err := app.Test(multipartRequest(t, "/upload", tt.files), -1)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	handler := NewExtractHandler(&stubPDFParser{text: "Skills Go, SQL"}, services.NewSectionSegmenter(), 1<<20, zap.NewNop())
	app := fiber.New()
	app.Post("/extract", handler.HandleExtract)

	resp, err := app.Test(multipartRequest(t, "/extract", map[string]uploadFile{
		"file": {name: "cv.pdf", content: []byte("%PDF")},
	}), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body models.ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Text != "Skills Go, SQL" || body.Sections.Skills != "Go, SQL" || body.Sections.FullText != body.Text {
		t.Fatalf("unexpected extraction: %+v", body)
	}
}
