package services

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"

	"github.com/google/uuid"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/repositories"
)

type memoryAnalysisRepo struct {
	mu            sync.Mutex
	analyses      map[uuid.UUID]*models.Analysis
	statuses      []models.AnalysisStatus
	extractionErr error
	reportErr     error
}

func newMemoryAnalysisRepo() *memoryAnalysisRepo {
	return &memoryAnalysisRepo{analyses: make(map[uuid.UUID]*models.Analysis)}
}

func (r *memoryAnalysisRepo) Create(analysis *models.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *analysis
	r.analyses[analysis.ID] = &copied
	return nil
}

func (r *memoryAnalysisRepo) FindByID(id uuid.UUID) (*models.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.analyses[id]
	if !ok {
		return nil, repositories.ErrAnalysisNotFound
	}
	copied := *analysis
	return &copied, nil
}

func (r *memoryAnalysisRepo) ClaimQueued(id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.analyses[id]
	if !ok || analysis.Status != models.StatusQueued {
		return false, nil
	}
	analysis.Status = models.StatusProcessing
	r.statuses = append(r.statuses, models.StatusProcessing)
	return true, nil
}

func (r *memoryAnalysisRepo) UpdateExtraction(id uuid.UUID, resumeText, jobDescriptionText string, sections *models.SectionMap) error {
	if r.extractionErr != nil {
		return r.extractionErr
	}
	return r.with(id, func(a *models.Analysis) {
		a.ResumeText = resumeText
		a.JobDescriptionText = jobDescriptionText
		a.Sections = sections
	})
}

func (r *memoryAnalysisRepo) UpdateReport(id uuid.UUID, report *models.MatchReport) error {
	if r.reportErr != nil {
		return r.reportErr
	}
	return r.with(id, func(a *models.Analysis) {
		a.Report = report
		a.Status = models.StatusCompleted
		r.statuses = append(r.statuses, models.StatusCompleted)
	})
}

func (r *memoryAnalysisRepo) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.with(id, func(a *models.Analysis) {
		a.Status = models.StatusFailed
		a.ErrorMessage = &errorMsg
		r.statuses = append(r.statuses, models.StatusFailed)
	})
}

func (r *memoryAnalysisRepo) FindPendingJobs(limit int) ([]models.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []models.Analysis
	for _, a := range r.analyses {
		if a.Status == models.StatusQueued && len(pending) < limit {
			pending = append(pending, *a)
		}
	}
	return pending, nil
}

func (r *memoryAnalysisRepo) with(id uuid.UUID, fn func(a *models.Analysis)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	analysis, ok := r.analyses[id]
	if !ok {
		return repositories.ErrAnalysisNotFound
	}
	fn(analysis)
	return nil
}

type memoryDocumentRepo struct {
	docs map[uuid.UUID]*models.Document
}

func newMemoryDocumentRepo(docs ...*models.Document) *memoryDocumentRepo {
	repo := &memoryDocumentRepo{docs: make(map[uuid.UUID]*models.Document)}
	for _, doc := range docs {
		repo.docs[doc.ID] = doc
	}
	return repo
}

func (r *memoryDocumentRepo) Create(document *models.Document) error {
	r.docs[document.ID] = document
	return nil
}

func (r *memoryDocumentRepo) FindByID(id uuid.UUID) (*models.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, repositories.ErrDocumentNotFound
	}
	return doc, nil
}

func (r *memoryDocumentRepo) FindByIDs(ids []uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	for _, id := range ids {
		if doc, ok := r.docs[id]; ok {
			docs = append(docs, *doc)
		}
	}
	return docs, nil
}

func (r *memoryDocumentRepo) Delete(id uuid.UUID) error {
	delete(r.docs, id)
	return nil
}

// memoryStorage serves file contents by path.
type memoryStorage struct {
	files map[string][]byte
}

func (s *memoryStorage) SaveFile(*multipart.FileHeader, models.DocumentType) (string, string, error) {
	return "", "", errors.New("not supported")
}

func (s *memoryStorage) ReadFile(filePath string) ([]byte, error) {
	data, ok := s.files[filePath]
	if !ok {
		return nil, errors.New("failed to read file: no such file")
	}
	return data, nil
}

func (s *memoryStorage) GetFilePath(filename string) string { return filename }
func (s *memoryStorage) DeleteFile(string) error { return nil }
func (s *memoryStorage) EnsureUploadDir() error { return nil }

// stubPDFParser returns a fixed text for every input.
type stubPDFParser struct {
	text string
	err  error
}

func (p *stubPDFParser) ExtractText([]byte) (string, error) { return p.text, p.err }

func (p *stubPDFParser) ExtractTextFromFile(string) (string, error) { return p.text, p.err }

func (p *stubPDFParser) ExtractTextWithMetaData(string) (*PDFContent, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &PDFContent{Text: p.text, PageCount: 1}, nil
}

type stubAnalyzer struct {
	onAnalyze      func()
	calls          int
	report         *models.MatchReport
	suggestions    string
	resumeText     string
	jobDescription string
	section        models.Section
}

func (a *stubAnalyzer) AnalyzeMatch(_ context.Context, resumeText, jobDescription string) *models.MatchReport {
	a.calls++
	if a.onAnalyze != nil {
		a.onAnalyze()
	}
	a.resumeText = resumeText
	a.jobDescription = jobDescription
	return a.report
}

func (a *stubAnalyzer) SuggestImprovements(_ context.Context, resumeText, jobDescription string, section models.Section) string {
	a.resumeText = resumeText
	a.jobDescription = jobDescription
	a.section = section
	return a.suggestions
}
