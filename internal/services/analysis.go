package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/repositories"
)

var (
	ErrMissingInput     = errors.New("please provide both job description and resume before analyzing")
	ErrInvalidRequest   = errors.New("invalid analysis request")
	ErrAnalysisNotReady = errors.New("analysis is not completed yet")
)

const (
	extractionFailedMessage = "Failed to extract text from PDF. Please try a different file."
	saveFailedMessage       = "Failed to save analysis results. Please try again."
)

type AnalysisService interface {
	Create(req *models.AnalyzeRequest) (*models.Analysis, error)
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.Analysis, error)
	Run(ctx context.Context, analysisID uuid.UUID) error
	Get(analysisID uuid.UUID) (*models.Analysis, error)
	Suggest(ctx context.Context, analysisID uuid.UUID, section models.Section) (string, error)
}

type analysisService struct {
	analysisRepo repositories.AnalysisRepository
	docRepo      repositories.DocumentRepository
	storage      StorageService
	pdfParser    PDFParserService
	segmenter    SectionSegmenter
	jdReader     JobDescriptionReader
	analyzer     MatchAnalyzer
	log          *zap.Logger
}

func NewAnalysisService(
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	storage StorageService,
	pdfParser PDFParserService,
	segmenter SectionSegmenter,
	analyzer MatchAnalyzer,
	log *zap.Logger,
) AnalysisService {
	return &analysisService{
		analysisRepo: analysisRepo,
		docRepo:      docRepo,
		storage:      storage,
		pdfParser:    pdfParser,
		segmenter:    segmenter,
		jdReader:     NewJobDescriptionReader(pdfParser),
		analyzer:     analyzer,
		log:          log,
	}
}

// Create validates the request and stores a queued analysis for the worker.
func (s *analysisService) Create(req *models.AnalyzeRequest) (*models.Analysis, error) {
	return s.create(req, models.StatusQueued)
}

// Analyze stores the analysis already claimed and runs it inline, so the poller never sees it.
// A nil analysis means the request was rejected; otherwise the stored analysis is returned
// together with the run error, if any.
func (s *analysisService) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.Analysis, error) {
	analysis, err := s.create(req, models.StatusProcessing)
	if err != nil {
		return nil, err
	}

	runErr := s.process(ctx, analysis.ID)

	stored, err := s.analysisRepo.FindByID(analysis.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload analysis: %w", err)
	}

	return stored, runErr
}

func (s *analysisService) create(req *models.AnalyzeRequest, status models.AnalysisStatus) (*models.Analysis, error) {
	jdText := strings.TrimSpace(req.JobDescriptionText)
	if strings.TrimSpace(req.ResumeDocumentID) == "" ||
		(strings.TrimSpace(req.JobDescriptionDocumentID) == "" && jdText == "") {
		return nil, ErrMissingInput
	}

	resumeDoc, err := s.findDocument(req.ResumeDocumentID, models.DocumentTypeResume)
	if err != nil {
		return nil, err
	}

	analysis := &models.Analysis{
		ID:                 uuid.New(),
		ResumeDocumentID:   resumeDoc.ID,
		JobDescriptionText: jdText,
		Status:             status,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	if req.JobDescriptionDocumentID != "" {
		jdDoc, err := s.findDocument(req.JobDescriptionDocumentID, models.DocumentTypeJobDescription)
		if err != nil {
			return nil, err
		}
		analysis.JobDescriptionDocumentID = &jdDoc.ID
	}

	if err := s.analysisRepo.Create(analysis); err != nil {
		return nil, err
	}

	return analysis, nil
}

// Run claims a queued analysis and processes it. An analysis that is no longer
// queued was taken by another runner and is skipped.
func (s *analysisService) Run(ctx context.Context, analysisID uuid.UUID) error {
	claimed, err := s.analysisRepo.ClaimQueued(analysisID)
	if err != nil {
		return err
	}

	if !claimed {
		if _, err := s.analysisRepo.FindByID(analysisID); err != nil {
			return err
		}
		s.log.Debug("analysis already claimed, skipping", zap.String("analysis_id", analysisID.String()))
		return nil
	}

	return s.process(ctx, analysisID)
}

// process extracts, segments and analyzes a claimed analysis.
// Extraction and storage problems mark the analysis failed; analyzer problems yield a degraded report.
func (s *analysisService) process(ctx context.Context, analysisID uuid.UUID) error {
	log := s.log.With(zap.String("analysis_id", analysisID.String()))
	log.Info("starting analysis")

	analysis, err := s.analysisRepo.FindByID(analysisID)
	if err != nil {
		return s.fail(analysisID, err.Error(), err)
	}

	resumeDoc, err := s.docRepo.FindByID(analysis.ResumeDocumentID)
	if err != nil {
		return s.fail(analysisID, "Resume document not found", err)
	}

	resumeText, err := s.extractResume(resumeDoc)
	if err != nil {
		return s.fail(analysisID, extractionFailedMessage, err)
	}

	jobDescription, err := s.jobDescription(analysis)
	if err != nil {
		return s.fail(analysisID, fmt.Sprintf("Failed to read job description: %v", err), err)
	}

	sections := s.segmenter.Segment(resumeText)
	log.Debug("resume segmented",
		zap.Int("experience_length", len(sections.Experience)),
		zap.Int("education_length", len(sections.Education)),
		zap.Int("skills_length", len(sections.Skills)),
	)

	if err := s.analysisRepo.UpdateExtraction(analysisID, resumeText, jobDescription, &sections); err != nil {
		return s.fail(analysisID, saveFailedMessage, fmt.Errorf("failed to save extraction: %w", err))
	}

	report := s.analyzer.AnalyzeMatch(ctx, resumeText, jobDescription)

	if err := s.analysisRepo.UpdateReport(analysisID, report); err != nil {
		return s.fail(analysisID, saveFailedMessage, fmt.Errorf("failed to save report: %w", err))
	}

	log.Info("analysis completed", zap.Int("overall_match_score", report.OverallMatchScore))
	return nil
}

func (s *analysisService) Get(analysisID uuid.UUID) (*models.Analysis, error) {
	return s.analysisRepo.FindByID(analysisID)
}

// Suggest asks for improvements to one section of an analyzed resume.
func (s *analysisService) Suggest(ctx context.Context, analysisID uuid.UUID, section models.Section) (string, error) {
	analysis, err := s.analysisRepo.FindByID(analysisID)
	if err != nil {
		return "", err
	}

	if analysis.Status != models.StatusCompleted {
		return "", ErrAnalysisNotReady
	}

	return s.analyzer.SuggestImprovements(ctx, analysis.ResumeText, analysis.JobDescriptionText, section), nil
}

func (s *analysisService) findDocument(rawID string, want models.DocumentType) (*models.Document, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s document id", ErrInvalidRequest, want)
	}

	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if doc.FileType != want {
		return nil, fmt.Errorf("%w: document %s is a %s, expected %s", ErrInvalidRequest, id, doc.FileType, want)
	}

	return doc, nil
}

func (s *analysisService) extractResume(doc *models.Document) (string, error) {
	data, err := s.storage.ReadFile(doc.FilePath)
	if err != nil {
		return "", err
	}

	text, err := s.pdfParser.ExtractText(data)
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", errors.New("no text content found in resume")
	}

	return text, nil
}

func (s *analysisService) jobDescription(analysis *models.Analysis) (string, error) {
	if analysis.JobDescriptionDocumentID == nil {
		if analysis.JobDescriptionText == "" {
			return "", ErrMissingInput
		}
		return analysis.JobDescriptionText, nil
	}

	doc, err := s.docRepo.FindByID(*analysis.JobDescriptionDocumentID)
	if err != nil {
		return "", err
	}

	data, err := s.storage.ReadFile(doc.FilePath)
	if err != nil {
		return "", err
	}

	text, err := s.jdReader.ReadText(doc.Filename, data)
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", errors.New("job description is empty")
	}

	return text, nil
}

func (s *analysisService) fail(analysisID uuid.UUID, message string, cause error) error {
	if err := s.analysisRepo.UpdateError(analysisID, message); err != nil {
		s.log.Error("failed to record analysis error",
			zap.String("analysis_id", analysisID.String()),
			zap.Error(err),
		)
	}

	s.log.Warn("analysis failed",
		zap.String("analysis_id", analysisID.String()),
		zap.String("reason", message),
		zap.Error(cause),
	)

	return fmt.Errorf("%s: %w", message, cause)
}
