package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

type ResultHandler struct {
	analysisService services.AnalysisService
	log             *zap.Logger
}

func NewResultHandler(analysisService services.AnalysisService, log *zap.Logger) *ResultHandler {
	return &ResultHandler{
		analysisService: analysisService,
		log:             log,
	}
}

// HandleGetResult handles GET /analyses/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	analysis, err := h.loadAnalysis(c)
	if err != nil {
		return respondServiceError(c, err, "Failed to load analysis")
	}

	return c.JSON(newResultResponse(analysis))
}

// HandleReportCSV handles GET /analyses/:id/report.csv
func (h *ResultHandler) HandleReportCSV(c *fiber.Ctx) error {
	analysis, err := h.completedAnalysis(c)
	if err != nil {
		return respondServiceError(c, err, "Failed to load analysis")
	}

	var buf bytes.Buffer
	if err := services.WriteReportCSV(&buf, analysis.Report, analysis.UpdatedAt); err != nil {
		h.log.Error("failed to render csv report", zap.String("analysis_id", analysis.ID.String()), zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Failed to render report")
	}

	c.Attachment(services.ReportFilename(analysis.UpdatedAt))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

// HandleSummary handles GET /analyses/:id/summary
func (h *ResultHandler) HandleSummary(c *fiber.Ctx) error {
	analysis, err := h.completedAnalysis(c)
	if err != nil {
		return respondServiceError(c, err, "Failed to load analysis")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(services.BuildSummaryText(analysis.Report))
}

func (h *ResultHandler) loadAnalysis(c *fiber.Ctx) (*models.Analysis, error) {
	analysisID, err := parseAnalysisID(c)
	if err != nil {
		return nil, err
	}
	return h.analysisService.Get(analysisID)
}

func (h *ResultHandler) completedAnalysis(c *fiber.Ctx) (*models.Analysis, error) {
	analysis, err := h.loadAnalysis(c)
	if err != nil {
		return nil, err
	}
	if analysis.Status != models.StatusCompleted || analysis.Report == nil {
		return nil, services.ErrAnalysisNotReady
	}
	return analysis, nil
}

func parseAnalysisID(c *fiber.Ctx) (uuid.UUID, error) {
	analysisID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid analysis ID format", services.ErrInvalidRequest)
	}
	return analysisID, nil
}

// newResultResponse exposes the report only once the analysis completed.
func newResultResponse(analysis *models.Analysis) models.ResultResponse {
	response := models.ResultResponse{
		ID:     analysis.ID.String(),
		Status: string(analysis.Status),
	}

	if analysis.Status == models.StatusCompleted && analysis.Report != nil {
		response.Result = analysis.Report
		response.Verdict = analysis.Report.Verdict()
		response.Sections = analysis.Sections
	}

	if analysis.Status == models.StatusFailed && analysis.ErrorMessage != nil && *analysis.ErrorMessage != "" {
		response.ErrorMessage = analysis.ErrorMessage
	}

	return response
}
