package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

var errInvalidPayload = errors.New("invalid request payload")

type AnalysisHandler struct {
	analysisService services.AnalysisService
	worker          services.Worker
	log             *zap.Logger
}

func NewAnalysisHandler(
	analysisService services.AnalysisService,
	worker services.Worker,
	log *zap.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		worker:          worker,
		log:             log,
	}
}

// HandleCreateAnalysis handles POST /analyses. The analysis runs in the background.
func (h *AnalysisHandler) HandleCreateAnalysis(c *fiber.Ctx) error {
	analysis, err := h.create(c)
	if err != nil {
		return h.respondCreateError(c, err)
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.AnalyzeResponse{
		ID:     analysis.ID.String(),
		Status: string(models.StatusQueued),
	})
}

// HandleAnalyze handles POST /analyze and answers with the finished analysis.
func (h *AnalysisHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req models.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.respondCreateError(c, errInvalidPayload)
	}

	analysis, err := h.analysisService.Analyze(c.UserContext(), &req)
	if analysis == nil {
		return h.respondCreateError(c, err)
	}

	status := fiber.StatusOK
	if err != nil {
		if analysis.Status != models.StatusFailed {
			h.log.Error("analysis run failed", zap.String("analysis_id", analysis.ID.String()), zap.Error(err))
			return respondError(c, fiber.StatusInternalServerError, "Failed to run analysis")
		}
		status = fiber.StatusUnprocessableEntity
	}

	return c.Status(status).JSON(newResultResponse(analysis))
}

// create parses the request and stores a queued analysis.
func (h *AnalysisHandler) create(c *fiber.Ctx) (*models.Analysis, error) {
	var req models.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, errInvalidPayload
	}

	return h.analysisService.Create(&req)
}

func (h *AnalysisHandler) respondCreateError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errInvalidPayload) {
		return respondError(c, fiber.StatusBadRequest, "Invalid request payload")
	}

	if statusForError(err) == fiber.StatusInternalServerError {
		h.log.Error("failed to create analysis", zap.Error(err))
	}
	return respondServiceError(c, err, "Failed to create analysis job")
}
