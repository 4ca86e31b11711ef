package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

type SuggestionHandler struct {
	analysisService services.AnalysisService
}

func NewSuggestionHandler(analysisService services.AnalysisService) *SuggestionHandler {
	return &SuggestionHandler{analysisService: analysisService}
}

// HandleSuggest handles POST /analyses/:id/suggestions/:section
func (h *SuggestionHandler) HandleSuggest(c *fiber.Ctx) error {
	analysisID, err := parseAnalysisID(c)
	if err != nil {
		return respondServiceError(c, err, "")
	}

	section, ok := models.ParseSection(c.Params("section"))
	if !ok {
		return respondError(c, fiber.StatusBadRequest, "section must be one of experience, education, skills")
	}

	suggestions, err := h.analysisService.Suggest(c.UserContext(), analysisID, section)
	if err != nil {
		return respondServiceError(c, err, "Failed to generate suggestions")
	}

	return c.JSON(models.SuggestionResponse{
		AnalysisID:  analysisID.String(),
		Section:     string(section),
		Suggestions: suggestions,
	})
}
