package handlers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

type ExtractHandler struct {
	pdfParser   services.PDFParserService
	segmenter   services.SectionSegmenter
	maxFileSize int64
	log         *zap.Logger
}

func NewExtractHandler(
	pdfParser services.PDFParserService,
	segmenter services.SectionSegmenter,
	maxFileSize int64,
	log *zap.Logger,
) *ExtractHandler {
	return &ExtractHandler{
		pdfParser:   pdfParser,
		segmenter:   segmenter,
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// HandleExtract handles POST /extract: normalized text and sections of a PDF, nothing stored.
func (h *ExtractHandler) HandleExtract(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "file is required")
	}

	if strings.ToLower(filepath.Ext(file.Filename)) != ".pdf" {
		return respondError(c, fiber.StatusBadRequest, "only PDF files can be extracted")
	}

	if file.Size > h.maxFileSize {
		return respondError(c, fiber.StatusBadRequest, "file too large")
	}

	src, err := file.Open()
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "failed to open uploaded file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "failed to read uploaded file")
	}

	text, err := h.pdfParser.ExtractText(data)
	if err != nil {
		h.log.Warn("extraction failed", zap.String("original_name", file.Filename), zap.Error(err))
		return respondError(c, fiber.StatusUnprocessableEntity, resumeExtractFailed)
	}

	return c.JSON(models.ExtractResponse{
		Text:     text,
		Sections: h.segmenter.Segment(text),
	})
}
