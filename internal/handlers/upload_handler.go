package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/repositories"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

const (
	previewLength         = 1000
	resumeExtractFailed   = "Failed to extract text from PDF. Please try a different file."
	jobDescriptionInvalid = "Failed to read job description. Please upload a PDF, DOCX or UTF-8 text file."
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	pdfParser      services.PDFParserService
	jdReader       services.JobDescriptionReader
	maxFileSize    int64
	log            *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	pdfParser services.PDFParserService,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		pdfParser:      pdfParser,
		jdReader:       services.NewJobDescriptionReader(pdfParser),
		maxFileSize:    maxFileSize,
		log:            log,
	}
}

// HandleUpload handles POST /upload with the multipart fields "resume" and "job_description".
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "failed to parse multipart form")
	}

	var responses []models.UploadResponse

	for _, field := range []models.DocumentType{models.DocumentTypeResume, models.DocumentTypeJobDescription} {
		files, exists := form.File[string(field)]
		if !exists || len(files) == 0 {
			continue
		}

		resp, status, err := h.storeDocument(files[0], field)
		if err != nil {
			return respondError(c, status, err.Error())
		}
		responses = append(responses, *resp)
	}

	if len(responses) == 0 {
		return respondError(c, fiber.StatusBadRequest,
			"No valid files uploaded. Please upload 'resume' (PDF) and/or 'job_description' (PDF, DOCX or TXT).")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Files uploaded successfully",
		"documents": responses,
	})
}

// storeDocument saves the file, checks that its text can be read and records it.
// On failure it returns the HTTP status to answer with.
func (h *UploadHandler) storeDocument(file *multipart.FileHeader, fileType models.DocumentType) (*models.UploadResponse, int, error) {
	if file.Size > h.maxFileSize {
		return nil, fiber.StatusBadRequest, fmt.Errorf("%s file too large. Max size: %d bytes", fileType, h.maxFileSize)
	}

	filename, filePath, err := h.storageService.SaveFile(file, fileType)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			h.log.Error("failed to save upload", zap.String("file_type", string(fileType)), zap.Error(err))
			return nil, status, fmt.Errorf("failed to save %s file", fileType)
		}
		return nil, status, err
	}

	text, err := h.readText(filename, filePath, fileType)
	if err != nil {
		h.log.Warn("uploaded document is unreadable",
			zap.String("file_type", string(fileType)),
			zap.String("original_name", file.Filename),
			zap.Error(err),
		)
		h.cleanup(filename)

		if fileType == models.DocumentTypeResume {
			return nil, fiber.StatusUnprocessableEntity, errors.New(resumeExtractFailed)
		}
		return nil, fiber.StatusUnprocessableEntity, errors.New(jobDescriptionInvalid)
	}

	doc := models.Document{
		ID:               uuid.New(),
		Filename:         filename,
		OriginalFileName: file.Filename,
		FileType:         fileType,
		FilePath:         filePath,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := h.docRepo.Create(&doc); err != nil {
		h.cleanup(filename)
		h.log.Error("failed to save document record", zap.String("file_type", string(fileType)), zap.Error(err))
		return nil, fiber.StatusInternalServerError, fmt.Errorf("failed to save %s document record", fileType)
	}

	h.log.Info("document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("file_type", string(fileType)),
		zap.Int("text_length", len(text)),
	)

	return &models.UploadResponse{
		ID:           doc.ID.String(),
		Filename:     doc.Filename,
		OriginalName: doc.OriginalFileName,
		FileType:     string(doc.FileType),
		Preview:      previewText(text),
	}, 0, nil
}

func (h *UploadHandler) readText(filename, filePath string, fileType models.DocumentType) (string, error) {
	data, err := h.storageService.ReadFile(filePath)
	if err != nil {
		return "", err
	}

	var text string
	if fileType == models.DocumentTypeResume {
		text, err = h.pdfParser.ExtractText(data)
	} else {
		text, err = h.jdReader.ReadText(filename, data)
	}
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", errors.New("no text content found")
	}

	return text, nil
}

func (h *UploadHandler) cleanup(filename string) {
	if err := h.storageService.DeleteFile(filename); err != nil {
		h.log.Warn("failed to remove rejected upload", zap.String("filename", filename), zap.Error(err))
	}
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
