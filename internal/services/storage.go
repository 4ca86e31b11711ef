package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// allowedExtensions lists the accepted uploads per document type.
var allowedExtensions = map[models.DocumentType][]string{
	models.DocumentTypeResume:         {".pdf"},
	models.DocumentTypeJobDescription: {".pdf", ".txt", ".docx"},
}

type StorageService interface {
	SaveFile(file *multipart.FileHeader, fileType models.DocumentType) (string, string, error)
	ReadFile(filePath string) ([]byte, error)
	GetFilePath(filename string) string
	DeleteFile(filename string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

// SaveFile stores the upload under a unique name and returns that name and its full path.
func (s *storageService) SaveFile(file *multipart.FileHeader, fileType models.DocumentType) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !IsAllowedExtension(fileType, ext) {
		return "", "", fmt.Errorf("%w: %q for %s", ErrUnsupportedFileType, ext, fileType)
	}

	uniqueFilename := fmt.Sprintf("%s_%s%s", fileType, uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, uniqueFilename)

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	return uniqueFilename, filePath, nil
}

func (s *storageService) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *storageService) GetFilePath(filename string) string {
	return filepath.Join(s.uploadPath, filename)
}

func (s *storageService) DeleteFile(filename string) error {
	filePath := s.GetFilePath(filename)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func IsAllowedExtension(fileType models.DocumentType, ext string) bool {
	for _, allowed := range allowedExtensions[fileType] {
		if ext == allowed {
			return true
		}
	}
	return false
}
