package services

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nguyenthenguyen/docx"
)

var xmlTag = regexp.MustCompile(`<[^>]+>`)

// JobDescriptionReader turns an uploaded job description into text.
type JobDescriptionReader interface {
	ReadText(filename string, data []byte) (string, error)
}

type jobDescriptionReader struct {
	pdfParser PDFParserService
}

func NewJobDescriptionReader(pdfParser PDFParserService) JobDescriptionReader {
	return &jobDescriptionReader{pdfParser: pdfParser}
}

// ReadText implements JobDescriptionReader. The format is picked from the file extension.
func (r *jobDescriptionReader) ReadText(filename string, data []byte) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt":
		if !utf8.Valid(data) {
			return "", errors.New("job description is not valid UTF-8 text")
		}
		return strings.TrimSpace(string(data)), nil

	case ".pdf":
		return r.pdfParser.ExtractText(data)

	case ".docx":
		return extractDocxText(data)

	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	// GetContent returns the raw document.xml body.
	content := xmlTag.ReplaceAllString(doc.Editable().GetContent(), " ")
	return NormalizeText(html.UnescapeString(content)), nil
}
