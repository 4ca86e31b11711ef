package services

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrExtractionFailed is the only error ExtractText reports. No partial text is ever returned.
var ErrExtractionFailed = errors.New("could not extract text from PDF")

type PDFParserService interface {
	ExtractText(data []byte) (string, error)
	ExtractTextFromFile(filePath string) (string, error)
	ExtractTextWithMetaData(filePath string) (*PDFContent, error)
}

type PDFContent struct {
	Text      string
	PageCount int
	FilePath  string
}

// pageSource is the part of a parsed PDF the extractor needs.
type pageSource interface {
	NumPage() int
	PageText(index int) (string, error)
}

type pdfPages struct {
	reader *pdf.Reader
}

func (p pdfPages) NumPage() int {
	return p.reader.NumPage()
}

func (p pdfPages) PageText(index int) (string, error) {
	page := p.reader.Page(index)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d has no content object", index)
	}
	return page.GetPlainText(nil)
}

type pdfParserService struct{}

func NewPDFParserService() PDFParserService {
	return &pdfParserService{}
}

// ExtractText implements PDFParserService.
func (p *pdfParserService) ExtractText(data []byte) (string, error) {
	src, err := openPDF(data)
	if err != nil {
		return "", ErrExtractionFailed
	}

	raw, err := readPages(src)
	if err != nil {
		return "", ErrExtractionFailed
	}

	return NormalizeText(raw), nil
}

// ExtractTextFromFile implements PDFParserService.
func (p *pdfParserService) ExtractTextFromFile(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", ErrExtractionFailed
	}

	return p.ExtractText(data)
}

// ExtractTextWithMetaData implements PDFParserService.
// The text is not normalized; page boundaries are kept for chunking.
func (p *pdfParserService) ExtractTextWithMetaData(filePath string) (*PDFContent, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	src, err := openPDF(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	text, err := readPages(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF pages: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text content found in PDF")
	}

	return &PDFContent{
		Text:      text,
		PageCount: src.NumPage(),
		FilePath:  filePath,
	}, nil
}

func openPDF(data []byte) (src pageSource, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	return pdfPages{reader: reader}, nil
}

// readPages concatenates every page in file order, each followed by a newline.
// One failing page fails the whole document.
func readPages(src pageSource) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf page: %v", r)
		}
	}()

	var textBuilder strings.Builder
	for pageIndex := 1; pageIndex <= src.NumPage(); pageIndex++ {
		pageText, err := src.PageText(pageIndex)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageIndex, err)
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
