package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoText            = errors.New("no extractable text in document")
)

// ExtractionService turns uploaded files and crawled pages into plain text
// ready for chunking.
type ExtractionService struct {
	logger *zap.Logger
}

func NewExtractionService(logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		logger: logger,
	}
}

// SupportedExtensions lists the upload formats the knowledge base accepts.
var SupportedExtensions = []string{".txt", ".csv", ".pdf", ".docx"}

// IsSupported reports whether the filename carries an accepted extension.
func (s *ExtractionService) IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// ExtractFile extracts plain text from an uploaded file based on its
// extension.
func (s *ExtractionService) ExtractFile(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	var err error
	switch ext {
	case ".txt", ".csv":
		text = string(data)
	case ".pdf":
		text, err = s.extractPDF(data)
	case ".docx":
		text, err = s.extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(sanitizeUTF8(text))
	if text == "" {
		return "", ErrNoText
	}

	s.logger.Debug("Extracted document text",
		zap.String("filename", filename),
		zap.Int("chars", len(text)),
	)

	return text, nil
}

// ExtractHTML pulls the visible text out of an HTML page, dropping markup,
// scripts and styles.
func (s *ExtractionService) ExtractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	text := collapseWhitespace(body.Text())
	text = strings.TrimSpace(sanitizeUTF8(text))
	if text == "" {
		return "", ErrNoText
	}

	return text, nil
}

func (s *ExtractionService) extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var builder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract PDF page",
				zap.Int("page", i),
				zap.Error(err),
			)
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// docx files are zip archives with the text in word/document.xml. Paragraph
// elements become newlines, everything else is flattened to character data.
func (s *ExtractionService) extractDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var document io.ReadCloser
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			document, err = file.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open docx document: %w", err)
			}
			break
		}
	}
	if document == nil {
		return "", errors.New("docx archive has no word/document.xml")
	}
	defer document.Close()

	decoder := xml.NewDecoder(document)
	var builder strings.Builder
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx document: %w", err)
		}

		switch t := token.(type) {
		case xml.CharData:
			builder.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				builder.WriteString("\n")
			}
		}
	}

	return builder.String(), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
