package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf" // Pure Go PDF text extractor

	"github.com/GonzoDMX/docquery/internal/ingest"
)

// MaxFileSize - 50MB hard limit for text extraction
const MaxFileSize = 50 * 1024 * 1024

// ExtractBytes turns raw upload bytes into plain text based on the
// declared filename. It is a pure function: no staging files, no side
// effects. Extraction that yields no usable text is an error so the
// caller never indexes an empty document.
func ExtractBytes(data []byte, filename string) (string, error) {
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("file exceeds size limit of 50MB")
	}

	var text string
	var err error
	switch ingest.ProcessorType(filename) {
	case ingest.ProcessorText:
		text, err = extractText(data)
	case ingest.ProcessorPDF:
		text, err = extractPDF(data)
	default:
		return "", fmt.Errorf("unsupported file type")
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content extracted")
	}
	return text, nil
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8 text")
	}
	return string(data), nil
}

// extractPDF reads all pages through dslipak/pdf's plain-text reader.
func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}
