package ingest

import (
	"net/http"
	"path/filepath"
	"strings"
)

// Processor identifies which extractor handles a file.
type Processor string

const (
	ProcessorText    Processor = "text"
	ProcessorPDF     Processor = "pdf"
	ProcessorUnknown Processor = "unknown"
)

// SupportedExtensions defines the allow-list for file extensions.
// We use a map for O(1) lookups.
var SupportedExtensions = map[string]bool{
	// Plain Text
	".txt":      true,
	".md":       true,
	".markdown": true,

	// PDF
	".pdf": true,
}

// IsSupported determines if a file should be processed based on its
// content (Magic Numbers) and its name (Extension).
func IsSupported(filename string, headerBytes []byte) bool {
	// 1. Get the file extension (lowercase)
	ext := strings.ToLower(filepath.Ext(filename))

	// If the extension isn't even on our list, reject immediately.
	// This saves us from trying to parse .exe or .iso files even if they mimic text.
	if !SupportedExtensions[ext] {
		return false
	}

	// 2. Sniff the MIME type from the first 512 bytes
	// Go's http.DetectContentType is reliable for binaries, less so for text.
	mime := http.DetectContentType(headerBytes)

	// CASE A: PDF (Very Reliable)
	if mime == "application/pdf" {
		return ext == ".pdf"
	}

	// CASE B: Plain Text / Markdown
	// Go says "text/plain; charset=utf-8".
	// We trust the extension map we checked in Step 1.
	if strings.HasPrefix(mime, "text/") {
		return ext != ".pdf"
	}

	// The file has a valid extension but the content didn't match what
	// we expected (e.g. a binary renamed to .txt).
	return false
}

// ProcessorType returns which parser to use for a filename.
func ProcessorType(filename string) Processor {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ProcessorPDF
	case ".md", ".markdown", ".txt":
		return ProcessorText
	default:
		return ProcessorUnknown
	}
}
