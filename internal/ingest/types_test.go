package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupported(t *testing.T) {
	pdfHeader := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3")

	tests := []struct {
		name     string
		filename string
		header   []byte
		want     bool
	}{
		{"plain text", "notes.txt", []byte("hello world"), true},
		{"markdown", "readme.md", []byte("# Title"), true},
		{"pdf", "paper.pdf", pdfHeader, true},
		{"disallowed extension", "binary.exe", []byte("MZ"), false},
		{"docx not supported", "report.docx", []byte("PK\x03\x04"), false},
		{"text renamed to pdf", "fake.pdf", []byte("just plain text"), false},
		{"binary renamed to txt", "fake.txt", []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupported(tt.filename, tt.header))
		})
	}
}

func TestProcessorType(t *testing.T) {
	assert.Equal(t, ProcessorText, ProcessorType("a.txt"))
	assert.Equal(t, ProcessorText, ProcessorType("a.MD"))
	assert.Equal(t, ProcessorPDF, ProcessorType("a.pdf"))
	assert.Equal(t, ProcessorUnknown, ProcessorType("a.docx"))
	assert.Equal(t, ProcessorUnknown, ProcessorType("noext"))
}
