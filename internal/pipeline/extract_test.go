package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	text, err := ExtractBytes([]byte("hello world\nsecond line"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world\nsecond line", text)
}

func TestExtractMarkdownAsText(t *testing.T) {
	text, err := ExtractBytes([]byte("# Title\n\nbody"), "readme.md")
	require.NoError(t, err)
	assert.Contains(t, text, "# Title")
}

func TestExtractRejectsEmptyText(t *testing.T) {
	_, err := ExtractBytes([]byte("   \n\t  "), "blank.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}

func TestExtractRejectsInvalidUTF8(t *testing.T) {
	_, err := ExtractBytes([]byte{0xff, 0xfe, 0x00, 0x01}, "binary.txt")
	require.Error(t, err)
}

func TestExtractRejectsUnsupportedType(t *testing.T) {
	_, err := ExtractBytes([]byte("content"), "archive.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestExtractRejectsMalformedPDF(t *testing.T) {
	_, err := ExtractBytes([]byte("%PDF-1.4 this is not a real pdf"), "broken.pdf")
	require.Error(t, err)
}

func TestExtractRejectsOversizedInput(t *testing.T) {
	_, err := ExtractBytes(make([]byte, MaxFileSize+1), "huge.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size limit")
}

func TestCreateSubChunksEmpty(t *testing.T) {
	assert.Empty(t, CreateSubChunks("", 400, 50))
	assert.Empty(t, CreateSubChunks("   ", 400, 50))
}

func TestCreateSubChunksSingleWindow(t *testing.T) {
	chunks := CreateSubChunks("just a few tokens here", 400, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a few tokens here", chunks[0].Text)
}

func TestCreateSubChunksOverlappingWindows(t *testing.T) {
	words := make([]string, 100)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	chunks := CreateSubChunks(text, 40, 10)
	require.Greater(t, len(chunks), 1)

	// Windows advance by maxTokens-overlap, so consecutive chunks
	// share text.
	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i].StartCharIdx, chunks[i-1].EndCharIdx,
			"chunk %d should overlap its predecessor", i)
	}

	// The last chunk reaches the end of the text.
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndCharIdx)
}

func TestCreateSubChunksDefaults(t *testing.T) {
	// Non-positive window falls back to a safe default instead of
	// looping forever.
	chunks := CreateSubChunks("alpha beta gamma", 0, 0)
	require.Len(t, chunks, 1)
}
