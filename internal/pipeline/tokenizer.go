package pipeline

import (
	"regexp"
)

// tokenRegex splits text into words (keeping hyphen/underscore compounds
// together) or single non-space symbols.
var tokenRegex = regexp.MustCompile(`\w+(?:[-_]\w+)*|\S`)

// SubChunk represents a slice of extracted text prepared for embedding.
type SubChunk struct {
	Text         string
	StartCharIdx int // Where this subchunk starts in the parent text
	EndCharIdx   int
}

// CreateSubChunks splits a large string into overlapping chunks based on
// TOKEN count, so every piece fits the embedding model's context window.
func CreateSubChunks(text string, maxTokens int, overlap int) []SubChunk {
	if maxTokens <= 0 {
		maxTokens = 400 // Safe default
	}
	if overlap >= maxTokens {
		overlap = maxTokens / 10
	}

	// FindAllStringIndex returns [[start, end], [start, end], ...]
	tokenIndices := tokenRegex.FindAllStringIndex(text, -1)
	if len(tokenIndices) == 0 {
		return []SubChunk{}
	}

	var chunks []SubChunk
	totalTokens := len(tokenIndices)
	step := maxTokens - overlap

	for i := 0; i < totalTokens; i += step {
		end := i + maxTokens
		if end > totalTokens {
			end = totalTokens
		}

		startByte := tokenIndices[i][0]
		endByte := tokenIndices[end-1][1]

		chunks = append(chunks, SubChunk{
			Text:         text[startByte:endByte],
			StartCharIdx: startByte,
			EndCharIdx:   endByte,
		})

		if end == totalTokens {
			break
		}
	}

	return chunks
}
