// Package query answers natural-language questions over the indexed
// corpus: retrieve the most relevant chunks, then hand them to a
// language model for answer generation.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GonzoDMX/docquery/internal/index"
	"github.com/GonzoDMX/docquery/internal/lifecycle"
)

var (
	// ErrNoDocuments is returned when the registry is empty. The
	// generation capability is never invoked in that case.
	ErrNoDocuments = errors.New("no documents have been indexed")

	// ErrRetryable marks transient failures (timeouts) that the caller
	// may retry.
	ErrRetryable = errors.New("retryable query failure")
)

// SupportedModels is the fixed set of model identifiers a caller may
// select. The credential itself is passed through unvalidated.
var SupportedModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-3.5-turbo",
}

// IsSupportedModel reports whether name is in the allowed set.
func IsSupportedModel(name string) bool {
	for _, m := range SupportedModels {
		if m == name {
			return true
		}
	}
	return false
}

// Generator is the opaque answer-generation capability.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Answer is the result of one question.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Engine wires retrieval to generation.
type Engine struct {
	mgr     *lifecycle.Manager
	idx     index.Store
	gen     Generator
	logger  *zap.Logger
	topK    int
	timeout time.Duration
}

// NewEngine builds a query engine. topK <= 0 defaults to 4 retrieved
// chunks; timeout <= 0 defaults to 60s per generation call.
func NewEngine(mgr *lifecycle.Manager, idx index.Store, gen Generator, logger *zap.Logger, topK int, timeout time.Duration) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = 4
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{mgr: mgr, idx: idx, gen: gen, logger: logger, topK: topK, timeout: timeout}
}

// Ask retrieves relevant passages and generates an answer. Reads may
// run concurrently with an in-flight mutation and tolerate a slightly
// stale snapshot; the persisted stores are never touched here.
func (e *Engine) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("question cannot be empty")
	}
	if e.mgr.Count() == 0 {
		return Answer{}, ErrNoDocuments
	}

	results, err := e.idx.Search(ctx, question, e.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieving passages: %w", err)
	}

	prompt := buildPrompt(question, results)

	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	text, err := e.gen.Generate(genCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Answer{}, fmt.Errorf("%w: generation timed out after %s", ErrRetryable, e.timeout)
		}
		return Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	sources := sourceFilenames(results)
	e.logger.Info("question answered",
		zap.Int("retrieved_chunks", len(results)),
		zap.Strings("sources", sources),
		zap.Duration("generation_time", time.Since(start)),
	)

	return Answer{Text: strings.TrimSpace(text), Sources: sources}, nil
}

func buildPrompt(question string, results []index.Result) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the answer, say so.\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "Context %d (from %s):\n%s\n\n", i+1, r.Chunk.Filename, r.Chunk.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

// sourceFilenames returns the distinct owning filenames of the results,
// preserving retrieval order.
func sourceFilenames(results []index.Result) []string {
	seen := make(map[string]struct{}, len(results))
	var out []string
	for _, r := range results {
		if _, ok := seen[r.Chunk.Filename]; ok {
			continue
		}
		seen[r.Chunk.Filename] = struct{}{}
		out = append(out, r.Chunk.Filename)
	}
	return out
}
