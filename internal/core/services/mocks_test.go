package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// --- Mock implementations ---

// vocabEmbedder implements driven.EmbeddingService with a bag-of-words
// embedding, so texts sharing words are close in cosine space. Words get
// dimensions in first-seen order.
type vocabEmbedder struct {
	mu       sync.Mutex
	dims     int
	vocab    map[string]int
	model    string
	calls    [][]string
	embedErr error
	short    bool
}

func newVocabEmbedder() *vocabEmbedder {
	return &vocabEmbedder{dims: 64, model: "vocab-embed", vocab: make(map[string]int)}
}

func (m *vocabEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string(nil), texts...))

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, m.embed(text))
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// vector embeds text without recording a call.
func (m *vocabEmbedder) vector(text string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embed(text)
}

func (m *vocabEmbedder) embed(text string) []float32 {
	vec := make([]float32, m.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		i, ok := m.vocab[w]
		if !ok {
			i = len(m.vocab) % m.dims
			m.vocab[w] = i
		}
		vec[i]++
	}
	return vec
}

func (m *vocabEmbedder) ModelName() string           { return m.model }
func (m *vocabEmbedder) Ping(_ context.Context) error { return nil }
func (m *vocabEmbedder) Close() error                 { return nil }

func (m *vocabEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockCompletion implements driven.CompletionService for testing.
type mockCompletion struct {
	prompts  []string
	answer   func(prompt string) string
	complErr error
}

func (m *mockCompletion) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.complErr != nil {
		return "", m.complErr
	}
	if m.answer != nil {
		return m.answer(prompt), nil
	}
	return "mock answer", nil
}

func (m *mockCompletion) ModelName() string           { return "mock-llm" }
func (m *mockCompletion) Ping(_ context.Context) error { return nil }
func (m *mockCompletion) Close() error                 { return nil }

// mockTracer implements driven.Tracer for testing.
type mockTracer struct {
	records  []domain.TraceRecord
	traceErr error
	panicMsg string
}

func (m *mockTracer) Trace(_ context.Context, rec domain.TraceRecord) error {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.records = append(m.records, rec)
	return m.traceErr
}

func (m *mockTracer) Close() error { return nil }

// mockSource implements driven.DocumentSource for testing.
type mockSource struct {
	docs    []domain.SourceDocument
	listErr error
}

func (m *mockSource) Names(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, len(m.docs))
	for i, d := range m.docs {
		names[i] = d.Name
	}
	return names, nil
}

func (m *mockSource) List(_ context.Context) ([]domain.SourceDocument, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.docs, nil
}

// mockSearch implements driving.SearchService for testing.
type mockSearch struct {
	hits      domain.RetrievalResult
	searchErr error
	lastTopK  int
}

func (m *mockSearch) Search(_ context.Context, _ string, topK int) (domain.RetrievalResult, error) {
	m.lastTopK = topK
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

// mockAnswerer implements driving.AnswerService for testing.
type mockAnswerer struct {
	requests  []domain.AnswerRequest
	answer    string
	answerErr error
}

func (m *mockAnswerer) Answer(_ context.Context, req domain.AnswerRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.answerErr != nil {
		return "", m.answerErr
	}
	return m.answer, nil
}

// lineSplitter implements driven.Splitter by splitting on newlines.
type lineSplitter struct{}

func (lineSplitter) Split(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

var errBoom = errors.New("boom")
