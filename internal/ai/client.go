package ai

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// EvidencePiece is one retrieved chunk handed to the synthesis model,
// carrying enough metadata for the model to attribute claims.
type EvidencePiece struct {
	Text       string
	SourceFile string
	Heading    string
	Score      float64
}

// Client provides both embedding and answer-synthesis capabilities.
type Client interface {
	Embed(text string) ([]float32, error)
	Synthesize(ctx context.Context, question string, evidence []EvidencePiece) (string, error)
	Dim() int
}

// Provider is enumeration of supported AI providers
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderStub   Provider = "stub"
)

// ClientConfig holds configuration for AI clients
type ClientConfig struct {
	APIKey      string
	EmbedModel  string
	AnswerModel string
	Dim         int
	ProjectID   string
	Location    string
	Provider    Provider
}

// NewClient creates a new AI client based on configuration
func NewClient(config *ClientConfig) (Client, error) {
	if config == nil {
		return nil, errors.New("client config is required")
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config), nil
	case ProviderGemini:
		return NewGeminiClient(context.Background(), config)
	case ProviderStub:
		return NewStubClient(config.Dim), nil
	default:
		return nil, errors.New("unsupported provider: " + string(config.Provider))
	}
}

// formatEvidence renders the evidence block shared by all providers. Each
// chunk is preceded by its source file and relevance so the model can cite
// files by name.
func formatEvidence(evidence []EvidencePiece) string {
	parts := make([]string, 0, len(evidence))
	for _, e := range evidence {
		parts = append(parts, fmt.Sprintf("--- Source: %s (relevance: %.2f) ---\n%s", e.SourceFile, e.Score, e.Text))
	}
	return strings.Join(parts, "\n\n")
}

// synthesisPrompt builds the single user prompt for answer synthesis.
func synthesisPrompt(question string, evidence []EvidencePiece) string {
	return "You are an AI documentation assistant for a custom component library. " +
		"Answer the question based ONLY on the provided documentation context.\n\n" +
		"Rules:\n" +
		"- Reference components by their markdown file name (e.g., \"calculator-component.md\")\n" +
		"- Be concise and direct\n" +
		"- If the context does not contain enough information, say so clearly\n\n" +
		"Context:\n" + formatEvidence(evidence) + "\n\n" +
		"Question: " + question
}

// StubClient is an offline implementation of the Client interface. Its
// embeddings are deterministic functions of the input text so tests and
// local runs behave the same from one invocation to the next.
type StubClient struct {
	dim int
}

// NewStubClient creates a new StubClient
func NewStubClient(dim int) *StubClient {
	if dim <= 0 {
		dim = 8
	}
	return &StubClient{dim: dim}
}

// Embed returns a deterministic L2-normalized vector derived from a hash of
// the input text.
func (s *StubClient) Embed(text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	v := make([]float32, s.dim)
	var norm float64
	for i := range v {
		word := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		v[i] = float32(word%1000)/500 - 1
		norm += float64(v[i]) * float64(v[i])
	}
	if norm == 0 {
		v[0] = 1
		return v, nil
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}
	return v, nil
}

// Synthesize produces a canned answer naming the evidence files.
func (s *StubClient) Synthesize(ctx context.Context, question string, evidence []EvidencePiece) (string, error) {
	files := make([]string, 0, len(evidence))
	seen := map[string]bool{}
	for _, e := range evidence {
		if !seen[e.SourceFile] {
			seen[e.SourceFile] = true
			files = append(files, e.SourceFile)
		}
	}
	return "Based on " + strings.Join(files, ", ") + ": see the referenced documentation.", nil
}

// Dim returns the embedding dimension
func (s *StubClient) Dim() int {
	return s.dim
}
