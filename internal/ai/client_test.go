package ai

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		config   *ClientConfig
		wantType string
		wantErr  bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name:     "stub provider",
			config:   &ClientConfig{Provider: ProviderStub, Dim: 4},
			wantType: "*ai.StubClient",
		},
		{
			name:     "openai provider",
			config:   &ClientConfig{Provider: ProviderOpenAI, APIKey: "sk-test"},
			wantType: "*ai.OpenAIClient",
		},
		{
			name:    "unknown provider",
			config:  &ClientConfig{Provider: Provider("huggingface")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient returned error: %v", err)
			}
			if got := reflect.TypeOf(c).String(); got != tt.wantType {
				t.Errorf("client type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestNewOpenAIClient_Defaults(t *testing.T) {
	c := NewOpenAIClient(&ClientConfig{Provider: ProviderOpenAI, APIKey: "sk-test"})
	if c.config.EmbedModel == "" {
		t.Error("embed model default not applied")
	}
	if c.config.AnswerModel == "" {
		t.Error("answer model default not applied")
	}
	if c.Dim() != 1536 {
		t.Errorf("Dim = %d, want 1536 for the default embedding model", c.Dim())
	}

	large := NewOpenAIClient(&ClientConfig{Provider: ProviderOpenAI, APIKey: "sk-test", EmbedModel: "text-embedding-3-large"})
	if large.Dim() != 3072 {
		t.Errorf("Dim = %d, want 3072 for text-embedding-3-large", large.Dim())
	}
}

func TestStubClient_EmbedDeterministic(t *testing.T) {
	s := NewStubClient(6)

	a, err := s.Embed("calculator component")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Embed("calculator component")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("stub embedding is not deterministic for identical input")
	}
	if len(a) != 6 {
		t.Errorf("embedding length = %d, want 6", len(a))
	}

	var norm float64
	for _, x := range a {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Errorf("embedding not L2-normalized, norm = %f", math.Sqrt(norm))
	}

	other, err := s.Embed("completely different text")
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a, other) {
		t.Error("distinct inputs produced identical embeddings")
	}
}

func TestStubClient_Synthesize(t *testing.T) {
	s := NewStubClient(4)
	out, err := s.Synthesize(context.Background(), "what components exist?", []EvidencePiece{
		{Text: "## Usage\n\nuse it", SourceFile: "a.md", Heading: "## Usage", Score: 0.9},
		{Text: "## Setup\n\nset it up", SourceFile: "a.md", Heading: "## Setup", Score: 0.8},
		{Text: "## Intro\n\nhello", SourceFile: "b.md", Heading: "## Intro", Score: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "a.md") || !strings.Contains(out, "b.md") {
		t.Errorf("stub answer should name the evidence files, got %q", out)
	}
}

func TestFormatEvidence(t *testing.T) {
	out := formatEvidence([]EvidencePiece{
		{Text: "## Usage\n\nbody", SourceFile: "calc.md", Heading: "## Usage", Score: 0.87},
	})
	if !strings.Contains(out, "--- Source: calc.md (relevance: 0.87) ---") {
		t.Errorf("evidence header missing, got %q", out)
	}
	if !strings.Contains(out, "## Usage\n\nbody") {
		t.Errorf("chunk text missing, got %q", out)
	}
}

func TestSynthesisPrompt(t *testing.T) {
	p := synthesisPrompt("which component?", []EvidencePiece{
		{Text: "## A\n\nbody", SourceFile: "a.md", Score: 0.5},
	})
	if !strings.Contains(p, "Question: which component?") {
		t.Error("prompt missing the question")
	}
	if !strings.Contains(p, "ONLY on the provided documentation context") {
		t.Error("prompt missing the grounding instruction")
	}
	if !strings.Contains(p, "a.md") {
		t.Error("prompt missing the evidence block")
	}
}
