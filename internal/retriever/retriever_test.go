package retriever

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/ai"
	"github.com/sairenchristianbuerano/ai-powered-search/pkg/models"
)

func init() {
	// Suppress logs during testing
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

// MockAIClient implements the ai.Client interface for testing
type MockAIClient struct {
	EmbedFunc      func(text string) ([]float32, error)
	SynthesizeFunc func(ctx context.Context, question string, evidence []ai.EvidencePiece) (string, error)
	DimFunc        func() int
}

func (m *MockAIClient) Embed(text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockAIClient) Synthesize(ctx context.Context, question string, evidence []ai.EvidencePiece) (string, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, question, evidence)
	}
	return "mock answer", nil
}

func (m *MockAIClient) Dim() int {
	if m.DimFunc != nil {
		return m.DimFunc()
	}
	return 3
}

// MockIndex implements the store.ChunkIndex interface for testing
type MockIndex struct {
	UpsertFunc func(ctx context.Context, c models.Chunk, vec []float32) error
	QueryFunc  func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error)
	CountFunc  func(ctx context.Context) (int, error)
}

func (m *MockIndex) Upsert(ctx context.Context, c models.Chunk, vec []float32) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, c, vec)
	}
	return nil
}

func (m *MockIndex) Query(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, vec, k)
	}
	return []models.ScoredChunk{}, nil
}

func (m *MockIndex) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockIndex) Close() {}

func scoredChunk(id, file string, score float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.Chunk{ID: id, SourceFile: file, Heading: "## " + id, Text: "text for " + id},
		Score: score,
	}
}

func TestService_Retrieve(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		k          int
		threshold  float64
		queryFunc  func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error)
		wantFiles  []string
		wantChunks int
	}{
		{
			name:      "threshold partitions results",
			query:     "calculator component",
			k:         10,
			threshold: 0.3,
			queryFunc: func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
				return []models.ScoredChunk{
					scoredChunk("a.md#usage", "a.md", 0.5),
					scoredChunk("b.md#intro", "b.md", 0.1),
				}, nil
			},
			wantFiles:  []string{"a.md"},
			wantChunks: 1,
		},
		{
			name:      "files deduplicated in first-seen order",
			query:     "forms",
			k:         10,
			threshold: 0.3,
			queryFunc: func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
				return []models.ScoredChunk{
					scoredChunk("b.md#setup", "b.md", 0.9),
					scoredChunk("a.md#usage", "a.md", 0.8),
					scoredChunk("b.md#api", "b.md", 0.7),
					scoredChunk("c.md#notes", "c.md", 0.29),
				}, nil
			},
			wantFiles:  []string{"b.md", "a.md"},
			wantChunks: 3,
		},
		{
			name:      "nothing passes threshold",
			query:     "unrelated",
			k:         10,
			threshold: 0.3,
			queryFunc: func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
				return []models.ScoredChunk{
					scoredChunk("a.md#usage", "a.md", 0.2),
				}, nil
			},
			wantFiles:  nil,
			wantChunks: 0,
		},
		{
			name:      "empty index",
			query:     "anything",
			k:         10,
			threshold: 0.3,
			queryFunc: func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
				return []models.ScoredChunk{}, nil
			},
			wantFiles:  nil,
			wantChunks: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&MockAIClient{}, &MockIndex{QueryFunc: tt.queryFunc})

			ev, err := svc.Retrieve(context.Background(), tt.query, tt.k, tt.threshold)
			if err != nil {
				t.Fatalf("Retrieve returned error: %v", err)
			}
			if !reflect.DeepEqual(ev.Files, tt.wantFiles) {
				t.Errorf("files = %v, want %v", ev.Files, tt.wantFiles)
			}
			if len(ev.Chunks) != tt.wantChunks {
				t.Errorf("chunk count = %d, want %d", len(ev.Chunks), tt.wantChunks)
			}
			for _, sc := range ev.Chunks {
				if sc.Score < tt.threshold {
					t.Errorf("chunk %s below threshold made it into the evidence set (score %f)", sc.Chunk.ID, sc.Score)
				}
			}
			if ev.Empty() != (len(tt.wantFiles) == 0) {
				t.Errorf("Empty() = %v with files %v", ev.Empty(), ev.Files)
			}
		})
	}
}

func TestService_Retrieve_EmbedFailure(t *testing.T) {
	cause := errors.New("model unavailable")
	svc := NewService(
		&MockAIClient{EmbedFunc: func(text string) ([]float32, error) { return nil, cause }},
		&MockIndex{QueryFunc: func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
			t.Fatal("index must not be queried when embedding fails")
			return nil, nil
		}},
	)

	_, err := svc.Retrieve(context.Background(), "q", 10, 0.3)
	var rerr *RetrievalError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RetrievalError, got %v", err)
	}
	if rerr.Op != "embed query" {
		t.Errorf("Op = %q, want embed query", rerr.Op)
	}
	if !errors.Is(err, cause) {
		t.Error("RetrievalError should wrap the embedding failure")
	}
}

func TestService_Retrieve_IndexFailure(t *testing.T) {
	cause := errors.New("index unreadable")
	svc := NewService(
		&MockAIClient{},
		&MockIndex{QueryFunc: func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
			return nil, cause
		}},
	)

	_, err := svc.Retrieve(context.Background(), "q", 10, 0.3)
	var rerr *RetrievalError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RetrievalError, got %v", err)
	}
	if rerr.Op != "index query" {
		t.Errorf("Op = %q, want index query", rerr.Op)
	}
	if !errors.Is(err, cause) {
		t.Error("RetrievalError should wrap the index failure")
	}
}

func TestService_Retrieve_DefaultFanOut(t *testing.T) {
	var gotK int
	svc := NewService(
		&MockAIClient{},
		&MockIndex{QueryFunc: func(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
			gotK = k
			return []models.ScoredChunk{}, nil
		}},
	)

	if _, err := svc.Retrieve(context.Background(), "q", 0, 0.3); err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if gotK != DefaultK {
		t.Errorf("k = %d, want default %d", gotK, DefaultK)
	}
}
