// Package retriever turns a free-text question into a bounded, deduplicated
// evidence set: embed the query, fan out to the index, drop everything below
// the relevance threshold, collect the distinct source files.
package retriever

import (
	"context"
	"strings"

	"github.com/sairenchristianbuerano/ai-powered-search/internal/ai"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/store"
	"github.com/sairenchristianbuerano/ai-powered-search/pkg/models"
)

const (
	// DefaultK is the index fan-out before thresholding, intentionally
	// larger than the number of chunks expected to survive the filter.
	DefaultK = 10

	// DefaultThreshold is the minimum cosine similarity for a chunk to
	// count as evidence.
	DefaultThreshold = 0.3
)

// RetrievalError wraps an embedding or index failure during a query so
// callers can tell a failed search apart from a search that found nothing.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return "retrieval: " + e.Op + ": " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Service performs retrieval against an AI client and a chunk index.
type Service struct {
	Client ai.Client
	Index  store.ChunkIndex
}

// NewService creates a new retrieval service with the provided AI client and index
func NewService(client ai.Client, index store.ChunkIndex) *Service {
	return &Service{
		Client: client,
		Index:  index,
	}
}

// Retrieve embeds q once, queries the index for the k nearest chunks, and
// keeps only those scoring at or above threshold. An empty evidence set is
// a normal outcome; a *RetrievalError is not.
func (s *Service) Retrieve(ctx context.Context, q string, k int, threshold float64) (models.EvidenceSet, error) {
	q = strings.TrimSpace(q)
	if k <= 0 {
		k = DefaultK
	}

	vec, err := s.Client.Embed(q)
	if err != nil {
		return models.EvidenceSet{}, &RetrievalError{Op: "embed query", Err: err}
	}

	scored, err := s.Index.Query(ctx, vec, k)
	if err != nil {
		return models.EvidenceSet{}, &RetrievalError{Op: "index query", Err: err}
	}

	ev := models.EvidenceSet{}
	seen := map[string]bool{}
	for _, sc := range scored {
		if sc.Score < threshold {
			continue
		}
		ev.Chunks = append(ev.Chunks, sc)
		if !seen[sc.Chunk.SourceFile] {
			seen[sc.Chunk.SourceFile] = true
			ev.Files = append(ev.Files, sc.Chunk.SourceFile)
		}
	}
	return ev, nil
}
