package store

import (
	"context"
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sairenchristianbuerano/ai-powered-search/pkg/models"
)

const localIndexFile = "index.gob"

// localRecord is one persisted (vector, payload) entry.
type localRecord struct {
	Chunk  models.Chunk
	Vector []float32
}

// localSnapshot is the on-disk layout of the index file.
type localSnapshot struct {
	Records map[string]localRecord
	Order   []string
}

// LocalIndex is a file-backed ChunkIndex rooted at a fixed directory. The
// index file is created lazily on first use; each upsert persists the whole
// snapshot with an atomic tmp+rename so a partial write never corrupts the
// prior state. Reads hold only a shared lock.
type LocalIndex struct {
	root string

	mu      sync.RWMutex
	records map[string]localRecord
	order   []string
	loaded  bool
}

// NewLocalIndex creates a LocalIndex rooted at dir. The directory and index
// file are not touched until the first operation.
func NewLocalIndex(dir string) *LocalIndex {
	return &LocalIndex{root: dir}
}

func (l *LocalIndex) path() string {
	return filepath.Join(l.root, localIndexFile)
}

// load reads the snapshot from disk once. A missing file means an empty,
// not-yet-created index.
func (l *LocalIndex) load() error {
	if l.loaded {
		return nil
	}
	l.records = map[string]localRecord{}
	l.order = nil
	l.loaded = true

	f, err := os.Open(l.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var snap localSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return err
	}
	l.records = snap.Records
	l.order = snap.Order
	return nil
}

func (l *LocalIndex) save() error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return err
	}

	tmp := l.path() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(localSnapshot{Records: l.records, Order: l.order}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, l.path())
}

// Upsert inserts or replaces the record for c.ID and persists the index.
func (l *LocalIndex) Upsert(ctx context.Context, c models.Chunk, vec []float32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.load(); err != nil {
		return err
	}
	if _, exists := l.records[c.ID]; !exists {
		l.order = append(l.order, c.ID)
	}
	v := make([]float32, len(vec))
	copy(v, vec)
	l.records[c.ID] = localRecord{Chunk: c, Vector: v}
	return l.save()
}

// Query scans all records for the k nearest by cosine similarity.
func (l *LocalIndex) Query(ctx context.Context, vec []float32, k int) ([]models.ScoredChunk, error) {
	l.mu.Lock()
	if err := l.load(); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	l.mu.Unlock()

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.ScoredChunk, 0, len(l.records))
	for _, id := range l.order {
		rec := l.records[id]
		out = append(out, models.ScoredChunk{
			Chunk: rec.Chunk,
			Score: cosineSimilarity(vec, rec.Vector),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out, nil
}

// Count returns the number of indexed chunks.
func (l *LocalIndex) Count(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return 0, err
	}
	return len(l.records), nil
}

func (l *LocalIndex) Close() {}

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is degenerate.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
