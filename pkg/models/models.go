package models

// Chunk is a retrievable unit of document text bound to one heading section.
type Chunk struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SourceFile string `json:"source_file"`
	Heading    string `json:"heading"`
}

// ScoredChunk pairs a chunk with its similarity score for one query. It is
// ephemeral and never persisted.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// EvidenceSet holds the chunks that passed the relevance threshold for a
// query, plus the distinct source files they span in first-seen order.
type EvidenceSet struct {
	Chunks []ScoredChunk `json:"chunks"`
	Files  []string      `json:"files"`
}

// Empty reports whether no chunk passed the threshold.
func (e EvidenceSet) Empty() bool {
	return len(e.Files) == 0
}

// QueryResult is the structured outcome of one query.
type QueryResult struct {
	Query              string   `json:"query"`
	Answer             string   `json:"answer"`
	Files              []string `json:"files"`
	FileCount          int      `json:"file_count"`
	TotalFilesSearched int      `json:"total_files_searched"`
	SearchTimeSeconds  float64  `json:"search_time_seconds"`
	IsEmpty            bool     `json:"is_empty"`
}
