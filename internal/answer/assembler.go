// Package answer assembles the final query result from an evidence set,
// invoking external synthesis only when there is evidence to ground it.
package answer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/ai"
	"github.com/sairenchristianbuerano/ai-powered-search/pkg/models"
)

// Assembler builds QueryResults. It owns the one deliberately-recovered
// error class: a failed synthesis degrades to a tagged answer string while
// the matched file list is still delivered.
type Assembler struct {
	Client ai.Client
}

// NewAssembler creates an Assembler backed by the given AI client.
func NewAssembler(client ai.Client) *Assembler {
	return &Assembler{Client: client}
}

// Respond produces the terminal result for one query. With empty evidence
// no synthesis is attempted and IsEmpty is set; otherwise the evidence is
// handed to the synthesis model along with each chunk's score, file and
// heading. Elapsed time covers everything since started and is
// observational only.
func (a *Assembler) Respond(ctx context.Context, question string, ev models.EvidenceSet, totalFiles int, started time.Time) models.QueryResult {
	if ev.Empty() {
		return models.QueryResult{
			Query:              question,
			Answer:             "",
			Files:              []string{},
			FileCount:          0,
			TotalFilesSearched: totalFiles,
			SearchTimeSeconds:  time.Since(started).Seconds(),
			IsEmpty:            true,
		}
	}

	pieces := make([]ai.EvidencePiece, 0, len(ev.Chunks))
	for _, sc := range ev.Chunks {
		pieces = append(pieces, ai.EvidencePiece{
			Text:       sc.Chunk.Text,
			SourceFile: sc.Chunk.SourceFile,
			Heading:    sc.Chunk.Heading,
			Score:      sc.Score,
		})
	}

	text, err := a.Client.Synthesize(ctx, question, pieces)
	if err != nil {
		log.Warn().Err(err).Msg("synthesis failed, returning matched files without an answer")
		text = "[synthesis error: " + err.Error() + "]"
	}

	return models.QueryResult{
		Query:              question,
		Answer:             text,
		Files:              ev.Files,
		FileCount:          len(ev.Files),
		TotalFilesSearched: totalFiles,
		SearchTimeSeconds:  time.Since(started).Seconds(),
		IsEmpty:            false,
	}
}
