package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/ai"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/config"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/segmenter"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/store"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("aisearch-ingest", pflag.ExitOnError)
	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level '%s': %v", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	client, err := ai.NewClient(clientConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}
	if client.Dim() == 0 {
		log.Fatal("embedding dimension must be set")
	}

	ctx := context.Background()
	idx, err := openIndex(ctx, cfg, client.Dim())
	if err != nil {
		log.Fatalf("Failed to open index: %v", err)
	}
	defer idx.Close()

	fmt.Printf("\nReading markdown files from: %s\n\n", cfg.DocsDir)

	chunks, files, err := segmenter.SegmentAll(cfg.DocsDir)
	if err != nil {
		log.Fatalf("Failed to segment documents: %v", err)
	}
	if len(chunks) == 0 {
		fmt.Printf("No markdown chunks found. Add .md files to %s and try again.\n", cfg.DocsDir)
		return
	}

	// Per-file chunk counts, in first-seen order.
	counts := map[string]int{}
	var order []string
	for _, c := range chunks {
		if counts[c.SourceFile] == 0 {
			order = append(order, c.SourceFile)
		}
		counts[c.SourceFile]++
	}
	for _, f := range order {
		fmt.Printf("  %s: %d chunks\n", f, counts[f])
	}

	fmt.Printf("\nIngesting %d chunks from %d files into the vector index...\n\n", len(chunks), files)

	bar := progressbar.NewOptions(len(chunks),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	for _, c := range chunks {
		vec, err := client.Embed(c.Text)
		if err != nil {
			log.Fatalf("Embedding failed for %s: %v", c.ID, err)
		}
		if err := idx.Upsert(ctx, c, vec); err != nil {
			log.Fatalf("Upsert failed for %s: %v", c.ID, err)
		}
		_ = bar.Add(1)
	}

	fmt.Printf("\nDone! %d chunks ingested successfully.\n\n", len(chunks))
}

func clientConfig(cfg config.Specification) *ai.ClientConfig {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return &ai.ClientConfig{
			APIKey:      cfg.APIKey,
			EmbedModel:  cfg.EmbedModel,
			AnswerModel: cfg.AnswerModel,
			Dim:         cfg.Dim,
			ProjectID:   cfg.ProjectID,
			Provider:    ai.ProviderOpenAI,
		}
	case "gemini", "vertexai", "google":
		return &ai.ClientConfig{
			APIKey:      cfg.APIKey,
			EmbedModel:  cfg.EmbedModel,
			AnswerModel: cfg.AnswerModel,
			Dim:         cfg.Dim,
			ProjectID:   cfg.ProjectID,
			Location:    cfg.Location,
			Provider:    ai.ProviderGemini,
		}
	case "stub":
		return &ai.ClientConfig{
			Dim:      cfg.Dim,
			Provider: ai.ProviderStub,
		}
	default:
		log.Fatalf("unsupported provider: %s", cfg.Provider)
		return nil
	}
}

func openIndex(ctx context.Context, cfg config.Specification, dim int) (store.ChunkIndex, error) {
	if strings.ToLower(cfg.Index) == "pgvector" {
		st, err := store.New(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx, dim); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
	return store.NewLocalIndex(cfg.IndexPath), nil
}
