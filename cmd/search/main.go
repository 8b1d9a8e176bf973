package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/ai"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/answer"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/config"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/retriever"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/segmenter"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/store"
	"github.com/sairenchristianbuerano/ai-powered-search/pkg/models"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("aisearch", pflag.ExitOnError)
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

	ctx := context.Background()
	idx, err := openIndex(ctx, cfg, client.Dim())
	if err != nil {
		log.Fatalf("Failed to open index: %v", err)
	}
	defer idx.Close()

	svc := retriever.NewService(client, idx)
	asm := answer.NewAssembler(client)

	fmt.Println("\n=== AI-Powered Search ===")
	fmt.Println("Type your question and press Enter. Type \"exit\" to quit.")
	fmt.Println()

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Question: ")
		if !sc.Scan() {
			break
		}
		question := strings.TrimSpace(sc.Text())

		switch strings.ToLower(question) {
		case "exit", "quit":
			fmt.Println("Goodbye!")
			fmt.Println()
			return
		case "":
			continue
		}

		fmt.Println("\nSearching...")
		handleQuery(ctx, cfg, svc, asm, question)
	}
}

func handleQuery(ctx context.Context, cfg config.Specification, svc *retriever.Service, asm *answer.Assembler, question string) {
	totalFiles := segmenter.CountFiles(cfg.DocsDir)
	started := time.Now()

	platform := answer.DetectPlatform(question)

	ev, err := svc.Retrieve(ctx, question, cfg.TopK, cfg.Threshold)
	if err != nil {
		fmt.Printf("\n  Search failed: %v\n\n", err)
		return
	}

	res := asm.Respond(ctx, question, ev, totalFiles, started)
	printResult(res)

	if platform == "" {
		return
	}
	if res.IsEmpty {
		fmt.Println("  Unfortunately, we don't have that component for now, but you can")
		fmt.Printf("  build a custom component in %s using the Component Factory.\n\n", platform)
	} else {
		fmt.Println("  Tip: If the above components don't match your needs, you can build")
		fmt.Printf("  a custom component in %s using the Component Factory.\n\n", platform)
	}
}

func printResult(res models.QueryResult) {
	fmt.Println()
	fmt.Println("──────────────────────────────────────────────────")
	fmt.Printf("  Search Time    : %.2fs\n", res.SearchTimeSeconds)
	fmt.Printf("  Files Searched : %d md files\n", res.TotalFilesSearched)
	fmt.Printf("  Files Returned : %d md file(s)\n", res.FileCount)
	fmt.Println("──────────────────────────────────────────────────")

	if res.IsEmpty {
		fmt.Println("\n  No matching components found.")
		fmt.Println()
		fmt.Println("  Suggestion: You can build a custom component using the")
		fmt.Println("  Component Factory / Component Generator.")
		fmt.Println()
		return
	}

	fmt.Println("\n  Matched Files:")
	for _, f := range res.Files {
		fmt.Printf("    - %s\n", f)
	}
	fmt.Println("\n  AI Answer:")
	for _, line := range strings.Split(res.Answer, "\n") {
		fmt.Printf("    %s\n", line)
	}
	fmt.Println()
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
