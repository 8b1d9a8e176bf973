package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/ai"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/answer"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/config"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/retriever"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/segmenter"
	"github.com/sairenchristianbuerano/ai-powered-search/internal/store"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("aisearch-api", pflag.ExitOnError)
	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level '%s': %v", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	logger.Info().Str("provider", cfg.Provider).Str("index", cfg.Index).Str("log_level", cfg.LogLevel).Msg("starting aisearch api")

	client, err := ai.NewClient(clientConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to create AI client: %v", err)
	}
	logger.Info().Int("embedding_dim", client.Dim()).Msg("AI client initialized")

	ctx := context.Background()
	idx, err := openIndex(ctx, cfg, client.Dim())
	if err != nil {
		log.Fatalf("Failed to open index: %v", err)
	}
	defer idx.Close()

	svc := retriever.NewService(client, idx)
	asm := answer.NewAssembler(client)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			http.Error(w, "missing q parameter", http.StatusBadRequest)
			return
		}

		k := cfg.TopK
		if v := r.URL.Query().Get("k"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				k = n
			}
		}
		threshold := cfg.Threshold
		if v := r.URL.Query().Get("threshold"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				threshold = f
			}
		}

		started := time.Now()
		totalFiles := segmenter.CountFiles(cfg.DocsDir)

		ev, err := svc.Retrieve(r.Context(), q, k, threshold)
		if err != nil {
			// A failed search is not an empty one.
			hlog.FromRequest(r).Error().Err(err).Str("q", q).Msg("retrieval failed")
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}

		res := asm.Respond(r.Context(), q, ev, totalFiles, started)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			http.Error(w, "Failed to encode response", 500)
		}
		hlog.FromRequest(r).Info().Str("path", "/search").Str("q", q).Int("k", k).Bool("empty", res.IsEmpty).Dur("dur", time.Since(started)).Msg("served")
	})

	handler := hlog.NewHandler(logger)(
		hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
			hlog.FromRequest(r).Info().Int("status", status).Int("size", size).Dur("dur", dur).Str("path", r.URL.Path).Msg("request")
		})(mux),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info().Str("addr", addr).Msg("listening")
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
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
