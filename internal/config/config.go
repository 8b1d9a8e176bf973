package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Specification struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"providerApiKey" envconfig:"PROVIDER_API_KEY"`
	EmbedModel  string  `yaml:"providerEmbedModel" envconfig:"PROVIDER_EMBEDDING_MODEL"`
	AnswerModel string  `yaml:"providerAnswerModel" envconfig:"PROVIDER_ANSWER_MODEL"`
	ProjectID   string  `yaml:"providerProjectID" envconfig:"PROVIDER_PROJECT_ID"`
	Location    string  `yaml:"providerLocation" envconfig:"PROVIDER_LOCATION"`
	Dim         int     `yaml:"providerDim" envconfig:"EMBED_DIM"`
	Index       string  `yaml:"index" split_words:"true"`
	IndexPath   string  `yaml:"indexPath" split_words:"true"`
	Database    string  `yaml:"database" envconfig:"DB_URL"`
	DocsDir     string  `yaml:"docsDir" split_words:"true"`
	TopK        int     `yaml:"topK" envconfig:"TOP_K"`
	Threshold   float64 `yaml:"threshold"`
	LogLevel    string  `yaml:"logLevel" split_words:"true"`
	Port        int     `yaml:"port" split_words:"true"`

	flags *pflag.FlagSet `ignored:"true"`
}

const envPrefix = "AISEARCH"

func (s *Specification) Usage() {
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// Load => defaults < YAML < env < flags.
// configPath may be ""; if so we auto-discover.
func Load(configPath string, fs *pflag.FlagSet) (Specification, error) {
	var cfg Specification

	// set defaults (lowest precedence)
	setDefaults(&cfg)
	bindFlags(fs, &cfg)

	// config file
	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"config/aisearch.yaml",
				"config/config.yaml",
				"./aisearch.yaml",
				"./config.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	// env overrides config file
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	// flags override everything
	if err := fs.Parse(os.Args[1:]); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	// Minimal sanity
	switch strings.ToLower(cfg.Index) {
	case "local":
		if strings.TrimSpace(cfg.IndexPath) == "" {
			return Specification{}, fmt.Errorf("AISEARCH_INDEX_PATH is required for the local index")
		}
	case "pgvector":
		if strings.TrimSpace(cfg.Database) == "" {
			return Specification{}, fmt.Errorf("AISEARCH_DB_URL is required for the pgvector index")
		}
	default:
		return Specification{}, fmt.Errorf("unsupported index backend: %s", cfg.Index)
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// ---------- helpers ----------

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification) {
	fs.String("config", "", "Path to config file")

	// If --config is provided on the command line, capture it now so
	// config discovery (which runs before flags.Parse) can use it.
	for i, a := range os.Args {
		if a == "--config" {
			if i+1 < len(os.Args) && !strings.HasPrefix(os.Args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", os.Args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.String("provider", c.Provider, "Provider (stub, openai, gemini)")
	fs.String("provider-api-key", c.APIKey, "Provider API key")
	fs.String("provider-embedding-model", c.EmbedModel, "Provider embedding model")
	fs.String("provider-answer-model", c.AnswerModel, "Provider answer-synthesis model")
	fs.String("provider-project-id", c.ProjectID, "Provider project ID")
	fs.String("provider-location", c.Location, "Provider location/region")

	fs.Int("embed-dim", c.Dim, "Embedding dimensionality")

	fs.String("index", c.Index, "Vector index backend (local|pgvector)")
	fs.String("index-path", c.IndexPath, "Root path of the local vector index")
	fs.String("db-url", c.Database, "Database URL (DSN) for the pgvector index")

	fs.String("docs-dir", c.DocsDir, "Directory holding markdown documents")
	fs.Int("top-k", c.TopK, "Nearest neighbors requested before thresholding")
	fs.Float64("threshold", c.Threshold, "Minimum similarity score for evidence")

	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")
	fs.Int("port", c.Port, "API server port")

	// Used later for usage/help
	// create a shallow copy of fs (so Usage can be called safely without mutating caller)
	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}
	setFloat := func(name string, dst *float64) {
		if fs.Changed(name) {
			v, _ := fs.GetFloat64(name)
			*dst = v
		}
	}

	// (We ignore --config here; it's for discovery.)
	setStr("provider", &c.Provider)
	setStr("provider-api-key", &c.APIKey)
	setStr("provider-embedding-model", &c.EmbedModel)
	setStr("provider-answer-model", &c.AnswerModel)
	setStr("provider-project-id", &c.ProjectID)
	setStr("provider-location", &c.Location)

	setInt("embed-dim", &c.Dim)

	setStr("index", &c.Index)
	setStr("index-path", &c.IndexPath)
	setStr("db-url", &c.Database)

	setStr("docs-dir", &c.DocsDir)
	setInt("top-k", &c.TopK)
	setFloat("threshold", &c.Threshold)

	setStr("log-level", &c.LogLevel)
	setInt("port", &c.Port)
}

func setDefaults(c *Specification) {
	c.Provider = "stub"
	c.Index = "local"
	c.IndexPath = "data/vectorstore"
	c.DocsDir = "docs/md"
	c.TopK = 10
	c.Threshold = 0.3
	c.LogLevel = "info"
	c.Location = "us-central1"
	c.Dim = 0
	c.Port = 8080
}
