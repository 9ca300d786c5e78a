package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/barback/internal/catalog"
	"github.com/ziadkadry99/barback/internal/config"
	"github.com/ziadkadry99/barback/internal/db"
	"github.com/ziadkadry99/barback/internal/dialogue"
	"github.com/ziadkadry99/barback/internal/embeddings"
	"github.com/ziadkadry99/barback/internal/generation"
	"github.com/ziadkadry99/barback/internal/llm"
	"github.com/ziadkadry99/barback/internal/matcher"
	"github.com/ziadkadry99/barback/internal/vectordb"
)

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		preset := config.GetPreset(provider, cfg.Quality)
		model = preset.EmbeddingModel
	}

	switch provider {
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, os.Getenv("OLLAMA_HOST")), nil
	default:
		// Anthropic has no embeddings API; OpenAI serves every other provider.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings (embedding provider %s)", provider)
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	}
}

// createLLMProviderFromConfig creates an LLM provider based on config settings.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	model := cfg.Model
	if model == "" {
		model = config.GetPreset(cfg.Provider, cfg.Quality).Model
	}
	p, err := llm.NewProvider(llm.ProviderConfig{
		Type:    string(cfg.Provider),
		Model:   model,
		APIKey:  os.Getenv(config.APIKeyEnvVar(cfg.Provider)),
		BaseURL: os.Getenv("OLLAMA_HOST"),
	})
	if err != nil {
		if env := config.APIKeyEnvVar(cfg.Provider); env != "" && os.Getenv(env) == "" {
			return nil, fmt.Errorf("%w (set %s)", err, env)
		}
		return nil, err
	}
	return llm.NewRateLimitedProvider(p, cfg.RequestsPerMinute), nil
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `barback init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// app holds the components shared by the server, chat and recommend commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *db.DB
	catalog  *catalog.Store
	embedder embeddings.Embedder
	index    *vectordb.ChromemStore
	matcher  *matcher.Matcher
}

// openApp opens the database and loads the drink index.
func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store := catalog.NewStore(database)
	index, err := loadIndex(ctx, cfg, store, logger)
	if err != nil {
		database.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       database,
		catalog:  store,
		embedder: embedder,
		index:    index,
		matcher:  matcher.New(index, embedder, cfg.Dialogue.TopK),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// engine assembles the dialogue engine on top of the configured provider.
func (a *app) engine() (*dialogue.Engine, error) {
	provider, err := createLLMProviderFromConfig(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	gateway, err := generation.New(provider, generation.Options{
		MaxAttempts: a.cfg.Dialogue.MaxAttempts,
		MaxOptions:  a.cfg.Dialogue.MaxOptions,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, err
	}
	return dialogue.NewEngine(gateway, a.matcher, dialogue.Options{
		Thresholds: dialogue.Thresholds{
			Moods:       a.cfg.Dialogue.MoodThreshold,
			Ingredients: a.cfg.Dialogue.IngredientThreshold,
		},
		Logger: a.logger,
	}), nil
}

func indexDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "index")
}

// loadIndex restores the persisted drink index, rebuilding it from the
// catalog when the file is missing or out of step with the catalog.
func loadIndex(ctx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*vectordb.ChromemStore, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting catalog: %w", err)
	}

	index, err := vectordb.NewChromemStore()
	if err != nil {
		return nil, fmt.Errorf("creating drink index: %w", err)
	}
	if err := index.Load(ctx, indexDir(cfg)); err == nil && index.Count() == count {
		logger.Debug("drink index loaded", "drinks", count)
		return index, nil
	}

	return rebuildIndex(ctx, cfg, store, logger)
}

// rebuildIndex indexes every embedded drink and persists the result.
func rebuildIndex(ctx context.Context, cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*vectordb.ChromemStore, error) {
	index, err := vectordb.NewChromemStore()
	if err != nil {
		return nil, fmt.Errorf("creating drink index: %w", err)
	}
	skipped, err := matcher.BuildIndex(ctx, store, index)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logger.Warn("drinks without embeddings left out of the index; run `barback catalog import` again", "skipped", skipped)
	}

	if index.Count() > 0 {
		dir := indexDir(cfg)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn("could not create index directory", "dir", dir, "error", err)
		} else if err := index.Persist(ctx, dir); err != nil {
			logger.Warn("could not persist drink index", "dir", dir, "error", err)
		}
	}
	logger.Debug("drink index rebuilt", "drinks", index.Count())
	return index, nil
}
