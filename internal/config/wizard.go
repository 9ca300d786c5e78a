package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to barback! Let's set up your bar.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   (gpt-4o-mini / haiku)",
			"normal (gpt-4o / sonnet)",
			"max    (gpt-4.1 / opus)",
		},
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	cfg.Quality = tiers[qualityIdx]

	preset := GetPreset(cfg.Provider, cfg.Quality)
	cfg.Model = preset.Model
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)
	cfg.EmbeddingModel = preset.EmbeddingModel

	// 3. Checkpoint backend.
	backendPrompt := promptui.Select{
		Label: "Where should conversations be kept between turns",
		Items: []string{string(BackendSQLite), string(BackendRedis), string(BackendMemory)},
	}
	_, backendStr, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("checkpoint backend: %w", err)
	}
	cfg.Checkpoint.Backend = CheckpointBackend(backendStr)

	if cfg.Checkpoint.Backend == BackendRedis {
		addrPrompt := promptui.Prompt{
			Label:   "Redis address",
			Default: cfg.Checkpoint.RedisAddr,
		}
		if cfg.Checkpoint.RedisAddr, err = addrPrompt.Run(); err != nil {
			return nil, fmt.Errorf("redis address: %w", err)
		}
	}

	// 4. Convergence thresholds.
	moodPrompt := promptui.Prompt{
		Label:    "Moods to learn before recommending (threshold, strictly exceeded)",
		Default:  strconv.Itoa(cfg.Dialogue.MoodThreshold),
		Validate: validateNonNegative,
	}
	moodStr, err := moodPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mood threshold: %w", err)
	}
	cfg.Dialogue.MoodThreshold, _ = strconv.Atoi(moodStr)

	ingredientPrompt := promptui.Prompt{
		Label:    "Ingredients to learn before recommending (threshold, strictly exceeded)",
		Default:  strconv.Itoa(cfg.Dialogue.IngredientThreshold),
		Validate: validateNonNegative,
	}
	ingredientStr, err := ingredientPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("ingredient threshold: %w", err)
	}
	cfg.Dialogue.IngredientThreshold, _ = strconv.Atoi(ingredientStr)

	// Check for API keys.
	for _, p := range []ProviderType{cfg.Provider, cfg.EmbeddingProvider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running barback.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a given
// LLM provider. Anthropic has no embeddings API, so OpenAI is used for it.
func embeddingProviderFor(p ProviderType) ProviderType {
	if p == ProviderOllama {
		return ProviderOllama
	}
	return ProviderOpenAI
}

func validateNonNegative(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if n < 0 {
		return fmt.Errorf("must be zero or more")
	}
	return nil
}
