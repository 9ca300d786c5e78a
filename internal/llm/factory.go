package llm

import "fmt"

// DefaultOllamaURL is used when an Ollama provider has no base URL.
const DefaultOllamaURL = "http://localhost:11434"

// ProviderConfig selects and configures a provider. APIKey is required by
// the hosted providers; BaseURL only applies to Ollama.
type ProviderConfig struct {
	Type    string
	Model   string
	APIKey  string
	BaseURL string
}

// NewProvider creates the provider named by cfg.Type: "openai",
// "anthropic" or "ollama".
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "openai", "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s provider needs an API key", cfg.Type)
		}
		if cfg.Type == "openai" {
			return NewOpenAIProvider(cfg.APIKey, cfg.Model), nil
		}
		return NewAnthropicProvider(cfg.APIKey, cfg.Model), nil
	case "ollama":
		base := cfg.BaseURL
		if base == "" {
			base = DefaultOllamaURL
		}
		return NewOllamaProvider(base, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}
