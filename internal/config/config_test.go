package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.Provider)
	}
	if cfg.Dialogue.MoodThreshold != 1 || cfg.Dialogue.IngredientThreshold != 1 {
		t.Errorf("expected default thresholds (1,1), got (%d,%d)",
			cfg.Dialogue.MoodThreshold, cfg.Dialogue.IngredientThreshold)
	}
	if cfg.Dialogue.MaxAttempts != 3 {
		t.Errorf("expected default max_attempts 3, got %d", cfg.Dialogue.MaxAttempts)
	}
	if cfg.Dialogue.TopK != 4 {
		t.Errorf("expected default top_k 4, got %d", cfg.Dialogue.TopK)
	}
	if cfg.Checkpoint.Backend != BackendSQLite {
		t.Errorf("expected default backend %q, got %q", BackendSQLite, cfg.Checkpoint.Backend)
	}
	if got := cfg.DatabasePath(); got != filepath.Join(".barback", "barback.db") {
		t.Errorf("DatabasePath() = %q", got)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.barback.yml")

	original := DefaultConfig()
	original.Provider = ProviderAnthropic
	original.Model = "claude-sonnet-4-5-20250929"
	original.Quality = QualityMax
	original.DataDir = "var/barback"
	original.Dialogue.MoodThreshold = 2
	original.Dialogue.IngredientThreshold = 0
	original.Checkpoint.Backend = BackendRedis
	original.Checkpoint.TTL = 2 * time.Hour

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Quality != original.Quality {
		t.Errorf("quality: got %q, want %q", loaded.Quality, original.Quality)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("data_dir: got %q, want %q", loaded.DataDir, original.DataDir)
	}
	if loaded.Dialogue.MoodThreshold != 2 || loaded.Dialogue.IngredientThreshold != 0 {
		t.Errorf("thresholds: got (%d,%d), want (2,0)",
			loaded.Dialogue.MoodThreshold, loaded.Dialogue.IngredientThreshold)
	}
	if loaded.Checkpoint.Backend != BackendRedis {
		t.Errorf("backend: got %q, want %q", loaded.Checkpoint.Backend, BackendRedis)
	}
	if loaded.Checkpoint.TTL != 2*time.Hour {
		t.Errorf("ttl: got %v, want %v", loaded.Checkpoint.TTL, 2*time.Hour)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("BARBACK_PROVIDER", "ollama")
	t.Setenv("BARBACK_DIALOGUE__MOOD_THRESHOLD", "2")
	t.Setenv("BARBACK_CHECKPOINT__BACKEND", "memory")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOllama {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOllama)
	}
	if loaded.Dialogue.MoodThreshold != 2 {
		t.Errorf("nested env override failed: got %d, want 2", loaded.Dialogue.MoodThreshold)
	}
	if loaded.Checkpoint.Backend != BackendMemory {
		t.Errorf("nested env override failed: got %q, want %q", loaded.Checkpoint.Backend, BackendMemory)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty provider", func(c *Config) { c.Provider = "" }, true},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }, true},
		{"empty model", func(c *Config) { c.Model = "" }, true},
		{"anthropic embeddings", func(c *Config) { c.EmbeddingProvider = ProviderAnthropic }, true},
		{"invalid quality", func(c *Config) { c.Quality = "ultra" }, true},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"negative rpm", func(c *Config) { c.RequestsPerMinute = -1 }, true},
		{"negative threshold", func(c *Config) { c.Dialogue.MoodThreshold = -1 }, true},
		{"zero thresholds", func(c *Config) { c.Dialogue.MoodThreshold, c.Dialogue.IngredientThreshold = 0, 0 }, false},
		{"zero attempts", func(c *Config) { c.Dialogue.MaxAttempts = 0 }, true},
		{"zero top k", func(c *Config) { c.Dialogue.TopK = 0 }, true},
		{"unknown backend", func(c *Config) { c.Checkpoint.Backend = "etcd" }, true},
		{"redis without addr", func(c *Config) {
			c.Checkpoint.Backend = BackendRedis
			c.Checkpoint.RedisAddr = ""
		}, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLogLevel(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset(ProviderAnthropic, QualityLite)
	if p.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("expected haiku model, got %q", p.Model)
	}

	p = GetPreset(ProviderOllama, QualityNormal)
	if p.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("expected nomic-embed-text, got %q", p.EmbeddingModel)
	}

	// Unknown combination falls back.
	p = GetPreset("unknown", QualityLite)
	if p.Model != "gpt-4o" {
		t.Errorf("expected fallback to gpt-4o, got %q", p.Model)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestValidateNonNegative(t *testing.T) {
	for _, s := range []string{"0", "1", "12"} {
		if err := validateNonNegative(s); err != nil {
			t.Errorf("validateNonNegative(%q) = %v", s, err)
		}
	}
	for _, s := range []string{"", "-1", "two"} {
		if err := validateNonNegative(s); err == nil {
			t.Errorf("validateNonNegative(%q) expected error", s)
		}
	}
}
