package config

import "time"

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// CheckpointBackend selects where conversation state is persisted between turns.
type CheckpointBackend string

const (
	BackendSQLite CheckpointBackend = "sqlite"
	BackendMemory CheckpointBackend = "memory"
	BackendRedis  CheckpointBackend = "redis"
)

// Config is the top-level barback configuration, corresponding to .barback.yml.
type Config struct {
	Provider          ProviderType     `yaml:"provider" koanf:"provider"`
	Model             string           `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType     `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string           `yaml:"embedding_model" koanf:"embedding_model"`
	Quality           QualityTier      `yaml:"quality" koanf:"quality"`
	DataDir           string           `yaml:"data_dir" koanf:"data_dir"`
	CatalogFile       string           `yaml:"catalog_file" koanf:"catalog_file"`
	LogLevel          string           `yaml:"log_level" koanf:"log_level"`
	RequestsPerMinute int              `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Dialogue          DialogueConfig   `yaml:"dialogue" koanf:"dialogue"`
	Checkpoint        CheckpointConfig `yaml:"checkpoint" koanf:"checkpoint"`
	Server            ServerConfig     `yaml:"server" koanf:"server"`
}

// DialogueConfig holds the convergence and retry policy of the interview.
type DialogueConfig struct {
	// The engine recommends once it knows strictly more moods and ingredients
	// than these thresholds.
	MoodThreshold       int `yaml:"mood_threshold" koanf:"mood_threshold"`
	IngredientThreshold int `yaml:"ingredient_threshold" koanf:"ingredient_threshold"`
	MaxAttempts         int `yaml:"max_attempts" koanf:"max_attempts"`
	MaxOptions          int `yaml:"max_options" koanf:"max_options"`
	TopK                int `yaml:"top_k" koanf:"top_k"`
}

// CheckpointConfig holds checkpoint store settings.
type CheckpointConfig struct {
	Backend       CheckpointBackend `yaml:"backend" koanf:"backend"`
	RedisAddr     string            `yaml:"redis_addr" koanf:"redis_addr"`
	RedisPassword string            `yaml:"redis_password,omitempty" koanf:"redis_password"`
	RedisDB       int               `yaml:"redis_db" koanf:"redis_db"`
	// TTL is how long an idle session survives. Zero keeps sessions forever.
	TTL time.Duration `yaml:"ttl" koanf:"ttl"`
}

// ServerConfig holds HTTP transport settings.
type ServerConfig struct {
	Port            int           `yaml:"port" koanf:"port"`
	AllowAllOrigins bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	RequestTimeout  time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
}
