package pkg

// Shared configuration types used across config loading, logging,
// the session stores and the inference model factory.

// ModelConfig holds chat model settings for the inference engine
type ModelConfig struct {
	Provider    string  `yaml:"provider" envconfig:"MODEL_PROVIDER"`
	Model       string  `yaml:"model" envconfig:"MODEL_NAME"`
	APIKey      string  `yaml:"-" envconfig:"OPENAI_API_KEY"`
	BaseURL     string  `yaml:"base_url" envconfig:"MODEL_BASE_URL"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// RedisConfig holds Redis session store configuration
type RedisConfig struct {
	URL        string `yaml:"url" envconfig:"REDIS_URL"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level    string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format   string `yaml:"format"` // "console" or "json"
	Output   string `yaml:"output"` // "stdout", "stderr" or "file"
	FilePath string `yaml:"file_path"`
}
