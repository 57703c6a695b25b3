package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// DefaultVariants are the input file stems evaluated per sample
var DefaultVariants = []string{"Original", "PerturbedEvaluator", "PerturbedPegasus", "PerturbedPivoting"}

// DefaultConfigDir returns ~/.methodgen
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".methodgen"), nil
}

// LoadFromEnv loads configuration from environment variables
// Parameters:
// - configDir: Directory containing config files (or empty for default)
// - configFilePath: Path to .env file (or empty for <configDir>/.env)
func LoadFromEnv(configDir string, configFilePath string) (*Config, error) {
	cfg := New()

	if configDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	cfg.configDir = configDir

	if configFilePath == "" {
		configFilePath = filepath.Join(configDir, ".env")
	}

	// ENV_FILE_PATH wins; otherwise the config dir, then the working directory
	if envFilePath := getEnvString("ENV_FILE_PATH", ""); envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("failed to load env file from %s: %w", envFilePath, err)
		}
	} else if err := godotenv.Load(configFilePath); err != nil {
		_ = godotenv.Load()
	}

	cfg.DefaultLLMProvider = getEnvString("METHODGEN_LLM_DEFAULT_PROVIDER", ProviderOpenAI)

	cfg.OpenAI = OpenAIConfig{
		APIKey:            getEnvFirst("", "METHODGEN_OPENAI_API_KEY", "OPENAI_API_KEY"),
		BaseURL:           getEnvString("METHODGEN_OPENAI_BASE_URL", ""),
		Model:             getEnvString("METHODGEN_OPENAI_MODEL", "gpt-3.5-turbo"),
		Timeout:           getEnvDuration("METHODGEN_OPENAI_TIMEOUT", 120*time.Second),
		MaxTokens:         getEnvInt("METHODGEN_OPENAI_MAX_TOKENS", 0),
		Temperature:       getEnvFloat("METHODGEN_OPENAI_TEMPERATURE", 0),
		Seed:              getEnvInt("METHODGEN_OPENAI_SEED", 42),
		RequestsPerMinute: getEnvInt("METHODGEN_OPENAI_REQUESTS_PER_MINUTE", 0),
		BurstLimit:        getEnvInt("METHODGEN_OPENAI_BURST_LIMIT", 1),
	}

	cfg.Ollama = OllamaConfig{
		Endpoint:            getEnvString("METHODGEN_OLLAMA_ENDPOINT", "http://localhost:11434"),
		MaxIdleConns:        getEnvInt("METHODGEN_OLLAMA_MAX_IDLE_CONNS", 100),
		MaxIdleConnsPerHost: getEnvInt("METHODGEN_OLLAMA_MAX_IDLE_CONNS_PER_HOST", 100),
		IdleConnTimeout:     getEnvDuration("METHODGEN_OLLAMA_IDLE_CONN_TIMEOUT", 120*time.Second),
		Model:               getEnvString("METHODGEN_OLLAMA_MODEL", "codellama"),
		Timeout:             getEnvDuration("METHODGEN_OLLAMA_TIMEOUT", 600*time.Second),
		MaxTokens:           getEnvInt("METHODGEN_OLLAMA_MAX_TOKENS", 2048),
		Temperature:         getEnvFloat("METHODGEN_OLLAMA_TEMPERATURE", 0),
		Seed:                getEnvInt("METHODGEN_OLLAMA_SEED", 42),
		RequestsPerMinute:   getEnvInt("METHODGEN_OLLAMA_REQUESTS_PER_MINUTE", 0),
		BurstLimit:          getEnvInt("METHODGEN_OLLAMA_BURST_LIMIT", 1),
	}

	cfg.Claude = ClaudeConfig{
		APIKey:            getEnvFirst("", "METHODGEN_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"),
		BaseURL:           getEnvString("METHODGEN_CLAUDE_BASE_URL", "https://api.anthropic.com"),
		APIVersion:        getEnvString("METHODGEN_CLAUDE_API_VERSION", "2023-06-01"),
		Model:             getEnvString("METHODGEN_CLAUDE_MODEL", "claude-3-7-sonnet-20250219"),
		Timeout:           getEnvDuration("METHODGEN_CLAUDE_TIMEOUT", 120*time.Second),
		MaxTokens:         getEnvInt("METHODGEN_CLAUDE_MAX_TOKENS", 4096),
		Temperature:       getEnvFloat("METHODGEN_CLAUDE_TEMPERATURE", 0),
		RequestsPerMinute: getEnvInt("METHODGEN_CLAUDE_REQUESTS_PER_MINUTE", 50),
		BurstLimit:        getEnvInt("METHODGEN_CLAUDE_BURST_LIMIT", 1),
	}

	cfg.Gemini = GeminiConfig{
		APIKey:            getEnvFirst("", "METHODGEN_GEMINI_API_KEY", "GEMINI_API_KEY"),
		Model:             getEnvString("METHODGEN_GEMINI_MODEL", "gemini-2.0-flash"),
		Timeout:           getEnvDuration("METHODGEN_GEMINI_TIMEOUT", 120*time.Second),
		MaxTokens:         getEnvInt("METHODGEN_GEMINI_MAX_TOKENS", 8192),
		Temperature:       getEnvFloat("METHODGEN_GEMINI_TEMPERATURE", 0),
		Seed:              getEnvInt("METHODGEN_GEMINI_SEED", 42),
		RequestsPerMinute: getEnvInt("METHODGEN_GEMINI_REQUESTS_PER_MINUTE", 15),
		BurstLimit:        getEnvInt("METHODGEN_GEMINI_BURST_LIMIT", 1),
	}

	cfg.Retry = RetryConfig{
		MaxAttempts:     getEnvInt("METHODGEN_RETRY_MAX_ATTEMPTS", 30),
		InitialInterval: getEnvDuration("METHODGEN_RETRY_INITIAL_INTERVAL", 2*time.Second),
		MaxInterval:     getEnvDuration("METHODGEN_RETRY_MAX_INTERVAL", 25*time.Second),
		Multiplier:      getEnvFloat("METHODGEN_RETRY_MULTIPLIER", 2),
	}

	cfg.Dataset = DatasetConfig{
		ResultsDir:      getEnvString("METHODGEN_DATASET_RESULTS_DIR", "Results"),
		MetadataCSV:     getEnvString("METHODGEN_DATASET_METADATA_CSV", "metadata.csv"),
		InstancesCSV:    getEnvString("METHODGEN_DATASET_INSTANCES_CSV", "instances.csv"),
		ReposDir:        getEnvString("METHODGEN_DATASET_REPOS_DIR", "repos"),
		TestResultsDir:  getEnvString("METHODGEN_DATASET_TEST_RESULTS_DIR", "TestResults"),
		Variants:        getEnvList("METHODGEN_DATASET_VARIANTS", DefaultVariants),
		MaxContextChars: getEnvInt("METHODGEN_DATASET_MAX_CONTEXT_CHARS", 16350),
		MaxStoredChars:  getEnvInt("METHODGEN_DATASET_MAX_STORED_CHARS", 32600),
	}

	cfg.Evaluation = EvaluationConfig{
		RunTests:       getEnvBool("METHODGEN_EVAL_RUN_TESTS", true),
		BuildTool:      getEnvString("METHODGEN_EVAL_BUILD_TOOL", "mvn"),
		TestTimeout:    getEnvDuration("METHODGEN_EVAL_TEST_TIMEOUT", 10*time.Minute),
		Concurrency:    getEnvInt("METHODGEN_EVAL_CONCURRENCY", 4),
		LegacyQuotes:   getEnvBool("METHODGEN_EVAL_LEGACY_QUOTES", false),
		LegacyBodySpan: getEnvBool("METHODGEN_EVAL_LEGACY_BODY_SPAN", false),
	}

	cfg.Database = DatabaseConfig{
		Path:            getEnvString("METHODGEN_DB_PATH", filepath.Join(configDir, "methodgen.db")),
		BusyTimeout:     getEnvInt("METHODGEN_DB_BUSY_TIMEOUT", 5000),
		JournalMode:     getEnvString("METHODGEN_DB_JOURNAL_MODE", "WAL"),
		SynchronousMode: getEnvString("METHODGEN_DB_SYNCHRONOUS_MODE", "NORMAL"),
		CacheSize:       getEnvInt("METHODGEN_DB_CACHE_SIZE", -64000), // ~64MB
		ForeignKeys:     getEnvBool("METHODGEN_DB_FOREIGN_KEYS", true),
		ConnMaxLife:     getEnvDuration("METHODGEN_DB_CONN_MAX_LIFE", 5*time.Minute),
		QueryTimeout:    getEnvDuration("METHODGEN_DB_QUERY_TIMEOUT", 30*time.Second),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("METHODGEN_LOG_LEVEL", "info"),
		Format:     getEnvString("METHODGEN_LOG_FORMAT", "text"),
		Output:     getEnvString("METHODGEN_LOG_OUTPUT", filepath.Join(configDir, "methodgen.log")),
		AddSource:  getEnvBool("METHODGEN_LOG_ADD_SOURCE", false),
		TimeFormat: getTimeFormat(getEnvString("METHODGEN_LOG_TIME_FORMAT", "RFC3339")),
	}

	return cfg, cfg.Validate()
}

// getTimeFormat converts a named time format to its layout string
func getTimeFormat(name string) string {
	switch name {
	case "RFC3339":
		return time.RFC3339
	case "RFC3339Nano":
		return time.RFC3339Nano
	case "Kitchen":
		return time.Kitchen
	case "DateTime":
		return time.DateTime
	case "DateTimeMS":
		return "2006-01-02 15:04:05.000"
	default:
		return name
	}
}
