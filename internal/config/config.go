package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// Global configuration instance
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Get returns the global configuration instance
// If the configuration has not been initialized, it will return an error
func Get() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	return globalConfig, nil
}

// Set sets the global configuration instance
func Set(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = cfg
}

// Supported LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// Config represents the complete application configuration
type Config struct {
	DefaultLLMProvider string // openai, ollama, claude or gemini
	OpenAI             OpenAIConfig
	Ollama             OllamaConfig
	Claude             ClaudeConfig
	Gemini             GeminiConfig
	Retry              RetryConfig
	Dataset            DatasetConfig
	Evaluation         EvaluationConfig
	Database           DatabaseConfig
	Logging            LoggingConfig
	configDir          string
}

// OpenAIConfig holds OpenAI chat completion settings
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // Empty uses the public API
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	Seed        int

	RequestsPerMinute int
	BurstLimit        int
}

// OllamaConfig holds configuration specific to the Ollama client
type OllamaConfig struct {
	// Connection settings
	Endpoint            string
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	Seed        int

	RequestsPerMinute int
	BurstLimit        int
}

// ClaudeConfig holds Claude API configuration
type ClaudeConfig struct {
	APIKey     string
	BaseURL    string
	APIVersion string

	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64

	RequestsPerMinute int
	BurstLimit        int
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	Seed        int

	RequestsPerMinute int
	BurstLimit        int
}

// RetryConfig describes the backoff applied to every model call
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DatasetConfig locates the evaluation inputs and outputs
type DatasetConfig struct {
	ResultsDir      string   // One sub directory per sample index
	MetadataCSV     string   // index, spanMethod, absolutePath
	InstancesCSV    string   // index, project, methodName and result columns
	ReposDir        string   // Checked out projects, one directory per project name
	TestResultsDir  string   // Captured build tool output
	Variants        []string // Input file stems to evaluate
	MaxContextChars int      // Prompt context budget
	MaxStoredChars  int      // Longest method text stored in the instances CSV
}

// EvaluationConfig controls extraction and the test step
type EvaluationConfig struct {
	RunTests       bool
	BuildTool      string
	TestTimeout    time.Duration
	Concurrency    int
	LegacyQuotes   bool
	LegacyBodySpan bool
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path            string        // Path to the SQLite database file
	JournalMode     string        // Journal mode (WAL recommended)
	SynchronousMode string        // Synchronous mode
	BusyTimeout     int           // Busy timeout in milliseconds
	CacheSize       int           // Cache size in KiB
	ForeignKeys     bool          // Whether to enforce foreign key constraints
	ConnMaxLife     time.Duration // Maximum connection lifetime
	QueryTimeout    time.Duration // Query timeout
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool   // Include source code position in logs
	TimeFormat string // Time format for logs (empty uses RFC3339)
}

// New returns a new empty Config
func New() *Config {
	return &Config{}
}

// ConfigDir returns the directory the configuration was loaded from
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return fmt.Errorf("LLM config: %w", err)
	}

	if err := c.validateRetry(); err != nil {
		return fmt.Errorf("retry config: %w", err)
	}

	if err := c.validateDataset(); err != nil {
		return fmt.Errorf("dataset config: %w", err)
	}

	if err := c.validateEvaluation(); err != nil {
		return fmt.Errorf("evaluation config: %w", err)
	}

	if err := c.validateDatabase(); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ParseLogLevel parses a log level string to a slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		return slog.Level(9999)
	default:
		return slog.LevelInfo
	}
}

func (c *Config) validateLLM() error {
	switch c.DefaultLLMProvider {
	case ProviderOpenAI, ProviderOllama, ProviderClaude, ProviderGemini:
	case "":
		return fmt.Errorf("default provider cannot be empty")
	default:
		return fmt.Errorf("unknown provider: %s", c.DefaultLLMProvider)
	}

	if c.Ollama.Endpoint == "" {
		return fmt.Errorf("ollama endpoint cannot be empty")
	}

	temps := map[string]float64{
		ProviderOpenAI: c.OpenAI.Temperature,
		ProviderOllama: c.Ollama.Temperature,
		ProviderClaude: c.Claude.Temperature,
		ProviderGemini: c.Gemini.Temperature,
	}
	for provider, temp := range temps {
		if temp < 0 || temp > 2 {
			return fmt.Errorf("%s temperature must be between 0 and 2", provider)
		}
	}

	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}

	if c.Retry.InitialInterval <= 0 {
		return fmt.Errorf("initial interval must be positive")
	}

	if c.Retry.MaxInterval < c.Retry.InitialInterval {
		return fmt.Errorf("max interval must not be shorter than the initial interval")
	}

	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1")
	}

	return nil
}

func (c *Config) validateDataset() error {
	if len(c.Dataset.Variants) == 0 {
		return fmt.Errorf("at least one variant is required")
	}

	if c.Dataset.MaxContextChars <= 0 {
		return fmt.Errorf("max context chars must be positive")
	}

	if c.Dataset.MaxStoredChars <= 0 {
		return fmt.Errorf("max stored chars must be positive")
	}

	return nil
}

func (c *Config) validateEvaluation() error {
	if c.Evaluation.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}

	if c.Evaluation.RunTests && c.Evaluation.BuildTool == "" {
		return fmt.Errorf("build tool cannot be empty when tests are enabled")
	}

	if c.Evaluation.TestTimeout <= 0 {
		return fmt.Errorf("test timeout must be positive")
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	dir := filepath.Dir(c.Database.Path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	if err := checkDirectoryWritable(dir); err != nil {
		return fmt.Errorf("database directory: %w", err)
	}

	if c.Database.BusyTimeout <= 0 {
		return fmt.Errorf("busy timeout must be positive")
	}

	if c.Database.ConnMaxLife <= 0 {
		return fmt.Errorf("connection max life must be positive")
	}

	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("query timeout must be positive")
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" && level != "none" {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// getEnvString returns a string from the environment variable
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvFirst returns the first non-empty value among keys
func getEnvFirst(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

// getEnvInt returns an int from the environment variable
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns a bool from the environment variable
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration returns a time.Duration from the environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvFloat returns a float64 from the environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated list, skipping blanks and # entries
func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" && !strings.HasPrefix(item, "#") {
			items = append(items, item)
		}
	}
	return items
}

// checkDirectoryWritable tests if a directory is writable
func checkDirectoryWritable(dir string) error {
	testFile := filepath.Join(dir, fmt.Sprintf("test_write_%d", time.Now().UnixNano()))
	f, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}

	f.Close()
	os.Remove(testFile)

	return nil
}
