package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	Extract ExtractConfig `yaml:"extract"`
	Log     LogConfig     `yaml:"log"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // 0 = no client timeout
}

// StorageConfig holds the on-disk locations
type StorageConfig struct {
	DataDir    string `yaml:"data_dir"`    // committed records, one subtree per record type
	TmpDir     string `yaml:"tmp_dir"`     // drafts awaiting confirmation
	PromptsDir string `yaml:"prompts_dir"` // quote_parser.md, booking_parser.md, todo_parser.md
}

// ExtractConfig selects the PDF text backend
type ExtractConfig struct {
	Backend   string `yaml:"backend"`   // "native" | "pdftotext"
	Pdftotext string `yaml:"pdftotext"` // binary name or absolute path
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4.1-nano",
			Temperature: 0,
		},
		Storage: StorageConfig{
			DataDir:    "leads",
			TmpDir:     "tmp",
			PromptsDir: "ops/assistants",
		},
		Extract: ExtractConfig{
			Backend:   "native",
			Pdftotext: "pdftotext",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from .env, an optional YAML file and environment variables,
// in increasing order of precedence.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config.dotenv.skipped", "error", err)
	}

	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("SKYDESK_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("read config %s", path), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse config %s", path), err)
		}
	}

	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = getEnv("OPENAI_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("OPENAI_MODEL", cfg.LLM.Model)
	cfg.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", cfg.LLM.Timeout)

	cfg.Storage.DataDir = getEnv("SKYDESK_DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.TmpDir = getEnv("SKYDESK_TMP_DIR", cfg.Storage.TmpDir)
	cfg.Storage.PromptsDir = getEnv("SKYDESK_PROMPTS_DIR", cfg.Storage.PromptsDir)

	cfg.Extract.Backend = getEnv("PDF_BACKEND", cfg.Extract.Backend)
	cfg.Extract.Pdftotext = getEnv("PDFTOTEXT_BIN", cfg.Extract.Pdftotext)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. A missing API key is not an error here;
// the LLM gateway reports it as not configured when a call is attempted.
func (c *Config) Validate() error {
	if c.Storage.DataDir == "" {
		return NewAppError("CONFIG_ERROR", "SKYDESK_DATA_DIR is required", ErrInvalidInput)
	}
	if c.Storage.TmpDir == "" {
		return NewAppError("CONFIG_ERROR", "SKYDESK_TMP_DIR is required", ErrInvalidInput)
	}
	if c.Storage.PromptsDir == "" {
		return NewAppError("CONFIG_ERROR", "SKYDESK_PROMPTS_DIR is required", ErrInvalidInput)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError("CONFIG_ERROR", "OPENAI_TEMPERATURE must be between 0 and 2", ErrInvalidInput)
	}
	return nil
}
