package openai

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the OpenAI client. Nothing is read from the environment here;
// callers pass the resolved values.
type Config struct {
	APIKey      string        // required; an empty key makes every call fail as not configured
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // default gpt-4.1-nano
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout; 0 = none
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4.1-nano"
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}
