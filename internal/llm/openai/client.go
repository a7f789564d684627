package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/skydesk/internal/common"
	"github.com/joseph-ayodele/skydesk/internal/llm"
)

var _ llm.Gateway = (*Client)(nil)

// statusError is a non-2xx reply from the provider.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai status %d: %s", e.status, e.message)
}

// Chat sends one chat/completions request. With EnforceJSON, a 400 from the provider is taken to
// mean JSON mode is unsupported and the request is retried once without it.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts llm.ChatOptions) (llm.Response, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return llm.Response{}, common.NotConfiguredError("OPENAI_API_KEY missing; add it to your environment or .env")
	}

	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	c.logger.Info("llm.chat.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"messages", len(messages),
		"enforce_json", opts.EnforceJSON,
	)

	jsonMode := opts.EnforceJSON
	content, err := c.complete(ctx, messages, jsonMode)
	if err != nil && jsonMode && isBadRequest(err) {
		c.logger.Warn("llm.chat.json_mode_rejected",
			"req_id", rid, "model", c.cfg.Model, "error", err,
		)
		jsonMode = false
		content, err = c.complete(ctx, messages, false)
	}
	if err != nil {
		c.logger.Error("llm.chat.failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Response{}, err
	}

	c.logger.Info("llm.chat.ok",
		"req_id", rid,
		"json_mode", jsonMode,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return llm.Response{Content: content, Model: c.cfg.Model, JSONMode: jsonMode}, nil
}

func (c *Client) complete(ctx context.Context, messages []llm.Message, jsonMode bool) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages":    messages,
	}
	if jsonMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, status, err := llm.PostJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		if status == 0 {
			return "", common.ProviderError("openai request failed", err)
		}
		se := &statusError{status: status, message: providerMessage(raw)}
		return "", common.ProviderError(se.Error(), se)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", common.ProviderError("decode openai response", err)
	}
	if len(cc.Choices) == 0 {
		return "", common.ProviderError("no choices in openai response", nil)
	}
	if cc.Choices[0].Message.Content == nil {
		return "", nil
	}
	return strings.TrimSpace(*cc.Choices[0].Message.Content), nil
}

func isBadRequest(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == http.StatusBadRequest
}

// providerMessage pulls error.message out of an OpenAI error body, falling back to the raw text.
func providerMessage(raw []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return llm.Excerpt(strings.TrimSpace(string(raw)), 500)
}
