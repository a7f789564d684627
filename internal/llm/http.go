package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/skydesk/internal/common"
)

// maxResponseBytes bounds how much of a provider reply is buffered.
const maxResponseBytes = 8 << 20

// PostJSON sends body as a JSON POST and returns the reply bytes with the HTTP
// status. Status 0 means the request never got a reply. Any status outside
// 2xx comes back as an error together with the reply so callers can surface
// the provider's message.
func PostJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	log := logger.With("req_id", common.RequestIDFromContext(ctx))

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	started := time.Now()
	log.Debug("llm.http.send", "url", url, "request_bytes", len(payload))
	resp, err := client.Do(req)
	if err != nil {
		log.Warn("llm.http.unreachable", "url", url, "error", err, "elapsed_ms", time.Since(started).Milliseconds())
		return nil, 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn("llm.http.close_failed", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read reply: %w", err)
	}
	log.Debug("llm.http.reply",
		"status", resp.StatusCode,
		"reply_bytes", len(raw),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, resp.StatusCode, fmt.Errorf("provider replied %s", resp.Status)
	}
	return raw, resp.StatusCode, nil
}
