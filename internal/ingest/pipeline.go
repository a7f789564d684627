package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/entity"
	"github.com/joseph-ayodele/skydesk/internal/extract"
	"github.com/joseph-ayodele/skydesk/internal/llm"
	"github.com/joseph-ayodele/skydesk/internal/logging"
)

// PromptSource supplies the static prompt for a document kind.
type PromptSource interface {
	Load(kind llm.PromptKind) (string, error)
}

// StageError records the last stage reached before a run failed.
// Unwrap exposes the underlying kind (not configured, provider failure, ...).
type StageError struct {
	Kind  string
	Stage constants.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s ingestion failed after %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// DocumentPipeline turns a quote or booking PDF into an unsaved Draft.
type DocumentPipeline struct {
	Kind          constants.RecordType
	Prompt        llm.PromptKind
	TextExtractor extract.TextExtractor
	Prompts       PromptSource
	Gateway       llm.Gateway
	Log           *slog.Logger
}

func NewQuotePipeline(tx extract.TextExtractor, prompts PromptSource, gw llm.Gateway, log *slog.Logger) *DocumentPipeline {
	return newDocumentPipeline(constants.Quote, llm.PromptQuote, tx, prompts, gw, log)
}

func NewBookingPipeline(tx extract.TextExtractor, prompts PromptSource, gw llm.Gateway, log *slog.Logger) *DocumentPipeline {
	return newDocumentPipeline(constants.Booking, llm.PromptBooking, tx, prompts, gw, log)
}

func newDocumentPipeline(kind constants.RecordType, prompt llm.PromptKind, tx extract.TextExtractor, prompts PromptSource, gw llm.Gateway, log *slog.Logger) *DocumentPipeline {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentPipeline{Kind: kind, Prompt: prompt, TextExtractor: tx, Prompts: prompts, Gateway: gw, Log: log}
}

// Run extracts the transcript, asks the model for JSON and coerces the reply.
// The Draft is not persisted.
func (p *DocumentPipeline) Run(ctx context.Context, pdfPath, notes string) (entity.Draft, error) {
	log := logging.WithContext(ctx, p.Log).With("kind", string(p.Kind))
	start := time.Now()
	stage := constants.StageStart
	fail := func(err error) (entity.Draft, error) {
		log.Error("ingest.document.failed", "stage", string(stage), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return entity.Draft{}, &StageError{Kind: string(p.Kind), Stage: stage, Err: err}
	}

	log.Info("ingest.document.start", "path", pdfPath, "has_notes", notes != "")

	res, err := p.TextExtractor.Extract(ctx, pdfPath)
	if err != nil {
		return fail(err)
	}
	stage = constants.StageExtracted
	log.Info("ingest.document.extracted", "pages", res.Pages, "text_len", len(res.Text), "method", res.Method)

	prompt, err := p.Prompts.Load(p.Prompt)
	if err != nil {
		return fail(err)
	}
	messages := llm.BuildDocumentMessages(prompt, res.Text, notes)

	reply, err := p.Gateway.Chat(ctx, messages, llm.ChatOptions{EnforceJSON: true})
	if err != nil {
		return fail(err)
	}
	stage = constants.StagePrompted
	log.Info("ingest.document.prompted", "reply_len", len(reply.Content), "json_mode", reply.JSONMode)

	parsed, err := llm.CoerceJSONObject(reply.Content)
	if err != nil {
		return fail(err)
	}
	stage = constants.StageCoerced
	p.reportSchemaGaps(log, parsed)

	stage = constants.StageDone
	log.Info("ingest.document.done", "keys", len(parsed), "elapsed_ms", time.Since(start).Milliseconds())
	return entity.Draft{Parsed: parsed, RawResponse: reply.Content, Transcript: res.Text}, nil
}

// reportSchemaGaps logs how far the parsed reply is from a committable record.
// The operator fixes these on the confirmation form, so they never fail the run.
func (p *DocumentPipeline) reportSchemaGaps(log *slog.Logger, parsed map[string]any) {
	data, err := json.Marshal(parsed)
	if err != nil {
		return
	}
	payload, err := entity.DecodePayloadAs(p.Kind, data)
	if err != nil {
		log.Warn("ingest.document.shape_mismatch", "error", err)
		return
	}
	if v := entity.Check(payload); v.HasErrors() {
		log.Warn("ingest.document.needs_review", "issues", len(v.Errors()), "detail", v.ErrorMessage())
	}
}
