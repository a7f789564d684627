package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/llm"
	"github.com/joseph-ayodele/skydesk/internal/logging"
)

// TodoInput is the typed input to the to-do pipeline.
type TodoInput struct {
	LeadID string
	Today  string // DD-MM-YYYY
	Text   string
}

// TodoItem is the structured task returned by the model.
type TodoItem struct {
	LeadID       string `json:"lead_id"`
	Task         string `json:"task"`
	DateToBeDone string `json:"date_to_be_done"`
}

type TodoPipeline struct {
	Prompts PromptSource
	Gateway llm.Gateway
	Log     *slog.Logger
}

func NewTodoPipeline(prompts PromptSource, gw llm.Gateway, log *slog.Logger) *TodoPipeline {
	if log == nil {
		log = slog.Default()
	}
	return &TodoPipeline{Prompts: prompts, Gateway: gw, Log: log}
}

// Run asks the model to structure a free-text task. Missing fields fall back to the input;
// the due date is normalized to DD-MM-YYYY where possible.
func (p *TodoPipeline) Run(ctx context.Context, in TodoInput) (TodoItem, error) {
	log := logging.WithContext(ctx, p.Log).With("lead_id", in.LeadID)
	start := time.Now()
	stage := constants.StageStart
	fail := func(err error) (TodoItem, error) {
		log.Error("ingest.todo.failed", "stage", string(stage), "error", err)
		return TodoItem{}, &StageError{Kind: "todo", Stage: stage, Err: err}
	}

	prompt, err := p.Prompts.Load(llm.PromptTodo)
	if err != nil {
		return fail(err)
	}
	messages := llm.BuildTodoMessages(prompt, in.LeadID, in.Today, in.Text)
	stage = constants.StageExtracted // typed fields take the place of a transcript

	reply, err := p.Gateway.Chat(ctx, messages, llm.ChatOptions{EnforceJSON: true})
	if err != nil {
		return fail(err)
	}
	stage = constants.StagePrompted

	parsed, err := llm.CoerceJSONObject(reply.Content)
	if err != nil {
		return fail(err)
	}
	stage = constants.StageCoerced

	item := TodoItem{
		LeadID:       firstNonEmpty(stringField(parsed, "lead_id"), in.LeadID),
		Task:         strings.TrimSpace(firstNonEmpty(stringField(parsed, "task"), in.Text)),
		DateToBeDone: NormalizeDueDate(strings.TrimSpace(stringField(parsed, "date_to_be_done"))),
	}
	log.Info("ingest.todo.done", "due", item.DateToBeDone, "elapsed_ms", time.Since(start).Milliseconds())
	return item, nil
}

// stringField renders m[key] as text; absent, null and false count as empty.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	default:
		return fmt.Sprint(v)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
