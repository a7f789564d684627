package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/common"
	"github.com/joseph-ayodele/skydesk/internal/drafts"
	"github.com/joseph-ayodele/skydesk/internal/entity"
	"github.com/joseph-ayodele/skydesk/internal/ingest"
	"github.com/joseph-ayodele/skydesk/internal/logging"
	"github.com/joseph-ayodele/skydesk/internal/records"
)

// DocumentPipeline turns a staged PDF into a draft.
type DocumentPipeline interface {
	Run(ctx context.Context, pdfPath, notes string) (entity.Draft, error)
}

// TodoPipeline structures a free-text task.
type TodoPipeline interface {
	Run(ctx context.Context, in ingest.TodoInput) (ingest.TodoItem, error)
}

// Deps wires the service. Pipelines and Drafts are keyed by document kind.
type Deps struct {
	Pipelines map[constants.RecordType]DocumentPipeline
	Drafts    map[constants.RecordType]*drafts.Store
	Records   *records.Store
	Todos     TodoPipeline
	Logger    *slog.Logger
}

// Service is the entry point used by the CLI: ingestion, confirmation and to-dos.
type Service struct {
	pipelines map[constants.RecordType]DocumentPipeline
	drafts    map[constants.RecordType]*drafts.Store
	records   *records.Store
	todos     TodoPipeline
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{
		pipelines: d.Pipelines,
		drafts:    d.Drafts,
		records:   d.Records,
		todos:     d.Todos,
		logger:    d.Logger,
		now:       time.Now,
	}
}

// FormError reports per-field problems the operator can fix and resubmit.
type FormError struct {
	Fields []common.ValidationError
	Cause  error
}

func (e *FormError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return strings.Join(parts, "; ")
}

func (e *FormError) Unwrap() error {
	return e.Cause
}

// TodoResult is the outcome of AddTodo. Fallback is set when the task was stored
// as typed because the assistant is not configured; Reason carries that error.
type TodoResult struct {
	Todo     entity.Todo
	Fallback bool
	Reason   error
}

func (s *Service) draftStore(kind constants.RecordType) (*drafts.Store, DocumentPipeline, error) {
	store, ok := s.drafts[kind]
	p := s.pipelines[kind]
	if !ok || p == nil || !kind.HasDocuments() {
		return nil, nil, common.InvalidInputErrorf("%q documents cannot be ingested", kind)
	}
	return store, p, nil
}

// IngestDocument stages upload in a new draft directory, runs the kind's pipeline and
// saves the draft. The draft directory is removed on any failure. It returns the draft id.
func (s *Service) IngestDocument(ctx context.Context, kind constants.RecordType, upload io.Reader, filename, notes string) (string, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	store, pipeline, err := s.draftStore(kind)
	if err != nil {
		return "", err
	}
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." || !constants.IsAllowedUpload(filename) {
		return "", common.InvalidInputErrorf("please upload a PDF (got %q)", filename)
	}

	id := drafts.NewID()
	log := logging.WithContext(ctx, s.logger).With("kind", string(kind), "draft_id", id)
	discard := func(err error) (string, error) {
		if derr := store.Delete(id); derr != nil {
			log.Warn("leads.ingest.cleanup_failed", "error", derr)
		}
		log.Error("leads.ingest.failed", "file", filename, "error", err)
		return "", err
	}

	path, err := store.Stage(id, upload)
	if err != nil {
		return discard(err)
	}
	draft, err := pipeline.Run(ctx, path, notes)
	if err != nil {
		return discard(err)
	}
	opts := drafts.SaveOptions{Notes: strings.TrimSpace(notes), OriginalFilename: filename, SourcePDF: path}
	if err := store.Save(id, draft, opts); err != nil {
		return discard(err)
	}

	log.Info("leads.ingest.ok", "file", filename, "fields", len(draft.Parsed))
	return id, nil
}

// Draft returns a saved draft or ErrNotFound.
func (s *Service) Draft(kind constants.RecordType, draftID string) (*entity.StoredDraft, error) {
	store, _, err := s.draftStore(kind)
	if err != nil {
		return nil, err
	}
	d, ok := store.Load(draftID)
	if !ok {
		return nil, common.NotFoundError(fmt.Sprintf("%s draft %q not found", kind, draftID))
	}
	return d, nil
}

// PayloadFromDraft decodes the model's parsed object as a payload of kind, ready for review.
func PayloadFromDraft(kind constants.RecordType, d *entity.StoredDraft) (entity.Payload, error) {
	data, err := json.Marshal(d.Parsed)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	// The model may echo a record_type of its own; the kind being confirmed wins.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		delete(fields, "record_type")
		data, _ = json.Marshal(fields)
	}
	p, err := entity.DecodePayloadAs(kind, data)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "draft does not fit the record shape", errors.Join(common.ErrInvalidInput, err))
	}
	return p, nil
}

// ConfirmDraft commits the operator-reviewed payload for a draft and deletes the draft.
// Validation problems and a duplicate lead id come back as *FormError.
func (s *Service) ConfirmDraft(ctx context.Context, kind constants.RecordType, draftID string, payload entity.Payload) (string, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	log := logging.WithContext(ctx, s.logger).With("kind", string(kind), "draft_id", draftID)

	store, _, err := s.draftStore(kind)
	if err != nil {
		return "", err
	}
	if payload == nil || payload.RecordType() != kind {
		return "", common.InvalidInputErrorf("payload is not a %s", kind)
	}
	draft, ok := store.Load(draftID)
	if !ok {
		return "", common.NotFoundError(fmt.Sprintf("%s draft %q not found", kind, draftID))
	}

	entity.Normalize(payload)
	if v := entity.Check(payload); v.HasErrors() {
		log.Warn("leads.confirm.invalid", "issues", len(v.Errors()))
		return "", &FormError{Fields: v.Errors(), Cause: common.ValidateAndReturnError(v)}
	}

	id := entity.LeadIDOf(payload)
	meta := entity.Metadata{
		RawResponse:      draft.RawResponse,
		Transcript:       draft.Transcript,
		Notes:            draft.Notes,
		OriginalFilename: draft.OriginalFilename,
	}
	if err := s.records.Commit(id, payload, store.PDFPath(draftID), meta); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return "", &FormError{
				Fields: []common.ValidationError{{Field: "lead_id", Value: id, Message: "already has a saved " + strings.ToLower(kind.Label())}},
				Cause:  err,
			}
		}
		return "", err
	}

	if err := store.Delete(draftID); err != nil {
		log.Warn("leads.confirm.draft_cleanup_failed", "error", err)
	}
	log.Info("leads.confirm.ok", "record_id", id)
	return id, nil
}

// AbandonDraft discards a draft. Unknown drafts are ignored.
func (s *Service) AbandonDraft(kind constants.RecordType, draftID string) error {
	store, _, err := s.draftStore(kind)
	if err != nil {
		return err
	}
	return store.Delete(draftID)
}

// AddTodo asks the assistant to structure text and stores the result on the record.
// When the assistant is not configured the raw text is stored without a due date
// and the result reports the fallback. Any other assistant failure stores nothing.
func (s *Service) AddTodo(ctx context.Context, kind constants.RecordType, recordID, text string) (TodoResult, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	log := logging.WithContext(ctx, s.logger).With("kind", string(kind), "record_id", recordID)

	text = strings.TrimSpace(text)
	if text == "" {
		return TodoResult{}, common.InvalidInputErrorf("to-do text is required")
	}
	if _, err := s.records.Load(kind, recordID); err != nil {
		return TodoResult{}, err
	}

	item, err := s.todos.Run(ctx, ingest.TodoInput{
		LeadID: recordID,
		Today:  s.now().UTC().Format("02-01-2006"),
		Text:   text,
	})
	if err != nil {
		if !errors.Is(err, common.ErrNotConfigured) {
			log.Error("leads.todo.failed", "error", err)
			return TodoResult{}, err
		}
		todo, serr := s.records.AddTodo(kind, recordID, text, "")
		if serr != nil {
			return TodoResult{}, serr
		}
		log.Warn("leads.todo.fallback", "todo_id", todo.ID, "reason", err)
		return TodoResult{Todo: todo, Fallback: true, Reason: err}, nil
	}

	todo, err := s.records.AddTodo(kind, recordID, item.Task, item.DateToBeDone)
	if err != nil {
		return TodoResult{}, err
	}
	return TodoResult{Todo: todo}, nil
}
