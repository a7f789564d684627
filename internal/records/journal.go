package records

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/common"
	"github.com/joseph-ayodele/skydesk/internal/entity"
)

// CommunicationInput is a contact to log against a record. A zero At means now.
type CommunicationInput struct {
	At        time.Time
	Method    string
	Direction string
	Note      string
}

// UpdateNotes replaces the record's free-text notes.
func (s *Store) UpdateNotes(kind constants.RecordType, id, notes string) error {
	err := s.update(kind, id, func(p entity.Payload) error {
		entity.JournalOf(p).Notes = strings.TrimSpace(notes)
		return nil
	})
	if err == nil {
		s.logger.Info("records.notes.saved", "kind", string(kind), "record_id", id)
	}
	return err
}

// AppendCommunication adds an entry to the record's communication log.
func (s *Store) AppendCommunication(kind constants.RecordType, id string, in CommunicationInput) (entity.Communication, error) {
	at := in.At
	if at.IsZero() {
		at = s.now()
	}
	method := strings.TrimSpace(in.Method)
	if method == "" {
		method = constants.DefaultCommunicationMethod
	}
	c := entity.Communication{
		Timestamp: at.UTC().Format(timestampLayout),
		Method:    method,
		Direction: constants.NormalizeDirection(in.Direction),
		Note:      strings.TrimSpace(in.Note),
	}
	err := s.update(kind, id, func(p entity.Payload) error {
		j := entity.JournalOf(p)
		j.Communications = append(j.Communications, c)
		return nil
	})
	if err != nil {
		return entity.Communication{}, err
	}
	s.logger.Info("records.communication.logged", "kind", string(kind), "record_id", id, "direction", c.Direction)
	return c, nil
}

// Communications returns the log newest first. Entries with unparseable
// timestamps sort last; ties keep the later entry first.
func (s *Store) Communications(kind constants.RecordType, id string) ([]entity.Communication, error) {
	p, err := s.Load(kind, id)
	if err != nil {
		return nil, err
	}
	log := entity.JournalOf(p).Communications

	type entry struct {
		c   entity.Communication
		at  time.Time
		idx int
	}
	entries := make([]entry, len(log))
	for i, c := range log {
		entries[i] = entry{c: c, at: parseTimestamp(c.Timestamp), idx: i}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.After(entries[j].at)
		}
		return entries[i].idx > entries[j].idx
	})

	out := make([]entity.Communication, len(entries))
	for i, e := range entries {
		out[i] = e.c
	}
	return out, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp is best effort; failures return the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// AddTodo appends a to-do to the record. due may be empty.
func (s *Store) AddTodo(kind constants.RecordType, id, text, due string) (entity.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return entity.Todo{}, common.InvalidInputErrorf("to-do text is required")
	}
	todo := entity.Todo{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		Text:      text,
		DueDate:   strings.TrimSpace(due),
		CreatedAt: s.timestamp(),
	}
	err := s.update(kind, id, func(p entity.Payload) error {
		j := entity.JournalOf(p)
		j.Todos = append(j.Todos, todo)
		return nil
	})
	if err != nil {
		return entity.Todo{}, err
	}
	s.logger.Info("records.todo.added", "kind", string(kind), "record_id", id, "todo_id", todo.ID, "due", todo.DueDate)
	return todo, nil
}

// SetTodoDone marks a to-do done or not done.
func (s *Store) SetTodoDone(kind constants.RecordType, id, todoID string, done bool) error {
	return s.update(kind, id, func(p entity.Payload) error {
		j := entity.JournalOf(p)
		for i := range j.Todos {
			if j.Todos[i].ID == todoID {
				j.Todos[i].Done = done
				return nil
			}
		}
		return common.NotFoundError(fmt.Sprintf("to-do %q not found", todoID))
	})
}

// DeleteTodo removes a to-do. Unknown ids are ignored.
func (s *Store) DeleteTodo(kind constants.RecordType, id, todoID string) error {
	return s.update(kind, id, func(p entity.Payload) error {
		j := entity.JournalOf(p)
		kept := j.Todos[:0]
		for _, t := range j.Todos {
			if t.ID != todoID {
				kept = append(kept, t)
			}
		}
		j.Todos = kept
		return nil
	})
}
