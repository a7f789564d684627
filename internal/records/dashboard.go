package records

import (
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/entity"
)

// ActiveTodo is an open to-do together with the record it belongs to.
type ActiveTodo struct {
	RecordID  string
	Type      constants.RecordType
	TypeLabel string
	Name      string
	TodoID    string
	Text      string
	DueDate   string

	due time.Time
}

// ActiveTodos collects every open to-do across all records, ordered by due date
// (undated last), then record type label, then client name.
func (s *Store) ActiveTodos() ([]ActiveTodo, error) {
	var out []ActiveTodo
	for _, kind := range constants.AllRecordTypes() {
		ids, err := s.ids(kind)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			p, err := s.Load(kind, id)
			if err != nil {
				continue
			}
			name := p.Summary().Name
			if name == "" {
				name = "N/A"
			}
			for _, t := range entity.JournalOf(p).Todos {
				text := strings.TrimSpace(t.Text)
				if t.Done || text == "" {
					continue
				}
				due := strings.TrimSpace(t.DueDate)
				out = append(out, ActiveTodo{
					RecordID:  id,
					Type:      kind,
					TypeLabel: kind.Label(),
					Name:      name,
					TodoID:    t.ID,
					Text:      text,
					DueDate:   due,
					due:       parseDue(due),
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.due.Equal(b.due) {
			return a.due.Before(b.due)
		}
		if a.TypeLabel != b.TypeLabel {
			return a.TypeLabel < b.TypeLabel
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return out, nil
}

var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func parseDue(s string) time.Time {
	for _, layout := range []string{"02-01-2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return farFuture
}
