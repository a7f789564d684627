package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/common"
)

// PromptKind names one static prompt document.
type PromptKind string

const (
	PromptQuote   PromptKind = "quote_parser"
	PromptBooking PromptKind = "booking_parser"
	PromptTodo    PromptKind = "todo_parser"
)

// PromptForRecord returns the parser prompt for a document-bearing record type.
func PromptForRecord(t constants.RecordType) (PromptKind, bool) {
	switch t {
	case constants.Quote:
		return PromptQuote, true
	case constants.Booking:
		return PromptBooking, true
	}
	return "", false
}

// PromptLoader reads prompts from <Dir>/<kind>.md.
type PromptLoader struct {
	Dir string
}

func NewPromptLoader(dir string) *PromptLoader {
	return &PromptLoader{Dir: dir}
}

func (l *PromptLoader) Path(kind PromptKind) string {
	return filepath.Join(l.Dir, string(kind)+".md")
}

// Load returns the trimmed prompt text. The file is read on every call.
func (l *PromptLoader) Load(kind PromptKind) (string, error) {
	path := l.Path(kind)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", common.NewAppError("PROMPT_ERROR", fmt.Sprintf("read prompt %s", path), err)
	}
	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		return "", common.NewAppError("PROMPT_ERROR", fmt.Sprintf("prompt %s is empty", path), common.ErrInvalidInput)
	}
	return prompt, nil
}

// BuildDocumentMessages packages a PDF transcript and optional consultant notes.
func BuildDocumentMessages(prompt, transcript, notes string) []Message {
	user := transcript
	if n := strings.TrimSpace(notes); n != "" {
		user += "\n\nCONSULTANT_NOTES:\n" + n
	}
	return []Message{
		{Role: RoleSystem, Content: prompt},
		{Role: RoleUser, Content: user},
	}
}

// BuildTodoMessages packages the typed to-do fields.
func BuildTodoMessages(prompt, leadID, today, text string) []Message {
	var b strings.Builder
	b.WriteString("LEAD_ID: ")
	b.WriteString(leadID)
	b.WriteString("\nTODAY: ")
	b.WriteString(today)
	b.WriteString("\nTASK: ")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n")
	return []Message{
		{Role: RoleSystem, Content: prompt},
		{Role: RoleUser, Content: b.String()},
	}
}
