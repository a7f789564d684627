package llm

import "context"

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type ChatOptions struct {
	// EnforceJSON asks the provider for its JSON output mode.
	EnforceJSON bool
}

// Response is the model's reply text, trimmed.
type Response struct {
	Content string
	Model   string
	// JSONMode is false when the provider rejected JSON mode and the plain retry answered.
	JSONMode bool
}

// Gateway is the interface the ingestion pipelines depend on.
type Gateway interface {
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (Response, error)
}
