package entity

// Todo is a follow-up task attached to a record.
type Todo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	DueDate   string `json:"due_date,omitempty"` // DD-MM-YYYY when the model's date could be normalized
	Done      bool   `json:"done"`
	CreatedAt string `json:"created_at"`
}

// Communication is one logged contact with the client.
type Communication struct {
	Timestamp string `json:"timestamp"` // RFC3339 UTC, seconds precision
	Method    string `json:"method"`
	Direction string `json:"direction"` // incoming | outgoing
	Note      string `json:"note"`
}

// Metadata is written next to a committed quote or booking.
type Metadata struct {
	RawResponse      string `json:"raw_response"`
	Transcript       string `json:"transcript"`
	Notes            string `json:"notes"`
	OriginalFilename string `json:"original_filename"`
	SavedAt          string `json:"saved_at"`
}

// Draft is the output of a document ingestion run.
type Draft struct {
	Parsed      map[string]any `json:"parsed"`
	RawResponse string         `json:"raw_response"`
	Transcript  string         `json:"transcript"`
}

// StoredDraft is the content of draft.json.
type StoredDraft struct {
	Draft
	Notes            string `json:"notes"`
	OriginalFilename string `json:"original_filename"`
	PDFFilename      string `json:"pdf_filename"`
}
