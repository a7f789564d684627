package llm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/skydesk/constants"
)

func TestPromptLoaderTrims(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "quote_parser.md"), []byte("\n  You parse quotes.  \n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewPromptLoader(dir).Load(PromptQuote)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "You parse quotes." {
		t.Errorf("Load = %q", got)
	}

	if _, err := NewPromptLoader(dir).Load(PromptBooking); err == nil {
		t.Error("Expected error for missing prompt file")
	}
}

func TestPromptForRecord(t *testing.T) {
	if k, ok := PromptForRecord(constants.Booking); !ok || k != PromptBooking {
		t.Errorf("PromptForRecord(booking) = %q, %v", k, ok)
	}
	if _, ok := PromptForRecord(constants.Enquiry); ok {
		t.Error("Enquiries have no parser prompt")
	}
}

func TestBuildDocumentMessages(t *testing.T) {
	msgs := BuildDocumentMessages("SYS", "transcript text", "")
	if len(msgs) != 2 || msgs[0].Role != RoleSystem || msgs[1].Role != RoleUser {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if msgs[1].Content != "transcript text" {
		t.Errorf("user content = %q", msgs[1].Content)
	}

	msgs = BuildDocumentMessages("SYS", "transcript text", "  client prefers aisle seats \n")
	if want := "transcript text\n\nCONSULTANT_NOTES:\nclient prefers aisle seats"; msgs[1].Content != want {
		t.Errorf("user content = %q, want %q", msgs[1].Content, want)
	}
}

func TestBuildTodoMessages(t *testing.T) {
	msgs := BuildTodoMessages("SYS", "1234567", "10-05-2027", "  chase deposit next friday ")
	want := "LEAD_ID: 1234567\nTODAY: 10-05-2027\nTASK: chase deposit next friday\n"
	if msgs[1].Content != want {
		t.Errorf("user content = %q, want %q", msgs[1].Content, want)
	}
}
