package drafts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/entity"
)

func sampleDraft() entity.Draft {
	return entity.Draft{
		Parsed:      map[string]any{"lead_id": "1234567"},
		RawResponse: "{\"lead_id\": \"1234567\"}",
		Transcript:  "QUOTE 1234567",
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	id := NewID()

	if _, err := s.Stage(id, bytes.NewReader([]byte("%PDF-1.4"))); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := s.Save(id, sampleDraft(), SaveOptions{Notes: "vip", OriginalFilename: "Quote 1234567.pdf", SourcePDF: s.PDFPath(id)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok := s.Load(id)
	if !ok {
		t.Fatal("Expected draft to load")
	}
	if got.Parsed["lead_id"] != "1234567" || got.RawResponse != sampleDraft().RawResponse || got.Transcript != "QUOTE 1234567" {
		t.Errorf("unexpected draft %+v", got)
	}
	if got.Notes != "vip" || got.OriginalFilename != "Quote 1234567.pdf" || got.PDFFilename != constants.DraftPDF {
		t.Errorf("unexpected draft metadata %+v", got)
	}
}

func TestSaveCopiesExternalPDF(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	id := NewID()
	src := filepath.Join(t.TempDir(), "upload.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.7 body"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Save(id, sampleDraft(), SaveOptions{SourcePDF: src}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(s.PDFPath(id))
	if err != nil || string(b) != "%PDF-1.7 body" {
		t.Errorf("Expected copied pdf, got %q (%v)", b, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("Expected source to be left in place: %v", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	id := NewID()
	_, _ = s.Stage(id, bytes.NewReader([]byte("%PDF")))

	_ = s.Save(id, sampleDraft(), SaveOptions{Notes: "first"})
	_ = s.Save(id, sampleDraft(), SaveOptions{Notes: "second"})

	got, ok := s.Load(id)
	if !ok || got.Notes != "second" {
		t.Errorf("Expected second save to win, got %+v", got)
	}
}

func TestLoadPartialDraftIsAbsent(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	// data file without pdf
	noPDF := NewID()
	if err := s.Save(noPDF, sampleDraft(), SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := s.Load(noPDF); ok {
		t.Error("Expected draft without pdf to be absent")
	}

	// pdf without data file
	noData := NewID()
	if _, err := s.Stage(noData, bytes.NewReader([]byte("%PDF"))); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if _, ok := s.Load(noData); ok {
		t.Error("Expected draft without draft.json to be absent")
	}

	// corrupt data file
	corrupt := NewID()
	_, _ = s.Stage(corrupt, bytes.NewReader([]byte("%PDF")))
	if err := os.WriteFile(filepath.Join(s.Dir(corrupt), constants.DraftFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Load(corrupt); ok {
		t.Error("Expected corrupt draft to be absent")
	}
}

func TestLoadRejectsUnsafeIDs(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	for _, id := range []string{"", "../../etc", "not-a-draft", "0F8FAD5BD9CB469FA16570867728950E"} {
		if _, ok := s.Load(id); ok {
			t.Errorf("Expected id %q to be absent", id)
		}
	}
	if err := s.Save("../escape", sampleDraft(), SaveOptions{}); err == nil {
		t.Error("Expected Save to reject unsafe id")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	id := NewID()
	_, _ = s.Stage(id, bytes.NewReader([]byte("%PDF")))
	_ = s.Save(id, sampleDraft(), SaveOptions{})

	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(s.Dir(id)); !os.IsNotExist(err) {
		t.Errorf("Expected draft dir removed, stat err = %v", err)
	}
	if err := s.Delete(id); err != nil {
		t.Errorf("Expected second delete to be a no-op, got %v", err)
	}
	if err := s.Delete(NewID()); err != nil {
		t.Errorf("Expected delete of unknown id to be a no-op, got %v", err)
	}
}

func TestNewIDIsValid(t *testing.T) {
	a, b := NewID(), NewID()
	if !ValidID(a) || !ValidID(b) {
		t.Fatalf("Expected generated ids to be valid: %q %q", a, b)
	}
	if a == b {
		t.Error("Expected distinct ids")
	}
}
