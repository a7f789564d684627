package extract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/skydesk/internal/common"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error
	calls  [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.stdout, f.stderr, f.err
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quote.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestPdftotextJoinsPages(t *testing.T) {
	path := writePDF(t)
	runner := &fakeRunner{stdout: []byte("Page one\n\f\n\fPage three\n\f")}
	e := NewPdftotextExtractor("pdftotext", runner, nil)

	res, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := "Page one\n\nPage three"; res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3", res.Pages)
	}
	if len(runner.calls) != 1 || runner.calls[0][len(runner.calls[0])-1] != "-" {
		t.Errorf("Expected pdftotext to write to stdout, got %v", runner.calls)
	}
}

func TestPdftotextMissingBinaryIsUnavailable(t *testing.T) {
	path := writePDF(t)
	runner := &fakeRunner{err: &exec.Error{Name: "pdftotext", Err: exec.ErrNotFound}}
	e := NewPdftotextExtractor("", runner, nil)

	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrExtractionUnavailable) {
		t.Fatalf("Expected ErrExtractionUnavailable, got %v", err)
	}
}

func TestPdftotextBadBinaryPathIsUnavailable(t *testing.T) {
	path := writePDF(t)
	bin := filepath.Join(t.TempDir(), "bin", "pdftotext")
	e := NewPdftotextExtractor(bin, nil, nil)

	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrExtractionUnavailable) {
		t.Fatalf("Expected ErrExtractionUnavailable, got %v", err)
	}
}

func TestPdftotextParseFailureIsNotUnavailable(t *testing.T) {
	path := writePDF(t)
	runner := &fakeRunner{stderr: []byte("Syntax Error: Couldn't find trailer dictionary"), err: errors.New("exit status 1")}
	e := NewPdftotextExtractor("", runner, nil)

	_, err := e.Extract(context.Background(), path)
	if err == nil {
		t.Fatal("Expected error")
	}
	if errors.Is(err, common.ErrExtractionUnavailable) {
		t.Error("Malformed PDF must not be reported as unavailable")
	}
	if common.ErrorCode(err) != common.CodeExtractionFailed {
		t.Errorf("Expected %s, got %q", common.CodeExtractionFailed, common.ErrorCode(err))
	}
}

func TestNativeMalformedPDF(t *testing.T) {
	path := writePDF(t)
	_, err := NewNativeExtractor(nil).Extract(context.Background(), path)
	if err == nil {
		t.Fatal("Expected error for malformed PDF")
	}
	if errors.Is(err, common.ErrExtractionUnavailable) {
		t.Error("Malformed PDF must not be reported as unavailable")
	}
}

func TestNewBackendSelection(t *testing.T) {
	tx, err := New(common.ExtractConfig{Backend: "native"}, nil)
	if err != nil {
		t.Fatalf("New native: %v", err)
	}
	if _, ok := tx.(*NativeExtractor); !ok {
		t.Errorf("Expected *NativeExtractor, got %T", tx)
	}

	tx, err = New(common.ExtractConfig{Backend: "pdftotext"}, nil)
	if err != nil {
		t.Fatalf("New pdftotext: %v", err)
	}
	if _, ok := tx.(*PdftotextExtractor); !ok {
		t.Errorf("Expected *PdftotextExtractor, got %T", tx)
	}

	_, err = New(common.ExtractConfig{Backend: "tesseract"}, nil)
	if !errors.Is(err, common.ErrExtractionUnavailable) {
		t.Errorf("Expected ErrExtractionUnavailable for unknown backend, got %v", err)
	}
}

func TestSplitPagesEmpty(t *testing.T) {
	if got := splitPages(""); len(got) != 0 {
		t.Errorf("Expected no pages, got %v", got)
	}
}
