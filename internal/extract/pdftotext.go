package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/joseph-ayodele/skydesk/internal/common"
)

// PdftotextExtractor shells out to poppler's pdftotext.
type PdftotextExtractor struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

func NewPdftotextExtractor(bin string, runner Runner, logger *slog.Logger) *PdftotextExtractor {
	if bin == "" {
		bin = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = CommandRunner{Logger: logger}
	}
	return &PdftotextExtractor{bin: bin, runner: runner, logger: logger}
}

func (e *PdftotextExtractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	res := TextExtractionResult{Method: BackendPdftotext}

	if _, err := os.Stat(path); err != nil {
		return res, common.NewAppError(common.CodeExtractionFailed, fmt.Sprintf("open pdf %s", path), err)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	res.Duration = time.Since(start)
	if err != nil {
		// ErrNotExist: an explicit binary path that points nowhere
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return res, common.ExtractionUnavailableError(e.bin+" is not installed", err)
		}
		msg := strings.TrimSpace(string(errb))
		if msg == "" {
			msg = err.Error()
		}
		return res, common.NewAppError(common.CodeExtractionFailed, fmt.Sprintf("pdftotext %s: %s", path, msg), err)
	}

	pages := splitPages(string(out))
	res.Text = strings.Join(pages, "\n")
	res.Pages = len(pages)
	e.logger.Debug("extract.pdftotext.ok", "path", path, "pages", res.Pages, "text_len", len(res.Text))
	return res, nil
}

// splitPages splits on the form feed pdftotext writes after every page.
func splitPages(text string) []string {
	text = strings.TrimSuffix(text, "\f")
	if text == "" {
		return nil
	}
	pages := strings.Split(text, "\f")
	for i, p := range pages {
		if strings.TrimSpace(p) == "" {
			pages[i] = ""
			continue
		}
		pages[i] = strings.TrimRight(p, "\n")
	}
	return pages
}
