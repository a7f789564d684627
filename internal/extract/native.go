package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/skydesk/internal/common"
)

// NativeExtractor reads PDFs in-process.
type NativeExtractor struct {
	logger *slog.Logger
}

func NewNativeExtractor(logger *slog.Logger) *NativeExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativeExtractor{logger: logger}
}

func (e *NativeExtractor) Extract(ctx context.Context, path string) (res TextExtractionResult, err error) {
	start := time.Now()
	res.Method = BackendNative

	// the reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = common.NewAppError(common.CodeExtractionFailed, fmt.Sprintf("read pdf %s", path), fmt.Errorf("%v", r))
		}
		res.Duration = time.Since(start)
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return res, common.NewAppError(common.CodeExtractionFailed, fmt.Sprintf("open pdf %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("extract.native.close_error", "path", path, "error", cerr)
		}
	}()

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, perr))
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	res.Text = strings.Join(pages, "\n")
	res.Pages = numPages
	e.logger.Debug("extract.native.ok", "path", path, "pages", numPages, "text_len", len(res.Text), "warnings", len(res.Warnings))
	return res, nil
}
