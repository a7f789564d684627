package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/skydesk/internal/common"
)

// New returns the extractor for cfg.Backend. An unknown backend means the capability is unavailable.
func New(cfg common.ExtractConfig, logger *slog.Logger) (TextExtractor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNative:
		return NewNativeExtractor(logger), nil
	case BackendPdftotext:
		return NewPdftotextExtractor(cfg.Pdftotext, nil, logger), nil
	default:
		return nil, common.ExtractionUnavailableError(fmt.Sprintf("unknown pdf backend %q", cfg.Backend), nil)
	}
}
