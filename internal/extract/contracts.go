package extract

import (
	"context"
	"time"
)

// TextExtractor turns a PDF on disk into its plain-text transcript.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	// Text is every page's text joined by a single "\n"; pages without text contribute "".
	Text     string
	Pages    int
	Method   string // "native" | "pdftotext"
	Duration time.Duration
	Warnings []string
}

// Backend names accepted by New.
const (
	BackendNative    = "native"
	BackendPdftotext = "pdftotext"
)
