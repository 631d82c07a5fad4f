package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"notes-qa-platform/internal/logger"

	"github.com/ledongthuc/pdf"
)

// Document kinds accepted by the extractor.
const (
	KindText = "txt"
	KindPDF  = "pdf"
)

// ErrUnsupportedFormat is returned for document kinds the extractor does not
// handle.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extractor converts raw document blobs into plain text. Extraction that
// succeeds structurally but yields no text returns an empty string with a nil
// error; callers treat empty text as a terminal ingestion failure.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, blob []byte, kind string) (string, error) {
	switch normalizeKind(kind) {
	case KindText:
		return strings.TrimSpace(string(blob)), nil
	case KindPDF:
		return e.extractPDF(ctx, blob)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, kind)
	}
}

func normalizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(kind), "."))
	if kind == "text" {
		return KindText
	}
	return kind
}

// extractPDF concatenates per-page text with newline separators. Pages that
// fail to decode are skipped rather than failing the whole document.
func (e *Extractor) extractPDF(ctx context.Context, blob []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from PDF page", "page", i, "error", err)
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return strings.TrimSpace(textBuilder.String()), nil
}
