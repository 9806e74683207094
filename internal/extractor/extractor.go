// Package extractor turns PDF documents into ordered per-page text.
package extractor

import (
	"context"
	"log/slog"
	"strings"

	"pdfrag/internal/domain"
)

// PageSource exposes the pages of a document in order. Page numbers are 1-based.
type PageSource interface {
	NumPage() int
	PageText(page int) (string, error)
}

// ExtractPages returns one RawPage per page of src, in order. Pages that
// yield no text (or fail individually) are logged and recorded as empty.
func ExtractPages(ctx context.Context, src PageSource, log *slog.Logger) ([]domain.RawPage, error) {
	n := src.NumPage()
	pages := make([]domain.RawPage, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := src.PageText(i)
		if err != nil {
			log.Warn("page extraction failed", "stage", "extract", "page", i, "error", err)
			text = ""
		}
		if strings.TrimSpace(text) == "" {
			log.Warn("page produced no text", "stage", "extract", "page", i)
		}
		pages = append(pages, domain.RawPage{Index: i, Text: text})
	}
	return pages, nil
}
