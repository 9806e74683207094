package index

import (
	"fmt"

	"pdfrag/internal/domain"
)

// DocumentSet holds the two collections the indexes are built from.
type DocumentSet struct {
	// AllChunks feeds the vector index, one retrievable unit per chunk.
	AllChunks []domain.Chunk
	// SummarySeed holds only the first chunk and feeds the summary index.
	SummarySeed []domain.Chunk
}

// BuildDocumentSet splits chunks into the two collections. Zero chunks is
// an ErrEmptyContent failure.
func BuildDocumentSet(chunks []domain.Chunk) (DocumentSet, error) {
	if len(chunks) == 0 {
		return DocumentSet{}, fmt.Errorf("build document set: %w", domain.ErrEmptyContent)
	}
	return DocumentSet{
		AllChunks:   chunks,
		SummarySeed: chunks[:1],
	}, nil
}
