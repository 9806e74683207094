package index

import (
	"fmt"

	"pdfrag/internal/domain"
)

// SummaryIndex keeps the representative chunks used to answer
// whole-document questions. Every query reads all of them.
type SummaryIndex struct {
	chunks []domain.Chunk
}

// NewSummaryIndex builds a summary index over seed. An empty seed fails
// with ErrEmptyContent.
func NewSummaryIndex(seed []domain.Chunk) (*SummaryIndex, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("summary index: %w", domain.ErrEmptyContent)
	}
	return &SummaryIndex{chunks: seed}, nil
}

// Texts returns the indexed chunk texts in order.
func (s *SummaryIndex) Texts() []string {
	out := make([]string, len(s.chunks))
	for i, ch := range s.chunks {
		out[i] = ch.Text
	}
	return out
}
