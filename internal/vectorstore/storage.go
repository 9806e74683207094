package vectorstore

import (
	"context"

	"pdfrag/internal/domain"
)

// Storage persists chunk vectors and supports similarity search. A Storage
// instance belongs to a single session's vector index.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Clear(ctx context.Context) error
}
