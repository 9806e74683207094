package index

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pdfrag/internal/domain"
	"pdfrag/internal/embedding"
	"pdfrag/internal/vectorstore"
)

// VectorOptions tunes vector index construction.
type VectorOptions struct {
	// EmbedConcurrency bounds parallel embedding requests while building.
	EmbedConcurrency int
}

// VectorIndex is a similarity index over every retained chunk.
type VectorIndex struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
	chunks   []domain.Chunk
}

// NewVectorIndex embeds chunks and loads them into store. An empty chunk
// list fails with ErrEmptyContent.
func NewVectorIndex(ctx context.Context, emb embedding.Embedder, store vectorstore.Storage, chunks []domain.Chunk, opts VectorOptions) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("vector index: %w", domain.ErrEmptyContent)
	}
	if opts.EmbedConcurrency <= 0 {
		opts.EmbedConcurrency = 4
	}
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := emb.Prepare(texts); err != nil {
		return nil, fmt.Errorf("prepare embedder: %w", err)
	}

	vectors := make([][]float64, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.EmbedConcurrency)
	for i := range chunks {
		g.Go(func() error {
			vec, err := emb.Embed(gctx, texts[i])
			if err != nil {
				return fmt.Errorf("embed chunk %s: %w", chunks[i].ChunkID, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("vector index: embedder returned empty vectors")
	}
	if err := store.Init(ctx, dim); err != nil {
		return nil, fmt.Errorf("init vector store: %w", err)
	}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("upsert vectors: %w", err)
	}
	return &VectorIndex{embedder: emb, store: store, chunks: chunks}, nil
}

// Len returns the number of indexed chunks.
func (v *VectorIndex) Len() int { return len(v.chunks) }

// Retrieve returns the topK chunks most similar to query. When the query has
// no usable embedding signal, chunks are ranked by token overlap instead.
func (v *VectorIndex) Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 2
	}
	vec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(vec) {
		return lexicalSearch(v.chunks, query, topK), nil
	}
	res, err := v.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	allZero := true
	for _, r := range res {
		if r.Score > 1e-9 {
			allZero = false
			break
		}
	}
	if allZero {
		return lexicalSearch(v.chunks, query, topK), nil
	}
	return res, nil
}

// Close releases the backing store.
func (v *VectorIndex) Close(ctx context.Context) error {
	return v.store.Clear(ctx)
}

func isZero(vec []float64) bool {
	for _, x := range vec {
		if x != 0 {
			return false
		}
	}
	return true
}
