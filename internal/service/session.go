// Package service implements the upload, query and clear triggers on top
// of an explicit Session handle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"pdfrag/internal/chunker"
	"pdfrag/internal/domain"
	"pdfrag/internal/embedding"
	"pdfrag/internal/extractor"
	"pdfrag/internal/index"
	"pdfrag/internal/llm"
	"pdfrag/internal/router"
	"pdfrag/internal/summarizer"
	"pdfrag/internal/vectorstore"
)

// Messages shown to callers. Internal detail only goes to the log.
const (
	NoSessionMessage      = "Agent not initialized. Please upload a PDF first."
	QueryErrorMessage     = "An error occurred while processing your query."
	CreationFailedMessage = "Agent creation failed."
)

// Deps are the external services a Service builds sessions from.
// NewEmbedder and NewStore are called once per session because both hold
// per-document state.
type Deps struct {
	LLM         llm.LLM
	NewEmbedder func() embedding.Embedder
	NewStore    func(sessionID string) vectorstore.Storage
	// Selector defaults to an LLMSelector over LLM.
	Selector   router.Selector
	Summarizer domain.Summarizer
}

// Options tune pre-processing and retrieval.
type Options struct {
	FirstSection     string
	IgnoreAfter      string
	GroupSize        int
	Overlap          int
	TopK             int
	ContextChars     int
	EmbedConcurrency int
	PreviewSentences int
	Templates        index.Templates
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		FirstSection:     "abstract",
		IgnoreAfter:      "references",
		GroupSize:        20,
		Overlap:          1,
		TopK:             2,
		ContextChars:     index.DefaultContextChars,
		EmbedConcurrency: 4,
		PreviewSentences: summarizer.DefaultSentences,
		Templates:        index.DefaultTemplates(),
	}
}

type Service struct {
	deps    Deps
	opts    Options
	chunker domain.Chunker
	log     *slog.Logger
}

// New validates opts and returns a Service.
func New(deps Deps, opts Options, log *slog.Logger) (*Service, error) {
	if deps.LLM == nil || deps.NewEmbedder == nil || deps.NewStore == nil {
		return nil, errors.New("service: LLM, NewEmbedder and NewStore are required")
	}
	c, err := chunker.NewSentenceChunker(opts.GroupSize, opts.Overlap)
	if err != nil {
		return nil, err
	}
	if deps.Selector == nil {
		deps.Selector = &router.LLMSelector{LLM: deps.LLM}
	}
	if deps.Summarizer == nil {
		deps.Summarizer = summarizer.NewFrequencySummarizer()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{deps: deps, opts: opts, chunker: c, log: log}, nil
}

// Session owns the indexes and router built from one uploaded document.
// A new upload replaces the session wholesale.
type Session struct {
	ID      string
	Name    string
	Pages   int
	Chunks  int
	Preview string

	router *router.Router
	vector *index.VectorIndex
}

// Close releases the session's vector store.
func (s *Session) Close(ctx context.Context) error {
	if s == nil || s.vector == nil {
		return nil
	}
	return s.vector.Close(ctx)
}

// CreateSession runs the upload pipeline over src: extraction, section
// trimming, chunking and index construction.
func (s *Service) CreateSession(ctx context.Context, src extractor.PageSource, name string) (*Session, error) {
	id := uuid.NewString()
	log := s.log.With("session", id, "document", name)

	pages, err := extractor.ExtractPages(ctx, src, log)
	if err != nil {
		log.Error("extraction failed", "stage", "extract", "error", err)
		if !errors.Is(err, domain.ErrExtraction) {
			err = fmt.Errorf("%w: %w", domain.ErrExtraction, err)
		}
		return nil, err
	}
	log.Info("pages extracted", "stage", "extract", "pages", len(pages))

	text := chunker.Normalize(pages)
	if !chunker.HasSection(text, s.opts.FirstSection, s.opts.IgnoreAfter) {
		log.Warn("section markers not found, using whole text", "stage", "trim",
			"first_section", s.opts.FirstSection, "ignore_after", s.opts.IgnoreAfter)
	}
	window := chunker.TrimSection(text, s.opts.FirstSection, s.opts.IgnoreAfter)

	chunks, err := s.chunker.Chunk(domain.Document{ID: id, Path: name, Content: window})
	if err != nil {
		log.Error("chunking failed", "stage", "chunk", "error", err)
		return nil, err
	}
	docs, err := index.BuildDocumentSet(chunks)
	if err != nil {
		log.Error("no usable text", "stage", "chunk", "chunks", 0, "error", err)
		return nil, err
	}
	log.Info("document chunked", "stage", "chunk", "chunks", len(chunks))

	summaryIdx, err := index.NewSummaryIndex(docs.SummarySeed)
	if err != nil {
		return nil, err
	}
	store := s.deps.NewStore(id)
	vectorIdx, err := index.NewVectorIndex(ctx, s.deps.NewEmbedder(), store, docs.AllChunks,
		index.VectorOptions{EmbedConcurrency: s.opts.EmbedConcurrency})
	if err != nil {
		log.Error("vector index failed", "stage", "index", "error", err)
		// The store may already hold a partially loaded collection.
		if cerr := store.Clear(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn("store cleanup failed", "stage", "index", "error", cerr)
		}
		return nil, fmt.Errorf("build vector index: %w", err)
	}
	log.Info("indexes built", "stage", "index", "vectors", vectorIdx.Len())

	summaryEngine := &index.SummaryEngine{
		Index:        summaryIdx,
		LLM:          s.deps.LLM,
		Templates:    s.opts.Templates,
		ContextChars: s.opts.ContextChars,
		Log:          log,
	}
	vectorEngine := &index.VectorEngine{
		Index:        vectorIdx,
		LLM:          s.deps.LLM,
		Templates:    s.opts.Templates,
		TopK:         s.opts.TopK,
		ContextChars: s.opts.ContextChars,
		Log:          log,
	}

	preview, err := s.deps.Summarizer.Summarize(window, s.opts.PreviewSentences)
	if err != nil {
		log.Warn("preview failed", "stage", "index", "error", err)
	}

	return &Session{
		ID:      id,
		Name:    name,
		Pages:   len(pages),
		Chunks:  len(chunks),
		Preview: preview,
		router:  router.New(summaryEngine, vectorEngine, s.deps.Selector, log),
		vector:  vectorIdx,
	}, nil
}
