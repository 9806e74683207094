package cli

import (
	"log/slog"
	"strings"
	"time"

	"pdfrag/internal/config"
	"pdfrag/internal/embedding"
	embollama "pdfrag/internal/embedding/ollama"
	"pdfrag/internal/embedding/tfidf"
	"pdfrag/internal/index"
	llmollama "pdfrag/internal/llm/ollama"
	"pdfrag/internal/router"
	"pdfrag/internal/service"
	"pdfrag/internal/vectorstore"
	"pdfrag/internal/vectorstore/memory"
	"pdfrag/internal/vectorstore/qdrant"
)

// newService assembles the session service from cfg.
func newService(cfg *config.AppConfig, log *slog.Logger) (*service.Service, error) {
	model := llmollama.New(llmollama.Config{
		BaseURL:     cfg.LLM.Host,
		Model:       cfg.LLM.Model,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		Temperature: cfg.LLM.Temperature,
	}, log)

	deps := service.Deps{
		LLM:         model,
		NewEmbedder: embedderFactory(cfg.Embedder),
		NewStore:    storeFactory(cfg.VectorStore),
	}
	if cfg.Router.Selector == "keyword" {
		deps.Selector = router.KeywordSelector{}
	}

	opts := service.Options{
		FirstSection:     cfg.Chunker.FirstSection,
		IgnoreAfter:      cfg.Chunker.IgnoreAfter,
		GroupSize:        cfg.Chunker.GroupSize,
		Overlap:          cfg.Chunker.Overlap,
		TopK:             cfg.Retrieval.TopK,
		ContextChars:     cfg.Retrieval.ContextChars,
		EmbedConcurrency: cfg.Retrieval.EmbedConcurrency,
		PreviewSentences: cfg.Summarizer.MaxSentences,
		Templates:        index.DefaultTemplates(),
	}
	return service.New(deps, opts, log)
}

func embedderFactory(cfg config.EmbedderConfig) func() embedding.Embedder {
	if cfg.Type == "tfidf" {
		return func() embedding.Embedder { return tfidf.NewEmbedder() }
	}
	// The Ollama client is stateless per document, so one is shared.
	client := embollama.NewClient(embollama.Config{
		BaseURL:    cfg.Host,
		Model:      cfg.Model,
		Timeout:    time.Duration(cfg.TimeoutSecs) * time.Second,
		MaxRetries: cfg.MaxRetries,
	})
	return func() embedding.Embedder { return client }
}

func storeFactory(cfg config.VectorStoreConfig) func(string) vectorstore.Storage {
	if cfg.Type == "qdrant" {
		q := cfg.Qdrant
		return func(sessionID string) vectorstore.Storage {
			return qdrant.NewStorage(qdrant.Config{
				URL:        q.URL,
				APIKey:     q.APIKey,
				Collection: collectionName(q.CollectionPrefix, sessionID),
				Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
			})
		}
	}
	return func(string) vectorstore.Storage { return memory.NewStorage() }
}

func collectionName(prefix, sessionID string) string {
	id := strings.ReplaceAll(sessionID, "-", "")
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
