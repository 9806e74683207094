package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pdfrag/internal/llm"
)

// EmptyResponse is streamed when retrieval finds nothing to answer from.
const EmptyResponse = "Empty Response"

// DefaultContextChars bounds the context packed into a single prompt.
const DefaultContextChars = 12000

// QueryEngine answers a query with a stream of answer fragments.
type QueryEngine interface {
	Query(ctx context.Context, query string) (llm.Stream, error)
}

// VectorEngine retrieves the most similar chunks and synthesizes an answer
// with the QA template, refining it over further context with the refine
// template. Only the final model call is streamed.
type VectorEngine struct {
	Index        *VectorIndex
	LLM          llm.LLM
	Templates    Templates
	TopK         int
	ContextChars int
	Log          *slog.Logger
}

func (e *VectorEngine) Query(ctx context.Context, query string) (llm.Stream, error) {
	results, err := e.Index.Retrieve(ctx, query, e.TopK)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Chunk.Text)
	}
	contexts := pack(texts, contextBudget(e.ContextChars))
	if len(contexts) == 0 {
		return llm.NewSliceStream(nil, EmptyResponse), nil
	}
	logger(e.Log).Debug("vector synthesis", "stage", "query", "retrieved", len(results), "prompts", len(contexts))

	qa := Render(e.Templates.QA, map[string]string{"context_str": contexts[0], "query_str": query})
	if len(contexts) == 1 {
		return e.LLM.Stream(ctx, qa)
	}
	answer, err := e.LLM.Complete(ctx, qa)
	if err != nil {
		return nil, fmt.Errorf("qa synthesis: %w", err)
	}
	for i, c := range contexts[1:] {
		refine := Render(e.Templates.Refine, map[string]string{
			"query_str":       query,
			"existing_answer": answer,
			"context_msg":     c,
		})
		if i == len(contexts)-2 {
			return e.LLM.Stream(ctx, refine)
		}
		if answer, err = e.LLM.Complete(ctx, refine); err != nil {
			return nil, fmt.Errorf("refine synthesis: %w", err)
		}
	}
	return nil, fmt.Errorf("refine synthesis: no context left")
}

// SummaryEngine answers from every chunk of a SummaryIndex by tree
// summarization: chunks are packed into prompts, each prompt is answered,
// and the answers are summarized again until one prompt remains. That last
// prompt is streamed.
type SummaryEngine struct {
	Index        *SummaryIndex
	LLM          llm.LLM
	Templates    Templates
	ContextChars int
	Log          *slog.Logger
}

func (e *SummaryEngine) Query(ctx context.Context, query string) (llm.Stream, error) {
	budget := contextBudget(e.ContextChars)
	texts := e.Index.Texts()
	for level := 0; ; level++ {
		contexts := pack(texts, budget)
		if len(contexts) == 0 {
			return llm.NewSliceStream(nil, EmptyResponse), nil
		}
		logger(e.Log).Debug("tree summarize", "stage", "query", "level", level, "prompts", len(contexts))
		if len(contexts) == 1 {
			return e.LLM.Stream(ctx, e.render(contexts[0], query))
		}
		next := make([]string, 0, len(contexts))
		for _, c := range contexts {
			out, err := e.LLM.Complete(ctx, e.render(c, query))
			if err != nil {
				return nil, fmt.Errorf("tree summarize level %d: %w", level, err)
			}
			next = append(next, out)
		}
		if len(next) >= len(texts) {
			// Answers are not shrinking; force a single final prompt.
			return e.LLM.Stream(ctx, e.render(strings.Join(next, "\n\n"), query))
		}
		texts = next
	}
}

func (e *SummaryEngine) render(block, query string) string {
	return Render(e.Templates.Summary, map[string]string{"context_str": block, "query_str": query})
}

// pack joins texts into as few blocks as fit budget characters each. A
// single text longer than budget gets a block of its own.
func pack(texts []string, budget int) []string {
	var out []string
	var cur strings.Builder
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+2+len(t) > budget {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(t)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func contextBudget(n int) int {
	if n <= 0 {
		return DefaultContextChars
	}
	return n
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
