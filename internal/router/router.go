// Package router sends each query to exactly one of two query engines.
package router

import (
	"context"
	"fmt"
	"log/slog"

	"pdfrag/internal/index"
	"pdfrag/internal/llm"
)

// Tool pairs a query engine with the description the selector reads.
type Tool struct {
	Choice      Choice
	Description string
	Engine      index.QueryEngine
}

// Response is the routed answer. Stream must be drained or closed.
type Response struct {
	Choice Choice
	Reason string
	Stream llm.Stream
}

// Router holds both query engines and the selector that picks between them.
type Router struct {
	tools    []Tool
	selector Selector
	log      *slog.Logger
}

// New builds a router over the summary and vector engines.
func New(summary, vector index.QueryEngine, selector Selector, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		tools: []Tool{
			{Choice: Summarize, Description: SummaryDescription, Engine: summary},
			{Choice: VectorLookup, Description: VectorDescription, Engine: vector},
		},
		selector: selector,
		log:      log,
	}
}

// Tools returns the routed tools in selection order.
func (r *Router) Tools() []Tool { return r.tools }

// Query selects one tool for query and runs only that tool's engine.
func (r *Router) Query(ctx context.Context, query string) (*Response, error) {
	sel, err := r.selector.Select(ctx, query, r.tools)
	if err != nil {
		return nil, fmt.Errorf("select tool: %w", err)
	}
	tool, ok := r.tool(sel.Choice)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSelection, sel.Choice)
	}
	r.log.Info("query routed", "stage", "route", "choice", sel.Choice.String(), "reason", sel.Reason)

	s, err := tool.Engine.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s engine: %w", sel.Choice, err)
	}
	return &Response{Choice: sel.Choice, Reason: sel.Reason, Stream: s}, nil
}

func (r *Router) tool(c Choice) (Tool, bool) {
	for _, t := range r.tools {
		if t.Choice == c {
			return t, true
		}
	}
	return Tool{}, false
}
