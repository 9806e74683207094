package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pdfrag/internal/llm"
)

// Selector picks exactly one tool for a query.
type Selector interface {
	Select(ctx context.Context, query string, tools []Tool) (Selection, error)
}

// Selection is the outcome of a selector call.
type Selection struct {
	Choice Choice
	Reason string
}

// ErrNoSelection is returned when the selector output names no valid tool.
var ErrNoSelection = errors.New("router: selector did not pick a valid tool")

const singleSelectPrompt = "Some choices are given below. It is provided in a numbered list (1 to {num_choices}), " +
	"where each item in the list corresponds to a summary.\n" +
	"---------------------\n" +
	"{context_list}" +
	"\n---------------------\n" +
	"Using only the choices above and not prior knowledge, return the choice that is most relevant to the question: '{query_str}'\n\n" +
	"The output should be ONLY JSON formatted as a JSON instance.\n\n" +
	"Here is an example:\n" +
	"[\n" +
	"    {\n" +
	"        \"choice\": 1,\n" +
	"        \"reason\": \"<insert reason for choice>\"\n" +
	"    }\n" +
	"]\n"

// LLMSelector asks the language model to pick one tool from their
// descriptions.
type LLMSelector struct {
	LLM llm.LLM
}

func (s *LLMSelector) Select(ctx context.Context, query string, tools []Tool) (Selection, error) {
	if len(tools) == 0 {
		return Selection{}, ErrNoSelection
	}
	out, err := s.LLM.Complete(ctx, SelectorPrompt(query, tools))
	if err != nil {
		return Selection{}, fmt.Errorf("selector: %w", err)
	}
	n, reason, err := ParseSelection(out)
	if err != nil {
		return Selection{}, err
	}
	if n < 1 || n > len(tools) {
		return Selection{}, fmt.Errorf("%w: choice %d out of range 1..%d", ErrNoSelection, n, len(tools))
	}
	return Selection{Choice: tools[n-1].Choice, Reason: reason}, nil
}

// SelectorPrompt renders the single-selection prompt for tools.
func SelectorPrompt(query string, tools []Tool) string {
	var list strings.Builder
	for i, t := range tools {
		fmt.Fprintf(&list, "(%d) %s\n\n", i+1, t.Description)
	}
	return strings.NewReplacer(
		"{num_choices}", strconv.Itoa(len(tools)),
		"{context_list}", list.String(),
		"{query_str}", query,
	).Replace(singleSelectPrompt)
}

var (
	jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)
	jsonObjRe   = regexp.MustCompile(`(?s)\{.*?\}`)
	firstIntRe  = regexp.MustCompile(`\d+`)
)

// ParseSelection extracts the 1-based choice and reason from model output.
// It accepts a JSON array or object and falls back to the first integer.
func ParseSelection(out string) (int, string, error) {
	type answer struct {
		Choice int    `json:"choice"`
		Reason string `json:"reason"`
	}
	if m := jsonArrayRe.FindString(out); m != "" {
		var answers []answer
		if err := json.Unmarshal([]byte(m), &answers); err == nil && len(answers) > 0 {
			return answers[0].Choice, answers[0].Reason, nil
		}
	}
	if m := jsonObjRe.FindString(out); m != "" {
		var a answer
		if err := json.Unmarshal([]byte(m), &a); err == nil && a.Choice > 0 {
			return a.Choice, a.Reason, nil
		}
	}
	if m := firstIntRe.FindString(out); m != "" {
		n, _ := strconv.Atoi(m)
		return n, "", nil
	}
	return 0, "", fmt.Errorf("%w: %q", ErrNoSelection, truncate(out, 120))
}

// StaticSelector always picks the same choice.
type StaticSelector struct {
	Choice Choice
}

func (s StaticSelector) Select(_ context.Context, _ string, _ []Tool) (Selection, error) {
	return Selection{Choice: s.Choice, Reason: "static"}, nil
}

var summaryKeywords = []string{"summar", "overview", "overall", "describe", "description", "main idea", "what is this document", "about this"}

// KeywordSelector routes to Summarize when the query contains a summary
// keyword and to VectorLookup otherwise. It needs no model and serves as the
// offline selector.
type KeywordSelector struct{}

func (KeywordSelector) Select(_ context.Context, query string, _ []Tool) (Selection, error) {
	q := strings.ToLower(query)
	for _, kw := range summaryKeywords {
		if strings.Contains(q, kw) {
			return Selection{Choice: Summarize, Reason: "matched keyword " + strconv.Quote(kw)}, nil
		}
	}
	return Selection{Choice: VectorLookup, Reason: "no summary keyword"}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
