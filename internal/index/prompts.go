package index

import "strings"

// Prompt templates use phi-3 chat markers. Placeholders are replaced
// literally by Render.
const (
	QATemplate = "<|user|>\n" +
		"Context information is below.\n" +
		"---------------------\n" +
		"{context_str}\n" +
		"---------------------\n" +
		"Given the context information and not prior knowledge, answer the query\n" +
		"Query: {query_str}" +
		" <|end|>\n" +
		"<|assistant|>"

	RefineTemplate = "<|user|>\n" +
		"The original query is as follows: {query_str}\n" +
		"We have provided an existing answer: {existing_answer}\n" +
		"We have the opportunity to refine the existing answer (only if needed) with some more context below.\n" +
		"---------------------\n" +
		"{context_msg}\n" +
		"---------------------\n" +
		"Given the new context, refine the original answer to better answer the query. If the context isn't useful, return the original answer." +
		" <|end|>\n" +
		"<|assistant|>"

	SummaryTemplate = "<|user|>\n" +
		"Context information from multiple sources is below.\n" +
		"---------------------\n" +
		"{context_str}\n" +
		"---------------------\n" +
		"Given the information from multiple sources and not prior knowledge, answer the query.\n" +
		"Query: {query_str}" +
		" <|end|>\n" +
		"<|assistant|>"
)

// Templates groups the prompts used by the query engines.
type Templates struct {
	QA      string
	Refine  string
	Summary string
}

// DefaultTemplates returns the built-in prompt templates.
func DefaultTemplates() Templates {
	return Templates{QA: QATemplate, Refine: RefineTemplate, Summary: SummaryTemplate}
}

// Render substitutes {name} placeholders in tmpl. Unknown placeholders are
// left untouched.
func Render(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
