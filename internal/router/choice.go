package router

import "fmt"

// Choice names the query engine a query is routed to.
type Choice int

const (
	// Summarize answers whole-document questions from the summary index.
	Summarize Choice = iota
	// VectorLookup answers specific questions from the vector index.
	VectorLookup
)

func (c Choice) String() string {
	switch c {
	case Summarize:
		return "summarize"
	case VectorLookup:
		return "vector_lookup"
	default:
		return fmt.Sprintf("choice(%d)", int(c))
	}
}

// Valid reports whether c is one of the defined choices.
func (c Choice) Valid() bool { return c == Summarize || c == VectorLookup }

const (
	SummaryDescription = "Useful for summarization or general description questions"
	VectorDescription  = "Useful for specific questions or topic based questions not related to summarization"
)
