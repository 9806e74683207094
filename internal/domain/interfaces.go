package domain

// RawPage is the text extracted from a single PDF page. Index is 1-based.
// An empty Text means the page yielded nothing; it is not an error.
type RawPage struct {
	Index int
	Text  string
}

// Document represents a single uploaded PDF after section trimming.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a group of consecutive sentences used as one retrievable unit.
type Chunk struct {
	DocumentID    string
	ChunkID       string
	Text          string
	Index         int
	FirstSentence int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief extractive summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
