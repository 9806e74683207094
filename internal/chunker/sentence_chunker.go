package chunker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"pdfrag/internal/domain"
)

// SentenceDelimiter separates sentences in normalized text.
const SentenceDelimiter = ". "

// MinChunkLength is the length in characters a joined chunk must exceed to be kept.
const MinChunkLength = 10

// ErrInvalidStride is returned when overlap leaves no forward progress.
var ErrInvalidStride = errors.New("chunker: overlap must be smaller than group size")

// SentenceChunker splits text into fixed-size groups of sentences that
// overlap by a fixed number of sentences.
type SentenceChunker struct {
	groupSize int
	overlap   int
	minLength int
}

// NewSentenceChunker validates the group size and overlap and returns a chunker.
func NewSentenceChunker(groupSize, overlap int) (*SentenceChunker, error) {
	if groupSize <= 0 {
		return nil, fmt.Errorf("chunker: group size must be positive, got %d", groupSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must not be negative, got %d", overlap)
	}
	if groupSize-overlap < 1 {
		return nil, fmt.Errorf("%w (group_size=%d overlap=%d)", ErrInvalidStride, groupSize, overlap)
	}
	return &SentenceChunker{
		groupSize: groupSize,
		overlap:   overlap,
		minLength: MinChunkLength,
	}, nil
}

// Stride is the number of sentences between the starts of consecutive chunks.
func (c *SentenceChunker) Stride() int { return c.groupSize - c.overlap }

// Split returns the sentence list for text.
func Split(text string) []string {
	return strings.Split(text, SentenceDelimiter)
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := Split(document.Content)
	var chunks []domain.Chunk
	idx := 0
	for i := 0; i < len(sentences); i += c.Stride() {
		end := i + c.groupSize
		if end > len(sentences) {
			end = len(sentences)
		}
		text := strings.Join(sentences[i:end], SentenceDelimiter)
		if utf8.RuneCountInString(text) <= c.minLength {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID:    document.ID,
			ChunkID:       document.ID + ":" + strconv.Itoa(idx),
			Text:          text,
			Index:         idx,
			FirstSentence: i,
		})
		idx++
	}
	return chunks, nil
}
