package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"pdfrag/internal/domain"
)

func numberedSentences(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("this is sentence number %d", i)
	}
	return strings.Join(parts, SentenceDelimiter)
}

func TestSentenceChunker_TwentyFiveSentences(t *testing.T) {
	c, err := NewSentenceChunker(20, 1)
	if err != nil {
		t.Fatalf("NewSentenceChunker: %v", err)
	}
	chunks, err := c.Chunk(domain.Document{ID: "doc", Content: numberedSentences(25)})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].FirstSentence != 19 {
		t.Errorf("expected second chunk to start at sentence 19, got %d", chunks[1].FirstSentence)
	}
	if !strings.HasPrefix(chunks[1].Text, "this is sentence number 19") {
		t.Errorf("unexpected second chunk start: %q", chunks[1].Text[:40])
	}
	if chunks[0].ChunkID != "doc:0" || chunks[1].ChunkID != "doc:1" {
		t.Errorf("unexpected chunk ids %q %q", chunks[0].ChunkID, chunks[1].ChunkID)
	}
}

func TestSentenceChunker_PreservesSentenceOrder(t *testing.T) {
	text := numberedSentences(53)
	sentences := Split(text)
	for _, tc := range []struct{ group, overlap int }{{5, 0}, {5, 2}, {7, 6}, {20, 1}, {1, 0}} {
		c, err := NewSentenceChunker(tc.group, tc.overlap)
		if err != nil {
			t.Fatalf("NewSentenceChunker(%d,%d): %v", tc.group, tc.overlap, err)
		}
		chunks, _ := c.Chunk(domain.Document{ID: "d", Content: text})
		if len(chunks) == 0 {
			t.Fatalf("group=%d overlap=%d: no chunks", tc.group, tc.overlap)
		}
		if len(chunks) > len(sentences) {
			t.Errorf("group=%d overlap=%d: %d chunks exceed %d sentences", tc.group, tc.overlap, len(chunks), len(sentences))
		}
		for i, ch := range chunks {
			got := Split(ch.Text)
			n := c.Stride()
			if n > len(got) {
				n = len(got)
			}
			want := sentences[ch.FirstSentence : ch.FirstSentence+n]
			if strings.Join(got[:n], "|") != strings.Join(want, "|") {
				t.Errorf("group=%d overlap=%d chunk %d: sentence order mismatch", tc.group, tc.overlap, i)
			}
			if i > 0 && ch.FirstSentence-chunks[i-1].FirstSentence != c.Stride() {
				t.Errorf("group=%d overlap=%d chunk %d: stride %d", tc.group, tc.overlap, i, ch.FirstSentence-chunks[i-1].FirstSentence)
			}
		}
	}
}

func TestSentenceChunker_FewerSentencesThanGroup(t *testing.T) {
	c, _ := NewSentenceChunker(20, 1)
	chunks, _ := c.Chunk(domain.Document{Content: "first sentence here. second sentence"})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "first sentence here. second sentence" {
		t.Errorf("unexpected chunk %q", chunks[0].Text)
	}
}

func TestSentenceChunker_LengthThreshold(t *testing.T) {
	c, _ := NewSentenceChunker(20, 1)
	for _, in := range []string{"", "tiny", "exactly10c"} {
		chunks, _ := c.Chunk(domain.Document{Content: in})
		if len(chunks) != 0 {
			t.Errorf("%q: expected 0 chunks, got %d", in, len(chunks))
		}
	}
	chunks, _ := c.Chunk(domain.Document{Content: "eleven char"})
	if len(chunks) != 1 {
		t.Errorf("expected 11-char text to survive, got %d chunks", len(chunks))
	}
}

func TestSentenceChunker_LengthCountsCharacters(t *testing.T) {
	c, _ := NewSentenceChunker(20, 1)
	// Six characters, twelve bytes.
	chunks, _ := c.Chunk(domain.Document{Content: "éééééé"})
	if len(chunks) != 0 {
		t.Errorf("6-character text kept: got %d chunks", len(chunks))
	}
	chunks, _ = c.Chunk(domain.Document{Content: "ééééééééééé"})
	if len(chunks) != 1 {
		t.Errorf("11-character text dropped: got %d chunks", len(chunks))
	}
}

func TestSentenceChunker_ShortTailDropped(t *testing.T) {
	c, _ := NewSentenceChunker(2, 0)
	chunks, _ := c.Chunk(domain.Document{Content: "a long enough first sentence. and a second one. x"})
	if len(chunks) != 1 {
		t.Fatalf("expected tail chunk to be filtered, got %d chunks", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
}

func TestNewSentenceChunker_RejectsNonPositiveStride(t *testing.T) {
	for _, tc := range []struct{ group, overlap int }{{5, 5}, {5, 6}, {1, 1}} {
		_, err := NewSentenceChunker(tc.group, tc.overlap)
		if !errors.Is(err, ErrInvalidStride) {
			t.Errorf("group=%d overlap=%d: expected ErrInvalidStride, got %v", tc.group, tc.overlap, err)
		}
	}
	if _, err := NewSentenceChunker(0, 0); err == nil {
		t.Error("expected error for zero group size")
	}
	if _, err := NewSentenceChunker(3, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
}
