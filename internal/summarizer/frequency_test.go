package summarizer

import (
	"strings"
	"testing"
)

func TestSummarize_ShortTextReturnedWhole(t *testing.T) {
	s := NewFrequencySummarizer()
	got, err := s.Summarize("one sentence. two sentence", 3)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "one sentence. two sentence" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarize_PicksFrequentSentencesInOrder(t *testing.T) {
	text := "Attention models weigh tokens. " +
		"The weather was pleasant. " +
		"Attention models scale attention heads. " +
		"Lunch was served late."
	got, err := NewFrequencySummarizer().Summarize(text, 2)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	want := "Attention models weigh tokens. Attention models scale attention heads."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSummarize_Empty(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("   ", 0)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if strings.TrimSpace(got) != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
