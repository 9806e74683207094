package chunker

import (
	"strings"

	"pdfrag/internal/domain"
)

// Normalize concatenates page text in page order, replaces newlines with
// spaces and lowercases the result.
func Normalize(pages []domain.RawPage) string {
	var b strings.Builder
	for _, p := range pages {
		b.WriteString(p.Text)
	}
	return strings.ToLower(strings.ReplaceAll(b.String(), "\n", " "))
}

// TrimSection cuts text to the window starting at the first occurrence of
// startMarker and ending before the last occurrence of endMarker. When either
// marker is missing (or empty), text is returned unchanged. When the last end
// marker precedes the first start marker, the window is empty.
func TrimSection(text, startMarker, endMarker string) string {
	start, end, ok := sectionBounds(text, startMarker, endMarker)
	if !ok {
		return text
	}
	return text[start:end]
}

// HasSection reports whether TrimSection would cut text.
func HasSection(text, startMarker, endMarker string) bool {
	_, _, ok := sectionBounds(text, startMarker, endMarker)
	return ok
}

func sectionBounds(text, startMarker, endMarker string) (int, int, bool) {
	startMarker = strings.ToLower(startMarker)
	endMarker = strings.ToLower(endMarker)
	if startMarker == "" || endMarker == "" {
		return 0, 0, false
	}
	start := strings.Index(text, startMarker)
	end := strings.LastIndex(text, endMarker)
	if start < 0 || end < 0 {
		return 0, 0, false
	}
	if end < start {
		// End marker only precedes the start marker: the window is empty.
		return start, start, true
	}
	return start, end, true
}
