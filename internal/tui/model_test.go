package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"pdfrag/internal/domain"
	"pdfrag/internal/extractor"
	"pdfrag/internal/service"
)

type fakeDoc struct{ closed bool }

func (d *fakeDoc) NumPage() int                 { return 1 }
func (d *fakeDoc) PageText(int) (string, error) { return "abstract x. y.", nil }
func (d *fakeDoc) Close() error                 { d.closed = true; return nil }

type fakeBackend struct {
	createErr error
	updates   []service.Update
	queries   []string
}

func (b *fakeBackend) CreateSession(_ context.Context, _ extractor.PageSource, name string) (*service.Session, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &service.Session{ID: "s1", Name: name, Pages: 1, Chunks: 1, Preview: "preview"}, nil
}

func (b *fakeBackend) Ask(_ context.Context, _ *service.Session, q string, emit func(service.Update) error) error {
	b.queries = append(b.queries, q)
	for _, u := range b.updates {
		if err := emit(u); err != nil {
			return err
		}
	}
	return nil
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestQueryInputHiddenUntilSession(t *testing.T) {
	doc := &fakeDoc{}
	m := sized(New(&fakeBackend{}, func(string) (Document, error) { return doc, nil }, "", nil))
	if m.queryEnabled() {
		t.Fatal("query input shown before upload")
	}
	if !strings.Contains(m.View(), "PDF>") {
		t.Fatalf("upload prompt missing:\n%s", m.View())
	}

	msg := m.uploadCmd("/tmp/paper.pdf")()
	m, _ = step(t, m, msg)
	if !m.queryEnabled() {
		t.Fatal("query input hidden after successful upload")
	}
	if !doc.closed {
		t.Error("document not closed after upload")
	}
	if !strings.Contains(m.status, "paper.pdf") {
		t.Errorf("status = %q", m.status)
	}
	if !strings.Contains(m.View(), "preview") {
		t.Errorf("preview not rendered:\n%s", m.View())
	}
}

func TestUploadFailureKeepsQueryHidden(t *testing.T) {
	backend := &fakeBackend{createErr: errors.New("embed chunk: ollama embeddings failed: status 500: model not found")}
	m := sized(New(backend, func(string) (Document, error) { return &fakeDoc{}, nil }, "", nil))
	m, _ = step(t, m, m.uploadCmd("scan.pdf")())
	if m.queryEnabled() {
		t.Fatal("query input shown after failed upload")
	}
	if m.status != service.CreationFailedMessage {
		t.Fatalf("status = %q, want only %q", m.status, service.CreationFailedMessage)
	}
	if strings.Contains(m.View(), "model not found") {
		t.Fatal("internal error shown on screen")
	}
}

func TestUploadEmptyContentMessage(t *testing.T) {
	backend := &fakeBackend{createErr: fmt.Errorf("build: %w", domain.ErrEmptyContent)}
	m := sized(New(backend, func(string) (Document, error) { return &fakeDoc{}, nil }, "", nil))
	m, _ = step(t, m, m.uploadCmd("blank.pdf")())
	want := service.CreationFailedMessage + " " + domain.ErrEmptyContent.Error()
	if m.status != want {
		t.Fatalf("status = %q, want %q", m.status, want)
	}
}

func TestUploadOpenFailureHidesCause(t *testing.T) {
	open := func(string) (Document, error) { return nil, errors.New("malformed xref table at offset 1234") }
	m := sized(New(&fakeBackend{}, open, "", nil))
	m, _ = step(t, m, m.uploadCmd("broken.pdf")())
	if strings.Contains(m.status, "xref") || m.status != service.CreationFailedMessage {
		t.Fatalf("status = %q", m.status)
	}
}

func TestAnswerStreamsIntoHistory(t *testing.T) {
	backend := &fakeBackend{updates: []service.Update{
		{Choice: "vector_lookup", Fragment: "Heads", Answer: "Heads"},
		{Choice: "vector_lookup", Fragment: " run.", Answer: "Heads run."},
		{Choice: "vector_lookup", Answer: "Heads run.", Done: true},
	}}
	m := sized(New(backend, func(string) (Document, error) { return &fakeDoc{}, nil }, "", nil))
	m, _ = step(t, m, m.uploadCmd("paper.pdf")())

	m.queryInput.SetValue("how do heads run")
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.busy || cmd == nil {
		t.Fatal("enter did not start a query")
	}
	if m.queryInput.Value() != "" {
		t.Error("query input not cleared")
	}

	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) == 0 {
		t.Fatal("enter did not return a batch of commands")
	}
	next := batch[0]
	for i := 0; i < 3; i++ {
		msg := next()
		am, ok := msg.(answerMsg)
		if !ok {
			t.Fatalf("message %d = %T, want answerMsg", i, msg)
		}
		m, next = step(t, m, am)
		if i < 2 && next == nil {
			t.Fatalf("stream stopped after %d updates", i+1)
		}
	}
	if m.busy {
		t.Error("still busy after final update")
	}
	last := m.history[len(m.history)-1]
	if last.answer != "Heads run." || last.choice != "vector_lookup" {
		t.Fatalf("history entry = %+v", last)
	}
	if len(backend.queries) != 1 {
		t.Fatalf("backend queries = %v", backend.queries)
	}
}

func TestErrorUpdateMarksExchangeFailed(t *testing.T) {
	m := sized(New(&fakeBackend{}, nil, "", nil))
	m.session = &service.Session{Name: "p.pdf"}
	m.history = []exchange{{query: "q"}}
	m.busy = true
	m, _ = step(t, m, answerMsg{update: service.Update{Text: service.QueryErrorMessage, Err: true, Done: true}})
	if !m.history[0].failed || m.history[0].answer != service.QueryErrorMessage {
		t.Fatalf("exchange = %+v", m.history[0])
	}
	if m.status != "Query failed." || m.busy {
		t.Fatalf("status=%q busy=%v", m.status, m.busy)
	}
}

func TestClearResetsSession(t *testing.T) {
	m := sized(New(&fakeBackend{}, nil, "", nil))
	m.session = &service.Session{Name: "p.pdf"}
	m.history = []exchange{{query: "q", answer: "a"}}
	m.queryInput.SetValue("half typed")

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if m.session != nil || len(m.history) != 0 {
		t.Fatal("session or history survived clear")
	}
	if m.queryEnabled() || m.queryInput.Value() != "" {
		t.Fatal("query input not reset")
	}
}

func TestHighlightBestSentence(t *testing.T) {
	text := "The model uses attention. Training took two days."
	got := highlightBestSentence(text, "how long did training take")
	if !strings.Contains(got, "The model uses attention.") {
		t.Fatalf("unrelated sentence altered: %q", got)
	}
	if highlightBestSentence(text, "zebra") != text {
		t.Fatal("text changed without any overlap")
	}
}
