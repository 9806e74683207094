// Package tui is the terminal front end: upload a PDF, ask questions and
// watch answers stream in.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfrag/internal/domain"
	"pdfrag/internal/extractor"
	"pdfrag/internal/service"
)

// Backend is the TUI-facing subset of the session service.
type Backend interface {
	CreateSession(ctx context.Context, src extractor.PageSource, name string) (*service.Session, error)
	Ask(ctx context.Context, sess *service.Session, query string, emit func(service.Update) error) error
}

// Document is an opened PDF.
type Document interface {
	extractor.PageSource
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)

// OpenPDF opens path with the PDF extractor.
func OpenPDF(path string) (Document, error) {
	doc, err := extractor.OpenPDF(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type exchange struct {
	query  string
	choice string
	answer string
	failed bool
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	backend Backend
	open    Opener
	log     *slog.Logger

	pathInput  textinput.Model
	queryInput textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model

	session *service.Session
	history []exchange
	cursor  int
	status  string
	busy    bool
	ready   bool
	cancel  context.CancelFunc
	initial string
}

// New creates a new TUI model. A non-empty path is uploaded on start. Upload
// failures are logged to log; the screen only shows a fixed message.
func New(backend Backend, open Opener, path string, log *slog.Logger) Model {
	pi := textinput.New()
	pi.Prompt = "PDF> "
	pi.Placeholder = "Path to a PDF and press Enter"
	pi.CharLimit = 0
	pi.Focus()

	qi := textinput.New()
	qi.Prompt = "> "
	qi.Placeholder = "Ask a question and press Enter"
	qi.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if open == nil {
		open = OpenPDF
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return Model{
		backend:    backend,
		open:       open,
		log:        log,
		pathInput:  pi,
		queryInput: qi,
		viewport:   viewport.New(0, 0),
		spinner:    sp,
		status:     "Upload a PDF to start.",
		initial:    path,
	}
}

type sessionMsg struct {
	session *service.Session
	err     error
}

type answerMsg struct {
	update service.Update
	ch     <-chan service.Update
}

type streamEndMsg struct{}

// Init starts the cursor blink and, when a path was given, the upload.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.initial != "" {
		cmds = append(cmds, m.uploadCmd(m.initial), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// queryEnabled reports whether the query input is shown. It stays hidden
// until a session exists.
func (m Model) queryEnabled() bool { return m.session != nil }

// Update handles key, window, upload and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + preview, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionMsg:
		m.busy = false
		if msg.err != nil {
			m.session = nil
			m.log.Error("upload failed", "stage", "upload", "error", msg.err)
			m.status = service.CreationFailedMessage
			if errors.Is(msg.err, domain.ErrEmptyContent) {
				m.status += " " + domain.ErrEmptyContent.Error()
			}
			m.pathInput.Focus()
			return m, nil
		}
		m.session = msg.session
		m.history = nil
		m.cursor = 0
		m.status = fmt.Sprintf("Loaded %s (%d pages, %d chunks). Ask a question.",
			msg.session.Name, msg.session.Pages, msg.session.Chunks)
		m.pathInput.Blur()
		m.queryInput.Focus()
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case answerMsg:
		m.applyUpdate(msg.update)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		if msg.update.Done {
			m.busy = false
			return m, nil
		}
		return m, waitForAnswer(msg.ch)

	case streamEndMsg:
		m.busy = false
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case tea.KeyCtrlL:
			return m.clear(), nil
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			if !m.queryEnabled() {
				path := strings.TrimSpace(m.pathInput.Value())
				if path == "" {
					return m, nil
				}
				m.busy = true
				m.status = "Processing " + filepath.Base(path) + "..."
				return m, tea.Batch(m.uploadCmd(path), m.spinner.Tick)
			}
			q := strings.TrimSpace(m.queryInput.Value())
			if q == "" {
				return m, nil
			}
			m.queryInput.SetValue("")
			m.history = append(m.history, exchange{query: q})
			m.cursor = len(m.history) - 1
			m.busy = true
			m.status = "Thinking..."
			ctx, cancel := context.WithCancel(context.Background())
			m.cancel = cancel
			return m, tea.Batch(m.askCmd(ctx, q), m.spinner.Tick)
		case "up":
			if len(m.history) > 0 && !m.busy {
				m.cursor = (m.cursor - 1 + len(m.history)) % len(m.history)
				m.viewport.SetContent(m.renderHistory())
				return m, nil
			}
		case "down":
			if len(m.history) > 0 && !m.busy {
				m.cursor = (m.cursor + 1) % len(m.history)
				m.viewport.SetContent(m.renderHistory())
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.queryEnabled() {
		m.queryInput, cmd = m.queryInput.Update(msg)
	} else {
		m.pathInput, cmd = m.pathInput.Update(msg)
	}
	return m, cmd
}

// clear drops the session and its history and returns to the upload prompt.
func (m Model) clear() Model {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.session != nil {
		_ = m.session.Close(context.Background())
	}
	m.session = nil
	m.history = nil
	m.cursor = 0
	m.busy = false
	m.status = "Cleared. Upload a PDF to start."
	m.queryInput.SetValue("")
	m.queryInput.Blur()
	m.pathInput.SetValue("")
	m.pathInput.Focus()
	m.viewport.SetContent(m.renderHistory())
	return m
}

func (m *Model) applyUpdate(u service.Update) {
	if len(m.history) == 0 {
		m.history = append(m.history, exchange{})
	}
	ex := &m.history[len(m.history)-1]
	if u.Choice != "" {
		ex.choice = u.Choice
	}
	switch {
	case u.Text != "":
		ex.answer = u.Text
		ex.failed = u.Err
	case u.Answer != "":
		ex.answer = u.Answer
	}
	if u.Done {
		if u.Err {
			m.status = "Query failed."
		} else {
			m.status = "Done."
		}
	}
}

func (m Model) uploadCmd(path string) tea.Cmd {
	backend, open := m.backend, m.open
	return func() tea.Msg {
		doc, err := open(path)
		if err != nil {
			return sessionMsg{err: err}
		}
		defer doc.Close()
		sess, err := backend.CreateSession(context.Background(), doc, filepath.Base(path))
		return sessionMsg{session: sess, err: err}
	}
}

// askCmd runs the query in the background and feeds its updates back to
// the program one message at a time.
func (m Model) askCmd(ctx context.Context, query string) tea.Cmd {
	backend, sess := m.backend, m.session
	return func() tea.Msg {
		ch := make(chan service.Update)
		go func() {
			defer close(ch)
			_ = backend.Ask(ctx, sess, query, func(u service.Update) error {
				select {
				case ch <- u:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}()
		return waitForAnswer(ch)()
	}
}

func waitForAnswer(ch <-chan service.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return streamEndMsg{}
		}
		return answerMsg{update: u, ch: ch}
	}
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("PDF Question Answering")
	preview := ""
	if m.session != nil {
		preview = previewStyle.Render(truncate(m.session.Preview, m.viewport.Width))
	}
	var input string
	if m.queryEnabled() {
		input = queryBoxStyle.Render(m.queryInput.View())
	} else {
		input = queryBoxStyle.Render(m.pathInput.View())
	}
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + preview + "\n" + results + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		if m.session == nil {
			return "No document loaded."
		}
		return "No questions yet."
	}
	ex := m.history[m.cursor]
	title := fmt.Sprintf("Question %d/%d: %s", m.cursor+1, len(m.history), ex.query)
	if ex.choice != "" {
		title += "  [" + ex.choice + "]"
	}
	body := ex.answer
	switch {
	case ex.failed:
		body = errorStyle.Render(body)
	case !m.busy || m.cursor != len(m.history)-1:
		body = highlightBestSentence(body, ex.query)
	}
	return title + "\n\n" + body
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	previewStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
