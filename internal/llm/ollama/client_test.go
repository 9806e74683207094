package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pdfrag/internal/llm"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestClientStream_ForwardsFragments(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = io.WriteString(w, `{"model":"phi3","response":"Hel","done":false}`+"\n")
		_, _ = io.WriteString(w, `{"model":"phi3","response":"lo","done":false}`+"\n")
		_, _ = io.WriteString(w, `{"model":"phi3","response":"","done":true}`+"\n")
	}))
	defer server.Close()

	c := New(Config{BaseURL: server.URL, Model: "phi3", Temperature: 1, Timeout: 5 * time.Second}, quietLogger())
	s, err := c.Stream(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var got []string
	for s.Next() {
		got = append(got, s.Fragment())
	}
	if err := s.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}
	_ = s.Close()
	if len(got) != 2 || got[0] != "Hel" || got[1] != "lo" {
		t.Fatalf("unexpected fragments %v", got)
	}
	if payload["model"] != "phi3" || payload["prompt"] != "say hello" || payload["stream"] != true {
		t.Errorf("unexpected payload %v", payload)
	}
	opts, _ := payload["options"].(map[string]any)
	if opts["temperature"] != float64(1) {
		t.Errorf("expected temperature 1, got %v", opts["temperature"])
	}
}

func TestClientComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":"[{\"choice\": 1,","done":false}`+"\n"+`{"response":" \"reason\": \"x\"}]","done":true}`+"\n")
	}))
	defer server.Close()

	out, err := New(Config{BaseURL: server.URL, Model: "m"}, quietLogger()).Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `[{"choice": 1, "reason": "x"}]` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestClientStream_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'phi3' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(Config{BaseURL: server.URL, Model: "phi3"}, quietLogger()).Stream(context.Background(), "p")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("expected StatusError, got %v", err)
	}
}

func TestClientStream_MidStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":"par","done":false}`+"\n"+`{"error":"out of memory"}`+"\n")
	}))
	defer server.Close()

	s, err := New(Config{BaseURL: server.URL, Model: "m"}, quietLogger()).Stream(context.Background(), "p")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got, err := llm.Collect(s)
	if got != "par" {
		t.Errorf("expected partial output, got %q", got)
	}
	if err == nil {
		t.Fatal("expected mid-stream error")
	}
}

func TestClientStream_TruncatedStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"response":"par","done":false}`+"\n")
	}))
	defer server.Close()

	s, err := New(Config{BaseURL: server.URL, Model: "m"}, quietLogger()).Stream(context.Background(), "p")
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got, err := llm.Collect(s)
	if got != "par" {
		t.Errorf("expected partial output, got %q", got)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}
