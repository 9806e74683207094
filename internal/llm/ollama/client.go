// Package ollama provides an llm.LLM backed by the Ollama /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pdfrag/internal/llm"
)

// Config configures the Ollama client.
type Config struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// Client implements llm.LLM using Ollama HTTP APIs.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	timeout     time.Duration
	client      *http.Client
	log         *slog.Logger
}

// StatusError is returned when Ollama answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ollama: /api/generate returned %d: %s", e.StatusCode, e.Body)
}

type generateChunk struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// New constructs a Client. A zero Timeout falls back to ten minutes.
func New(cfg Config, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 600 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		client: &http.Client{
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		log: log,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends prompt and returns the whole response.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	s, err := c.Stream(ctx, prompt)
	if err != nil {
		return "", err
	}
	return llm.Collect(s)
}

// Stream sends prompt with streaming enabled and returns a stream over the
// response fragments. The request timeout covers the whole stream.
func (c *Client) Stream(ctx context.Context, prompt string) (llm.Stream, error) {
	payload := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": true,
		"options": map[string]any{
			"temperature": c.temperature,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithTimeout(ctx, c.timeout)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("llm request", "model", c.model, "prompt_chars", len(prompt))
	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ollama: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		cancel()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return &stream{
		body:    resp.Body,
		decoder: json.NewDecoder(resp.Body),
		cancel:  cancel,
	}, nil
}

type stream struct {
	body     io.ReadCloser
	decoder  *json.Decoder
	cancel   context.CancelFunc
	fragment string
	err      error
	done     bool
}

func (s *stream) Next() bool {
	for !s.done {
		var chunk generateChunk
		if err := s.decoder.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("ollama: stream ended before done: %w", io.ErrUnexpectedEOF)
			}
			s.err = err
			s.finish()
			return false
		}
		if chunk.Error != "" {
			s.err = fmt.Errorf("ollama: %s", chunk.Error)
			s.finish()
			return false
		}
		if chunk.Done {
			s.finish()
		}
		if chunk.Response != "" {
			s.fragment = chunk.Response
			return true
		}
	}
	return false
}

func (s *stream) Fragment() string { return s.fragment }

func (s *stream) Err() error { return s.err }

func (s *stream) Close() error {
	s.finish()
	return nil
}

func (s *stream) finish() {
	if s.done {
		return
	}
	s.done = true
	s.body.Close()
	s.cancel()
}
