// Package llm defines the narrow contract to the language model service and
// the pull-based stream used to deliver answer fragments.
package llm

import (
	"context"
	"strings"
)

// LLM completes prompts, either in one piece or as a stream of fragments.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string) (Stream, error)
}

// Stream is a finite, non-restartable sequence of text fragments.
//
//	for s.Next() {
//		use(s.Fragment())
//	}
//	if err := s.Err(); err != nil { ... }
//
// Close must be called once the caller is done with the stream.
type Stream interface {
	Next() bool
	Fragment() string
	Err() error
	Close() error
}

// Collect drains s and returns the concatenated fragments.
func Collect(s Stream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for s.Next() {
		b.WriteString(s.Fragment())
	}
	return b.String(), s.Err()
}

// SliceStream streams a fixed list of fragments, optionally ending in an error.
type SliceStream struct {
	fragments []string
	pos       int
	err       error
	closed    bool
}

// NewSliceStream returns a stream over fragments that fails with err (if
// non-nil) after the last fragment.
func NewSliceStream(err error, fragments ...string) *SliceStream {
	return &SliceStream{fragments: fragments, pos: -1, err: err}
}

func (s *SliceStream) Next() bool {
	if s.closed || s.pos+1 >= len(s.fragments) {
		s.pos = len(s.fragments)
		return false
	}
	s.pos++
	return true
}

func (s *SliceStream) Fragment() string {
	if s.pos < 0 || s.pos >= len(s.fragments) {
		return ""
	}
	return s.fragments[s.pos]
}

func (s *SliceStream) Err() error {
	if s.pos >= len(s.fragments) {
		return s.err
	}
	return nil
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}
