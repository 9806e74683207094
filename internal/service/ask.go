package service

import (
	"context"
	"fmt"
	"strings"

	"pdfrag/internal/domain"
)

// Update is one step of a streamed answer. The final update has Done set;
// a terminal message (no session, query failure) is carried in Text.
type Update struct {
	Choice   string
	Fragment string
	// Answer is the accumulated answer so far.
	Answer string
	Text   string
	Err    bool
	Done   bool
}

// Ask routes query through sess and emits the answer as it streams. A nil
// session emits a single terminal NoSessionMessage. Any routing, retrieval
// or streaming failure emits a single terminal QueryErrorMessage; the cause
// is logged and returned wrapped in ErrQueryExecution.
func (s *Service) Ask(ctx context.Context, sess *Session, query string, emit func(Update) error) error {
	if sess == nil {
		if err := emit(Update{Text: NoSessionMessage, Done: true}); err != nil {
			return err
		}
		return domain.ErrNoSession
	}
	log := s.log.With("session", sess.ID)

	fail := func(cause error) error {
		log.Error("query failed", "stage", "query", "error", cause)
		if err := emit(Update{Text: QueryErrorMessage, Err: true, Done: true}); err != nil {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrQueryExecution, cause)
	}

	resp, err := sess.router.Query(ctx, query)
	if err != nil {
		return fail(err)
	}
	stream := resp.Stream
	defer stream.Close()

	choice := resp.Choice.String()
	var answer strings.Builder
	for stream.Next() {
		frag := stream.Fragment()
		answer.WriteString(frag)
		if err := emit(Update{Choice: choice, Fragment: frag, Answer: answer.String()}); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fail(err)
	}
	log.Info("query answered", "stage", "query", "choice", choice, "chars", answer.Len())
	return emit(Update{Choice: choice, Answer: answer.String(), Done: true})
}
