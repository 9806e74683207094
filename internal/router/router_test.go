package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pdfrag/internal/llm"
)

type countingEngine struct {
	calls int
	reply string
	err   error
}

func (e *countingEngine) Query(_ context.Context, _ string) (llm.Stream, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return llm.NewSliceStream(nil, e.reply), nil
}

type cannedLLM struct {
	out     string
	err     error
	prompts []string
}

func (c *cannedLLM) Complete(_ context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	return c.out, c.err
}

func (c *cannedLLM) Stream(_ context.Context, prompt string) (llm.Stream, error) {
	c.prompts = append(c.prompts, prompt)
	return llm.NewSliceStream(c.err, c.out), nil
}

func TestRouter_RunsOnlySelectedEngine(t *testing.T) {
	tests := []struct {
		name       string
		model      string
		want       Choice
		wantReason string
	}{
		{"json array", `[{"choice": 1, "reason": "asks for a summary"}]`, Summarize, "asks for a summary"},
		{"json with prose", "Sure!\n[\n {\"choice\": 2, \"reason\": \"specific\"}\n]", VectorLookup, "specific"},
		{"bare integer", "I pick 2.", VectorLookup, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := &countingEngine{reply: "summary answer"}
			vec := &countingEngine{reply: "vector answer"}
			r := New(sum, vec, &LLMSelector{LLM: &cannedLLM{out: tt.model}}, nil)

			resp, err := r.Query(context.Background(), "q")
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if resp.Choice != tt.want {
				t.Fatalf("choice = %s, want %s", resp.Choice, tt.want)
			}
			if resp.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", resp.Reason, tt.wantReason)
			}
			if sum.calls+vec.calls != 1 {
				t.Fatalf("engines called %d times, want 1", sum.calls+vec.calls)
			}
			answer, err := llm.Collect(resp.Stream)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			wantAnswer := "vector answer"
			if tt.want == Summarize {
				wantAnswer = "summary answer"
			}
			if answer != wantAnswer {
				t.Errorf("answer = %q, want %q", answer, wantAnswer)
			}
		})
	}
}

func TestRouter_SelectorPromptListsBothTools(t *testing.T) {
	model := &cannedLLM{out: "1"}
	r := New(&countingEngine{}, &countingEngine{}, &LLMSelector{LLM: model}, nil)
	if _, err := r.Query(context.Background(), "what is the paper about"); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("selector prompts = %d, want 1", len(model.prompts))
	}
	p := model.prompts[0]
	for _, want := range []string{"(1) " + SummaryDescription, "(2) " + VectorDescription, "'what is the paper about'", "(1 to 2)"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestRouter_OutOfRangeChoice(t *testing.T) {
	sum, vec := &countingEngine{}, &countingEngine{}
	r := New(sum, vec, &LLMSelector{LLM: &cannedLLM{out: `[{"choice": 7}]`}}, nil)
	_, err := r.Query(context.Background(), "q")
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
	if sum.calls+vec.calls != 0 {
		t.Fatal("no engine should run when selection fails")
	}
}

func TestRouter_SelectorModelError(t *testing.T) {
	boom := errors.New("model down")
	r := New(&countingEngine{}, &countingEngine{}, &LLMSelector{LLM: &cannedLLM{err: boom}}, nil)
	if _, err := r.Query(context.Background(), "q"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRouter_EngineErrorPropagates(t *testing.T) {
	boom := errors.New("retrieval failed")
	r := New(&countingEngine{}, &countingEngine{err: boom}, StaticSelector{Choice: VectorLookup}, nil)
	if _, err := r.Query(context.Background(), "q"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestParseSelection_NoNumber(t *testing.T) {
	if _, _, err := ParseSelection("I cannot decide"); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v, want ErrNoSelection", err)
	}
}

func TestKeywordSelector(t *testing.T) {
	tests := map[string]Choice{
		"Summarize the paper":             Summarize,
		"Give me an overview":             Summarize,
		"How is attention computed?":      VectorLookup,
		"What dataset was used for eval?": VectorLookup,
	}
	for q, want := range tests {
		sel, err := KeywordSelector{}.Select(context.Background(), q, nil)
		if err != nil {
			t.Fatalf("Select(%q): %v", q, err)
		}
		if sel.Choice != want {
			t.Errorf("Select(%q) = %s, want %s", q, sel.Choice, want)
		}
	}
}

func TestChoiceString(t *testing.T) {
	if Summarize.String() != "summarize" || VectorLookup.String() != "vector_lookup" {
		t.Fatal("unexpected choice names")
	}
	if Choice(9).Valid() {
		t.Fatal("choice 9 should be invalid")
	}
}
