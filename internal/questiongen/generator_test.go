package questiongen

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/inceptlabs/quizforge/internal/curriculum"
	"github.com/inceptlabs/quizforge/internal/llm"
	"github.com/inceptlabs/quizforge/internal/qc"
	"github.com/inceptlabs/quizforge/internal/quiz"
)

var testPassage = curriculum.Passage{
	ID:     "p1",
	Title:  "The Federalist No. 10",
	Author: "James Madison",
	Type:   "Text",
	Text:   "<p>Among the numerous advantages promised by a well constructed Union...</p>",
}

var testExample = curriculum.Example{
	Standard:      "RHS-1",
	Difficulty:    "2",
	Type:          "reading",
	Question:      "What is the author's primary purpose?",
	CorrectAnswer: "To warn against factions",
	Distractor1:   "To praise democracy",
	Distractor2:   "To describe history",
	Distractor3:   "To propose taxes",
}

const goodReply = "```json\n" + `{
  "question": "Which danger does the author identify in popular governments?",
  "correct_answer": "The violence of faction",
  "distractor1": "Foreign invasion",
  "distractor2": "Excessive taxation",
  "distractor3": "Judicial overreach"
}` + "\n```"

// stubGate scripts validation and improvement outcomes.
type stubGate struct {
	verdicts      []bool // consumed per Validate call
	improvements  []*quiz.Question
	validateCalls int
	improveCalls  int
}

func (s *stubGate) Validate(_ context.Context, _ quiz.Question, _ curriculum.Passage, _ string, _ []quiz.Question) (*qc.Result, error) {
	valid := false
	if s.validateCalls < len(s.verdicts) {
		valid = s.verdicts[s.validateCalls]
	}
	s.validateCalls++
	r := &qc.Result{Valid: valid}
	if !valid {
		r.Errors = []string{"Failed depth check: too shallow"}
	}
	return r, nil
}

func (s *stubGate) Improve(_ context.Context, _ quiz.Question, _ *qc.Result, _ curriculum.Passage, _ string) (*quiz.Question, error) {
	var improved *quiz.Question
	if s.improveCalls < len(s.improvements) {
		improved = s.improvements[s.improveCalls]
	}
	s.improveCalls++
	return improved, nil
}

func TestGenerateFirstAttemptValid(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(goodReply)})
	gate := &stubGate{verdicts: []bool{true}}
	gen := New(mock, gate, nil)

	q, err := gen.Generate(context.Background(), testPassage, "RHS-1", "2", testExample, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q == nil {
		t.Fatal("expected a question")
	}
	if q.Standard != "RHS-1" || q.Difficulty != "2" {
		t.Errorf("metadata: standard=%q difficulty=%q", q.Standard, q.Difficulty)
	}
	if q.CorrectAnswer != "The violence of faction" {
		t.Errorf("correct_answer = %q", q.CorrectAnswer)
	}
	if gate.improveCalls != 0 {
		t.Error("no improvement expected for a valid question")
	}
	// Structured output is requested so providers that support it
	// enforce the question shape server-side.
	if mock.Calls[0].Schema == nil || mock.Calls[0].Schema.Name != "quiz-question" {
		t.Errorf("request schema = %+v, want the question schema", mock.Calls[0].Schema)
	}
}

func TestGenerateImprovedQuestionAccepted(t *testing.T) {
	improved := &quiz.Question{
		Question:      "How does the author define a faction?",
		CorrectAnswer: "Citizens united by a shared passion adverse to others' rights",
		Distractor1:   "Any political party",
		Distractor2:   "A foreign alliance",
		Distractor3:   "A state legislature",
		Standard:      "RHS-1",
		Difficulty:    "2",
	}
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(goodReply)})
	// First validation fails, improved question passes.
	gate := &stubGate{verdicts: []bool{false, true}, improvements: []*quiz.Question{improved}}
	gen := New(mock, gate, nil)

	q, err := gen.Generate(context.Background(), testPassage, "RHS-1", "2", testExample, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q == nil {
		t.Fatal("expected the improved question")
	}
	if q.Question != improved.Question {
		t.Errorf("question = %q", q.Question)
	}
	if gate.validateCalls != 2 {
		t.Errorf("validate calls = %d, want 2", gate.validateCalls)
	}
}

func TestGenerateRetriesAfterFailedImprovement(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(goodReply)},
		llm.MockResponse{Content: json.RawMessage(goodReply)},
	)
	// Attempt 1: invalid, improvement unusable. Attempt 2: valid.
	gate := &stubGate{verdicts: []bool{false, true}, improvements: []*quiz.Question{nil}}
	gen := New(mock, gate, nil)

	q, err := gen.Generate(context.Background(), testPassage, "RHS-1", "2", testExample, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q == nil {
		t.Fatal("expected a question on the second attempt")
	}
	if mock.CallCount() != 2 {
		t.Errorf("LLM calls = %d, want 2", mock.CallCount())
	}
}

func TestGenerateUnparsableReplyConsumesAttempt(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage("I decline to answer.")},
		llm.MockResponse{Content: json.RawMessage(goodReply)},
	)
	gate := &stubGate{verdicts: []bool{true}}
	gen := New(mock, gate, nil)

	q, err := gen.Generate(context.Background(), testPassage, "RHS-1", "2", testExample, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q == nil {
		t.Fatal("expected a question after reparse")
	}
	if gate.validateCalls != 1 {
		t.Errorf("validate calls = %d, want 1", gate.validateCalls)
	}
}

func TestGenerateExhaustionReturnsNil(t *testing.T) {
	mock := llm.NewMockProvider()
	for i := 0; i < maxAttempts; i++ {
		mock.AddResponse(llm.MockResponse{Content: json.RawMessage(goodReply)})
	}
	// Every validation fails and no improvement lands.
	gate := &stubGate{}
	gen := New(mock, gate, nil)

	q, err := gen.Generate(context.Background(), testPassage, "RHS-1", "2", testExample, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q != nil {
		t.Errorf("expected nil after exhaustion, got %+v", q)
	}
	if mock.CallCount() != maxAttempts {
		t.Errorf("LLM calls = %d, want %d", mock.CallCount(), maxAttempts)
	}
}

func TestGenerateSchemaRejectsIncompleteQuestion(t *testing.T) {
	incomplete := "```json\n" + `{
  "question": "Which danger does the author identify?",
  "correct_answer": "The violence of faction",
  "distractor1": "Foreign invasion",
  "distractor2": "Excessive taxation",
  "distractor3": ""
}` + "\n```"
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(incomplete)},
		llm.MockResponse{Content: json.RawMessage(goodReply)},
	)
	gate := &stubGate{verdicts: []bool{true}}
	gen := New(mock, gate, nil)

	q, err := gen.Generate(context.Background(), testPassage, "RHS-1", "2", testExample, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if q == nil {
		t.Fatal("expected a question from the second reply")
	}
	if mock.CallCount() != 2 {
		t.Errorf("LLM calls = %d, want 2", mock.CallCount())
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	mock := llm.NewMockProvider()
	gen := New(mock, &stubGate{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Generate(ctx, testPassage, "RHS-1", "2", testExample, nil)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestBuildPromptIncludesPreviousQuestions(t *testing.T) {
	previous := []quiz.Question{
		{Question: "What is the central claim?", CorrectAnswer: "Unions restrain factions"},
		{Question: "What tone does the author adopt?", CorrectAnswer: "Analytical"},
	}
	prompt := BuildPrompt(testPassage, testExample, previous)

	if !strings.Contains(prompt, "1. What is the central claim?") {
		t.Error("missing first previous question")
	}
	if !strings.Contains(prompt, "2. What tone does the author adopt?") {
		t.Error("missing second previous question")
	}
	if !strings.Contains(prompt, "Answer: Unions restrain factions") {
		t.Error("missing previous answer")
	}
	if !strings.Contains(prompt, "READING type question") {
		t.Error("missing example type")
	}
	if !strings.Contains(prompt, "The Federalist No. 10 by James Madison (Text)") {
		t.Error("missing passage description")
	}
}

func TestBuildPromptNoPrevious(t *testing.T) {
	prompt := BuildPrompt(testPassage, testExample, nil)
	if strings.Contains(prompt, "Previously generated questions") {
		t.Error("previous-questions block should be absent")
	}
	if !strings.Contains(prompt, testExample.Question) {
		t.Error("missing example question")
	}
}
