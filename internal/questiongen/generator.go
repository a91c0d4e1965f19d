// Package questiongen generates single quiz questions and gates them
// through quality control.
package questiongen

import (
	"context"

	"go.uber.org/zap"

	"github.com/inceptlabs/quizforge/internal/curriculum"
	"github.com/inceptlabs/quizforge/internal/llm"
	"github.com/inceptlabs/quizforge/internal/qc"
	"github.com/inceptlabs/quizforge/internal/quiz"
)

// maxAttempts bounds the generate/validate/improve cycles per question.
const maxAttempts = 3

// Gate validates candidate questions and produces rewrites. Satisfied
// by *qc.Engine.
type Gate interface {
	Validate(ctx context.Context, q quiz.Question, passage curriculum.Passage, standardID string, previous []quiz.Question) (*qc.Result, error)
	Improve(ctx context.Context, q quiz.Question, result *qc.Result, passage curriculum.Passage, standardID string) (*quiz.Question, error)
}

// Generator produces individual questions that pass quality control.
type Generator struct {
	provider llm.Provider
	gate     Gate
	log      *zap.Logger

	maxTokens int
}

// New creates a Generator.
func New(provider llm.Provider, gate Gate, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{provider: provider, gate: gate, log: log, maxTokens: 4096}
}

// Generate produces one validated question for a standard and numeric
// difficulty ("1", "2", "3"). Up to maxAttempts cycles: generate,
// validate, and on failure one improve-and-revalidate. Returns nil when
// every attempt fails; a question slot yielding nil shrinks the quiz
// rather than failing it.
func (g *Generator) Generate(ctx context.Context, passage curriculum.Passage, standardID, difficulty string, example curriculum.Example, previous []quiz.Question) (*quiz.Question, error) {
	ctx = llm.WithPurpose(ctx, "question-generation")

	log := g.log.With(
		zap.String("standard", standardID),
		zap.String("difficulty", difficulty))

	prompt := BuildPrompt(passage, example, previous)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate, ok := g.generateCandidate(ctx, prompt, log, attempt)
		if !ok {
			continue
		}
		candidate.Standard = standardID
		candidate.Difficulty = difficulty

		result, err := g.gate.Validate(ctx, *candidate, passage, standardID, previous)
		if err != nil {
			log.Warn("validation errored", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if result.Valid {
			log.Info("generated valid question", zap.Int("attempt", attempt))
			return candidate, nil
		}
		for _, e := range result.Errors {
			log.Warn("question rejected", zap.String("error", e))
		}

		improved, err := g.gate.Improve(ctx, *candidate, result, passage, standardID)
		if err != nil {
			log.Warn("improvement errored", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if improved == nil {
			continue
		}

		improvedResult, err := g.gate.Validate(ctx, *improved, passage, standardID, previous)
		if err != nil {
			log.Warn("improved validation errored", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if improvedResult.Valid {
			log.Info("improved question accepted", zap.Int("attempt", attempt))
			return improved, nil
		}
		log.Warn("improved question still failed validation", zap.Int("attempt", attempt))
	}

	log.Error("failed to generate valid question", zap.Int("attempts", maxAttempts))
	return nil, nil
}

// generateCandidate runs one LLM call and extracts a schema-valid
// question from the reply.
func (g *Generator) generateCandidate(ctx context.Context, prompt string, log *zap.Logger, attempt int) (*quiz.Question, bool) {
	resp, err := g.provider.Generate(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens: g.maxTokens,
		Schema:    quiz.QuestionSchema,
	})
	if err != nil {
		log.Warn("generation call failed", zap.Int("attempt", attempt), zap.Error(err))
		return nil, false
	}

	candidate, ok := quiz.ParseResponse(string(resp.Content))
	if !ok {
		log.Warn("could not parse model reply", zap.Int("attempt", attempt))
		return nil, false
	}
	if err := validateQuestion(candidate); err != nil {
		log.Warn("parsed question failed schema", zap.Int("attempt", attempt), zap.Error(err))
		return nil, false
	}
	return candidate, true
}
