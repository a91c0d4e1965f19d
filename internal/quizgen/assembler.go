// Package quizgen assembles complete quizzes: it resolves the target
// standards, selects a passage, plans the question distribution, runs
// batched concurrent question generation, and attaches explanations.
package quizgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inceptlabs/quizforge/internal/config"
	"github.com/inceptlabs/quizforge/internal/curriculum"
	"github.com/inceptlabs/quizforge/internal/distribute"
	"github.com/inceptlabs/quizforge/internal/quiz"
)

// QuestionSource produces a single validated question for a slot.
// *questiongen.Generator satisfies this.
type QuestionSource interface {
	Generate(ctx context.Context, passage curriculum.Passage, standardID, difficulty string, example curriculum.Example, previous []quiz.Question) (*quiz.Question, error)
}

// Explainer produces an HTML explanation for a generated question.
// An empty return means no explanation is attached.
type Explainer interface {
	Explain(ctx context.Context, q quiz.Question, p curriculum.Passage) string
}

// Request describes one quiz to assemble. Either LessonName or
// Standards must be set; Standards wins when both are present.
type Request struct {
	LessonName   string
	Standards    []string
	Difficulty   int
	NumQuestions int
}

const fallbackError = "Insufficient data available to generate a complete quiz. This is a fallback result."

// Assembler wires the curriculum index, the distributor, the question
// source and the explainer into the quiz pipeline.
type Assembler struct {
	index     *curriculum.Index
	dist      *distribute.Distributor
	source    QuestionSource
	explainer Explainer
	cfg       config.Config
	rng       *rand.Rand
	log       *zap.Logger
}

// Options carries the optional collaborators for New.
type Options struct {
	Explainer Explainer  // nil skips explanation generation
	Rand      *rand.Rand // nil uses the global source
	Logger    *zap.Logger
}

func New(index *curriculum.Index, dist *distribute.Distributor, source QuestionSource, cfg config.Config, opts Options) *Assembler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Assembler{
		index:     index,
		dist:      dist,
		source:    source,
		explainer: opts.Explainer,
		cfg:       cfg,
		rng:       rng,
		log:       log,
	}
}

// slot is one question to generate.
type slot struct {
	standard   string
	difficulty string
	example    curriculum.Example
}

// GenerateQuiz runs the full pipeline for one request. Missing data
// never fails the call: the result degrades to a fallback quiz with an
// error recorded in its metadata.
func (a *Assembler) GenerateQuiz(ctx context.Context, req Request) (*quiz.Quiz, error) {
	// Each run gets its own ID so concurrent runs are separable in logs.
	run := *a
	run.log = a.log.With(zap.String("run_id", uuid.New().String()))
	return run.generateQuiz(ctx, req)
}

func (a *Assembler) generateQuiz(ctx context.Context, req Request) (*quiz.Quiz, error) {
	a.log.Info("generating quiz",
		zap.String("lesson", req.LessonName),
		zap.Strings("standards", req.Standards),
		zap.Int("difficulty", req.Difficulty),
		zap.Int("num_questions", req.NumQuestions))

	standards := req.Standards
	if len(standards) == 0 && req.LessonName != "" {
		standards = a.index.StandardsForLesson(req.LessonName)
		if len(standards) == 0 {
			a.log.Error("no standards found for lesson", zap.String("lesson", req.LessonName))
			return a.fallbackQuiz(req, ""), nil
		}
		a.log.Info("resolved lesson standards",
			zap.String("lesson", req.LessonName), zap.Int("count", len(standards)))
	}
	if len(standards) == 0 {
		a.log.Error("neither lesson nor standard was provided")
		return a.fallbackQuiz(req, ""), nil
	}

	// Every standard covered so far in the curriculum, deduplicated in
	// curriculum order, is eligible for review questions.
	var allPrevious []string
	seen := make(map[string]bool)
	for _, std := range standards {
		for _, prev := range a.index.PreviousStandards(std) {
			if !seen[prev] {
				seen[prev] = true
				allPrevious = append(allPrevious, prev)
			}
		}
	}

	passage := a.index.SelectPassage(standards)
	if passage == nil {
		a.log.Error("no suitable passage found", zap.String("standard", standards[0]))
		return a.fallbackQuiz(req, standards[0]), nil
	}
	a.log.Info("selected passage",
		zap.String("passage", passage.Title), zap.String("type", passage.Type))

	plan := a.dist.Distribute(req.NumQuestions, req.Difficulty, standards, allPrevious)
	slots := a.buildSlots(plan, *passage)

	questions, err := a.generateQuestions(ctx, *passage, slots)
	if err != nil {
		a.log.Error("question generation aborted", zap.Error(err))
		q := a.assemble(nil, *passage, req, standards)
		q.Metadata.Error = fmt.Sprintf("Failed to generate questions: %v", err)
		return q, nil
	}

	if a.explainer != nil {
		a.attachExplanations(ctx, questions, *passage)
	}

	return a.assemble(questions, *passage, req, standards), nil
}

// buildSlots expands the distribution plan into concrete generation
// slots, each with a randomly drawn example question. Draft passages
// use writing examples, everything else reading examples, falling back
// to whatever is available for the standard.
func (a *Assembler) buildSlots(plan distribute.Plan, passage curriculum.Passage) []slot {
	useWriting := passage.Type == "Draft"

	var slots []slot
	for _, std := range plan.Standards {
		counts := plan.Counts[std]
		for _, tier := range distribute.TierNames {
			count := counts.Count(tier)
			if count <= 0 {
				continue
			}
			difficulty := curriculum.TierDifficulty[tier]
			examples := a.filterExamples(std, difficulty, useWriting)
			if len(examples) == 0 {
				a.log.Error("no examples found",
					zap.String("standard", std), zap.String("difficulty", difficulty))
				continue
			}
			for i := 0; i < count; i++ {
				slots = append(slots, slot{
					standard:   std,
					difficulty: difficulty,
					example:    examples[a.rng.IntN(len(examples))],
				})
			}
		}
	}
	return slots
}

func (a *Assembler) filterExamples(standardID, difficulty string, useWriting bool) []curriculum.Example {
	all := a.index.ExamplesFor(standardID, difficulty)

	var filtered []curriculum.Example
	for _, ex := range all {
		if useWriting {
			if ex.Type == "writing" {
				filtered = append(filtered, ex)
			}
		} else if ex.Type == "" || ex.Type == "reading" {
			filtered = append(filtered, ex)
		}
	}
	if len(filtered) == 0 && len(all) > 0 {
		a.log.Warn("no matching example type, falling back to any examples",
			zap.String("standard", standardID), zap.String("difficulty", difficulty))
		return all
	}
	return filtered
}

// generateQuestions runs the slots in batches of NumWorkers. Slots in a
// batch run concurrently and see the questions accumulated by earlier
// batches; a failed slot is logged and skipped, never aborts the batch.
func (a *Assembler) generateQuestions(ctx context.Context, passage curriculum.Passage, slots []slot) ([]quiz.Question, error) {
	var questions []quiz.Question

	workers := a.cfg.NumWorkers
	if workers < 1 {
		workers = 1
	}

	for start := 0; start < len(slots); start += workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + workers
		if end > len(slots) {
			end = len(slots)
		}
		batch := slots[start:end]
		previous := append([]quiz.Question(nil), questions...)

		bctx, cancel := context.WithTimeout(ctx, a.cfg.BatchTimeout)
		g, gctx := errgroup.WithContext(bctx)
		results := make([]*quiz.Question, len(batch))

		for i, s := range batch {
			g.Go(func() error {
				q, err := a.source.Generate(gctx, passage, s.standard, s.difficulty, s.example, previous)
				if err != nil {
					a.log.Warn("question generation failed",
						zap.String("standard", s.standard),
						zap.String("difficulty", s.difficulty),
						zap.Error(err))
					return nil
				}
				if q == nil {
					a.log.Warn("question rejected after all attempts",
						zap.String("standard", s.standard),
						zap.String("difficulty", s.difficulty))
					return nil
				}
				results[i] = q
				return nil
			})
		}
		g.Wait() //nolint:errcheck // slot errors are swallowed above
		cancel()

		for _, q := range results {
			if q != nil {
				questions = append(questions, *q)
			}
		}
	}

	a.log.Info("question generation complete",
		zap.Int("generated", len(questions)), zap.Int("requested", len(slots)))
	return questions, nil
}

func (a *Assembler) attachExplanations(ctx context.Context, questions []quiz.Question, passage curriculum.Passage) {
	for i := range questions {
		a.log.Info("generating explanation",
			zap.Int("question", i+1), zap.Int("total", len(questions)))
		if text := a.explainer.Explain(ctx, questions[i], passage); text != "" {
			questions[i].Explanation = text
		}
	}
}

func (a *Assembler) assemble(questions []quiz.Question, passage curriculum.Passage, req Request, standards []string) *quiz.Quiz {
	metaStandard := ""
	if len(req.Standards) > 0 {
		metaStandard = req.Standards[0]
	} else if len(standards) > 0 {
		metaStandard = standards[0]
	}

	return &quiz.Quiz{
		Passage: quiz.Passage{
			ID:     passage.ID,
			Title:  passage.Title,
			Author: passage.Author,
			Type:   passage.Type,
			Text:   passage.Text,
		},
		Questions: questions,
		Metadata: quiz.Metadata{
			LessonName:            req.LessonName,
			StandardID:            metaStandard,
			Difficulty:            req.Difficulty,
			NumQuestions:          req.NumQuestions,
			NumQuestionsGenerated: len(questions),
			Timestamp:             quiz.Timestamp(time.Now()),
		},
	}
}

// fallbackQuiz returns a zero-question quiz built from whatever passage
// data exists, with the failure recorded in metadata.
func (a *Assembler) fallbackQuiz(req Request, standardID string) *quiz.Quiz {
	a.log.Warn("generating fallback quiz",
		zap.String("standard", standardID), zap.String("lesson", req.LessonName))

	passage := curriculum.FallbackPassage
	if all := a.index.Passages(); len(all) > 0 {
		passage = all[0]
		a.log.Info("using fallback passage", zap.String("passage", passage.Title))
	}

	return &quiz.Quiz{
		Passage: quiz.Passage{
			ID:     passage.ID,
			Title:  passage.Title,
			Author: passage.Author,
			Type:   passage.Type,
			Text:   passage.Text,
		},
		Questions: nil,
		Metadata: quiz.Metadata{
			LessonName:   req.LessonName,
			StandardID:   standardID,
			Difficulty:   1,
			NumQuestions: 0,
			Timestamp:    quiz.Timestamp(time.Now()),
			Error:        fallbackError,
		},
	}
}
