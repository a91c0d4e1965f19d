// Package qc validates generated questions with model-graded quality
// checks and rewrites questions that fail.
package qc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inceptlabs/quizforge/internal/curriculum"
	"github.com/inceptlabs/quizforge/internal/llm"
	"github.com/inceptlabs/quizforge/internal/quiz"
)

// RequiredChecks are the model-graded checks every question must pass,
// in execution order. Plausibility runs separately per distractor.
var RequiredChecks = []string{
	"formatting",
	"structure",
	"depth",
	"precision",
	"textual evidence",
	"single correct answer",
}

// CheckResult is the outcome of one quality check.
type CheckResult struct {
	Passes    bool
	Score     int
	Reasoning string
}

// DistractorCheck is the plausibility verdict for one distractor.
type DistractorCheck struct {
	ID        string
	Plausible bool
	Reasoning string
}

// Result aggregates all checks for one question.
type Result struct {
	Valid       bool
	Errors      []string
	Warnings    []string
	Suggestions []string
	Checks      map[string]CheckResult
	Distractors []DistractorCheck
}

// Engine runs quality control against an LLM provider.
type Engine struct {
	provider llm.Provider
	catalog  *Catalog
	log      *zap.Logger

	maxTokens int
}

// NewEngine creates a quality control engine.
func NewEngine(provider llm.Provider, catalog *Catalog, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{provider: provider, catalog: catalog, log: log, maxTokens: 4000}
}

// Validate runs every required check plus the per-distractor
// plausibility check. All checks always run; a failing check marks the
// result invalid and records an error and an improvement suggestion.
func (e *Engine) Validate(ctx context.Context, q quiz.Question, passage curriculum.Passage, standardID string, previous []quiz.Question) (*Result, error) {
	ctx = llm.WithPurpose(ctx, "quality-control")

	result := &Result{Valid: true, Checks: make(map[string]CheckResult)}

	for _, name := range RequiredChecks {
		check, err := e.runCheck(ctx, name, q, passage, standardID)
		if err != nil {
			return nil, fmt.Errorf("%s check: %w", name, err)
		}
		result.Checks[name] = check

		if check.Passes {
			e.log.Info("quality check passed",
				zap.String("check", name), zap.Int("score", check.Score))
			continue
		}
		e.log.Warn("quality check failed",
			zap.String("check", name), zap.String("reason", check.Reasoning))
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("Failed %s check: %s", name, check.Reasoning))
		if check.Reasoning != "" {
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("Improve %s: %s", name, check.Reasoning))
		}
	}

	if err := e.checkPlausibility(ctx, q, passage, standardID, result); err != nil {
		return nil, fmt.Errorf("plausibility check: %w", err)
	}

	return result, nil
}

// runCheck executes one named check. A missing prompt template fails
// the check rather than erroring, so a thin catalog degrades instead of
// aborting generation.
func (e *Engine) runCheck(ctx context.Context, name string, q quiz.Question, passage curriculum.Passage, standardID string) (CheckResult, error) {
	template, ok := e.catalog.Get(name)
	if !ok {
		e.log.Warn("no prompt for quality check", zap.String("check", name))
		return CheckResult{
			Passes:    false,
			Reasoning: fmt.Sprintf("No prompt available for %s check", name),
		}, nil
	}

	prompt := e.formatCheckPrompt(template, q, passage, standardID)
	response, err := e.call(ctx, prompt)
	if err != nil {
		return CheckResult{}, err
	}

	verdict := parseCheckResponse(response)
	return CheckResult{
		Passes:    verdict.Score >= 1,
		Score:     verdict.Score,
		Reasoning: verdict.Reasoning,
	}, nil
}

// checkPlausibility grades each distractor separately and applies the
// difficulty threshold: easy questions need one plausible distractor,
// medium and hard need two.
func (e *Engine) checkPlausibility(ctx context.Context, q quiz.Question, passage curriculum.Passage, standardID string, result *Result) error {
	template, hasPrompt := e.catalog.Get("plausibility")

	plausible := 0
	distractors := q.Distractors()
	for i, text := range distractors {
		id := fmt.Sprintf("distractor%d", i+1)

		switch {
		case !hasPrompt:
			result.Distractors = append(result.Distractors, DistractorCheck{
				ID: id, Reasoning: "No prompt available for plausibility check",
			})
		case text == "":
			e.log.Warn("missing distractor", zap.String("id", id))
			result.Distractors = append(result.Distractors, DistractorCheck{
				ID: id, Reasoning: "Missing distractor text",
			})
		default:
			prompt := e.formatPlausibilityPrompt(template, q, passage, standardID, text)
			response, err := e.call(ctx, prompt)
			if err != nil {
				return err
			}
			verdict := parsePlausibilityResponse(response)
			if verdict.Plausible {
				plausible++
			}
			result.Distractors = append(result.Distractors, DistractorCheck{
				ID: id, Plausible: verdict.Plausible, Reasoning: verdict.Reasoning,
			})
		}
	}

	tier := difficultyTier(q.Difficulty)
	required := 2
	if tier == "easy" {
		required = 1
	}

	passes := plausible >= required
	result.Checks["plausibility"] = CheckResult{
		Passes: passes,
		Score:  boolScore(passes),
		Reasoning: fmt.Sprintf("Found %d plausible distractors, need %d for %s difficulty",
			plausible, required, tier),
	}

	if !passes {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Failed plausibility check: Only %d out of 3 distractors are plausible. %s difficulty questions require at least %d plausible distractors.",
			plausible, capitalize(tier), required))
		result.Suggestions = append(result.Suggestions, fmt.Sprintf(
			"Improve plausibility: Make at least %d distractors plausible for %s difficulty questions.",
			required, tier))
	}
	return nil
}

// Improve asks the model for a rewrite addressing the validation
// feedback. The caller is responsible for revalidating the rewrite.
// Returns nil when no rewrite could be extracted.
func (e *Engine) Improve(ctx context.Context, q quiz.Question, result *Result, passage curriculum.Passage, standardID string) (*quiz.Question, error) {
	if len(result.Errors) == 0 && len(result.Suggestions) == 0 {
		return &q, nil
	}

	ctx = llm.WithPurpose(ctx, "question-improvement")

	prompt := buildImprovementPrompt(q, result, passage, standardID)
	resp, err := e.provider.Generate(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens: e.maxTokens,
		Schema:    quiz.QuestionSchema,
	})
	if err != nil {
		return nil, err
	}

	improved, ok := quiz.ParseResponse(string(resp.Content))
	if !ok {
		e.log.Warn("could not extract improved question")
		return nil, nil
	}
	improved.Standard = q.Standard
	improved.Difficulty = q.Difficulty
	return improved, nil
}

func (e *Engine) call(ctx context.Context, prompt string) (string, error) {
	req := llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens: e.maxTokens,
	}
	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return string(resp.Content), nil
}

// formatCheckPrompt substitutes the placeholders a check template may
// carry. Templates vary in which names they use, so every known
// placeholder is replaced.
func (e *Engine) formatCheckPrompt(template string, q quiz.Question, passage curriculum.Passage, standardID string) string {
	r := strings.NewReplacer(
		"{passage}", passage.Text,
		"{PASSAGE_TEXT}", passage.Text,
		"{PASSAGE_INFO}", passageInfo(passage),
		"{question}", q.Question,
		"{QUESTION}", q.Question,
		"{QUESTION_JSON}", questionJSON(q),
		"{correct_answer}", q.CorrectAnswer,
		"{distractor1}", q.Distractor1,
		"{distractor2}", q.Distractor2,
		"{distractor3}", q.Distractor3,
		"{STANDARD_ID}", standardID,
	)
	prompt := r.Replace(template)
	if left := unfilledPlaceholders(prompt); len(left) > 0 {
		e.log.Warn("unfilled placeholders in quality check prompt",
			zap.Strings("placeholders", left))
	}
	return prompt
}

// plausibilityInput is the JSON document embedded in the plausibility
// prompt.
type plausibilityInput struct {
	Passage          string `json:"passage"`
	PassageInfo      string `json:"passage_info"`
	Question         string `json:"question"`
	CorrectAnswer    string `json:"correct_answer"`
	DistractorToTest string `json:"distractor_to_check"`
	StandardID       string `json:"standard_id"`
}

func (e *Engine) formatPlausibilityPrompt(template string, q quiz.Question, passage curriculum.Passage, standardID, distractor string) string {
	input := plausibilityInput{
		Passage:          passage.Text,
		PassageInfo:      passageInfo(passage),
		Question:         q.Question,
		CorrectAnswer:    q.CorrectAnswer,
		DistractorToTest: distractor,
		StandardID:       standardID,
	}
	inputJSON, _ := json.MarshalIndent(input, "", "  ")

	r := strings.NewReplacer(
		// Templates embed the full input document under this marker.
		"{json.dumps(input_json, indent=2)}", string(inputJSON),
		"{INPUT_JSON}", string(inputJSON),
		"{passage}", passage.Text,
		"{PASSAGE_TEXT}", passage.Text,
		"{question}", q.Question,
		"{QUESTION}", q.Question,
		"{correct_answer}", q.CorrectAnswer,
		"{distractor_to_check}", distractor,
		"{STANDARD_ID}", standardID,
	)
	return r.Replace(template)
}

// buildImprovementPrompt assembles the rewrite request from the
// original question and its validation feedback.
func buildImprovementPrompt(q quiz.Question, result *Result, passage curriculum.Passage, standardID string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert in educational assessment. You need to improve a quiz question based on the validation feedback.

PASSAGE INFORMATION:
%s

PASSAGE TEXT:
%s

STANDARD:
%s

ORIGINAL QUESTION:
%s

VALIDATION FEEDBACK:
`, passageInfo(passage), passage.Text, standardID, questionJSON(q))

	if len(result.Errors) > 0 {
		b.WriteString("\nERRORS:\n" + bulleted(result.Errors))
	}
	if len(result.Warnings) > 0 {
		b.WriteString("\nWARNINGS:\n" + bulleted(result.Warnings))
	}
	if len(result.Suggestions) > 0 {
		b.WriteString("\nIMPROVEMENT SUGGESTIONS:\n" + bulleted(result.Suggestions))
	}

	b.WriteString(`
INSTRUCTIONS:
1. Create an improved version of the question that addresses all the errors and warnings
2. Apply the improvement suggestions
3. Ensure the improved question is still based on the same passage and tests the same standard
4. Maintain the same general structure and difficulty level
5. Return ONLY a valid JSON object with the improved question, using this exact format:

` + "```json" + `
{
  "question": "Your improved question text here?",
  "correct_answer": "The improved correct answer",
  "distractor1": "Improved first incorrect option",
  "distractor2": "Improved second incorrect option",
  "distractor3": "Improved third incorrect option"
}
` + "```" + `

Return ONLY the JSON with no additional text before or after it.
`)
	return b.String()
}

func bulleted(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	return b.String()
}

func passageInfo(p curriculum.Passage) string {
	title := p.Title
	if title == "" {
		title = "Untitled"
	}
	author := p.Author
	if author == "" {
		author = "Unknown"
	}
	ptype := p.Type
	if ptype == "" {
		ptype = "Unknown"
	}
	return fmt.Sprintf("%s by %s (%s)", title, author, ptype)
}

func questionJSON(q quiz.Question) string {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// difficultyTier normalizes a question difficulty to a tier name.
// Numeric strings map through ("1" easy, "3" hard); anything else
// defaults to medium.
func difficultyTier(difficulty string) string {
	switch strings.ToLower(difficulty) {
	case "easy", "1":
		return "easy"
	case "hard", "3":
		return "hard"
	default:
		return "medium"
	}
}

func boolScore(b bool) int {
	if b {
		return 1
	}
	return 0
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
