package questiongen

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/inceptlabs/quizforge/internal/quiz"
)

var (
	questionSchemaOnce sync.Once
	questionSchema     *jsonschema.Schema
	questionSchemaErr  error
)

// compiledQuestionSchema compiles quiz.QuestionSchema for local
// validation. Needed because the reply may be recovered from free text
// rather than enforced by the provider.
func compiledQuestionSchema() (*jsonschema.Schema, error) {
	questionSchemaOnce.Do(func() {
		defBytes, err := json.Marshal(quiz.QuestionSchema.Definition)
		if err != nil {
			questionSchemaErr = err
			return
		}
		var def any
		if err := json.Unmarshal(defBytes, &def); err != nil {
			questionSchemaErr = err
			return
		}

		c := jsonschema.NewCompiler()
		const url = "schema://quiz-question.json"
		if err := c.AddResource(url, def); err != nil {
			questionSchemaErr = err
			return
		}
		questionSchema, questionSchemaErr = c.Compile(url)
	})
	return questionSchema, questionSchemaErr
}

// validateQuestion checks a parsed question against the schema.
func validateQuestion(q *quiz.Question) error {
	schema, err := compiledQuestionSchema()
	if err != nil {
		return fmt.Errorf("compile question schema: %w", err)
	}

	doc := map[string]any{
		"question":       q.Question,
		"correct_answer": q.CorrectAnswer,
		"distractor1":    q.Distractor1,
		"distractor2":    q.Distractor2,
		"distractor3":    q.Distractor3,
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("question schema validation: %w", err)
	}
	return nil
}
