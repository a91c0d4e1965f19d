package quiz

import "github.com/inceptlabs/quizforge/internal/llm"

// QuestionSchema is the structured-output schema for a generated
// question: all five fields present and non-empty. Providers that
// support structured output enforce it server-side; callers still
// revalidate the parsed result.
var QuestionSchema = &llm.Schema{
	Name: "quiz-question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"correct_answer": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"distractor1": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"distractor2": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"distractor3": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
		},
		"required": []any{"question", "correct_answer", "distractor1", "distractor2", "distractor3"},
	},
}
