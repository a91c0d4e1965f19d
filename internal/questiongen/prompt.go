package questiongen

import (
	"fmt"
	"strings"

	"github.com/inceptlabs/quizforge/internal/curriculum"
	"github.com/inceptlabs/quizforge/internal/quiz"
)

// BuildPrompt assembles the generation prompt: the passage, one example
// question to imitate, and the numbered list of previously generated
// questions to steer away from.
func BuildPrompt(passage curriculum.Passage, example curriculum.Example, previous []quiz.Question) string {
	exampleType := example.Type
	if exampleType == "" {
		exampleType = "reading"
	}

	var prev strings.Builder
	if len(previous) > 0 {
		prev.WriteString("Previously generated questions for this passage:\n\n")
		for i, q := range previous {
			fmt.Fprintf(&prev, "%d. %s\n   Answer: %s\n\n",
				i+1, strings.TrimSpace(q.Question), strings.TrimSpace(q.CorrectAnswer))
		}
	}

	return fmt.Sprintf(`You are an expert assessment designer creating high-quality multiple-choice questions for AP English Language and Composition quizzes.

TASK:
Create a new multiple-choice question based on the following passage. The question should align with the specified educational standard and difficulty level. This is a %s type question for a %s passage.

PASSAGE TITLE: %s

PASSAGE:
%s

EXAMPLE QUESTION FOR THIS STANDARD AND DIFFICULTY:
Question: %s
Correct Answer: %s
Distractor 1: %s
Distractor 2: %s
Distractor 3: %s

%s

## Generation Instructions:
1. Create a new question for this passage that:
   - Tests the same skill
   - Uses the same question pattern as the example
   - Is distinctly different from previously generated questions
   - Targets different textual evidence than previous questions

2. Follow these structural requirements:
   - Must use similar language patterns as example
   - Must maintain similar difficulty level
   - Must maintain similar answer choice structure
   - Must be provable with direct textual evidence

3. Quality Requirements:
   - Question must be unambiguous
   - Correct answer must be definitively provable
   - Correct answer MUSTN'T stand out structurally from the distractors
   - Distractors must be plausible but clearly incorrect
   - All options must be distinct from each other
   - No overlap with previous questions' content focus

## Output Format:
`+"```json"+`
{
  "question": "Your question text here",
  "correct_answer": "The correct answer",
  "distractor1": "First incorrect option",
  "distractor2": "Second incorrect option",
  "distractor3": "Third incorrect option"
}
`+"```"+`

IMPORTANT INSTRUCTIONS:
- Do not include any line number references; only use paragraph numbers
- Make sure all distractors are plausible but clearly incorrect when the passage is carefully read
- Make sure the correct answer is NOT the longest option
- Do not create questions that are too similar to any previous questions listed
- Do not include any explanation, commentary, or notes - ONLY return the JSON object
- Your response must be valid JSON with no other text before or after it

Your response should ONLY contain the JSON object as specified above.
`,
		strings.ToUpper(exampleType),
		passage.Type,
		passage.Description(),
		passage.Text,
		example.Question,
		example.CorrectAnswer,
		example.Distractor1,
		example.Distractor2,
		example.Distractor3,
		prev.String(),
	)
}
