// Package quiz holds the quiz output types shared across the generator,
// quality control, and publisher.
package quiz

import (
	"encoding/json"
	"time"
)

// TimestampFormat is the layout used in quiz metadata.
const TimestampFormat = "2006-01-02 15:04:05"

// Timestamp formats t for quiz metadata.
func Timestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}

// Question is one generated multiple-choice question. Difficulty is the
// numeric string form ("1", "2", "3"). Explanation is filled in after
// the question passes quality control.
type Question struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	Distractor1   string `json:"distractor1"`
	Distractor2   string `json:"distractor2"`
	Distractor3   string `json:"distractor3"`
	Standard      string `json:"standard,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

// Distractors returns the three incorrect options in order.
func (q Question) Distractors() [3]string {
	return [3]string{q.Distractor1, q.Distractor2, q.Distractor3}
}

// Passage is the passage block of a quiz, stripped of curriculum
// bookkeeping.
type Passage struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Type   string `json:"type"`
	Text   string `json:"text"`
}

// Metadata records how a quiz was produced. Error is set on fallback
// and partial results.
type Metadata struct {
	LessonName            string `json:"lesson_name"`
	StandardID            string `json:"standard_id"`
	Difficulty            int    `json:"difficulty"`
	NumQuestions          int    `json:"num_questions"`
	NumQuestionsGenerated int    `json:"num_questions_generated"`
	Timestamp             string `json:"timestamp"`
	Error                 string `json:"error,omitempty"`
}

// Quiz is the complete output document.
type Quiz struct {
	Passage   Passage    `json:"passage"`
	Questions []Question `json:"questions"`
	Metadata  Metadata   `json:"metadata"`
}

// MarshalIndent renders the quiz as the 2-space indented JSON written to
// output files. Questions marshals as [] rather than null when empty.
func (q Quiz) MarshalIndent() ([]byte, error) {
	if q.Questions == nil {
		q.Questions = []Question{}
	}
	return json.MarshalIndent(q, "", "  ")
}
