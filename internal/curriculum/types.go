package curriculum

import (
	"encoding/json"
	"strings"
)

// StandardList is a list of standard IDs. Source data encodes it either
// as a comma-separated string or as a JSON array, so it carries a custom
// unmarshaler.
type StandardList []string

func (s *StandardList) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = splitStandards(str)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	out := make(StandardList, 0, len(list))
	for _, std := range list {
		if std = strings.TrimSpace(std); std != "" {
			out = append(out, std)
		}
	}
	*s = out
	return nil
}

// splitStandards splits a comma-separated standards string, trimming
// whitespace and dropping empty entries.
func splitStandards(s string) StandardList {
	var out StandardList
	for _, std := range strings.Split(s, ",") {
		if std = strings.TrimSpace(std); std != "" {
			out = append(out, std)
		}
	}
	return out
}

// Lesson is one curriculum lesson with its associated standards.
type Lesson struct {
	Name      string       `json:"lesson"`
	Standards StandardList `json:"standards"`
}

// Passage is a source text that questions are written against.
// Type "Draft" marks student-draft passages, which are only usable for
// standards that have writing-type examples.
type Passage struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Author    string       `json:"author"`
	Type      string       `json:"type"`
	Text      string       `json:"text"`
	Standards StandardList `json:"standards"`
}

// Description renders the passage header used in prompts:
// title, optionally "by author", optionally "(type)".
func (p Passage) Description() string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Author != "" {
		b.WriteString(" by ")
		b.WriteString(p.Author)
	}
	if p.Type != "" {
		b.WriteString(" (")
		b.WriteString(p.Type)
		b.WriteString(")")
	}
	return b.String()
}

// Example is a reference question for one standard and difficulty tier,
// shown to the model as the pattern to imitate. Difficulty is the string
// form ("1", "2", "3"); Type is "reading" or "writing".
type Example struct {
	Standard      string `json:"standard"`
	Difficulty    string `json:"difficulty"`
	Type          string `json:"type"`
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	Distractor1   string `json:"distractor1"`
	Distractor2   string `json:"distractor2"`
	Distractor3   string `json:"distractor3"`
}

// ExplanationExample is a reference answer explanation used when
// prompting for quiz explanations.
type ExplanationExample struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// FallbackPassage is the minimal passage used when no passage data is
// available at all.
var FallbackPassage = Passage{
	ID:     "fallback",
	Title:  "Sample Passage",
	Author: "System Generated",
	Type:   "Text",
	Text:   "<p>This is a sample passage generated because the requested data was not available. The system could not find the necessary passage data for your quiz.</p>",
}
