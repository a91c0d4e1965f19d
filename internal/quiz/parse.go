package quiz

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	fieldRes      = map[string]*regexp.Regexp{
		"question":       regexp.MustCompile(`"question"\s*:\s*"([^"]*)"`),
		"correct_answer": regexp.MustCompile(`"correct_answer"\s*:\s*"([^"]*)"`),
		"distractor1":    regexp.MustCompile(`"distractor1"\s*:\s*"([^"]*)"`),
		"distractor2":    regexp.MustCompile(`"distractor2"\s*:\s*"([^"]*)"`),
		"distractor3":    regexp.MustCompile(`"distractor3"\s*:\s*"([^"]*)"`),
	}
)

// ParseResponse extracts a question from a model reply. Three tiers:
// fenced JSON blocks first, then the outermost brace span, then
// per-field regex recovery. Returns false when no complete question can
// be recovered.
func ParseResponse(response string) (*Question, bool) {
	for _, m := range fencedBlockRe.FindAllStringSubmatch(response, -1) {
		if q, ok := unmarshalQuestion(m[1]); ok {
			return q, true
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		if q, ok := unmarshalQuestion(response[start : end+1]); ok {
			return q, true
		}
	}

	fields := make(map[string]string, len(fieldRes))
	for name, re := range fieldRes {
		m := re.FindStringSubmatch(response)
		if m == nil {
			return nil, false
		}
		fields[name] = m[1]
	}
	return &Question{
		Question:      fields["question"],
		CorrectAnswer: fields["correct_answer"],
		Distractor1:   fields["distractor1"],
		Distractor2:   fields["distractor2"],
		Distractor3:   fields["distractor3"],
	}, true
}

func unmarshalQuestion(s string) (*Question, bool) {
	var q Question
	if err := json.Unmarshal([]byte(s), &q); err != nil {
		return nil, false
	}
	if q.Question == "" || q.CorrectAnswer == "" ||
		q.Distractor1 == "" || q.Distractor2 == "" || q.Distractor3 == "" {
		return nil, false
	}
	return &q, true
}
