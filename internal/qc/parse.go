package qc

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// checkVerdict is a parsed check response: binary score plus reasoning.
type checkVerdict struct {
	Score     int
	Reasoning string
}

var (
	answerTagRe  = regexp.MustCompile(`(?s)<answer>(.*?)</answer>`)
	fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	scoreRe      = regexp.MustCompile(`"score":\s*(\d+)`)
	reasoningRe  = regexp.MustCompile(`"reasoning":\s*"([^"]*)"`)
)

// scoredReply is the JSON shape checks are asked to emit.
type scoredReply struct {
	Score     json.Number `json:"score"`
	Reasoning string      `json:"reasoning"`
}

func (r scoredReply) intScore() int {
	n, err := r.Score.Int64()
	if err != nil {
		if f, ferr := r.Score.Float64(); ferr == nil {
			return int(f)
		}
		return 0
	}
	return int(n)
}

// parseCheckResponse extracts a score and reasoning from a quality
// check reply. Parse order: JSON inside <answer> tags, then fenced JSON
// blocks, then field regexes, then a pass/fail text heuristic.
func parseCheckResponse(response string) checkVerdict {
	if m := answerTagRe.FindStringSubmatch(response); m != nil {
		var reply scoredReply
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &reply); err == nil {
			return checkVerdict{Score: reply.intScore(), Reasoning: reply.Reasoning}
		}
	}

	for _, m := range fencedJSONRe.FindAllStringSubmatch(response, -1) {
		var reply scoredReply
		if err := json.Unmarshal([]byte(m[1]), &reply); err == nil {
			return checkVerdict{Score: reply.intScore(), Reasoning: reply.Reasoning}
		}
	}

	var verdict checkVerdict
	if m := scoreRe.FindStringSubmatch(response); m != nil {
		verdict.Score, _ = strconv.Atoi(m[1])
	}
	if m := reasoningRe.FindStringSubmatch(response); m != nil {
		verdict.Reasoning = m[1]
	}
	if verdict.Score != 0 || verdict.Reasoning != "" {
		return verdict
	}

	// Last resort: read an explicit pass/fail mention, preferring the
	// one nearer to the word "score" when both appear.
	lower := strings.ToLower(response)
	passIdx := strings.Index(lower, "pass")
	failIdx := strings.Index(lower, "fail")
	switch {
	case passIdx >= 0 && failIdx >= 0:
		if scoreIdx := strings.Index(lower, "score"); scoreIdx >= 0 {
			if abs(passIdx-scoreIdx) < abs(failIdx-scoreIdx) {
				verdict.Score = 1
			}
		}
	case passIdx >= 0:
		verdict.Score = 1
	}
	return verdict
}

// plausibilityVerdict is a parsed plausibility reply for one distractor.
type plausibilityVerdict struct {
	Plausible bool
	Reasoning string
}

// parsePlausibilityResponse extracts a plausibility verdict. Same parse
// tiers as parseCheckResponse, with a textual "plausible" heuristic as
// the last resort.
func parsePlausibilityResponse(response string) plausibilityVerdict {
	if m := answerTagRe.FindStringSubmatch(response); m != nil {
		var reply scoredReply
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &reply); err == nil {
			return plausibilityVerdict{Plausible: reply.intScore() == 1, Reasoning: reply.Reasoning}
		}
	}

	for _, m := range fencedJSONRe.FindAllStringSubmatch(response, -1) {
		var reply scoredReply
		if err := json.Unmarshal([]byte(m[1]), &reply); err == nil {
			return plausibilityVerdict{Plausible: reply.intScore() == 1, Reasoning: reply.Reasoning}
		}
	}

	var verdict plausibilityVerdict
	if m := scoreRe.FindStringSubmatch(response); m != nil {
		score, _ := strconv.Atoi(m[1])
		verdict.Plausible = score == 1
	}
	if m := reasoningRe.FindStringSubmatch(response); m != nil {
		verdict.Reasoning = m[1]
	}
	if verdict.Plausible || verdict.Reasoning != "" {
		return verdict
	}

	lower := strings.ToLower(response)
	if idx := strings.Index(lower, "plausible"); idx >= 0 {
		// Look at the clause around the mention for a negation.
		start := strings.LastIndexAny(lower[:idx], ".\n") + 1
		end := idx + len("plausible")
		if rest := strings.IndexAny(lower[end:], ".\n"); rest >= 0 {
			end += rest
		} else {
			end = len(lower)
		}
		clause := lower[start:end]
		negations := []string{"not plausible", "implausible", "isn't plausible", "is not plausible"}
		verdict.Plausible = true
		for _, neg := range negations {
			if strings.Contains(clause, neg) {
				verdict.Plausible = false
				break
			}
		}
	}
	return verdict
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
