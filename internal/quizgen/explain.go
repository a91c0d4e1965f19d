package quizgen

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

const explanationFailure = "An explanation couldn't be generated for this question."

const explanationSystemLead = "output strict, well-formatted html within <html></html> tags. do not use classes, only semantic html. do not use 'Choice A', 'Choice B', etc; quote the beginning and the end of the option."

// LLMExplainer generates HTML answer explanations, guided by a small
// set of curated example explanations carried in the system prompt.
type LLMExplainer struct {
	provider llm.Provider
	examples []curriculum.ExplanationExample
	log      *zap.Logger
}

func NewExplainer(provider llm.Provider, examples []curriculum.ExplanationExample, log *zap.Logger) *LLMExplainer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMExplainer{provider: provider, examples: examples, log: log}
}

// Explain returns an explanation for the question, or a stock apology
// when the call fails, or "" when the model returns nothing.
func (e *LLMExplainer) Explain(ctx context.Context, q quiz.Question, p curriculum.Passage) string {
	ctx = llm.WithPurpose(ctx, "explanation-generation")

	resp, err := e.provider.Generate(ctx, llm.Request{
		System:    e.systemPrompt(),
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: buildExplanationPrompt(q, p)}},
		MaxTokens: 1024,
	})
	if err != nil {
		e.log.Error("explanation generation failed", zap.Error(err))
		return explanationFailure
	}

	text := strings.TrimSpace(string(resp.Content))
	if text == "" {
		e.log.Warn("empty response when generating explanation")
	}
	return text
}

func (e *LLMExplainer) systemPrompt() string {
	examples := e.examples
	if len(examples) > 3 {
		examples = examples[:3]
	}
	examplesJSON := "[]"
	if len(examples) > 0 {
		if b, err := json.Marshal(examples); err == nil {
			examplesJSON = string(b)
		}
	}
	return explanationSystemLead + "\n\n" + fmt.Sprintf(
		"Here is a list of good explanation examples to guide you: %s. Analyze it carefully. To generate a comprehensive explanation that combines technical precision with rich context, follow these steps:",
		examplesJSON)
}

// The guide uses ''' as a stand-in for code fences so the whole thing
// can live in one raw string literal.
var explanationGuide = strings.ReplaceAll(`
## Step 1: Initial Analysis
1. Identify:
   - Main skill tested
   - Key paragraph references in question
   - Type of evidence needed
   - Potential misconceptions
   - Historical/contextual knowledge needed

## Step 2: Evidence Organization
Create structured evidence notes:
1. Primary Evidence:
   '''
   Line [X]: "[exact quote]"
   - Immediate context:
   - Connection to question:
   - Related evidence (lines [Y], [Z]):
   '''
2. Supporting Evidence:
   '''
   Pattern/Theme:
   - Evidence 1 (line [A])
   - Evidence 2 (line [B])
   - Connection to main point:
   '''

## Step 3: Answer Analysis Matrix
Create for each option:
'''
Option [X]:
- Initial appeal:
- Supporting evidence (lines):
- Contradicting evidence (lines):
- Common misconception:
- Rebuttal approach:
'''

## Step 4: Explanation Structure

### Opening Paragraph (Technical Foundation)
'''
<Strong technical opening>
Choice '[X]' is correct. In lines [specific numbers], the author [specific analytical point with quote] which demonstrates [connection to question focus].
</Strong technical opening>

<Rich context layer>
[Relevant historical/literary context] provides important background for understanding this [literary device/choice/strategy].
</Rich context layer>
'''

### Evidence Analysis (Dual-Layer Approach)
'''
<Technical layer>
This is supported in paragraphs [numbers] where "[exact quote]" shows [specific analysis]. Additionally, in paragraphs [numbers], the author [supporting evidence analysis].
</Technical layer>

<Contextual layer>
This pattern of [literary strategy] reflects [broader significance or historical context], which strengthens the author's [purpose/intent].
</Contextual layer>
'''

### Wrong Answer Analysis (Integrated Approach)
'''
<Technical refutation>
While Choice '[Y]' might initially appeal because [specific reason], lines [numbers] demonstrate [contradicting evidence].
</Technical refutation>

<Misconception handling>
Students might be drawn to this option due to [common misconception], but understanding [key principle] helps avoid this error.
</Misconception handling>

<Group related options>
Choices '[Z]' and '[W]' reflect similar misreadings of the author's [strategy/intent], as both [explanation of common error].
</Group related options>
'''

### Synthesis and Guidance
'''
<Technical takeaway>
The correct answer recognizes how lines [numbers] demonstrate [key analytical point].
</Technical takeaway>

<Strategic guidance>
When analyzing similar [literary devices/strategies], look for:
1. [Specific clue/pattern]
2. [Contextual element]
3. [Common pitfall to avoid]
</Strategic guidance>
'''
Note: Do not include headers or titles in the explanation. Just use new paragraphs.

## Step 5: Quality Control Integration

Before finalizing, verify presence of:
1. Technical Elements:
   - Paragraph numbers for all evidence
   - Direct quotes with analysis
   - Clear logical progression
   - All options addressed

2. Contextual Elements:
   - Historical/literary context
   - Common misconceptions addressed
   - Strategic guidance
   - Broader significance

3. Writing Quality:
   - Academic tone
   - Active voice
   - Precise terminology
   - Clear transitions

## Example Template:
<html><p>Choice '[X]' is correct. In paragraphs [numbers], the author [quote with technical analysis] demonstrates [specific skill]. This [literary choice] has particular significance because [historical/literary context].</p><p>The technical evidence for this appears in paragraphs [numbers] where "[exact quote]" shows [analysis]. This connects to the broader pattern of [literary element] seen in paragraphs [numbers], where [supporting evidence].</p><p>While Choice '[Y]' might seem plausible because [specific reason], careful attention to paragraphs [numbers] reveals [contradicting evidence]. This represents a common misconception about [literary element], where readers might [error pattern]. Similarly, Choices '[Z]' and '[W]' misinterpret the author's [strategy/intent] by [specific error].</p><p>Students approaching similar questions should:<ol><li>1. Look for [specific textual clue]</li><li>2. Consider [contextual element]</li><li>3. Avoid [common pitfall]</li></ol></p><p>The correct choice ultimately recognizes how the author's use of [literary element] in paragraphs [numbers] serves to [purpose/intent], demonstrating the broader pattern of [literary element/analysis] that characterizes this passage.</p></html>
`, "'''", "```")

func buildExplanationPrompt(q quiz.Question, p curriculum.Passage) string {
	var b strings.Builder
	b.WriteString(explanationGuide)
	fmt.Fprintf(&b, `
# Question Information
Question: %s
Correct Answer: %s
Incorrect Options:
- %s
- %s
- %s
Standard: %s

# Passage
Title: %s
Author: %s

%s
`, q.Question, q.CorrectAnswer, q.Distractor1, q.Distractor2, q.Distractor3, q.Standard, p.Title, p.Author, p.Text)
	return b.String()
}
