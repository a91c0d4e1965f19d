// Package publish formats quizzes for the course-management API and
// posts them, and writes quiz JSON files to disk.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inceptlabs/quizforge/internal/quiz"
)

// CourseDetails addresses the quiz within the course catalog. Exactly
// one of the three shapes is used: a new course (Course and Module
// set), a new module in an existing course (CourseID and Module set),
// or an existing module (CourseID and ModuleID set).
type CourseDetails struct {
	Course   *CourseRef `json:"course,omitempty"`
	Module   *ModuleRef `json:"module,omitempty"`
	Items    []Item     `json:"items"`
	CourseID string     `json:"course_id,omitempty"`
	ModuleID string     `json:"module_id,omitempty"`
}

type CourseRef struct {
	Title string `json:"title"`
}

type ModuleRef struct {
	Name string `json:"name"`
}

type Item struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	XP          int    `json:"xp"`
}

// DefaultXP is used when no XP value is given for the quiz item.
const DefaultXP = 10

func quizItem(itemName string, xp int) []Item {
	if xp <= 0 {
		xp = DefaultXP
	}
	return []Item{{Name: itemName, ContentType: "quiz", XP: xp}}
}

// NewCourse targets a brand-new course.
func NewCourse(courseTitle, moduleName, itemName string, xp int) CourseDetails {
	return CourseDetails{
		Course: &CourseRef{Title: courseTitle},
		Module: &ModuleRef{Name: moduleName},
		Items:  quizItem(itemName, xp),
	}
}

// ExistingCourse adds a new module to an existing course.
func ExistingCourse(courseID, moduleName, itemName string, xp int) CourseDetails {
	return CourseDetails{
		Module:   &ModuleRef{Name: moduleName},
		Items:    quizItem(itemName, xp),
		CourseID: courseID,
	}
}

// ExistingModule adds the quiz to an existing module.
func ExistingModule(courseID, moduleID, itemName string, xp int) CourseDetails {
	return CourseDetails{
		Items:    quizItem(itemName, xp),
		CourseID: courseID,
		ModuleID: moduleID,
	}
}

// Response is one answer option in the API's question format.
type Response struct {
	Label       string `json:"label"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation"`
}

// APIQuestion is one question in the API's format.
type APIQuestion struct {
	Material      string     `json:"material"`
	ReferenceText string     `json:"referenceText"`
	Explanation   string     `json:"explanation"`
	Responses     []Response `json:"responses"`
	Difficulty    int        `json:"difficulty"`
}

type contentBlock struct {
	Content     []APIQuestion `json:"content"`
	ContentType string        `json:"content_type"`
}

// Payload is the full request body for the publish endpoint.
type Payload struct {
	Content       []contentBlock `json:"content"`
	CourseDetails CourseDetails  `json:"course_details"`
}

// FormatForAPI converts a quiz into the publish payload. Questions
// missing an explanation get a minimal one naming the correct answer.
func FormatForAPI(q *quiz.Quiz, details CourseDetails) Payload {
	questions := make([]APIQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		explanation := question.Explanation
		if explanation == "" {
			explanation = "The correct answer is " + question.CorrectAnswer
		}

		questions = append(questions, APIQuestion{
			Material:      question.Question,
			ReferenceText: q.Passage.Text,
			Explanation:   explanation,
			Responses: []Response{
				{Label: question.CorrectAnswer, IsCorrect: true},
				{Label: question.Distractor1},
				{Label: question.Distractor2},
				{Label: question.Distractor3},
			},
			Difficulty: numericDifficulty(question.Difficulty),
		})
	}

	return Payload{
		Content: []contentBlock{
			{Content: questions, ContentType: "Question"},
		},
		CourseDetails: details,
	}
}

func numericDifficulty(difficulty string) int {
	if n, err := strconv.Atoi(difficulty); err == nil {
		return n
	}
	switch strings.ToLower(difficulty) {
	case "easy":
		return 1
	case "medium":
		return 2
	case "hard":
		return 3
	}
	return 1
}

// Result is the publish endpoint's reply.
type Result struct {
	CourseID string `json:"course_id"`
	ModuleID string `json:"module_id"`
	ItemID   string `json:"item_id"`
	ViewURL  string `json:"view_url"`
}

// Success reports whether the API actually created the content.
func (r *Result) Success() bool {
	return r != nil && r.CourseID != ""
}

// Client posts quizzes to the publish endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	log        *zap.Logger
}

func NewClient(endpoint string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: 5,
		retryDelay: 2 * time.Second,
		log:        log,
	}
}

// Publish posts the payload, retrying transient failures (connection
// errors, 5xx, 429) with exponential backoff. A non-retryable status or
// an unparsable reply fails immediately.
func (c *Client) Publish(ctx context.Context, payload Payload) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	c.log.Info("publishing quiz", zap.String("endpoint", c.endpoint))

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryDelay * time.Duration(1<<(attempt-1))
			wait += time.Duration(rand.Float64() * float64(wait) / 2)
			c.log.Warn("publish attempt failed, retrying",
				zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		result, retryable, err := c.post(ctx, body)
		if err == nil {
			c.log.Info("quiz published", zap.String("course_id", result.CourseID))
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("publishing failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (*Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("API error %d: %s", resp.StatusCode, apiDetail(data))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("API error %d: %s", resp.StatusCode, apiDetail(data))
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("invalid JSON response from API: %s", truncate(string(data), 100))
	}
	return &result, false, nil
}

// apiDetail pulls the "detail" field out of an error reply, falling
// back to the raw body.
func apiDetail(data []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return truncate(string(data), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
