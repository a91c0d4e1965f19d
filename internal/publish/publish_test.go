package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inceptlabs/quizforge/internal/quiz"
)

func sampleQuiz() *quiz.Quiz {
	return &quiz.Quiz{
		Passage: quiz.Passage{
			ID:     "p1",
			Title:  "Sample Passage",
			Author: "Sample Author",
			Type:   "Text",
			Text:   "<p>This is the passage.</p>",
		},
		Questions: []quiz.Question{
			{
				Question:      "What is the main topic?",
				CorrectAnswer: "The right one",
				Distractor1:   "Wrong one",
				Distractor2:   "Wrong two",
				Distractor3:   "Wrong three",
				Standard:      "RHS-1",
				Difficulty:    "2",
				Explanation:   "<html><p>Because.</p></html>",
			},
			{
				Question:      "What tone does the author use?",
				CorrectAnswer: "Measured",
				Distractor1:   "Hostile",
				Distractor2:   "Playful",
				Distractor3:   "Detached",
				Standard:      "RHS-1",
				Difficulty:    "hard",
			},
		},
		Metadata: quiz.Metadata{
			LessonName:            "Rhetorical Situations",
			StandardID:            "RHS-1",
			Difficulty:            2,
			NumQuestions:          2,
			NumQuestionsGenerated: 2,
			Timestamp:             "2026-09-01 12:00:00",
		},
	}
}

func TestFormatForAPI(t *testing.T) {
	q := sampleQuiz()
	details := NewCourse("AP Lang", "Unit 1", "Quiz 1", 25)

	payload := FormatForAPI(q, details)

	if len(payload.Content) != 1 || payload.Content[0].ContentType != "Question" {
		t.Fatalf("content blocks = %+v", payload.Content)
	}
	questions := payload.Content[0].Content
	if len(questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(questions))
	}

	first := questions[0]
	if first.Material != "What is the main topic?" {
		t.Errorf("material = %q", first.Material)
	}
	if first.ReferenceText != q.Passage.Text {
		t.Error("referenceText should carry the passage text")
	}
	if first.Explanation != "<html><p>Because.</p></html>" {
		t.Errorf("explanation = %q", first.Explanation)
	}
	if first.Difficulty != 2 {
		t.Errorf("difficulty = %d", first.Difficulty)
	}
	if len(first.Responses) != 4 {
		t.Fatalf("responses = %d", len(first.Responses))
	}
	if !first.Responses[0].IsCorrect || first.Responses[0].Label != "The right one" {
		t.Errorf("first response = %+v", first.Responses[0])
	}
	for _, r := range first.Responses[1:] {
		if r.IsCorrect {
			t.Errorf("distractor marked correct: %+v", r)
		}
	}

	second := questions[1]
	if second.Explanation != "The correct answer is Measured" {
		t.Errorf("default explanation = %q", second.Explanation)
	}
	if second.Difficulty != 3 {
		t.Errorf("named difficulty = %d, want 3", second.Difficulty)
	}

	if payload.CourseDetails.Course.Title != "AP Lang" {
		t.Errorf("course title = %q", payload.CourseDetails.Course.Title)
	}
	if payload.CourseDetails.Items[0].XP != 25 {
		t.Errorf("xp = %d", payload.CourseDetails.Items[0].XP)
	}
}

func TestNumericDifficulty(t *testing.T) {
	cases := map[string]int{
		"1": 1, "2": 2, "3": 3,
		"easy": 1, "medium": 2, "hard": 3, "Hard": 3,
		"": 1, "expert": 1,
	}
	for in, want := range cases {
		if got := numericDifficulty(in); got != want {
			t.Errorf("numericDifficulty(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestCourseDetailShapes(t *testing.T) {
	newCourse, _ := json.Marshal(NewCourse("C", "M", "I", 0))
	if !strings.Contains(string(newCourse), `"xp":10`) {
		t.Errorf("default xp missing: %s", newCourse)
	}
	if strings.Contains(string(newCourse), "course_id") {
		t.Errorf("new course must not carry course_id: %s", newCourse)
	}

	existing, _ := json.Marshal(ExistingCourse("c-1", "M", "I", 15))
	if !strings.Contains(string(existing), `"course_id":"c-1"`) {
		t.Errorf("existing course missing course_id: %s", existing)
	}
	if strings.Contains(string(existing), `"course"`+`:`) {
		t.Errorf("existing course must not carry a course title: %s", existing)
	}

	module, _ := json.Marshal(ExistingModule("c-1", "m-1", "I", 15))
	if !strings.Contains(string(module), `"module_id":"m-1"`) {
		t.Errorf("existing module missing module_id: %s", module)
	}
}

func TestPublishSuccess(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(Result{CourseID: "c-9", ModuleID: "m-9", ItemID: "i-9"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	result, err := c.Publish(context.Background(), FormatForAPI(sampleQuiz(), NewCourse("C", "M", "I", 10)))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !result.Success() {
		t.Error("expected success")
	}
	if result.CourseID != "c-9" {
		t.Errorf("course id = %q", result.CourseID)
	}
	if len(got.Content) != 1 {
		t.Errorf("server saw %d content blocks", len(got.Content))
	}
}

func TestPublishRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Result{CourseID: "c-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	c.retryDelay = time.Millisecond

	result, err := c.Publish(context.Background(), Payload{})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if result.CourseID != "c-1" {
		t.Errorf("course id = %q", result.CourseID)
	}
}

func TestPublishClientErrorNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "missing course details"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	c.retryDelay = time.Millisecond

	_, err := c.Publish(context.Background(), Payload{})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !strings.Contains(err.Error(), "missing course details") {
		t.Errorf("error = %v", err)
	}
}

func TestPublishExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	c.maxRetries = 3
	c.retryDelay = time.Millisecond

	_, err := c.Publish(context.Background(), Payload{})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error = %v", err)
	}
}

func TestPublishInvalidJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.Publish(context.Background(), Payload{})
	if err == nil || !strings.Contains(err.Error(), "invalid JSON response") {
		t.Errorf("error = %v", err)
	}
}

func TestSaveQuizGeneratedFilename(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveQuiz(sampleQuiz(), "", dir, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	base := filepath.Base(path)
	if base != "quiz_Rhetorical_Situations_RHS-1_2026-09-01_12-00-00.json" {
		t.Errorf("filename = %q", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var q quiz.Quiz
	if err := json.Unmarshal(data, &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(q.Questions) != 2 {
		t.Errorf("questions = %d", len(q.Questions))
	}
}

func TestSaveQuizExplicitFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	got, err := SaveQuiz(sampleQuiz(), path, "ignored", nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got != path {
		t.Errorf("path = %q", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat: %v", err)
	}
}
