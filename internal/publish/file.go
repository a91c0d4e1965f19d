package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inceptlabs/quizforge/internal/quiz"
)

// SaveQuiz writes the quiz JSON to filename, or to an auto-generated
// name under outputDir when filename is empty. Returns the path
// written.
func SaveQuiz(q *quiz.Quiz, filename, outputDir string, log *zap.Logger) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if filename == "" {
		filename = quizFilename(q)
		if outputDir != "" {
			filename = filepath.Join(outputDir, filename)
		}
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}

	data, err := q.MarshalIndent()
	if err != nil {
		return "", fmt.Errorf("encoding quiz: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("saving quiz: %w", err)
	}

	log.Info("quiz saved", zap.String("file", filename))
	return filename, nil
}

// quizFilename derives a filesystem-safe name from the quiz metadata.
func quizFilename(q *quiz.Quiz) string {
	lesson := q.Metadata.LessonName
	if lesson == "" {
		lesson = "unknown"
	}
	standard := q.Metadata.StandardID
	if standard == "" {
		standard = "unknown"
	}
	timestamp := strings.NewReplacer(" ", "_", ":", "-").Replace(q.Metadata.Timestamp)

	name := fmt.Sprintf("quiz_%s_%s_%s.json", lesson, standard, timestamp)
	return sanitize(name)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
