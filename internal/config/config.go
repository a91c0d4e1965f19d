package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the quiz generator.
// It is constructed once (FromEnv or defaults) and passed explicitly to
// every component — there are no package-level singletons.
type Config struct {
	// DataDir is prepended to all data file names. Empty means the
	// current directory.
	DataDir string

	LessonsFile             string
	PassagesFile            string
	ExamplesFile            string
	QCPromptsFile           string
	ExplanationExamplesFile string

	// NumWorkers bounds the number of generation slots in flight at once.
	NumWorkers int

	// BatchTimeout is the deadline for one batch of concurrent
	// generation slots.
	BatchTimeout time.Duration

	// PublishEndpoint is the course-management API URL for publishing.
	PublishEndpoint string

	// OutputDir is where generated quiz JSON files are written.
	OutputDir string
}

// TierRange is the inclusive (min, max) question count for one tier.
type TierRange struct {
	Min int
	Max int
}

// TierRanges holds the per-tier ranges for one quiz difficulty preset.
type TierRanges struct {
	Easy   TierRange
	Medium TierRange
	Hard   TierRange
}

// DifficultyLevels maps quiz difficulty (1..3) to tier count ranges.
// Preset 1 skews easy, preset 3 skews hard.
var DifficultyLevels = map[int]TierRanges{
	1: {Easy: TierRange{2, 5}, Medium: TierRange{2, 5}, Hard: TierRange{1, 2}},
	2: {Easy: TierRange{2, 3}, Medium: TierRange{2, 5}, Hard: TierRange{2, 4}},
	3: {Easy: TierRange{1, 2}, Medium: TierRange{2, 4}, Hard: TierRange{2, 6}},
}

// Default returns a Config with the standard file names and limits.
func Default() Config {
	return Config{
		LessonsFile:             "lang_lessons.json",
		PassagesFile:            "lang_passages.json",
		ExamplesFile:            "lang_examples.json",
		QCPromptsFile:           "lang-question-qc.json",
		ExplanationExamplesFile: "lang_explanations_examples.json",
		NumWorkers:              5,
		BatchTimeout:            360 * time.Second,
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() Config {
	cfg := Default()

	if d := os.Getenv("QUIZFORGE_DATA_DIR"); d != "" {
		cfg.DataDir = d
	}
	if f := os.Getenv("QUIZFORGE_LESSONS_FILE"); f != "" {
		cfg.LessonsFile = f
	}
	if f := os.Getenv("QUIZFORGE_PASSAGES_FILE"); f != "" {
		cfg.PassagesFile = f
	}
	if f := os.Getenv("QUIZFORGE_EXAMPLES_FILE"); f != "" {
		cfg.ExamplesFile = f
	}
	if f := os.Getenv("QUIZFORGE_QC_PROMPTS_FILE"); f != "" {
		cfg.QCPromptsFile = f
	}
	if f := os.Getenv("QUIZFORGE_EXPLANATIONS_FILE"); f != "" {
		cfg.ExplanationExamplesFile = f
	}
	if w := os.Getenv("QUIZFORGE_NUM_WORKERS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil && n > 0 {
			cfg.NumWorkers = n
		}
	}
	if t := os.Getenv("QUIZFORGE_BATCH_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.BatchTimeout = d
		}
	}
	if u := os.Getenv("QUIZFORGE_PUBLISH_URL"); u != "" {
		cfg.PublishEndpoint = u
	}
	if d := os.Getenv("QUIZFORGE_OUTPUT_DIR"); d != "" {
		cfg.OutputDir = d
	}

	return cfg
}

// LessonsPath returns the full path of the lessons data file.
func (c Config) LessonsPath() string { return filepath.Join(c.DataDir, c.LessonsFile) }

// PassagesPath returns the full path of the passages data file.
func (c Config) PassagesPath() string { return filepath.Join(c.DataDir, c.PassagesFile) }

// ExamplesPath returns the full path of the examples data file.
func (c Config) ExamplesPath() string { return filepath.Join(c.DataDir, c.ExamplesFile) }

// QCPromptsPath returns the full path of the QC prompt catalog file.
func (c Config) QCPromptsPath() string { return filepath.Join(c.DataDir, c.QCPromptsFile) }

// ExplanationExamplesPath returns the full path of the optional
// explanation-examples file.
func (c Config) ExplanationExamplesPath() string {
	return filepath.Join(c.DataDir, c.ExplanationExamplesFile)
}

// ValidateQuizArgs rejects malformed quiz parameters before any work
// starts. These are caller errors, never retried or degraded.
func ValidateQuizArgs(difficulty, numQuestions int) error {
	if _, ok := DifficultyLevels[difficulty]; !ok {
		return fmt.Errorf("difficulty must be 1, 2, or 3, got %d", difficulty)
	}
	if numQuestions < 1 || numQuestions > 12 {
		return fmt.Errorf("number of questions must be between 1 and 12, got %d", numQuestions)
	}
	return nil
}
