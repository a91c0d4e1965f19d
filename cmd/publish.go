package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inceptlabs/quizforge/internal/config"
	"github.com/inceptlabs/quizforge/internal/publish"
	"github.com/inceptlabs/quizforge/internal/quiz"
)

var publishCmd = &cobra.Command{
	Use:   "publish <quiz-file.json>",
	Short: "Publish an existing quiz JSON file to the course catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read quiz file: %w", err)
		}
		var q quiz.Quiz
		if err := json.Unmarshal(data, &q); err != nil {
			return fmt.Errorf("invalid JSON in quiz file %s: %w", args[0], err)
		}
		fmt.Printf("Loaded quiz with %d questions from %s\n", len(q.Questions), args[0])

		return publishQuiz(cmd, config.FromEnv(), &q)
	},
}

func init() {
	addPublishFlags(publishCmd)
}

// addPublishFlags registers the course-targeting flags shared by
// generate --publish and the publish command.
func addPublishFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("new-course", false, "Create a new course when publishing")
	f.String("existing-course", "", "Add a new module to the existing course with this ID")
	f.String("update-module", "", "Update an existing module. Format: COURSE_ID:MODULE_ID")
	f.String("module-name", "", "Module name for publishing (for new modules)")
	f.String("item-name", "", "Quiz item name for publishing")
	f.Int("xp-value", 0, "XP value for completing the quiz")

	cmd.MarkFlagsMutuallyExclusive("new-course", "existing-course", "update-module")
}

// courseDetailsFromFlags builds the course-details payload from the
// publish mode flags. The default mode is a new course.
func courseDetailsFromFlags(cmd *cobra.Command) (publish.CourseDetails, error) {
	existingCourse, _ := cmd.Flags().GetString("existing-course")
	updateModule, _ := cmd.Flags().GetString("update-module")
	moduleName, _ := cmd.Flags().GetString("module-name")
	itemName, _ := cmd.Flags().GetString("item-name")
	xp, _ := cmd.Flags().GetInt("xp-value")

	if moduleName == "" {
		moduleName = "New Module"
	}

	switch {
	case updateModule != "":
		courseID, moduleID, ok := strings.Cut(updateModule, ":")
		if !ok || courseID == "" || moduleID == "" {
			return publish.CourseDetails{}, fmt.Errorf("--update-module requires the format COURSE_ID:MODULE_ID")
		}
		if itemName == "" {
			itemName = "Updated Quiz"
		}
		return publish.ExistingModule(courseID, moduleID, itemName, xp), nil

	case existingCourse != "":
		if itemName == "" {
			itemName = "Quiz"
		}
		return publish.ExistingCourse(existingCourse, moduleName, itemName, xp), nil

	default:
		courseTitle := itemName
		if courseTitle == "" {
			courseTitle = "New Course"
		}
		if itemName == "" {
			itemName = "Quiz"
		}
		return publish.NewCourse(courseTitle, moduleName, itemName, xp), nil
	}
}

// publishQuiz formats and posts the quiz, printing the catalog IDs the
// API hands back.
func publishQuiz(cmd *cobra.Command, cfg config.Config, q *quiz.Quiz) error {
	if cfg.PublishEndpoint == "" {
		return fmt.Errorf("no publish endpoint configured: set QUIZFORGE_PUBLISH_URL")
	}

	details, err := courseDetailsFromFlags(cmd)
	if err != nil {
		return err
	}

	log, err := buildLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	client := publish.NewClient(cfg.PublishEndpoint, log)
	result, err := client.Publish(cmd.Context(), publish.FormatForAPI(q, details))
	if err != nil {
		return fmt.Errorf("publish quiz: %w", err)
	}
	if !result.Success() {
		return fmt.Errorf("publishing may have failed: no course_id in response")
	}

	fmt.Println("Quiz published successfully.")
	fmt.Printf("Course ID: %s\n", result.CourseID)
	if result.ModuleID != "" {
		fmt.Printf("Module ID: %s\n", result.ModuleID)
	}
	if result.ItemID != "" {
		fmt.Printf("Item ID:   %s\n", result.ItemID)
	}
	if result.ViewURL != "" {
		fmt.Printf("View URL:  %s\n", result.ViewURL)
	}
	return nil
}
