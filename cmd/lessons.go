package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inceptlabs/quizforge/internal/config"
	"github.com/inceptlabs/quizforge/internal/curriculum"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List available lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := loadIndex(cmd)
		if err != nil {
			return err
		}

		lessons := index.Lessons()
		if len(lessons) == 0 {
			fmt.Println("No lessons found. Make sure the lesson data is loaded correctly.")
			return nil
		}

		names := make([]string, 0, len(lessons))
		for _, l := range lessons {
			names = append(names, l.Name)
		}
		sort.Strings(names)

		fmt.Println("Available Lessons:")
		fmt.Println("=================")
		for i, name := range names {
			standards := index.StandardsForLesson(name)
			fmt.Printf("%d. %s - Standards: %s\n", i+1, name, strings.Join(standards, ", "))
		}
		return nil
	},
}

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "List available standards",
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := loadIndex(cmd)
		if err != nil {
			return err
		}

		standards := index.AllStandards()
		if len(standards) == 0 {
			fmt.Println("No standards found. Make sure the standard data is loaded correctly.")
			return nil
		}
		sorted := append([]string(nil), standards...)
		sort.Strings(sorted)

		fmt.Println("Available Standards:")
		fmt.Println("===================")
		for i, std := range sorted {
			lessons := index.LessonsForStandard(std)
			names := "No lessons"
			if len(lessons) > 0 {
				names = strings.Join(lessons, ", ")
			}
			fmt.Printf("%d. %s - Lessons: %s\n", i+1, std, names)
		}
		return nil
	},
}

func loadIndex(cmd *cobra.Command) (*curriculum.Index, error) {
	log, err := buildLogger(cmd)
	if err != nil {
		return nil, err
	}
	return loadIndexWith(log)
}

func loadIndexWith(log *zap.Logger) (*curriculum.Index, error) {
	cfg := config.FromEnv()

	index, err := curriculum.Load(curriculum.LoadOptions{
		LessonsPath:      cfg.LessonsPath(),
		PassagesPath:     cfg.PassagesPath(),
		ExamplesPath:     cfg.ExamplesPath(),
		ExplanationsPath: cfg.ExplanationExamplesPath(),
	}, log)
	if err != nil {
		return nil, fmt.Errorf("load curriculum data: %w", err)
	}
	return index, nil
}
