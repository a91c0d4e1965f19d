// Package cmd implements the quizforge command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inceptlabs/quizforge/internal/logging"
	"github.com/inceptlabs/quizforge/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "quizforge",
	Short: "LLM-backed quiz generator for AP English Language",
	Long:  "Quizforge generates multiple-choice reading comprehension quizzes from curriculum data, runs each question through quality control, and can publish the result to the course catalog.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZFORGE_DB env var)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose (development) logging")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(standardsCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then QUIZFORGE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

func buildLogger(cmd *cobra.Command) (*zap.Logger, error) {
	mode := "production"
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		mode = "development"
	}
	return logging.New(mode)
}
