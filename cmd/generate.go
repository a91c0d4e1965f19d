package cmd

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/inceptlabs/quizforge/internal/config"
	"github.com/inceptlabs/quizforge/internal/distribute"
	"github.com/inceptlabs/quizforge/internal/llm"
	"github.com/inceptlabs/quizforge/internal/publish"
	"github.com/inceptlabs/quizforge/internal/qc"
	"github.com/inceptlabs/quizforge/internal/questiongen"
	"github.com/inceptlabs/quizforge/internal/quizgen"
	"github.com/inceptlabs/quizforge/internal/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz for a lesson or standard",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("lesson", "", "Name of the lesson to create a quiz for")
	f.String("standard", "", "Specific standard to quiz")
	f.Int("difficulty", 1, "Quiz difficulty level: 1 (easy), 2 (medium), or 3 (hard)")
	f.Int("num-questions", 6, "Number of questions to generate (1-12)")
	f.String("output-file", "", "Path to save the quiz JSON (default: generated name in the output directory)")
	f.Bool("publish", false, "Publish the quiz to the course catalog after generation")
	addPublishFlags(generateCmd)

	generateCmd.MarkFlagsMutuallyExclusive("lesson", "standard")
	generateCmd.MarkFlagsOneRequired("lesson", "standard")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	lesson, _ := cmd.Flags().GetString("lesson")
	standard, _ := cmd.Flags().GetString("standard")
	difficulty, _ := cmd.Flags().GetInt("difficulty")
	numQuestions, _ := cmd.Flags().GetInt("num-questions")
	outputFile, _ := cmd.Flags().GetString("output-file")
	doPublish, _ := cmd.Flags().GetBool("publish")

	if err := config.ValidateQuizArgs(difficulty, numQuestions); err != nil {
		return err
	}

	log, err := buildLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx := cmd.Context()
	cfg := config.FromEnv()

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	llmCfg, ok := llm.DiscoverConfig()
	if !ok {
		return fmt.Errorf("no LLM provider configured: set QUIZFORGE_LLM_PROVIDER, or one of GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY")
	}
	provider, err := llm.NewProvider(ctx, llmCfg, st.EventRepo())
	if err != nil {
		return fmt.Errorf("create LLM provider: %w", err)
	}

	index, err := loadIndexWith(log)
	if err != nil {
		return err
	}

	catalog, err := qc.LoadCatalog(cfg.QCPromptsPath(), log)
	if err != nil {
		return fmt.Errorf("load quality-control prompts: %w", err)
	}
	engine := qc.NewEngine(provider, catalog, log)
	generator := questiongen.New(provider, engine, log)
	explainer := quizgen.NewExplainer(provider, index.ExplanationExamples(), log)

	now := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewPCG(now, now>>32))

	assembler := quizgen.New(index, distribute.New(rng, log), generator, cfg, quizgen.Options{
		Explainer: explainer,
		Rand:      rng,
		Logger:    log,
	})

	req := quizgen.Request{
		LessonName:   lesson,
		Difficulty:   difficulty,
		NumQuestions: numQuestions,
	}
	if standard != "" {
		req.Standards = []string{standard}
	}

	q, err := assembler.GenerateQuiz(ctx, req)
	if err != nil {
		return fmt.Errorf("generate quiz: %w", err)
	}

	path, err := publish.SaveQuiz(q, outputFile, cfg.OutputDir, log)
	if err != nil {
		return err
	}
	fmt.Printf("Quiz saved to %s (%d/%d questions)\n",
		path, q.Metadata.NumQuestionsGenerated, q.Metadata.NumQuestions)
	if q.Metadata.Error != "" {
		fmt.Printf("Warning: %s\n", q.Metadata.Error)
	}

	if !doPublish {
		return nil
	}
	return publishQuiz(cmd, cfg, q)
}
