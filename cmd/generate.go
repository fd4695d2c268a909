package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/momentum/internal/llm"
	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/questiongen"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate questions into the bank from templates or an LLM",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		chapter, _ := cmd.Flags().GetString("chapter")
		count, _ := cmd.Flags().GetInt("count")
		workers, _ := cmd.Flags().GetInt("workers")
		useLLM, _ := cmd.Flags().GetBool("llm")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		topic, _ := cmd.Flags().GetString("topic")
		rawDiff, _ := cmd.Flags().GetString("difficulty")
		rawSkill, _ := cmd.Flags().GetString("skill")

		if count < 1 {
			return fmt.Errorf("--count must be at least 1")
		}
		diff, err := question.ParseDifficulty(rawDiff)
		if err != nil {
			return err
		}
		var skill question.SkillType
		if rawSkill != "" {
			if skill, err = question.ParseSkillType(rawSkill); err != nil {
				return err
			}
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		gen, err := a.Generator(cmd.Context(), useLLM)
		if err != nil {
			return err
		}

		specs := make([]questiongen.Spec, count)
		for i := range specs {
			specs[i] = questiongen.Spec{Subject: subject, Chapter: chapter, Difficulty: diff, SkillType: skill, Topic: topic}
		}
		ctx := llm.WithPurpose(cmd.Context(), llm.PurposeQuestionGen)
		qs, failures := questiongen.Fill(ctx, gen, specs, workers)
		for _, f := range failures {
			a.Logger.Warn("generation failed", "spec", f.Index, "error", f.Err)
		}

		if dryRun {
			for _, q := range qs {
				fmt.Printf("[%s] %s\n", q.SkillType, q.Prompt)
				for i, o := range q.Options {
					mark := " "
					if i == q.Answer {
						mark = "*"
					}
					fmt.Printf("   %s %d) %s\n", mark, i+1, o)
				}
			}
			fmt.Printf("Generated %d of %d (dry run, nothing saved).\n", len(qs), count)
			return nil
		}

		batch := make([]question.Question, len(qs))
		for i, q := range qs {
			batch[i] = *q
		}
		n, err := a.Store.InsertQuestions(cmd.Context(), batch)
		if err != nil {
			return err
		}
		fmt.Printf("Generated %d of %d, inserted %d.\n", len(qs), count, n)
		return nil
	},
}

func init() {
	generateCmd.Flags().String("subject", "Quantitative Aptitude", "Subject")
	generateCmd.Flags().String("chapter", "Percentages", "Chapter")
	generateCmd.Flags().String("difficulty", "", "Difficulty band (default Moderate)")
	generateCmd.Flags().String("skill", "", "Skill type: learning, grasping or application")
	generateCmd.Flags().String("topic", "", "Free-text steer for the model")
	generateCmd.Flags().IntP("count", "n", 10, "Number of questions")
	generateCmd.Flags().Int("workers", 4, "Concurrent generators")
	generateCmd.Flags().Bool("llm", false, "Use the configured LLM instead of templates")
	generateCmd.Flags().Bool("dry-run", false, "Print instead of saving")
}
