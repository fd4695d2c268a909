package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Import questions from a CSV sheet or a YAML bank file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		classify, _ := cmd.Flags().GetBool("classify")
		skill, _ := cmd.Flags().GetString("default-skill")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		im := seed.NewImporter(a.Store, subject)
		if skill != "" {
			if im.DefaultSkill, err = question.ParseSkillType(skill); err != nil {
				return err
			}
		}
		if classify {
			if im.Classifier = a.Classifier(cmd.Context()); im.Classifier == nil {
				return fmt.Errorf("--classify needs an LLM backend; set MOMENTUM_LLM_BACKEND or a provider API key")
			}
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var res *seed.ImportResult
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".csv":
			res, err = im.ImportCSV(cmd.Context(), f)
		case ".yaml", ".yml":
			res, err = im.ImportYAML(cmd.Context(), f)
		default:
			return fmt.Errorf("unsupported file type %q (want .csv, .yaml or .yml)", filepath.Ext(args[0]))
		}
		if err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}

		fmt.Printf("Inserted %d questions (%d already present).\n", res.Inserted, res.Parsed-res.Inserted)
		if len(res.Rejected) > 0 {
			fmt.Printf("Rejected %d rows:\n", len(res.Rejected))
			for _, r := range res.Rejected {
				fmt.Println("  " + r.Error())
			}
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().String("subject", "Quantitative Aptitude", "Subject for rows that carry none")
	seedCmd.Flags().Bool("classify", false, "Tag rows without a skill_type using the LLM classifier")
	seedCmd.Flags().String("default-skill", "", "Skill type for untagged rows when not classifying")
}
