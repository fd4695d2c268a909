package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/session"
	"github.com/abhisek/momentum/internal/tui"
)

// addFilterFlags registers the question filter flags shared by take and
// practice.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("subject", "Quantitative Aptitude", "Subject")
	cmd.Flags().StringSlice("chapters", []string{"Percentages"}, "Chapters (comma separated)")
	cmd.Flags().String("difficulty", "", "Difficulty band (default any)")
}

func readFilter(cmd *cobra.Command) (question.Filter, error) {
	subject, _ := cmd.Flags().GetString("subject")
	chapters, _ := cmd.Flags().GetStringSlice("chapters")
	raw, _ := cmd.Flags().GetString("difficulty")
	diff, err := question.ParseDifficulty(raw)
	if err != nil {
		return question.Filter{}, err
	}
	f := question.Filter{Subject: subject, Chapters: chapters, Difficulty: diff}
	return f, f.Validate()
}

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take a timed test in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readFilter(cmd)
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		res, err := a.Sessions.Start(ctx, session.StartRequest{
			UserID:     currentUser(cmd),
			Kind:       session.KindTest,
			Subject:    f.Subject,
			Chapters:   f.Chapters,
			Difficulty: f.Difficulty,
		})
		if err != nil {
			return err
		}
		if res.ShortDraw() {
			fmt.Printf("Only %d of %d questions match; the test will be shorter.\n", res.Drawn, res.Requested)
		}

		m := tui.NewTest(ctx, a.Sessions, res)
		if _, err := tui.Run(m); err != nil {
			return err
		}
		if r := m.Result(); r != nil {
			fmt.Printf("Scored %d/%d. Full report: momentum report %s\n", r.Score, r.Total, r.Session.ID)
		} else {
			fmt.Printf("Test %s left unsubmitted.\n", res.Session.ID)
		}
		return nil
	},
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practice one question at a time",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readFilter(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("include-solved")
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		m := tui.NewPractice(cmd.Context(), a.Practice, currentUser(cmd), f, !all, nil)
		if _, err := tui.Run(m); err != nil {
			return err
		}
		answered, correct := m.Tally()
		fmt.Printf("Answered %d, correct %d.\n", answered, correct)
		return nil
	},
}

func init() {
	addFilterFlags(takeCmd)
	addFilterFlags(practiceCmd)
	practiceCmd.Flags().Bool("include-solved", false, "Also show questions already answered correctly")
}
