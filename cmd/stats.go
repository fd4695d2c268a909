package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/momentum/internal/analytics"
	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/report"
	"github.com/abhisek/momentum/internal/session"
	"github.com/abhisek/momentum/internal/ui/components"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show answer counts and the skill profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Analytics.Stats(cmd.Context(), currentUser(cmd))
		if err != nil {
			return err
		}
		fmt.Printf("Answered   %d (%d correct, %d incorrect)\n", st.TotalAnswered, st.TotalCorrect, st.TotalIncorrect)
		fmt.Printf("Tests      %d\n\n", st.TestsTaken)

		bar := func(name string, v, limit int) {
			fmt.Printf("%-12s %s %3d/%d\n", name, components.Bar(float64(v)/float64(limit), 24), v, limit)
		}
		for _, sk := range question.AllSkillTypes() {
			bar(sk.DisplayName(), st.Skills.Skill(sk), analytics.SkillPoints)
		}
		bar("Retention", st.Skills.Retention, analytics.RetentionPoints)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past tests",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.Store.ListSessions(cmd.Context(), currentUser(cmd), session.KindTest)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No tests yet.")
			return nil
		}
		fmt.Printf("%-36s  %-16s  %-11s  %s\n", "ID", "Started", "Status", "Score")
		fmt.Println(strings.Repeat("─", 76))
		for _, s := range list {
			score := "-"
			if s.Score != nil {
				score = fmt.Sprintf("%d/%d", *s.Score, s.Len())
			}
			fmt.Printf("%-36s  %-16s  %-11s  %s\n", s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Status, score)
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <test-id>",
	Short: "Show the report of a submitted test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		s, qs, err := a.Sessions.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		sum, err := report.Build(s, qs)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}
		return report.Render(os.Stdout, sum, qs)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank users by questions solved",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Analytics.Leaderboard(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for i, e := range entries {
			fmt.Printf("%3d. %-24s %d\n", i+1, e.Name, e.Solved)
		}
		return nil
	},
}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List subjects, chapters and difficulties in the bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		subjects, err := a.Store.DistinctSubjects(ctx)
		if err != nil {
			return err
		}
		chapters, err := a.Store.DistinctChapters(ctx, subject)
		if err != nil {
			return err
		}
		diffs, err := a.Store.DistinctDifficulties(ctx)
		if err != nil {
			return err
		}
		n, err := a.Store.CountQuestions(ctx)
		if err != nil {
			return err
		}
		names := make([]string, len(diffs))
		for i, d := range diffs {
			names[i] = string(d)
		}
		fmt.Printf("Questions:    %d\n", n)
		fmt.Printf("Subjects:     %s\n", strings.Join(subjects, ", "))
		fmt.Printf("Chapters:     %s\n", strings.Join(chapters, ", "))
		fmt.Printf("Difficulties: %s\n", strings.Join(names, ", "))
		return nil
	},
}

func init() {
	reportCmd.Flags().Bool("json", false, "Print the summary as JSON")
	leaderboardCmd.Flags().Int("limit", analytics.DefaultLeaderboardSize, "Number of entries")
	filtersCmd.Flags().String("subject", "", "Only list chapters of this subject")
}
