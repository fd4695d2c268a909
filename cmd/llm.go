package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/momentum/internal/llm"
	"github.com/abhisek/momentum/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect logged LLM requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		events, err := s.QueryLLMRequests(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM requests found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-14s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))
		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗ " + truncate(e.ErrorMessage, 40)
			}
			fmt.Printf("%-5d  %-19s  %-14s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.Sequence,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

type usage struct {
	calls, failed int
	tokens        llm.Tokens
	latencyMs     int64
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage by purpose and estimated cost by model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		events, err := s.QueryLLMRequests(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		byPurpose := map[string]*usage{}
		byModel := map[string]*usage{}
		for _, e := range events {
			for _, u := range []*usage{bucket(byPurpose, e.Purpose), bucket(byModel, e.Model)} {
				u.calls++
				if !e.Success {
					u.failed++
				}
				u.tokens.In += e.InputTokens
				u.tokens.Out += e.OutputTokens
				u.latencyMs += e.LatencyMs
			}
		}

		fmt.Println("Usage by Purpose")
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-16s  %6s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Failed", "Input", "Output", "Avg Ms")
		fmt.Println(strings.Repeat("─", 72))
		for _, k := range sortedKeys(byPurpose) {
			u := byPurpose[k]
			fmt.Printf("%-16s  %6d  %6d  %10d  %10d  %8d\n", k, u.calls, u.failed, u.tokens.In, u.tokens.Out, u.latencyMs/int64(u.calls))
		}

		fmt.Println()
		fmt.Println("Estimated Cost (USD)")
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-32s  %6s  %10s  %10s  %8s\n", "Model", "Calls", "Input", "Output", "Cost")
		fmt.Println(strings.Repeat("─", 72))
		var total float64
		var unknown []string
		for _, k := range sortedKeys(byModel) {
			u := byModel[k]
			cost := "?"
			if p, ok := llm.PriceOf(k); ok {
				c := p.Cost(u.tokens)
				total += c
				cost = fmt.Sprintf("$%.4f", c)
			} else {
				unknown = append(unknown, k)
			}
			fmt.Printf("%-32s  %6d  %10d  %10d  %8s\n", truncate(k, 32), u.calls, u.tokens.In, u.tokens.Out, cost)
		}
		fmt.Println(strings.Repeat("─", 72))
		fmt.Printf("%-32s  %40s\n", "TOTAL", fmt.Sprintf("$%.4f", total))
		if len(unknown) > 0 {
			fmt.Printf("\nNo pricing for: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	},
}

func bucket(m map[string]*usage, k string) *usage {
	u, ok := m[k]
	if !ok {
		u = &usage{}
		m[k] = u
	}
	return u
}

func sortedKeys(m map[string]*usage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	llmListCmd.Flags().Int("limit", 20, "Maximum number of requests to show")
	llmListCmd.Flags().String("purpose", "", "Only show this purpose (question-gen, skill-classify)")
	llmCmd.AddCommand(llmListCmd, llmStatsCmd)
}
