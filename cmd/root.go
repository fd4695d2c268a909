package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/abhisek/momentum/internal/app"
	"github.com/abhisek/momentum/internal/config"
	"github.com/abhisek/momentum/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Timed multiple-choice tests and practice",
	Long: "Momentum runs timed aptitude tests and untimed practice over a question bank,\n" +
		"tracks learning, grasping, application and retention, and serves it all over HTTP.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MOMENTUM_DB env var)")
	rootCmd.PersistentFlags().String("user", "", "User id for local commands (default $MOMENTUM_USER or the OS user)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(serveCmd, seedCmd, generateCmd, takeCmd, practiceCmd,
		statsCmd, historyCmd, reportCmd, leaderboardCmd, filtersCmd,
		llmCmd, tokenCmd, versionCmd)
}

// loadConfig reads the environment and applies the --db flag on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	p, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	cfg.DBPath = p
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then MOMENTUM_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return cfg.DBPath, store.EnsureDir(cfg.DBPath)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openApp loads configuration and opens every service. Callers must Close
// the returned app.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.Open(cfg, newLogger(cmd))
}

// currentUser picks the identity local commands act as.
func currentUser(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	if u := os.Getenv("MOMENTUM_USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}
