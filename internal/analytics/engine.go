package analytics

import (
	"context"
	"fmt"

	"github.com/abhisek/momentum/internal/practice"
)

// Source reads what analytics needs from storage. Reads may lag behind
// concurrent writes.
type Source interface {
	RecordsForUser(ctx context.Context, userID string) ([]practice.Outcome, error)
	CountTests(ctx context.Context, userID string) (int, error)
	TopSolvers(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// Stats is the dashboard summary for one user.
type Stats struct {
	TotalAnswered  int     `json:"totalQuestionsAnswered"`
	TotalCorrect   int     `json:"totalCorrectAnswers"`
	TotalIncorrect int     `json:"totalIncorrectAnswers"`
	TestsTaken     int     `json:"testsTaken"`
	Skills         Profile `json:"skills"`
}

// LeaderboardEntry is one user ranked by solved questions.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Solved int    `json:"solved"`
}

// DefaultLeaderboardSize caps leaderboard requests without a limit.
const DefaultLeaderboardSize = 10

// Engine answers analytics queries.
type Engine struct {
	src Source
}

// NewEngine creates an analytics engine over src.
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// ComputeSkillProfile loads the user's outcomes and scores them.
func (e *Engine) ComputeSkillProfile(ctx context.Context, userID string) (Profile, error) {
	outcomes, err := e.src.RecordsForUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("load practice records: %w", err)
	}
	return ComputeProfile(outcomes), nil
}

// Stats returns answer counts, the number of tests taken and the skill
// profile.
func (e *Engine) Stats(ctx context.Context, userID string) (*Stats, error) {
	outcomes, err := e.src.RecordsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load practice records: %w", err)
	}
	tests, err := e.src.CountTests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count tests: %w", err)
	}

	st := &Stats{
		TotalAnswered: len(outcomes),
		TestsTaken:    tests,
		Skills:        ComputeProfile(outcomes),
	}
	for _, o := range outcomes {
		if o.Correct {
			st.TotalCorrect++
		}
	}
	st.TotalIncorrect = st.TotalAnswered - st.TotalCorrect
	return st, nil
}

// Leaderboard returns up to limit users with the most solved questions.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	entries, err := e.src.TopSolvers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return entries, nil
}
