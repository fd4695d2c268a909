package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/momentum/internal/analytics"
)

// UpsertUser records a user's display name, creating the user on first
// sight. Identity itself comes from the auth token.
func (s *Store) UpsertUser(ctx context.Context, id, name string) error {
	ins := builder().Insert(usersTable.Name).
		Columns("id", "name", "created_at").
		Values(id, name, time.Now().UnixNano()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("name")
			}),
		)
	if _, err := exec(ctx, s.drv, ins); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// SolvedSet returns the ids of questions the user has answered correctly
// in practice.
func (s *Store) SolvedSet(ctx context.Context, userID string) ([]string, error) {
	sel := builder().Select("question_id").
		From(entsql.Table(solvedTable.Name)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("question_id")
	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("query solved set: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan solved set: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddToSolvedSet adds a question to the user's solved set. Adding an id
// that is already present is a no-op.
func (s *Store) AddToSolvedSet(ctx context.Context, userID, questionID string) error {
	return addToSolved(ctx, s.drv, userID, questionID)
}

func addToSolved(ctx context.Context, ex execer, userID, questionID string) error {
	ins := builder().Insert(solvedTable.Name).
		Columns("user_id", "question_id", "solved_at").
		Values(userID, questionID, time.Now().UnixNano()).
		OnConflict(entsql.ConflictColumns("user_id", "question_id"), entsql.DoNothing())
	if _, err := exec(ctx, ex, ins); err != nil {
		return fmt.Errorf("add to solved set: %w", err)
	}
	return nil
}

// TopSolvers ranks users by the size of their solved set.
func (s *Store) TopSolvers(ctx context.Context, limit int) ([]analytics.LeaderboardEntry, error) {
	sv := entsql.Table(solvedTable.Name)
	u := entsql.Table(usersTable.Name)
	sel := builder().Select(sv.C("user_id"), u.C("name"), entsql.As(entsql.Count(sv.C("question_id")), "solved")).
		From(sv).
		LeftJoin(u).On(sv.C("user_id"), u.C("id")).
		GroupBy(sv.C("user_id"), u.C("name")).
		OrderBy(entsql.Desc("solved"), sv.C("user_id")).
		Limit(limit)

	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []analytics.LeaderboardEntry
	for rows.Next() {
		var (
			e    analytics.LeaderboardEntry
			name sql.NullString
		)
		if err := rows.Scan(&e.UserID, &name, &e.Solved); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.Name = name.String
		if e.Name == "" {
			e.Name = e.UserID
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
