package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/question"
)

// InsertRecords appends practice records in one statement.
func (s *Store) InsertRecords(ctx context.Context, records []practice.Record) error {
	return insertRecords(ctx, s.drv, records)
}

func insertRecords(ctx context.Context, ex execer, records []practice.Record) error {
	if len(records) == 0 {
		return nil
	}
	ins := builder().Insert(recordsTable.Name).
		Columns("id", "user_id", "question_id", "correct", "time_taken", "origin", "session_id", "created_at")
	for _, r := range records {
		ins.Values(r.ID, r.UserID, r.QuestionID, r.Correct, int64(r.TimeTaken),
			string(r.Origin), nullString(r.SessionID), r.CreatedAt.UnixNano())
	}
	if _, err := exec(ctx, ex, ins); err != nil {
		return fmt.Errorf("insert practice records: %w", err)
	}
	return nil
}

// RecordsForUser returns every record of the user, oldest first, joined
// with the skill type of its question. Records of deleted questions carry
// an empty skill type.
func (s *Store) RecordsForUser(ctx context.Context, userID string) ([]practice.Outcome, error) {
	r := entsql.Table(recordsTable.Name)
	q := entsql.Table(questionsTable.Name)
	sel := builder().Select(
		r.C("id"), r.C("user_id"), r.C("question_id"), r.C("correct"), r.C("time_taken"),
		r.C("origin"), r.C("session_id"), r.C("created_at"), q.C("skill_type"),
	).
		From(r).
		LeftJoin(q).On(r.C("question_id"), q.C("id")).
		Where(entsql.EQ(r.C("user_id"), userID)).
		OrderBy(r.C("created_at"), r.C("id"))

	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("query practice records: %w", err)
	}
	defer rows.Close()

	var out []practice.Outcome
	for rows.Next() {
		var (
			o         practice.Outcome
			timeTaken int64
			origin    string
			sessionID sql.NullString
			created   int64
			skill     sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.QuestionID, &o.Correct, &timeTaken,
			&origin, &sessionID, &created, &skill); err != nil {
			return nil, fmt.Errorf("scan practice record: %w", err)
		}
		o.TimeTaken = time.Duration(timeTaken)
		o.Origin = practice.Origin(origin)
		o.SessionID = sessionID.String
		o.CreatedAt = time.Unix(0, created)
		o.SkillType = question.SkillType(skill.String)
		out = append(out, o)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
