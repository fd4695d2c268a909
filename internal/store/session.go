package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/session"
	"github.com/abhisek/momentum/internal/timer"
)

var sessionFields = []string{
	"id", "user_id", "kind", "subject", "chapters", "difficulty", "question_ids",
	"answers", "status", "score", "budget", "active_slot", "timer_mark",
	"created_at", "started_at", "submitted_at", "auto_submitted",
}

// answerRow is the stored form of session.AnswerState.
type answerRow struct {
	Selected   *int   `json:"selected,omitempty"`
	TimeTaken  int64  `json:"time_taken"`
	AnsweredAt *int64 `json:"answered_at,omitempty"`
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	vals, err := sessionValues(sess)
	if err != nil {
		return err
	}
	ins := builder().Insert(sessionsTable.Name).Columns(sessionFields...).Values(vals...)
	if _, err := exec(ctx, s.drv, ins); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession loads a session by id, or returns nil if it doesn't exist.
func (s *Store) GetSession(ctx context.Context, id string) (*session.Session, error) {
	sel := builder().Select(sessionFields...).
		From(entsql.Table(sessionsTable.Name)).
		Where(entsql.EQ("id", id))
	out, err := s.scanSessions(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// UpdateSession saves the progress of a session that is not yet
// submitted. Saving over a submitted session returns
// session.ErrAlreadySubmitted.
func (s *Store) UpdateSession(ctx context.Context, sess *session.Session) error {
	return updateOpenSession(ctx, s.drv, sess)
}

// CommitSubmission stores the submitted session together with its
// records. The session row is only updated if it is still open, so two
// processes can never both submit the same session. Correct records of
// practice sessions also join the user's solved set.
func (s *Store) CommitSubmission(ctx context.Context, sess *session.Session, records []practice.Record) error {
	return s.inTx(ctx, func(tx dialect.Tx) error {
		if err := updateOpenSession(ctx, tx, sess); err != nil {
			return err
		}
		if err := insertRecords(ctx, tx, records); err != nil {
			return err
		}
		for _, r := range records {
			if r.Origin == practice.OriginPractice && r.Correct {
				if err := addToSolved(ctx, tx, r.UserID, r.QuestionID); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func updateOpenSession(ctx context.Context, ex execer, sess *session.Session) error {
	vals, err := sessionValues(sess)
	if err != nil {
		return err
	}
	upd := builder().Update(sessionsTable.Name)
	// Skip id; it is the row key.
	for i := 1; i < len(sessionFields); i++ {
		upd.Set(sessionFields[i], vals[i])
	}
	upd.Where(entsql.And(
		entsql.EQ("id", sess.ID),
		entsql.NEQ("status", session.StatusSubmitted.String()),
	))

	res, err := exec(ctx, ex, upd)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update session %s: %w", sess.ID, session.ErrAlreadySubmitted)
	}
	return nil
}

// ListSessions returns a user's sessions of the given kind, newest first.
// An empty kind lists every kind.
func (s *Store) ListSessions(ctx context.Context, userID string, kind session.Kind) ([]*session.Session, error) {
	preds := []*entsql.Predicate{entsql.EQ("user_id", userID)}
	if kind != "" {
		preds = append(preds, entsql.EQ("kind", string(kind)))
	}
	sel := builder().Select(sessionFields...).
		From(entsql.Table(sessionsTable.Name)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("created_at"))
	return s.scanSessions(ctx, sel)
}

// CountTests returns how many tests the user has submitted.
func (s *Store) CountTests(ctx context.Context, userID string) (int, error) {
	sel := builder().Select(entsql.Count("*")).
		From(entsql.Table(sessionsTable.Name)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("kind", string(session.KindTest)),
			entsql.EQ("status", session.StatusSubmitted.String()),
		))
	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return 0, fmt.Errorf("count tests: %w", err)
	}
	defer rows.Close()
	n := 0
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("count tests: %w", err)
		}
	}
	return n, rows.Err()
}

func sessionValues(sess *session.Session) ([]any, error) {
	chapters, err := json.Marshal(sess.Chapters)
	if err != nil {
		return nil, fmt.Errorf("encode chapters: %w", err)
	}
	ids, err := json.Marshal(sess.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("encode question ids: %w", err)
	}
	rows := make([]answerRow, len(sess.Answers))
	for i, a := range sess.Answers {
		rows[i] = answerRow{Selected: a.Selected, TimeTaken: int64(a.TimeTaken)}
		if a.AnsweredAt != nil {
			at := int64(*a.AnsweredAt)
			rows[i].AnsweredAt = &at
		}
	}
	answers, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	var score sql.NullInt64
	if sess.Score != nil {
		score = sql.NullInt64{Int64: int64(*sess.Score), Valid: true}
	}
	var submitted sql.NullInt64
	if !sess.SubmittedAt.IsZero() {
		submitted = sql.NullInt64{Int64: sess.SubmittedAt.UnixNano(), Valid: true}
	}

	return []any{
		sess.ID, sess.UserID, string(sess.Kind), sess.Subject, string(chapters),
		string(sess.Difficulty), string(ids), string(answers), sess.Status.String(),
		score, int64(sess.Budget), sess.ActiveSlot, int64(sess.Timer.Mark),
		unixNano(sess.CreatedAt), unixNano(sess.StartedAt), submitted, sess.AutoSubmitted,
	}, nil
}

func (s *Store) scanSessions(ctx context.Context, sel *entsql.Selector) ([]*session.Session, error) {
	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		var (
			sess                         session.Session
			kind, difficulty, status     string
			chapters, ids, answers       string
			score, submitted             sql.NullInt64
			budget, mark, created, start int64
		)
		if err := rows.Scan(&sess.ID, &sess.UserID, &kind, &sess.Subject, &chapters,
			&difficulty, &ids, &answers, &status, &score, &budget, &sess.ActiveSlot,
			&mark, &created, &start, &submitted, &sess.AutoSubmitted); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}

		if err := json.Unmarshal([]byte(chapters), &sess.Chapters); err != nil {
			return nil, fmt.Errorf("decode chapters of %s: %w", sess.ID, err)
		}
		if err := json.Unmarshal([]byte(ids), &sess.QuestionIDs); err != nil {
			return nil, fmt.Errorf("decode question ids of %s: %w", sess.ID, err)
		}
		var rowsA []answerRow
		if err := json.Unmarshal([]byte(answers), &rowsA); err != nil {
			return nil, fmt.Errorf("decode answers of %s: %w", sess.ID, err)
		}
		sess.Answers = make([]session.AnswerState, len(rowsA))
		for i, a := range rowsA {
			sess.Answers[i] = session.AnswerState{Selected: a.Selected, TimeTaken: time.Duration(a.TimeTaken)}
			if a.AnsweredAt != nil {
				at := time.Duration(*a.AnsweredAt)
				sess.Answers[i].AnsweredAt = &at
			}
		}

		st, err := session.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		sess.Status = st
		sess.Kind = session.Kind(kind)
		sess.Difficulty = question.Difficulty(difficulty)
		if score.Valid {
			v := int(score.Int64)
			sess.Score = &v
		}
		sess.Budget = time.Duration(budget)
		sess.Timer = timer.Timer{Mark: time.Duration(mark)}
		sess.CreatedAt = fromUnixNano(created)
		sess.StartedAt = fromUnixNano(start)
		if submitted.Valid {
			sess.SubmittedAt = time.Unix(0, submitted.Int64)
		}
		out = append(out, &sess)
	}
	return out, rows.Err()
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
