package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/momentum/internal/question"
)

var questionFields = []string{
	"id", "prompt", "options", "answer", "difficulty",
	"chapter", "subject", "skill_type",
}

// InsertQuestions adds questions to the bank. Each question is validated
// first; questions whose id already exists are left untouched. It returns
// the number of rows actually inserted.
func (s *Store) InsertQuestions(ctx context.Context, qs []question.Question) (int, error) {
	if len(qs) == 0 {
		return 0, nil
	}
	now := time.Now().UnixNano()
	ins := builder().Insert(questionsTable.Name).
		Columns(append(questionFields, "created_at")...)
	for i := range qs {
		q := &qs[i]
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %s: %w", q.ID, err)
		}
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return 0, fmt.Errorf("encode options: %w", err)
		}
		ins.Values(q.ID, q.Prompt, string(opts), q.Answer, string(q.Difficulty),
			q.Chapter, q.Subject, string(q.SkillType), now)
	}
	ins.OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())

	res, err := exec(ctx, s.drv, ins)
	if err != nil {
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	return int(n), nil
}

// FindByID returns the question with id, or nil if it doesn't exist.
func (s *Store) FindByID(ctx context.Context, id string) (*question.Question, error) {
	qs, err := s.FindByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	return qs[0], nil
}

// FindByIDs returns questions in the order of ids, with nil entries for
// unknown ids.
func (s *Store) FindByIDs(ctx context.Context, ids []string) ([]*question.Question, error) {
	out := make([]*question.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sel := builder().Select(questionFields...).
		From(entsql.Table(questionsTable.Name)).
		Where(entsql.In("id", anys(ids)...))

	found, err := s.scanQuestions(ctx, sel)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*question.Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out, nil
}

// CandidateIDs lists the ids of questions matching f, minus exclude.
func (s *Store) CandidateIDs(ctx context.Context, f question.Filter, exclude []string) ([]string, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("subject", f.Subject),
		entsql.In("chapter", anys(f.Chapters)...),
	}
	if f.Difficulty != "" {
		preds = append(preds, entsql.EQ("difficulty", string(f.Difficulty)))
	}
	if len(exclude) > 0 {
		preds = append(preds, entsql.NotIn("id", anys(exclude)...))
	}
	sel := builder().Select("id").
		From(entsql.Table(questionsTable.Name)).
		Where(entsql.And(preds...)).
		OrderBy("id")

	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountQuestions returns the number of questions in the bank.
func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	sel := builder().Select(entsql.Count("*")).From(entsql.Table(questionsTable.Name))
	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()
	n := 0
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("count questions: %w", err)
		}
	}
	return n, rows.Err()
}

// DistinctSubjects lists every subject in the bank, sorted.
func (s *Store) DistinctSubjects(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "subject", nil)
}

// DistinctChapters lists the chapters of a subject, or of every subject
// when subject is empty.
func (s *Store) DistinctChapters(ctx context.Context, subject string) ([]string, error) {
	var where *entsql.Predicate
	if subject != "" {
		where = entsql.EQ("subject", subject)
	}
	return s.distinct(ctx, "chapter", where)
}

// DistinctDifficulties lists the difficulty bands present in the bank in
// easiest-first order.
func (s *Store) DistinctDifficulties(ctx context.Context) ([]question.Difficulty, error) {
	raw, err := s.distinct(ctx, "difficulty", nil)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(raw))
	for _, d := range raw {
		present[d] = true
	}
	var out []question.Difficulty
	for _, d := range question.AllDifficulties() {
		if present[string(d)] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) distinct(ctx context.Context, column string, where *entsql.Predicate) ([]string, error) {
	sel := builder().Select(column).
		Distinct().
		From(entsql.Table(questionsTable.Name)).
		OrderBy(column)
	if where != nil {
		sel.Where(where)
	}
	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) scanQuestions(ctx context.Context, sel *entsql.Selector) ([]*question.Question, error) {
	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []*question.Question
	for rows.Next() {
		var (
			q          question.Question
			opts       string
			difficulty string
			skill      string
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &opts, &q.Answer, &difficulty,
			&q.Chapter, &q.Subject, &skill); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", q.ID, err)
		}
		q.Difficulty = question.Difficulty(difficulty)
		q.SkillType = question.SkillType(skill)
		out = append(out, &q)
	}
	return out, rows.Err()
}

func anys(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
