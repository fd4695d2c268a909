// Package seed imports question banks from CSV exports and versioned YAML
// bank files.
package seed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/questiongen"
)

// Bank is where imported questions go.
type Bank interface {
	InsertQuestions(ctx context.Context, qs []question.Question) (int, error)
}

// RowError says why one input row was not imported. Row is 1-based and
// counts data rows only.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %s", e.Row, e.Reason) }

// ImportResult reports what an import did. Parsed counts rows that passed
// validation; Inserted can be lower when questions were already present.
type ImportResult struct {
	Parsed   int
	Inserted int
	Rejected []RowError
}

// Importer turns raw rows into bank questions.
type Importer struct {
	bank Bank
	// Subject fills rows that carry none.
	Subject string
	// Classifier tags rows without a skill type. Without one those rows
	// are rejected unless DefaultSkill is set.
	Classifier   questiongen.Classifier
	DefaultSkill question.SkillType
}

// NewImporter creates an importer writing to bank.
func NewImporter(bank Bank, subject string) *Importer {
	return &Importer{bank: bank, Subject: subject}
}

// row is one question as read from any input format, before validation.
type row struct {
	n          int
	prompt     string
	options    []string
	answer     string
	difficulty string
	chapter    string
	subject    string
	skill      string
}

func (im *Importer) build(ctx context.Context, r row) (*question.Question, error) {
	idx, err := answerIndex(r.answer)
	if err != nil {
		return nil, err
	}
	diff, err := question.ParseDifficulty(r.difficulty)
	if err != nil {
		return nil, err
	}
	if diff == "" {
		return nil, fmt.Errorf("difficulty is required")
	}
	subject := strings.TrimSpace(r.subject)
	if subject == "" {
		subject = im.Subject
	}
	q := &question.Question{
		Prompt:     strings.TrimSpace(r.prompt),
		Options:    trimAll(r.options),
		Answer:     idx,
		Difficulty: diff,
		Chapter:    strings.TrimSpace(r.chapter),
		Subject:    subject,
	}
	q.SkillType, err = im.skill(ctx, r.skill, q.Prompt)
	if err != nil {
		return nil, err
	}
	q.ID = questionID(q)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func (im *Importer) skill(ctx context.Context, raw, prompt string) (question.SkillType, error) {
	if strings.TrimSpace(raw) != "" {
		return question.ParseSkillType(raw)
	}
	if im.Classifier != nil {
		s, err := im.Classifier.Classify(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("classify skill: %w", err)
		}
		return s, nil
	}
	if im.DefaultSkill != "" {
		return im.DefaultSkill, nil
	}
	return "", fmt.Errorf("skill_type is missing and no classifier is configured")
}

// insert validates every row, then writes the good ones in one batch.
func (im *Importer) insert(ctx context.Context, rows []row) (*ImportResult, error) {
	res := &ImportResult{}
	qs := make([]question.Question, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		q, err := im.build(ctx, r)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Rejected = append(res.Rejected, RowError{Row: r.n, Reason: err.Error()})
			continue
		}
		if seen[q.ID] {
			res.Rejected = append(res.Rejected, RowError{Row: r.n, Reason: "duplicate of an earlier row"})
			continue
		}
		seen[q.ID] = true
		qs = append(qs, *q)
	}
	res.Parsed = len(qs)
	n, err := im.bank.InsertQuestions(ctx, qs)
	if err != nil {
		return nil, err
	}
	res.Inserted = n
	return res, nil
}

// answerIndex accepts a letter a-d in any case, or a 0-based digit.
func answerIndex(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) == 1 {
		switch {
		case s[0] >= 'a' && s[0] < 'a'+question.OptionCount:
			return int(s[0] - 'a'), nil
		case s[0] >= '0' && s[0] < '0'+question.OptionCount:
			return int(s[0] - '0'), nil
		}
	}
	return 0, fmt.Errorf("answer %q is not one of a-d", raw)
}

// questionID derives a stable id from subject, chapter and prompt so that
// re-importing the same file adds nothing.
func questionID(q *question.Question) string {
	h := sha256.Sum256([]byte(q.Subject + "\x00" + q.Chapter + "\x00" + q.Prompt))
	return hex.EncodeToString(h[:8])
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
