package store

import (
	"context"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions. Question ids in sessions and records are weak
// references: deleting a question keeps the history that mentions it.
var (
	questionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "prompt", Type: field.TypeString, Size: 2147483647},
		{Name: "options", Type: field.TypeString, Size: 2147483647},
		{Name: "answer", Type: field.TypeInt},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "chapter", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "skill_type", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
	}
	questionsTable = &schema.Table{
		Name:       "questions",
		Columns:    questionsColumns,
		PrimaryKey: []*schema.Column{questionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "question_subject_chapter", Columns: []*schema.Column{questionsColumns[6], questionsColumns[5]}},
		},
	}

	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeInt64},
	}
	usersTable = &schema.Table{
		Name:       "users",
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	solvedColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "solved_at", Type: field.TypeInt64},
	}
	solvedTable = &schema.Table{
		Name:       "solved_questions",
		Columns:    solvedColumns,
		PrimaryKey: []*schema.Column{solvedColumns[0], solvedColumns[1]},
	}

	sessionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "kind", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "chapters", Type: field.TypeString, Size: 2147483647},
		{Name: "difficulty", Type: field.TypeString},
		{Name: "question_ids", Type: field.TypeString, Size: 2147483647},
		{Name: "answers", Type: field.TypeString, Size: 2147483647},
		{Name: "status", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt, Nullable: true},
		{Name: "budget", Type: field.TypeInt64},
		{Name: "active_slot", Type: field.TypeInt},
		{Name: "timer_mark", Type: field.TypeInt64},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "started_at", Type: field.TypeInt64},
		{Name: "submitted_at", Type: field.TypeInt64, Nullable: true},
		{Name: "auto_submitted", Type: field.TypeBool},
	}
	sessionsTable = &schema.Table{
		Name:       "sessions",
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "session_user_id_created_at", Columns: []*schema.Column{sessionsColumns[1], sessionsColumns[13]}},
		},
	}

	recordsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
		{Name: "time_taken", Type: field.TypeInt64},
		{Name: "origin", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString, Nullable: true},
		{Name: "created_at", Type: field.TypeInt64},
	}
	recordsTable = &schema.Table{
		Name:       "practice_records",
		Columns:    recordsColumns,
		PrimaryKey: []*schema.Column{recordsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "practicerecord_user_id", Columns: []*schema.Column{recordsColumns[1]}},
		},
	}

	llmRequestsColumns = []*schema.Column{
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647},
	}
	llmRequestsTable = &schema.Table{
		Name:       "llm_requests",
		Columns:    llmRequestsColumns,
		PrimaryKey: []*schema.Column{llmRequestsColumns[0]},
	}

	tables = []*schema.Table{
		questionsTable,
		usersTable,
		solvedTable,
		sessionsTable,
		recordsTable,
		llmRequestsTable,
	}
)

// migrate creates or updates all tables.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, tables...)
}
