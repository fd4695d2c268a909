package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// AppendLLMRequest records an LLM API call.
func (s *Store) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ins := builder().Insert(llmRequestsTable.Name).
		Columns("sequence", "timestamp", "provider", "model", "purpose",
			"input_tokens", "output_tokens", "latency_ms", "success", "error_message").
		Values(seqNum, time.Now().UnixNano(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, data.ErrorMessage)
	if _, err := exec(ctx, s.drv, ins); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// QueryLLMRequests returns logged LLM requests in sequence order.
func (s *Store) QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	sel := builder().Select("sequence", "timestamp", "provider", "model", "purpose",
		"input_tokens", "output_tokens", "latency_ms", "success", "error_message").
		From(entsql.Table(llmRequestsTable.Name)).
		OrderBy("sequence")

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	rows, err := query(ctx, s.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM requests: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		var (
			e  LLMRequestEvent
			ts int64
		)
		if err := rows.Scan(&e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan LLM request: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
