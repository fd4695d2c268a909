package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var csvRequired = []string{"question_text", "option_a", "option_b", "option_c", "option_d", "answer", "difficulty", "tags"}

// ImportCSV reads the exported question sheet. tags is the chapter;
// subject and skill_type columns are optional.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range csvRequired {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", name)
		}
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []row
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", n, err)
		}
		rows = append(rows, row{
			n:          n,
			prompt:     get(rec, "question_text"),
			options:    []string{get(rec, "option_a"), get(rec, "option_b"), get(rec, "option_c"), get(rec, "option_d")},
			answer:     get(rec, "answer"),
			difficulty: get(rec, "difficulty"),
			chapter:    get(rec, "tags"),
			subject:    get(rec, "subject"),
			skill:      get(rec, "skill_type"),
		})
	}
	return im.insert(ctx, rows)
}
