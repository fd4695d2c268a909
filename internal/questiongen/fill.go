package questiongen

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/abhisek/momentum/internal/question"
	"github.com/abhisek/momentum/internal/worker"
)

// Failure is one spec that could not be filled.
type Failure struct {
	Index int
	Spec  Spec
	Err   error
}

func (f Failure) Error() string { return fmt.Sprintf("spec %d: %v", f.Index, f.Err) }

// Fill runs gen over specs on a bounded pool. Produced questions come back
// in spec order; failures are reported per spec and never abort the batch.
func Fill(ctx context.Context, gen Generator, specs []Spec, workers int) ([]*question.Question, []Failure) {
	jobs := make(map[string]worker.Job[*question.Question], len(specs))
	for i, s := range specs {
		jobs[strconv.Itoa(i)] = func(ctx context.Context) (*question.Question, error) {
			return gen.Generate(ctx, s)
		}
	}

	slots := make([]*question.Question, len(specs))
	var failed []Failure
	for _, r := range worker.RunAll(ctx, workers, jobs) {
		i, _ := strconv.Atoi(r.JobID)
		if r.Err != nil {
			failed = append(failed, Failure{Index: i, Spec: specs[i], Err: r.Err})
			continue
		}
		slots[i] = r.Output
	}

	var out []*question.Question
	for _, q := range slots {
		if q != nil {
			out = append(out, q)
		}
	}
	sort.Slice(failed, func(a, b int) bool { return failed[a].Index < failed[b].Index })
	return out, failed
}
