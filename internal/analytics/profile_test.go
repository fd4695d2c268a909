package analytics

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/question"
)

func outcome(qid string, skill question.SkillType, correct bool) practice.Outcome {
	return practice.Outcome{
		Record:    practice.Record{QuestionID: qid, Correct: correct},
		SkillType: skill,
	}
}

func TestComputeProfile_Empty(t *testing.T) {
	if p := ComputeProfile(nil); p != (Profile{}) {
		t.Errorf("ComputeProfile(nil) = %+v, want zero", p)
	}
}

func TestComputeProfile_LearningAndApplication(t *testing.T) {
	outcomes := []practice.Outcome{
		outcome("l1", question.SkillLearning, true),
		outcome("l2", question.SkillLearning, true),
		outcome("l3", question.SkillLearning, false),
		outcome("a1", question.SkillApplication, true),
	}
	p := ComputeProfile(outcomes)
	want := Profile{Learning: 32, Grasping: 0, Application: 48, Retention: 0}
	if p != want {
		t.Errorf("ComputeProfile = %+v, want %+v", p, want)
	}
}

func TestComputeProfile_EqualThirdsStayWithinCap(t *testing.T) {
	outcomes := []practice.Outcome{
		outcome("l", question.SkillLearning, true),
		outcome("g", question.SkillGrasping, true),
		outcome("a", question.SkillApplication, true),
	}
	p := ComputeProfile(outcomes)
	if sum := p.Learning + p.Grasping + p.Application; sum != SkillPoints {
		t.Errorf("sum = %d, want %d (%+v)", sum, SkillPoints, p)
	}
	for _, v := range []int{p.Learning, p.Grasping, p.Application} {
		if v < 26 || v > 27 {
			t.Errorf("component %d not within one point of 26.67", v)
		}
	}
}

func TestComputeProfile_DeletedQuestionsExcludedFromSkills(t *testing.T) {
	outcomes := []practice.Outcome{
		outcome("gone", "", true),
		outcome("l1", question.SkillLearning, false),
	}
	p := ComputeProfile(outcomes)
	if p.Learning+p.Grasping+p.Application != 0 {
		t.Errorf("profile = %+v, want zero skill points", p)
	}
}

func TestComputeProfile_Retention(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []practice.Outcome
		want     int
	}{
		{
			name: "no retries",
			outcomes: []practice.Outcome{
				outcome("q1", question.SkillLearning, true),
				outcome("q2", question.SkillLearning, false),
			},
			want: 0,
		},
		{
			name: "single-attempt groups are ignored",
			outcomes: []practice.Outcome{
				outcome("q1", question.SkillLearning, false),
				outcome("q1", question.SkillLearning, true),
				outcome("q2", question.SkillGrasping, false),
				outcome("q2", question.SkillGrasping, false),
				outcome("q3", question.SkillGrasping, true),
			},
			want: 5,
		},
		{
			name: "one correct in three attempts",
			outcomes: []practice.Outcome{
				outcome("q1", question.SkillLearning, true),
				outcome("q1", question.SkillLearning, false),
				outcome("q1", question.SkillLearning, false),
			},
			want: 7,
		},
		{
			name: "half of retried attempts correct",
			outcomes: []practice.Outcome{
				outcome("q1", question.SkillLearning, true),
				outcome("q1", question.SkillLearning, true),
				outcome("q2", question.SkillLearning, true),
				outcome("q2", question.SkillLearning, false),
				outcome("q3", question.SkillLearning, false),
				outcome("q3", question.SkillLearning, false),
			},
			want: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeProfile(tt.outcomes).Retention; got != tt.want {
				t.Errorf("Retention = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeProfile_BoundsHoldForRandomHistories(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 42))
	skills := append(question.AllSkillTypes(), "")
	for i := 0; i < 500; i++ {
		n := r.IntN(40)
		outcomes := make([]practice.Outcome, n)
		for j := range outcomes {
			outcomes[j] = outcome(
				fmt.Sprintf("q%d", r.IntN(10)),
				skills[r.IntN(len(skills))],
				r.IntN(2) == 0,
			)
		}
		p := ComputeProfile(outcomes)
		if sum := p.Learning + p.Grasping + p.Application; sum > SkillPoints {
			t.Fatalf("skill sum %d > %d for %+v", sum, SkillPoints, p)
		}
		if p.Retention < 0 || p.Retention > RetentionPoints {
			t.Fatalf("retention %d out of range", p.Retention)
		}
		if p.Learning < 0 || p.Grasping < 0 || p.Application < 0 {
			t.Fatalf("negative component in %+v", p)
		}
	}
}

func TestRoundCapped(t *testing.T) {
	got := roundCapped([]float64{40.5, 39.5, 0}, 80)
	if got[0]+got[1]+got[2] != 80 {
		t.Errorf("roundCapped = %v, want sum 80", got)
	}
	got = roundCapped([]float64{32.4, 47.6, 0}, 80)
	if got[0] != 32 || got[1] != 48 {
		t.Errorf("roundCapped = %v, want [32 48 0]", got)
	}
}

type fakeSource struct {
	outcomes []practice.Outcome
	tests    int
	leaders  []LeaderboardEntry
	err      error
}

func (f *fakeSource) RecordsForUser(context.Context, string) ([]practice.Outcome, error) {
	return f.outcomes, f.err
}

func (f *fakeSource) CountTests(context.Context, string) (int, error) { return f.tests, nil }

func (f *fakeSource) TopSolvers(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < len(f.leaders) {
		return f.leaders[:limit], nil
	}
	return f.leaders, nil
}

func TestEngine_Stats(t *testing.T) {
	src := &fakeSource{
		outcomes: []practice.Outcome{
			outcome("q1", question.SkillLearning, true),
			outcome("q2", question.SkillGrasping, false),
			outcome("q3", "", true),
		},
		tests: 2,
	}
	st, err := NewEngine(src).Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalAnswered != 3 || st.TotalCorrect != 2 || st.TotalIncorrect != 1 || st.TestsTaken != 2 {
		t.Errorf("Stats = %+v", st)
	}
	if st.Skills.Learning != 80 {
		t.Errorf("Learning = %d, want 80", st.Skills.Learning)
	}
}

func TestEngine_PropagatesErrors(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	if _, err := NewEngine(src).ComputeSkillProfile(context.Background(), "u1"); err == nil {
		t.Error("expected error")
	}
}

func TestEngine_LeaderboardDefaultLimit(t *testing.T) {
	src := &fakeSource{}
	for i := 0; i < 15; i++ {
		src.leaders = append(src.leaders, LeaderboardEntry{UserID: fmt.Sprint(i), Solved: 15 - i})
	}
	got, err := NewEngine(src).Leaderboard(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != DefaultLeaderboardSize {
		t.Errorf("len = %d, want %d", len(got), DefaultLeaderboardSize)
	}
}
