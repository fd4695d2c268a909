// Package analytics derives skill profiles and summary statistics from a
// user's practice history. It only reads.
package analytics

import (
	"math"
	"sort"

	"github.com/abhisek/momentum/internal/practice"
	"github.com/abhisek/momentum/internal/question"
)

// Points split between the skill dimensions and retention.
const (
	SkillPoints     = 80
	RetentionPoints = 20
)

// Profile scores a user on the three skill types (summing to at most
// SkillPoints) and on retention (at most RetentionPoints).
type Profile struct {
	Learning    int `json:"learning"`
	Grasping    int `json:"grasping"`
	Application int `json:"application"`
	Retention   int `json:"retention"`
}

// Skill returns the profile value for a skill type.
func (p Profile) Skill(s question.SkillType) int {
	switch s {
	case question.SkillLearning:
		return p.Learning
	case question.SkillGrasping:
		return p.Grasping
	case question.SkillApplication:
		return p.Application
	}
	return 0
}

// Accumulator counts attempts and correct answers for one skill type.
type Accumulator struct {
	Attempts int
	Correct  int
}

// Accuracy returns Correct/Attempts, or 0 with no attempts.
func (a Accumulator) Accuracy() float64 {
	if a.Attempts == 0 {
		return 0
	}
	return float64(a.Correct) / float64(a.Attempts)
}

// Accumulate partitions outcomes by skill type. Outcomes whose question no
// longer resolves to a skill type are left out.
func Accumulate(outcomes []practice.Outcome) map[question.SkillType]Accumulator {
	acc := make(map[question.SkillType]Accumulator, 3)
	for _, o := range outcomes {
		if !o.SkillType.Valid() {
			continue
		}
		a := acc[o.SkillType]
		a.Attempts++
		if o.Correct {
			a.Correct++
		}
		acc[o.SkillType] = a
	}
	return acc
}

// ComputeProfile scores a user's outcomes.
//
// Skill accuracies are scaled so that they share SkillPoints in proportion
// to each other. Retention is the accuracy over all attempts at retried
// questions (two or more attempts each), scaled to RetentionPoints.
func ComputeProfile(outcomes []practice.Outcome) Profile {
	acc := Accumulate(outcomes)
	skills := question.AllSkillTypes()

	accuracy := make([]float64, len(skills))
	var total float64
	for i, s := range skills {
		accuracy[i] = acc[s].Accuracy()
		total += accuracy[i]
	}

	var p Profile
	if total > 0 {
		exact := make([]float64, len(skills))
		for i := range skills {
			exact[i] = accuracy[i] / total * SkillPoints
		}
		pts := roundCapped(exact, SkillPoints)
		p.Learning, p.Grasping, p.Application = pts[0], pts[1], pts[2]
	}
	p.Retention = retention(outcomes)
	return p
}

func retention(outcomes []practice.Outcome) int {
	type group struct{ attempts, correct int }
	groups := make(map[string]*group)
	for _, o := range outcomes {
		g := groups[o.QuestionID]
		if g == nil {
			g = &group{}
			groups[o.QuestionID] = g
		}
		g.attempts++
		if o.Correct {
			g.correct++
		}
	}

	attempts, correct := 0, 0
	for _, g := range groups {
		if g.attempts < 2 {
			continue
		}
		attempts += g.attempts
		correct += g.correct
	}
	if attempts == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(attempts) * RetentionPoints))
}

// roundCapped rounds each value to the nearest integer. If rounding pushes
// the sum over limit, the values that were rounded up the most give back a
// point each until the sum fits.
func roundCapped(exact []float64, limit int) []int {
	out := make([]int, len(exact))
	sum := 0
	for i, v := range exact {
		out[i] = int(math.Round(v))
		sum += out[i]
	}
	if sum <= limit {
		return out
	}

	order := make([]int, len(exact))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return float64(out[order[a]])-exact[order[a]] > float64(out[order[b]])-exact[order[b]]
	})
	for _, i := range order {
		if sum <= limit {
			break
		}
		out[i]--
		sum--
	}
	return out
}
