package question

import (
	"strings"

	"github.com/abhisek/momentum/internal/apperr"
)

// SkillType is the cognitive category a question exercises.
type SkillType string

const (
	SkillLearning    SkillType = "learning"
	SkillGrasping    SkillType = "grasping"
	SkillApplication SkillType = "application"
)

// AllSkillTypes returns the skill types in display order.
func AllSkillTypes() []SkillType {
	return []SkillType{SkillLearning, SkillGrasping, SkillApplication}
}

// Valid reports whether s is one of the known skill types.
func (s SkillType) Valid() bool {
	switch s {
	case SkillLearning, SkillGrasping, SkillApplication:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for a skill type.
func (s SkillType) DisplayName() string {
	switch s {
	case SkillLearning:
		return "Learning"
	case SkillGrasping:
		return "Grasping"
	case SkillApplication:
		return "Application"
	default:
		return string(s)
	}
}

// ParseSkillType converts a free-form tag into a SkillType. Unknown tags
// are rejected instead of being silently dropped later.
func ParseSkillType(raw string) (SkillType, error) {
	s := SkillType(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperr.Invalid("skill_type", "unknown value %q", raw)
	}
	return s, nil
}

// Difficulty is the authored difficulty band of a question.
type Difficulty string

const (
	VeryEasy  Difficulty = "Very Easy"
	Easy      Difficulty = "Easy"
	Moderate  Difficulty = "Moderate"
	Difficult Difficulty = "Difficult"
)

// AllDifficulties returns the difficulty bands from easiest to hardest.
func AllDifficulties() []Difficulty {
	return []Difficulty{VeryEasy, Easy, Moderate, Difficult}
}

// Valid reports whether d is one of the known bands.
func (d Difficulty) Valid() bool {
	switch d {
	case VeryEasy, Easy, Moderate, Difficult:
		return true
	}
	return false
}

// ParseDifficulty accepts any casing of a known band, so "Very easy" and
// "very easy" both map to VeryEasy. An empty string parses to the empty
// Difficulty, meaning "any".
func ParseDifficulty(raw string) (Difficulty, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	for _, d := range AllDifficulties() {
		if strings.EqualFold(string(d), trimmed) {
			return d, nil
		}
	}
	return "", apperr.Invalid("difficulty", "unknown value %q", raw)
}
