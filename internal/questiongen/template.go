package questiongen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/abhisek/momentum/internal/apperr"
	"github.com/abhisek/momentum/internal/question"
)

// Draft is a template's output before it is placed in a subject and
// chapter.
type Draft struct {
	Prompt  string
	Correct float64
	Wrong   []float64 // distractors; duplicates are replaced
}

// Template draws one numeric problem of a fixed skill type.
type Template struct {
	Name      string
	SkillType question.SkillType
	Draw      func(r *rand.Rand) Draft
}

// Discount asks for the price after a percentage discount.
var Discount = Template{Name: "discount", SkillType: question.SkillApplication, Draw: drawDiscount}

// PercentageOf asks for a percentage of a number.
var PercentageOf = Template{Name: "percentage-of", SkillType: question.SkillLearning, Draw: drawPercentageOf}

func drawDiscount(r *rand.Rand) Draft {
	price := float64(r.IntN(91) + 10)   // 10..100
	pct := float64((r.IntN(6) + 1) * 5) // 5..30
	off := price * pct / 100
	return Draft{
		Prompt:  fmt.Sprintf("An item costs $%.0f. With a %.0f%% discount, what is the final price?", price, pct),
		Correct: price - off,
		Wrong:   []float64{price + off, price * 0.8},
	}
}

func drawPercentageOf(r *rand.Rand) Draft {
	pct := float64((r.IntN(18) + 1) * 5) // 5..90
	n := float64((r.IntN(20) + 1) * 10)  // 10..200
	want := pct / 100 * n
	return Draft{
		Prompt:  fmt.Sprintf("What is %.0f%% of %.0f?", pct, n),
		Correct: want,
		Wrong:   []float64{want * 1.2, want * 0.8, pct / 100 * n * 1.1},
	}
}

// DefaultTemplates are the built-in templates.
func DefaultTemplates() []Template { return []Template{Discount, PercentageOf} }

// TemplateGenerator fills specs from numeric templates. It ignores Topic
// and Avoid and is safe for concurrent use.
type TemplateGenerator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	templates []Template
	newID     func() string
}

// NewTemplateGenerator uses r for every draw; nil seeds from the runtime.
func NewTemplateGenerator(r *rand.Rand, templates ...Template) *TemplateGenerator {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}
	return &TemplateGenerator{rng: r, templates: templates, newID: uuid.NewString}
}

func (g *TemplateGenerator) Generate(_ context.Context, spec Spec) (*question.Question, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	if !g.supports(spec.SkillType) {
		return nil, apperr.Invalid("skill_type", "no template produces %s questions", spec.SkillType)
	}

	g.mu.Lock()
	t, opts, answer, prompt := g.draw(spec.SkillType)
	g.mu.Unlock()

	q := &question.Question{
		ID:         g.newID(),
		Prompt:     prompt,
		Options:    opts,
		Answer:     answer,
		Difficulty: spec.Difficulty,
		Chapter:    spec.Chapter,
		Subject:    spec.Subject,
		SkillType:  t.SkillType,
	}
	if err := runValidators(DefaultValidators(), q); err != nil {
		return nil, err
	}
	return q, nil
}

// draw picks a template of the wanted skill type, or any template when
// want is empty, and lays out four distinct shuffled options. Callers hold
// g.mu.
func (g *TemplateGenerator) draw(want question.SkillType) (Template, []string, int, string) {
	pool := g.templates
	if want != "" {
		pool = nil
		for _, t := range g.templates {
			if t.SkillType == want {
				pool = append(pool, t)
			}
		}
	}
	t := pool[g.rng.IntN(len(pool))]
	d := t.Draw(g.rng)

	correct := money(d.Correct)
	opts := []string{correct}
	seen := map[string]bool{correct: true}
	add := func(v float64) {
		s := money(v)
		if len(opts) < question.OptionCount && !seen[s] {
			seen[s] = true
			opts = append(opts, s)
		}
	}
	for _, w := range d.Wrong {
		add(w)
	}
	for tries := 0; len(opts) < question.OptionCount && tries < 64; tries++ {
		add(d.Correct * (0.75 + g.rng.Float64()*0.5))
	}
	for k := 1; len(opts) < question.OptionCount; k++ {
		add(d.Correct + float64(k))
	}

	g.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	for i, o := range opts {
		if o == correct {
			return t, opts, i, d.Prompt
		}
	}
	panic("questiongen: correct option lost in shuffle")
}

func (g *TemplateGenerator) supports(s question.SkillType) bool {
	if s == "" {
		return true
	}
	for _, t := range g.templates {
		if t.SkillType == s {
			return true
		}
	}
	return false
}

func money(v float64) string { return fmt.Sprintf("%.2f", v) }
