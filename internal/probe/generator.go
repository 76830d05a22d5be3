package probe

import (
	"math/rand/v2"
	"strings"

	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
)

// Kind is what a generated case is meant to exercise.
type Kind string

const (
	KindOrdinary Kind = "ordinary"
	KindCrisis   Kind = "crisis"
	KindInvalid  Kind = "invalid"
)

// Case is one generated submission and what the probe expects from it.
type Case struct {
	ID         int                 `json:"id"`
	Kind       Kind                `json:"kind"`
	Submission model.RawSubmission `json:"submission"`
	// BadField names the field an invalid case breaks.
	BadField string `json:"bad_field,omitempty"`
}

// Free text that must never trip the crisis matcher.
var calmTexts = []string{ //nolint:gochecknoglobals
	"",
	"exams are close",
	"group project is behind schedule",
	"sleeping badly this month",
	"worried about my grades",
	"missing home",
	"too many assignments at once",
}

// Generator produces reproducible submissions for one questionnaire encoding.
type Generator struct {
	rng *rand.Rand
	enc model.Encoding
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64, enc model.Encoding) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), enc: enc}
}

// Generate returns count cases with the requested crisis and invalid shares.
func (g *Generator) Generate(count int, crisisRatio, invalidRatio float64) []Case {
	cases := make([]Case, count)
	for i := range cases {
		roll := g.rng.Float64()
		switch {
		case roll < invalidRatio:
			cases[i] = g.invalid(i)
		case roll < invalidRatio+crisisRatio:
			cases[i] = g.crisis(i)
		default:
			cases[i] = Case{ID: i, Kind: KindOrdinary, Submission: g.submission(pick(g.rng, calmTexts))}
		}
	}
	return cases
}

func (g *Generator) crisis(id int) Case {
	kw := pick(g.rng, decision.CrisisKeywords())
	if g.rng.IntN(2) == 0 {
		kw = strings.ToUpper(kw)
	}
	text := pick(g.rng, calmTexts[1:]) + " and honestly " + kw
	return Case{ID: id, Kind: KindCrisis, Submission: g.submission(text)}
}

func (g *Generator) invalid(id int) Case {
	raw := g.submission("")
	c := Case{ID: id, Kind: KindInvalid}
	switch g.rng.IntN(4) {
	case 0:
		raw.Age = model.MinAge - 1 - g.rng.IntN(5)
		c.BadField = model.FieldAge
	case 1:
		raw.CGPA = model.MaxCGPA + 0.5
		c.BadField = model.FieldCGPA
	case 2:
		raw.Gender = "Unspecified"
		c.BadField = model.FieldGender
	default:
		raw.Department = "Astrology"
		c.BadField = model.FieldDepartment
	}
	c.Submission = raw
	return c
}

func (g *Generator) submission(text string) model.RawSubmission {
	raw := model.RawSubmission{
		Age:          model.MinAge + 3 + g.rng.IntN(15),
		Gender:       pick(g.rng, model.AllGenders()).String(),
		University:   pick(g.rng, model.AllUniversities()).String(),
		Department:   pick(g.rng, model.AllDepartments()).String(),
		AcademicYear: pick(g.rng, model.AllAcademicYears()).String(),
		CGPA:         float64(g.rng.IntN(1001)) / 100,
		FreeText:     text,
	}
	if g.enc == model.EncodingRaw {
		a, s, d := g.rng.IntN(model.MaxAnxietyRaw+1), g.rng.IntN(model.MaxStressRaw+1), g.rng.IntN(model.MaxDepressRaw+1)
		raw.AnxietyScore, raw.StressScore, raw.DepressionScore = &a, &s, &d
		return raw
	}
	raw.Anxiety = pick(g.rng, model.AllAnxieties()).String()
	raw.Stress = pick(g.rng, model.AllStresses()).String()
	raw.Depression = pick(g.rng, model.AllDepressions()).String()
	return raw
}

func pick[T any](rng *rand.Rand, options []T) T {
	return options[rng.IntN(len(options))]
}
