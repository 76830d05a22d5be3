// Package model contains the submission record, its closed option sets and
// the projection into the classifier's feature row.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Field names used in labeled errors and form keys.
const (
	FieldAge             = "age"
	FieldGender          = "gender"
	FieldUniversity      = "university"
	FieldDepartment      = "department"
	FieldAcademicYear    = "academic_year"
	FieldCGPA            = "cgpa"
	FieldAnxiety         = "anxiety"
	FieldStress          = "stress"
	FieldDepression      = "depression"
	FieldAnxietyScore    = "anxiety_score"
	FieldStressScore     = "stress_score"
	FieldDepressionScore = "depression_score"
	FieldFreeText        = "free_text"
)

// Widget bounds and defaults, kept identical to the form controls.
const (
	MinAge        = 15
	MaxAge        = 60
	DefaultAge    = 20
	MinCGPA       = 0.0
	MaxCGPA       = 10.0
	DefaultCGPA   = 7.5
	MaxAnxietyRaw = 30
	MaxStressRaw  = 40
	MaxDepressRaw = 30
	// MaxFreeText is the form's maxlength in characters. It is a widget hint
	// only: longer text is accepted so crisis language is never rejected.
	MaxFreeText = 5000
)

// Encoding selects how questionnaire answers are projected into the row.
type Encoding string

const (
	// EncodingOrdinal uses the 0..3 answer tables.
	EncodingOrdinal Encoding = "ordinal"
	// EncodingRaw uses legacy slider scores (0..30, 0..40, 0..30).
	EncodingRaw Encoding = "raw"
)

// ParseEncoding validates an encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(s))) {
	case EncodingOrdinal:
		return EncodingOrdinal, nil
	case EncodingRaw:
		return EncodingRaw, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// Sentinel kinds for model errors.
var (
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrUnknownEncoding   = errors.New("unknown questionnaire encoding")
)

// FieldError labels a rejected input with the field it came from.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s (%q)", e.Field, e.Reason, e.Value)
}

// Is lets callers match any field error against ErrInvalidSubmission.
func (e *FieldError) Is(target error) bool { return target == ErrInvalidSubmission }

// FieldErrors unpacks the labeled errors from an error returned by ParseSubmission.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
			return
		}
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range j.Unwrap() {
				walk(inner)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}

// RawSubmission is the untrusted shape posted by the form or the JSON API.
type RawSubmission struct {
	Age          int     `json:"age" yaml:"age"`
	Gender       string  `json:"gender" yaml:"gender"`
	University   string  `json:"university" yaml:"university"`
	Department   string  `json:"department" yaml:"department"`
	AcademicYear string  `json:"academic_year" yaml:"academic_year"`
	CGPA         float64 `json:"cgpa" yaml:"cgpa"`
	Anxiety      string  `json:"anxiety,omitempty" yaml:"anxiety,omitempty"`
	Stress       string  `json:"stress,omitempty" yaml:"stress,omitempty"`
	Depression   string  `json:"depression,omitempty" yaml:"depression,omitempty"`

	AnxietyScore    *int `json:"anxiety_score,omitempty" yaml:"anxiety_score,omitempty"`
	StressScore     *int `json:"stress_score,omitempty" yaml:"stress_score,omitempty"`
	DepressionScore *int `json:"depression_score,omitempty" yaml:"depression_score,omitempty"`

	FreeText string `json:"free_text" yaml:"free_text"`
}

// RawScores holds legacy slider values.
type RawScores struct {
	Anxiety    int
	Stress     int
	Depression int
}

// Submission is one validated form interaction. It is passed by value and
// never mutated after ParseSubmission returns.
type Submission struct {
	Age          int
	Gender       Gender
	University   University
	Department   Department
	AcademicYear AcademicYear
	CGPA         float64

	Encoding   Encoding
	Anxiety    Anxiety
	Stress     Stress
	Depression Depression
	Scores     RawScores

	FreeText string
}

// ParseSubmission validates every field and returns all failures at once.
func ParseSubmission(raw RawSubmission, enc Encoding) (Submission, error) {
	var errs []error
	sub := Submission{Age: raw.Age, CGPA: raw.CGPA, Encoding: enc, FreeText: raw.FreeText}

	if raw.Age < MinAge || raw.Age > MaxAge {
		errs = append(errs, &FieldError{Field: FieldAge, Value: fmt.Sprint(raw.Age), Reason: fmt.Sprintf("must be between %d and %d", MinAge, MaxAge)})
	}
	if math.IsNaN(raw.CGPA) || raw.CGPA < MinCGPA || raw.CGPA > MaxCGPA {
		errs = append(errs, &FieldError{Field: FieldCGPA, Value: fmt.Sprint(raw.CGPA), Reason: "must be between 0 and 10"})
	}

	var err error
	if sub.Gender, err = ParseGender(raw.Gender); err != nil {
		errs = append(errs, err)
	}
	if sub.University, err = ParseUniversity(raw.University); err != nil {
		errs = append(errs, err)
	}
	if sub.Department, err = ParseDepartment(raw.Department); err != nil {
		errs = append(errs, err)
	}
	if sub.AcademicYear, err = ParseAcademicYear(raw.AcademicYear); err != nil {
		errs = append(errs, err)
	}

	switch enc {
	case EncodingOrdinal:
		if sub.Anxiety, err = ParseAnxiety(raw.Anxiety); err != nil {
			errs = append(errs, err)
		}
		if sub.Stress, err = ParseStress(raw.Stress); err != nil {
			errs = append(errs, err)
		}
		if sub.Depression, err = ParseDepression(raw.Depression); err != nil {
			errs = append(errs, err)
		}
	case EncodingRaw:
		if sub.Scores.Anxiety, err = parseScore(FieldAnxietyScore, raw.AnxietyScore, MaxAnxietyRaw); err != nil {
			errs = append(errs, err)
		}
		if sub.Scores.Stress, err = parseScore(FieldStressScore, raw.StressScore, MaxStressRaw); err != nil {
			errs = append(errs, err)
		}
		if sub.Scores.Depression, err = parseScore(FieldDepressionScore, raw.DepressionScore, MaxDepressRaw); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc))
	}

	if len(errs) > 0 {
		return Submission{}, errors.Join(errs...)
	}
	return sub, nil
}

func parseScore(field string, v *int, hi int) (int, error) {
	if v == nil {
		return 0, &FieldError{Field: field, Reason: "required"}
	}
	if *v < 0 || *v > hi {
		return 0, &FieldError{Field: field, Value: fmt.Sprint(*v), Reason: fmt.Sprintf("must be between 0 and %d", hi)}
	}
	return *v, nil
}

// AnxietyAnswer renders the anxiety answer as shown to responders.
func (s Submission) AnxietyAnswer() string {
	if s.Encoding == EncodingRaw {
		return fmt.Sprintf("%d/%d", s.Scores.Anxiety, MaxAnxietyRaw)
	}
	return fmt.Sprintf("%s (%d)", s.Anxiety, s.Anxiety.Code())
}

// StressAnswer renders the stress answer as shown to responders.
func (s Submission) StressAnswer() string {
	if s.Encoding == EncodingRaw {
		return fmt.Sprintf("%d/%d", s.Scores.Stress, MaxStressRaw)
	}
	return fmt.Sprintf("%s (%d)", s.Stress, s.Stress.Code())
}

// DepressionAnswer renders the depression answer as shown to responders.
func (s Submission) DepressionAnswer() string {
	if s.Encoding == EncodingRaw {
		return fmt.Sprintf("%d/%d", s.Scores.Depression, MaxDepressRaw)
	}
	return fmt.Sprintf("%s (%d)", s.Depression, s.Depression.Code())
}
