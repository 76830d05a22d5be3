package site

import (
	"strconv"

	"github.com/okian/wellcheck/internal/domain/model"
)

// Banner classes used by the template and the stylesheet.
const (
	bannerSuccess = "success"
	bannerWarning = "warning"
	bannerAlarm   = "alarm"
	bannerError   = "error"
)

type option struct {
	Value    string
	Selected bool
}

type choiceField struct {
	Name    string
	Label   string
	Options []option
}

type scoreField struct {
	Name  string
	Label string
	Max   int
	Value int
}

type previewCell struct {
	Name  string
	Value string
}

type result struct {
	Ref      string
	Banner   string
	Title    string
	Message  string
	Errors   []string
	Alarm    bool
	Notice   string
	NoticeOK bool
	Preview  []previewCell
}

type page struct {
	Raw       bool
	Age       int
	MinAge    int
	MaxAge    int
	CGPA      string
	FreeText  string
	Profile   []choiceField
	Questions []choiceField
	Scores    []scoreField
	Result    *result
}

func choices[T interface{ String() string }](name, label string, all []T, selected string) choiceField {
	f := choiceField{Name: name, Label: label, Options: make([]option, len(all))}
	for i, v := range all {
		f.Options[i] = option{Value: v.String(), Selected: v.String() == selected}
	}
	if selected == "" && len(f.Options) > 0 {
		f.Options[0].Selected = true
	}
	return f
}

func scoreValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// newPage builds the form view, echoing raw so a re-render keeps the answers.
func newPage(enc model.Encoding, raw model.RawSubmission) page {
	p := page{
		Raw:      enc == model.EncodingRaw,
		Age:      raw.Age,
		MinAge:   model.MinAge,
		MaxAge:   model.MaxAge,
		CGPA:     strconv.FormatFloat(raw.CGPA, 'f', 1, 64),
		FreeText: raw.FreeText,
		Profile: []choiceField{
			choices(model.FieldGender, "Gender", model.AllGenders(), raw.Gender),
			choices(model.FieldUniversity, "University", model.AllUniversities(), raw.University),
			choices(model.FieldDepartment, "Department", model.AllDepartments(), raw.Department),
			choices(model.FieldAcademicYear, "Academic Year", model.AllAcademicYears(), raw.AcademicYear),
		},
	}

	if p.Raw {
		p.Scores = []scoreField{
			{Name: model.FieldAnxietyScore, Label: "Anxiety score", Max: model.MaxAnxietyRaw, Value: scoreValue(raw.AnxietyScore)},
			{Name: model.FieldStressScore, Label: "Stress score", Max: model.MaxStressRaw, Value: scoreValue(raw.StressScore)},
			{Name: model.FieldDepressionScore, Label: "Depression score", Max: model.MaxDepressRaw, Value: scoreValue(raw.DepressionScore)},
		}
		return p
	}
	p.Questions = []choiceField{
		choices(model.FieldAnxiety, "How often do you feel anxious?", model.AllAnxieties(), raw.Anxiety),
		choices(model.FieldStress, "How often do you feel stressed?", model.AllStresses(), raw.Stress),
		choices(model.FieldDepression, "How often do you feel down or depressed?", model.AllDepressions(), raw.Depression),
	}
	return p
}
