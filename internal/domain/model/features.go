package model

import "slices"

// FeatureCount is the width of the classifier input.
const FeatureCount = 9

// featureNames are the training-time column labels, in row order.
var featureNames = [FeatureCount]string{ //nolint:gochecknoglobals
	"Age",
	"Gender",
	"University",
	"Department",
	"Academic Year",
	"Current CGPA",
	"Anxiety Value",
	"Stress Value",
	"Depression Value",
}

// FeatureNames returns a copy of the column labels.
func FeatureNames() []string {
	return slices.Clone(featureNames[:])
}

// FeatureRow is the column-labeled numeric projection of a Submission.
type FeatureRow struct {
	Values [FeatureCount]float64
}

// Names returns the column labels the values are aligned with.
func (FeatureRow) Names() []string { return FeatureNames() }

// Slice returns the values as a fresh slice.
func (r FeatureRow) Slice() []float64 { return slices.Clone(r.Values[:]) }

// FeatureRow projects the submission using its questionnaire encoding.
func (s Submission) FeatureRow() FeatureRow {
	anxiety, stress, depression := s.Anxiety.Code(), s.Stress.Code(), s.Depression.Code()
	if s.Encoding == EncodingRaw {
		anxiety, stress, depression = s.Scores.Anxiety, s.Scores.Stress, s.Scores.Depression
	}
	return FeatureRow{Values: [FeatureCount]float64{
		float64(s.Age),
		float64(s.Gender.Code()),
		float64(s.University.Code()),
		float64(s.Department.Code()),
		float64(s.AcademicYear.Code()),
		s.CGPA,
		float64(anxiety),
		float64(stress),
		float64(depression),
	}}
}
