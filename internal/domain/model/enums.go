package model

import "strings"

// Gender is the closed set of gender options.
type Gender int

const (
	GenderMale Gender = iota + 1
	GenderFemale
)

// AllGenders lists the options in presentation order.
func AllGenders() []Gender { return []Gender{GenderMale, GenderFemale} }

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	}
	return ""
}

// Code returns the trained integer code.
func (g Gender) Code() int {
	switch g {
	case GenderMale:
		return 1
	case GenderFemale:
		return 0
	}
	return -1
}

// ParseGender maps a presented label to a Gender.
func ParseGender(s string) (Gender, error) {
	return parseEnum(FieldGender, s, AllGenders())
}

// University is the closed set of universities.
type University int

const (
	UniversityA University = iota + 1
	UniversityB
	UniversityC
	UniversityOther
)

// AllUniversities lists the options in presentation order.
func AllUniversities() []University {
	return []University{UniversityA, UniversityB, UniversityC, UniversityOther}
}

func (u University) String() string {
	switch u {
	case UniversityA:
		return "University A"
	case UniversityB:
		return "University B"
	case UniversityC:
		return "University C"
	case UniversityOther:
		return "Other"
	}
	return ""
}

// Code returns the trained integer code.
func (u University) Code() int {
	switch u {
	case UniversityA:
		return 0
	case UniversityB:
		return 1
	case UniversityC:
		return 2
	case UniversityOther:
		return 3
	}
	return -1
}

// ParseUniversity maps a presented label to a University.
func ParseUniversity(s string) (University, error) {
	return parseEnum(FieldUniversity, s, AllUniversities())
}

// Department is the closed set of departments.
type Department int

const (
	DepartmentComputerScience Department = iota + 1
	DepartmentElectrical
	DepartmentMechanical
	DepartmentCivil
	DepartmentOther
)

// AllDepartments lists the options in presentation order.
func AllDepartments() []Department {
	return []Department{DepartmentComputerScience, DepartmentElectrical, DepartmentMechanical, DepartmentCivil, DepartmentOther}
}

func (d Department) String() string {
	switch d {
	case DepartmentComputerScience:
		return "Computer Science"
	case DepartmentElectrical:
		return "Electrical"
	case DepartmentMechanical:
		return "Mechanical"
	case DepartmentCivil:
		return "Civil"
	case DepartmentOther:
		return "Other"
	}
	return ""
}

// Code returns the trained integer code.
func (d Department) Code() int {
	switch d {
	case DepartmentComputerScience:
		return 0
	case DepartmentElectrical:
		return 1
	case DepartmentMechanical:
		return 2
	case DepartmentCivil:
		return 3
	case DepartmentOther:
		return 4
	}
	return -1
}

// ParseDepartment maps a presented label to a Department.
func ParseDepartment(s string) (Department, error) {
	return parseEnum(FieldDepartment, s, AllDepartments())
}

// AcademicYear is the closed set of study years.
type AcademicYear int

const (
	YearFirst AcademicYear = iota + 1
	YearSecond
	YearThird
	YearFourth
	YearOther
)

// AllAcademicYears lists the options in presentation order.
func AllAcademicYears() []AcademicYear {
	return []AcademicYear{YearFirst, YearSecond, YearThird, YearFourth, YearOther}
}

func (y AcademicYear) String() string {
	switch y {
	case YearFirst:
		return "First Year or Equivalent"
	case YearSecond:
		return "Second Year or Equivalent"
	case YearThird:
		return "Third Year or Equivalent"
	case YearFourth:
		return "Fourth Year or Equivalent"
	case YearOther:
		return "Other"
	}
	return ""
}

// Code returns the trained integer code. "Other" is 0, not 5.
func (y AcademicYear) Code() int {
	switch y {
	case YearFirst:
		return 1
	case YearSecond:
		return 2
	case YearThird:
		return 3
	case YearFourth:
		return 4
	case YearOther:
		return 0
	}
	return -1
}

// ParseAcademicYear maps a presented label to an AcademicYear.
func ParseAcademicYear(s string) (AcademicYear, error) {
	return parseEnum(FieldAcademicYear, s, AllAcademicYears())
}

// Anxiety is the ordinal answer to the anxiety question.
type Anxiety int

const (
	AnxietyNever Anxiety = iota + 1
	AnxietySometimes
	AnxietyOften
	AnxietyAlmostEveryDay
)

// AllAnxieties lists the options in ordinal order.
func AllAnxieties() []Anxiety {
	return []Anxiety{AnxietyNever, AnxietySometimes, AnxietyOften, AnxietyAlmostEveryDay}
}

func (a Anxiety) String() string {
	switch a {
	case AnxietyNever:
		return "Never"
	case AnxietySometimes:
		return "Sometimes"
	case AnxietyOften:
		return "Often"
	case AnxietyAlmostEveryDay:
		return "Almost every day"
	}
	return ""
}

// Code returns the ordinal code 0..3.
func (a Anxiety) Code() int {
	switch a {
	case AnxietyNever:
		return 0
	case AnxietySometimes:
		return 1
	case AnxietyOften:
		return 2
	case AnxietyAlmostEveryDay:
		return 3
	}
	return -1
}

// ParseAnxiety maps a presented label to an Anxiety answer.
func ParseAnxiety(s string) (Anxiety, error) {
	return parseEnum(FieldAnxiety, s, AllAnxieties())
}

// Stress is the ordinal answer to the stress question.
type Stress int

const (
	StressRarely Stress = iota + 1
	StressSometimes
	StressFrequently
	StressAlways
)

// AllStresses lists the options in ordinal order.
func AllStresses() []Stress {
	return []Stress{StressRarely, StressSometimes, StressFrequently, StressAlways}
}

func (s Stress) String() string {
	switch s {
	case StressRarely:
		return "Rarely"
	case StressSometimes:
		return "Sometimes"
	case StressFrequently:
		return "Frequently"
	case StressAlways:
		return "Always"
	}
	return ""
}

// Code returns the ordinal code 0..3.
func (s Stress) Code() int {
	switch s {
	case StressRarely:
		return 0
	case StressSometimes:
		return 1
	case StressFrequently:
		return 2
	case StressAlways:
		return 3
	}
	return -1
}

// ParseStress maps a presented label to a Stress answer.
func ParseStress(s string) (Stress, error) {
	return parseEnum(FieldStress, s, AllStresses())
}

// Depression is the ordinal answer to the depression question.
type Depression int

const (
	DepressionNever Depression = iota + 1
	DepressionSometimes
	DepressionOften
	DepressionEveryDay
)

// AllDepressions lists the options in ordinal order.
func AllDepressions() []Depression {
	return []Depression{DepressionNever, DepressionSometimes, DepressionOften, DepressionEveryDay}
}

func (d Depression) String() string {
	switch d {
	case DepressionNever:
		return "Never"
	case DepressionSometimes:
		return "Sometimes"
	case DepressionOften:
		return "Often"
	case DepressionEveryDay:
		return "Every day"
	}
	return ""
}

// Code returns the ordinal code 0..3.
func (d Depression) Code() int {
	switch d {
	case DepressionNever:
		return 0
	case DepressionSometimes:
		return 1
	case DepressionOften:
		return 2
	case DepressionEveryDay:
		return 3
	}
	return -1
}

// ParseDepression maps a presented label to a Depression answer.
func ParseDepression(s string) (Depression, error) {
	return parseEnum(FieldDepression, s, AllDepressions())
}

// parseEnum matches labels exactly after trimming surrounding space.
func parseEnum[T interface {
	comparable
	String() string
}](field, s string, options []T) (T, error) {
	label := strings.TrimSpace(s)
	for _, opt := range options {
		if opt.String() == label {
			return opt, nil
		}
	}
	var zero T
	if label == "" {
		return zero, &FieldError{Field: field, Value: s, Reason: "required"}
	}
	return zero, &FieldError{Field: field, Value: s, Reason: "unknown option"}
}
