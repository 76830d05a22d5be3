package decision

// Severity is the coarse stress label produced by the engine.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCriticalOverride
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCriticalOverride:
		return "CriticalOverride"
	}
	return "Unknown"
}

// Slug is the stable machine name used in JSON and metric labels.
func (s Severity) Slug() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCriticalOverride:
		return "critical_override"
	}
	return "unknown"
}

// Label is the human-readable result shown to the person filling the form.
func (s Severity) Label() string {
	switch s {
	case SeverityLow:
		return "Low Stress (Level 1)"
	case SeverityMedium:
		return "Medium Stress (Level 2)"
	case SeverityHigh:
		return "High Stress (Level 3)"
	case SeverityCriticalOverride:
		return "Critical: crisis language detected"
	}
	return "Unknown Level"
}

// Verdict is the engine output. Class is -1 when the classifier was not consulted.
type Verdict struct {
	Severity  Severity
	Escalated bool
	Class     int
	Keyword   string
}

// KeywordOverride reports whether the verdict came from crisis text matching.
func (v Verdict) KeywordOverride() bool { return v.Severity == SeverityCriticalOverride }

// severityByClass is the fixed class index map.
func severityByClass(class int) (Severity, bool) {
	switch class {
	case 0:
		return SeverityLow, true
	case 1:
		return SeverityMedium, true
	case 2:
		return SeverityHigh, true
	}
	return 0, false
}
