package probe

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
)

var severityClass = map[string]int{"low": 0, "medium": 1, "high": 2} //nolint:gochecknoglobals

// Verifier checks replies against the decision rules for one encoding.
type Verifier struct {
	enc model.Encoding
}

// NewVerifier creates a verifier for the service's questionnaire encoding.
func NewVerifier(enc model.Encoding) *Verifier {
	return &Verifier{enc: enc}
}

// Check returns every rule the reply breaks. An empty result means the
// reply is consistent with the case.
func (v *Verifier) Check(c Case, r Reply) []string {
	if c.Kind == KindInvalid {
		return v.checkRejected(c, r)
	}
	if r.Status != http.StatusOK || r.Assessment == nil {
		code := ""
		if r.Problem != nil {
			code = r.Problem.Code
		}
		return []string{fmt.Sprintf("unexpected status %d (%s)", r.Status, code)}
	}
	return v.checkAssessment(c, r.Assessment)
}

func (v *Verifier) checkRejected(c Case, r Reply) []string {
	var out []string
	if r.Status != http.StatusUnprocessableEntity || r.Problem == nil {
		return []string{fmt.Sprintf("invalid %s accepted with status %d", c.BadField, r.Status)}
	}
	if r.Problem.Code != "invalid_submission" {
		out = append(out, fmt.Sprintf("rejection code %q", r.Problem.Code))
	}
	if !slices.ContainsFunc(r.Problem.Fields, func(f FieldProblem) bool { return f.Field == c.BadField }) {
		out = append(out, fmt.Sprintf("rejection does not name field %s", c.BadField))
	}
	if _, err := uuid.Parse(r.Problem.Ref); err != nil {
		out = append(out, fmt.Sprintf("rejection ref %q is not a uuid", r.Problem.Ref))
	}
	return out
}

func (v *Verifier) checkAssessment(c Case, a *Assessment) []string {
	var out []string
	if _, err := uuid.Parse(a.Ref); err != nil {
		out = append(out, fmt.Sprintf("ref %q is not a uuid", a.Ref))
	}
	out = append(out, v.checkFeatures(c, a.Features)...)

	if kw, hit := decision.MatchCrisis(c.Submission.FreeText); hit {
		if a.Severity != decision.SeverityCriticalOverride.Slug() || !a.Escalated {
			out = append(out, fmt.Sprintf("crisis text %q answered %s escalated=%t", kw, a.Severity, a.Escalated))
		}
		if a.Class != nil {
			out = append(out, "classifier consulted despite crisis text")
		}
		if a.Keyword != kw {
			out = append(out, fmt.Sprintf("keyword %q, want %q", a.Keyword, kw))
		}
	} else {
		want, known := severityClass[a.Severity]
		switch {
		case !known:
			out = append(out, fmt.Sprintf("severity %q without crisis text", a.Severity))
		case a.Class == nil:
			out = append(out, "class missing")
		case *a.Class != want:
			out = append(out, fmt.Sprintf("class %d labeled %s", *a.Class, a.Severity))
		}
		if a.Escalated != (a.Severity == decision.SeverityHigh.Slug()) {
			out = append(out, fmt.Sprintf("%s escalated=%t", a.Severity, a.Escalated))
		}
	}

	if a.Escalated != (a.Notification != nil) {
		out = append(out, fmt.Sprintf("escalated=%t but notification present=%t", a.Escalated, a.Notification != nil))
	}
	return out
}

func (v *Verifier) checkFeatures(c Case, got []Feature) []string {
	sub, err := model.ParseSubmission(c.Submission, v.enc)
	if err != nil {
		return []string{fmt.Sprintf("accepted a submission that does not parse locally: %v", err)}
	}
	row := sub.FeatureRow()
	names := row.Names()
	if len(got) != len(names) {
		return []string{fmt.Sprintf("%d features, want %d", len(got), len(names))}
	}
	var out []string
	for i, f := range got {
		if f.Name != names[i] || f.Value != row.Values[i] {
			out = append(out, fmt.Sprintf("feature %d is %s=%v, want %s=%v", i, f.Name, f.Value, names[i], row.Values[i]))
		}
	}
	return out
}
