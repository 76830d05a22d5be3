package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	service "github.com/okian/wellcheck/internal/app"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
)

// ReadSubmission loads a submission from a YAML or JSON file. "-" reads stdin.
func ReadSubmission(path string, stdin io.Reader) (model.RawSubmission, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return model.RawSubmission{}, fmt.Errorf("failed to read submission: %w", err)
	}
	var raw model.RawSubmission
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return model.RawSubmission{}, fmt.Errorf("failed to parse submission: %w", err)
	}
	return raw, nil
}

// PrintOutcome writes one locally evaluated outcome.
func PrintOutcome(w io.Writer, out service.Outcome) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "Ref: %s\n", out.Ref)

	switch {
	case out.Rejected != nil:
		_, _ = color.New(color.FgRed, color.Bold).Fprintln(w, "❌ Submission rejected")
		for _, fe := range model.FieldErrors(out.Rejected) {
			_, _ = fmt.Fprintf(w, "   %s\n", color.YellowString(fe.Error()))
		}
		return
	case out.Fault != nil:
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(w, "❌ %s\n", out.Fault.Kind.Describe())
		_, _ = fmt.Fprintf(w, "   %s\n", color.HiBlackString(out.Fault.Error()))
		return
	}

	v := out.Verdict
	_, _ = severityColor(v.Severity).Fprintf(w, "%s\n", v.Severity.Label())
	if v.KeywordOverride() {
		_, _ = fmt.Fprintf(w, "   Crisis language: %q\n", v.Keyword)
	} else {
		_, _ = fmt.Fprintf(w, "   Predicted class: %d\n", v.Class)
	}
	_, _ = fmt.Fprintf(w, "   Escalated: %t\n", v.Escalated)
	if v.Escalated {
		_, _ = fmt.Fprintf(w, "   %s\n", color.YellowString(out.Notification.Message))
	}

	_, _ = bold.Fprintln(w, "Input Preview")
	for i, name := range out.Row.Names() {
		_, _ = fmt.Fprintf(w, "   %-17s %v\n", name, out.Row.Values[i])
	}
}

func severityColor(s decision.Severity) *color.Color {
	switch s {
	case decision.SeverityLow:
		return color.New(color.FgGreen, color.Bold)
	case decision.SeverityMedium:
		return color.New(color.FgYellow, color.Bold)
	case decision.SeverityHigh, decision.SeverityCriticalOverride:
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.FgWhite)
}
